// Copyright (c) 2025 StudyLoop Inc. All Rights Reserved.
// This is licensed software from StudyLoop Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"os"
	"strings"
)

// GetEnv returns the environment variable value or a fallback.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

// ExpandEnv expands ${VAR} and ${VAR:default} references in a string.
// Used by YAML config loading so deployments can parameterize files.
func ExpandEnv(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		return GetEnv(varName, defaultValue)
	})
}
