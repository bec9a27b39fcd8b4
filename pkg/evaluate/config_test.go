package evaluate

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
evaluation:
  min_completed_sessions: 5
  active_tenure_days: 120
  concurrency: 4
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.MinCompletedSessions != 5 || cfg.ActiveTenureDays != 120 || cfg.Concurrency != 4 {
		t.Errorf("cfg = %+v, expected 5/120/4", cfg)
	}
}

func TestLoadConfig_DefaultsForOmittedFields(t *testing.T) {
	path := writeConfig(t, `
evaluation:
  active_tenure_days: 60
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	defaults := DefaultConfig()
	if cfg.MinCompletedSessions != defaults.MinCompletedSessions {
		t.Errorf("MinCompletedSessions = %d, expected default %d", cfg.MinCompletedSessions, defaults.MinCompletedSessions)
	}
	if cfg.ActiveTenureDays != 60 {
		t.Errorf("ActiveTenureDays = %d, expected 60", cfg.ActiveTenureDays)
	}
	if cfg.Concurrency != defaults.Concurrency {
		t.Errorf("Concurrency = %d, expected default %d", cfg.Concurrency, defaults.Concurrency)
	}
}

func TestLoadConfig_EnvExpansion(t *testing.T) {
	t.Setenv("EVAL_CONCURRENCY", "16")

	path := writeConfig(t, `
evaluation:
  concurrency: ${EVAL_CONCURRENCY:8}
  active_tenure_days: ${EVAL_TENURE_DAYS:90}
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Concurrency != 16 {
		t.Errorf("Concurrency = %d, expected 16 from environment", cfg.Concurrency)
	}
	if cfg.ActiveTenureDays != 90 {
		t.Errorf("ActiveTenureDays = %d, expected default 90 from expansion", cfg.ActiveTenureDays)
	}
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	path := writeConfig(t, `
evaluation:
  min_completed_sessions: -1
`)

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for negative min_completed_sessions")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
