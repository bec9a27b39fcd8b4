// Copyright (c) 2025 StudyLoop Inc. All Rights Reserved.
// This is licensed software from StudyLoop Inc, for limitations
// and restrictions contact your company contract manager.

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	sessionsKeyFmt   = "churn_risk:sessions:%s"
	studentKeyFmt    = "churn_risk:students:%s"
	studentsIndexKey = "churn_risk:students:index"
)

// RedisSessionStore implements SessionRepository over the read-side
// projection the platform's ingestion jobs maintain: one JSON array of
// completed sessions per student.
type RedisSessionStore struct {
	client *redis.Client
	cfg    RedisSessionStoreConfig
}

type RedisSessionStoreConfig struct{}

// NewRedisSessionStore creates a new Redis-backed session repository.
func NewRedisSessionStore(client *redis.Client, cfg RedisSessionStoreConfig) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		cfg:    cfg,
	}
}

func makeSessionsKey(studentID string) string {
	return fmt.Sprintf(sessionsKeyFmt, studentID)
}

// ListCompletedSessions returns a student's completed sessions ordered by
// scheduled time ascending. An unknown student yields an empty slice.
func (r *RedisSessionStore) ListCompletedSessions(ctx context.Context, studentID string) ([]SessionRecord, error) {
	key := makeSessionsKey(studentID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		logrus.Debugf("no session projection for student %s", studentID)
		return []SessionRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions for student %s: %w", studentID, err)
	}

	var sessions []SessionRecord
	if err := json.Unmarshal([]byte(data), &sessions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sessions for student %s: %w", studentID, err)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].ScheduledAt.Before(sessions[j].ScheduledAt)
	})
	return sessions, nil
}

// PutSessions replaces a student's session projection. Called by the
// ingestion side and by test fixtures; the scoring paths only read.
func (r *RedisSessionStore) PutSessions(ctx context.Context, studentID string, sessions []SessionRecord) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions for student %s: %w", studentID, err)
	}

	if err := r.client.Set(ctx, makeSessionsKey(studentID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set sessions for student %s: %w", studentID, err)
	}
	return nil
}

// RedisStudentStore implements StudentRepository over the enrollment
// projection: one JSON snapshot per student plus a set index for
// population enumeration.
type RedisStudentStore struct {
	client *redis.Client
	cfg    RedisStudentStoreConfig
}

type RedisStudentStoreConfig struct{}

// NewRedisStudentStore creates a new Redis-backed student repository.
func NewRedisStudentStore(client *redis.Client, cfg RedisStudentStoreConfig) *RedisStudentStore {
	return &RedisStudentStore{
		client: client,
		cfg:    cfg,
	}
}

func makeStudentKey(studentID string) string {
	return fmt.Sprintf(studentKeyFmt, studentID)
}

// GetStudent returns one student's enrollment snapshot.
func (r *RedisStudentStore) GetStudent(ctx context.Context, studentID string) (*StudentRecord, error) {
	data, err := r.client.Get(ctx, makeStudentKey(studentID)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student %s: %w", studentID, err)
	}

	var record StudentRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal student %s: %w", studentID, err)
	}
	return &record, nil
}

// ListStudents enumerates all students in the projection.
func (r *RedisStudentStore) ListStudents(ctx context.Context) ([]StudentRecord, error) {
	ids, err := r.client.SMembers(ctx, studentsIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	records := make([]StudentRecord, 0, len(ids))
	for _, id := range ids {
		record, err := r.GetStudent(ctx, id)
		if err != nil {
			// Index and snapshot can briefly disagree while the
			// ingestion job is writing; skip the hole.
			logrus.Warnf("student %s indexed but missing snapshot: %v", id, err)
			continue
		}
		records = append(records, *record)
	}
	return records, nil
}

// PutStudent upserts a student's enrollment snapshot and indexes it.
func (r *RedisStudentStore) PutStudent(ctx context.Context, record *StudentRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal student %s: %w", record.StudentID, err)
	}

	if err := r.client.Set(ctx, makeStudentKey(record.StudentID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set student %s: %w", record.StudentID, err)
	}
	if err := r.client.SAdd(ctx, studentsIndexKey, record.StudentID).Err(); err != nil {
		return fmt.Errorf("failed to index student %s: %w", record.StudentID, err)
	}
	return nil
}
