package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRedisSessionStore_UnknownStudentIsEmpty(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	store := NewRedisSessionStore(client, RedisSessionStoreConfig{})

	sessions, err := store.ListCompletedSessions(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListCompletedSessions() error = %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected empty slice for unknown student, got %d sessions", len(sessions))
	}
}

func TestRedisSessionStore_RoundTripOrdered(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	store := NewRedisSessionStore(client, RedisSessionStoreConfig{})
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	score := 7.5
	// Deliberately out of order; reads must come back ascending.
	in := []SessionRecord{
		{SessionID: "s-2", StudentID: "student-1", TutorID: "tutor-a", ScheduledAt: base.AddDate(0, 0, 7), FollowUpBooked: true},
		{SessionID: "s-1", StudentID: "student-1", TutorID: "tutor-a", ScheduledAt: base, OverallScore: &score},
	}

	if err := store.PutSessions(ctx, "student-1", in); err != nil {
		t.Fatalf("PutSessions() error = %v", err)
	}

	out, err := store.ListCompletedSessions(ctx, "student-1")
	if err != nil {
		t.Fatalf("ListCompletedSessions() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d sessions, expected 2", len(out))
	}
	if out[0].SessionID != "s-1" || out[1].SessionID != "s-2" {
		t.Errorf("sessions not ordered by scheduled time: [%s %s]", out[0].SessionID, out[1].SessionID)
	}
	if out[0].OverallScore == nil || *out[0].OverallScore != 7.5 {
		t.Errorf("OverallScore = %v, expected 7.5", out[0].OverallScore)
	}
	if out[1].EngagementScore != nil {
		t.Errorf("EngagementScore = %v, expected nil for missing sub-metric", out[1].EngagementScore)
	}
}

func TestRedisStudentStore_GetAndList(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	store := NewRedisStudentStore(client, RedisStudentStoreConfig{})
	ctx := context.Background()

	_, err := store.GetStudent(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetStudent(missing) error = %v, expected ErrNotFound", err)
	}

	records := []StudentRecord{
		{StudentID: "student-1", Status: StatusActive, EnrolledSince: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)},
		{StudentID: "student-2", Status: StatusChurned, EnrolledSince: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
	}
	for i := range records {
		if err := store.PutStudent(ctx, &records[i]); err != nil {
			t.Fatalf("PutStudent(%s) error = %v", records[i].StudentID, err)
		}
	}

	got, err := store.GetStudent(ctx, "student-2")
	if err != nil {
		t.Fatalf("GetStudent() error = %v", err)
	}
	if got.Status != StatusChurned {
		t.Errorf("Status = %s, expected churned", got.Status)
	}

	all, err := store.ListStudents(ctx)
	if err != nil {
		t.Fatalf("ListStudents() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListStudents() returned %d students, expected 2", len(all))
	}
}
