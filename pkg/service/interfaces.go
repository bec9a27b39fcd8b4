package service

import (
	"context"
	"errors"

	"github.com/studyloop/churn-risk-engine/pkg/factor"
)

// ErrNotFound is returned when a referenced student, session set, weight
// version, or history entry does not exist in the backing store.
var ErrNotFound = errors.New("not found")

// Service interfaces for the external collaborators the engine consumes.
// The engine never owns session or enrollment data; it reads projections
// maintained by the platform's ingestion jobs.
//
// Interfaces keep the engine testable against in-memory fakes (see mock/).

// SessionRepository provides a student's completed sessions with their
// quality sub-metrics.
type SessionRepository interface {
	// ListCompletedSessions returns all completed sessions for a student,
	// ordered by scheduled time ascending. A student with no sessions
	// yields an empty slice, not an error.
	ListCompletedSessions(ctx context.Context, studentID string) ([]SessionRecord, error)
}

// StudentRepository provides enrollment and outcome status.
type StudentRepository interface {
	// GetStudent returns one student's enrollment snapshot, or ErrNotFound.
	GetStudent(ctx context.Context, studentID string) (*StudentRecord, error)

	// ListStudents enumerates the known student population for
	// retroactive accuracy evaluation.
	ListStudents(ctx context.Context) ([]StudentRecord, error)
}

// WeightStore persists versioned factor weights and their change history.
// Versions are immutable once written; updates always create a new version.
type WeightStore interface {
	// GetLatestVersion returns the highest existing version number, or 0
	// when no version has ever been written.
	GetLatestVersion(ctx context.Context) (int, error)

	// GetWeights returns the weight map persisted under a version, or
	// ErrNotFound.
	GetWeights(ctx context.Context, version int) (factor.Weights, error)

	// AllocateVersion atomically reserves the next version number. The
	// sequence is monotonic under concurrent writers; two callers are
	// never handed the same version.
	AllocateVersion(ctx context.Context) (int, error)

	// InsertWeightVersion persists an immutable weight set under an
	// allocated version, carrying the author-supplied note.
	InsertWeightVersion(ctx context.Context, version int, weights factor.Weights, note string) error

	// InsertHistoryEntry persists one audit entry and returns its ID.
	InsertHistoryEntry(ctx context.Context, entry *WeightHistoryEntry) (string, error)

	// GetHistoryEntry returns a history entry by ID, or ErrNotFound.
	// Entries are immutable: repeated reads return identical data.
	GetHistoryEntry(ctx context.Context, id string) (*WeightHistoryEntry, error)

	// ListHistory returns up to limit history entries, newest first.
	ListHistory(ctx context.Context, limit int) ([]WeightHistoryEntry, error)
}
