package mock

import (
	"context"
	"sort"

	"github.com/studyloop/churn-risk-engine/pkg/service"
)

// SessionRepository is a configurable in-memory implementation of
// service.SessionRepository for testing.
type SessionRepository struct {
	// ListCompletedSessionsFunc allows tests to customize the behavior
	ListCompletedSessionsFunc func(ctx context.Context, studentID string) ([]service.SessionRecord, error)

	// Simple fields for common test scenarios
	Sessions map[string][]service.SessionRecord
	Err      error
}

// NewSessionRepository creates an empty mock session repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		Sessions: make(map[string][]service.SessionRecord),
	}
}

// WithSessions sets the sessions returned for a student.
func (m *SessionRepository) WithSessions(studentID string, sessions []service.SessionRecord) *SessionRepository {
	if m.Sessions == nil {
		m.Sessions = make(map[string][]service.SessionRecord)
	}
	m.Sessions[studentID] = sessions
	return m
}

// ListCompletedSessions returns the configured sessions ordered by
// scheduled time ascending.
func (m *SessionRepository) ListCompletedSessions(ctx context.Context, studentID string) ([]service.SessionRecord, error) {
	if m.ListCompletedSessionsFunc != nil {
		return m.ListCompletedSessionsFunc(ctx, studentID)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	sessions := append([]service.SessionRecord(nil), m.Sessions[studentID]...)
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].ScheduledAt.Before(sessions[j].ScheduledAt)
	})
	return sessions, nil
}

// StudentRepository is a configurable in-memory implementation of
// service.StudentRepository for testing.
type StudentRepository struct {
	GetStudentFunc   func(ctx context.Context, studentID string) (*service.StudentRecord, error)
	ListStudentsFunc func(ctx context.Context) ([]service.StudentRecord, error)

	Students map[string]service.StudentRecord
	Err      error
}

// NewStudentRepository creates an empty mock student repository.
func NewStudentRepository() *StudentRepository {
	return &StudentRepository{
		Students: make(map[string]service.StudentRecord),
	}
}

// WithStudent adds a student record.
func (m *StudentRepository) WithStudent(record service.StudentRecord) *StudentRepository {
	if m.Students == nil {
		m.Students = make(map[string]service.StudentRecord)
	}
	m.Students[record.StudentID] = record
	return m
}

// GetStudent returns the configured student or service.ErrNotFound.
func (m *StudentRepository) GetStudent(ctx context.Context, studentID string) (*service.StudentRecord, error) {
	if m.GetStudentFunc != nil {
		return m.GetStudentFunc(ctx, studentID)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	record, ok := m.Students[studentID]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &record, nil
}

// ListStudents returns all configured students in stable ID order.
func (m *StudentRepository) ListStudents(ctx context.Context) ([]service.StudentRecord, error) {
	if m.ListStudentsFunc != nil {
		return m.ListStudentsFunc(ctx)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	ids := make([]string, 0, len(m.Students))
	for id := range m.Students {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]service.StudentRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, m.Students[id])
	}
	return records, nil
}
