// Copyright (c) 2025 StudyLoop Inc. All Rights Reserved.
// This is licensed software from StudyLoop Inc, for limitations
// and restrictions contact your company contract manager.

package service

import (
	"time"

	"github.com/studyloop/churn-risk-engine/pkg/factor"
)

// StudentStatus is the enrollment state of a student as reported by the
// student repository. The enrollment service is the source of truth; this
// engine only reads it.
type StudentStatus string

const (
	StatusActive  StudentStatus = "active"
	StatusChurned StudentStatus = "churned"
	StatusPaused  StudentStatus = "paused"
)

// SessionRecord is one completed tutoring session with its quality
// sub-metrics. Optional sub-metrics are nil when the session never
// recorded them; the factor calculators degrade to neutral defaults.
type SessionRecord struct {
	SessionID       string    `json:"sessionId"`
	StudentID       string    `json:"studentId"`
	TutorID         string    `json:"tutorId"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	OverallScore    *float64  `json:"overallScore,omitempty"`    // 0-10 scale
	EngagementScore *float64  `json:"engagementScore,omitempty"` // 0-10 scale
	FollowUpBooked  bool      `json:"followUpBooked"`
}

// Signals converts the record into the factor-calculator input shape.
func (s SessionRecord) Signals() factor.Session {
	return factor.Session{
		ScheduledAt:     s.ScheduledAt,
		TutorID:         s.TutorID,
		OverallScore:    s.OverallScore,
		EngagementScore: s.EngagementScore,
		FollowUpBooked:  s.FollowUpBooked,
	}
}

// SessionSignals converts a slice of records for factor computation,
// preserving the scheduled-time ordering the repository guarantees.
func SessionSignals(records []SessionRecord) []factor.Session {
	out := make([]factor.Session, 0, len(records))
	for _, r := range records {
		out = append(out, r.Signals())
	}
	return out
}

// StudentRecord is a student's enrollment/outcome snapshot.
type StudentRecord struct {
	StudentID     string        `json:"studentId"`
	Status        StudentStatus `json:"status"`
	EnrolledSince time.Time     `json:"enrolledSince"`
}

// CaseStudyRef links a weight change to the observed outcome that
// motivated it.
type CaseStudyRef struct {
	StudentID string `json:"studentId"`
	SessionID string `json:"sessionId,omitempty"`
}

// WeightHistoryEntry records one weight-set transition for audit and
// replay. Entries are written exactly once per successful update and are
// never mutated or deleted.
type WeightHistoryEntry struct {
	ID             string         `json:"id"`
	Version        int            `json:"version"`
	Actor          string         `json:"actor"`
	Reason         string         `json:"reason"`
	CaseStudy      *CaseStudyRef  `json:"caseStudy,omitempty"`
	OldWeights     factor.Weights `json:"oldWeights"`
	NewWeights     factor.Weights `json:"newWeights"`
	AccuracyBefore float64        `json:"accuracyBefore"`
	AccuracyAfter  float64        `json:"accuracyAfter"`
	CreatedAt      time.Time      `json:"createdAt"`
}
