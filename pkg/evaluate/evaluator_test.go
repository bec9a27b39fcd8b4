package evaluate

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/studyloop/churn-risk-engine/pkg/factor"
	"github.com/studyloop/churn-risk-engine/pkg/scoring"
	"github.com/studyloop/churn-risk-engine/pkg/service"
	"github.com/studyloop/churn-risk-engine/pkg/service/mock"
)

func defaultTestWeights() factor.Weights {
	return factor.Weights{
		factor.FirstSessionSatisfaction: 0.25,
		factor.SessionsCompleted:        0.15,
		factor.FollowUpBookingRate:      0.20,
		factor.AvgSessionScore:          0.15,
		factor.TutorConsistency:         0.10,
		factor.StudentEngagement:        0.15,
	}
}

// riskySessions score ≈0.71 under default weights: weak first session, no
// follow-ups, three tutors, low engagement.
func riskySessions(studentID string) []service.SessionRecord {
	low := 5.0
	engagement := 3.0
	records := make([]service.SessionRecord, 3)
	for i := range records {
		records[i] = service.SessionRecord{
			SessionID:       fmt.Sprintf("%s-s%d", studentID, i),
			StudentID:       studentID,
			TutorID:         fmt.Sprintf("tutor-%d", i),
			ScheduledAt:     time.Date(2025, 1, 6, 17, 0, 0, 0, time.UTC).AddDate(0, 0, 7*i),
			OverallScore:    &low,
			EngagementScore: &engagement,
		}
	}
	return records
}

// steadySessions score ≈0.13 under default weights: strong scores, single
// tutor, every follow-up booked.
func steadySessions(studentID string) []service.SessionRecord {
	high := 9.0
	records := make([]service.SessionRecord, 10)
	for i := range records {
		records[i] = service.SessionRecord{
			SessionID:       fmt.Sprintf("%s-s%d", studentID, i),
			StudentID:       studentID,
			TutorID:         "tutor-steady",
			ScheduledAt:     time.Date(2025, 1, 6, 17, 0, 0, 0, time.UTC).AddDate(0, 0, 7*i),
			OverallScore:    &high,
			EngagementScore: &high,
			FollowUpBooked:  true,
		}
	}
	return records
}

func enrolledLongAgo() time.Time { return time.Now().AddDate(0, 0, -200) }

func newTestEvaluator(students *mock.StudentRepository, sessions *mock.SessionRepository) *Evaluator {
	scorer := scoring.NewScorer(sessions)
	return NewEvaluator(scorer, students, sessions, DefaultConfig())
}

func TestEvaluate_ZeroEligibleStudents(t *testing.T) {
	evaluator := newTestEvaluator(mock.NewStudentRepository(), mock.NewSessionRepository())

	m, err := evaluator.Evaluate(context.Background(), defaultTestWeights())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if m.Accuracy != 0.5 {
		t.Errorf("Accuracy = %v, expected neutral 0.5", m.Accuracy)
	}
	if m.Precision != 0 || m.Recall != 0 || m.F1 != 0 {
		t.Errorf("rates = %v/%v/%v, expected all 0", m.Precision, m.Recall, m.F1)
	}
	if m.TotalPredictions != 0 || m.TruePositives != 0 || m.FalsePositives != 0 || m.TrueNegatives != 0 || m.FalseNegatives != 0 {
		t.Errorf("counts nonzero for empty population: %+v", m)
	}
}

func TestEvaluate_ConfusionMatrix(t *testing.T) {
	students := mock.NewStudentRepository().
		WithStudent(service.StudentRecord{StudentID: "churned-risky", Status: service.StatusChurned, EnrolledSince: enrolledLongAgo()}).
		WithStudent(service.StudentRecord{StudentID: "active-risky", Status: service.StatusActive, EnrolledSince: enrolledLongAgo()}).
		WithStudent(service.StudentRecord{StudentID: "active-steady", Status: service.StatusActive, EnrolledSince: enrolledLongAgo()}).
		WithStudent(service.StudentRecord{StudentID: "churned-steady", Status: service.StatusChurned, EnrolledSince: enrolledLongAgo()})

	sessions := mock.NewSessionRepository().
		WithSessions("churned-risky", riskySessions("churned-risky")).
		WithSessions("active-risky", riskySessions("active-risky")).
		WithSessions("active-steady", steadySessions("active-steady")).
		WithSessions("churned-steady", steadySessions("churned-steady"))

	m, err := newTestEvaluator(students, sessions).Evaluate(context.Background(), defaultTestWeights())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if m.TruePositives != 1 || m.FalsePositives != 1 || m.TrueNegatives != 1 || m.FalseNegatives != 1 {
		t.Fatalf("confusion matrix = TP%d FP%d TN%d FN%d, expected 1 each", m.TruePositives, m.FalsePositives, m.TrueNegatives, m.FalseNegatives)
	}
	if m.TruePositives+m.FalsePositives+m.TrueNegatives+m.FalseNegatives != m.TotalPredictions {
		t.Errorf("confusion-matrix identity violated: counts sum %d, total %d",
			m.TruePositives+m.FalsePositives+m.TrueNegatives+m.FalseNegatives, m.TotalPredictions)
	}

	if math.Abs(m.Accuracy-0.5) > 1e-9 {
		t.Errorf("Accuracy = %v, expected 0.5", m.Accuracy)
	}
	if math.Abs(m.Precision-0.5) > 1e-9 || math.Abs(m.Recall-0.5) > 1e-9 || math.Abs(m.F1-0.5) > 1e-9 {
		t.Errorf("P/R/F1 = %v/%v/%v, expected 0.5 each", m.Precision, m.Recall, m.F1)
	}
}

func TestEvaluate_EligibilityFilters(t *testing.T) {
	students := mock.NewStudentRepository().
		// Paused students never count.
		WithStudent(service.StudentRecord{StudentID: "paused", Status: service.StatusPaused, EnrolledSince: enrolledLongAgo()}).
		// Active but enrolled too recently to call it retention.
		WithStudent(service.StudentRecord{StudentID: "active-young", Status: service.StatusActive, EnrolledSince: time.Now().AddDate(0, 0, -30)}).
		// Churned but with too little session history.
		WithStudent(service.StudentRecord{StudentID: "churned-sparse", Status: service.StatusChurned, EnrolledSince: enrolledLongAgo()}).
		// The one eligible student.
		WithStudent(service.StudentRecord{StudentID: "churned-risky", Status: service.StatusChurned, EnrolledSince: enrolledLongAgo()})

	sessions := mock.NewSessionRepository().
		WithSessions("paused", riskySessions("paused")).
		WithSessions("active-young", riskySessions("active-young")).
		WithSessions("churned-sparse", riskySessions("churned-sparse")[:2]).
		WithSessions("churned-risky", riskySessions("churned-risky"))

	m, err := newTestEvaluator(students, sessions).Evaluate(context.Background(), defaultTestWeights())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if m.TotalPredictions != 1 {
		t.Errorf("TotalPredictions = %d, expected 1 (only churned-risky eligible)", m.TotalPredictions)
	}
	if m.TruePositives != 1 {
		t.Errorf("TruePositives = %d, expected 1", m.TruePositives)
	}
}

func TestDeriveMetrics_NoDivisionByZero(t *testing.T) {
	// All negatives: precision/recall denominators are zero.
	m := deriveMetrics(0, 0, 5, 0)
	if m.Accuracy != 1.0 {
		t.Errorf("Accuracy = %v, expected 1.0", m.Accuracy)
	}
	if m.Precision != 0 || m.Recall != 0 || m.F1 != 0 {
		t.Errorf("P/R/F1 = %v/%v/%v, expected 0 each", m.Precision, m.Recall, m.F1)
	}
	if math.IsNaN(m.Precision) || math.IsNaN(m.Recall) || math.IsNaN(m.F1) {
		t.Error("derived metrics produced NaN")
	}
}
