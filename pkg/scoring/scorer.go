package scoring

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/studyloop/churn-risk-engine/pkg/factor"
	"github.com/studyloop/churn-risk-engine/pkg/metrics"
	"github.com/studyloop/churn-risk-engine/pkg/service"
)

// Level is the discrete churn-risk bucket derived from the scalar score.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Fixed classification thresholds. These are product constants, not
// derived from data.
const (
	mediumThreshold = 0.33
	highThreshold   = 0.66
)

// PredictionThreshold is the score above which the model predicts churn.
// The accuracy evaluator and the case-study recommender both classify
// against this constant; it must not drift between the two.
const PredictionThreshold = 0.6

// PredictChurn reports whether a risk score counts as a churn prediction.
func PredictChurn(score float64) bool {
	return score > PredictionThreshold
}

// ClassifyLevel maps a risk score onto its discrete level.
func ClassifyLevel(score float64) Level {
	switch {
	case score < mediumThreshold:
		return LevelLow
	case score < highThreshold:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Result is one churn-risk assessment. Transient: recomputed on demand,
// never persisted, never shared across operations.
type Result struct {
	StudentID string          `json:"studentId"`
	Score     float64         `json:"score"`
	Level     Level           `json:"level"`
	Factors   []factor.Detail `json:"factors"`

	// Explanation is set when the assessment rests on neutral defaults
	// because the student has no completed sessions.
	Explanation string `json:"explanation,omitempty"`
}

// Scorer aggregates weighted factor contributions into a risk score.
type Scorer struct {
	sessions service.SessionRepository
}

// NewScorer creates a scorer over a session repository.
func NewScorer(sessions service.SessionRepository) *Scorer {
	return &Scorer{sessions: sessions}
}

// Score computes a student's churn risk under the given weights. A student
// with no completed sessions (including an unknown student) scores on
// neutral defaults and carries a provisional-assessment explanation.
func (s *Scorer) Score(ctx context.Context, studentID string, w factor.Weights) (*Result, error) {
	records, err := s.sessions.ListCompletedSessions(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions for student %s: %w", studentID, err)
	}

	result := s.ScoreSessions(studentID, records, w)
	metrics.RiskAssessmentsTotal.WithLabelValues(string(result.Level)).Inc()
	logrus.Debugf("scored student %s: %.4f (%s) over %d sessions", studentID, result.Score, result.Level, len(records))

	return result, nil
}

// ScoreSessions computes the assessment from already-loaded sessions.
// Pure: the accuracy evaluator replays it over the whole eligible
// population, so it must not move the on-demand assessment counter.
func (s *Scorer) ScoreSessions(studentID string, records []service.SessionRecord, w factor.Weights) *Result {
	details := factor.Compute(service.SessionSignals(records), w)

	score := 0.0
	for _, d := range details {
		score += d.WeightedContribution
	}

	result := &Result{
		StudentID: studentID,
		Score:     score,
		Level:     ClassifyLevel(score),
		Factors:   details,
	}
	if factor.AllNeutral(details) {
		result.Explanation = "no completed session history; factors use neutral defaults and this assessment is provisional"
	}

	return result
}
