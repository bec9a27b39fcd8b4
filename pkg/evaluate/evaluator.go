package evaluate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/studyloop/churn-risk-engine/pkg/common"
	"github.com/studyloop/churn-risk-engine/pkg/factor"
	"github.com/studyloop/churn-risk-engine/pkg/metrics"
	"github.com/studyloop/churn-risk-engine/pkg/scoring"
	"github.com/studyloop/churn-risk-engine/pkg/service"
)

// Metrics is a confusion-matrix-derived accuracy report for one candidate
// weight set against the population of students with known outcomes.
// Transient: computed fresh each run, never persisted directly.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	TruePositives    int `json:"truePositives"`
	FalsePositives   int `json:"falsePositives"`
	TrueNegatives    int `json:"trueNegatives"`
	FalseNegatives   int `json:"falseNegatives"`
	TotalPredictions int `json:"totalPredictions"`
}

// Evaluator back-tests candidate weight sets against students whose true
// outcome is already known.
type Evaluator struct {
	scorer   *scoring.Scorer
	students service.StudentRepository
	sessions service.SessionRepository
	cfg      Config
}

// NewEvaluator creates an accuracy evaluator.
func NewEvaluator(scorer *scoring.Scorer, students service.StudentRepository, sessions service.SessionRepository, cfg Config) *Evaluator {
	return &Evaluator{
		scorer:   scorer,
		students: students,
		sessions: sessions,
		cfg:      cfg,
	}
}

// Evaluate scores every eligible student under the candidate weights and
// classifies the predictions into a confusion matrix. Per-student work is
// independent and read-only, so it fans out concurrently; the matrix
// accumulation is associative, so completion order does not matter.
func (e *Evaluator) Evaluate(ctx context.Context, candidate factor.Weights) (*Metrics, error) {
	scope := common.ChildScope(ctx, "accuracy_evaluation")
	defer scope.Finish()

	metrics.AccuracyEvaluationsTotal.Inc()
	timer := prometheus.NewTimer(metrics.AccuracyEvaluationDuration)
	defer timer.ObserveDuration()

	students, err := e.students.ListStudents(scope.Ctx)
	if err != nil {
		scope.TraceError(err)
		return nil, fmt.Errorf("failed to list students for evaluation: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -e.cfg.ActiveTenureDays)

	var mu sync.Mutex
	var tp, fp, tn, fn int

	g, gctx := errgroup.WithContext(scope.Ctx)
	g.SetLimit(e.cfg.Concurrency)

	for _, student := range students {
		student := student

		// Only students whose outcome is already known are testable:
		// churned students, or actives enrolled long enough that staying
		// counts as retention. Paused students are excluded entirely.
		switch student.Status {
		case service.StatusChurned:
			// eligible
		case service.StatusActive:
			if student.EnrolledSince.After(cutoff) {
				continue
			}
		default:
			continue
		}

		g.Go(func() error {
			records, err := e.sessions.ListCompletedSessions(gctx, student.StudentID)
			if err != nil {
				return fmt.Errorf("failed to load sessions for student %s: %w", student.StudentID, err)
			}
			if len(records) < e.cfg.MinCompletedSessions {
				return nil
			}

			result := e.scorer.ScoreSessions(student.StudentID, records, candidate)
			predicted := scoring.PredictChurn(result.Score)
			actual := student.Status == service.StatusChurned

			mu.Lock()
			defer mu.Unlock()
			switch {
			case predicted && actual:
				tp++
			case predicted && !actual:
				fp++
			case !predicted && !actual:
				tn++
			default:
				fn++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		scope.TraceError(err)
		return nil, err
	}

	report := deriveMetrics(tp, fp, tn, fn)
	scope.SetAttribute("evaluated_students", report.TotalPredictions)
	scope.SetAttribute("accuracy", report.Accuracy)
	logrus.Infof("accuracy evaluation: %d students, accuracy %.4f, precision %.4f, recall %.4f",
		report.TotalPredictions, report.Accuracy, report.Precision, report.Recall)

	return report, nil
}

// deriveMetrics turns confusion-matrix counts into rates. Degenerate
// denominators yield defined neutral values, never NaN: an empty
// population reports accuracy 0.5 and zero rates.
func deriveMetrics(tp, fp, tn, fn int) *Metrics {
	total := tp + fp + tn + fn

	m := &Metrics{
		TruePositives:    tp,
		FalsePositives:   fp,
		TrueNegatives:    tn,
		FalseNegatives:   fn,
		TotalPredictions: total,
	}

	if total == 0 {
		m.Accuracy = 0.5
		return m
	}

	m.Accuracy = float64(tp+tn) / float64(total)
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	return m
}
