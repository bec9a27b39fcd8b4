package update

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/studyloop/churn-risk-engine/pkg/common"
	"github.com/studyloop/churn-risk-engine/pkg/evaluate"
	"github.com/studyloop/churn-risk-engine/pkg/factor"
	"github.com/studyloop/churn-risk-engine/pkg/metrics"
	"github.com/studyloop/churn-risk-engine/pkg/service"
	"github.com/studyloop/churn-risk-engine/pkg/weights"
)

// ValidationError rejects a weight update before anything is written.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid weights: %s", strings.Join(e.Errors, "; "))
}

// Result summarizes one applied weight update.
type Result struct {
	Version        int     `json:"version"`
	AccuracyBefore float64 `json:"accuracyBefore"`
	AccuracyAfter  float64 `json:"accuracyAfter"`
	Delta          float64 `json:"delta"`
}

// Transaction orchestrates a weight update: validate, snapshot
// before-accuracy, persist the new version, compute after-accuracy, write
// the audit entry.
type Transaction struct {
	store     service.WeightStore
	accessor  *weights.Accessor
	evaluator *evaluate.Evaluator
}

// NewTransaction creates a weight update transaction runner.
func NewTransaction(accessor *weights.Accessor, evaluator *evaluate.Evaluator) *Transaction {
	return &Transaction{
		store:     accessor.Store(),
		accessor:  accessor,
		evaluator: evaluator,
	}
}

// Update applies a new weight set as an immutable version with full audit
// attribution. The actor is supplied by the caller; this engine performs
// no authentication of its own.
//
// The version write precedes the after-accuracy run and the history write,
// so a failure in between leaves a version without an audit entry. That
// window is a deliberate carry-over; Accessor.History reports such
// versions as applied-without-full-audit rather than hiding them.
func (t *Transaction) Update(ctx context.Context, newWeights factor.Weights, actorID, reason string, ref *service.CaseStudyRef) (*Result, error) {
	scope := common.ChildScope(ctx, "weight_update")
	defer scope.Finish()
	scope.SetAttribute("actor", actorID)

	// Step 1: validate before any write.
	if result := weights.Validate(newWeights); !result.Valid {
		metrics.WeightUpdatesTotal.WithLabelValues("rejected").Inc()
		err := &ValidationError{Errors: result.Errors}
		scope.TraceError(err)
		return nil, err
	}

	// Step 2: read the weights being replaced. Strict read: degrading to
	// defaults here would record a false OldWeights in the audit entry,
	// so a storage failure aborts the update instead.
	_, currentWeights, err := t.accessor.CurrentStrict(scope.Ctx)
	if err != nil {
		metrics.WeightUpdatesTotal.WithLabelValues("failed").Inc()
		scope.TraceError(err)
		return nil, fmt.Errorf("failed to read current weights: %w", err)
	}

	// Step 3: baseline accuracy under the weights being replaced.
	before, err := t.evaluator.Evaluate(scope.Ctx, currentWeights)
	if err != nil {
		metrics.WeightUpdatesTotal.WithLabelValues("failed").Inc()
		scope.TraceError(err)
		return nil, fmt.Errorf("failed to compute baseline accuracy: %w", err)
	}

	// Step 4: allocate and persist the new version.
	version, err := t.store.AllocateVersion(scope.Ctx)
	if err != nil {
		metrics.WeightUpdatesTotal.WithLabelValues("failed").Inc()
		scope.TraceError(err)
		return nil, fmt.Errorf("failed to allocate weight version: %w", err)
	}
	if err := t.store.InsertWeightVersion(scope.Ctx, version, newWeights, reason); err != nil {
		metrics.WeightUpdatesTotal.WithLabelValues("failed").Inc()
		scope.TraceError(err)
		return nil, fmt.Errorf("failed to persist weight version %d: %w", version, err)
	}

	// Step 5: accuracy under the new weights.
	after, err := t.evaluator.Evaluate(scope.Ctx, newWeights)
	if err != nil {
		metrics.WeightUpdatesTotal.WithLabelValues("failed").Inc()
		scope.TraceError(err)
		logrus.Errorf("weight version %d persisted but after-accuracy failed; no audit entry written: %v", version, err)
		return nil, fmt.Errorf("failed to compute accuracy for version %d: %w", version, err)
	}

	// Step 6: audit entry.
	entry := &service.WeightHistoryEntry{
		Version:        version,
		Actor:          actorID,
		Reason:         reason,
		CaseStudy:      ref,
		OldWeights:     currentWeights.Clone(),
		NewWeights:     newWeights.Clone(),
		AccuracyBefore: before.Accuracy,
		AccuracyAfter:  after.Accuracy,
	}
	if _, err := t.store.InsertHistoryEntry(scope.Ctx, entry); err != nil {
		metrics.WeightUpdatesTotal.WithLabelValues("failed").Inc()
		scope.TraceError(err)
		logrus.Errorf("weight version %d persisted but history write failed: %v", version, err)
		return nil, fmt.Errorf("failed to record history for version %d: %w", version, err)
	}

	metrics.WeightUpdatesTotal.WithLabelValues("applied").Inc()
	logrus.Infof("weight update v%d by %s: accuracy %.4f -> %.4f (%s)",
		version, actorID, before.Accuracy, after.Accuracy, reason)

	return &Result{
		Version:        version,
		AccuracyBefore: before.Accuracy,
		AccuracyAfter:  after.Accuracy,
		Delta:          after.Accuracy - before.Accuracy,
	}, nil
}
