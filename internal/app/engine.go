// Copyright (c) 2025 StudyLoop Inc. All Rights Reserved.
// This is licensed software from StudyLoop Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"

	"github.com/studyloop/churn-risk-engine/pkg/casestudy"
	"github.com/studyloop/churn-risk-engine/pkg/evaluate"
	"github.com/studyloop/churn-risk-engine/pkg/factor"
	"github.com/studyloop/churn-risk-engine/pkg/scoring"
	"github.com/studyloop/churn-risk-engine/pkg/service"
	"github.com/studyloop/churn-risk-engine/pkg/update"
	"github.com/studyloop/churn-risk-engine/pkg/weights"
)

// Engine is the operational surface of the churn-risk engine: scoring,
// accuracy evaluation, weight calibration, and the audit trail. Embedding
// callers reach it through App.Engine().
type Engine struct {
	accessor    *weights.Accessor
	scorer      *scoring.Scorer
	evaluator   *evaluate.Evaluator
	transaction *update.Transaction
	recommender *casestudy.Recommender
}

// AssessRisk scores a student's churn risk under the currently active
// weight version.
func (e *Engine) AssessRisk(ctx context.Context, studentID string) (*scoring.Result, error) {
	return e.scorer.Score(ctx, studentID, e.accessor.Current(ctx))
}

// EvaluateAccuracy replays the active weights over all eligible students
// and returns the resulting confusion-matrix metrics.
func (e *Engine) EvaluateAccuracy(ctx context.Context) (*evaluate.Metrics, error) {
	return e.evaluator.Evaluate(ctx, e.accessor.Current(ctx))
}

// EvaluateCandidate measures a candidate weight set without persisting it.
func (e *Engine) EvaluateCandidate(ctx context.Context, candidate factor.Weights) (*evaluate.Metrics, error) {
	return e.evaluator.Evaluate(ctx, candidate)
}

// UpdateWeights validates, measures, and persists a new weight version
// with its audit history entry.
func (e *Engine) UpdateWeights(ctx context.Context, newWeights factor.Weights, actorID, reason string, ref *service.CaseStudyRef) (*update.Result, error) {
	return e.transaction.Update(ctx, newWeights, actorID, reason, ref)
}

// RecommendFromCaseStudy replays one student's outcome against the active
// weights and proposes adjusted weights when the model was wrong.
func (e *Engine) RecommendFromCaseStudy(ctx context.Context, studentID string, outcome service.StudentStatus, surveyNotes string) (*casestudy.Recommendation, error) {
	return e.recommender.Recommend(ctx, studentID, outcome, surveyNotes)
}

// WeightHistory returns the newest-first audit trail of weight versions.
func (e *Engine) WeightHistory(ctx context.Context, limit int) ([]weights.AuditRecord, error) {
	return e.accessor.History(ctx, limit)
}
