// Copyright (c) 2025 StudyLoop Inc. All Rights Reserved.
// This is licensed software from StudyLoop Inc, for limitations
// and restrictions contact your company contract manager.

package casestudy

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/studyloop/churn-risk-engine/pkg/common"
	"github.com/studyloop/churn-risk-engine/pkg/factor"
	"github.com/studyloop/churn-risk-engine/pkg/scoring"
	"github.com/studyloop/churn-risk-engine/pkg/service"
	"github.com/studyloop/churn-risk-engine/pkg/weights"
)

// adjustmentEpsilon filters out rule applications that the weight
// envelope clamped into no-ops.
const adjustmentEpsilon = 0.001

// Adjustment describes one proposed weight change, with the suggested
// value reported after re-normalization.
type Adjustment struct {
	Category        factor.Category `json:"category"`
	CurrentWeight   float64         `json:"currentWeight"`
	SuggestedWeight float64         `json:"suggestedWeight"`
	Reason          string          `json:"reason"`
}

// Recommendation is the full outcome of replaying one student's history
// against the current weights. SuggestedWeights always sums to 1 and is
// safe to feed into a weight update as-is.
type Recommendation struct {
	StudentID        string                `json:"studentId"`
	PredictedScore   float64               `json:"predictedScore"`
	PredictedChurn   bool                  `json:"predictedChurn"`
	ActualOutcome    service.StudentStatus `json:"actualOutcome"`
	WasCorrect       bool                  `json:"wasCorrect"`
	CurrentWeights   factor.Weights        `json:"currentWeights"`
	SuggestedWeights factor.Weights        `json:"suggestedWeights"`
	Adjustments      []Adjustment          `json:"adjustments"`
	Rationale        string                `json:"rationale"`
	SurveyNotes      string                `json:"surveyNotes,omitempty"`
}

// Recommender turns a single resolved case study into a weight proposal.
type Recommender struct {
	accessor *weights.Accessor
	scorer   *scoring.Scorer
}

func NewRecommender(accessor *weights.Accessor, scorer *scoring.Scorer) *Recommender {
	return &Recommender{accessor: accessor, scorer: scorer}
}

// Recommend rescores the student with the current weights, compares the
// prediction against the known outcome, and proposes adjusted weights
// when the model got it wrong. A correct prediction returns the current
// weights unchanged with no adjustments.
func (r *Recommender) Recommend(ctx context.Context, studentID string, actualOutcome service.StudentStatus, surveyNotes string) (*Recommendation, error) {
	scope := common.ChildScope(ctx, "Recommender.Recommend")
	defer scope.Finish()
	scope.SetAttribute("studentId", studentID)

	current := r.accessor.Current(scope.Ctx)

	result, err := r.scorer.Score(scope.Ctx, studentID, current)
	if err != nil {
		scope.TraceError(err)
		return nil, fmt.Errorf("score student %s: %w", studentID, err)
	}

	actualChurn := actualOutcome == service.StatusChurned
	predictedChurn := scoring.PredictChurn(result.Score)
	wasCorrect := predictedChurn == actualChurn

	rec := &Recommendation{
		StudentID:      studentID,
		PredictedScore: result.Score,
		PredictedChurn: predictedChurn,
		ActualOutcome:  actualOutcome,
		WasCorrect:     wasCorrect,
		CurrentWeights: current.Clone(),
		SurveyNotes:    surveyNotes,
	}

	if wasCorrect {
		rec.SuggestedWeights = current.Clone()
		rec.Rationale = fmt.Sprintf(
			"prediction matched the outcome (score %.2f, churned=%t); current weights are well calibrated for this case",
			result.Score, actualChurn)
		return rec, nil
	}

	observed := make(map[factor.Category]float64, len(result.Factors))
	for _, d := range result.Factors {
		observed[d.Category] = d.RawValue
	}

	proposed := current.Clone()
	var adjustments []Adjustment
	for _, rule := range ruleTable() {
		cat := rule.Category()
		delta, reason, ok := rule.Apply(observed[cat], actualChurn)
		if !ok {
			continue
		}
		next := clampWeight(current[cat] + delta)
		if math.Abs(next-current[cat]) <= adjustmentEpsilon {
			continue
		}
		proposed[cat] = next
		adjustments = append(adjustments, Adjustment{
			Category:      cat,
			CurrentWeight: current[cat],
			Reason:        reason,
		})
	}

	rec.SuggestedWeights = weights.Normalize(proposed)
	for i := range adjustments {
		adjustments[i].SuggestedWeight = rec.SuggestedWeights[adjustments[i].Category]
	}
	rec.Adjustments = adjustments
	rec.Rationale = misclassificationRationale(predictedChurn, len(adjustments))

	scope.Log.WithFields(logrus.Fields{
		"studentId":   studentID,
		"score":       result.Score,
		"wasCorrect":  wasCorrect,
		"adjustments": len(adjustments),
	}).Info("case study recommendation produced")

	return rec, nil
}

func misclassificationRationale(predictedChurn bool, adjusted int) string {
	direction := "predicted retention but the student churned"
	if predictedChurn {
		direction = "predicted churn but the student was retained"
	}
	if adjusted == 0 {
		return fmt.Sprintf("the model %s, but every factor rule was already at its limit or inapplicable; no weight changes proposed", direction)
	}
	return fmt.Sprintf("the model %s; %d factor weight(s) adjusted and re-normalized to sum to 1", direction, adjusted)
}
