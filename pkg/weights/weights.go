package weights

import (
	"fmt"
	"math"

	"github.com/studyloop/churn-risk-engine/pkg/factor"
)

// SumTolerance is how far a weight map's sum may drift from 1.0 and still
// validate.
const SumTolerance = 0.001

// DefaultWeights is the fixed fallback weight set used when no version has
// been persisted or the weight store is unreachable.
func DefaultWeights() factor.Weights {
	return factor.Weights{
		factor.FirstSessionSatisfaction: 0.25,
		factor.SessionsCompleted:        0.15,
		factor.FollowUpBookingRate:      0.20,
		factor.AvgSessionScore:          0.15,
		factor.TutorConsistency:         0.10,
		factor.StudentEngagement:        0.15,
	}
}

// ValidationResult is the structured outcome of weight validation. It is
// never surfaced as an error; callers branch on Valid.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Validate checks that a weight map carries exactly the six factor
// categories, every value is a finite number in [0,1], and the sum is
// within SumTolerance of 1.0.
func Validate(w factor.Weights) ValidationResult {
	var errs []string

	for _, cat := range factor.Categories() {
		if _, ok := w[cat]; !ok {
			errs = append(errs, fmt.Sprintf("missing required category %q", cat))
		}
	}

	known := make(map[factor.Category]struct{}, len(factor.Categories()))
	for _, cat := range factor.Categories() {
		known[cat] = struct{}{}
	}

	sum := 0.0
	for cat, value := range w {
		if _, ok := known[cat]; !ok {
			errs = append(errs, fmt.Sprintf("unknown category %q", cat))
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			errs = append(errs, fmt.Sprintf("category %q has non-finite weight", cat))
			continue
		}
		if value < 0 || value > 1 {
			errs = append(errs, fmt.Sprintf("category %q weight %v outside [0,1]", cat, value))
			continue
		}
		sum += value
	}

	if len(errs) == 0 && math.Abs(sum-1.0) > SumTolerance {
		errs = append(errs, fmt.Sprintf("weights sum to %.4f, expected 1.0 within %.3f", sum, SumTolerance))
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Normalize rescales every entry so the map sums to exactly 1.0. A map
// that sums to zero is returned unchanged.
func Normalize(w factor.Weights) factor.Weights {
	total := 0.0
	for _, v := range w {
		total += v
	}
	if total == 0 {
		return w.Clone()
	}

	out := make(factor.Weights, len(w))
	for cat, v := range w {
		out[cat] = v / total
	}
	return out
}
