package factor

import "time"

// Category identifies one of the six session-derived signals the churn
// model scores. The set is closed: adding a category means adding a
// calculator, a default weight, and (usually) a case-study rule.
type Category string

const (
	FirstSessionSatisfaction Category = "first_session_satisfaction"
	SessionsCompleted        Category = "sessions_completed"
	FollowUpBookingRate      Category = "follow_up_booking_rate"
	AvgSessionScore          Category = "avg_session_score"
	TutorConsistency         Category = "tutor_consistency"
	StudentEngagement        Category = "student_engagement"
)

// Categories returns the closed set of factor categories in canonical order.
func Categories() []Category {
	return []Category{
		FirstSessionSatisfaction,
		SessionsCompleted,
		FollowUpBookingRate,
		AvgSessionScore,
		TutorConsistency,
		StudentEngagement,
	}
}

// Impact is the qualitative direction of a factor relative to churn.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
)

// Weights maps every factor category to its weight in [0,1]. A valid set
// sums to 1.0 within SumTolerance (see pkg/weights).
type Weights map[Category]float64

// Clone returns an independent copy of the weight map.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Session carries the per-session quality signals the factor calculators
// consume. Sessions are always completed sessions, ordered by scheduled
// time ascending. Optional sub-metrics are nil when the session never
// recorded them.
type Session struct {
	ScheduledAt     time.Time
	TutorID         string
	OverallScore    *float64
	EngagementScore *float64
	FollowUpBooked  bool
}

// Detail is the per-factor breakdown of one risk computation. It is a
// transient value object, recomputed on demand and never persisted.
type Detail struct {
	Category             Category `json:"category"`
	Weight               float64  `json:"weight"`
	RawValue             float64  `json:"rawValue"`
	NormalizedScore      float64  `json:"normalizedScore"`
	Impact               Impact   `json:"impact"`
	WeightedContribution float64  `json:"weightedContribution"`
}

const (
	// neutralValue is reported for both raw and normalized scores when a
	// student has no completed sessions to score.
	neutralValue = 0.5

	// sessionScoreScale is the upper bound of the 0-10 session score scale.
	sessionScoreScale = 10.0

	// defaultSessionScore substitutes for a missing 0-10 session score.
	defaultSessionScore = 5.0
)

// Compute derives all six factor details from a student's completed
// sessions under the given weights. Pure: no I/O, no shared state.
//
// With zero sessions every factor degrades to the neutral value on both
// axes with negative impact; callers detect that via AllNeutral and flag
// the assessment as provisional.
func Compute(sessions []Session, w Weights) []Detail {
	details := make([]Detail, 0, len(Categories()))

	if len(sessions) == 0 {
		for _, cat := range Categories() {
			weight := w[cat]
			details = append(details, Detail{
				Category:             cat,
				Weight:               weight,
				RawValue:             neutralValue,
				NormalizedScore:      neutralValue,
				Impact:               ImpactNegative,
				WeightedContribution: weight * neutralValue,
			})
		}
		return details
	}

	for _, calc := range calculators() {
		cat := calc.Category()
		weight := w[cat]
		raw, normalized, impact := calc.Compute(sessions)
		details = append(details, Detail{
			Category:             cat,
			Weight:               weight,
			RawValue:             raw,
			NormalizedScore:      normalized,
			Impact:               impact,
			WeightedContribution: weight * normalized,
		})
	}

	return details
}

// AllNeutral reports whether every detail carries the neutral no-history
// values, i.e. the student had no completed sessions to score.
func AllNeutral(details []Detail) bool {
	if len(details) == 0 {
		return false
	}
	for _, d := range details {
		if d.RawValue != neutralValue || d.NormalizedScore != neutralValue {
			return false
		}
	}
	return true
}
