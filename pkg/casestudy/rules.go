package casestudy

import (
	"github.com/studyloop/churn-risk-engine/pkg/factor"
)

// Weight adjustments stay inside a fixed envelope so a single case study
// can nudge the model but never dominate it.
const (
	maxWeight = 1.0
	minWeight = 0.05
)

// adjustmentRule proposes a weight delta for one factor from a single
// observed outcome. Rules are pure: same observation, same proposal.
type adjustmentRule interface {
	Category() factor.Category

	// Apply returns the proposed delta and its reason. ok is false when
	// the observation supports no change for this factor.
	Apply(observed float64, churned bool) (delta float64, reason string, ok bool)
}

// ruleTable returns the closed set of adjustment rules.
//
// tutor_consistency deliberately has no rule: tutor churn on the platform
// side dominates that signal, so a single student outcome says nothing
// about its weight. TestRuleTableCoversAllButTutorConsistency pins the
// gap so adding a rule is a deliberate act.
func ruleTable() []adjustmentRule {
	return []adjustmentRule{
		firstSessionRule{},
		sessionsCompletedRule{},
		followUpRule{},
		avgScoreRule{},
		engagementRule{},
	}
}

type firstSessionRule struct{}

func (firstSessionRule) Category() factor.Category { return factor.FirstSessionSatisfaction }

func (firstSessionRule) Apply(observed float64, churned bool) (float64, string, bool) {
	if churned {
		if observed < 6.5 {
			return 0.05, "weak first session preceded churn; the first impression signal deserves more weight", true
		}
		if observed >= 7.5 {
			return -0.03, "a strong first session did not prevent churn; the signal is weaker than weighted", true
		}
		return 0, "", false
	}
	if observed < 6.5 {
		return -0.03, "a weak first session did not lead to churn; the signal overstated risk here", true
	}
	return 0, "", false
}

type sessionsCompletedRule struct{}

func (sessionsCompletedRule) Category() factor.Category { return factor.SessionsCompleted }

func (sessionsCompletedRule) Apply(observed float64, churned bool) (float64, string, bool) {
	if churned {
		if observed < 3 {
			return 0.04, "churn after very few sessions; session volume deserves more weight", true
		}
		if observed >= 10 {
			return -0.02, "an established student churned anyway; session volume is weaker than weighted", true
		}
		return 0, "", false
	}
	if observed < 3 {
		return -0.02, "a low session count did not lead to churn; the signal overstated risk here", true
	}
	return 0, "", false
}

type followUpRule struct{}

func (followUpRule) Category() factor.Category { return factor.FollowUpBookingRate }

func (followUpRule) Apply(observed float64, churned bool) (float64, string, bool) {
	if churned {
		if observed < 0.4 {
			return 0.05, "churn with few follow-up bookings; booking intent deserves more weight", true
		}
		if observed >= 0.7 {
			return -0.03, "steady follow-up bookings did not prevent churn; the signal is weaker than weighted", true
		}
		return 0, "", false
	}
	if observed < 0.4 {
		return -0.03, "a low follow-up rate did not lead to churn; the signal overstated risk here", true
	}
	return 0, "", false
}

type avgScoreRule struct{}

func (avgScoreRule) Category() factor.Category { return factor.AvgSessionScore }

func (avgScoreRule) Apply(observed float64, churned bool) (float64, string, bool) {
	if churned {
		if observed < 6.0 {
			return 0.04, "churn with low session scores; session quality deserves more weight", true
		}
		if observed >= 7.5 {
			return -0.03, "high session scores did not prevent churn; the signal is weaker than weighted", true
		}
		return 0, "", false
	}
	if observed < 6.0 {
		return -0.03, "low session scores did not lead to churn; the signal overstated risk here", true
	}
	return 0, "", false
}

type engagementRule struct{}

func (engagementRule) Category() factor.Category { return factor.StudentEngagement }

func (engagementRule) Apply(observed float64, churned bool) (float64, string, bool) {
	if churned {
		if observed < 5.5 {
			return 0.05, "churn with low engagement; the engagement signal deserves more weight", true
		}
		if observed >= 7.5 {
			return -0.03, "high engagement did not prevent churn; the signal is weaker than weighted", true
		}
		return 0, "", false
	}
	if observed < 5.5 {
		return -0.03, "low engagement did not lead to churn; the signal overstated risk here", true
	}
	return 0, "", false
}

// clampWeight keeps an adjusted weight inside the fixed envelope.
func clampWeight(w float64) float64 {
	if w > maxWeight {
		return maxWeight
	}
	if w < minWeight {
		return minWeight
	}
	return w
}
