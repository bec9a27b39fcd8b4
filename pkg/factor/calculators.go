package factor

import "math"

// calculator computes one factor from a non-empty session history.
// Implementations must be pure and side-effect free.
type calculator interface {
	Category() Category
	Compute(sessions []Session) (raw, normalized float64, impact Impact)
}

// calculators returns the closed set of factor calculators in canonical
// order. The zero-session case is handled before these run, so every
// implementation may assume at least one session.
func calculators() []calculator {
	return []calculator{
		firstSessionSatisfaction{},
		sessionsCompleted{},
		followUpBookingRate{},
		avgSessionScore{},
		tutorConsistency{},
		studentEngagement{},
	}
}

const (
	// lowFirstSessionScore marks a first session bad enough to amplify risk.
	lowFirstSessionScore = 6.5
	// firstSessionRiskAmplifier scales risk for a weak first impression.
	firstSessionRiskAmplifier = 1.5
	// goodScoreThreshold is the 0-10 score at which a factor reads positive.
	goodScoreThreshold = 7.0
	// sessionCountCeiling is where session volume stops reducing risk.
	sessionCountCeiling = 20.0
	// establishedSessionCount is where session volume reads positive.
	establishedSessionCount = 5
	// healthyFollowUpRate is the booking rate at which follow-ups read positive.
	healthyFollowUpRate = 0.6
	// consistentTutorLimit is the distinct-tutor count carrying no risk.
	consistentTutorLimit = 2
	// tutorChurnPenalty is the consistency penalty per tutor beyond the limit.
	tutorChurnPenalty = 0.15
)

type firstSessionSatisfaction struct{}

func (firstSessionSatisfaction) Category() Category { return FirstSessionSatisfaction }

func (firstSessionSatisfaction) Compute(sessions []Session) (float64, float64, Impact) {
	raw := defaultSessionScore
	if sessions[0].OverallScore != nil {
		raw = *sessions[0].OverallScore
	}

	normalized := 1 - raw/sessionScoreScale
	if raw < lowFirstSessionScore {
		normalized = math.Min(normalized*firstSessionRiskAmplifier, 1.0)
	}

	return raw, normalized, impactFromScore(raw)
}

type sessionsCompleted struct{}

func (sessionsCompleted) Category() Category { return SessionsCompleted }

func (sessionsCompleted) Compute(sessions []Session) (float64, float64, Impact) {
	raw := float64(len(sessions))
	normalized := 1 - math.Min(raw/sessionCountCeiling, 1.0)

	impact := ImpactNegative
	if len(sessions) >= establishedSessionCount {
		impact = ImpactPositive
	}
	return raw, normalized, impact
}

type followUpBookingRate struct{}

func (followUpBookingRate) Category() Category { return FollowUpBookingRate }

func (followUpBookingRate) Compute(sessions []Session) (float64, float64, Impact) {
	booked := 0
	for _, s := range sessions {
		if s.FollowUpBooked {
			booked++
		}
	}
	raw := float64(booked) / float64(len(sessions))

	impact := ImpactNegative
	if raw >= healthyFollowUpRate {
		impact = ImpactPositive
	}
	return raw, 1 - raw, impact
}

type avgSessionScore struct{}

func (avgSessionScore) Category() Category { return AvgSessionScore }

func (avgSessionScore) Compute(sessions []Session) (float64, float64, Impact) {
	var sum float64
	for _, s := range sessions {
		if s.OverallScore != nil {
			sum += *s.OverallScore
		} else {
			sum += defaultSessionScore
		}
	}
	raw := sum / float64(len(sessions))

	return raw, 1 - raw/sessionScoreScale, impactFromScore(raw)
}

type tutorConsistency struct{}

func (tutorConsistency) Category() Category { return TutorConsistency }

func (tutorConsistency) Compute(sessions []Session) (float64, float64, Impact) {
	tutors := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		tutors[s.TutorID] = struct{}{}
	}
	raw := float64(len(tutors))

	consistency := 1.0
	if len(tutors) > consistentTutorLimit {
		extra := float64(len(tutors) - consistentTutorLimit)
		consistency = math.Max(1.0-extra*tutorChurnPenalty, 0)
	}

	impact := ImpactNegative
	if len(tutors) <= consistentTutorLimit {
		impact = ImpactPositive
	}
	return raw, 1 - consistency, impact
}

type studentEngagement struct{}

func (studentEngagement) Category() Category { return StudentEngagement }

func (studentEngagement) Compute(sessions []Session) (float64, float64, Impact) {
	var sum float64
	count := 0
	for _, s := range sessions {
		if s.EngagementScore != nil {
			sum += *s.EngagementScore
			count++
		}
	}

	// Sessions without the engagement sub-metric are excluded from the
	// mean rather than defaulted per session.
	raw := defaultSessionScore
	if count > 0 {
		raw = sum / float64(count)
	}

	return raw, 1 - raw/sessionScoreScale, impactFromScore(raw)
}

func impactFromScore(raw float64) Impact {
	if raw >= goodScoreThreshold {
		return ImpactPositive
	}
	return ImpactNegative
}
