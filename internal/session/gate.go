package session

import "github.com/MikeSquared-Agency/procstop/internal/extractor"

// Mode is the conversational mode chosen by the recommendation gate.
type Mode string

const (
	Exploratory         Mode = "exploratory"
	RecommendationReady Mode = "recommendation_ready"
)

const (
	minDistinctEmotions = 3
	minEntityMentions   = 2 // a category must exceed this
)

// Evaluate reports whether the conversation has gathered enough signal to
// recommend activities: at least three distinct non-neutral emotions and more
// than two mentions in one of people, places or orgs. It is derived from the
// current state on every call.
func Evaluate(s *State) bool {
	if s == nil {
		return false
	}

	distinct := make(map[string]struct{})
	for _, m := range s.emotions {
		if m.Label == extractor.NeutralEmotion {
			continue
		}
		distinct[m.Label] = struct{}{}
	}
	enoughEmotion := len(distinct) >= minDistinctEmotions

	enoughEntities := len(s.people) > minEntityMentions ||
		len(s.places) > minEntityMentions ||
		len(s.orgs) > minEntityMentions

	return enoughEmotion && enoughEntities
}

// ModeOf maps the gate result onto a Mode.
func ModeOf(s *State) Mode {
	if Evaluate(s) {
		return RecommendationReady
	}
	return Exploratory
}
