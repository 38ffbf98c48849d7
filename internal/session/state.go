package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/procstop/internal/extractor"
)

// EmotionMention is one entry of the emotion log.
type EmotionMention struct {
	Label       string
	Probability float64
}

func (m EmotionMention) String() string {
	return fmt.Sprintf("%s: %.2f", m.Label, m.Probability)
}

// State is the cumulative descriptor set of one active conversation. It lives
// as long as the conversation and is never persisted.
//
// The emotion and entity logs are append-only. Sentiment, hate and irony are
// overwritten by each update that carries them and stay unset until then.
type State struct {
	ConversationID string
	UserID         string
	StartTime      time.Time
	Gender         string
	Language       string
	// Turns counts committed chat turns.
	Turns int

	emotions []EmotionMention
	people   []string
	places   []string
	orgs     []string

	sentimentLabel string
	sentimentProb  float64
	hasSentiment   bool

	hateSummary  string
	ironySummary string
}

// NewState creates the empty state for a conversation.
func NewState(conversationID, userID string, start time.Time) *State {
	return &State{ConversationID: conversationID, UserID: userID, StartTime: start}
}

// Update folds one feature record into the state.
func (s *State) Update(rec *extractor.FeatureRecord) {
	if rec == nil {
		return
	}

	for _, label := range rec.EmotionLabels() {
		s.emotions = append(s.emotions, EmotionMention{Label: label, Probability: rec.Emotion[label]})
	}

	if label, prob, ok := rec.Dominant(); ok {
		s.sentimentLabel = capitalize(label)
		s.sentimentProb = prob
		s.hasSentiment = true
	}

	// Every entity of this update is stamped with the same dominant sentiment.
	annotate := func(name string) string {
		if !s.hasSentiment {
			return name
		}
		return fmt.Sprintf("%s (%s: %.2f)", name, s.sentimentLabel, s.sentimentProb)
	}
	for _, n := range rec.Entities[extractor.People] {
		s.people = append(s.people, annotate(n))
	}
	for _, n := range rec.Entities[extractor.Places] {
		s.places = append(s.places, annotate(n))
	}
	for _, n := range rec.Entities[extractor.Orgs] {
		s.orgs = append(s.orgs, annotate(n))
	}

	if rec.Hate != nil {
		s.hateSummary = fmt.Sprintf("%.2f", rec.Hate.Hateful)
	}
	if rec.Irony != nil {
		s.ironySummary = fmt.Sprintf("%.2f", rec.Irony.Ironic)
	}
}

// EmotionLog returns the emotion log as "label: probability" strings.
func (s *State) EmotionLog() []string {
	out := make([]string, len(s.emotions))
	for i, m := range s.emotions {
		out[i] = m.String()
	}
	return out
}

func (s *State) People() []string { return append([]string(nil), s.people...) }
func (s *State) Places() []string { return append([]string(nil), s.places...) }
func (s *State) Orgs() []string   { return append([]string(nil), s.orgs...) }

// Sentiment returns the last dominant sentiment; ok is false until an update
// carried a sentiment distribution.
func (s *State) Sentiment() (label string, prob float64, ok bool) {
	return s.sentimentLabel, s.sentimentProb, s.hasSentiment
}

// SentimentSummary renders the dominant sentiment as "Label: 0.00".
func (s *State) SentimentSummary() (string, bool) {
	if !s.hasSentiment {
		return "", false
	}
	return fmt.Sprintf("%s: %.2f", s.sentimentLabel, s.sentimentProb), true
}

func (s *State) HateSummary() (string, bool)  { return s.hateSummary, s.hateSummary != "" }
func (s *State) IronySummary() (string, bool) { return s.ironySummary, s.ironySummary != "" }

// Clone returns a deep copy so a turn can be applied and discarded on failure.
func (s *State) Clone() *State {
	c := *s
	c.emotions = append([]EmotionMention(nil), s.emotions...)
	c.people = append([]string(nil), s.people...)
	c.places = append([]string(nil), s.places...)
	c.orgs = append([]string(nil), s.orgs...)
	return &c
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
