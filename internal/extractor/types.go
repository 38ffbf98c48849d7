package extractor

import (
	"sort"
	"strings"
)

// Category is one of the fixed classes named entities are filed under.
type Category string

const (
	People Category = "people"
	Places Category = "places"
	Orgs   Category = "orgs"
	Others Category = "others"
)

// Categories lists every entity category in storage order.
var Categories = []Category{People, Places, Orgs, Others}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	switch c {
	case People, Places, Orgs, Others:
		return true
	}
	return false
}

// Sentiment labels.
const (
	Positive = "Positive"
	Negative = "Negative"
	Neutral  = "Neutral"
)

// sentimentOrder breaks arg-max ties.
var sentimentOrder = []string{Positive, Negative, Neutral}

// shortSentiment maps classifier short labels onto canonical labels.
var shortSentiment = map[string]string{
	"POS": Positive,
	"NEG": Negative,
	"NEU": Neutral,
}

// NeutralEmotion is the emotion label that carries no signal.
const NeutralEmotion = "neutral"

// HateScores is the hate-speech classifier output for one message.
type HateScores struct {
	Hateful    float64 `json:"hateful"`
	Targeted   float64 `json:"targeted"`
	Aggressive float64 `json:"aggressive"`
}

// IronyScores is the irony classifier output for one message.
type IronyScores struct {
	Ironic    float64 `json:"ironic"`
	NotIronic float64 `json:"not_ironic"`
}

// FeatureRecord holds every signal extracted from one user message.
// Hate and Irony are nil when the extractor did not produce them.
type FeatureRecord struct {
	Emotion   map[string]float64    `json:"emotion"`
	Sentiment map[string]float64    `json:"sentiment"`
	Hate      *HateScores           `json:"hate,omitempty"`
	Irony     *IronyScores          `json:"irony,omitempty"`
	Entities  map[Category][]string `json:"entities"`
}

// Normalize canonicalises sentiment keys, trims entity names and drops
// entities filed under unknown categories.
func (r *FeatureRecord) Normalize() {
	if len(r.Sentiment) > 0 {
		norm := make(map[string]float64, len(r.Sentiment))
		for k, v := range r.Sentiment {
			norm[canonicalSentiment(k)] = v
		}
		r.Sentiment = norm
	}

	if r.Emotion == nil {
		r.Emotion = map[string]float64{}
	}

	entities := make(map[Category][]string, len(Categories))
	for cat, names := range r.Entities {
		c := Category(strings.ToLower(strings.TrimSpace(string(cat))))
		if !c.Valid() {
			continue
		}
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				entities[c] = append(entities[c], n)
			}
		}
	}
	r.Entities = entities
}

// Dominant returns the sentiment label with the highest probability.
// ok is false when the record carries no sentiment.
func (r *FeatureRecord) Dominant() (label string, prob float64, ok bool) {
	if len(r.Sentiment) == 0 {
		return "", 0, false
	}

	labels := make([]string, 0, len(r.Sentiment))
	for k := range r.Sentiment {
		labels = append(labels, k)
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return sentimentRank(labels[i]) < sentimentRank(labels[j]) ||
			(sentimentRank(labels[i]) == sentimentRank(labels[j]) && labels[i] < labels[j])
	})

	label = labels[0]
	prob = r.Sentiment[label]
	for _, l := range labels[1:] {
		if r.Sentiment[l] > prob {
			label, prob = l, r.Sentiment[l]
		}
	}
	return label, prob, true
}

// ShortSentiment returns the sentiment keyed by the classifier short labels
// POS, NEU and NEG, the shape stored with each message.
func (r *FeatureRecord) ShortSentiment() map[string]float64 {
	out := make(map[string]float64, len(shortSentiment))
	for short, canonical := range shortSentiment {
		if v, ok := r.Sentiment[canonical]; ok {
			out[short] = v
		}
	}
	return out
}

// EmotionLabels returns the record's emotion labels in a stable order.
func (r *FeatureRecord) EmotionLabels() []string {
	labels := make([]string, 0, len(r.Emotion))
	for k := range r.Emotion {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}

func canonicalSentiment(k string) string {
	k = strings.TrimSpace(k)
	if c, ok := shortSentiment[strings.ToUpper(k)]; ok {
		return c
	}
	for _, c := range sentimentOrder {
		if strings.EqualFold(k, c) {
			return c
		}
	}
	return k
}

func sentimentRank(label string) int {
	for i, l := range sentimentOrder {
		if l == label {
			return i
		}
	}
	return len(sentimentOrder)
}
