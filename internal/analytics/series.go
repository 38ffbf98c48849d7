package analytics

import (
	"slices"
	"time"

	"github.com/MikeSquared-Agency/procstop/internal/history"
)

// SentimentPoint is the mean sentiment of one calendar day.
type SentimentPoint struct {
	Day      time.Time `json:"day"`
	Positive float64   `json:"positive"`
	Negative float64   `json:"negative"`
	Neutral  float64   `json:"neutral"`
}

// SentimentSeries averages sentiment per day, ordered by day. Rows with an
// unparsable timestamp are dropped.
func SentimentSeries(rows []history.SentimentRow) ([]SentimentPoint, error) {
	groups := make(map[time.Time]*mean)
	for _, r := range rows {
		if !r.Timestamp.Valid {
			continue
		}
		d := day(r.Timestamp.Time)
		m, ok := groups[d]
		if !ok {
			m = newMean(3)
			groups[d] = m
		}
		m.add(r.Positive, r.Negative, r.Neutral)
	}
	if len(groups) == 0 {
		return nil, ErrNoData
	}

	out := make([]SentimentPoint, 0, len(groups))
	for d, m := range groups {
		out = append(out, SentimentPoint{Day: d, Positive: m.value(0), Negative: m.value(1), Neutral: m.value(2)})
	}
	slices.SortFunc(out, func(a, b SentimentPoint) int { return a.Day.Compare(b.Day) })
	return out, nil
}

// HatePoint is the mean hate-speech score of one conversation, placed at its
// most recent timestamp.
type HatePoint struct {
	ConversationID string    `json:"conversation_id"`
	Hateful        float64   `json:"hateful"`
	Targeted       float64   `json:"targeted"`
	Aggressive     float64   `json:"aggressive"`
	Timestamp      time.Time `json:"timestamp"`
}

// conversationGroups keeps per-conversation accumulators in order of first
// appearance.
type conversationGroups struct {
	order  []string
	means  map[string]*mean
	latest map[string]time.Time
	cols   int
}

func newConversationGroups(cols int) *conversationGroups {
	return &conversationGroups{means: make(map[string]*mean), latest: make(map[string]time.Time), cols: cols}
}

func (g *conversationGroups) add(id string, ts history.Timestamp, vals ...float64) {
	m, ok := g.means[id]
	if !ok {
		m = newMean(g.cols)
		g.means[id] = m
		g.order = append(g.order, id)
	}
	m.add(vals...)
	if ts.Valid && ts.Time.After(g.latest[id]) {
		g.latest[id] = ts.Time
	}
}

// HateEvolution averages hate scores per conversation.
func HateEvolution(rows []history.HateRow) ([]HatePoint, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	g := newConversationGroups(3)
	for _, r := range rows {
		g.add(r.ConversationID, r.Timestamp, r.Hateful, r.Targeted, r.Aggressive)
	}

	out := make([]HatePoint, 0, len(g.order))
	for _, id := range g.order {
		m := g.means[id]
		out = append(out, HatePoint{
			ConversationID: id,
			Hateful:        m.value(0),
			Targeted:       m.value(1),
			Aggressive:     m.value(2),
			Timestamp:      g.latest[id],
		})
	}
	return out, nil
}

// IronyPoint is the mean irony score of one conversation.
type IronyPoint struct {
	ConversationID string    `json:"conversation_id"`
	Ironic         float64   `json:"ironic"`
	NotIronic      float64   `json:"not_ironic"`
	Timestamp      time.Time `json:"timestamp"`
}

// IronyEvolution averages irony scores per conversation. Rows with an
// unparsable timestamp are dropped first.
func IronyEvolution(rows []history.IronyRow) ([]IronyPoint, error) {
	g := newConversationGroups(2)
	for _, r := range rows {
		if !r.Timestamp.Valid {
			continue
		}
		g.add(r.ConversationID, r.Timestamp, r.Ironic, r.NotIronic)
	}
	if len(g.order) == 0 {
		return nil, ErrNoData
	}

	out := make([]IronyPoint, 0, len(g.order))
	for _, id := range g.order {
		m := g.means[id]
		out = append(out, IronyPoint{
			ConversationID: id,
			Ironic:         m.value(0),
			NotIronic:      m.value(1),
			Timestamp:      g.latest[id],
		})
	}
	return out, nil
}
