package analytics

import (
	"errors"

	"github.com/MikeSquared-Agency/procstop/internal/history"
)

// Summary bundles every aggregation of one user's history.
type Summary struct {
	Entities      []EntityAggregate `json:"entities,omitempty"`
	MostPositive  []EntityAggregate `json:"most_positive,omitempty"`
	LeastPositive []EntityAggregate `json:"least_positive,omitempty"`
	EmotionTotals []EmotionTotal    `json:"emotion_totals,omitempty"`
	EmotionSeries *EmotionMatrix    `json:"emotion_series,omitempty"`
	Sentiment     []SentimentPoint  `json:"sentiment,omitempty"`
	Hate          []HatePoint       `json:"hate,omitempty"`
	Irony         []IronyPoint      `json:"irony,omitempty"`

	// NoData names the sections that had nothing to aggregate.
	NoData        []string `json:"no_data,omitempty"`
	Conversations int      `json:"conversations"`
	Skipped       int      `json:"skipped"`
}

// Summarize runs every aggregation. Sections without data are listed in
// NoData; a structural error aborts the summary.
func Summarize(t *history.Tables) (*Summary, error) {
	s := &Summary{Conversations: t.Conversations, Skipped: t.Skipped}

	var err error
	record := func(section string, err error) error {
		if errors.Is(err, ErrNoData) {
			s.NoData = append(s.NoData, section)
			return nil
		}
		return err
	}

	if s.Entities, err = Entities(t.Entities); record("entities", err) != nil {
		return nil, err
	}
	if len(s.Entities) > 0 {
		s.MostPositive = TopEntities(s.Entities, DefaultTopN, true)
		s.LeastPositive = TopEntities(s.Entities, DefaultTopN, false)
	}
	if s.EmotionTotals, err = EmotionTotals(t.Emotions); record("emotion_totals", err) != nil {
		return nil, err
	}
	if s.EmotionSeries, err = EmotionSeries(t.Emotions); record("emotion_series", err) != nil {
		return nil, err
	}
	if s.Sentiment, err = SentimentSeries(t.Sentiments); record("sentiment", err) != nil {
		return nil, err
	}
	if s.Hate, err = HateEvolution(t.Hate); record("hate", err) != nil {
		return nil, err
	}
	if s.Irony, err = IronyEvolution(t.Irony); record("irony", err) != nil {
		return nil, err
	}
	return s, nil
}
