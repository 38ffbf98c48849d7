package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/procstop/internal/history"
)

// EntitySentiment is the sentiment snapshot stored with an entity mention.
type EntitySentiment struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// EntityAggregate summarises every mention of one (category, entity).
type EntityAggregate struct {
	Category  string          `json:"category"`
	Entity    string          `json:"entity"`
	Frequency int             `json:"frequency"`
	Sentiment EntitySentiment `json:"sentiment"`
	Since     time.Time       `json:"since"`
	Last      time.Time       `json:"last"`
}

type entityKey struct {
	category string
	entity   string
}

// Entities groups mentions by (category, entity). The sentiment of a group is
// the one of its first mention; since and last span the valid timestamps.
func Entities(rows []history.EntityRow) ([]EntityAggregate, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	index := make(map[entityKey]int)
	var out []EntityAggregate
	for i, r := range rows {
		if strings.TrimSpace(r.Category) == "" {
			return nil, &StructuralError{Table: "entity", Field: "category", Row: i}
		}
		if strings.TrimSpace(r.Entity) == "" {
			return nil, &StructuralError{Table: "entity", Field: "entity", Row: i}
		}

		k := entityKey{r.Category, r.Entity}
		idx, seen := index[k]
		if !seen {
			idx = len(out)
			index[k] = idx
			out = append(out, EntityAggregate{
				Category: r.Category,
				Entity:   r.Entity,
				Sentiment: EntitySentiment{
					Positive: r.SentimentPos,
					Neutral:  r.SentimentNeu,
					Negative: r.SentimentNeg,
				},
			})
		}

		agg := &out[idx]
		agg.Frequency++
		if !r.Timestamp.Valid {
			continue
		}
		ts := r.Timestamp.Time
		if agg.Since.IsZero() || ts.Before(agg.Since) {
			agg.Since = ts
		}
		if agg.Last.IsZero() || ts.After(agg.Last) {
			agg.Last = ts
		}
	}
	return out, nil
}

// TopEntities ranks aggregates by positive sentiment and keeps the first n
// (DefaultTopN when n <= 0). Ties keep their input order.
func TopEntities(aggs []EntityAggregate, n int, descending bool) []EntityAggregate {
	if n <= 0 {
		n = DefaultTopN
	}
	ranked := append([]EntityAggregate(nil), aggs...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if descending {
			return ranked[i].Sentiment.Positive > ranked[j].Sentiment.Positive
		}
		return ranked[i].Sentiment.Positive < ranked[j].Sentiment.Positive
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
