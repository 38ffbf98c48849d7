package analytics

import (
	"slices"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/procstop/internal/history"
)

// EmotionTotal is the summed probability of one emotion.
type EmotionTotal struct {
	Emotion string  `json:"emotion"`
	Total   float64 `json:"total"`
}

type cleanEmotion struct {
	emotion string
	prob    float64
	ts      history.Timestamp
}

// cleanEmotions drops rows with a blank label or a non-numeric probability
// and normalises labels to trimmed lower case.
func cleanEmotions(rows []history.EmotionRow) []cleanEmotion {
	out := make([]cleanEmotion, 0, len(rows))
	for _, r := range rows {
		label := strings.ToLower(strings.TrimSpace(r.Emotion))
		if label == "" {
			continue
		}
		p, ok := toFloat(r.Probability)
		if !ok {
			continue
		}
		out = append(out, cleanEmotion{emotion: label, prob: p, ts: r.Timestamp})
	}
	return out
}

// EmotionTotals sums probabilities per emotion, ordered by emotion.
func EmotionTotals(rows []history.EmotionRow) ([]EmotionTotal, error) {
	clean := cleanEmotions(rows)
	if len(clean) == 0 {
		return nil, ErrNoData
	}

	sums := make(map[string]float64)
	for _, r := range clean {
		sums[r.emotion] += r.prob
	}

	out := make([]EmotionTotal, 0, len(sums))
	for _, e := range sortedKeys(sums) {
		out = append(out, EmotionTotal{Emotion: e, Total: sums[e]})
	}
	return out, nil
}

// EmotionMatrix is the day x emotion pivot of mean probabilities. Values[d][e]
// belongs to Days[d] and Emotions[e]; absent combinations are 0.
type EmotionMatrix struct {
	Days     []time.Time `json:"days"`
	Emotions []string    `json:"emotions"`
	Values   [][]float64 `json:"values"`
}

type emotionDay struct {
	emotion string
	day     time.Time
}

// EmotionSeries averages each emotion per calendar day. Rows with an
// unparsable timestamp are dropped.
func EmotionSeries(rows []history.EmotionRow) (*EmotionMatrix, error) {
	groups := make(map[emotionDay]*mean)
	days := make(map[time.Time]struct{})
	emotions := make(map[string]struct{})

	for _, r := range cleanEmotions(rows) {
		if !r.ts.Valid {
			continue
		}
		k := emotionDay{r.emotion, day(r.ts.Time)}
		m, ok := groups[k]
		if !ok {
			m = newMean(1)
			groups[k] = m
		}
		m.add(r.prob)
		days[k.day] = struct{}{}
		emotions[k.emotion] = struct{}{}
	}
	if len(groups) == 0 {
		return nil, ErrNoData
	}

	mx := &EmotionMatrix{Emotions: sortedKeys(emotions)}
	for d := range days {
		mx.Days = append(mx.Days, d)
	}
	slices.SortFunc(mx.Days, func(a, b time.Time) int { return a.Compare(b) })

	mx.Values = make([][]float64, len(mx.Days))
	for i, d := range mx.Days {
		mx.Values[i] = make([]float64, len(mx.Emotions))
		for j, e := range mx.Emotions {
			if m, ok := groups[emotionDay{e, d}]; ok {
				mx.Values[i][j] = m.value(0)
			}
		}
	}
	return mx, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
