// Package export writes the flattened history tables to files.
package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/MikeSquared-Agency/procstop/internal/history"
)

// Artifact names, one per table kind.
const (
	EmotionName   = "emotion_data"
	SentimentName = "sentiment_data"
	HateName      = "hate_speech_data"
	IronyName     = "irony_data"
	EntityName    = "entity_data"
)

// Table is a header plus rows of cell values. Cells are strings, float64 or
// nil; sinks decide how to render them.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

func timestampCell(ts history.Timestamp) any {
	if ts.Valid {
		return ts.Time.Format(time.RFC3339Nano)
	}
	if ts.Raw == "" {
		return nil
	}
	return ts.Raw
}

func EmotionTable(rows []history.EmotionRow) Table {
	t := Table{Columns: []string{"emotion", "probability", "timestamp", "conversation_id"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Emotion, r.Probability, timestampCell(r.Timestamp), r.ConversationID})
	}
	return t
}

func SentimentTable(rows []history.SentimentRow) Table {
	t := Table{Columns: []string{"Positive", "Negative", "Neutral", "timestamp", "conversation_id"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Positive, r.Negative, r.Neutral, timestampCell(r.Timestamp), r.ConversationID})
	}
	return t
}

func HateTable(rows []history.HateRow) Table {
	t := Table{Columns: []string{"hateful", "targeted", "aggressive", "timestamp", "conversation_id"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Hateful, r.Targeted, r.Aggressive, timestampCell(r.Timestamp), r.ConversationID})
	}
	return t
}

func IronyTable(rows []history.IronyRow) Table {
	t := Table{Columns: []string{"ironic", "not_ironic", "timestamp", "conversation_id"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Ironic, r.NotIronic, timestampCell(r.Timestamp), r.ConversationID})
	}
	return t
}

func EntityTable(rows []history.EntityRow) Table {
	t := Table{Columns: []string{"category", "entity", "sentiment_pos", "sentiment_neu", "sentiment_neg", "timestamp", "conversation_id"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Category, r.Entity, r.SentimentPos, r.SentimentNeu, r.SentimentNeg, timestampCell(r.Timestamp), r.ConversationID})
	}
	return t
}

// formatCell renders a cell as text.
func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}
