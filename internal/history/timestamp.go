package history

import (
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Timestamp keeps the stored value next to its parsed form. Valid is false
// when the value could not be parsed; such rows are still extracted and left
// for the aggregations to drop.
type Timestamp struct {
	Raw   string
	Time  time.Time
	Valid bool
}

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a stored timestamp string. Values without a zone are
// taken as UTC.
func ParseTimestamp(raw string) Timestamp {
	s := strings.TrimSpace(raw)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Raw: raw, Time: t.UTC(), Valid: true}
		}
	}
	return Timestamp{Raw: raw}
}

// secondsEpochLimit separates epoch seconds from epoch milliseconds: 1e11
// seconds is past the year 5000, 1e11 milliseconds is in 1973.
const secondsEpochLimit = 100_000_000_000

// epoch converts an epoch number, read as seconds below secondsEpochLimit and
// as milliseconds otherwise.
func epoch(n int64) time.Time {
	if n > -secondsEpochLimit && n < secondsEpochLimit {
		return time.Unix(n, 0).UTC()
	}
	return time.UnixMilli(n).UTC()
}

// timestampOf reads a timestamp field: a string, an epoch number or a
// {"$date": ...} wrapper. ok is false when the field is absent, null or blank.
func timestampOf(r gjson.Result) (ts Timestamp, ok bool) {
	switch {
	case !r.Exists() || r.Type == gjson.Null:
		return Timestamp{}, false
	case r.Type == gjson.String && strings.TrimSpace(r.Str) == "":
		return Timestamp{}, false
	case r.IsObject():
		if d := r.Get("$date"); d.Exists() {
			return timestampOf(d)
		}
		if n := r.Get("$numberLong"); n.Exists() {
			return timestampOf(n)
		}
		return Timestamp{Raw: r.Raw}, true
	case r.Type == gjson.Number:
		return Timestamp{Raw: r.Raw, Time: epoch(r.Int()), Valid: true}, true
	case r.Type == gjson.String:
		if n, err := strconv.ParseInt(r.Str, 10, 64); err == nil {
			return Timestamp{Raw: r.Str, Time: epoch(n), Valid: true}, true
		}
		return ParseTimestamp(r.Str), true
	default:
		return Timestamp{Raw: r.Raw}, true
	}
}
