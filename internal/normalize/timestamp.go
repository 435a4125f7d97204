package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/moolen/cascade/internal/models"
)

// offsetlessPattern recognizes wall-clock strings with no zone designator.
// These are rejected rather than interpreted: guessing a timezone would
// silently shift events across correlation windows.
var offsetlessPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?$`)

// parseTimestamp converts a raw JSON timestamp value into a UTC instant.
// Accepted forms: RFC3339/RFC3339Nano strings with an explicit offset,
// and numeric epochs in seconds or milliseconds (epoch is unambiguous).
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, models.NewMalformedEventError("missing_timestamp", "no timestamp in payload")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseTimestampString(s)
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return epochToTime(n)
	}

	return time.Time{}, models.NewMalformedEventError("bad_timestamp", "timestamp is neither string nor number: %s", raw)
}

func parseTimestampString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, models.NewMalformedEventError("missing_timestamp", "empty timestamp string")
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	// Numeric string epochs show up in some exporters
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return epochToTime(n)
	}

	if offsetlessPattern.MatchString(s) {
		return time.Time{}, models.NewMalformedEventError("no_offset", "timestamp %q has no UTC offset", s)
	}

	return time.Time{}, models.NewMalformedEventError("bad_timestamp", "unparseable timestamp %q", s)
}

// epochToTime interprets a numeric epoch, auto-detecting milliseconds
func epochToTime(n float64) (time.Time, error) {
	if n <= 0 {
		return time.Time{}, models.NewMalformedEventError("bad_timestamp", "non-positive epoch %v", n)
	}
	// Millisecond epochs are 13 digits for contemporary dates
	if n > 1e12 {
		n /= 1000
	}
	sec := int64(n)
	nsec := int64((n - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), nil
}
