package availability

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wanderly/models"
)

// ErrInvalidDate is returned by NormalizeToDay for input it cannot interpret.
var ErrInvalidDate = errors.New("invalid date")

var dayLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	models.DayLayout,
	"2006/01/02",
	time.RFC1123,
	time.RFC1123Z,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 02 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// JS Date.toString() appends the zone name in parentheses.
var zoneNameSuffix = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// Unix milliseconds need at least 9 digits to be taken for a timestamp;
// smaller values are rejected rather than read as 1970 dates.
var millisPattern = regexp.MustCompile(`^-?\d{9,}$`)

const minMillis = 100_000_000

// NormalizeToDay interprets v as a point in time and returns the UTC midnight
// of the calendar day it falls on. Accepted inputs are time.Time, date/time
// strings in the layouts above, and Unix milliseconds (numbers or digit strings).
func NormalizeToDay(v any) (time.Time, error) {
	t, err := parseInstant(v)
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		return time.Time{}, fmt.Errorf("%w: zero time", ErrInvalidDate)
	}
	return truncateDay(t), nil
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func parseInstant(v any) (time.Time, error) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("%w: missing value", ErrInvalidDate)
	case time.Time:
		return val, nil
	case *time.Time:
		if val == nil {
			return time.Time{}, fmt.Errorf("%w: missing value", ErrInvalidDate)
		}
		return *val, nil
	case int:
		return fromMillis(int64(val))
	case int64:
		return fromMillis(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) || math.Abs(val) > math.MaxInt64 {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, val)
		}
		return fromMillis(int64(val))
	case json.Number:
		ms, err := val.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, val.String())
		}
		return fromMillis(ms)
	case string:
		return parseString(val)
	}
	return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, v)
}

func fromMillis(ms int64) (time.Time, error) {
	if ms > -minMillis && ms < minMillis {
		return time.Time{}, fmt.Errorf("%w: %d is too small for unix milliseconds", ErrInvalidDate, ms)
	}
	return time.UnixMilli(ms), nil
}

func parseString(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrInvalidDate)
	}
	if millisPattern.MatchString(s) {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
		}
		return fromMillis(ms)
	}
	s = zoneNameSuffix.ReplaceAllString(s, "")
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// RangeError pinpoints the first bad entry of a batch.
type RangeError struct {
	Index  int
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range at index %d: %s", e.Index, e.Reason)
}

func (e *RangeError) Unwrap() error { return models.ErrInvalidRange }

// ParseRanges normalizes a batch of client ranges. The first unparsable or
// inverted entry fails the whole batch.
func ParseRanges(inputs []models.DateRangeInput) ([]models.DateRange, error) {
	out := make([]models.DateRange, 0, len(inputs))
	for i, in := range inputs {
		start, err := NormalizeToDay(in.Start)
		if err != nil {
			return nil, &RangeError{Index: i, Reason: "start: " + err.Error()}
		}
		end, err := NormalizeToDay(in.End)
		if err != nil {
			return nil, &RangeError{Index: i, Reason: "end: " + err.Error()}
		}
		if end.Before(start) {
			return nil, &RangeError{Index: i, Reason: "end is before start"}
		}
		out = append(out, models.DateRange{Start: start, End: end, Note: strings.TrimSpace(in.Note)})
	}
	return out, nil
}
