package analysis

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"01-02-2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01",
}

// TryParseTime parses s as a date or timestamp. Layouts from dateFormats are
// tried first, then a permissive parser. Values that look like plain numbers,
// or that carry no digit at all, are never treated as dates.
func TryParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil || !strings.ContainsAny(s, "0123456789") {
		return time.Time{}, false
	}
	for _, f := range dateFormats {
		if t, err := time.ParseInLocation(f, s, time.UTC); err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParsesAsTime reports whether every non-missing cell parses as a time. A
// column with no values at all returns vacuous; callers decide what an empty
// column means.
func ParsesAsTime(cells []any, vacuous bool) bool {
	seen := false
	for _, v := range cells {
		if v == nil {
			continue
		}
		seen = true
		switch x := v.(type) {
		case time.Time:
			continue
		case string:
			if _, ok := TryParseTime(x); !ok {
				return false
			}
		default:
			return false
		}
	}
	if !seen {
		return vacuous
	}
	return true
}
