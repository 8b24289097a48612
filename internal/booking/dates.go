package booking

import (
	"regexp"
	"strings"
	"time"
)

// Layouts carrying their own offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	time.RFC1123Z,
	time.RFC1123,
}

// Layouts interpreted in the agent's location. Input is upper-cased before
// parsing so "pm" and "PM" both match; month names match case-insensitively.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 3:04 PM",
	"2006-01-02 3 PM",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006 3:04 PM",
	"01/02/2006 3 PM",
	"01/02/2006",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"January 2, 2006 3:04 PM",
	"January 2, 2006 3 PM",
	"January 2 2006 3:04 PM",
	"January 2, 2006",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 3 PM",
	"Jan 2, 2006",
	"Monday, January 2, 2006 3:04 PM",
	"Monday, January 2, 2006 3 PM",
	"Monday, January 2, 2006",
	"2 January 2006 15:04",
	"2 January 2006",
}

var (
	ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	spaces        = regexp.MustCompile(`\s+`)
	compactMeridi = regexp.MustCompile(`(?i)(\d)(am|pm)\b`)
)

// ParseDate parses a spoken/transcribed date permissively. It returns nil
// rather than an error when nothing matches; relative phrases such as
// "tomorrow at 2" are not resolved.
func ParseDate(raw string, loc *time.Location) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}

	s = normalize(s)
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t
		}
	}
	return nil
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, " at ", " ")
	s = strings.ReplaceAll(s, " AT ", " ")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = compactMeridi.ReplaceAllString(s, "$1 $2")
	s = strings.ReplaceAll(s, "a.m.", "am")
	s = strings.ReplaceAll(s, "p.m.", "pm")
	s = spaces.ReplaceAllString(strings.TrimSpace(s), " ")
	return strings.ToUpper(s)
}
