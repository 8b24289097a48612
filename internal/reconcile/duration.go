package reconcile

import (
	"math"
	"strings"
	"time"

	"voice-receptionist/internal/calls"
)

// secondsPerMessage estimates call length when the platform reports neither a
// duration nor usable timestamps.
const secondsPerMessage = 3

// ComputeDuration tries the explicit duration (rounded), then
// endedAt-startedAt, then 3s per transcript message, and returns the first
// that comes out positive. It returns 0 when none does.
func ComputeDuration(explicit *float64, startedAt, endedAt string, messages int) int {
	if explicit != nil && !math.IsInf(*explicit, 0) && !math.IsNaN(*explicit) {
		if d := int(math.Round(*explicit)); d > 0 {
			return d
		}
	}
	if start, ok := parseTimestamp(startedAt); ok {
		if end, ok := parseTimestamp(endedAt); ok {
			if d := int(math.Round(end.Sub(start).Seconds())); d > 0 {
				return d
			}
		}
	}
	if messages > 0 {
		return secondsPerMessage * messages
	}
	return 0
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DeriveStatus returns the ended reason when reported. Otherwise the
// platform status is kept, except placeholder values ("queued", "ended")
// which become "completed".
func DeriveStatus(endedReason, status string) string {
	if r := strings.TrimSpace(endedReason); r != "" {
		return r
	}
	switch s := strings.TrimSpace(status); s {
	case "", calls.StatusQueued, "ended":
		return calls.StatusCompleted
	default:
		return s
	}
}
