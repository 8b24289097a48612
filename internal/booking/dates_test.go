package booking

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-05T14:00:00Z", time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)},
		{"2026-03-05T14:00:00-05:00", time.Date(2026, 3, 5, 19, 0, 0, 0, time.UTC)},
		{"2026-03-05 14:00", time.Date(2026, 3, 5, 14, 0, 0, 0, ny)},
		{"2026-03-05", time.Date(2026, 3, 5, 0, 0, 0, 0, ny)},
		{"03/05/2026 2:30 pm", time.Date(2026, 3, 5, 14, 30, 0, 0, ny)},
		{"March 5th, 2026 at 2pm", time.Date(2026, 3, 5, 14, 0, 0, 0, ny)},
		{"Thursday, March 5, 2026 10:15 AM", time.Date(2026, 3, 5, 10, 15, 0, 0, ny)},
		{"mar 5, 2026", time.Date(2026, 3, 5, 0, 0, 0, 0, ny)},
	}
	for _, tt := range tests {
		got := ParseDate(tt.in, ny)
		if got == nil {
			t.Fatalf("%q: expected a date", tt.in)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("%q: got %v want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDate_Unparseable(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-date", "tomorrow 2pm", "next Tuesday"} {
		if got := ParseDate(in, time.UTC); got != nil {
			t.Fatalf("%q: expected nil, got %v", in, got)
		}
	}
}
