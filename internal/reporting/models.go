package reporting

import "time"

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated call metrics for one agent.
// Tenant isolation: TenantID is required and must own AgentID.
type CallsSummaryRequest struct {
	TenantID string    `json:"tenant_id"`
	AgentID  string    `json:"agent_id"`
	Range    TimeRange `json:"range"`
}

type CallsSummary struct {
	AgentID string    `json:"agent_id"`
	Range   TimeRange `json:"range"`

	TotalCalls     int `json:"total_calls"`
	OpenCalls      int `json:"open_calls"`
	FinalizedCalls int `json:"finalized_calls"`

	// StatusCounts is keyed by stored status or ended reason.
	StatusCounts map[string]int `json:"status_counts"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	RecordedCalls int `json:"recorded_calls"`

	Bookings         int            `json:"bookings"`
	BookingsBySource map[string]int `json:"bookings_by_source"`
	// UnparsedBookingTimes counts bookings whose spoken date did not parse
	// and need a human to read RequestedText.
	UnparsedBookingTimes int `json:"unparsed_booking_times"`

	// BookingRate is bookings per finalized call.
	BookingRate float64 `json:"booking_rate"`
}
