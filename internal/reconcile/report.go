package reconcile

import (
	"context"
	"errors"
	"strings"

	"voice-receptionist/internal/booking"
	"voice-receptionist/internal/calls"
	"voice-receptionist/pkg/logger"
)

// EndOfCallReport is the final report for one call, already read out of the
// platform payload.
type EndOfCallReport struct {
	ExternalCallID string
	AgentID        string
	CallerNumber   string

	// DurationSeconds is nil when the platform did not report one.
	DurationSeconds *float64
	StartedAt       string
	EndedAt         string
	MessageCount    int

	Summary      string
	Transcript   string
	RecordingURL string
	EndedReason  string
	Status       string

	// StructuredData is the post-call analysis object, if any.
	StructuredData map[string]any
}

// ReportOutcome describes what ApplyEndOfCall did.
type ReportOutcome struct {
	Call     calls.CallLog
	Previous calls.State

	// Booking is set when the call has a booking after this report.
	Booking *calls.Booking
	// BookingCreated is true when the analysis fallback created it.
	BookingCreated bool
}

// ApplyEndOfCall finalizes the call. If the call has no booking yet and the
// analysis carries booking fields, a booking is created from them. This path
// never sends notifications; the tool path already did.
//
// Errors: ErrMissingAgentID / ErrMissingCallID for payloads that cannot be
// attributed (flagged, not retried), ErrAgentNotFound for unknown agents.
func (s *Service) ApplyEndOfCall(ctx context.Context, r EndOfCallReport) (ReportOutcome, error) {
	if strings.TrimSpace(r.AgentID) == "" {
		s.flag(ctx, "missing_agent_id", r.ExternalCallID, "", "end-of-call-report")
		return ReportOutcome{}, ErrMissingAgentID
	}
	if strings.TrimSpace(r.ExternalCallID) == "" {
		s.flag(ctx, "missing_call_id", "", r.AgentID, "end-of-call-report")
		return ReportOutcome{}, ErrMissingCallID
	}

	agent, err := s.loadAgent(ctx, r.AgentID)
	if err != nil {
		if errors.Is(err, ErrAgentNotFound) {
			s.flag(ctx, "unknown_agent", r.ExternalCallID, r.AgentID, "end-of-call-report")
		}
		return ReportOutcome{}, err
	}
	log := logger.From(ctx).With("call_id", r.ExternalCallID, "agent_id", agent.ID)

	obs := calls.Observation{
		ExternalCallID:  r.ExternalCallID,
		AgentID:         agent.ID,
		CallerNumber:    r.CallerNumber,
		DurationSeconds: ComputeDuration(r.DurationSeconds, r.StartedAt, r.EndedAt, r.MessageCount),
		Summary:         r.Summary,
		Transcript:      r.Transcript,
		RecordingURL:    r.RecordingURL,
		Status:          DeriveStatus(r.EndedReason, r.Status),
		Final:           true,
	}

	var out ReportOutcome
	res, err := s.observe(ctx, "report", obs, func(res calls.ObserveResult) error {
		existing, err := s.calls.BookingForCall(ctx, res.Call.ID)
		if err == nil {
			out.Booking = &existing
			return nil
		}
		if !errors.Is(err, calls.ErrNotFound) {
			return err
		}

		details, ok := booking.Extract(r.StructuredData, res.Call.CallerNumber, agent.Location(s.loc))
		if !ok {
			return nil
		}
		// CreateBookingIfAbsent re-checks: the tool path may have won since.
		b, created, err := s.calls.CreateBookingIfAbsent(ctx, details.Booking(res.Call, calls.BookingSourceAnalysis))
		if err != nil {
			return err
		}
		out.Booking = &b
		out.BookingCreated = created
		return nil
	})
	if err != nil {
		log.Error("end-of-call reconcile failed", "err", err)
		return ReportOutcome{}, err
	}

	out.Call = res.Call
	out.Previous = res.Previous
	switch {
	case out.BookingCreated:
		s.recordBooking(calls.BookingSourceAnalysis, "created")
		log.Info("booking recovered from analysis", "booking_id", out.Booking.ID, "requested_at_parsed", out.Booking.RequestedAt != nil)
	case out.Booking != nil:
		s.recordBooking(calls.BookingSourceAnalysis, "existing")
	}
	log.Info("call finalized", "previous_state", res.Previous, "duration_seconds", res.Call.DurationSeconds, "status", res.Call.Status)
	return out, nil
}
