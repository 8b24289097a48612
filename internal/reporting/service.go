package reporting

import (
	"context"
	"errors"

	"voice-receptionist/internal/agents"
	"voice-receptionist/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Source is the read side of the call store.
type Source interface {
	ListCalls(ctx context.Context, f calls.ListFilter) ([]calls.CallLog, error)
	ListBookings(ctx context.Context, f calls.ListFilter) ([]calls.Booking, error)
}

// AgentOwner checks tenant ownership of an agent.
type AgentOwner interface {
	GetForTenant(ctx context.Context, tenantID, id string) (agents.Agent, error)
}

type Service struct {
	source Source
	agents AgentOwner
}

func NewService(source Source, owner AgentOwner) *Service {
	return &Service{source: source, agents: owner}
}

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.TenantID == "" || req.AgentID == "" {
		return CallsSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.source == nil || s.agents == nil {
		return CallsSummary{}, errors.New("reporting: repository not configured")
	}

	// agents.ErrNotFound passes through; callers map it to 404.
	if _, err := s.agents.GetForTenant(ctx, req.TenantID, req.AgentID); err != nil {
		return CallsSummary{}, err
	}

	f := calls.ListFilter{AgentID: req.AgentID, From: req.Range.From, To: req.Range.To}
	rows, err := s.source.ListCalls(ctx, f)
	if err != nil {
		return CallsSummary{}, err
	}
	bookings, err := s.source.ListBookings(ctx, f)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{
		AgentID:          req.AgentID,
		Range:            req.Range,
		StatusCounts:     map[string]int{},
		BookingsBySource: map[string]int{},
	}
	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		if c.RecordingURL != "" {
			out.RecordedCalls++
		}
		switch c.State {
		case calls.StateFinalized:
			out.FinalizedCalls++
		default:
			out.OpenCalls++
		}
		if c.Status != "" {
			out.StatusCounts[c.Status]++
		}
	}
	for _, b := range bookings {
		out.Bookings++
		out.BookingsBySource[string(b.Source)]++
		if b.RequestedAt == nil {
			out.UnparsedBookingTimes++
		}
	}

	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	if out.FinalizedCalls > 0 {
		out.BookingRate = float64(out.Bookings) / float64(out.FinalizedCalls)
	}
	return out, nil
}
