package calls

import (
	"context"
	"time"
)

// Store persists call logs and bookings.
//
// Observe is the only way a CallLog is created or updated: it inserts the row
// when the external call id is unseen and merges into it otherwise, atomically
// per external call id.
type Store interface {
	Observe(ctx context.Context, o Observation) (ObserveResult, error)
	GetByExternalID(ctx context.Context, externalCallID string) (CallLog, error)
	GetCall(ctx context.Context, agentID, id string) (CallLog, error)
	ListCalls(ctx context.Context, f ListFilter) ([]CallLog, error)

	// BookingForCall returns ErrNotFound when the call has no booking yet.
	BookingForCall(ctx context.Context, callLogID string) (Booking, error)
	// CreateBookingIfAbsent inserts b unless a booking already exists for
	// b.CallLogID. It returns the stored booking and whether it was created
	// by this call.
	CreateBookingIfAbsent(ctx context.Context, b Booking) (Booking, bool, error)
	ListBookings(ctx context.Context, f ListFilter) ([]Booking, error)
}

// ListFilter scopes list reads to one agent. Zero From/To mean unbounded;
// Limit <= 0 means no limit.
type ListFilter struct {
	AgentID string
	From    time.Time
	To      time.Time
	Limit   int
}

func (f ListFilter) includes(t time.Time) bool {
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.Before(f.To) {
		return false
	}
	return true
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
