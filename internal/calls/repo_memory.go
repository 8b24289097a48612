package calls

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local runs.
// A single mutex gives the same per-call atomicity the Postgres store gets
// from row locks and unique constraints.
type MemoryStore struct {
	mu sync.Mutex

	calls    map[string]CallLog // key: external_call_id
	bookings map[string]Booking // key: call_log_id

	Now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		calls:    map[string]CallLog{},
		bookings: map[string]Booking{},
		Now:      time.Now,
	}
}

func (s *MemoryStore) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *MemoryStore) Observe(ctx context.Context, o Observation) (ObserveResult, error) {
	if err := o.validate(); err != nil {
		return ObserveResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.calls[o.ExternalCallID]
	if !ok {
		c := o.newCallLog(uuid.NewString(), now)
		s.calls[o.ExternalCallID] = c
		return ObserveResult{Call: c, Previous: StateUnseen}, nil
	}
	merged := Merge(existing, o, now)
	s.calls[o.ExternalCallID] = merged
	return ObserveResult{Call: merged, Previous: existing.State}, nil
}

func (s *MemoryStore) GetByExternalID(ctx context.Context, externalCallID string) (CallLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[externalCallID]
	if !ok {
		return CallLog{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) GetCall(ctx context.Context, agentID, id string) (CallLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c.ID == id && c.AgentID == agentID {
			return c, nil
		}
	}
	return CallLog{}, ErrNotFound
}

func (s *MemoryStore) ListCalls(ctx context.Context, f ListFilter) ([]CallLog, error) {
	if strings.TrimSpace(f.AgentID) == "" {
		return nil, ErrInvalidArgument
	}
	s.mu.Lock()
	out := make([]CallLog, 0)
	for _, c := range s.calls {
		if c.AgentID != f.AgentID || !f.includes(c.CreatedAt) {
			continue
		}
		out = append(out, c)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) BookingForCall(ctx context.Context, callLogID string) (Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[callLogID]
	if !ok {
		return Booking{}, ErrNotFound
	}
	return b, nil
}

func (s *MemoryStore) CreateBookingIfAbsent(ctx context.Context, b Booking) (Booking, bool, error) {
	if err := b.validate(); err != nil {
		return Booking{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.bookings[b.CallLogID]; ok {
		return existing, false, nil
	}
	b = b.withDefaults(s.now())
	s.bookings[b.CallLogID] = b
	return b, true, nil
}

func (s *MemoryStore) ListBookings(ctx context.Context, f ListFilter) ([]Booking, error) {
	if strings.TrimSpace(f.AgentID) == "" {
		return nil, ErrInvalidArgument
	}
	s.mu.Lock()
	out := make([]Booking, 0)
	for _, b := range s.bookings {
		if b.AgentID != f.AgentID || !f.includes(b.CreatedAt) {
			continue
		}
		out = append(out, b)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
