package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"voice-receptionist/internal/agents"
	"voice-receptionist/internal/calls"
)

func seed(t *testing.T, now time.Time) (*calls.MemoryStore, *agents.MemoryRepo) {
	t.Helper()
	ctx := context.Background()

	ar := agents.NewMemoryRepo()
	for _, a := range []agents.Agent{
		{ID: "a1", TenantID: "t1", Name: "Dental", PhoneNumbers: []string{"+15550001"}, IsActive: true},
		{ID: "a2", TenantID: "t2", Name: "Salon", PhoneNumbers: []string{"+15550002"}, IsActive: true},
	} {
		if err := ar.Create(ctx, a); err != nil {
			t.Fatalf("seed agent: %v", err)
		}
	}

	cs := calls.NewMemoryStore()
	cs.Now = func() time.Time { return now }
	observations := []calls.Observation{
		{ExternalCallID: "c1", AgentID: "a1", DurationSeconds: 30, Status: "customer-ended-call", RecordingURL: "https://r/1", Final: true},
		{ExternalCallID: "c2", AgentID: "a1", DurationSeconds: 90, Final: true},
		{ExternalCallID: "c3", AgentID: "a1"},
		{ExternalCallID: "c4", AgentID: "a2", DurationSeconds: 500, Final: true},
	}
	for _, o := range observations {
		if _, err := cs.Observe(ctx, o); err != nil {
			t.Fatalf("seed call: %v", err)
		}
	}

	c1, _ := cs.GetByExternalID(ctx, "c1")
	c3, _ := cs.GetByExternalID(ctx, "c3")
	when := now.Add(24 * time.Hour)
	if _, _, err := cs.CreateBookingIfAbsent(ctx, calls.Booking{CallLogID: c1.ID, AgentID: "a1", RequestedAt: &when, Source: calls.BookingSourceTool}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	if _, _, err := cs.CreateBookingIfAbsent(ctx, calls.Booking{CallLogID: c3.ID, AgentID: "a1", RequestedText: "next tuesday", Source: calls.BookingSourceAnalysis}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return cs, ar
}

func TestCallsSummary_Aggregates(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	cs, ar := seed(t, now)
	svc := NewService(cs, ar)

	out, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		TenantID: "t1",
		AgentID:  "a1",
		Range:    TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 3 || out.FinalizedCalls != 2 || out.OpenCalls != 1 {
		t.Fatalf("unexpected call counts %+v", out)
	}
	if out.TotalDurationSeconds != 120 || out.AverageDurationSeconds != 40 {
		t.Fatalf("unexpected durations %+v", out)
	}
	if out.StatusCounts["customer-ended-call"] != 1 || out.StatusCounts[calls.StatusCompleted] != 1 || out.StatusCounts[calls.StatusInProgress] != 1 {
		t.Fatalf("unexpected status counts %v", out.StatusCounts)
	}
	if out.RecordedCalls != 1 {
		t.Fatalf("expected 1 recorded call, got %d", out.RecordedCalls)
	}
	if out.Bookings != 2 || out.BookingsBySource["tool"] != 1 || out.BookingsBySource["analysis"] != 1 {
		t.Fatalf("unexpected bookings %+v", out)
	}
	if out.UnparsedBookingTimes != 1 {
		t.Fatalf("expected 1 unparsed booking time, got %d", out.UnparsedBookingTimes)
	}
	if out.BookingRate != 1 {
		t.Fatalf("expected booking rate 1, got %v", out.BookingRate)
	}
}

func TestCallsSummary_TenantIsolation(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	cs, ar := seed(t, now)
	svc := NewService(cs, ar)

	_, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		TenantID: "t1",
		AgentID:  "a2",
		Range:    TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if !errors.Is(err, agents.ErrNotFound) {
		t.Fatalf("expected agents.ErrNotFound, got %v", err)
	}
}

func TestCallsSummary_RangeExcludes(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	cs, ar := seed(t, now)
	svc := NewService(cs, ar)

	out, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		TenantID: "t1",
		AgentID:  "a1",
		Range:    TimeRange{From: now.Add(time.Hour), To: now.Add(2 * time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 0 || out.Bookings != 0 || out.AverageDurationSeconds != 0 {
		t.Fatalf("expected empty summary, got %+v", out)
	}
}

func TestCallsSummary_InvalidRequest(t *testing.T) {
	svc := NewService(calls.NewMemoryStore(), agents.NewMemoryRepo())
	now := time.Now()
	cases := []CallsSummaryRequest{
		{AgentID: "a", Range: TimeRange{From: now, To: now.Add(time.Hour)}},
		{TenantID: "t", Range: TimeRange{From: now, To: now.Add(time.Hour)}},
		{TenantID: "t", AgentID: "a", Range: TimeRange{From: now, To: now}},
	}
	for i, req := range cases {
		if _, err := svc.CallsSummary(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("case %d: expected ErrInvalidRequest, got %v", i, err)
		}
	}
}
