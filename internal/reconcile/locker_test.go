package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"voice-receptionist/internal/calls"
)

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked int
	err      error
}

func (l *recordingLocker) Lock(ctx context.Context, externalCallID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, externalCallID)
	return func() {
		l.mu.Lock()
		l.unlocked++
		l.mu.Unlock()
	}, nil
}

func TestObserve_LocksPerCall(t *testing.T) {
	h := newHarness(t)
	l := &recordingLocker{}
	h.svc.locker = l

	out := h.svc.BookFromTool(context.Background(), ToolBookingRequest{
		ToolCallID: "tc1", ExternalCallID: "call-1", AgentID: "a1", Arguments: janeArgs(),
	})
	if !out.OK {
		t.Fatalf("expected ok, got %+v", out)
	}
	if _, err := h.svc.ApplyEndOfCall(context.Background(), EndOfCallReport{ExternalCallID: "call-1", AgentID: "a1"}); err != nil {
		t.Fatalf("report: %v", err)
	}

	if len(l.locked) != 2 || l.locked[0] != "call-1" || l.locked[1] != "call-1" {
		t.Fatalf("unexpected locks: %v", l.locked)
	}
	if l.unlocked != 2 {
		t.Fatalf("expected 2 unlocks, got %d", l.unlocked)
	}
}

func TestObserve_LockFailureContinues(t *testing.T) {
	h := newHarness(t)
	h.svc.locker = &recordingLocker{err: errors.New("redis down")}

	out, err := h.svc.ApplyEndOfCall(context.Background(), EndOfCallReport{ExternalCallID: "call-2", AgentID: "a1"})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if out.Call.State != calls.StateFinalized {
		t.Fatalf("expected finalized call, got %q", out.Call.State)
	}
}

func TestNewService_DefaultsToNopLocker(t *testing.T) {
	h := newHarness(t)
	if _, ok := h.svc.locker.(NopLocker); !ok {
		t.Fatalf("expected NopLocker, got %T", h.svc.locker)
	}
}
