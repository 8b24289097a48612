package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"voice-receptionist/internal/calls"
)

type fakeMailer struct {
	mu     sync.Mutex
	sent   []Message
	failTo string
	done   chan struct{}
}

func newFakeMailer() *fakeMailer { return &fakeMailer{done: make(chan struct{}, 16)} }

func (m *fakeMailer) Send(ctx context.Context, msg Message) error {
	defer func() { m.done <- struct{}{} }()
	if msg.To == m.failTo {
		return errors.New("smtp unavailable")
	}
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

func (m *fakeMailer) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for send %d/%d", i+1, n)
		}
	}
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) NotificationResult(kind, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[kind+"/"+result]++
}

func (r *countingRecorder) get(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}

func notice() Notice {
	at := time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)
	return Notice{
		AgentID:    "a1",
		AgentName:  "Bella Salon",
		AdminEmail: "owner@bella.example",
		Booking: calls.Booking{
			ID:            "b1",
			CallLogID:     "c1",
			CustomerName:  "Jane Doe",
			CustomerEmail: "jane@x.com",
			RequestedAt:   &at,
			Service:       "consult",
		},
	}
}

func TestDispatcher_SendsAdminAndCustomer(t *testing.T) {
	m := newFakeMailer()
	rec := &countingRecorder{}
	d := NewDispatcher(m, Config{QueueSize: 4, Workers: 1}, nil, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	if !d.Dispatch(context.Background(), notice()) {
		t.Fatalf("expected notice accepted")
	}
	m.wait(t, 2)

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(m.sent))
	}
	if m.sent[0].To != "owner@bella.example" || !strings.Contains(m.sent[0].Subject, "Jane Doe") {
		t.Fatalf("unexpected admin message %+v", m.sent[0])
	}
	if m.sent[1].To != "jane@x.com" || !strings.Contains(m.sent[1].HTML, "Thursday, March 5, 2026 at 2:00 PM") {
		t.Fatalf("unexpected customer message %+v", m.sent[1])
	}
}

func TestDispatcher_SendsAreIndependent(t *testing.T) {
	m := newFakeMailer()
	m.failTo = "owner@bella.example"
	rec := &countingRecorder{}
	d := NewDispatcher(m, Config{Workers: 1}, nil, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Dispatch(context.Background(), notice())
	m.wait(t, 2)

	m.mu.Lock()
	sent := append([]Message(nil), m.sent...)
	m.mu.Unlock()
	if len(sent) != 1 || sent[0].To != "jane@x.com" {
		t.Fatalf("customer email must still be sent when admin send fails, got %+v", sent)
	}
	deadline := time.Now().Add(2 * time.Second)
	for rec.get("admin/failed") != 1 || rec.get("customer/sent") != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("unexpected recorded outcomes: admin/failed=%d customer/sent=%d", rec.get("admin/failed"), rec.get("customer/sent"))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDispatcher_NoCustomerEmailSendsAdminOnly(t *testing.T) {
	m := newFakeMailer()
	d := NewDispatcher(m, Config{Workers: 1}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	n := notice()
	n.Booking.CustomerEmail = ""
	n.Booking.RequestedAt = nil
	n.Booking.RequestedText = "tomorrow 2pm"
	d.Dispatch(context.Background(), n)
	m.wait(t, 1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) != 1 || !strings.Contains(m.sent[0].HTML, "tomorrow 2pm") {
		t.Fatalf("unexpected messages %+v", m.sent)
	}
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	rec := &countingRecorder{}
	d := NewDispatcher(newFakeMailer(), Config{QueueSize: 1}, nil, rec)

	if !d.Dispatch(context.Background(), notice()) {
		t.Fatalf("first notice should be accepted")
	}
	done := make(chan bool, 1)
	go func() { done <- d.Dispatch(context.Background(), notice()) }()
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("second notice should be dropped")
		}
	case <-time.After(time.Second):
		t.Fatalf("Dispatch blocked on a full queue")
	}
	if rec.get("admin/dropped") != 1 {
		t.Fatalf("expected a dropped outcome")
	}
}

func TestDispatcher_RunDrainsOnShutdown(t *testing.T) {
	m := newFakeMailer()
	d := NewDispatcher(m, Config{QueueSize: 4, Workers: 1}, nil, nil)
	n := notice()
	n.Booking.CustomerEmail = ""
	d.Dispatch(context.Background(), n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	if len(m.sent) != 1 {
		t.Fatalf("expected queued notice delivered on shutdown, got %d", len(m.sent))
	}
}

func TestDispatcher_AcceptsUntilRunReturns(t *testing.T) {
	m := newFakeMailer()
	rec := &countingRecorder{}
	d := NewDispatcher(m, Config{QueueSize: 4, Workers: 1}, nil, rec)
	n := notice()
	n.Booking.CustomerEmail = ""

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()

	if !d.Dispatch(context.Background(), n) {
		t.Fatalf("notice should be accepted while running")
	}
	m.wait(t, 1)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}

	if d.Dispatch(context.Background(), n) {
		t.Fatalf("notice offered after Run returned should be dropped")
	}
	if d.Pending() != 0 || rec.get("admin/dropped") != 1 {
		t.Fatalf("expected one dropped and none pending, got pending=%d dropped=%d", d.Pending(), rec.get("admin/dropped"))
	}
}

func TestHTTPMailer_Send(t *testing.T) {
	var got sendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"em_1"}`))
	}))
	defer srv.Close()

	m := NewHTTPMailer(srv.URL, "key", "Bookings <bookings@example.com>")
	if err := m.Send(context.Background(), Message{To: "jane@x.com", Subject: "Hi", HTML: "<p>x</p>"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if auth != "Bearer key" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.From != "Bookings <bookings@example.com>" || len(got.To) != 1 || got.To[0] != "jane@x.com" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestHTTPMailer_SendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid from"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := NewHTTPMailer(srv.URL, "key", "x@example.com").Send(context.Background(), Message{To: "jane@x.com"})
	if err == nil || !strings.Contains(err.Error(), "422") {
		t.Fatalf("expected status error, got %v", err)
	}
}
