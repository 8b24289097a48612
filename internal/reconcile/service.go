package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"voice-receptionist/internal/agents"
	"voice-receptionist/internal/assistant"
	"voice-receptionist/internal/calls"
	"voice-receptionist/internal/notify"
	"voice-receptionist/pkg/logger"
)

var (
	ErrMissingAgentID = errors.New("reconcile: agent id missing from payload")
	ErrMissingCallID  = errors.New("reconcile: external call id missing from payload")
	ErrAgentNotFound  = errors.New("reconcile: agent not found")
)

// AgentStore loads agents by id.
type AgentStore interface {
	Get(ctx context.Context, id string) (agents.Agent, error)
}

// Notifier accepts booking notices without blocking.
type Notifier interface {
	Dispatch(ctx context.Context, n notify.Notice) bool
}

// Flagger records webhook anomalies for operators.
type Flagger interface {
	FlagWebhook(ctx context.Context, reason, externalCallID, agentID, detail string) error
}

// Recorder receives reconciliation outcomes (for metrics).
type Recorder interface {
	CallObserved(path string, previous calls.State)
	BookingResult(source, result string)
}

type Deps struct {
	Agents   AgentStore
	Calls    calls.Store
	Locker   Locker
	Notifier Notifier
	Flags    Flagger
	Metrics  Recorder
	Validate *validator.Validate
	// DefaultLocation applies to agents without a time zone.
	DefaultLocation *time.Location
}

// Service reconciles tool invocations and end-of-call reports into one
// CallLog and at most one Booking per external call.
type Service struct {
	agents   AgentStore
	calls    calls.Store
	locker   Locker
	notifier Notifier
	flags    Flagger
	metrics  Recorder
	validate *validator.Validate
	schema   *jsonschema.Schema
	loc      *time.Location
}

func NewService(d Deps) (*Service, error) {
	if d.Agents == nil || d.Calls == nil {
		return nil, errors.New("reconcile: agents and calls stores are required")
	}
	schema, err := jsonschema.CompileString("book_appointment_params", assistant.BookingToolSchema)
	if err != nil {
		return nil, fmt.Errorf("reconcile: compile tool schema: %w", err)
	}

	s := &Service{
		agents:   d.Agents,
		calls:    d.Calls,
		locker:   d.Locker,
		notifier: d.Notifier,
		flags:    d.Flags,
		metrics:  d.Metrics,
		validate: d.Validate,
		schema:   schema,
		loc:      d.DefaultLocation,
	}
	if s.locker == nil {
		s.locker = NopLocker{}
	}
	if s.validate == nil {
		s.validate = validator.New()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	return s, nil
}

// observe is the single routine both entry points go through: lock the call,
// apply the observation, then run fn (booking creation) under the same lock.
func (s *Service) observe(ctx context.Context, path string, o calls.Observation, fn func(calls.ObserveResult) error) (calls.ObserveResult, error) {
	log := logger.From(ctx).With("call_id", o.ExternalCallID, "agent_id", o.AgentID)

	unlock, err := s.locker.Lock(ctx, o.ExternalCallID)
	if err != nil {
		// The store is still race-safe on its own; carry on without the lock.
		log.Warn("call lock unavailable, continuing unlocked", "err", err)
		unlock = func() {}
	}
	defer unlock()

	res, err := s.calls.Observe(ctx, o)
	if err != nil {
		return calls.ObserveResult{}, err
	}
	if s.metrics != nil {
		s.metrics.CallObserved(path, res.Previous)
	}
	log.Debug("call observed", "path", path, "previous_state", res.Previous, "state", res.Call.State)

	if fn != nil {
		if err := fn(res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// loadAgent treats a deactivated agent as unknown, matching the resolver.
func (s *Service) loadAgent(ctx context.Context, id string) (agents.Agent, error) {
	a, err := s.agents.Get(ctx, id)
	if errors.Is(err, agents.ErrNotFound) {
		return agents.Agent{}, ErrAgentNotFound
	}
	if err != nil {
		return agents.Agent{}, err
	}
	if !a.IsActive {
		return agents.Agent{}, ErrAgentNotFound
	}
	return a, nil
}

func (s *Service) flag(ctx context.Context, reason, externalCallID, agentID, detail string) {
	logger.From(ctx).Warn("webhook flagged",
		"reason", reason,
		"call_id", externalCallID,
		"agent_id", agentID,
		"detail", detail,
	)
	if s.flags == nil {
		return
	}
	if err := s.flags.FlagWebhook(ctx, reason, externalCallID, agentID, detail); err != nil {
		logger.From(ctx).Error("audit flag failed", "reason", reason, "err", err)
	}
}

func (s *Service) recordBooking(source calls.BookingSource, result string) {
	if s.metrics != nil {
		s.metrics.BookingResult(string(source), result)
	}
}
