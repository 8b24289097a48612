package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"voice-receptionist/internal/agents"
	"voice-receptionist/internal/booking"
	"voice-receptionist/internal/calls"
	"voice-receptionist/internal/notify"
	"voice-receptionist/pkg/logger"
)

// Tool error codes. The assistant's prompt tells it how to react to each.
const (
	CodeInvalidEmail  = "invalid_email"
	CodeMissingFields = "missing_fields"
	CodeAgentNotFound = "agent_not_found"
	CodeBookingFailed = "booking_failed"
)

// ToolBookingRequest is one book_appointment invocation, already correlated
// to an agent by the webhook adapter.
type ToolBookingRequest struct {
	ToolCallID     string
	ExternalCallID string
	AgentID        string
	CallerNumber   string
	Arguments      map[string]any
}

// ToolOutcome is relayed to the assistant mid-call. Failures are outcomes,
// not errors, so the conversation can recover.
type ToolOutcome struct {
	OK        bool
	Code      string
	Message   string
	CallLogID string
	BookingID string
	// Created is false when the call already had a booking.
	Created bool
}

func failure(code, msg string) ToolOutcome {
	return ToolOutcome{Code: code, Message: msg}
}

// BookFromTool records a booking requested by the assistant during a call.
// Notification is sent only when this invocation created the booking.
func (s *Service) BookFromTool(ctx context.Context, req ToolBookingRequest) ToolOutcome {
	log := logger.From(ctx).With("call_id", req.ExternalCallID, "agent_id", req.AgentID, "tool_call_id", req.ToolCallID)

	if strings.TrimSpace(req.AgentID) == "" {
		s.flag(ctx, "missing_agent_id", req.ExternalCallID, "", "tool-calls")
		s.recordBooking(calls.BookingSourceTool, CodeAgentNotFound)
		return failure(CodeAgentNotFound, "I couldn't identify this business. Please apologize and let the caller know someone will call them back.")
	}
	agent, err := s.loadAgent(ctx, req.AgentID)
	if err != nil {
		if errors.Is(err, ErrAgentNotFound) {
			s.flag(ctx, "unknown_agent", req.ExternalCallID, req.AgentID, "tool-calls")
		} else {
			log.Error("load agent", "err", err)
		}
		s.recordBooking(calls.BookingSourceTool, CodeAgentNotFound)
		return failure(CodeAgentNotFound, "I couldn't identify this business. Please apologize and let the caller know someone will call them back.")
	}

	args := booking.Canonicalize(req.Arguments)
	if out, ok := s.checkArguments(args); !ok {
		log.Info("tool arguments rejected", "code", out.Code)
		s.recordBooking(calls.BookingSourceTool, out.Code)
		return out
	}

	if strings.TrimSpace(req.ExternalCallID) == "" {
		log.Error("tool call without call id")
		s.recordBooking(calls.BookingSourceTool, CodeBookingFailed)
		return failure(CodeBookingFailed, "The booking could not be saved. Please apologize and offer to try again.")
	}

	loc := agent.Location(s.loc)
	details, _ := booking.Extract(args, req.CallerNumber, loc)

	var (
		stored  calls.Booking
		created bool
	)
	res, err := s.observe(ctx, "tool", calls.Observation{
		ExternalCallID: req.ExternalCallID,
		AgentID:        agent.ID,
		CallerNumber:   req.CallerNumber,
	}, func(res calls.ObserveResult) error {
		var err error
		stored, created, err = s.calls.CreateBookingIfAbsent(ctx, details.Booking(res.Call, calls.BookingSourceTool))
		return err
	})
	if err != nil {
		log.Error("tool booking failed", "err", err)
		s.recordBooking(calls.BookingSourceTool, CodeBookingFailed)
		return failure(CodeBookingFailed, "The booking could not be saved. Please apologize and offer to try again.")
	}

	if !created {
		log.Info("booking already exists for call", "booking_id", stored.ID)
		s.recordBooking(calls.BookingSourceTool, "duplicate")
		return ToolOutcome{
			OK:        true,
			Message:   "A booking request for this call was already saved. Let the caller know the team will confirm it.",
			CallLogID: res.Call.ID,
			BookingID: stored.ID,
		}
	}

	s.recordBooking(calls.BookingSourceTool, "created")
	log.Info("booking created", "booking_id", stored.ID)
	s.notify(ctx, agent, res.Call, stored)

	return ToolOutcome{
		OK:        true,
		Message:   confirmation(stored),
		CallLogID: res.Call.ID,
		BookingID: stored.ID,
		Created:   true,
	}
}

// checkArguments validates canonical arguments against the declared tool
// schema, then the email format.
func (s *Service) checkArguments(args map[string]any) (ToolOutcome, bool) {
	if err := s.schema.Validate(args); err != nil {
		missing := missingRequired(args)
		msg := "Some booking details are missing."
		if len(missing) > 0 {
			msg = fmt.Sprintf("Missing booking details: %s. Ask the caller for them, then try again.", strings.Join(missing, ", "))
		}
		return failure(CodeMissingFields, msg), false
	}
	email, _ := args[booking.CustomerEmail.Canonical].(string)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return failure(CodeInvalidEmail, "The email address looks invalid. Ask the caller to spell their email again, letter by letter."), false
	}
	return ToolOutcome{}, true
}

func missingRequired(args map[string]any) []string {
	var out []string
	for _, f := range []booking.Field{booking.CustomerName, booking.CustomerEmail, booking.DateTime} {
		if v, _ := args[f.Canonical].(string); strings.TrimSpace(v) == "" {
			out = append(out, f.Canonical)
		}
	}
	sort.Strings(out)
	return out
}

func confirmation(b calls.Booking) string {
	when := b.RequestedText
	if when == "" {
		when = "the requested time"
	}
	return fmt.Sprintf("Booking request saved for %s for %s. It is pending until the team confirms it.", b.CustomerName, when)
}

func (s *Service) notify(ctx context.Context, a agents.Agent, call calls.CallLog, b calls.Booking) {
	if s.notifier == nil {
		return
	}
	s.notifier.Dispatch(ctx, notify.Notice{
		AgentID:      a.ID,
		AgentName:    a.Name,
		AdminEmail:   a.AdminEmail,
		CallerNumber: call.CallerNumber,
		Location:     a.Location(s.loc),
		Booking:      b,
	})
}
