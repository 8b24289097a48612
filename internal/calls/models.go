package calls

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CallLog is the durable record of one external call.
//
// Invariant: at most one CallLog per ExternalCallID. The row may be opened early
// by an in-call tool invocation and finalized later by the end-of-call report;
// it is never inserted twice and never deleted here.
type CallLog struct {
	ID             string `json:"id" db:"id"`
	ExternalCallID string `json:"external_call_id" db:"external_call_id"`
	AgentID        string `json:"agent_id" db:"agent_id"`

	CallerNumber string `json:"caller_number,omitempty" db:"caller_number"`

	// DurationSeconds is whole seconds; 0 means unknown.
	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	Summary      string `json:"summary,omitempty" db:"summary"`
	Transcript   string `json:"transcript,omitempty" db:"transcript"`
	Status       string `json:"status" db:"status"`
	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`

	State State `json:"state" db:"state"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty" db:"finalized_at"`
}

// State is the per-call lifecycle position.
//
//	unseen -> open       (tool invocation arrives first)
//	unseen -> finalized  (end-of-call report arrives first / only)
//	open   -> finalized
//	finalized stays finalized; later events merge into it.
type State string

const (
	StateUnseen    State = "unseen"
	StateOpen      State = "open"
	StateFinalized State = "finalized"
)

// Status values written by this service. Ended reasons reported by the
// voice platform (e.g. "customer-ended-call") are stored verbatim.
const (
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusQueued     = "queued"
)

// Booking is an appointment captured during a call.
//
// Invariant: at most one Booking per CallLogID, regardless of which path
// (tool invocation or analysis fallback) tries to create it.
type Booking struct {
	ID        string `json:"id" db:"id"`
	CallLogID string `json:"call_log_id" db:"call_log_id"`
	AgentID   string `json:"agent_id" db:"agent_id"`

	// Customer details are optional; voice transcription is unreliable.
	CustomerName  string `json:"customer_name,omitempty" db:"customer_name"`
	CustomerEmail string `json:"customer_email,omitempty" db:"customer_email"`
	CustomerPhone string `json:"customer_phone,omitempty" db:"customer_phone"`

	// RequestedAt is nil when the spoken date could not be parsed.
	RequestedAt *time.Time `json:"requested_at" db:"requested_at"`
	// RequestedText keeps the raw value as the caller said it.
	RequestedText string `json:"requested_text,omitempty" db:"requested_text"`

	Service string `json:"service,omitempty" db:"service"`

	Status BookingStatus `json:"status" db:"status"`
	Source BookingSource `json:"source" db:"source"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCanceled  BookingStatus = "canceled"
)

// BookingSource records which path created the booking.
type BookingSource string

const (
	BookingSourceTool     BookingSource = "tool"
	BookingSourceAnalysis BookingSource = "analysis"
)

func (b Booking) validate() error {
	if strings.TrimSpace(b.CallLogID) == "" || strings.TrimSpace(b.AgentID) == "" {
		return ErrInvalidArgument
	}
	switch b.Source {
	case BookingSourceTool, BookingSourceAnalysis:
	default:
		return ErrInvalidArgument
	}
	return nil
}

func (b Booking) withDefaults(now time.Time) Booking {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = BookingStatusPending
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	return b
}
