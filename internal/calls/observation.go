package calls

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("calls: not found")
	ErrInvalidArgument = errors.New("calls: invalid argument")
)

// Observation is one piece of information about a call, as reported by a
// single webhook delivery. Both entry points (tool invocation, final report)
// funnel through Store.Observe with an Observation.
//
// Empty fields mean "not reported" and never overwrite stored values.
type Observation struct {
	ExternalCallID string
	AgentID        string
	CallerNumber   string

	DurationSeconds int
	Summary         string
	Transcript      string
	Status          string
	RecordingURL    string

	// Final marks the end-of-call report.
	Final bool
}

// ObserveResult is the call after the observation was applied, plus the state
// the call was in before.
type ObserveResult struct {
	Call     CallLog
	Previous State
}

// Created reports whether this observation inserted the row.
func (r ObserveResult) Created() bool { return r.Previous == StateUnseen }

func (o Observation) validate() error {
	if strings.TrimSpace(o.ExternalCallID) == "" || strings.TrimSpace(o.AgentID) == "" {
		return ErrInvalidArgument
	}
	if o.DurationSeconds < 0 {
		return ErrInvalidArgument
	}
	return nil
}

// newCallLog builds the row inserted when the call is unseen.
func (o Observation) newCallLog(id string, now time.Time) CallLog {
	c := CallLog{
		ID:              id,
		ExternalCallID:  o.ExternalCallID,
		AgentID:         o.AgentID,
		CallerNumber:    o.CallerNumber,
		DurationSeconds: o.DurationSeconds,
		Summary:         o.Summary,
		Transcript:      o.Transcript,
		Status:          o.Status,
		RecordingURL:    o.RecordingURL,
		State:           StateOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if o.Final {
		c.State = StateFinalized
		at := now
		c.FinalizedAt = &at
		if c.Status == "" {
			c.Status = StatusCompleted
		}
	} else if c.Status == "" {
		c.Status = StatusInProgress
	}
	return c
}

// Merge applies o onto an existing call. Newly reported values win; anything
// the observation leaves empty falls back to what is stored. Applying the same
// observation twice yields the same call (apart from UpdatedAt).
func Merge(existing CallLog, o Observation, now time.Time) CallLog {
	out := existing

	if out.AgentID == "" {
		out.AgentID = o.AgentID
	}
	out.CallerNumber = preferString(o.CallerNumber, existing.CallerNumber)
	if o.DurationSeconds > 0 {
		out.DurationSeconds = o.DurationSeconds
	}
	out.Summary = preferString(o.Summary, existing.Summary)
	out.Transcript = preferString(o.Transcript, existing.Transcript)
	out.RecordingURL = preferString(o.RecordingURL, existing.RecordingURL)

	// A late tool invocation must not reopen a finalized call.
	if o.Final || existing.State != StateFinalized {
		out.Status = preferString(o.Status, existing.Status)
	}

	if o.Final && existing.State != StateFinalized {
		out.State = StateFinalized
		at := now
		out.FinalizedAt = &at
	}
	if out.State == StateFinalized && (out.Status == "" || out.Status == StatusInProgress) {
		out.Status = StatusCompleted
	}

	if !sameContent(existing, out) {
		out.UpdatedAt = now
	}
	return out
}

func preferString(next, prev string) string {
	if strings.TrimSpace(next) != "" {
		return next
	}
	return prev
}

func sameContent(a, b CallLog) bool {
	return a.AgentID == b.AgentID &&
		a.CallerNumber == b.CallerNumber &&
		a.DurationSeconds == b.DurationSeconds &&
		a.Summary == b.Summary &&
		a.Transcript == b.Transcript &&
		a.Status == b.Status &&
		a.RecordingURL == b.RecordingURL &&
		a.State == b.State
}
