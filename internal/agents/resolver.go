package agents

import (
	"context"
	"errors"
	"strings"
)

// PhoneLookup finds the active agent owning exactly number.
type PhoneLookup interface {
	FindActiveByPhone(ctx context.Context, number string) (Agent, error)
}

// Resolver maps a dialed number onto an Agent. Telephony and voice platforms
// do not E.164-normalize identically, so a number is tried as given, without
// a leading "+", and with one.
type Resolver struct {
	repo PhoneLookup
}

func NewResolver(repo PhoneLookup) *Resolver { return &Resolver{repo: repo} }

// Resolve returns the first agent matching a candidate form of raw, or
// ErrNotFound. Empty input is ErrInvalidInput.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Agent, error) {
	cands := Candidates(raw)
	if len(cands) == 0 {
		return Agent{}, ErrInvalidInput
	}
	for _, n := range cands {
		a, err := r.repo.FindActiveByPhone(ctx, n)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Agent{}, err
		}
	}
	return Agent{}, ErrNotFound
}

// Candidates lists the forms tried for raw, in order, without duplicates.
func Candidates(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	stripped := strings.TrimPrefix(s, "+")
	if stripped == "" {
		return nil
	}

	out := make([]string, 0, 3)
	seen := map[string]bool{}
	for _, c := range []string{s, stripped, "+" + stripped} {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
