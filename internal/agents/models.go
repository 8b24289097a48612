package agents

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("agents: not found")
	ErrInvalidInput     = errors.New("agents: invalid input")
	ErrPhoneNumberTaken = errors.New("agents: phone number already assigned")
	ErrTenantRequired   = errors.New("agents: tenant_id required")
)

// Agent is a tenant-owned voice receptionist: the number(s) it answers and
// the business facts it may talk about.
type Agent struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	Name     string `json:"name" db:"name"`

	// PhoneNumbers are unique across all tenants (agent_phone_numbers PK).
	PhoneNumbers []string `json:"phone_numbers"`

	Voice          Voice  `json:"voice" db:"voice"`
	WelcomeMessage string `json:"welcome_message,omitempty" db:"welcome_message"`

	BusinessType    string `json:"business_type,omitempty" db:"business_type"`
	BusinessContext string `json:"business_context,omitempty" db:"business_context"`
	Availability    string `json:"availability,omitempty" db:"availability"`

	AdminEmail string `json:"admin_email,omitempty" db:"admin_email"`
	// Timezone is an IANA name; empty means the deployment default.
	Timezone string `json:"timezone,omitempty" db:"timezone"`

	IsActive bool `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Voice string

const (
	VoiceFemale Voice = "female"
	VoiceMale   Voice = "male"
)

// NormalizeVoice maps any casing of male/female onto the constants and
// everything else onto the female default.
func NormalizeVoice(v string) Voice {
	if strings.EqualFold(strings.TrimSpace(v), string(VoiceMale)) {
		return VoiceMale
	}
	return VoiceFemale
}

// Location returns the agent's time zone, or fallback when unset or unknown.
func (a Agent) Location(fallback *time.Location) *time.Location {
	if a.Timezone != "" {
		if loc, err := time.LoadLocation(a.Timezone); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}
