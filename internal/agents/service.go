package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreateInput is the tenant-facing payload for a new agent.
type CreateInput struct {
	Name            string   `json:"name" validate:"required,max=120"`
	PhoneNumbers    []string `json:"phone_numbers" validate:"required,min=1,dive,required,max=20"`
	Voice           string   `json:"voice" validate:"omitempty,oneof=male female"`
	WelcomeMessage  string   `json:"welcome_message" validate:"max=500"`
	BusinessType    string   `json:"business_type" validate:"max=120"`
	BusinessContext string   `json:"business_context" validate:"max=20000"`
	Availability    string   `json:"availability" validate:"max=2000"`
	AdminEmail      string   `json:"admin_email" validate:"omitempty,email"`
	Timezone        string   `json:"timezone" validate:"omitempty,max=64"`
}

// UpdateInput changes only the fields that are set.
type UpdateInput struct {
	Name            *string  `json:"name" validate:"omitempty,min=1,max=120"`
	PhoneNumbers    []string `json:"phone_numbers" validate:"omitempty,min=1,dive,required,max=20"`
	Voice           *string  `json:"voice" validate:"omitempty,oneof=male female"`
	WelcomeMessage  *string  `json:"welcome_message" validate:"omitempty,max=500"`
	BusinessType    *string  `json:"business_type" validate:"omitempty,max=120"`
	BusinessContext *string  `json:"business_context" validate:"omitempty,max=20000"`
	Availability    *string  `json:"availability" validate:"omitempty,max=2000"`
	AdminEmail      *string  `json:"admin_email" validate:"omitempty,email"`
	Timezone        *string  `json:"timezone" validate:"omitempty,max=64"`
	IsActive        *bool    `json:"is_active"`
}

// Service implements tenant CRUD over agents.
type Service struct {
	repo     Repository
	validate *validator.Validate
	clock    func() time.Time
}

func NewService(repo Repository, validate *validator.Validate) *Service {
	if validate == nil {
		validate = validator.New()
	}
	return &Service{repo: repo, validate: validate, clock: time.Now}
}

func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput) (Agent, error) {
	if tenantID == "" {
		return Agent{}, ErrTenantRequired
	}
	in.Voice = strings.ToLower(strings.TrimSpace(in.Voice))
	in.PhoneNumbers = cleanPhones(in.PhoneNumbers)
	if err := s.validate.Struct(in); err != nil {
		return Agent{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := checkTimezone(in.Timezone); err != nil {
		return Agent{}, err
	}

	now := s.clock().UTC()
	a := Agent{
		ID:              uuid.NewString(),
		TenantID:        tenantID,
		Name:            strings.TrimSpace(in.Name),
		PhoneNumbers:    in.PhoneNumbers,
		Voice:           NormalizeVoice(in.Voice),
		WelcomeMessage:  in.WelcomeMessage,
		BusinessType:    in.BusinessType,
		BusinessContext: in.BusinessContext,
		Availability:    in.Availability,
		AdminEmail:      strings.TrimSpace(in.AdminEmail),
		Timezone:        in.Timezone,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return Agent{}, err
	}
	return a, nil
}

func (s *Service) Update(ctx context.Context, tenantID, id string, in UpdateInput) (Agent, error) {
	if tenantID == "" {
		return Agent{}, ErrTenantRequired
	}
	if in.Voice != nil {
		v := strings.ToLower(strings.TrimSpace(*in.Voice))
		in.Voice = &v
	}
	if in.PhoneNumbers != nil {
		in.PhoneNumbers = cleanPhones(in.PhoneNumbers)
	}
	if err := s.validate.Struct(in); err != nil {
		return Agent{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	a, err := s.repo.GetForTenant(ctx, tenantID, id)
	if err != nil {
		return Agent{}, err
	}

	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.PhoneNumbers != nil {
		a.PhoneNumbers = in.PhoneNumbers
	}
	if in.Voice != nil {
		a.Voice = NormalizeVoice(*in.Voice)
	}
	if in.WelcomeMessage != nil {
		a.WelcomeMessage = *in.WelcomeMessage
	}
	if in.BusinessType != nil {
		a.BusinessType = *in.BusinessType
	}
	if in.BusinessContext != nil {
		a.BusinessContext = *in.BusinessContext
	}
	if in.Availability != nil {
		a.Availability = *in.Availability
	}
	if in.AdminEmail != nil {
		a.AdminEmail = strings.TrimSpace(*in.AdminEmail)
	}
	if in.Timezone != nil {
		if err := checkTimezone(*in.Timezone); err != nil {
			return Agent{}, err
		}
		a.Timezone = *in.Timezone
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	a.UpdatedAt = s.clock().UTC()

	if err := s.repo.Update(ctx, a); err != nil {
		return Agent{}, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Agent, error) {
	if tenantID == "" {
		return Agent{}, ErrTenantRequired
	}
	return s.repo.GetForTenant(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Agent, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

func cleanPhones(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func checkTimezone(tz string) error {
	if tz == "" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, tz)
	}
	return nil
}
