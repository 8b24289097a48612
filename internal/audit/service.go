package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events. Append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records operator-facing audit information.
// Callers treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.Type == EventTypeAdminAction && e.TenantID == "" {
		return ErrInvalidEvent
	}
	if e.Type == EventTypeWebhookFlag && e.Reason == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogAdminAction records a tenant admin change (agent create/update).
func (s *Service) LogAdminAction(ctx context.Context, tenantID, actorUserID, actorRole, ip, agentID, message string) error {
	return s.Append(ctx, Event{
		TenantID:    tenantID,
		Type:        EventTypeAdminAction,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		AgentID:     agentID,
		Message:     message,
	})
}

// FlagWebhook records a webhook delivery that could not be attributed or
// processed (missing agent id, unknown agent, unresolved number).
func (s *Service) FlagWebhook(ctx context.Context, reason, externalCallID, agentID, detail string) error {
	return s.Append(ctx, Event{
		Type:           EventTypeWebhookFlag,
		Reason:         reason,
		ExternalCallID: externalCallID,
		AgentID:        agentID,
		Message:        detail,
	})
}
