package audit

import "time"

// Event is an immutable, append-only audit record.
//
// Invariants:
// - Events are never updated or deleted.
// - tenant_id is required for admin actions. Webhook flags may not know the
//   tenant (that is often why they were flagged).
type Event struct {
	ID       string    `json:"id" db:"id"`
	TenantID string    `json:"tenant_id,omitempty" db:"tenant_id"`
	Type     EventType `json:"type" db:"type"`

	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`
	IPAddress   string `json:"ip_address,omitempty" db:"ip_address"`

	AgentID        string `json:"agent_id,omitempty" db:"agent_id"`
	ExternalCallID string `json:"external_call_id,omitempty" db:"external_call_id"`

	// Reason is a short machine-readable code, e.g. "missing_agent_id".
	Reason  string `json:"reason,omitempty" db:"reason"`
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeAdminAction EventType = "admin_action"
	EventTypeWebhookFlag EventType = "webhook_flag"
)
