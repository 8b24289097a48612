package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
	// TokenTypeTool is embedded in generated assistant configs and echoed back
	// by the voice platform on tool-call webhooks. It identifies the agent only.
	TokenTypeTool TokenType = "tool"
)

// Claims are the only supported JWT claims shape for this service.
// Multi-tenant invariant: TenantID must be present on user tokens.
// Tool tokens carry AgentID and nothing else.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id,omitempty"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	AgentID   string    `json:"agent_id,omitempty"`
	TokenType TokenType `json:"token_type"`
}
