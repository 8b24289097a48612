package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends to audit_events. There is deliberately no update or
// delete statement here.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, tenant_id, type, actor_user_id, actor_role, ip_address, agent_id, external_call_id, reason, message, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.TenantID,
		string(e.Type),
		e.ActorUserID,
		e.ActorRole,
		e.IPAddress,
		e.AgentID,
		e.ExternalCallID,
		e.Reason,
		e.Message,
		e.CreatedAt,
	)
	return err
}
