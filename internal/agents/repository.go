package agents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"voice-receptionist/pkg/utils"
)

// Repository is the persistence contract for agents.
type Repository interface {
	PhoneLookup
	Get(ctx context.Context, id string) (Agent, error)
	GetForTenant(ctx context.Context, tenantID, id string) (Agent, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Agent, error)
	Create(ctx context.Context, a Agent) error
	Update(ctx context.Context, a Agent) error
}

// PostgresRepo stores agents in `agents` and their numbers in
// `agent_phone_numbers` (phone_number is the primary key).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

var (
	_ Repository = (*PostgresRepo)(nil)
	_ Repository = (*MemoryRepo)(nil)
)

const agentColumns = `a.id, a.tenant_id, a.name, a.voice, a.welcome_message, a.business_type, a.business_context, a.availability, a.admin_email, a.timezone, a.is_active, a.created_at, a.updated_at`

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanAgent(row interface{ Scan(...any) error }) (Agent, error) {
	var (
		a     Agent
		voice string
	)
	if err := row.Scan(
		&a.ID,
		&a.TenantID,
		&a.Name,
		&voice,
		&a.WelcomeMessage,
		&a.BusinessType,
		&a.BusinessContext,
		&a.Availability,
		&a.AdminEmail,
		&a.Timezone,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, err
	}
	a.Voice = NormalizeVoice(voice)
	return a, nil
}

func loadPhoneNumbers(ctx context.Context, q queryer, agentID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT phone_number FROM agent_phone_numbers WHERE agent_id = $1 ORDER BY phone_number`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, 1)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) getOne(ctx context.Context, q string, args ...any) (Agent, error) {
	a, err := scanAgent(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return Agent{}, err
	}
	if a.PhoneNumbers, err = loadPhoneNumbers(ctx, r.db, a.ID); err != nil {
		return Agent{}, err
	}
	return a, nil
}

func (r *PostgresRepo) FindActiveByPhone(ctx context.Context, number string) (Agent, error) {
	const q = `
SELECT ` + agentColumns + `
FROM agent_phone_numbers n
JOIN agents a ON a.id = n.agent_id
WHERE n.phone_number = $1 AND a.is_active
`
	return r.getOne(ctx, q, number)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Agent, error) {
	return r.getOne(ctx, `SELECT `+agentColumns+` FROM agents a WHERE a.id = $1`, id)
}

func (r *PostgresRepo) GetForTenant(ctx context.Context, tenantID, id string) (Agent, error) {
	return r.getOne(ctx, `SELECT `+agentColumns+` FROM agents a WHERE a.tenant_id = $1 AND a.id = $2`, tenantID, id)
}

func (r *PostgresRepo) ListByTenant(ctx context.Context, tenantID string) ([]Agent, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+agentColumns+` FROM agents a WHERE a.tenant_id = $1 ORDER BY a.created_at`, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].PhoneNumbers, err = loadPhoneNumbers(ctx, r.db, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PostgresRepo) Create(ctx context.Context, a Agent) error {
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
INSERT INTO agents (id, tenant_id, name, voice, welcome_message, business_type, business_context, availability, admin_email, timezone, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`
		if _, err := tx.ExecContext(ctx, q,
			a.ID,
			a.TenantID,
			a.Name,
			string(a.Voice),
			a.WelcomeMessage,
			a.BusinessType,
			a.BusinessContext,
			a.Availability,
			a.AdminEmail,
			a.Timezone,
			a.IsActive,
			a.CreatedAt,
			a.UpdatedAt,
		); err != nil {
			return err
		}
		return insertPhoneNumbers(ctx, tx, a.ID, a.PhoneNumbers)
	})
	return mapWriteErr(err)
}

func (r *PostgresRepo) Update(ctx context.Context, a Agent) error {
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
UPDATE agents
SET name = $3, voice = $4, welcome_message = $5, business_type = $6, business_context = $7,
    availability = $8, admin_email = $9, timezone = $10, is_active = $11, updated_at = $12
WHERE tenant_id = $1 AND id = $2
`
		res, err := tx.ExecContext(ctx, q,
			a.TenantID,
			a.ID,
			a.Name,
			string(a.Voice),
			a.WelcomeMessage,
			a.BusinessType,
			a.BusinessContext,
			a.Availability,
			a.AdminEmail,
			a.Timezone,
			a.IsActive,
			a.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM agent_phone_numbers WHERE agent_id = $1`, a.ID); err != nil {
			return err
		}
		return insertPhoneNumbers(ctx, tx, a.ID, a.PhoneNumbers)
	})
	return mapWriteErr(err)
}

func insertPhoneNumbers(ctx context.Context, tx *sql.Tx, agentID string, phones []string) error {
	for _, p := range phones {
		if _, err := tx.ExecContext(ctx, `INSERT INTO agent_phone_numbers (phone_number, agent_id) VALUES ($1, $2)`, p, agentID); err != nil {
			return err
		}
	}
	return nil
}

func mapWriteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case utils.IsUniqueViolation(err, "agent_phone_numbers_pkey"):
		return ErrPhoneNumberTaken
	case errors.Is(err, ErrNotFound):
		return err
	default:
		return fmt.Errorf("agents: write: %w", err)
	}
}
