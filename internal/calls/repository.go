package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"voice-receptionist/pkg/utils"
)

// NOTE: This repository relies on the following constraints (see schema.sql):
// - call_logs: UNIQUE (external_call_id)
// - bookings:  UNIQUE (call_log_id)
//
// Both inserts use ON CONFLICT DO NOTHING, so two instances racing on the same
// call end up with one row and the loser merges into it.

// PostgresStore implements Store on database/sql (pgx stdlib driver).
type PostgresStore struct {
	db  *sql.DB
	Now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, Now: time.Now}
}

func (s *PostgresStore) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

const callLogColumns = `id, external_call_id, agent_id, caller_number, duration_seconds, summary, transcript, status, recording_url, state, created_at, updated_at, finalized_at`

func (s *PostgresStore) Observe(ctx context.Context, o Observation) (ObserveResult, error) {
	if err := o.validate(); err != nil {
		return ObserveResult{}, err
	}
	now := s.now()

	var out ObserveResult
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		fresh := o.newCallLog(uuid.NewString(), now)
		inserted, err := insertCallLogIfAbsent(ctx, tx, fresh)
		if err != nil {
			return err
		}
		if inserted {
			out = ObserveResult{Call: fresh, Previous: StateUnseen}
			return nil
		}

		existing, err := lockCallLog(ctx, tx, o.ExternalCallID)
		if err != nil {
			return err
		}
		merged := Merge(existing, o, now)
		if merged != existing {
			if err := updateCallLog(ctx, tx, merged); err != nil {
				return err
			}
		}
		out = ObserveResult{Call: merged, Previous: existing.State}
		return nil
	})
	if err != nil {
		return ObserveResult{}, fmt.Errorf("observe call %s: %w", o.ExternalCallID, err)
	}
	return out, nil
}

func insertCallLogIfAbsent(ctx context.Context, tx *sql.Tx, c CallLog) (bool, error) {
	const q = `
INSERT INTO call_logs (id, external_call_id, agent_id, caller_number, duration_seconds, summary, transcript, status, recording_url, state, created_at, updated_at, finalized_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (external_call_id) DO NOTHING
`
	res, err := tx.ExecContext(ctx, q,
		c.ID,
		c.ExternalCallID,
		c.AgentID,
		c.CallerNumber,
		c.DurationSeconds,
		c.Summary,
		c.Transcript,
		c.Status,
		c.RecordingURL,
		string(c.State),
		c.CreatedAt,
		c.UpdatedAt,
		c.FinalizedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func lockCallLog(ctx context.Context, tx *sql.Tx, externalCallID string) (CallLog, error) {
	q := `SELECT ` + callLogColumns + ` FROM call_logs WHERE external_call_id = $1 FOR UPDATE`
	return scanCallLog(tx.QueryRowContext(ctx, q, externalCallID))
}

func updateCallLog(ctx context.Context, tx *sql.Tx, c CallLog) error {
	const q = `
UPDATE call_logs
SET agent_id = $2, caller_number = $3, duration_seconds = $4, summary = $5, transcript = $6,
    status = $7, recording_url = $8, state = $9, updated_at = $10, finalized_at = $11
WHERE id = $1
`
	_, err := tx.ExecContext(ctx, q,
		c.ID,
		c.AgentID,
		c.CallerNumber,
		c.DurationSeconds,
		c.Summary,
		c.Transcript,
		c.Status,
		c.RecordingURL,
		string(c.State),
		c.UpdatedAt,
		c.FinalizedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCallLog(row rowScanner) (CallLog, error) {
	var (
		c         CallLog
		state     string
		finalized sql.NullTime
	)
	if err := row.Scan(
		&c.ID,
		&c.ExternalCallID,
		&c.AgentID,
		&c.CallerNumber,
		&c.DurationSeconds,
		&c.Summary,
		&c.Transcript,
		&c.Status,
		&c.RecordingURL,
		&state,
		&c.CreatedAt,
		&c.UpdatedAt,
		&finalized,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallLog{}, ErrNotFound
		}
		return CallLog{}, err
	}
	c.State = State(state)
	if finalized.Valid {
		t := finalized.Time
		c.FinalizedAt = &t
	}
	return c, nil
}

func (s *PostgresStore) GetByExternalID(ctx context.Context, externalCallID string) (CallLog, error) {
	q := `SELECT ` + callLogColumns + ` FROM call_logs WHERE external_call_id = $1`
	return scanCallLog(s.db.QueryRowContext(ctx, q, externalCallID))
}

func (s *PostgresStore) GetCall(ctx context.Context, agentID, id string) (CallLog, error) {
	q := `SELECT ` + callLogColumns + ` FROM call_logs WHERE agent_id = $1 AND id = $2`
	return scanCallLog(s.db.QueryRowContext(ctx, q, agentID, id))
}

func (s *PostgresStore) ListCalls(ctx context.Context, f ListFilter) ([]CallLog, error) {
	if f.AgentID == "" {
		return nil, ErrInvalidArgument
	}
	q, args := listQuery(`SELECT `+callLogColumns+` FROM call_logs`, f)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallLog, 0)
	for rows.Next() {
		c, err := scanCallLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// listQuery appends the agent/time-range/limit clauses shared by list reads.
func listQuery(base string, f ListFilter) (string, []any) {
	q := base + ` WHERE agent_id = $1`
	args := []any{f.AgentID}
	if !f.From.IsZero() {
		args = append(args, f.From)
		q += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		q += fmt.Sprintf(` AND created_at < $%d`, len(args))
	}
	q += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	return q, args
}

const bookingColumns = `id, call_log_id, agent_id, customer_name, customer_email, customer_phone, requested_at, requested_text, service, status, source, created_at`

func scanBooking(row rowScanner) (Booking, error) {
	var (
		b         Booking
		requested sql.NullTime
		status    string
		source    string
	)
	if err := row.Scan(
		&b.ID,
		&b.CallLogID,
		&b.AgentID,
		&b.CustomerName,
		&b.CustomerEmail,
		&b.CustomerPhone,
		&requested,
		&b.RequestedText,
		&b.Service,
		&status,
		&source,
		&b.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, err
	}
	if requested.Valid {
		t := requested.Time
		b.RequestedAt = &t
	}
	b.Status = BookingStatus(status)
	b.Source = BookingSource(source)
	return b, nil
}

func (s *PostgresStore) BookingForCall(ctx context.Context, callLogID string) (Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE call_log_id = $1`
	return scanBooking(s.db.QueryRowContext(ctx, q, callLogID))
}

func (s *PostgresStore) CreateBookingIfAbsent(ctx context.Context, b Booking) (Booking, bool, error) {
	if err := b.validate(); err != nil {
		return Booking{}, false, err
	}
	b = b.withDefaults(s.now())

	const q = `
INSERT INTO bookings (id, call_log_id, agent_id, customer_name, customer_email, customer_phone, requested_at, requested_text, service, status, source, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (call_log_id) DO NOTHING
`
	res, err := s.db.ExecContext(ctx, q,
		b.ID,
		b.CallLogID,
		b.AgentID,
		b.CustomerName,
		b.CustomerEmail,
		b.CustomerPhone,
		b.RequestedAt,
		b.RequestedText,
		b.Service,
		string(b.Status),
		string(b.Source),
		b.CreatedAt,
	)
	if err != nil {
		return Booking{}, false, fmt.Errorf("insert booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Booking{}, false, err
	}
	if n == 1 {
		return b, true, nil
	}

	existing, err := s.BookingForCall(ctx, b.CallLogID)
	if err != nil {
		return Booking{}, false, err
	}
	return existing, false, nil
}

func (s *PostgresStore) ListBookings(ctx context.Context, f ListFilter) ([]Booking, error) {
	if f.AgentID == "" {
		return nil, ErrInvalidArgument
	}
	q, args := listQuery(`SELECT `+bookingColumns+` FROM bookings`, f)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
