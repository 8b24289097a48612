// Package schema holds the Postgres DDL applied at startup.
package schema

import (
	"context"
	"database/sql"
	_ "embed"

	"voice-receptionist/pkg/utils"
)

//go:embed schema.sql
var DDL string

// Apply creates missing tables and indexes. Safe to run on every boot.
func Apply(ctx context.Context, db *sql.DB) error {
	return utils.ApplySchema(ctx, db, DDL)
}
