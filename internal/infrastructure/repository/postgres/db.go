package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS claims (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	policy_id TEXT NOT NULL,
	claim_amount BIGINT NOT NULL DEFAULT 0,
	claim_type TEXT NOT NULL,
	date_of_intimation TIMESTAMPTZ NOT NULL,
	date_of_admission TIMESTAMPTZ NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	hospital_name TEXT NOT NULL DEFAULT '',
	hospital_city TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claims_user_id ON claims(user_id);

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	claim_id TEXT NOT NULL REFERENCES claims(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL UNIQUE,
	original_name TEXT NOT NULL,
	doc_type TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_claim_id ON documents(claim_id);

CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	claim_id TEXT NOT NULL UNIQUE REFERENCES claims(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	combined_summary TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	approved TEXT NOT NULL DEFAULT 'STALL',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS alternate_treatments (
	id TEXT PRIMARY KEY,
	report_id TEXT NOT NULL UNIQUE REFERENCES reports(id) ON DELETE CASCADE,
	text TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS doc_wise_reports (
	id TEXT PRIMARY KEY,
	report_id TEXT NOT NULL UNIQUE REFERENCES reports(id) ON DELETE CASCADE,
	text TEXT NOT NULL DEFAULT ''
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
