package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

// Store answers structured coverage queries over the whitelisted tables.
// It applies the per-query timeout itself and classifies faults into
// domain.ErrQueryTimeout / domain.ErrQueryFailure. Retries are the caller's
// call, never made here.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

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

func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS fee_schedule (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL,
	description TEXT NOT NULL,
	specialty TEXT NOT NULL DEFAULT '',
	fee DOUBLE PRECISION NOT NULL,
	documentation TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_fee_schedule_code ON fee_schedule(code);

CREATE TABLE IF NOT EXISTS adp_funding_rules (
	id TEXT PRIMARY KEY,
	device_type TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	funding_percent DOUBLE PRECISION NOT NULL,
	client_share_percent DOUBLE PRECISION NOT NULL,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS odb_formulary (
	id TEXT PRIMARY KEY,
	din TEXT NOT NULL,
	name TEXT NOT NULL,
	generic_name TEXT NOT NULL DEFAULT '',
	interchangeable_group TEXT NOT NULL DEFAULT '',
	price DOUBLE PRECISION NOT NULL,
	limited_use BOOLEAN NOT NULL DEFAULT FALSE,
	lu_criteria TEXT NOT NULL DEFAULT '',
	covered BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_odb_formulary_group ON odb_formulary(interchangeable_group);

CREATE TABLE IF NOT EXISTS reference_documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	corpus TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
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

func (s *Store) Query(ctx context.Context, q domain.StructuredQuery) ([]domain.StructuredHit, error) {
	timeout := q.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultStructuredTimeout
	}
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sqlText, args, columns, err := buildQuery(q)
	if err != nil {
		return nil, domain.WrapError(domain.ErrQueryFailure, "build structured query", err)
	}

	rows, err := s.db.QueryContext(queryCtx, sqlText, args...)
	if err != nil {
		return nil, classifyQueryError("structured query", queryCtx, err)
	}
	defer rows.Close()

	hits := make([]domain.StructuredHit, 0)
	for rows.Next() {
		hit, err := scanHit(rows, q.Table, columns)
		if err != nil {
			return nil, domain.WrapError(domain.ErrQueryFailure, "scan structured row", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyQueryError("iterate structured rows", queryCtx, err)
	}
	return hits, nil
}

func classifyQueryError(operation string, ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrQueryTimeout, operation, err)
	}
	return domain.WrapError(domain.ErrQueryFailure, operation, err)
}
