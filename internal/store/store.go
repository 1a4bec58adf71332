package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ensure Store implements the interface
var _ schemas.CaptureRecorder = (*Store)(nil)

// Store keeps the capture history in PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

const (
	sqlCreateCaptures = `
        CREATE TABLE IF NOT EXISTS captures (
            invocation_id   TEXT PRIMARY KEY,
            target_url      TEXT NOT NULL,
            ok              BOOLEAN NOT NULL,
            artifact        TEXT NOT NULL DEFAULT '',
            diagnostic_key  TEXT NOT NULL DEFAULT '',
            error_kind      TEXT NOT NULL DEFAULT '',
            error_message   TEXT NOT NULL DEFAULT '',
            started_at      TIMESTAMPTZ NOT NULL,
            elapsed_seconds DOUBLE PRECISION NOT NULL
        );
    `
	sqlCreateStartedAtIndex = `
        CREATE INDEX IF NOT EXISTS captures_started_at_idx ON captures (started_at DESC);
    `
	sqlInsertCapture = `
        INSERT INTO captures (invocation_id, target_url, ok, artifact, diagnostic_key, error_kind, error_message, started_at, elapsed_seconds)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (invocation_id) DO NOTHING;
    `
	sqlRecentCaptures = `
        SELECT invocation_id, target_url, ok, artifact, diagnostic_key, error_kind, error_message, started_at, elapsed_seconds
        FROM captures
        ORDER BY started_at DESC
        LIMIT $1;
    `
)

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the history table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{sqlCreateCaptures, sqlCreateStartedAtIndex} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply captures schema: %w", err)
		}
	}
	return nil
}

// RecordCapture inserts one history row. Re-recording an invocation is a no-op.
func (s *Store) RecordCapture(ctx context.Context, rec schemas.CaptureRecord) error {
	tag, err := s.pool.Exec(ctx, sqlInsertCapture,
		rec.InvocationID,
		rec.TargetURL,
		rec.OK,
		rec.Artifact,
		rec.DiagnosticKey,
		rec.ErrorKind,
		rec.ErrorMessage,
		rec.StartedAt.UTC(),
		rec.ElapsedSeconds,
	)
	if err != nil {
		return fmt.Errorf("failed to insert capture %s: %w", rec.InvocationID, err)
	}
	if tag.RowsAffected() == 0 {
		s.log.Debug("Capture already recorded.", zap.String("invocation_id", rec.InvocationID))
	}
	return nil
}

// RecentCaptures returns up to limit records, newest first.
func (s *Store) RecentCaptures(ctx context.Context, limit int) ([]schemas.CaptureRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := s.pool.Query(ctx, sqlRecentCaptures, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer rows.Close()

	var records []schemas.CaptureRecord
	for rows.Next() {
		var rec schemas.CaptureRecord
		if err := rows.Scan(
			&rec.InvocationID,
			&rec.TargetURL,
			&rec.OK,
			&rec.Artifact,
			&rec.DiagnosticKey,
			&rec.ErrorKind,
			&rec.ErrorMessage,
			&rec.StartedAt,
			&rec.ElapsedSeconds,
		); err != nil {
			return nil, fmt.Errorf("failed to scan capture row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating capture rows: %w", err)
	}
	return records, nil
}
