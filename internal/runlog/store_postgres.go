package runlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists run summaries for retention beyond process restarts.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("pgx pool is required")
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the run_summaries table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS run_summaries (
			run_id         UUID PRIMARY KEY,
			operation      TEXT NOT NULL,
			store_ref      TEXT NOT NULL DEFAULT '',
			window_days    INT NOT NULL DEFAULT 0,
			orders_scanned INT NOT NULL DEFAULT 0,
			detected       INT NOT NULL DEFAULT 0,
			suspicious     INT NOT NULL DEFAULT 0,
			duplicates     INT NOT NULL DEFAULT 0,
			errors         INT NOT NULL DEFAULT 0,
			cache_hit      BOOLEAN NOT NULL DEFAULT FALSE,
			degraded       BOOLEAN NOT NULL DEFAULT FALSE,
			started_at     TIMESTAMPTZ NOT NULL,
			duration_ms    BIGINT NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS run_summaries_started_at_idx
			ON run_summaries (started_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("ensure run_summaries schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, summary Summary) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO run_summaries (
			run_id, operation, store_ref, window_days, orders_scanned,
			detected, suspicious, duplicates, errors, cache_hit, degraded,
			started_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		summary.RunID,
		summary.Operation,
		summary.StoreRef,
		summary.WindowDays,
		summary.OrdersScanned,
		summary.Detected,
		summary.Suspicious,
		summary.Duplicates,
		summary.Errors,
		summary.CacheHit,
		summary.Degraded,
		summary.StartedAt,
		summary.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("append run summary: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, operation, store_ref, window_days, orders_scanned,
		       detected, suspicious, duplicates, errors, cache_hit, degraded,
		       started_at, duration_ms
		FROM run_summaries
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query run summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var summary Summary
		var durationMs int64
		if err := rows.Scan(
			&summary.RunID,
			&summary.Operation,
			&summary.StoreRef,
			&summary.WindowDays,
			&summary.OrdersScanned,
			&summary.Detected,
			&summary.Suspicious,
			&summary.Duplicates,
			&summary.Errors,
			&summary.CacheHit,
			&summary.Degraded,
			&summary.StartedAt,
			&durationMs,
		); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		summary.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run summaries: %w", err)
	}
	return out, nil
}
