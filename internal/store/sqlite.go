package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id    TEXT    NOT NULL,
	model_id      TEXT    NOT NULL,
	adapter       TEXT    NOT NULL,
	streaming     INTEGER NOT NULL,
	latency_ms    INTEGER NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	error         TEXT    NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS usage_created_at ON usage (created_at);
`

// SQLiteStore persists the ledger in a SQLite file.
type SQLiteStore struct {
	db        *sql.DB
	retention time.Duration
	now       func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:"
// for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string, retention time.Duration) (*SQLiteStore, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create usage schema: %w", err)
	}

	log.Debug().Str("path", path).Dur("retention", retention).Msg("usage ledger opened")
	return &SQLiteStore{db: db, retention: retention, now: time.Now}, nil
}

// Record inserts rec and drops records older than the retention window.
func (s *SQLiteStore) Record(ctx context.Context, rec UsageRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage (request_id, model_id, adapter, streaming, latency_ms, input_tokens, output_tokens, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.ModelID, rec.Adapter, rec.Streaming, rec.Latency.Milliseconds(),
		rec.InputTokens, rec.OutputTokens, rec.Error, rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM usage WHERE created_at <= ?`, s.cutoff()); err != nil {
		return fmt.Errorf("prune usage records: %w", err)
	}
	return nil
}

// Recent returns up to limit unexpired records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]UsageRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, model_id, adapter, streaming, latency_ms, input_tokens, output_tokens, error, created_at
		 FROM usage WHERE created_at > ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		s.cutoff(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query usage records: %w", err)
	}
	defer rows.Close()

	var out []UsageRecord
	for rows.Next() {
		var (
			rec       UsageRecord
			latencyMS int64
			created   int64
		)
		if err := rows.Scan(&rec.RequestID, &rec.ModelID, &rec.Adapter, &rec.Streaming, &latencyMS,
			&rec.InputTokens, &rec.OutputTokens, &rec.Error, &created); err != nil {
			return nil, fmt.Errorf("scan usage record: %w", err)
		}
		rec.Latency = time.Duration(latencyMS) * time.Millisecond
		rec.CreatedAt = time.Unix(0, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summaries aggregates unexpired records per model.
func (s *SQLiteStore) Summaries(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model_id, COUNT(*), SUM(CASE WHEN error != '' THEN 1 ELSE 0 END),
		        SUM(input_tokens), SUM(output_tokens)
		 FROM usage WHERE created_at > ? GROUP BY model_id ORDER BY model_id`,
		s.cutoff(),
	)
	if err != nil {
		return nil, fmt.Errorf("query usage summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ModelID, &sum.Invocations, &sum.Failures, &sum.InputTokens, &sum.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) cutoff() int64 {
	return s.now().Add(-s.retention).UnixNano()
}

var _ Store = (*SQLiteStore)(nil)
