package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/th3rrry/minees/internal/collector"
)

const maxErrorLen = 512

// SQLiteRecorder journals to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps in-memory databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "sqlite").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS provider_attempts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			provider    TEXT NOT NULL,
			instrument  TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			ok          INTEGER NOT NULL,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_ts ON provider_attempts(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_provider ON provider_attempts(provider, kind)`,

		`CREATE TABLE IF NOT EXISTS cycles (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			grp       TEXT NOT NULL,
			took_ms   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAttempt(ctx context.Context, a collector.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errText sql.NullString
	if a.Err != nil {
		msg := a.Err.Error()
		if len(msg) > maxErrorLen {
			msg = msg[:maxErrorLen]
		}
		errText = sql.NullString{String: msg, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO provider_attempts
		(timestamp, kind, provider, instrument, duration_ms, ok, error)
		VALUES (?,?,?,?,?,?,?)`,
		a.Started.UnixMilli(), string(a.Kind), a.Provider, a.Instrument,
		a.Duration.Milliseconds(), a.OK(), errText,
	)
	return err
}

func (r *SQLiteRecorder) RecordCycle(ctx context.Context, c Cycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO cycles (timestamp, grp, took_ms) VALUES (?,?,?)`,
		c.Started.UnixMilli(), c.Group, c.Took.Milliseconds(),
	)
	return err
}

// ProviderStats aggregates attempts started at or after since, ordered by
// provider then kind.
func (r *SQLiteRecorder) ProviderStats(ctx context.Context, since time.Time) ([]ProviderStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.provider, a.kind, COUNT(*), SUM(CASE WHEN a.ok THEN 0 ELSE 1 END),
		       AVG(a.duration_ms), MAX(a.timestamp),
		       (SELECT e.error FROM provider_attempts e
		         WHERE e.provider = a.provider AND e.kind = a.kind AND e.error IS NOT NULL
		         ORDER BY e.timestamp DESC, e.id DESC LIMIT 1)
		  FROM provider_attempts a
		 WHERE a.timestamp >= ?
		 GROUP BY a.provider, a.kind
		 ORDER BY a.provider, a.kind`, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query provider stats: %w", err)
	}
	defer rows.Close()

	stats := []ProviderStat{}
	for rows.Next() {
		var (
			s       ProviderStat
			lastMS  int64
			lastErr sql.NullString
		)
		if err := rows.Scan(&s.Provider, &s.Kind, &s.Attempts, &s.Failures, &s.AvgMillis, &lastMS, &lastErr); err != nil {
			return nil, fmt.Errorf("scan provider stats: %w", err)
		}
		s.LastAt = time.UnixMilli(lastMS).UTC()
		s.LastError = lastErr.String
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// CycleCount returns how many cycles of group were journalled.
func (r *SQLiteRecorder) CycleCount(ctx context.Context, group string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cycles WHERE grp = ?`, group).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
