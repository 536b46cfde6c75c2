// Package session persists finished research sessions for audit and review.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ChamsBouzaiene/scout/internal/research"
)

// Record is one persisted session.
type Record struct {
	ID            string
	Query         string
	Context       string
	PlanJSON      string // serialized adaptive plan, including adaptation history
	Knowledge     string
	Summary       string
	Success       bool
	FailureReason string
	CreatedAt     time.Time
}

// Store writes session records to a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the audit database at dbPath.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	// SQLite tolerates a single writer; keep the pool at one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping session store: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id     TEXT PRIMARY KEY,
		query          TEXT NOT NULL,
		context        TEXT,
		plan_json      TEXT NOT NULL,
		knowledge      TEXT,
		summary        TEXT,
		success        INTEGER NOT NULL,
		failure_reason TEXT,
		created_at     INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Save persists a finished session report.
func (s *Store) Save(ctx context.Context, report *research.Report) error {
	planJSON, err := json.Marshal(report.Plan)
	if err != nil {
		return fmt.Errorf("failed to serialize plan: %w", err)
	}

	query := `
	INSERT INTO sessions (session_id, query, context, plan_json, knowledge, summary, success, failure_reason, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		report.ID,
		report.Query,
		report.Context,
		string(planJSON),
		report.AccumulatedKnowledge,
		report.Summary,
		boolToInt(report.Success),
		report.FailureReason,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", report.ID, err)
	}
	return nil
}

// Get loads one session by ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	query := `
	SELECT session_id, query, context, plan_json, knowledge, summary, success, failure_reason, created_at
	FROM sessions WHERE session_id = ?
	`
	var rec Record
	var success int
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Query, &rec.Context, &rec.PlanJSON,
		&rec.Knowledge, &rec.Summary, &success, &rec.FailureReason, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	rec.Success = success != 0
	rec.CreatedAt = time.Unix(createdAt, 0)
	return &rec, nil
}

// Recent lists the most recent sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := `
	SELECT session_id, query, context, plan_json, knowledge, summary, success, failure_reason, created_at
	FROM sessions ORDER BY created_at DESC LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var success int
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.Context, &rec.PlanJSON,
			&rec.Knowledge, &rec.Summary, &success, &rec.FailureReason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		rec.Success = success != 0
		rec.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
