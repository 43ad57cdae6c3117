// Package store keeps completed analysis sessions in SQLite so results can be
// fetched and visualized after the analysis request returns.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
)

// ErrNotFound is returned when no session has the requested id.
var ErrNotFound = errors.New("session not found")

// timeLayout sorts lexicographically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	gender      TEXT NOT NULL,
	duration_s  REAL NOT NULL,
	overall     REAL,
	hiring      REAL,
	analyzed_at TEXT NOT NULL,
	session     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_analyzed_at ON analyses (analyzed_at);
`

// Record is the listing form of a stored session.
type Record struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Gender     prosody.Gender `json:"gender"`
	Duration   float64        `json:"duration"`
	Overall    float64        `json:"overall"`
	Hiring     float64        `json:"recommendedHiring"`
	AnalyzedAt time.Time      `json:"analyzedAt"`
}

// Store is a SQLite-backed session repository.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// a single connection keeps ":memory:" coherent and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces a session.
func (s *Store) Save(ctx context.Context, session *prosody.Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session with an id is required")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analyses
			(id, source, gender, duration_s, overall, hiring, analyzed_at, session)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		session.ID,
		session.Source,
		string(session.Gender),
		session.Duration,
		nullable(session.Scores, prosody.ScoreOverall),
		nullable(session.Scores, prosody.ScoreRecommendedHiring),
		session.AnalyzedAt.UTC().Format(timeLayout),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

// Get loads a session by id.
func (s *Store) Get(ctx context.Context, id string) (*prosody.Session, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT session FROM analyses WHERE id = ?", id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	var session prosody.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &session, nil
}

// List returns the most recent sessions first, at most limit of them.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, gender, duration_s, IFNULL(overall, 0), IFNULL(hiring, 0), analyzed_at
		FROM analyses
		ORDER BY analyzed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var gender, analyzedAt string
		if err := rows.Scan(&rec.ID, &rec.Source, &gender, &rec.Duration, &rec.Overall, &rec.Hiring, &analyzedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		rec.Gender = prosody.Gender(gender)
		if rec.AnalyzedAt, err = time.Parse(timeLayout, analyzedAt); err != nil {
			return nil, fmt.Errorf("invalid timestamp on session %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return records, nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(scores prosody.ScoreResult, name string) sql.NullFloat64 {
	v, ok := scores[name]
	return sql.NullFloat64{Float64: v, Valid: ok}
}
