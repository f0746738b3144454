package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a record misses required fields on create
var ErrValidation = errors.New("validation failed")

// Store keeps the four entity collections in a local SQLite database.
// Nested documents (tags, timeline, sections, answers) are stored as JSON
// text columns; fields used for filtering and sorting get their own
// indexed columns.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Option modifies Store behavior
type Option func(s *Store)

// WithClock sets the time source used for createdAt/updatedAt stamping,
// used by tests to make timestamps reproducible
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Now returns the store's current time, respecting WithClock
func (s *Store) Now() time.Time { return s.now() }

// New opens (or creates) the database at dbPath and initializes the schema
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initialize(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initialize creates tables and secondary indexes
func (s *Store) initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			slug TEXT NOT NULL,
			status TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			sort_index INTEGER NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			requirements TEXT NOT NULL DEFAULT '[]',
			salary TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_department ON jobs(department)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_sort_index ON jobs(sort_index)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at)`,
		`CREATE TABLE IF NOT EXISTS candidates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			stage TEXT NOT NULL,
			job_id TEXT NOT NULL,
			applied_at INTEGER NOT NULL,
			rating INTEGER NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '[]',
			timeline TEXT NOT NULL DEFAULT '[]',
			skills TEXT NOT NULL DEFAULT '[]',
			created_at INTEGER NOT NULL,
			updated_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_stage ON candidates(stage)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_job_id ON candidates(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_applied_at ON candidates(applied_at)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_created_at ON candidates(created_at)`,
		`CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			sections TEXT NOT NULL DEFAULT '[]',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			time_limit INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_job_id ON assessments(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_is_active ON assessments(is_active)`,
		`CREATE TABLE IF NOT EXISTS assessment_responses (
			id TEXT PRIMARY KEY,
			assessment_id TEXT NOT NULL,
			candidate_id TEXT NOT NULL,
			responses TEXT NOT NULL DEFAULT '{}',
			completed_at INTEGER,
			score REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_assessment_id ON assessment_responses(assessment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_candidate_id ON assessment_responses(candidate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_status ON assessment_responses(status)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Clear wipes all collections, used for test isolation and reset
func (s *Store) Clear() error {
	for _, table := range []string{"jobs", "candidates", "assessments", "assessment_responses"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// marshalDoc serializes a nested document for a JSON text column
func marshalDoc(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}
	return string(data), nil
}

// unmarshalDoc deserializes a JSON text column, empty input leaves target untouched
func unmarshalDoc(data string, target any) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), target); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return nil
}

// toUnix converts a time to seconds since epoch, zero time maps to 0
func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// fromUnix converts seconds since epoch to a time, 0 maps to zero time
func fromUnix(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}
