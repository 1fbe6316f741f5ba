// Package storage provides SQLite-based persistence for player profiles and runs.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var (
	// ErrInvalidProfile wraps every registration validation failure.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrNotFound is returned when a profile lookup matches nothing.
	ErrNotFound = errors.New("storage: not found")
)

// Age limits accepted at registration.
const (
	MinAge = 5
	MaxAge = 120
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// ProfileRecord is a registered player.
type ProfileRecord struct {
	ID        int64
	Name      string
	Age       int
	Email     string
	City      string
	BestScore int
	CreatedAt time.Time
}

// RunRecord is one finished run.
type RunRecord struct {
	ID        string // UUID
	ProfileID int64
	Score     int
	Distance  float64
	Duration  float64 // Seconds
	EndReason string
	Pilot     string // Empty for human play
	CreatedAt time.Time
}

// RunStats contains aggregated statistics over every recorded run.
type RunStats struct {
	Runs       int
	BestScore  int
	AvgScore   float64
	TotalScore int64
	LastPlayed time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS profiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			age INTEGER NOT NULL,
			email TEXT NOT NULL UNIQUE COLLATE NOCASE,
			city TEXT NOT NULL,
			best_score INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_profiles_best ON profiles(best_score DESC);

		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			profile_id INTEGER,
			score INTEGER NOT NULL,
			distance REAL NOT NULL DEFAULT 0,
			duration REAL NOT NULL DEFAULT 0,
			end_reason TEXT NOT NULL DEFAULT '',
			pilot TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_profile ON runs(profile_id);
		CREATE INDEX IF NOT EXISTS idx_runs_top ON runs(score DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ValidateProfile checks the registration fields. It does not check
// email uniqueness.
func ValidateProfile(p ProfileRecord) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if p.Age < MinAge || p.Age > MaxAge {
		return fmt.Errorf("%w: age must be between %d and %d", ErrInvalidProfile, MinAge, MaxAge)
	}
	if !validEmail(p.Email) {
		return fmt.Errorf("%w: email %q is not valid", ErrInvalidProfile, p.Email)
	}
	if strings.TrimSpace(p.City) == "" {
		return fmt.Errorf("%w: city is required", ErrInvalidProfile)
	}
	return nil
}

// validEmail accepts a bare address only, not "Name <addr>".
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// RegisterProfile validates and inserts a new profile.
// Emails are unique regardless of case.
func (s *Store) RegisterProfile(p ProfileRecord) (ProfileRecord, error) {
	if err := ValidateProfile(p); err != nil {
		return ProfileRecord{}, err
	}

	if _, err := s.ProfileByEmail(p.Email); err == nil {
		return ProfileRecord{}, fmt.Errorf("%w: email %q is already registered", ErrInvalidProfile, p.Email)
	} else if !errors.Is(err, ErrNotFound) {
		return ProfileRecord{}, err
	}

	result, err := s.db.Exec(
		"INSERT INTO profiles (name, age, email, city) VALUES (?, ?, ?, ?)",
		strings.TrimSpace(p.Name), p.Age, p.Email, strings.TrimSpace(p.City),
	)
	if err != nil {
		return ProfileRecord{}, fmt.Errorf("storage: cannot save profile: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return ProfileRecord{}, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return s.profileByID(id)
}

const profileColumns = "id, name, age, email, city, best_score, created_at"

func scanProfile(row interface{ Scan(...any) error }) (ProfileRecord, error) {
	var p ProfileRecord
	var createdAt any
	if err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Email, &p.City, &p.BestScore, &createdAt); err != nil {
		return ProfileRecord{}, err
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

// ProfileByEmail looks a profile up by email, ignoring case.
func (s *Store) ProfileByEmail(email string) (ProfileRecord, error) {
	row := s.db.QueryRow("SELECT "+profileColumns+" FROM profiles WHERE email = ?", email)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ProfileRecord{}, ErrNotFound
	}
	if err != nil {
		return ProfileRecord{}, fmt.Errorf("storage: cannot query profile: %w", err)
	}
	return p, nil
}

func (s *Store) profileByID(id int64) (ProfileRecord, error) {
	row := s.db.QueryRow("SELECT "+profileColumns+" FROM profiles WHERE id = ?", id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ProfileRecord{}, ErrNotFound
	}
	if err != nil {
		return ProfileRecord{}, fmt.Errorf("storage: cannot query profile: %w", err)
	}
	return p, nil
}

// Profiles returns every profile in registration order.
func (s *Store) Profiles() ([]ProfileRecord, error) {
	return s.queryProfiles("SELECT " + profileColumns + " FROM profiles ORDER BY id")
}

// TopScores returns the profiles with the highest best scores.
func (s *Store) TopScores(limit int) ([]ProfileRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryProfiles(
		"SELECT "+profileColumns+" FROM profiles ORDER BY best_score DESC, id LIMIT ?",
		limit,
	)
}

func (s *Store) queryProfiles(query string, args ...any) ([]ProfileRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query profiles: %w", err)
	}
	defer rows.Close()

	var out []ProfileRecord
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// SaveRun records a finished run and raises the owner's best score.
// A zero ProfileID records an anonymous run. Returns the run ID.
func (s *Store) SaveRun(r RunRecord) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after Commit

	var owner any
	if r.ProfileID != 0 {
		owner = r.ProfileID
	}
	_, err = tx.Exec(
		`INSERT INTO runs (id, profile_id, score, distance, duration, end_reason, pilot)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, owner, r.Score, r.Distance, r.Duration, r.EndReason, r.Pilot,
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot save run: %w", err)
	}

	if r.ProfileID != 0 {
		_, err = tx.Exec(
			"UPDATE profiles SET best_score = MAX(best_score, ?) WHERE id = ?",
			r.Score, r.ProfileID,
		)
		if err != nil {
			return "", fmt.Errorf("storage: cannot update best score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("storage: cannot commit run: %w", err)
	}
	return r.ID, nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, COALESCE(profile_id, 0), score, distance, duration, end_reason, pilot, created_at
		 FROM runs
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var createdAt any
		if err := rows.Scan(&r.ID, &r.ProfileID, &r.Score, &r.Distance, &r.Duration,
			&r.EndReason, &r.Pilot, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// Stats aggregates every recorded run.
func (s *Store) Stats() (*RunStats, error) {
	stats := &RunStats{}
	var lastPlayed any
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(score), 0), COALESCE(AVG(score), 0), COALESCE(SUM(score), 0), MAX(created_at)
		 FROM runs`,
	).Scan(&stats.Runs, &stats.BestScore, &stats.AvgScore, &stats.TotalScore, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get run stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)
	return stats, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
