// Package storage provides SQLite-backed persistence for scored matches and
// the alert ledger.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rmaia-dev/evradar/internal/models"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db         *sql.DB
	maxMatches int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/evradar/data.db.
func New(maxMatches int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "evradar", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db, maxMatches: maxMatches}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			id          TEXT PRIMARY KEY,
			league      TEXT NOT NULL,
			home        TEXT NOT NULL,
			away        TEXT NOT NULL,
			score       TEXT,
			minute      INTEGER NOT NULL,
			url         TEXT,
			xg_total    REAL NOT NULL,
			sot         INTEGER NOT NULL,
			pressure    REAL NOT NULL,
			odds_over25 REAL NOT NULL,
			liquidity   REAL NOT NULL,
			ev_score    INTEGER NOT NULL,
			decision    TEXT NOT NULL,
			scored_at   INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			identity   TEXT PRIMARY KEY,
			league     TEXT,
			home       TEXT,
			away       TEXT,
			ev_score   INTEGER NOT NULL,
			odds       REAL NOT NULL,
			alerted_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_scored_at ON matches(scored_at)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_score ON matches(ev_score DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveScored upserts the cycle's scored matches in one transaction. Each
// identity keeps only its latest snapshot; older rows beyond maxMatches are
// rotated out by scored_at.
func (s *Storage) SaveScored(scored []models.ScoredMatch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range scored {
		sm := &scored[i]
		if err := sm.Validate(); err != nil {
			return fmt.Errorf("invalid match %s: %w", sm.ID, err)
		}
		_, err = tx.Exec(`
			INSERT OR REPLACE INTO matches
				(id, league, home, away, score, minute, url,
				 xg_total, sot, pressure, odds_over25, liquidity,
				 ev_score, decision, scored_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			sm.ID, sm.League, sm.Home, sm.Away, sm.Score, sm.Minute, sm.URL,
			sm.XGTotal, sm.SOT, sm.Pressure, sm.OddsOver25, sm.Liquidity,
			sm.EVScore, sm.Decision.String(), sm.ScoredAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert match %s: %w", sm.ID, err)
		}
	}

	if _, err = tx.Exec(`
		DELETE FROM matches WHERE id NOT IN (
			SELECT id FROM matches ORDER BY scored_at DESC LIMIT ?
		)`, s.maxMatches); err != nil {
		return fmt.Errorf("failed to enforce match cap: %w", err)
	}

	return tx.Commit()
}

// GetScored returns the stored snapshot for an identity.
func (s *Storage) GetScored(id string) (*models.ScoredMatch, error) {
	row := s.db.QueryRow(`
		SELECT id, league, home, away, score, minute, url,
		       xg_total, sot, pressure, odds_over25, liquidity,
		       ev_score, decision, scored_at
		FROM matches WHERE id = ?`, id)

	var sm models.ScoredMatch
	var decision string
	var scoredAtNano int64
	err := row.Scan(
		&sm.ID, &sm.League, &sm.Home, &sm.Away, &sm.Score, &sm.Minute, &sm.URL,
		&sm.XGTotal, &sm.SOT, &sm.Pressure, &sm.OddsOver25, &sm.Liquidity,
		&sm.EVScore, &decision, &scoredAtNano,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("match not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	sm.Decision = models.ParseDecision(decision)
	sm.ScoredAt = time.Unix(0, scoredAtNano)
	return &sm, nil
}

// TopScored returns the k highest-scoring stored matches.
func (s *Storage) TopScored(k int) ([]models.ScoredMatch, error) {
	rows, err := s.db.Query(`
		SELECT id, league, home, away, score, minute, url,
		       xg_total, sot, pressure, odds_over25, liquidity,
		       ev_score, decision, scored_at
		FROM matches ORDER BY ev_score DESC, liquidity DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var out []models.ScoredMatch
	for rows.Next() {
		var sm models.ScoredMatch
		var decision string
		var scoredAtNano int64
		if err := rows.Scan(
			&sm.ID, &sm.League, &sm.Home, &sm.Away, &sm.Score, &sm.Minute, &sm.URL,
			&sm.XGTotal, &sm.SOT, &sm.Pressure, &sm.OddsOver25, &sm.Liquidity,
			&sm.EVScore, &decision, &scoredAtNano,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		sm.Decision = models.ParseDecision(decision)
		sm.ScoredAt = time.Unix(0, scoredAtNano)
		out = append(out, sm)
	}
	return out, rows.Err()
}

// RecordAlert appends an identity to the durable alert ledger. Recording the
// same identity twice keeps the first row.
func (s *Storage) RecordAlert(sm models.ScoredMatch) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO alerts (identity, league, home, away, ev_score, odds, alerted_at)
		VALUES (?,?,?,?,?,?,?)`,
		sm.ID, sm.League, sm.Home, sm.Away, sm.EVScore, sm.OddsOver25, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}
	return nil
}

// LoadLedger returns all alerted identities with their alert timestamps, used
// to seed the in-memory ledger at startup.
func (s *Storage) LoadLedger() (map[string]time.Time, error) {
	rows, err := s.db.Query(`SELECT identity, alerted_at FROM alerts`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	ledger := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var alertedAtNano int64
		if err := rows.Scan(&id, &alertedAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		ledger[id] = time.Unix(0, alertedAtNano)
	}
	return ledger, rows.Err()
}

// AlertCount returns the number of ledger entries.
func (s *Storage) AlertCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM alerts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return n, nil
}
