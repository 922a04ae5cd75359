package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
)

const tableName = "high_scores"

// ErrInvalidScore is returned when a score is missing its session or config
var ErrInvalidScore = errors.New("invalid score")

// Score is one finished classic game
type Score struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	ConfigName string    `json:"config_name"`
	Score      int       `json:"score"`
	Length     int       `json:"length"`
	Moves      int       `json:"moves"`
	Cause      string    `json:"cause"`
	Policy     string    `json:"policy"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store keeps high scores in a sqlite database
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the sqlite database at path.
// Use ":memory:" for a throwaway store.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scores database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writes
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug("High scores table ensured", "path", path)
	return s, nil
}

func (s *Store) createTable() error {
	const createTableSQL = `
	CREATE TABLE IF NOT EXISTS ` + tableName + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		config_name TEXT NOT NULL,
		score INTEGER NOT NULL,
		length INTEGER NOT NULL,
		moves INTEGER NOT NULL,
		cause TEXT NOT NULL,
		policy TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`

	if _, err := s.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to execute CREATE TABLE: %w", err)
	}
	return nil
}

// Record inserts a score and returns it with its ID. A zero CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, score Score) (Score, error) {
	if score.SessionID == "" || score.ConfigName == "" {
		return Score{}, fmt.Errorf("%w: session and config are required", ErrInvalidScore)
	}
	if score.CreatedAt.IsZero() {
		score.CreatedAt = time.Now()
	}

	const insertSQL = `
	INSERT INTO ` + tableName + ` (session_id, config_name, score, length, moves, cause, policy, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);`

	res, err := s.db.ExecContext(ctx, insertSQL,
		score.SessionID, score.ConfigName, score.Score, score.Length,
		score.Moves, score.Cause, score.Policy, score.CreatedAt.UnixMilli())
	if err != nil {
		return Score{}, fmt.Errorf("failed to insert score for session %s: %w", score.SessionID, err)
	}
	if score.ID, err = res.LastInsertId(); err != nil {
		return Score{}, fmt.Errorf("failed to read score id: %w", err)
	}
	score.CreatedAt = time.UnixMilli(score.CreatedAt.UnixMilli())
	return score, nil
}

// Top returns up to limit scores, best first. An empty configName matches every config.
func (s *Store) Top(ctx context.Context, configName string, limit int) ([]Score, error) {
	if limit <= 0 {
		limit = 10
	}

	const selectSQL = `
	SELECT id, session_id, config_name, score, length, moves, cause, policy, created_at
	FROM ` + tableName + `
	WHERE ? = '' OR config_name = ?
	ORDER BY score DESC, moves ASC, id ASC
	LIMIT ?;`

	rows, err := s.db.QueryContext(ctx, selectSQL, configName, configName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query high scores: %w", err)
	}
	defer rows.Close()

	scores := []Score{}
	for rows.Next() {
		var score Score
		var createdAt int64
		if err := rows.Scan(&score.ID, &score.SessionID, &score.ConfigName, &score.Score,
			&score.Length, &score.Moves, &score.Cause, &score.Policy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		score.CreatedAt = time.UnixMilli(createdAt)
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return scores, nil
}

// Count returns the number of recorded scores
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+tableName+`;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count scores: %w", err)
	}
	return count, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
