package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rsvihladremio/dqd-sub002/internal/models"
	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is an in-memory SQLite database. It lives for one report pass
// and is discarded on Close.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewSQLiteStore() (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=OFF;",
		"PRAGMA synchronous=OFF;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			slog.Warn("Failed to set pragma", "pragma", p, "error", err)
		}
	}

	store := &SQLiteStore{db: db}
	if err := store.InitSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) InitSchema() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for schema initialization: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(SchemaVersionTable); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	if _, err := tx.Exec(QuerySchema); err != nil {
		return fmt.Errorf("failed to create queries table: %w", err)
	}
	if _, err := tx.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) BulkInsertQueries(records []models.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT INTO queries
		(query_id, start_ms, finish_ms, outcome, queue, username, pending_ms, metadata_ms, planning_ms, queued_ms, running_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, q := range records {
		if _, err := stmt.Exec(q.ID, q.Start, q.Finish, string(q.Outcome), q.Queue, q.User,
			q.Pending, q.MetadataRetrieval, q.Planning, q.Queued, q.Running); err != nil {
			return fmt.Errorf("failed to insert query %s: %w", q.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) CountQueries() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM queries").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queries: %w", err)
	}
	return n, nil
}

// GetOutcomeCounts returns one row per outcome, most frequent first.
func (s *SQLiteStore) GetOutcomeCounts() ([]models.OutcomeCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT outcome, COUNT(*) AS total
		FROM queries
		GROUP BY outcome
		ORDER BY total DESC, outcome
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make([]models.OutcomeCount, 0)
	for rows.Next() {
		var c models.OutcomeCount
		if err := rows.Scan(&c.Outcome, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// GetQueueSummaries returns per-queue aggregates, busiest queue first.
func (s *SQLiteStore) GetQueueSummaries() ([]models.QueueSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT queue,
		       COUNT(*) AS total,
		       SUM(CASE WHEN outcome = 'FAILED' THEN 1 ELSE 0 END),
		       AVG(finish_ms - start_ms),
		       MAX(finish_ms - start_ms),
		       AVG(queued_ms)
		FROM queries
		GROUP BY queue
		ORDER BY total DESC, queue
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := make([]models.QueueSummary, 0)
	for rows.Next() {
		var q models.QueueSummary
		if err := rows.Scan(&q.Queue, &q.Queries, &q.Failed, &q.AvgDuration, &q.MaxDuration, &q.AvgQueued); err != nil {
			return nil, err
		}
		summaries = append(summaries, q)
	}
	return summaries, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
