package audit

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists execution logs in SQLite. WAL mode allows the
// reporting read path to run concurrently with dispatch writes; the
// connection pool is capped at one writer to sidestep SQLITE_BUSY.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens the log database at path. Use ":memory:" for
// an ephemeral store in tests.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect audit db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("audit db %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply audit schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record appends one execution log. Logs are insert-only; there is no
// update path by design of the audit trail.
func (s *SQLiteStore) Record(ctx context.Context, log *ExecutionLog) error {
	actions, err := json.Marshal(log.Actions)
	if err != nil {
		return fmt.Errorf("encode action outcomes: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO execution_logs (id, rule_id, order_id, trigger_event, result, actions, error_message, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.RuleID, log.OrderID, log.TriggerEvent, string(log.Result),
		string(actions), log.ErrorMessage, log.ExecutedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert execution log: %w", err)
	}
	return nil
}

// List returns logs matching the filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]ExecutionLog, error) {
	query := `SELECT id, rule_id, order_id, trigger_event, result, actions, error_message, executed_at
	          FROM execution_logs WHERE 1=1`
	var args []any
	if f.RuleID != 0 {
		query += " AND rule_id = ?"
		args = append(args, f.RuleID)
	}
	if f.OrderID != 0 {
		query += " AND order_id = ?"
		args = append(args, f.OrderID)
	}
	if f.Result != "" {
		query += " AND result = ?"
		args = append(args, string(f.Result))
	}
	query += " ORDER BY executed_at DESC, id DESC"
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution logs: %w", err)
	}
	defer rows.Close()

	var out []ExecutionLog
	for rows.Next() {
		var (
			log        ExecutionLog
			result     string
			actions    string
			executedAt string
		)
		if err := rows.Scan(&log.ID, &log.RuleID, &log.OrderID, &log.TriggerEvent,
			&result, &actions, &log.ErrorMessage, &executedAt); err != nil {
			return nil, fmt.Errorf("scan execution log: %w", err)
		}
		log.Result = Result(result)
		if err := json.Unmarshal([]byte(actions), &log.Actions); err != nil {
			return nil, fmt.Errorf("decode action outcomes for log %s: %w", log.ID, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, executedAt); err == nil {
			log.ExecutedAt = t
		}
		out = append(out, log)
	}
	return out, rows.Err()
}

// SuccessRate aggregates a rule's outcomes. Skipped logs are excluded
// from the rate denominator since no action ran.
func (s *SQLiteStore) SuccessRate(ctx context.Context, ruleID int64) (Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT result, COUNT(*) FROM execution_logs WHERE rule_id = ? GROUP BY result`, ruleID)
	if err != nil {
		return Stats{}, fmt.Errorf("query success rate: %w", err)
	}
	defer rows.Close()

	stats := Stats{RuleID: ruleID}
	for rows.Next() {
		var result string
		var n int
		if err := rows.Scan(&result, &n); err != nil {
			return Stats{}, fmt.Errorf("scan success rate: %w", err)
		}
		stats.Total += n
		switch Result(result) {
		case ResultSuccess:
			stats.Succeeded = n
		case ResultPartial:
			stats.Partial = n
		case ResultFailed:
			stats.Failed = n
		case ResultSkipped:
			stats.Skipped = n
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	if ran := stats.Total - stats.Skipped; ran > 0 {
		stats.SuccessRate = float64(stats.Succeeded) / float64(ran)
	}
	return stats, nil
}
