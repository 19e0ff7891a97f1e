// Package sqlite persists batch runs in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/jpp0ca/TrackFetch/internal/ports"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by another version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

var _ ports.OutcomeStore = (*Store)(nil)

// Store implements ports.OutcomeStore.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database dir: %w", err)
	}

	// Pragmas go in the DSN so that every pooled connection gets them.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// SaveRun writes a run with all of its outcomes and attempts in one
// transaction. Saving the same run id twice replaces the earlier copy.
func (s *Store) SaveRun(ctx context.Context, result *domain.BatchResult) error {
	if result == nil {
		return errors.New("result is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"attempts", "outcomes", "runs"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, result.RunID); err != nil {
			return fmt.Errorf("replace run: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, total, resolved, resolved_weak, failed, retries)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		formatTime(result.StartedAt),
		formatTime(result.FinishedAt),
		result.Total,
		result.Resolved,
		result.ResolvedWeak,
		result.Failed,
		result.Retries,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, o := range result.Outcomes {
		if err := insertOutcome(ctx, tx, result.RunID, o); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

func insertOutcome(ctx context.Context, tx *sql.Tx, runID string, o domain.RetrievalOutcome) error {
	trackJSON, err := json.Marshal(o.Track)
	if err != nil {
		return fmt.Errorf("marshal track: %w", err)
	}
	var matchJSON, warningsJSON any
	if o.Match != nil {
		b, err := json.Marshal(o.Match)
		if err != nil {
			return fmt.Errorf("marshal match: %w", err)
		}
		matchJSON = string(b)
	}
	if len(o.Warnings) > 0 {
		b, err := json.Marshal(o.Warnings)
		if err != nil {
			return fmt.Errorf("marshal warnings: %w", err)
		}
		warningsJSON = string(b)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, idx, status, source_used, output_path, error_message, track_json, match_json, warnings_json)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		o.Index,
		string(o.Status),
		nullableString(o.SourceUsed),
		nullableString(o.OutputPath),
		nullableString(o.Error),
		string(trackJSON),
		matchJSON,
		warningsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert outcome %d: %w", o.Index, err)
	}

	for seq, a := range o.Attempts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO attempts (run_id, outcome_idx, seq, reference, success, error_message)
             VALUES (?, ?, ?, ?, ?, ?)`,
			runID, o.Index, seq, a.Reference, a.Success, nullableString(a.Error),
		)
		if err != nil {
			return fmt.Errorf("insert attempt %d/%d: %w", o.Index, seq, err)
		}
	}
	return nil
}

const runColumns = `run_id, started_at, finished_at, total, resolved, resolved_weak, failed, retries`

// GetRun loads a run with its outcomes in input order.
func (s *Store) GetRun(ctx context.Context, runID string) (*domain.BatchResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	result := &domain.BatchResult{
		RunID:        summary.RunID,
		StartedAt:    summary.StartedAt,
		FinishedAt:   summary.FinishedAt,
		Total:        summary.Total,
		Resolved:     summary.Resolved,
		ResolvedWeak: summary.ResolvedWeak,
		Failed:       summary.Failed,
		Retries:      summary.Retries,
		Outcomes:     []domain.RetrievalOutcome{},
	}

	outcomes, err := s.loadOutcomes(ctx, runID)
	if err != nil {
		return nil, err
	}
	result.Outcomes = outcomes
	return result, nil
}

func (s *Store) loadOutcomes(ctx context.Context, runID string) ([]domain.RetrievalOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, status, source_used, output_path, error_message, track_json, match_json, warnings_json
         FROM outcomes WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []domain.RetrievalOutcome{}
	for rows.Next() {
		var (
			o                                     domain.RetrievalOutcome
			status, trackJSON                     string
			source, output, errMsg, match, warned sql.NullString
		)
		if err := rows.Scan(&o.Index, &status, &source, &output, &errMsg, &trackJSON, &match, &warned); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = domain.OutcomeStatus(status)
		o.SourceUsed = source.String
		o.OutputPath = output.String
		o.Error = errMsg.String
		o.Attempts = []domain.Attempt{}
		if err := json.Unmarshal([]byte(trackJSON), &o.Track); err != nil {
			return nil, fmt.Errorf("decode track: %w", err)
		}
		if match.Valid {
			o.Match = &domain.MatchResult{}
			if err := json.Unmarshal([]byte(match.String), o.Match); err != nil {
				return nil, fmt.Errorf("decode match: %w", err)
			}
		}
		if warned.Valid {
			if err := json.Unmarshal([]byte(warned.String), &o.Warnings); err != nil {
				return nil, fmt.Errorf("decode warnings: %w", err)
			}
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}

	attempts, err := s.db.QueryContext(ctx,
		`SELECT outcome_idx, reference, success, error_message
         FROM attempts WHERE run_id = ? ORDER BY outcome_idx, seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer attempts.Close()

	byIndex := make(map[int]int, len(outcomes))
	for i, o := range outcomes {
		byIndex[o.Index] = i
	}
	for attempts.Next() {
		var (
			idx    int
			a      domain.Attempt
			errMsg sql.NullString
		)
		if err := attempts.Scan(&idx, &a.Reference, &a.Success, &errMsg); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Error = errMsg.String
		if i, ok := byIndex[idx]; ok {
			outcomes[i].Attempts = append(outcomes[i].Attempts, a)
		}
	}
	if err := attempts.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return outcomes, nil
}

// ListRuns returns up to limit run summaries, most recent first. A limit
// below one returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit < 1 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	summaries := []domain.RunSummary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (domain.RunSummary, error) {
	var (
		summary           domain.RunSummary
		started, finished string
	)
	err := row.Scan(
		&summary.RunID,
		&started,
		&finished,
		&summary.Total,
		&summary.Resolved,
		&summary.ResolvedWeak,
		&summary.Failed,
		&summary.Retries,
	)
	if err != nil {
		return summary, err
	}
	summary.StartedAt = parseTime(started)
	summary.FinishedAt = parseTime(finished)
	return summary, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
