package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/model"
	"github.com/Veraticus/arcwise/internal/pipeline"
)

// RunStatus is how a run ended.
type RunStatus string

// Run statuses.
const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one journaled pipeline run.
type Run struct {
	CreatedAt    time.Time       `json:"created_at"`
	ID           string          `json:"id"`
	Input        string          `json:"input"`
	Status       RunStatus       `json:"status"`
	Stage        model.Stage     `json:"stage"`
	Outcome      string          `json:"outcome,omitempty"`
	Error        string          `json:"error,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	Handoffs     json.RawMessage `json:"handoffs,omitempty"`
	HandoffCount int             `json:"handoff_count"`
}

// ListOptions filters ListRuns.
type ListOptions struct {
	Status RunStatus
	Stage  model.Stage
	Limit  int
}

// RunFromEntry converts a journal entry into a Run.
func RunFromEntry(e pipeline.Entry) (*Run, error) {
	run := &Run{
		ID:        e.RunID,
		Input:     e.Input,
		CreatedAt: e.CreatedAt,
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	if e.Result == nil {
		run.Status = RunFailed
		run.Stage = model.StageClassifier
		if stage, ok := pipeline.FailedStage(e.Err); ok {
			run.Stage = stage
		}
		run.Handoffs = json.RawMessage(`{}`)
		if e.Err != nil {
			run.Error = e.Err.Error()
		}
		return run, nil
	}

	result, err := json.Marshal(e.Result.Record())
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	handoffs, err := json.Marshal(e.Result.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to encode handoffs: %w", err)
	}

	run.Status = RunCompleted
	run.Stage = e.Result.Stage()
	run.Outcome = outcome(e.Result)
	run.Result = result
	run.Handoffs = handoffs
	run.HandoffCount = e.Result.Context.Len()
	return run, nil
}

func outcome(r *pipeline.Result) string {
	if a, ok := r.Analysis(); ok {
		return string(a.Intent)
	}
	if d, ok := r.Decision(); ok {
		return string(d.Decision)
	}
	if v, ok := r.Validation(); ok {
		return string(v.ComplianceStatus)
	}
	if x, ok := r.Execution(); ok {
		return string(x.Decision)
	}
	return ""
}

// Append implements pipeline.Journal.
func (s *SQLiteStorage) Append(ctx context.Context, e pipeline.Entry) error {
	run, err := RunFromEntry(e)
	if err != nil {
		return err
	}
	return s.SaveRun(ctx, run)
}

// SaveRun inserts a run. Runs are never updated; saving an existing id fails.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	handoffs := run.Handoffs
	if len(handoffs) == 0 {
		handoffs = json.RawMessage(`{}`)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, input, status, stage, outcome, result, handoffs, handoff_count, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Input,
		string(run.Status),
		string(run.Stage),
		nullString(run.Outcome),
		nullString(string(run.Result)),
		string(handoffs),
		run.HandoffCount,
		nullString(run.Error),
		run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun returns the run with the given id.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, input, status, stage, outcome, result, handoffs, handoff_count, error, created_at
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var where []string
	var args []any
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	if opts.Stage != "" {
		where = append(where, "stage = ?")
		args = append(args, string(opts.Stage))
	}

	query := `SELECT id, input, status, stage, outcome, result, handoffs, handoff_count, error, created_at FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// CountRuns returns the number of journaled runs.
func (s *SQLiteStorage) CountRuns(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var status, stage string
	var outcome, result, runErr sql.NullString
	var handoffs string

	if err := sc.Scan(
		&run.ID,
		&run.Input,
		&status,
		&stage,
		&outcome,
		&result,
		&handoffs,
		&run.HandoffCount,
		&runErr,
		&run.CreatedAt,
	); err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	run.Stage = model.Stage(stage)
	run.Outcome = outcome.String
	run.Error = runErr.String
	if result.Valid {
		run.Result = json.RawMessage(result.String)
	}
	run.Handoffs = json.RawMessage(handoffs)
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ pipeline.Journal = (*SQLiteStorage)(nil)
