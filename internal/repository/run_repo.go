package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ValidationRun is one recorded fixture validation: which workbook ran,
// in which mode, and how it scored. MaxDeviation is stored as its exact
// decimal string.
type ValidationRun struct {
	ID            int64
	Filename      string
	Mode          string
	Passed        bool
	CheckedFields int
	PassedFields  int
	MaxDeviation  string
	DurationMs    int64
	CreatedAt     time.Time
}

// RunRepository handles validation-run history database operations
type RunRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRunRepository creates a new validation-run repository
func NewRunRepository(db *sql.DB, logger *zap.Logger) *RunRepository {
	return &RunRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new run record
func (r *RunRepository) Create(run *ValidationRun) error {
	query := `
		INSERT INTO validation_runs (
			filename, mode, passed, checked_fields, passed_fields,
			max_deviation, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		run.Filename,
		run.Mode,
		run.Passed,
		run.CheckedFields,
		run.PassedFields,
		run.MaxDeviation,
		run.DurationMs,
	)
	if err != nil {
		r.logger.Error("Failed to create validation run record", zap.Error(err))
		return fmt.Errorf("failed to create validation run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.ID = id
	return nil
}

// ListRecent returns the most recent runs, newest first
func (r *RunRepository) ListRecent(limit int) ([]*ValidationRun, error) {
	query := `
		SELECT id, filename, mode, passed, checked_fields, passed_fields,
		       max_deviation, duration_ms, created_at
		FROM validation_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		r.logger.Error("Failed to list validation runs", zap.Error(err))
		return nil, fmt.Errorf("failed to list validation runs: %w", err)
	}
	defer rows.Close()

	var runs []*ValidationRun
	for rows.Next() {
		run := &ValidationRun{}
		if err := rows.Scan(
			&run.ID,
			&run.Filename,
			&run.Mode,
			&run.Passed,
			&run.CheckedFields,
			&run.PassedFields,
			&run.MaxDeviation,
			&run.DurationMs,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan validation run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
