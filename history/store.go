package history

import (
	"database/sql"
	"time"

	"github.com/teranos/cadence/errors"
	"github.com/teranos/cadence/internal/util"
	"github.com/teranos/cadence/runner"
)

// Store handles persistence of sequence run history
type Store struct {
	db *sql.DB
}

// Store satisfies the scheduler's recorder so runs land here as they
// start and finish.
var _ runner.RunRecorder = (*Store)(nil)

// NewStore creates a new run history store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordStart creates a running row for a run that has just begun
func (s *Store) RecordStart(runID, sequence, trigger string) error {
	query := `
		INSERT INTO sequence_runs (
			id, sequence, trigger_type, status, started_at
		) VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		runID,
		sequence,
		trigger,
		runner.StatusRunning,
		time.Now().Format(time.RFC3339),
	)

	if err != nil {
		return errors.Wrap(err, "failed to record run start")
	}

	return nil
}

// RecordFinish stamps a run with its final status. An empty message is
// stored as NULL so only failed runs carry error text.
func (s *Store) RecordFinish(runID, status, message string, durationMs int) error {
	query := `
		UPDATE sequence_runs
		SET status = ?,
		    error_message = ?,
		    finished_at = ?,
		    duration_ms = ?
		WHERE id = ?
	`

	// Convert optional fields
	var errorMessage interface{}
	if message != "" {
		errorMessage = message
	}

	result, err := s.db.Exec(query,
		status,
		errorMessage,
		time.Now().Format(time.RFC3339),
		durationMs,
		runID,
	)

	if err != nil {
		return errors.Wrap(err, "failed to record run finish")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check rows affected")
	}

	if rowsAffected == 0 {
		return errors.Wrapf(errors.ErrNotFound, "run %s", runID)
	}

	return nil
}

// GetRun retrieves a run by ID
func (s *Store) GetRun(id string) (*Run, error) {
	query := `
		SELECT id, sequence, trigger_type, status,
		       started_at, finished_at, duration_ms, error_message
		FROM sequence_runs
		WHERE id = ?
	`

	var run Run
	var finishedAt, errorMessage sql.NullString
	var durationMs sql.NullInt64

	err := s.db.QueryRow(query, id).Scan(
		&run.ID,
		&run.Sequence,
		&run.Trigger,
		&run.Status,
		&run.StartedAt,
		&finishedAt,
		&durationMs,
		&errorMessage,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(errors.ErrNotFound, "run %s", id)
		}
		return nil, errors.Wrap(err, "failed to get run")
	}

	// Convert sql.Null* types to pointers
	if finishedAt.Valid {
		run.FinishedAt = util.Ptr(finishedAt.String)
	}
	if durationMs.Valid {
		run.DurationMs = util.Ptr(int(durationMs.Int64))
	}
	if errorMessage.Valid {
		run.ErrorMessage = util.Ptr(errorMessage.String)
	}

	return &run, nil
}

// ListRuns retrieves runs with pagination, newest first, optionally
// filtered by sequence name. An empty sequence matches all runs.
func (s *Store) ListRuns(sequence string, limit, offset int) ([]*Run, int, error) {
	// Build query with optional sequence filter
	baseQuery := `
		FROM sequence_runs
	`
	args := []interface{}{}

	if sequence != "" {
		baseQuery += " WHERE sequence = ?"
		args = append(args, sequence)
	}

	// Get total count
	countQuery := "SELECT COUNT(*)" + baseQuery
	var total int
	err := s.db.QueryRow(countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to count runs")
	}

	// Get paginated results
	query := `
		SELECT id, sequence, trigger_type, status,
		       started_at, finished_at, duration_ms, error_message
	` + baseQuery + `
		ORDER BY started_at DESC, id
		LIMIT ? OFFSET ?
	`
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var finishedAt, errorMessage sql.NullString
		var durationMs sql.NullInt64

		err := rows.Scan(
			&run.ID,
			&run.Sequence,
			&run.Trigger,
			&run.Status,
			&run.StartedAt,
			&finishedAt,
			&durationMs,
			&errorMessage,
		)

		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan run")
		}

		// Convert sql.Null* types
		if finishedAt.Valid {
			run.FinishedAt = util.Ptr(finishedAt.String)
		}
		if durationMs.Valid {
			run.DurationMs = util.Ptr(int(durationMs.Int64))
		}
		if errorMessage.Valid {
			run.ErrorMessage = util.Ptr(errorMessage.String)
		}

		runs = append(runs, &run)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "error iterating runs")
	}

	return runs, total, nil
}

// CleanupOldRuns deletes run records older than the specified retention
// period. Returns the number of runs deleted.
func (s *Store) CleanupOldRuns(retentionDays int) (int, error) {
	// Calculate cutoff time in Go for clarity and portability
	cutoffTime := time.Now().AddDate(0, 0, -retentionDays).Format(time.RFC3339)

	query := `
		DELETE FROM sequence_runs
		WHERE started_at < ?
	`

	result, err := s.db.Exec(query, cutoffTime)
	if err != nil {
		return 0, errors.Wrap(err, "failed to cleanup old runs")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get rows affected")
	}

	return int(deleted), nil
}
