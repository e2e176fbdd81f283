package scheduler

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odsconseil/bms/errors"
)

// RunStore handles persistence of search runs and their results.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new run history store
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// RecordAdHocRun appends a run that was not driven by a scheduled
// search. Ad-hoc runs carry no scheduled_search_id.
func (s *RunStore) RecordAdHocRun(keywords string, results []SearchResult, executedAt time.Time) (*SearchRun, error) {
	run := &SearchRun{
		ID:           uuid.New().String(),
		Keywords:     keywords,
		ResultsCount: len(results),
		ExecutedAt:   executedAt.UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRunTx(tx, run, results); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(id string) (*SearchRun, error) {
	query := `
		SELECT id, scheduled_search_id, keywords, results_count, executed_at
		FROM search_runs
		WHERE id = ?
	`

	var run SearchRun
	var scheduledSearchID sql.NullString
	var executedAt string

	err := s.db.QueryRow(query, id).Scan(
		&run.ID,
		&scheduledSearchID,
		&run.Keywords,
		&run.ResultsCount,
		&executedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFound("search run not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get search run: %w", err)
	}

	if scheduledSearchID.Valid {
		run.ScheduledSearchID = scheduledSearchID.String
	}
	run.ExecutedAt, err = time.Parse(time.RFC3339, executedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse executed_at for run %s: %w", run.ID, err)
	}

	return &run, nil
}

// ListRunsBySearch returns the run history of one scheduled search,
// newest first. Runs remain queryable after the search is deleted.
func (s *RunStore) ListRunsBySearch(scheduledSearchID string, limit, offset int) ([]*SearchRun, error) {
	query := `
		SELECT id, scheduled_search_id, keywords, results_count, executed_at
		FROM search_runs
		WHERE scheduled_search_id = ?
		ORDER BY executed_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.Query(query, scheduledSearchID, limit, offset)
	if err != nil {
		return nil, errors.Mark(fmt.Errorf("failed to list search runs: %w", err), errors.ErrStoreUnavailable)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// ListRecentRuns returns the most recent runs across all searches.
func (s *RunStore) ListRecentRuns(limit int) ([]*SearchRun, error) {
	query := `
		SELECT id, scheduled_search_id, keywords, results_count, executed_at
		FROM search_runs
		ORDER BY executed_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, errors.Mark(fmt.Errorf("failed to list recent runs: %w", err), errors.ErrStoreUnavailable)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// ListResults returns a run's results, newest discovery first.
func (s *RunStore) ListResults(runID string) ([]SearchResult, error) {
	query := `
		SELECT id, run_id, title, description, url, source, discovered_at
		FROM search_results
		WHERE run_id = ?
		ORDER BY discovered_at DESC
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, errors.Mark(fmt.Errorf("failed to list search results: %w", err), errors.ErrStoreUnavailable)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var title, description, url, source, discoveredAt sql.NullString

		if err := rows.Scan(&r.ID, &r.RunID, &title, &description, &url, &source, &discoveredAt); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}

		r.Title = title.String
		r.Description = description.String
		r.URL = url.String
		r.Source = source.String
		if discoveredAt.Valid {
			t, err := time.Parse(time.RFC3339, discoveredAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse discovered_at for result %s: %w", r.ID, err)
			}
			r.DiscoveredAt = t
		}

		results = append(results, r)
	}

	return results, rows.Err()
}

// CleanupOldRuns deletes runs executed before the cutoff. Their results
// cascade.
func (s *RunStore) CleanupOldRuns(olderThan time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM search_runs WHERE executed_at < ?`, olderThan.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old runs: %w", err)
	}
	return result.RowsAffected()
}

func collectRuns(rows *sql.Rows) ([]*SearchRun, error) {
	var runs []*SearchRun
	for rows.Next() {
		var run SearchRun
		var scheduledSearchID sql.NullString
		var executedAt string

		if err := rows.Scan(&run.ID, &scheduledSearchID, &run.Keywords, &run.ResultsCount, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search run: %w", err)
		}

		if scheduledSearchID.Valid {
			run.ScheduledSearchID = scheduledSearchID.String
		}
		t, err := time.Parse(time.RFC3339, executedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse executed_at for run %s: %w", run.ID, err)
		}
		run.ExecutedAt = t

		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// insertRunTx writes one run and its results inside an open transaction.
// Result rows get IDs assigned here when missing.
func insertRunTx(tx *sql.Tx, run *SearchRun, results []SearchResult) error {
	var scheduledSearchID interface{}
	if run.ScheduledSearchID != "" {
		scheduledSearchID = run.ScheduledSearchID
	}

	_, err := tx.Exec(`
		INSERT INTO search_runs (id, scheduled_search_id, keywords, results_count, executed_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		run.ID,
		scheduledSearchID,
		run.Keywords,
		run.ResultsCount,
		run.ExecutedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert search run: %w", err)
	}

	for i := range results {
		r := &results[i]
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		r.RunID = run.ID

		_, err := tx.Exec(`
			INSERT INTO search_results (id, run_id, title, description, url, source, discovered_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			r.ID,
			r.RunID,
			r.Title,
			r.Description,
			r.URL,
			r.Source,
			r.DiscoveredAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to insert search result: %w", err)
		}
	}

	return nil
}
