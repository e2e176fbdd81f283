package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odsconseil/bms/errors"
	"github.com/odsconseil/bms/logger"
)

// Store handles persistence of scheduled searches. Ownership is enforced
// here, not just at the API boundary, because the scheduler loop reads
// across owners without per-request auth.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a new scheduled search store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock overrides the store's clock. For tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// CreateParams are the inputs for Create.
type CreateParams struct {
	OwnerID        string
	Keywords       string
	Frequency      Frequency
	CustomSchedule *CustomSchedule
}

// UpdateParams are the partial-update inputs for Update. Nil pointer
// fields are left unchanged; ClearCustomSchedule removes the rule.
type UpdateParams struct {
	Keywords            *string
	Frequency           *Frequency
	CustomSchedule      *CustomSchedule
	ClearCustomSchedule bool
	IsActive            *bool
}

const searchColumns = `id, owner_id, keywords, frequency, custom_schedule, is_active, last_run, next_run, created_at, updated_at`

// Create validates and persists a new scheduled search, computing its
// initial next run before the insert.
func (s *Store) Create(p CreateParams) (*ScheduledSearch, error) {
	if err := validateDefinition(p.Keywords, p.Frequency, p.CustomSchedule); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	nextRun := ComputeNextRun(p.Frequency, p.CustomSchedule, now)

	search := &ScheduledSearch{
		ID:             uuid.New().String(),
		OwnerID:        p.OwnerID,
		Keywords:       p.Keywords,
		Frequency:      p.Frequency,
		CustomSchedule: p.CustomSchedule,
		IsActive:       true,
		NextRun:        &nextRun,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var customRaw interface{}
	if search.CustomSchedule != nil {
		encoded, err := search.CustomSchedule.Encode()
		if err != nil {
			return nil, err
		}
		customRaw = encoded
	}

	query := `
		INSERT INTO scheduled_searches (` + searchColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		search.ID,
		search.OwnerID,
		search.Keywords,
		string(search.Frequency),
		customRaw,
		search.IsActive,
		nil,
		nextRun.Format(time.RFC3339),
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduled search: %w", err)
	}

	return search, nil
}

// Get retrieves an owner's scheduled search by ID. An ID belonging to a
// different owner is indistinguishable from a missing one.
func (s *Store) Get(id, ownerID string) (*ScheduledSearch, error) {
	query := `SELECT ` + searchColumns + ` FROM scheduled_searches WHERE id = ? AND owner_id = ?`

	search, err := scanSearch(s.db.QueryRow(query, id, ownerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFound("scheduled search not found: %s", id)
		}
		return nil, errors.Mark(fmt.Errorf("failed to get scheduled search: %w", err), errors.ErrStoreUnavailable)
	}
	return search, nil
}

// List returns all of an owner's scheduled searches, newest first.
func (s *Store) List(ownerID string) ([]*ScheduledSearch, error) {
	query := `SELECT ` + searchColumns + ` FROM scheduled_searches WHERE owner_id = ? ORDER BY created_at DESC`
	return s.querySearches(query, ownerID)
}

// ListActive returns an owner's active searches, newest first.
func (s *Store) ListActive(ownerID string) ([]*ScheduledSearch, error) {
	query := `SELECT ` + searchColumns + ` FROM scheduled_searches WHERE owner_id = ? AND is_active = 1 ORDER BY created_at DESC`
	return s.querySearches(query, ownerID)
}

// ListDue returns searches ready to run across all owners, earliest due
// first. Only the scheduler loop uses this.
func (s *Store) ListDue(ctx context.Context, now time.Time, limit int) ([]*ScheduledSearch, error) {
	query := `
		SELECT ` + searchColumns + `
		FROM scheduled_searches
		WHERE is_active = 1 AND (next_run IS NULL OR next_run <= ?)
		ORDER BY next_run ASC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, now.UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, errors.Mark(fmt.Errorf("failed to list due searches: %w", err), errors.ErrStoreUnavailable)
	}
	defer rows.Close()

	return collectSearches(rows)
}

// Update applies a partial update. Reactivating a search or changing its
// cadence recomputes the next run from now; deactivating clears it while
// preserving history.
func (s *Store) Update(id, ownerID string, p UpdateParams) (*ScheduledSearch, error) {
	search, err := s.Get(id, ownerID)
	if err != nil {
		return nil, err
	}

	wasActive := search.IsActive
	cadenceChanged := false

	if p.Keywords != nil {
		search.Keywords = *p.Keywords
	}
	if p.Frequency != nil && *p.Frequency != search.Frequency {
		search.Frequency = *p.Frequency
		cadenceChanged = true
	}
	if p.ClearCustomSchedule {
		if search.CustomSchedule != nil {
			cadenceChanged = true
		}
		search.CustomSchedule = nil
	} else if p.CustomSchedule != nil {
		search.CustomSchedule = p.CustomSchedule
		cadenceChanged = true
	}
	if p.IsActive != nil {
		search.IsActive = *p.IsActive
	}

	if err := validateDefinition(search.Keywords, search.Frequency, search.CustomSchedule); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	switch {
	case !search.IsActive:
		search.NextRun = nil
	case !wasActive || cadenceChanged || search.NextRun == nil:
		nextRun := ComputeNextRun(search.Frequency, search.CustomSchedule, now)
		search.NextRun = &nextRun
	}

	var customRaw interface{}
	if search.CustomSchedule != nil {
		encoded, err := search.CustomSchedule.Encode()
		if err != nil {
			return nil, err
		}
		customRaw = encoded
	}
	var nextRunRaw interface{}
	if search.NextRun != nil {
		nextRunRaw = search.NextRun.Format(time.RFC3339)
	}

	query := `
		UPDATE scheduled_searches
		SET keywords = ?, frequency = ?, custom_schedule = ?, is_active = ?, next_run = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`
	result, err := s.db.Exec(query,
		search.Keywords,
		string(search.Frequency),
		customRaw,
		search.IsActive,
		nextRunRaw,
		now.Format(time.RFC3339),
		id,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update scheduled search: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, errors.NewNotFound("scheduled search not found: %s", id)
	}

	search.UpdatedAt = now
	return search, nil
}

// Delete removes an owner's scheduled search. History rows keep the
// originating ID and outlive the search.
func (s *Store) Delete(id, ownerID string) error {
	result, err := s.db.Exec(`DELETE FROM scheduled_searches WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete scheduled search: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NewNotFound("scheduled search not found: %s", id)
	}

	return nil
}

// RecordRun appends a run with its results and advances the search's
// bookkeeping in one transaction. The bookkeeping update is guarded so
// that of two racing executions for the same search and instant only one
// commits; the loser gets ErrConflict.
func (s *Store) RecordRun(search *ScheduledSearch, results []SearchResult, executedAt time.Time) (*SearchRun, error) {
	executedAt = executedAt.UTC()
	run := &SearchRun{
		ID:                uuid.New().String(),
		ScheduledSearchID: search.ID,
		Keywords:          search.Keywords,
		ResultsCount:      len(results),
		ExecutedAt:        executedAt,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.advanceBookkeepingTx(tx, search, executedAt); err != nil {
		return nil, err
	}

	if err := insertRunTx(tx, run, results); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}

	return run, nil
}

// AdvanceBookkeeping records an execution that produced no results:
// last_run and next_run move forward but no run row is written. Guarded
// the same way as RecordRun.
func (s *Store) AdvanceBookkeeping(search *ScheduledSearch, executedAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.advanceBookkeepingTx(tx, search, executedAt.UTC()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bookkeeping: %w", err)
	}
	return nil
}

// advanceBookkeepingTx performs the guarded last_run/next_run update.
// The guard only matches when no later or equal execution has already
// been recorded for this search.
func (s *Store) advanceBookkeepingTx(tx *sql.Tx, search *ScheduledSearch, executedAt time.Time) error {
	nextRun := ComputeNextRun(search.Frequency, search.CustomSchedule, executedAt)

	result, err := tx.Exec(`
		UPDATE scheduled_searches
		SET last_run = ?, next_run = ?, updated_at = ?
		WHERE id = ? AND (last_run IS NULL OR last_run < ?)
	`,
		executedAt.Format(time.RFC3339),
		nextRun.Format(time.RFC3339),
		s.now().UTC().Format(time.RFC3339),
		search.ID,
		executedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to update run bookkeeping: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM scheduled_searches WHERE id = ?)`, search.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check search existence: %w", err)
		}
		if !exists {
			return errors.NewNotFound("scheduled search not found: %s", search.ID)
		}
		return errors.Wrapf(errors.ErrConflict, "execution already recorded for search %s", search.ID)
	}

	search.LastRun = &executedAt
	search.NextRun = &nextRun
	return nil
}

// Statistics summarizes an owner's scheduled searches.
type Statistics struct {
	Total           int               `json:"total"`
	Active          int               `json:"active"`
	Inactive        int               `json:"inactive"`
	ByFrequency     map[Frequency]int `json:"byFrequency"`
	EarliestCreated *time.Time        `json:"earliestCreated"`
	LatestCreated   *time.Time        `json:"latestCreated"`
}

// Statistics returns counts by activation and frequency plus the
// creation-time range for an owner's searches.
func (s *Store) Statistics(ownerID string) (*Statistics, error) {
	stats := &Statistics{ByFrequency: make(map[Frequency]int)}

	var earliest, latest sql.NullString
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(is_active), 0),
		       MIN(created_at),
		       MAX(created_at)
		FROM scheduled_searches
		WHERE owner_id = ?
	`, ownerID).Scan(&stats.Total, &stats.Active, &earliest, &latest)
	if err != nil {
		return nil, errors.Mark(fmt.Errorf("failed to compute statistics: %w", err), errors.ErrStoreUnavailable)
	}
	stats.Inactive = stats.Total - stats.Active

	if earliest.Valid {
		t, err := time.Parse(time.RFC3339, earliest.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse earliest created_at: %w", err)
		}
		stats.EarliestCreated = &t
	}
	if latest.Valid {
		t, err := time.Parse(time.RFC3339, latest.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse latest created_at: %w", err)
		}
		stats.LatestCreated = &t
	}

	rows, err := s.db.Query(`
		SELECT frequency, COUNT(*)
		FROM scheduled_searches
		WHERE owner_id = ?
		GROUP BY frequency
	`, ownerID)
	if err != nil {
		return nil, errors.Mark(fmt.Errorf("failed to compute frequency counts: %w", err), errors.ErrStoreUnavailable)
	}
	defer rows.Close()

	for rows.Next() {
		var freq string
		var count int
		if err := rows.Scan(&freq, &count); err != nil {
			return nil, fmt.Errorf("failed to scan frequency count: %w", err)
		}
		stats.ByFrequency[Frequency(freq)] = count
	}

	return stats, rows.Err()
}

func (s *Store) querySearches(query string, args ...interface{}) ([]*ScheduledSearch, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Mark(fmt.Errorf("failed to list scheduled searches: %w", err), errors.ErrStoreUnavailable)
	}
	defer rows.Close()

	return collectSearches(rows)
}

func collectSearches(rows *sql.Rows) ([]*ScheduledSearch, error) {
	var searches []*ScheduledSearch
	for rows.Next() {
		search, err := scanSearch(rows)
		if err != nil {
			return nil, err
		}
		searches = append(searches, search)
	}
	return searches, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSearch(row rowScanner) (*ScheduledSearch, error) {
	var search ScheduledSearch
	var frequency, createdAt, updatedAt string
	var customRaw, lastRun, nextRun sql.NullString

	err := row.Scan(
		&search.ID,
		&search.OwnerID,
		&search.Keywords,
		&frequency,
		&customRaw,
		&search.IsActive,
		&lastRun,
		&nextRun,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	search.Frequency = Frequency(frequency)

	// Parse timestamps (return error if parsing fails - indicates data corruption or schema mismatch)
	search.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for search %s: %w", search.ID, err)
	}
	search.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at for search %s: %w", search.ID, err)
	}
	if lastRun.Valid {
		t, err := time.Parse(time.RFC3339, lastRun.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_run for search %s: %w", search.ID, err)
		}
		search.LastRun = &t
	}
	if nextRun.Valid {
		t, err := time.Parse(time.RFC3339, nextRun.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse next_run for search %s: %w", search.ID, err)
		}
		search.NextRun = &t
	}

	if customRaw.Valid && customRaw.String != "" {
		custom, err := ParseCustomSchedule(customRaw.String)
		if err != nil {
			// Malformed persisted rule: degrade to the standard
			// frequency instead of failing the read.
			logger.Warnw("Ignoring malformed custom schedule",
				"search_id", search.ID,
				"error", err)
		} else {
			search.CustomSchedule = custom
		}
	}

	return &search, nil
}

func validateDefinition(keywords string, frequency Frequency, custom *CustomSchedule) error {
	if keywords == "" {
		return errors.NewValidation("keywords must not be empty")
	}
	if !frequency.Valid() {
		return errors.NewValidation("unknown frequency: %q", frequency)
	}
	if custom != nil {
		if frequency != FrequencyCustom {
			return errors.NewValidation("customSchedule requires frequency %q, got %q", FrequencyCustom, frequency)
		}
		if err := custom.Validate(); err != nil {
			return err
		}
	}
	return nil
}
