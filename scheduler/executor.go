package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/odsconseil/bms/errors"
	"github.com/odsconseil/bms/provider"
)

// Executor runs one scheduled search end to end: provider query, run
// persistence, bookkeeping. Both the ticker batch and the manual
// execute-now path go through Execute, so the recompute logic never
// forks. At most one execution per search ID is in flight at a time.
type Executor struct {
	store    *Store
	searcher provider.Searcher
	log      *zap.SugaredLogger
	now      func() time.Time

	mu       sync.Mutex
	inflight map[string]bool
}

// Execution summarizes one completed search execution.
type Execution struct {
	RunID        string    `json:"runId,omitempty"` // Empty when no results were found
	ResultsCount int       `json:"resultsCount"`
	ExecutedAt   time.Time `json:"executedAt"`
	NextRun      time.Time `json:"nextRun"`
}

// NewExecutor creates an executor.
func NewExecutor(store *Store, searcher provider.Searcher, log *zap.SugaredLogger) *Executor {
	return &Executor{
		store:    store,
		searcher: searcher,
		log:      log,
		now:      time.Now,
		inflight: make(map[string]bool),
	}
}

// WithClock overrides the executor's clock. For tests.
func (e *Executor) WithClock(now func() time.Time) *Executor {
	e.now = now
	return e
}

// Execute runs the search once and advances its bookkeeping. A search
// already executing returns ErrConflict immediately. Provider failure
// across the whole chain returns ErrExecution; zero results advance the
// schedule without persisting a run.
func (e *Executor) Execute(ctx context.Context, search *ScheduledSearch) (*Execution, error) {
	if !e.acquire(search.ID) {
		return nil, errors.Wrapf(errors.ErrConflict, "search %s is already executing", search.ID)
	}
	defer e.release(search.ID)

	executedAt := e.now().UTC()

	e.log.Infow("Executing scheduled search",
		"search_id", search.ID,
		"keywords", search.Keywords,
		"frequency", search.Frequency)

	found, err := e.searcher.Search(ctx, search.Keywords)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "search execution failed for %s", search.ID), errors.ErrExecution)
	}

	if len(found) == 0 {
		// Empty runs are not persisted; the schedule still advances so
		// a dry search does not stay due forever.
		if err := e.store.AdvanceBookkeeping(search, executedAt); err != nil {
			return nil, err
		}

		e.log.Infow("Scheduled search found no results",
			"search_id", search.ID,
			"keywords", search.Keywords,
			"next_run", search.NextRun.Format(time.RFC3339))

		return &Execution{ResultsCount: 0, ExecutedAt: executedAt, NextRun: *search.NextRun}, nil
	}

	run, err := e.store.RecordRun(search, toSearchResults(found), executedAt)
	if err != nil {
		return nil, err
	}

	e.log.Infow("Scheduled search completed",
		"search_id", search.ID,
		"run_id", run.ID,
		"results", run.ResultsCount,
		"next_run", search.NextRun.Format(time.RFC3339))

	return &Execution{
		RunID:        run.ID,
		ResultsCount: run.ResultsCount,
		ExecutedAt:   executedAt,
		NextRun:      *search.NextRun,
	}, nil
}

func (e *Executor) acquire(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[id] {
		return false
	}
	e.inflight[id] = true
	return true
}

func (e *Executor) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, id)
}

func toSearchResults(found []provider.Result) []SearchResult {
	results := make([]SearchResult, len(found))
	for i, r := range found {
		results[i] = SearchResult{
			Title:        r.Title,
			Description:  r.Description,
			URL:          r.URL,
			Source:       r.Source,
			DiscoveredAt: r.DiscoveredAt,
		}
	}
	return results
}
