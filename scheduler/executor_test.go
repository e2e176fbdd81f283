package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/odsconseil/bms/errors"
	"github.com/odsconseil/bms/provider"
)

// searcherFunc adapts a function to the provider.Searcher interface.
type searcherFunc func(ctx context.Context, keywords string) ([]provider.Result, error)

func (f searcherFunc) Search(ctx context.Context, keywords string) ([]provider.Result, error) {
	return f(ctx, keywords)
}

func fakeResults(now time.Time, n int) []provider.Result {
	results := make([]provider.Result, n)
	for i := range results {
		results[i] = provider.Result{
			Title:        "Avis de marché",
			Description:  "Description",
			URL:          "https://example.com/notice",
			Source:       "Google",
			DiscoveredAt: now,
		}
	}
	return results
}

func TestExecute(t *testing.T) {
	db := createTestDB(t)
	now := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)
	store := NewStore(db).WithClock(fixedClock(now))
	runStore := NewRunStore(db)
	log := zaptest.NewLogger(t).Sugar()

	t.Run("persists run and results", func(t *testing.T) {
		search, err := store.Create(CreateParams{OwnerID: "user-1", Keywords: "marchés publics", Frequency: FrequencyDaily})
		require.NoError(t, err)

		searcher := searcherFunc(func(ctx context.Context, keywords string) ([]provider.Result, error) {
			assert.Equal(t, "marchés publics", keywords)
			return fakeResults(now, 3), nil
		})
		executor := NewExecutor(store, searcher, log).WithClock(fixedClock(now))

		execution, err := executor.Execute(context.Background(), search)
		require.NoError(t, err)
		assert.NotEmpty(t, execution.RunID)
		assert.Equal(t, 3, execution.ResultsCount)
		assert.Equal(t, now.Add(24*time.Hour), execution.NextRun)

		run, err := runStore.GetRun(execution.RunID)
		require.NoError(t, err)
		assert.Equal(t, search.ID, run.ScheduledSearchID)
		assert.Equal(t, 3, run.ResultsCount)

		stored, err := runStore.ListResults(execution.RunID)
		require.NoError(t, err)
		assert.Len(t, stored, 3)
	})

	t.Run("zero results advance schedule without a run", func(t *testing.T) {
		search, err := store.Create(CreateParams{OwnerID: "user-1", Keywords: "niche", Frequency: FrequencyHourly})
		require.NoError(t, err)

		searcher := searcherFunc(func(ctx context.Context, keywords string) ([]provider.Result, error) {
			return nil, nil
		})
		executor := NewExecutor(store, searcher, log).WithClock(fixedClock(now))

		execution, err := executor.Execute(context.Background(), search)
		require.NoError(t, err)
		assert.Empty(t, execution.RunID)
		assert.Equal(t, 0, execution.ResultsCount)
		assert.Equal(t, now.Add(time.Hour), execution.NextRun)

		runs, err := runStore.ListRunsBySearch(search.ID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, runs)

		retrieved, err := store.Get(search.ID, "user-1")
		require.NoError(t, err)
		require.NotNil(t, retrieved.LastRun)
		assert.Equal(t, now, retrieved.LastRun.UTC())
	})

	t.Run("provider chain failure is marked as execution error", func(t *testing.T) {
		search, err := store.Create(CreateParams{OwnerID: "user-1", Keywords: "x", Frequency: FrequencyDaily})
		require.NoError(t, err)
		originalNext := *search.NextRun

		searcher := searcherFunc(func(ctx context.Context, keywords string) ([]provider.Result, error) {
			return nil, errors.New("all providers failed")
		})
		executor := NewExecutor(store, searcher, log).WithClock(fixedClock(now))

		_, err = executor.Execute(context.Background(), search)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrExecution))

		// A failed execution does not consume the slot
		retrieved, err := store.Get(search.ID, "user-1")
		require.NoError(t, err)
		assert.Nil(t, retrieved.LastRun)
		assert.Equal(t, originalNext, retrieved.NextRun.UTC())
	})

	t.Run("at most one execution per search in flight", func(t *testing.T) {
		search, err := store.Create(CreateParams{OwnerID: "user-1", Keywords: "slow", Frequency: FrequencyDaily})
		require.NoError(t, err)

		entered := make(chan struct{})
		release := make(chan struct{})
		searcher := searcherFunc(func(ctx context.Context, keywords string) ([]provider.Result, error) {
			close(entered)
			<-release
			return nil, nil
		})
		// Each execution needs a distinct timestamp to advance bookkeeping
		step := 0
		executor := NewExecutor(store, searcher, log).WithClock(func() time.Time {
			step++
			return now.Add(time.Duration(step) * time.Minute)
		})

		done := make(chan error, 1)
		go func() {
			_, err := executor.Execute(context.Background(), search)
			done <- err
		}()

		<-entered
		_, err = executor.Execute(context.Background(), search)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrConflict))

		close(release)
		require.NoError(t, <-done)

		// The slot frees up once the first execution finishes
		_, err = executor.Execute(context.Background(), search)
		require.NoError(t, err)
	})
}
