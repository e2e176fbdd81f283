package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/odsconseil/bms/errors"
	"github.com/odsconseil/bms/provider"
)

// countingSearcher records every keyword it was asked to search and
// fails the ones listed in failing.
type countingSearcher struct {
	mu      sync.Mutex
	calls   map[string]int
	failing map[string]bool
	now     time.Time
}

func newCountingSearcher(now time.Time) *countingSearcher {
	return &countingSearcher{calls: make(map[string]int), failing: make(map[string]bool), now: now}
}

func (s *countingSearcher) Search(ctx context.Context, keywords string) ([]provider.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[keywords]++
	if s.failing[keywords] {
		return nil, errors.New("provider unreachable")
	}
	return []provider.Result{{Title: "Notice", URL: "https://example.com", Source: "Google", DiscoveredAt: s.now}}, nil
}

func (s *countingSearcher) callCount(keywords string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[keywords]
}

func TestTickerExecutesDueSearches(t *testing.T) {
	db := createTestDB(t)
	now := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)
	store := NewStore(db).WithClock(fixedClock(now))
	log := zaptest.NewLogger(t).Sugar()

	due, err := store.Create(CreateParams{OwnerID: "user-1", Keywords: "due search", Frequency: FrequencyDaily})
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE scheduled_searches SET next_run = ? WHERE id = ?`,
		now.Add(-time.Minute).Format(time.RFC3339), due.ID)
	require.NoError(t, err)

	notDue, err := store.Create(CreateParams{OwnerID: "user-1", Keywords: "future search", Frequency: FrequencyDaily})
	require.NoError(t, err)

	searcher := newCountingSearcher(now)
	executor := NewExecutor(store, searcher, log).WithClock(fixedClock(now))

	ticker := NewTicker(store, executor, TickerConfig{
		Interval:     time.Hour,
		StartupDelay: 10 * time.Millisecond,
		BatchLimit:   50,
	}, log).WithClock(fixedClock(now))

	ticker.Start()
	defer ticker.Stop()

	require.Eventually(t, func() bool {
		return searcher.callCount("due search") == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, searcher.callCount("future search"))

	// The executed search moved off the due list
	retrieved, err := store.Get(due.ID, "user-1")
	require.NoError(t, err)
	require.NotNil(t, retrieved.NextRun)
	assert.True(t, retrieved.NextRun.After(now))

	// The future search was never touched
	untouched, err := store.Get(notDue.ID, "user-1")
	require.NoError(t, err)
	assert.Nil(t, untouched.LastRun)
}

func TestTickerIsolatesFailures(t *testing.T) {
	db := createTestDB(t)
	now := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)
	store := NewStore(db).WithClock(fixedClock(now))
	log := zaptest.NewLogger(t).Sugar()

	// Three due searches; the middle one's provider call fails
	keywords := []string{"first", "poisoned", "last"}
	offsets := []time.Duration{-3 * time.Minute, -2 * time.Minute, -time.Minute}
	for i, kw := range keywords {
		s, err := store.Create(CreateParams{OwnerID: "user-1", Keywords: kw, Frequency: FrequencyDaily})
		require.NoError(t, err)
		_, err = db.Exec(`UPDATE scheduled_searches SET next_run = ? WHERE id = ?`,
			now.Add(offsets[i]).Format(time.RFC3339), s.ID)
		require.NoError(t, err)
	}

	searcher := newCountingSearcher(now)
	searcher.failing["poisoned"] = true
	executor := NewExecutor(store, searcher, log).WithClock(fixedClock(now))

	ticker := NewTicker(store, executor, TickerConfig{
		Interval:     time.Hour,
		StartupDelay: 10 * time.Millisecond,
		BatchLimit:   50,
	}, log).WithClock(fixedClock(now))

	ticker.Start()
	defer ticker.Stop()

	require.Eventually(t, func() bool {
		return searcher.callCount("last") == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Healthy searches on both sides of the failure still ran
	assert.Equal(t, 1, searcher.callCount("first"))
	assert.Equal(t, 1, searcher.callCount("poisoned"))
	assert.Equal(t, 1, searcher.callCount("last"))
}

func TestTickerStop(t *testing.T) {
	db := createTestDB(t)
	log := zaptest.NewLogger(t).Sugar()
	store := NewStore(db)
	executor := NewExecutor(store, newCountingSearcher(time.Now()), log)

	ticker := NewTicker(store, executor, TickerConfig{
		Interval:     time.Hour,
		StartupDelay: time.Hour,
		BatchLimit:   50,
	}, log)

	ticker.Start()

	done := make(chan struct{})
	go func() {
		ticker.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestTickerStats(t *testing.T) {
	db := createTestDB(t)
	log := zaptest.NewLogger(t).Sugar()
	store := NewStore(db)
	executor := NewExecutor(store, newCountingSearcher(time.Now()), log)

	ticker := NewTicker(store, executor, TickerConfig{
		Interval:     time.Hour,
		StartupDelay: 10 * time.Millisecond,
		BatchLimit:   50,
	}, log)

	ticker.Start()
	defer ticker.Stop()

	require.Eventually(t, func() bool {
		stats := ticker.GetStats()
		ticks, ok := stats["ticks_since_start"].(int64)
		return ok && ticks >= 1
	}, 2*time.Second, 10*time.Millisecond)

	stats := ticker.GetStats()
	assert.Equal(t, time.Hour, stats["interval"])
	assert.False(t, stats["last_tick_at"].(time.Time).IsZero())
}
