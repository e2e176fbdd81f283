package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Ticker drives periodic execution of due scheduled searches. One
// ticker runs per process. Ticks that fire while a batch is still
// executing are skipped, never queued.
type Ticker struct {
	store    *Store
	executor *Executor
	interval time.Duration
	startup  time.Duration
	limit    int
	limiter  *rate.Limiter
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	log      *zap.SugaredLogger
	now      func() time.Time

	batchMu sync.Mutex // Held for the duration of a batch

	mu              sync.Mutex
	lastTickAt      time.Time
	ticksSinceStart int64
}

// TickerConfig contains configuration for the scheduler ticker
type TickerConfig struct {
	Interval     time.Duration // How often to check for due searches
	StartupDelay time.Duration // Delay before the initial pass on process start
	ItemCooldown time.Duration // Cooldown between consecutive searches in a batch
	BatchLimit   int           // Max due searches per tick
}

// DefaultTickerConfig returns sensible defaults: hourly ticks to match
// the finest supported frequency, a short bootstrap pass after restart,
// and a polite delay between provider calls.
func DefaultTickerConfig() TickerConfig {
	return TickerConfig{
		Interval:     1 * time.Hour,
		StartupDelay: 10 * time.Second,
		ItemCooldown: 2 * time.Second,
		BatchLimit:   50,
	}
}

// NewTicker creates a scheduler ticker.
func NewTicker(store *Store, executor *Executor, cfg TickerConfig, log *zap.SugaredLogger) *Ticker {
	return NewTickerWithContext(context.Background(), store, executor, cfg, log)
}

// NewTickerWithContext creates a ticker with a parent context
func NewTickerWithContext(ctx context.Context, store *Store, executor *Executor, cfg TickerConfig, log *zap.SugaredLogger) *Ticker {
	tickerCtx, cancel := context.WithCancel(ctx)

	var limiter *rate.Limiter
	if cfg.ItemCooldown > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.ItemCooldown), 1)
	}

	return &Ticker{
		store:    store,
		executor: executor,
		interval: cfg.Interval,
		startup:  cfg.StartupDelay,
		limit:    cfg.BatchLimit,
		limiter:  limiter,
		ctx:      tickerCtx,
		cancel:   cancel,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the ticker's clock. For tests.
func (t *Ticker) WithClock(now func() time.Time) *Ticker {
	t.now = now
	return t
}

// Start begins the ticker loop
func (t *Ticker) Start() {
	t.wg.Add(1)
	go t.run()
	t.log.Infow("Scheduler ticker started",
		"interval", t.interval,
		"startup_delay", t.startup)
}

// Stop suppresses future ticks and waits for an in-flight batch to
// finish. Batches are never cancelled midway.
func (t *Ticker) Stop() {
	t.cancel()
	t.wg.Wait()
	t.log.Infow("Scheduler ticker stopped")
}

// run is the main ticker loop
func (t *Ticker) run() {
	defer t.wg.Done()

	startup := time.NewTimer(t.startup)
	defer startup.Stop()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-startup.C:
			// Bootstrap pass so a restarted process does not wait a
			// full tick interval.
			t.tick(t.now())
		case tickTime := <-ticker.C:
			t.tick(tickTime)
		}
	}
}

func (t *Ticker) tick(tickTime time.Time) {
	t.mu.Lock()
	t.lastTickAt = tickTime
	t.ticksSinceStart++
	tickNum := t.ticksSinceStart
	t.mu.Unlock()

	if !t.batchMu.TryLock() {
		t.log.Warnw("Skipping tick, previous batch still executing", "tick", tickNum)
		return
	}
	defer t.batchMu.Unlock()

	if err := t.runBatch(tickTime); err != nil {
		t.log.Warnw("Scheduler tick error", "error", err, "tick", tickNum)
	}
}

// runBatch executes the due snapshot sequentially. Items run on a
// background context so a batch in progress survives Stop; per-item
// failures are logged and never abort the batch.
func (t *Ticker) runBatch(now time.Time) error {
	due, err := t.store.ListDue(t.ctx, now, t.limit)
	if err != nil {
		return err
	}

	if len(due) == 0 {
		t.log.Debugw("No scheduled searches due")
		return nil
	}

	t.log.Infow("Executing due scheduled searches", "count", len(due))

	batchCtx := context.Background()
	for _, search := range due {
		if t.limiter != nil {
			if err := t.limiter.Wait(batchCtx); err != nil {
				return err
			}
		}

		if _, err := t.executor.Execute(batchCtx, search); err != nil {
			t.log.Errorw("Failed to execute scheduled search",
				"search_id", search.ID,
				"keywords", search.Keywords,
				"error", err)
			// Continue with other searches even if one fails
			continue
		}
	}

	return nil
}

// GetStats returns ticker statistics
func (t *Ticker) GetStats() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	return map[string]interface{}{
		"last_tick_at":      t.lastTickAt,
		"ticks_since_start": t.ticksSinceStart,
		"interval":          t.interval,
	}
}
