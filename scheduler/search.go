// Package scheduler provides recurring keyword-search scheduling: saved
// search definitions, next-run computation, execution bookkeeping, and
// the background loop that re-runs due searches.
package scheduler

import "time"

// Frequency is the cadence of a scheduled search.
type Frequency string

// Supported frequencies
const (
	FrequencyHourly  Frequency = "hourly"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

// Frequencies lists all supported values, in display order.
func Frequencies() []Frequency {
	return []Frequency{FrequencyHourly, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom}
}

// Valid reports whether f is a member of the closed enumeration.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyHourly, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

// ScheduledSearch is a saved recurring search definition. All operations
// on a ScheduledSearch are scoped to its owner.
type ScheduledSearch struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"ownerId"`
	Keywords       string          `json:"keywords"`
	Frequency      Frequency       `json:"frequency"`
	CustomSchedule *CustomSchedule `json:"customSchedule,omitempty"` // Present only when Frequency = custom
	IsActive       bool            `json:"isActive"`
	LastRun        *time.Time      `json:"lastRun"`
	NextRun        *time.Time      `json:"nextRun"` // Null only transiently before first computation
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// SearchRun is one execution of a ScheduledSearch, or an ad-hoc search
// when ScheduledSearchID is empty. Runs outlive their originating search.
type SearchRun struct {
	ID                string    `json:"id"`
	ScheduledSearchID string    `json:"scheduledSearchId,omitempty"`
	Keywords          string    `json:"keywords"`
	ResultsCount      int       `json:"resultsCount"`
	ExecutedAt        time.Time `json:"executedAt"`
}

// SearchResult is one external candidate lead produced by a run.
type SearchResult struct {
	ID           string    `json:"id"`
	RunID        string    `json:"runId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	Source       string    `json:"source"`
	DiscoveredAt time.Time `json:"discoveredAt"`
}
