package scheduler

import (
	"sort"
	"time"

	"github.com/odsconseil/bms/logger"
)

// Standard frequency offsets. Monthly is a flat 30 days, not calendar
// arithmetic, so the step is the same regardless of month length.
const (
	hourlyOffset  = time.Hour
	dailyOffset   = 24 * time.Hour
	weeklyOffset  = 7 * 24 * time.Hour
	monthlyOffset = 30 * 24 * time.Hour
)

// monthDayHour is the fixed time of day for month-day rules.
const monthDayHour = 9

// ComputeNextRun computes the next execution time for a search. Pure and
// total: the result is always strictly after ref, and a rule set that
// only matches ref's own weekday or month-day wraps a full cycle rather
// than re-triggering the same instant.
//
// When custom is non-nil its first populated variant wins, in order:
// weekDays, hours, intervalHours, monthDays. Otherwise the standard
// offset for frequency applies; custom without a rule behaves as daily.
func ComputeNextRun(frequency Frequency, custom *CustomSchedule, ref time.Time) time.Time {
	switch custom.Kind() {
	case RuleWeekDays:
		return nextWeekDay(custom.WeekDays, ref)
	case RuleHours:
		return nextHour(custom.Hours, ref)
	case RuleIntervalHours:
		return ref.Add(time.Duration(custom.IntervalHours) * time.Hour)
	case RuleMonthDays:
		return nextMonthDay(custom.MonthDays, ref)
	}

	switch frequency {
	case FrequencyHourly:
		return ref.Add(hourlyOffset)
	case FrequencyWeekly:
		return ref.Add(weeklyOffset)
	case FrequencyMonthly:
		return ref.Add(monthlyOffset)
	case FrequencyDaily, FrequencyCustom:
		return ref.Add(dailyOffset)
	default:
		return ref.Add(dailyOffset)
	}
}

// ComputeNextRunRaw evaluates a persisted rule, degrading to the
// standard frequency offset when the rule no longer parses. Parse
// failures are logged, never surfaced.
func ComputeNextRunRaw(frequency Frequency, raw string, ref time.Time) time.Time {
	if raw == "" {
		return ComputeNextRun(frequency, nil, ref)
	}

	custom, err := ParseCustomSchedule(raw)
	if err != nil {
		logger.Warnw("Malformed custom schedule, using standard frequency",
			"frequency", frequency,
			"error", err)
		return ComputeNextRun(frequency, nil, ref)
	}

	return ComputeNextRun(frequency, custom, ref)
}

// nextWeekDay finds the soonest listed weekday strictly after ref,
// preserving ref's time of day. A set holding only ref's own weekday
// wraps a full week.
func nextWeekDay(weekDays []int, ref time.Time) time.Time {
	days := sortedUnique(weekDays)
	current := int(ref.Weekday())

	target := -1
	for _, d := range days {
		if d > current {
			target = d
			break
		}
	}

	var daysToAdd int
	if target >= 0 {
		daysToAdd = target - current
	} else {
		// Wrap to next week's smallest listed day
		daysToAdd = 7 - current + days[0]
	}

	return ref.Add(time.Duration(daysToAdd) * 24 * time.Hour)
}

// nextHour finds the soonest listed hour strictly after ref's hour, with
// minutes and seconds zeroed, wrapping to the next day when no listed
// hour remains today.
func nextHour(hours []int, ref time.Time) time.Time {
	hs := sortedUnique(hours)
	current := ref.Hour()

	for _, h := range hs {
		if h > current {
			return time.Date(ref.Year(), ref.Month(), ref.Day(), h, 0, 0, 0, ref.Location())
		}
	}

	next := ref.Add(24 * time.Hour)
	return time.Date(next.Year(), next.Month(), next.Day(), hs[0], 0, 0, 0, ref.Location())
}

// nextMonthDay finds the soonest listed day-of-month strictly after
// ref's day, at 09:00, wrapping to the following month when no listed
// day remains. Days past the end of a month normalize forward into the
// next one rather than clamping.
func nextMonthDay(monthDays []int, ref time.Time) time.Time {
	ds := sortedUnique(monthDays)
	current := ref.Day()

	for _, d := range ds {
		if d > current {
			return time.Date(ref.Year(), ref.Month(), d, monthDayHour, 0, 0, 0, ref.Location())
		}
	}

	return time.Date(ref.Year(), ref.Month()+1, ds[0], monthDayHour, 0, 0, 0, ref.Location())
}

func sortedUnique(values []int) []int {
	out := make([]int, 0, len(values))
	seen := make(map[int]bool, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
