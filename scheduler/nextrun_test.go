package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeNextRunStandardFrequencies(t *testing.T) {
	ref := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	tests := []struct {
		frequency Frequency
		want      time.Time
	}{
		{FrequencyHourly, ref.Add(1 * time.Hour)},
		{FrequencyDaily, ref.Add(24 * time.Hour)},
		{FrequencyWeekly, ref.Add(7 * 24 * time.Hour)},
		{FrequencyMonthly, ref.Add(30 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			got := ComputeNextRun(tt.frequency, nil, ref)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.After(ref))
		})
	}
}

func TestComputeNextRunCustomWithoutRule(t *testing.T) {
	ref := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

	// Custom frequency with no rule behaves as daily
	got := ComputeNextRun(FrequencyCustom, nil, ref)
	assert.Equal(t, ref.Add(24*time.Hour), got)
}

func TestComputeNextRunWeekDays(t *testing.T) {
	// 2025-03-14 is a Friday (weekday 5)
	ref := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	require.Equal(t, time.Friday, ref.Weekday())

	t.Run("next listed day in same week", func(t *testing.T) {
		cs := &CustomSchedule{WeekDays: []int{1, 6}} // Monday, Saturday
		got := ComputeNextRun(FrequencyCustom, cs, ref)
		assert.Equal(t, time.Saturday, got.Weekday())
		assert.Equal(t, ref.Add(24*time.Hour), got)
	})

	t.Run("wraps to next week", func(t *testing.T) {
		cs := &CustomSchedule{WeekDays: []int{1, 3}} // Monday, Wednesday
		got := ComputeNextRun(FrequencyCustom, cs, ref)
		assert.Equal(t, time.Monday, got.Weekday())
		// Friday(5) -> Monday(1) is 3 days
		assert.Equal(t, ref.Add(3*24*time.Hour), got)
	})

	t.Run("set holding only the current weekday pushes a full week", func(t *testing.T) {
		cs := &CustomSchedule{WeekDays: []int{5}} // Friday only
		got := ComputeNextRun(FrequencyCustom, cs, ref)
		assert.Equal(t, ref.Add(7*24*time.Hour), got)
	})

	t.Run("result is always soon and strictly after reference", func(t *testing.T) {
		for day := 0; day <= 6; day++ {
			cs := &CustomSchedule{WeekDays: []int{day}}
			got := ComputeNextRun(FrequencyCustom, cs, ref)
			assert.True(t, got.After(ref))
			assert.LessOrEqual(t, got.Sub(ref), 7*24*time.Hour)
			assert.Equal(t, time.Weekday(day), got.Weekday())
		}
	})
}

func TestComputeNextRunHours(t *testing.T) {
	ref := time.Date(2025, 3, 14, 15, 42, 7, 0, time.UTC)

	t.Run("next listed hour today, minutes zeroed", func(t *testing.T) {
		cs := &CustomSchedule{Hours: []int{9, 18}}
		got := ComputeNextRun(FrequencyCustom, cs, ref)
		assert.Equal(t, time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC), got)
	})

	t.Run("wraps to tomorrow's smallest hour", func(t *testing.T) {
		cs := &CustomSchedule{Hours: []int{6, 9}}
		got := ComputeNextRun(FrequencyCustom, cs, ref)
		assert.Equal(t, time.Date(2025, 3, 15, 6, 0, 0, 0, time.UTC), got)
	})

	t.Run("current hour is not a match", func(t *testing.T) {
		cs := &CustomSchedule{Hours: []int{15}}
		got := ComputeNextRun(FrequencyCustom, cs, ref)
		assert.Equal(t, time.Date(2025, 3, 15, 15, 0, 0, 0, time.UTC), got)
	})

	t.Run("never more than 24h later", func(t *testing.T) {
		for hour := 0; hour <= 23; hour++ {
			cs := &CustomSchedule{Hours: []int{hour}}
			got := ComputeNextRun(FrequencyCustom, cs, ref)
			assert.True(t, got.After(ref))
			assert.LessOrEqual(t, got.Sub(ref), 24*time.Hour)
			assert.Equal(t, hour, got.Hour())
			assert.Zero(t, got.Minute())
			assert.Zero(t, got.Second())
		}
	})
}

func TestComputeNextRunIntervalHours(t *testing.T) {
	ref := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

	cs := &CustomSchedule{IntervalHours: 6}
	got := ComputeNextRun(FrequencyCustom, cs, ref)
	assert.Equal(t, ref.Add(6*time.Hour), got)
}

func TestComputeNextRunMonthDays(t *testing.T) {
	ref := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

	t.Run("next listed day this month at 09:00", func(t *testing.T) {
		cs := &CustomSchedule{MonthDays: []int{1, 20}}
		got := ComputeNextRun(FrequencyCustom, cs, ref)
		assert.Equal(t, time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC), got)
	})

	t.Run("wraps to next month", func(t *testing.T) {
		cs := &CustomSchedule{MonthDays: []int{1, 10}}
		got := ComputeNextRun(FrequencyCustom, cs, ref)
		assert.Equal(t, time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC), got)
	})

	t.Run("set holding only the current day wraps a full month", func(t *testing.T) {
		cs := &CustomSchedule{MonthDays: []int{14}}
		got := ComputeNextRun(FrequencyCustom, cs, ref)
		assert.Equal(t, time.Date(2025, 4, 14, 9, 0, 0, 0, time.UTC), got)
	})

	t.Run("day past end of month normalizes forward", func(t *testing.T) {
		// January 31 wrapping to day 31 of February lands in early March
		janRef := time.Date(2025, 1, 31, 15, 0, 0, 0, time.UTC)
		cs := &CustomSchedule{MonthDays: []int{31}}
		got := ComputeNextRun(FrequencyCustom, cs, janRef)
		assert.Equal(t, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), got)
		assert.True(t, got.After(janRef))
	})
}

func TestComputeNextRunMonotonicFeedback(t *testing.T) {
	schedules := []*CustomSchedule{
		nil,
		{WeekDays: []int{2}},
		{Hours: []int{8, 20}},
		{IntervalHours: 3},
		{MonthDays: []int{5, 25}},
	}

	for _, cs := range schedules {
		current := time.Date(2025, 3, 14, 15, 9, 0, 0, time.UTC)
		for i := 0; i < 50; i++ {
			next := ComputeNextRun(FrequencyCustom, cs, current)
			require.True(t, next.After(current),
				"sequence must be strictly increasing (step %d, schedule %+v)", i, cs)
			current = next
		}
	}
}

func TestComputeNextRunRaw(t *testing.T) {
	ref := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

	t.Run("valid rule is applied", func(t *testing.T) {
		got := ComputeNextRunRaw(FrequencyCustom, `{"intervalHours":2}`, ref)
		assert.Equal(t, ref.Add(2*time.Hour), got)
	})

	t.Run("malformed rule degrades to the standard frequency", func(t *testing.T) {
		got := ComputeNextRunRaw(FrequencyWeekly, `{not json`, ref)
		assert.Equal(t, ref.Add(7*24*time.Hour), got)
	})

	t.Run("unknown variant degrades to the standard frequency", func(t *testing.T) {
		got := ComputeNextRunRaw(FrequencyDaily, `{"minutes":[5]}`, ref)
		assert.Equal(t, ref.Add(24*time.Hour), got)
	})

	t.Run("empty raw uses the standard frequency", func(t *testing.T) {
		got := ComputeNextRunRaw(FrequencyHourly, "", ref)
		assert.Equal(t, ref.Add(time.Hour), got)
	})
}
