package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odsconseil/bms/errors"
)

func TestParseCustomSchedule(t *testing.T) {
	t.Run("parses each variant", func(t *testing.T) {
		tests := []struct {
			raw  string
			kind RuleKind
		}{
			{`{"weekDays":[1,3,5]}`, RuleWeekDays},
			{`{"hours":[8,12,18]}`, RuleHours},
			{`{"intervalHours":6}`, RuleIntervalHours},
			{`{"monthDays":[1,15]}`, RuleMonthDays},
		}

		for _, tt := range tests {
			cs, err := ParseCustomSchedule(tt.raw)
			require.NoError(t, err, tt.raw)
			assert.Equal(t, tt.kind, cs.Kind())
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := ParseCustomSchedule(`{weekDays: [1]}`)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, err := ParseCustomSchedule(`{"minutes":[30]}`)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("rejects empty rule", func(t *testing.T) {
		_, err := ParseCustomSchedule(`{}`)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})
}

func TestCustomScheduleValidate(t *testing.T) {
	tests := []struct {
		name    string
		cs      *CustomSchedule
		wantErr bool
	}{
		{"nil schedule", nil, true},
		{"valid weekDays", &CustomSchedule{WeekDays: []int{0, 6}}, false},
		{"weekDay out of range", &CustomSchedule{WeekDays: []int{7}}, true},
		{"negative weekDay", &CustomSchedule{WeekDays: []int{-1}}, true},
		{"valid hours", &CustomSchedule{Hours: []int{0, 23}}, false},
		{"hour out of range", &CustomSchedule{Hours: []int{24}}, true},
		{"valid interval", &CustomSchedule{IntervalHours: 12}, false},
		{"negative interval", &CustomSchedule{IntervalHours: -1}, true},
		{"valid monthDays", &CustomSchedule{MonthDays: []int{1, 31}}, false},
		{"monthDay zero", &CustomSchedule{MonthDays: []int{0}}, true},
		{"monthDay out of range", &CustomSchedule{MonthDays: []int{32}}, true},
		{"two variants set", &CustomSchedule{WeekDays: []int{1}, Hours: []int{9}}, true},
		{"nothing set", &CustomSchedule{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cs.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCustomScheduleEncodeRoundTrip(t *testing.T) {
	cs := &CustomSchedule{WeekDays: []int{1, 3, 5}}

	encoded, err := cs.Encode()
	require.NoError(t, err)

	decoded, err := ParseCustomSchedule(encoded)
	require.NoError(t, err)
	assert.Equal(t, cs, decoded)
}
