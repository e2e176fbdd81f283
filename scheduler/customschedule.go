package scheduler

import (
	"bytes"
	"encoding/json"

	"github.com/odsconseil/bms/errors"
)

// RuleKind identifies which custom-schedule variant a rule carries.
type RuleKind string

// Custom schedule rule kinds, in evaluation precedence order.
const (
	RuleWeekDays      RuleKind = "weekDays"
	RuleHours         RuleKind = "hours"
	RuleIntervalHours RuleKind = "intervalHours"
	RuleMonthDays     RuleKind = "monthDays"
	RuleNone          RuleKind = ""
)

// CustomSchedule is the structured rule for Frequency = custom. The four
// variants are mutually exclusive; Validate enforces exactly one is set.
// When several survive in persisted data anyway, evaluation applies the
// first in precedence order: weekDays, hours, intervalHours, monthDays.
type CustomSchedule struct {
	WeekDays      []int `json:"weekDays,omitempty"`      // 0=Sunday .. 6=Saturday
	Hours         []int `json:"hours,omitempty"`         // 0..23, minutes and seconds zeroed
	IntervalHours int   `json:"intervalHours,omitempty"` // Positive fixed interval
	MonthDays     []int `json:"monthDays,omitempty"`     // 1..31, resolved to 09:00
}

// Kind returns the active variant, honoring precedence when more than
// one is populated.
func (cs *CustomSchedule) Kind() RuleKind {
	switch {
	case cs == nil:
		return RuleNone
	case len(cs.WeekDays) > 0:
		return RuleWeekDays
	case len(cs.Hours) > 0:
		return RuleHours
	case cs.IntervalHours > 0:
		return RuleIntervalHours
	case len(cs.MonthDays) > 0:
		return RuleMonthDays
	}
	return RuleNone
}

// Validate checks that exactly one variant is set with in-range values.
// Used at creation and update time; persisted rules that fail validation
// later degrade to the standard frequency instead.
func (cs *CustomSchedule) Validate() error {
	if cs == nil {
		return errors.NewValidation("custom schedule is empty")
	}

	variants := 0
	if len(cs.WeekDays) > 0 {
		variants++
		for _, d := range cs.WeekDays {
			if d < 0 || d > 6 {
				return errors.NewValidation("weekDays values must be 0-6, got %d", d)
			}
		}
	}
	if len(cs.Hours) > 0 {
		variants++
		for _, h := range cs.Hours {
			if h < 0 || h > 23 {
				return errors.NewValidation("hours values must be 0-23, got %d", h)
			}
		}
	}
	if cs.IntervalHours != 0 {
		variants++
		if cs.IntervalHours < 0 {
			return errors.NewValidation("intervalHours must be positive, got %d", cs.IntervalHours)
		}
	}
	if len(cs.MonthDays) > 0 {
		variants++
		for _, d := range cs.MonthDays {
			if d < 1 || d > 31 {
				return errors.NewValidation("monthDays values must be 1-31, got %d", d)
			}
		}
	}

	switch variants {
	case 0:
		return errors.NewValidation("custom schedule must set one of weekDays, hours, intervalHours, monthDays")
	case 1:
		return nil
	default:
		return errors.NewValidation("custom schedule variants are mutually exclusive, got %d", variants)
	}
}

// ParseCustomSchedule parses and validates a persisted JSON rule.
// Unknown fields are rejected so a mistyped variant name cannot silently
// produce an empty rule.
func ParseCustomSchedule(raw string) (*CustomSchedule, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var cs CustomSchedule
	if err := dec.Decode(&cs); err != nil {
		return nil, errors.NewValidation("malformed custom schedule: %v", err)
	}
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	return &cs, nil
}

// Encode serializes the rule for persistence.
func (cs *CustomSchedule) Encode() (string, error) {
	b, err := json.Marshal(cs)
	if err != nil {
		return "", errors.Wrap(err, "encode custom schedule")
	}
	return string(b), nil
}
