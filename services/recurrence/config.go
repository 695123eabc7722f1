package recurrence

import (
	"slices"

	"github.com/gtn1024/puratodo-sub001/services/task"
)

const (
	FrequencyDaily   = task.FrequencyDaily
	FrequencyWeekly  = task.FrequencyWeekly
	FrequencyMonthly = task.FrequencyMonthly
	FrequencyCustom  = task.FrequencyCustom

	DefaultTimezone = "UTC"
)

// Config is the effective recurrence of a task after merging the custom rule
// over the stored fields.
type Config struct {
	// Frequency is always daily, weekly or monthly.
	Frequency string `json:"frequency"`
	Interval  int    `json:"interval"`
	// Weekdays is non-empty and sorted for weekly configs.
	Weekdays []int `json:"weekdays"`
	// EndDate is "" when the series has no end date.
	EndDate string `json:"end_date,omitempty"`
	// EndCount is 0 when the series size is unbounded.
	EndCount int    `json:"end_count,omitempty"`
	Timezone string `json:"timezone"`
}

// ResolveConfig returns nil when t does not recur. Precedence is custom
// rule, then stored fields, then structural defaults.
func ResolveConfig(t *task.Task) *Config {
	return resolveConfig(t, DefaultTimezone)
}

func resolveConfig(t *task.Task, defaultTimezone string) *Config {
	if !t.IsRecurring() {
		return nil
	}

	rule := ParseRule(deref(t.RecurrenceRule))

	var frequency string
	switch f := *t.RecurrenceFrequency; f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		frequency = f
	case FrequencyCustom:
		frequency = rule.Frequency.OrElse(FrequencyDaily)
	default:
		return nil
	}

	interval := rule.Interval.OrElse(derefInt(t.RecurrenceInterval))
	if interval <= 0 {
		interval = 1
	}

	var weekdays []int
	if rule.Weekdays.IsPresent() {
		weekdays = rule.Weekdays.MustGet()
	} else if t.RecurrenceWeekdays != nil {
		weekdays = []int(t.RecurrenceWeekdays)
	}
	if frequency == FrequencyWeekly {
		weekdays = normalizeWeekdays(weekdays, anchorWeekday(t))
	} else {
		weekdays = slices.Clone(weekdays)
		if weekdays == nil {
			weekdays = []int{}
		}
	}

	endDate := rule.Until.OrElse(deref(t.RecurrenceEndDate))
	if !IsValidDate(endDate) {
		endDate = ""
	}

	endCount := rule.Count.OrElse(derefInt(t.RecurrenceEndCount))
	if endCount < 0 {
		endCount = 0
	}

	timezone := deref(t.RecurrenceTimezone)
	if timezone == "" {
		timezone = defaultTimezone
	}
	if timezone == "" {
		timezone = DefaultTimezone
	}

	return &Config{
		Frequency: frequency,
		Interval:  interval,
		Weekdays:  weekdays,
		EndDate:   endDate,
		EndCount:  endCount,
		Timezone:  timezone,
	}
}

// anchorWeekday is the weekday of the first non-empty of plan date, due
// date and creation date. An unparsable anchor counts as Monday.
func anchorWeekday(t *task.Task) int {
	anchor := deref(t.PlanDate)
	if anchor == "" {
		anchor = deref(t.DueDate)
	}
	if anchor == "" {
		anchor = FormatDate(t.CreatedAt)
	}

	d, ok := ParseDate(anchor)
	if !ok {
		return 1
	}
	return int(d.Weekday())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
