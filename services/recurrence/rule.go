package recurrence

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/mo"
)

var byDayToWeekday = map[string]int{
	"SU": 0,
	"MO": 1,
	"TU": 2,
	"WE": 3,
	"TH": 4,
	"FR": 5,
	"SA": 6,
}

// RuleOverride holds the fields a custom rule string sets. Each field is
// absent unless the rule carried a valid value for it.
type RuleOverride struct {
	Frequency mo.Option[string]
	Interval  mo.Option[int]
	Weekdays  mo.Option[[]int]
	Until     mo.Option[string]
	Count     mo.Option[int]
}

func (o RuleOverride) IsEmpty() bool {
	return o.Frequency.IsAbsent() &&
		o.Interval.IsAbsent() &&
		o.Weekdays.IsAbsent() &&
		o.Until.IsAbsent() &&
		o.Count.IsAbsent()
}

// ParseRule reads a FREQ=...;INTERVAL=...;BYDAY=...;UNTIL=...;COUNT=...
// string. It never fails: unknown keys, segments without '=' and invalid
// values are skipped.
func ParseRule(rule string) RuleOverride {
	var o RuleOverride
	if strings.TrimSpace(rule) == "" {
		return o
	}

	for _, segment := range strings.Split(rule, ";") {
		segment = strings.TrimSpace(segment)
		key, value, ok := strings.Cut(segment, "=")
		if segment == "" || !ok || strings.TrimSpace(key) == "" {
			continue
		}

		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "FREQ":
			switch strings.ToUpper(value) {
			case "DAILY":
				o.Frequency = mo.Some("daily")
			case "WEEKLY":
				o.Frequency = mo.Some("weekly")
			case "MONTHLY":
				o.Frequency = mo.Some("monthly")
			}
		case "INTERVAL":
			if n, ok := parsePositiveInt(value); ok {
				o.Interval = mo.Some(n)
			}
		case "BYDAY":
			if days := parseByDay(value); len(days) > 0 {
				o.Weekdays = mo.Some(days)
			}
		case "UNTIL":
			o.Until = parseUntil(value)
		case "COUNT":
			if n, ok := parsePositiveInt(value); ok {
				o.Count = mo.Some(n)
			}
		}
	}

	return o
}

// parsePositiveInt accepts whole numbers such as "3" or "3.0" that fit in
// an int.
func parsePositiveInt(value string) (int, bool) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 || f >= float64(math.MaxInt) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func parseByDay(value string) []int {
	var days []int
	for _, token := range strings.Split(value, ",") {
		day, ok := byDayToWeekday[strings.ToUpper(strings.TrimSpace(token))]
		if !ok || slices.Contains(days, day) {
			continue
		}
		days = append(days, day)
	}
	slices.Sort(days)
	return days
}

// parseUntil accepts YYYYMMDD or YYYY-MM-DD. A later invalid UNTIL clears an
// earlier valid one.
func parseUntil(value string) mo.Option[string] {
	if len(value) == 8 && isDigits(value) {
		value = value[:4] + "-" + value[4:6] + "-" + value[6:]
	}
	if !IsValidDate(value) {
		return mo.None[string]()
	}
	return mo.Some(value)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
