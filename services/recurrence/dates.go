package recurrence

import (
	"slices"
	"time"
)

// Weekly scans stop after roughly ten years.
const maxOccurrenceScanDays = 3650

// ParseDate reads a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	if len(s) != len(time.DateOnly) {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func IsValidDate(s string) bool {
	_, ok := ParseDate(s)
	return ok
}

func FormatDate(d time.Time) string {
	return d.UTC().Format(time.DateOnly)
}

func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// AddMonthsClamped moves d by n months, keeping the day of month but
// clamping it to the last day of the target month.
func AddMonthsClamped(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func startOfWeek(d time.Time) time.Time {
	return AddDays(d, -int(d.Weekday()))
}

func weeksBetween(start, end time.Time) int {
	days := int(end.Sub(start).Hours() / 24)
	return days / 7
}

// normalizeWeekdays keeps 0-6 entries, dedupes and sorts them. An empty
// result falls back to fallback.
func normalizeWeekdays(days []int, fallback int) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 || slices.Contains(out, d) {
			continue
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return []int{fallback}
	}
	slices.Sort(out)
	return out
}

// NextWeeklyDate returns the first day after base whose weekday is in
// weekdays and whose Sunday-aligned week is a whole multiple of interval
// weeks after the week containing base.
func NextWeeklyDate(base string, interval int, weekdays []int) (string, bool) {
	b, ok := ParseDate(base)
	if !ok {
		return "", false
	}
	if interval <= 0 {
		interval = 1
	}

	targets := normalizeWeekdays(weekdays, int(b.Weekday()))
	weekStart := startOfWeek(b)

	for offset := 1; offset <= maxOccurrenceScanDays; offset++ {
		candidate := AddDays(b, offset)
		if !slices.Contains(targets, int(candidate.Weekday())) {
			continue
		}
		if weeksBetween(weekStart, startOfWeek(candidate))%interval == 0 {
			return FormatDate(candidate), true
		}
	}
	return "", false
}

// NextDate advances base by one step of cfg.
func NextDate(base string, cfg *Config) (string, bool) {
	b, ok := ParseDate(base)
	if !ok || cfg == nil {
		return "", false
	}

	switch cfg.Frequency {
	case FrequencyDaily:
		return FormatDate(AddDays(b, cfg.Interval)), true
	case FrequencyWeekly:
		return NextWeeklyDate(base, cfg.Interval, cfg.Weekdays)
	case FrequencyMonthly:
		return FormatDate(AddMonthsClamped(b, cfg.Interval)), true
	default:
		return "", false
	}
}
