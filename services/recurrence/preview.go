package recurrence

import (
	"context"

	"github.com/gtn1024/puratodo-sub001/pkg/clock"
	"github.com/gtn1024/puratodo-sub001/pkg/errutil"

	"github.com/teambition/rrule-go"
)

const MaxPreviewCount = 50

type Preview struct {
	Config *Config  `json:"config"`
	RRule  string   `json:"rrule"`
	Dates  []string `json:"dates"`
}

// Preview lists up to count anchor dates that would follow the latest
// occurrence of the task's series, stopping at the end date or end count.
// Nothing is written.
func (s *Service) Preview(ctx context.Context, ownerID, taskID string, listID *string, count int) (*Preview, error) {
	t, err := s.load(ctx, ownerID, taskID, listID)
	if err != nil {
		return nil, err
	}

	cfg := s.resolve(t)
	if cfg == nil {
		return nil, errutil.BadRequest("Task is not recurring", nil)
	}

	if count <= 0 {
		count = 1
	}
	if count > MaxPreviewCount {
		count = MaxPreviewCount
	}

	series, err := s.store.FindSeries(ctx, ownerID, SeriesRootID(t), listID)
	if err != nil {
		return nil, errutil.Internal("failed to load series", err)
	}

	base := OccurrenceDate(t)
	for _, member := range series {
		if d := OccurrenceDate(member); d > base {
			base = d
		}
	}
	if base == "" {
		base = clock.TodayIn(s.clock, cfg.Timezone)
	}

	size := len(series)
	if size == 0 {
		size = 1
	}

	dates := make([]string, 0, count)
	for len(dates) < count {
		next, ok := NextDate(base, cfg)
		if !ok {
			break
		}
		if cfg.EndDate != "" && next > cfg.EndDate {
			break
		}
		if cfg.EndCount > 0 && size+len(dates)+1 > cfg.EndCount {
			break
		}
		dates = append(dates, next)
		base = next
	}

	return &Preview{
		Config: cfg,
		RRule:  RRule(cfg),
		Dates:  dates,
	}, nil
}

var weekdayToRRule = []rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// RRule renders cfg as an RFC 5545 recurrence rule with Sunday week start.
// Monthly rules do not carry the month-end clamping applied by NextDate.
func RRule(cfg *Config) string {
	if cfg == nil {
		return ""
	}

	opt := rrule.ROption{
		Interval: cfg.Interval,
		Wkst:     rrule.SU,
		Count:    cfg.EndCount,
	}

	switch cfg.Frequency {
	case FrequencyDaily:
		opt.Freq = rrule.DAILY
	case FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
		for _, d := range cfg.Weekdays {
			if d >= 0 && d < len(weekdayToRRule) {
				opt.Byweekday = append(opt.Byweekday, weekdayToRRule[d])
			}
		}
	case FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		return ""
	}

	if until, ok := ParseDate(cfg.EndDate); ok {
		opt.Until = until
	}

	return opt.RRuleString()
}
