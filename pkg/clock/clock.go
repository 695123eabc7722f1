package clock

import (
	"time"
	_ "time/tzdata"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("clock", fx.Provide(New))

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func New() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Location resolves an IANA zone name. Empty or unknown names resolve to UTC.
func Location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		zap.L().Warn("unknown timezone, falling back to UTC", zap.String("timezone", name), zap.Error(err))
		return time.UTC
	}
	return loc
}

// TodayIn returns the calendar date of c.Now() in the named zone as YYYY-MM-DD.
func TodayIn(c Clock, timezone string) string {
	return c.Now().In(Location(timezone)).Format(time.DateOnly)
}
