package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/newsfeed-import/app/database"
	"github.com/robfig/cron/v3"
)

var ErrInvalidCadence = fmt.Errorf("%w: invalid cadence setting", database.ErrPrecondition)

var cadenceUnits = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
}

// Cadence is the pause between two import cycles, e.g. 2 hours.
type Cadence struct {
	Unit  string
	Value int
}

// ParseCadence validates the settings row. Units are singular or plural
// names of second, minute, hour, day and week.
func ParseCadence(setting *database.Setting) (Cadence, error) {
	unit := strings.ToLower(strings.TrimSpace(setting.CronSchedule))
	unit = strings.TrimSuffix(unit, "s")

	if _, ok := cadenceUnits[unit]; !ok {
		return Cadence{}, fmt.Errorf("%w: unknown time unit %q", ErrInvalidCadence, setting.CronSchedule)
	}
	if setting.CronValue <= 0 {
		return Cadence{}, fmt.Errorf("%w: value must be positive, got %d", ErrInvalidCadence, setting.CronValue)
	}

	return Cadence{Unit: unit, Value: setting.CronValue}, nil
}

func (c Cadence) Duration() time.Duration {
	return time.Duration(c.Value) * cadenceUnits[c.Unit]
}

func (c Cadence) Schedule() cron.Schedule {
	return cron.Every(c.Duration())
}

func (c Cadence) String() string {
	if c.Value == 1 {
		return fmt.Sprintf("1 %s", c.Unit)
	}
	return fmt.Sprintf("%d %ss", c.Value, c.Unit)
}
