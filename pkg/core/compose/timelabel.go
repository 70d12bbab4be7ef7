package compose

import (
	"fmt"

	"github.com/siamclean/dispatch/pkg/core/model"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 1440
)

// TimeUntilLabel renders a coarse "time until" label for reminder and
// escalation subjects. Values are truncated, never rounded: 75 minutes
// renders as "1 hour", the remainder is dropped.
func TimeUntilLabel(minutes int, loc model.Locale) string {
	c := catalogFor(loc)
	switch {
	case minutes < minutesPerHour:
		return fmt.Sprintf("%d %s", minutes, c.unitMinutes(minutes))
	case minutes < minutesPerDay:
		hours := minutes / minutesPerHour
		return fmt.Sprintf("%d %s", hours, c.unitHours(hours))
	default:
		days := minutes / minutesPerDay
		return fmt.Sprintf("%d %s", days, c.unitDays(days))
	}
}

// TimePendingLabel renders a precise "time overdue" label for escalation
// bodies. Unlike TimeUntilLabel it keeps the minute remainder: 75 minutes
// pending renders as "1 hour 15 minutes". The asymmetry with the coarse
// "time until" label is deliberate.
func TimePendingLabel(minutes int, loc model.Locale) string {
	c := catalogFor(loc)
	if minutes < minutesPerHour {
		return fmt.Sprintf("%d %s", minutes, c.unitMinutes(minutes))
	}
	hours := minutes / minutesPerHour
	remainder := minutes % minutesPerHour
	return fmt.Sprintf("%d %s %d %s",
		hours, c.unitHours(hours),
		remainder, c.unitMinutes(remainder))
}

func (c catalog) unitMinutes(n int) string {
	if n == 1 {
		return c.minuteSingular
	}
	return c.minutePlural
}

func (c catalog) unitHours(n int) string {
	if n == 1 {
		return c.hourSingular
	}
	return c.hourPlural
}

func (c catalog) unitDays(n int) string {
	if n == 1 {
		return c.daySingular
	}
	return c.dayPlural
}
