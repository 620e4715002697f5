package timeutil

import (
	"fmt"
	"time"

	"jwlrep/worklog"
)

const DayLayout = "2006-01-02"

// FormatDay renders a date the way the timesheet endpoint expects it.
func FormatDay(value time.Time) string {
	return value.Format(DayLayout)
}

// ISOWeeksInYear returns 52 or 53. December 28 always lies in the last ISO week.
func ISOWeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// ISOWeekPeriod returns the Monday and Sunday (UTC dates) of the given ISO week.
func ISOWeekPeriod(year, week int) (worklog.Period, error) {
	if week < 1 || week > 53 {
		return worklog.Period{}, fmt.Errorf("%w: week %d is outside 1..53", worklog.ErrInvalidConfiguration, week)
	}
	if week > ISOWeeksInYear(year) {
		return worklog.Period{}, fmt.Errorf("%w: year %d has no ISO week %d", worklog.ErrInvalidConfiguration, year, week)
	}

	// January 4 is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	firstMonday := jan4.AddDate(0, 0, -offset)

	start := firstMonday.AddDate(0, 0, (week-1)*7)
	return worklog.Period{
		Year:  year,
		Week:  week,
		Start: start,
		End:   start.AddDate(0, 0, 6),
	}, nil
}
