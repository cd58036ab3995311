package scheduling

import (
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

func parseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate.Withf("Invalid %s %q, expected YYYY-MM-DD", field, s).With("field", field)
	}
	return d, nil
}

// validClock accepts zero-padded 24h HH:MM so that string order matches
// time order.
func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	t, err := time.Parse("15:04", s)
	return err == nil && t.Format("15:04") == s
}

func checkTimes(start, end string) error {
	if !validClock(start) {
		return ErrInvalidTime.Withf("Invalid startTime %q, expected HH:MM", start).With("field", "startTime")
	}
	if !validClock(end) {
		return ErrInvalidTime.Withf("Invalid endTime %q, expected HH:MM", end).With("field", "endTime")
	}
	if start >= end {
		return ErrInvalidTimeRange.With("startTime", start).With("endTime", end)
	}
	return nil
}

// Expand returns the dates a pattern generates after base, in order. The
// base date itself is never included. Each step advances the previous
// occurrence, so monthly steps from the 31st normalize the way AddDate does.
func Expand(base string, p Pattern, max int) ([]string, error) {
	start, err := parseDate("date", base)
	if err != nil {
		return nil, err
	}
	if p.Interval < 1 {
		return nil, ErrInvalidRecurrence.Withf("Recurring interval must be at least 1, got %d", p.Interval)
	}
	end, err := time.Parse(dateLayout, p.EndDate)
	if err != nil {
		return nil, ErrInvalidRecurrence.Withf("Invalid recurring endDate %q, expected YYYY-MM-DD", p.EndDate)
	}
	if end.Before(start) {
		return nil, ErrInvalidRecurrence.Withf("Recurring endDate %s is before %s", p.EndDate, base)
	}

	var step func(time.Time) time.Time
	switch p.Type {
	case Daily:
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, p.Interval) }
	case Weekly:
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 7*p.Interval) }
	case Monthly:
		step = func(t time.Time) time.Time { return t.AddDate(0, p.Interval, 0) }
	default:
		return nil, ErrInvalidRecurrence.Withf("Unknown recurring type %q", p.Type)
	}

	var dates []string
	for d := step(start); !d.After(end); d = step(d) {
		if len(dates) == max {
			return nil, ErrTooManyInstances.
				Withf("Recurring pattern expands to more than %d schedules", max).
				With("max", max)
		}
		dates = append(dates, d.Format(dateLayout))
	}
	return dates, nil
}

// WeekRange returns the Monday and Sunday of ISO week "YYYY-WW".
func WeekRange(week string) (string, string, error) {
	y, w, ok := strings.Cut(week, "-")
	if !ok {
		return "", "", ErrInvalidWeek.Withf("Invalid week %q, expected YYYY-WW", week)
	}
	year, err1 := strconv.Atoi(y)
	num, err2 := strconv.Atoi(w)
	if err1 != nil || err2 != nil || len(y) != 4 || num < 1 || num > 53 {
		return "", "", ErrInvalidWeek.Withf("Invalid week %q, expected YYYY-WW", week)
	}

	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	firstMonday := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	monday := firstMonday.AddDate(0, 0, 7*(num-1))
	if gotYear, gotWeek := monday.ISOWeek(); gotYear != year || gotWeek != num {
		return "", "", ErrInvalidWeek.Withf("Year %d has no week %d", year, num)
	}
	return monday.Format(dateLayout), monday.AddDate(0, 0, 6).Format(dateLayout), nil
}
