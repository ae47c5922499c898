// Package academic maps school sessions to their months.
// A session starts in September of year Y and ends in May of year Y+1.
package academic

import (
	"fmt"
	"time"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
)

// SessionMonths is the number of months in a session.
const SessionMonths = 9

var sessionOrder = []time.Month{
	time.September, time.October, time.November, time.December,
	time.January, time.February, time.March, time.April, time.May,
}

// Month is one month of a session, tagged with its calendar year.
type Month struct {
	Month time.Month `json:"month"`
	Label string     `json:"label"`
	Year  int        `json:"year"`
}

func (m Month) String() string {
	return fmt.Sprintf("%s %d", m.Label, m.Year)
}

// Months returns the session months from September(startYear) to May(startYear+1), in order.
func Months(startYear int) []Month {
	months := make([]Month, 0, SessionMonths)
	for _, m := range sessionOrder {
		year := startYear
		if m < time.September {
			year++
		}
		months = append(months, Month{Month: m, Label: m.String(), Year: year})
	}
	return months
}

// Lookup resolves a calendar month to its session month for the session starting in startYear.
func Lookup(startYear int, month time.Month) (Month, error) {
	for _, m := range Months(startYear) {
		if m.Month == month {
			return m, nil
		}
	}
	return Month{}, fmt.Errorf("%s is not part of the %d-%d session", month, startYear, startYear+1)
}

// SessionStartYear returns the start year of the session t falls in.
// June to August belong to the session that just ended.
func SessionStartYear(t time.Time) int {
	if t.Month() >= time.September {
		return t.Year()
	}
	return t.Year() - 1
}

// Range returns the inclusive first and last calendar day (YYYY-MM-DD) of month in year.
func Range(month time.Month, year int) (from, to string) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(core.DateLayout), last.Format(core.DateLayout)
}
