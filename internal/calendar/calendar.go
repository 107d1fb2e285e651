// Package calendar holds the calendar-day primitives shared by the compiler,
// the scheduler and the apply flow. All day arithmetic happens on civil dates
// so that DST transitions never shift a planned day.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DateLayout is the ISO calendar-date layout used for every day key.
const DateLayout = "2006-01-02"

// DisplayLayout is the format FormatDateForDisplay uses for days other than today.
const DisplayLayout = "Mon, Jan 2, 2006"

// DateISOToday returns the current local calendar day as an ISO date string.
func DateISOToday() string {
	return DateISO(time.Now())
}

// DateISO returns the local calendar day of t as an ISO date string.
func DateISO(t time.Time) string {
	return civil.DateOf(t).String()
}

// FormatDateForDisplay renders "Today" for the current local day and a
// human-readable date otherwise. Unparseable input is returned unchanged.
func FormatDateForDisplay(iso string) string {
	return FormatDateForDisplayAt(iso, time.Now())
}

// FormatDateForDisplayAt is FormatDateForDisplay with an explicit clock.
func FormatDateForDisplayAt(iso string, now time.Time) string {
	d, err := civil.ParseDate(strings.TrimSpace(iso))
	if err != nil {
		return iso
	}
	if d == civil.DateOf(now) {
		return "Today"
	}
	return d.In(time.UTC).Format(DisplayLayout)
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid ISO date %q", s)
	}
	return d, nil
}

// Weekday returns the day of the week of d.
func Weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// StartOfDay returns midnight of d in loc. This is the day-aligned timestamp
// stored on planned workouts.
func StartOfDay(d civil.Date, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return d.In(loc)
}

// Window is an inclusive range of calendar days.
type Window struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// NewWindow returns the window [start, start+days].
func NewWindow(start civil.Date, days int) Window {
	return Window{Start: start, End: start.AddDays(days)}
}

// Contains reports whether d lies inside the window.
func (w Window) Contains(d civil.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Len returns the number of days covered by the window.
func (w Window) Len() int {
	if w.End.Before(w.Start) {
		return 0
	}
	return w.End.DaysSince(w.Start) + 1
}

// Days returns every day of the window in order.
func (w Window) Days() []civil.Date {
	n := w.Len()
	days := make([]civil.Date, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, w.Start.AddDays(i))
	}
	return days
}

func (w Window) String() string {
	return w.Start.String() + ".." + w.End.String()
}
