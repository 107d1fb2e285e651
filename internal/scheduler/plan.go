// Package scheduler expands program days into a rolling window of planned
// workouts.
package scheduler

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/claude/workoutlog/internal/calendar"
	"github.com/claude/workoutlog/internal/models"
	"github.com/google/uuid"
)

// DefaultHorizonDays is how far past today the window reaches.
const DefaultHorizonDays = 56

// Candidate is a planned workout that Plan proposes to create.
type Candidate struct {
	ProgramDayID uuid.UUID
	Date         civil.Date
}

// DayKey is the per-program dedupe key of the candidate.
func (c Candidate) DayKey() string {
	return c.Date.String()
}

// Plan returns the planned workouts missing from window w.
//
// existing holds the day keys the program already has planned; those days
// are never proposed again. An interval day without history first fires at
// its cycle position, CycleIndex-1 days after the window start, or at its
// position among interval days when it has no index. last holds, per interval day, the most recent
// planned date, from which the next occurrence continues. Days are processed
// in order and the first candidate for a calendar day wins. The result is
// sorted by date.
func Plan(existing map[string]bool, last map[uuid.UUID]civil.Date, days []models.ProgramDay, w calendar.Window) []Candidate {
	taken := make(map[string]bool, len(existing))
	for k := range existing {
		taken[k] = true
	}

	var out []Candidate
	add := func(dayID uuid.UUID, d civil.Date) {
		key := d.String()
		if taken[key] {
			return
		}
		taken[key] = true
		out = append(out, Candidate{ProgramDayID: dayID, Date: d})
	}

	intervalIndex := 0
	for _, day := range days {
		switch day.Schedule {
		case models.ScheduleWeekly:
			if day.Anchor != nil {
				if w.Contains(*day.Anchor) {
					add(day.ID, *day.Anchor)
				}
				continue
			}
			if day.DayOfWeek == nil {
				continue
			}
			for _, d := range w.Days() {
				if calendar.Weekday(d) == *day.DayOfWeek {
					add(day.ID, d)
				}
			}
		case models.ScheduleInterval:
			k := intervalIndex
			intervalIndex++
			if day.CycleIndex != nil && *day.CycleIndex >= 1 {
				k = *day.CycleIndex - 1
			}
			if day.IntervalDays == nil || *day.IntervalDays < 1 {
				continue
			}
			gap := *day.IntervalDays
			next := w.Start.AddDays(k)
			if prev, ok := last[day.ID]; ok {
				next = prev.AddDays(gap)
				for next.Before(w.Start) {
					next = next.AddDays(gap)
				}
			}
			for ; !next.After(w.End); next = next.AddDays(gap) {
				add(day.ID, next)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
