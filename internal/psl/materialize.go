package psl

import (
	"encoding/json"

	"github.com/claude/workoutlog/internal/calendar"
)

// Materialize binds every weekday-scheduled session to each date of w whose
// weekday it lists. Cycle-day sessions have no calendar meaning and are
// skipped. Output is ordered by date, then by session order in the program.
func Materialize(p *CompiledProgram, w calendar.Window) []MaterializedSession {
	var out []MaterializedSession
	for _, d := range w.Days() {
		wd := calendar.Weekday(d)
		for _, s := range p.Sessions {
			rule, ok := s.Recurrence.(Weekdays)
			if !ok || !rule.Includes(wd) {
				continue
			}
			out = append(out, MaterializedSession{
				SessionID:   s.ID,
				SessionName: s.Name,
				Date:        d,
				DateISO:     d.String(),
				Exercises:   s.Exercises,
			})
		}
	}
	return out
}

// CalendarEntry is the flat per-date projection of a materialized session.
type CalendarEntry struct {
	PSLSessionID string                  `json:"pslSessionId"`
	SessionName  string                  `json:"sessionName"`
	DateISO      string                  `json:"dateIso"`
	Exercises    []CalendarEntryExercise `json:"exercises"`
}

// CalendarEntryExercise is one exercise of a calendar entry.
type CalendarEntryExercise struct {
	ExerciseName string        `json:"exerciseName"`
	Sets         []CompiledSet `json:"sets"`
}

// ExtractCalendarEntries projects materialized sessions one to one. It does
// no expansion or validation of its own.
func ExtractCalendarEntries(sessions []MaterializedSession) []CalendarEntry {
	entries := make([]CalendarEntry, 0, len(sessions))
	for _, s := range sessions {
		e := CalendarEntry{
			PSLSessionID: s.SessionID,
			SessionName:  s.SessionName,
			DateISO:      s.DateISO,
			Exercises:    make([]CalendarEntryExercise, 0, len(s.Exercises)),
		}
		for _, ex := range s.Exercises {
			e.Exercises = append(e.Exercises, CalendarEntryExercise{ExerciseName: ex.Name, Sets: ex.Sets})
		}
		entries = append(entries, e)
	}
	return entries
}

// ExercisesJSON encodes the exercise breakdown of an entry for storage.
func (e CalendarEntry) ExercisesJSON() (string, error) {
	b, err := json.Marshal(e.Exercises)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
