package psl

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/workoutlog/internal/calendar"
	"github.com/claude/workoutlog/internal/prescription"
)

// CompiledProgram is a validated, shorthand-expanded program.
type CompiledProgram struct {
	LanguageVersion string            `json:"language_version"`
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Calendar        *calendar.Window  `json:"calendar,omitempty"` // nil for cycle-based programs
	Sessions        []CompiledSession `json:"sessions"`
}

// CompiledSession is one session with its recurrence resolved.
type CompiledSession struct {
	ID         string
	Name       string
	Recurrence Recurrence
	Exercises  []CompiledExercise
}

// MarshalJSON writes the recurrence back in its source form, as either a
// "day" index or a "schedule" list of weekday codes.
func (s CompiledSession) MarshalJSON() ([]byte, error) {
	out := struct {
		ID        string             `json:"id"`
		Name      string             `json:"name"`
		Day       int                `json:"day,omitempty"`
		Schedule  []string           `json:"schedule,omitempty"`
		Exercises []CompiledExercise `json:"exercises"`
	}{ID: s.ID, Name: s.Name, Exercises: s.Exercises}
	switch r := s.Recurrence.(type) {
	case CycleDay:
		out.Day = r.Index
	case Weekdays:
		for _, d := range r.Days {
			out.Schedule = append(out.Schedule, calendar.WeekdayCode(d))
		}
	}
	return json.Marshal(out)
}

// Recurrence is either a CycleDay or a Weekdays rule.
type Recurrence interface {
	isRecurrence()
}

// CycleDay places a session on day Index (1-based) of a non-dated cycle.
type CycleDay struct {
	Index int
}

// Weekdays places a session on every listed weekday.
type Weekdays struct {
	Days []time.Weekday
}

func (CycleDay) isRecurrence() {}
func (Weekdays) isRecurrence() {}

// Includes reports whether d is one of the rule's weekdays.
func (w Weekdays) Includes(d time.Weekday) bool {
	for _, wd := range w.Days {
		if wd == d {
			return true
		}
	}
	return false
}

// CompiledExercise owns one CompiledSet per physical set.
type CompiledExercise struct {
	Name        string        `json:"name"`
	Notes       string        `json:"notes,omitempty"`
	RestSeconds *int          `json:"rest_seconds,omitempty"`
	Sets        []CompiledSet `json:"sets"`
}

// CompiledSet is exactly one physical set.
type CompiledSet struct {
	Reps      prescription.RepSpec
	Intensity Intensity // nil when no load rule was given
	Warmup    bool
}

// MaterializedSession is a compiled session bound to one calendar day.
type MaterializedSession struct {
	SessionID   string             `json:"session_id"`
	SessionName string             `json:"session_name"`
	Date        civil.Date         `json:"-"`
	DateISO     string             `json:"date"`
	Exercises   []CompiledExercise `json:"exercises"`
}

// Result is the outcome of Compile.
type Result struct {
	Valid        bool                  `json:"valid"`
	Diagnostics  []Diagnostic          `json:"diagnostics"`
	AST          *AST                  `json:"-"`
	Compiled     *CompiledProgram      `json:"compiled,omitempty"`
	Materialized []MaterializedSession `json:"materialized,omitempty"` // nil unless the program has a calendar window
}
