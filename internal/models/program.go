package models

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Program is a training program. Source holds the program document it was
// imported from, if any.
type Program struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Schedule is how a program day recurs.
type Schedule string

const (
	ScheduleWeekly   Schedule = "weekly"
	ScheduleInterval Schedule = "interval"
)

// ProgramDay is a template day of a program.
//
// Weekly days recur on DayOfWeek. Interval days recur every IntervalDays days,
// first firing CycleIndex-1 days into the cycle. A weekly day with an Anchor
// fires only on that calendar date.
type ProgramDay struct {
	ID           uuid.UUID     `json:"id"`
	ProgramID    uuid.UUID     `json:"program_id"`
	Name         string        `json:"name"`
	OrderIndex   int           `json:"order_index"`
	Schedule     Schedule      `json:"schedule"`
	DayOfWeek    *time.Weekday `json:"day_of_week,omitempty"`
	IntervalDays *int          `json:"interval_days,omitempty"`
	CycleIndex   *int          `json:"cycle_index,omitempty"`
	Anchor       *civil.Date   `json:"anchor,omitempty"`
	Note         string        `json:"note,omitempty"`
}

// ProgramExercise links a program day to an exercise. Prescription is the
// serialized prescription document.
type ProgramExercise struct {
	ID           uuid.UUID `json:"id"`
	ProgramDayID uuid.UUID `json:"program_day_id"`
	ExerciseID   uuid.UUID `json:"exercise_id"`
	OrderIndex   int       `json:"order_index"`
	Prescription string    `json:"prescription"`
}

// Progression is a load progression rule attached to a program exercise.
type Progression struct {
	ID                uuid.UUID `json:"id"`
	ProgramExerciseID uuid.UUID `json:"program_exercise_id"`
	Type              string    `json:"type"`
	Value             float64   `json:"value"`
	Cadence           string    `json:"cadence"`
	CapKg             *float64  `json:"cap_kg,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// PlannedWorkout is one generated occurrence of a program day. DayKey is the
// ISO date of PlannedFor and is unique per program.
type PlannedWorkout struct {
	ID           uuid.UUID `json:"id"`
	ProgramID    uuid.UUID `json:"program_id"`
	ProgramDayID uuid.UUID `json:"program_day_id"`
	PlannedFor   time.Time `json:"planned_for"`
	DayKey       string    `json:"day_key"`
	CreatedAt    time.Time `json:"created_at"`
}

// CalendarEntry is a stored calendar projection of a program session.
// Exercises is the JSON breakdown of exercises and sets.
type CalendarEntry struct {
	ID           uuid.UUID `json:"id"`
	ProgramID    uuid.UUID `json:"program_id"`
	PSLSessionID string    `json:"psl_session_id"`
	SessionName  string    `json:"session_name"`
	DateISO      string    `json:"date_iso"`
	Exercises    string    `json:"exercises"`
	CreatedAt    time.Time `json:"created_at"`
}
