package models

import (
	"time"

	"github.com/google/uuid"
)

// Workout sources.
const (
	SourceLog = "log"
	SourceCSV = "csv"
)

// Exercise is a named movement.
type Exercise struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Workout groups the exercises logged on one calendar day from one source.
type Workout struct {
	ID          uuid.UUID  `json:"id"`
	DayKey      string     `json:"day_key"`
	Source      string     `json:"source"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// WorkoutExercise is one exercise performed within a workout. CompletedAt
// stays nil until the user finishes logging it.
type WorkoutExercise struct {
	ID               uuid.UUID  `json:"id"`
	WorkoutID        uuid.UUID  `json:"workout_id"`
	ExerciseID       uuid.UUID  `json:"exercise_id"`
	PlannedWorkoutID *uuid.UUID `json:"planned_workout_id,omitempty"`
	OrderIndex       int        `json:"order_index"`
	PerformedAt      time.Time  `json:"performed_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Notes            string     `json:"notes,omitempty"`
}

// Set is one logged or placeholder set. Placeholders have a nil WeightKg.
type Set struct {
	ID                uuid.UUID `json:"id"`
	WorkoutExerciseID uuid.UUID `json:"workout_exercise_id"`
	OrderIndex        int       `json:"order_index"`
	WeightKg          *float64  `json:"weight_kg"`
	Reps              *int      `json:"reps"`
	RPE               *float64  `json:"rpe,omitempty"`
	IsWarmup          bool      `json:"is_warmup"`
	CreatedAt         time.Time `json:"created_at"`
}

// CompletedSession is the working-set history of one completed workout
// exercise, used for progression suggestions.
type CompletedSession struct {
	WorkoutExerciseID uuid.UUID
	PerformedAt       time.Time
	Sets              []Set
}
