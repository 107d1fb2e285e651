package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// LogSession is one day of a parsed workout history export.
type LogSession struct {
	Date        civil.Date
	StartedAt   time.Time
	CompletedAt time.Time
	Exercises   []LogExercise
}

// LogExercise is one exercise within a LogSession, in order of first
// appearance.
type LogExercise struct {
	Name        string
	Notes       string
	PerformedAt time.Time
	Sets        []LogSet
}

// LogSet is a single logged set. Weight and reps are nil when the export
// left them blank.
type LogSet struct {
	PerformedAt time.Time
	WeightKg    *float64
	Reps        *int
	Notes       string
}

// SetCount returns the number of sets across all exercises.
func (s LogSession) SetCount() int {
	n := 0
	for _, ex := range s.Exercises {
		n += len(ex.Sets)
	}
	return n
}
