package program

import (
	"context"
	"fmt"

	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/prescription"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/google/uuid"
)

// Detail is a program with its days and prescribed exercises.
type Detail struct {
	models.Program
	Days []DayDetail `json:"days"`
}

// DayDetail is one program day.
type DayDetail struct {
	models.ProgramDay
	Exercises []ExerciseDetail `json:"exercises"`
}

// ExerciseDetail is one prescribed exercise. Summary is a human-readable
// rendering of its prescription, empty when the prescription is unreadable.
type ExerciseDetail struct {
	models.ProgramExercise
	ExerciseName string               `json:"exercise_name"`
	Summary      string               `json:"summary"`
	Progressions []models.Progression `json:"progressions"`
}

// Get loads a program with everything attached to it.
func (s *Service) Get(ctx context.Context, programID uuid.UUID) (Detail, error) {
	p, err := s.db.GetProgram(ctx, programID)
	if err != nil {
		return Detail{}, err
	}
	days, err := s.db.ListProgramDays(ctx, programID)
	if err != nil {
		return Detail{}, err
	}

	names := map[uuid.UUID]string{}
	d := Detail{Program: p, Days: make([]DayDetail, 0, len(days))}
	for _, day := range days {
		dd := DayDetail{ProgramDay: day, Exercises: []ExerciseDetail{}}
		pes, err := s.db.ListProgramExercises(ctx, day.ID)
		if err != nil {
			return Detail{}, err
		}
		for _, pe := range pes {
			ed, err := s.exerciseDetail(ctx, pe, names)
			if err != nil {
				return Detail{}, fmt.Errorf("loading program exercise %s: %w", pe.ID, err)
			}
			dd.Exercises = append(dd.Exercises, ed)
		}
		d.Days = append(d.Days, dd)
	}
	return d, nil
}

func (s *Service) exerciseDetail(ctx context.Context, pe models.ProgramExercise, names map[uuid.UUID]string) (ExerciseDetail, error) {
	name, ok := names[pe.ExerciseID]
	if !ok {
		ex, err := s.db.GetExercise(ctx, pe.ExerciseID)
		switch {
		case storage.IsNotFound(err):
		case err != nil:
			return ExerciseDetail{}, err
		default:
			name = ex.Name
		}
		names[pe.ExerciseID] = name
	}
	rules, err := s.db.ListProgressions(ctx, pe.ID)
	if err != nil {
		return ExerciseDetail{}, err
	}
	ed := ExerciseDetail{ProgramExercise: pe, ExerciseName: name, Progressions: rules}
	if p, ok := prescription.ParseString(pe.Prescription); ok {
		ed.Summary = prescription.Describe(p)
	}
	return ed, nil
}
