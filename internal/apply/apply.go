// Package apply turns planned workouts into loggable placeholder sets.
package apply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/prescription"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/google/uuid"
)

// ErrReferential matches every *ReferentialError.
var ErrReferential = errors.New("referenced record no longer exists")

// ReferentialError reports a record that vanished between planning and
// applying. It always aborts the whole apply.
type ReferentialError struct {
	Kind string
	ID   uuid.UUID
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("%s %s no longer exists", e.Kind, e.ID)
}

func (e *ReferentialError) Is(target error) bool {
	return target == ErrReferential
}

// AppliedExercise is one workout exercise created by Apply with its sets.
type AppliedExercise struct {
	ProgramExerciseID uuid.UUID              `json:"program_exercise_id"`
	ExerciseName      string                 `json:"exercise_name"`
	WorkoutExercise   models.WorkoutExercise `json:"workout_exercise"`
	Sets              []models.Set           `json:"sets"`
}

// Skipped is a program exercise Apply left out, with the reason.
type Skipped struct {
	ProgramExerciseID uuid.UUID `json:"program_exercise_id"`
	Reason            string    `json:"reason"`
}

// Result is the outcome of Apply.
type Result struct {
	PlannedWorkoutID uuid.UUID         `json:"planned_workout_id"`
	WorkoutID        uuid.UUID         `json:"workout_id"`
	AlreadyApplied   bool              `json:"already_applied"`
	Exercises        []AppliedExercise `json:"exercises"`
	Skipped          []Skipped         `json:"skipped,omitempty"`
}

// Service applies planned workouts.
type Service struct {
	db  *storage.DB
	log *slog.Logger
	now func() time.Time
}

// NewService creates an apply service.
func NewService(db *storage.DB, log *slog.Logger) *Service {
	return &Service{db: db, log: log, now: time.Now}
}

// Apply creates one workout exercise per program exercise of the planned
// workout's day, each with placeholder sets expanded from its prescription.
// Everything is written in one transaction; a *ReferentialError rolls all
// of it back. Applying the same planned workout again returns the records
// created the first time.
func (s *Service) Apply(ctx context.Context, plannedWorkoutID uuid.UUID) (Result, error) {
	var res Result
	err := s.db.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		res, err = s.apply(ctx, q, plannedWorkoutID)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	s.log.Info("planned workout applied",
		"planned_workout_id", plannedWorkoutID,
		"workout_id", res.WorkoutID,
		"exercises", len(res.Exercises),
		"skipped", len(res.Skipped),
		"already_applied", res.AlreadyApplied)
	return res, nil
}

func (s *Service) apply(ctx context.Context, q *storage.Queries, plannedWorkoutID uuid.UUID) (Result, error) {
	pw, err := q.GetPlannedWorkout(ctx, plannedWorkoutID)
	if err != nil {
		return Result{}, referential(err, "planned workout", plannedWorkoutID)
	}
	res := Result{PlannedWorkoutID: pw.ID}

	if prior, err := q.ListWorkoutExercisesByPlanned(ctx, pw.ID); err != nil {
		return Result{}, err
	} else if len(prior) > 0 {
		return s.existing(ctx, q, res, prior)
	}

	day, err := q.GetProgramDay(ctx, pw.ProgramDayID)
	if err != nil {
		return Result{}, referential(err, "program day", pw.ProgramDayID)
	}
	pes, err := q.ListProgramExercises(ctx, day.ID)
	if err != nil {
		return Result{}, err
	}

	workout, err := s.workoutFor(ctx, q, pw)
	if err != nil {
		return Result{}, err
	}
	res.WorkoutID = workout.ID

	order, err := q.MaxWorkoutExerciseOrder(ctx, workout.ID)
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	for _, pe := range pes {
		ex, err := q.GetExercise(ctx, pe.ExerciseID)
		if err != nil {
			return Result{}, referential(err, "exercise", pe.ExerciseID)
		}

		p, ok := prescription.ParseString(pe.Prescription)
		if !ok {
			res.Skipped = append(res.Skipped, Skipped{ProgramExerciseID: pe.ID, Reason: "unreadable prescription"})
			s.log.Warn("skipping program exercise", "program_exercise_id", pe.ID, "reason", "unreadable prescription")
			continue
		}
		placeholders := Placeholders(p)
		if len(placeholders) == 0 {
			res.Skipped = append(res.Skipped, Skipped{ProgramExerciseID: pe.ID, Reason: "prescription has no sets"})
			continue
		}

		order++
		plannedID := pw.ID
		we := models.WorkoutExercise{
			ID:               uuid.New(),
			WorkoutID:        workout.ID,
			ExerciseID:       ex.ID,
			PlannedWorkoutID: &plannedID,
			OrderIndex:       order,
			PerformedAt:      pw.PlannedFor,
		}
		if p.Notes != nil {
			we.Notes = *p.Notes
		}
		if err := q.InsertWorkoutExercise(ctx, we); err != nil {
			return Result{}, err
		}

		sets := make([]models.Set, 0, len(placeholders))
		for i, ph := range placeholders {
			sets = append(sets, models.Set{
				ID:                uuid.New(),
				WorkoutExerciseID: we.ID,
				OrderIndex:        i,
				Reps:              ph.Reps,
				IsWarmup:          ph.IsWarmup,
				CreatedAt:         now,
			})
		}
		if _, err := q.InsertSets(ctx, sets); err != nil {
			return Result{}, err
		}

		res.Exercises = append(res.Exercises, AppliedExercise{
			ProgramExerciseID: pe.ID,
			ExerciseName:      ex.Name,
			WorkoutExercise:   we,
			Sets:              sets,
		})
	}
	return res, nil
}

// workoutFor returns the log workout of the planned day, creating it if
// needed.
func (s *Service) workoutFor(ctx context.Context, q *storage.Queries, pw models.PlannedWorkout) (models.Workout, error) {
	w, err := q.GetWorkoutByDay(ctx, pw.DayKey, models.SourceLog)
	if err == nil {
		return w, nil
	}
	if !storage.IsNotFound(err) {
		return models.Workout{}, err
	}
	w = models.Workout{ID: uuid.New(), DayKey: pw.DayKey, Source: models.SourceLog, StartedAt: pw.PlannedFor}
	if err := q.InsertWorkout(ctx, w); err != nil {
		return models.Workout{}, err
	}
	return w, nil
}

func (s *Service) existing(ctx context.Context, q *storage.Queries, res Result, prior []models.WorkoutExercise) (Result, error) {
	res.AlreadyApplied = true
	res.WorkoutID = prior[0].WorkoutID
	for _, we := range prior {
		sets, err := q.ListSets(ctx, we.ID)
		if err != nil {
			return Result{}, err
		}
		name := ""
		if ex, err := q.GetExercise(ctx, we.ExerciseID); err == nil {
			name = ex.Name
		}
		res.Exercises = append(res.Exercises, AppliedExercise{ExerciseName: name, WorkoutExercise: we, Sets: sets})
	}
	return res, nil
}

func referential(err error, kind string, id uuid.UUID) error {
	if storage.IsNotFound(err) {
		return &ReferentialError{Kind: kind, ID: id}
	}
	return err
}
