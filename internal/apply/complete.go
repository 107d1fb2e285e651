package apply

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/google/uuid"
)

// ErrInvalidLog is returned when logged set values are out of range.
var ErrInvalidLog = errors.New("invalid logged set")

// LoggedSet is one set as the user performed it.
type LoggedSet struct {
	WeightKg *float64 `json:"weight_kg,omitempty"`
	Reps     *int     `json:"reps,omitempty"`
	RPE      *float64 `json:"rpe,omitempty"`
	IsWarmup bool     `json:"is_warmup,omitempty"`
}

func (l LoggedSet) validate() error {
	switch {
	case l.WeightKg != nil && *l.WeightKg < 0:
		return fmt.Errorf("%w: weight_kg must not be negative", ErrInvalidLog)
	case l.Reps != nil && *l.Reps < 0:
		return fmt.Errorf("%w: reps must not be negative", ErrInvalidLog)
	case l.RPE != nil && (*l.RPE < 0 || *l.RPE > 10):
		return fmt.Errorf("%w: rpe must be between 0 and 10", ErrInvalidLog)
	}
	return nil
}

// Completed is the outcome of Complete.
type Completed struct {
	WorkoutExercise models.WorkoutExercise `json:"workout_exercise"`
	Sets            []models.Set           `json:"sets"`
}

// Complete records the sets actually performed for a workout exercise and
// marks it completed. The logged sets replace whatever the exercise held,
// placeholders included, so the completed session feeds progression exactly
// as performed. Logging again overwrites the previous log.
func (s *Service) Complete(ctx context.Context, workoutExerciseID uuid.UUID, logged []LoggedSet) (Completed, error) {
	if len(logged) == 0 {
		return Completed{}, fmt.Errorf("%w: at least one set is required", ErrInvalidLog)
	}
	for i, l := range logged {
		if err := l.validate(); err != nil {
			return Completed{}, fmt.Errorf("set %d: %w", i+1, err)
		}
	}

	var out Completed
	err := s.db.WithTx(ctx, func(q *storage.Queries) error {
		we, err := q.GetWorkoutExercise(ctx, workoutExerciseID)
		if err != nil {
			return err
		}
		if _, err := q.DeleteSets(ctx, we.ID); err != nil {
			return err
		}

		now := s.now()
		sets := make([]models.Set, 0, len(logged))
		for i, l := range logged {
			sets = append(sets, models.Set{
				ID:                uuid.New(),
				WorkoutExerciseID: we.ID,
				OrderIndex:        i,
				WeightKg:          l.WeightKg,
				Reps:              l.Reps,
				RPE:               l.RPE,
				IsWarmup:          l.IsWarmup,
				CreatedAt:         now,
			})
		}
		if _, err := q.InsertSets(ctx, sets); err != nil {
			return err
		}
		if err := q.CompleteWorkoutExercise(ctx, we.ID, now); err != nil {
			return err
		}
		we.CompletedAt = &now
		out = Completed{WorkoutExercise: we, Sets: sets}
		return nil
	})
	if err != nil {
		return Completed{}, fmt.Errorf("completing workout exercise: %w", err)
	}

	s.log.Info("workout exercise completed",
		"workout_exercise_id", workoutExerciseID,
		"sets", len(logged))
	return out, nil
}
