package storage

import (
	"context"
	"fmt"

	"github.com/claude/workoutlog/internal/models"
	"github.com/google/uuid"
)

// InsertSets inserts sets one row at a time so the same query works on
// both dialects. Returns the count inserted.
func (q *Queries) InsertSets(ctx context.Context, sets []models.Set) (int64, error) {
	var n int64
	for _, s := range sets {
		_, err := q.exec(ctx,
			`INSERT INTO sets (id, workout_exercise_id, order_index, weight_kg, reps, rpe, is_warmup, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.WorkoutExerciseID, s.OrderIndex, s.WeightKg, s.Reps, s.RPE, s.IsWarmup, toMillis(s.CreatedAt))
		if err != nil {
			return n, fmt.Errorf("inserting set: %w", err)
		}
		n++
	}
	return n, nil
}

// DeleteSets removes every set of a workout exercise. Returns the count
// deleted.
func (q *Queries) DeleteSets(ctx context.Context, workoutExerciseID uuid.UUID) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM sets WHERE workout_exercise_id = ?`, workoutExerciseID)
	if err != nil {
		return 0, fmt.Errorf("deleting sets: %w", err)
	}
	return res.RowsAffected()
}

// ListSets returns the sets of a workout exercise in order.
func (q *Queries) ListSets(ctx context.Context, workoutExerciseID uuid.UUID) ([]models.Set, error) {
	rows, err := q.query(ctx,
		`SELECT id, workout_exercise_id, order_index, weight_kg, reps, rpe, is_warmup, created_at
		 FROM sets WHERE workout_exercise_id = ?
		 ORDER BY order_index, id`, workoutExerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	var result []models.Set
	for rows.Next() {
		var (
			s       models.Set
			created int64
		)
		if err := rows.Scan(&s.ID, &s.WorkoutExerciseID, &s.OrderIndex, &s.WeightKg, &s.Reps, &s.RPE, &s.IsWarmup, &created); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		s.CreatedAt = fromMillis(created)
		result = append(result, s)
	}
	return result, rows.Err()
}

// LastCompletedSession returns the most recent completed workout exercise
// for an exercise with its working (non-warmup) sets.
func (q *Queries) LastCompletedSession(ctx context.Context, exerciseID uuid.UUID) (models.CompletedSession, error) {
	var (
		s         models.CompletedSession
		performed int64
	)
	err := q.queryRow(ctx,
		`SELECT id, performed_at FROM workout_exercises
		 WHERE exercise_id = ? AND completed_at IS NOT NULL
		 ORDER BY performed_at DESC, completed_at DESC
		 LIMIT 1`, exerciseID).Scan(&s.WorkoutExerciseID, &performed)
	if err != nil {
		return models.CompletedSession{}, notFound(err, "completed session for exercise "+exerciseID.String())
	}
	s.PerformedAt = fromMillis(performed)

	sets, err := q.ListSets(ctx, s.WorkoutExerciseID)
	if err != nil {
		return models.CompletedSession{}, err
	}
	for _, set := range sets {
		if !set.IsWarmup {
			s.Sets = append(s.Sets, set)
		}
	}
	return s, nil
}
