package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/workoutlog/internal/models"
	"github.com/google/uuid"
)

// InsertWorkout creates a workout.
func (q *Queries) InsertWorkout(ctx context.Context, w models.Workout) error {
	_, err := q.exec(ctx,
		`INSERT INTO workouts (id, day_key, source, started_at, completed_at, notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID, w.DayKey, w.Source, toMillis(w.StartedAt), toMillisPtr(w.CompletedAt), w.Notes)
	if err != nil {
		return fmt.Errorf("inserting workout: %w", err)
	}
	return nil
}

const workoutColumns = `id, day_key, source, started_at, completed_at, notes`

func scanWorkout(row interface{ Scan(...any) error }) (models.Workout, error) {
	var (
		w         models.Workout
		started   int64
		completed *int64
	)
	if err := row.Scan(&w.ID, &w.DayKey, &w.Source, &started, &completed, &w.Notes); err != nil {
		return models.Workout{}, err
	}
	w.StartedAt = fromMillis(started)
	w.CompletedAt = fromMillisPtr(completed)
	return w, nil
}

// GetWorkoutByDay returns the workout of a day from one source.
func (q *Queries) GetWorkoutByDay(ctx context.Context, dayKey, source string) (models.Workout, error) {
	w, err := scanWorkout(q.queryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE day_key = ? AND source = ?`, dayKey, source))
	if err != nil {
		return models.Workout{}, notFound(err, "workout "+source+":"+dayKey)
	}
	return w, nil
}

// ListWorkouts returns workouts with day keys in [from, to], oldest first.
// Empty bounds are open.
func (q *Queries) ListWorkouts(ctx context.Context, from, to string) ([]models.Workout, error) {
	query := `SELECT ` + workoutColumns + ` FROM workouts WHERE 1 = 1`
	var args []any
	if from != "" {
		query += ` AND day_key >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND day_key <= ?`
		args = append(args, to)
	}
	rows, err := q.query(ctx, query+` ORDER BY day_key, source`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// DeleteWorkoutByDay removes a day's workout from one source together with
// its exercises and sets. Returns the number of workouts deleted.
func (q *Queries) DeleteWorkoutByDay(ctx context.Context, dayKey, source string) (int64, error) {
	res, err := q.exec(ctx,
		`DELETE FROM workouts WHERE day_key = ? AND source = ?`, dayKey, source)
	if err != nil {
		return 0, fmt.Errorf("deleting workout %s:%s: %w", source, dayKey, err)
	}
	return res.RowsAffected()
}

// InsertWorkoutExercise creates a workout exercise.
func (q *Queries) InsertWorkoutExercise(ctx context.Context, e models.WorkoutExercise) error {
	_, err := q.exec(ctx,
		`INSERT INTO workout_exercises (id, workout_id, exercise_id, planned_workout_id, order_index, performed_at, completed_at, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.WorkoutID, e.ExerciseID, e.PlannedWorkoutID, e.OrderIndex,
		toMillis(e.PerformedAt), toMillisPtr(e.CompletedAt), e.Notes)
	if err != nil {
		return fmt.Errorf("inserting workout exercise: %w", err)
	}
	return nil
}

// MaxWorkoutExerciseOrder returns the highest order index in a workout, or
// -1 when it has no exercises.
func (q *Queries) MaxWorkoutExerciseOrder(ctx context.Context, workoutID uuid.UUID) (int, error) {
	var n int
	err := q.queryRow(ctx,
		`SELECT COALESCE(MAX(order_index), -1) FROM workout_exercises WHERE workout_id = ?`,
		workoutID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("querying max order index: %w", err)
	}
	return n, nil
}

const workoutExerciseColumns = `id, workout_id, exercise_id, planned_workout_id, order_index, performed_at, completed_at, notes`

func scanWorkoutExercise(row interface{ Scan(...any) error }) (models.WorkoutExercise, error) {
	var (
		e         models.WorkoutExercise
		planned   *uuid.UUID
		performed int64
		completed *int64
	)
	if err := row.Scan(&e.ID, &e.WorkoutID, &e.ExerciseID, &planned, &e.OrderIndex, &performed, &completed, &e.Notes); err != nil {
		return models.WorkoutExercise{}, err
	}
	e.PlannedWorkoutID = planned
	e.PerformedAt = fromMillis(performed)
	e.CompletedAt = fromMillisPtr(completed)
	return e, nil
}

// ListWorkoutExercises returns the exercises of a workout in order.
func (q *Queries) ListWorkoutExercises(ctx context.Context, workoutID uuid.UUID) ([]models.WorkoutExercise, error) {
	rows, err := q.query(ctx,
		`SELECT `+workoutExerciseColumns+` FROM workout_exercises
		 WHERE workout_id = ? ORDER BY order_index, id`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutExercise
	for rows.Next() {
		e, err := scanWorkoutExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// ListWorkoutExercisesByPlanned returns the exercises created from a
// planned workout, in order.
func (q *Queries) ListWorkoutExercisesByPlanned(ctx context.Context, plannedWorkoutID uuid.UUID) ([]models.WorkoutExercise, error) {
	rows, err := q.query(ctx,
		`SELECT `+workoutExerciseColumns+` FROM workout_exercises
		 WHERE planned_workout_id = ? ORDER BY order_index, id`, plannedWorkoutID)
	if err != nil {
		return nil, fmt.Errorf("querying applied exercises: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutExercise
	for rows.Next() {
		e, err := scanWorkoutExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// CompleteWorkoutExercise marks a workout exercise as finished.
func (q *Queries) CompleteWorkoutExercise(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := q.exec(ctx,
		`UPDATE workout_exercises SET completed_at = ? WHERE id = ?`, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("completing workout exercise %s: %w", id, err)
	}
	return requireAffected(res, "workout exercise "+id.String())
}

// GetWorkoutExercise returns the workout exercise with the given id.
func (q *Queries) GetWorkoutExercise(ctx context.Context, id uuid.UUID) (models.WorkoutExercise, error) {
	e, err := scanWorkoutExercise(q.queryRow(ctx,
		`SELECT `+workoutExerciseColumns+` FROM workout_exercises WHERE id = ?`, id))
	if err != nil {
		return models.WorkoutExercise{}, notFound(err, "workout exercise "+id.String())
	}
	return e, nil
}
