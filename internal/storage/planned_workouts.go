package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/claude/workoutlog/internal/models"
	"github.com/google/uuid"
)

// InsertPlannedWorkout inserts a planned workout. Returns true if inserted,
// false if the program already has one on that day.
func (q *Queries) InsertPlannedWorkout(ctx context.Context, w models.PlannedWorkout) (bool, error) {
	res, err := q.exec(ctx,
		`INSERT INTO planned_workouts (id, program_id, program_day_id, planned_for, day_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		w.ID, w.ProgramID, w.ProgramDayID, toMillis(w.PlannedFor), w.DayKey, toMillis(w.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("inserting planned workout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting planned workout: %w", err)
	}
	return n > 0, nil
}

const plannedWorkoutColumns = `id, program_id, program_day_id, planned_for, day_key, created_at`

func scanPlannedWorkout(row interface{ Scan(...any) error }) (models.PlannedWorkout, error) {
	var (
		w                models.PlannedWorkout
		planned, created int64
	)
	if err := row.Scan(&w.ID, &w.ProgramID, &w.ProgramDayID, &planned, &w.DayKey, &created); err != nil {
		return models.PlannedWorkout{}, err
	}
	w.PlannedFor = fromMillis(planned)
	w.CreatedAt = fromMillis(created)
	return w, nil
}

// GetPlannedWorkout returns the planned workout with the given id.
func (q *Queries) GetPlannedWorkout(ctx context.Context, id uuid.UUID) (models.PlannedWorkout, error) {
	w, err := scanPlannedWorkout(q.queryRow(ctx,
		`SELECT `+plannedWorkoutColumns+` FROM planned_workouts WHERE id = ?`, id))
	if err != nil {
		return models.PlannedWorkout{}, notFound(err, "planned workout "+id.String())
	}
	return w, nil
}

// ListPlannedWorkouts returns a program's planned workouts with day keys in
// [from, to], ordered by date. Empty bounds are open.
func (q *Queries) ListPlannedWorkouts(ctx context.Context, programID uuid.UUID, from, to string) ([]models.PlannedWorkout, error) {
	query := `SELECT ` + plannedWorkoutColumns + ` FROM planned_workouts WHERE program_id = ?`
	args := []any{programID}
	if from != "" {
		query += ` AND day_key >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND day_key <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY day_key`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying planned workouts: %w", err)
	}
	defer rows.Close()

	var result []models.PlannedWorkout
	for rows.Next() {
		w, err := scanPlannedWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning planned workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// PlannedDayKeys returns the set of day keys a program already has planned.
func (q *Queries) PlannedDayKeys(ctx context.Context, programID uuid.UUID) (map[string]bool, error) {
	rows, err := q.query(ctx,
		`SELECT day_key FROM planned_workouts WHERE program_id = ?`, programID)
	if err != nil {
		return nil, fmt.Errorf("querying planned day keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning planned day key: %w", err)
		}
		keys[k] = true
	}
	return keys, rows.Err()
}

// LastPlannedByDay returns, per program day, the latest planned date.
func (q *Queries) LastPlannedByDay(ctx context.Context, programID uuid.UUID) (map[uuid.UUID]civil.Date, error) {
	rows, err := q.query(ctx,
		`SELECT program_day_id, MAX(day_key) FROM planned_workouts
		 WHERE program_id = ? GROUP BY program_day_id`, programID)
	if err != nil {
		return nil, fmt.Errorf("querying last planned days: %w", err)
	}
	defer rows.Close()

	last := make(map[uuid.UUID]civil.Date)
	for rows.Next() {
		var (
			id  uuid.UUID
			key string
		)
		if err := rows.Scan(&id, &key); err != nil {
			return nil, fmt.Errorf("scanning last planned day: %w", err)
		}
		d, err := civil.ParseDate(key)
		if err != nil {
			return nil, fmt.Errorf("parsing day key %q: %w", key, err)
		}
		last[id] = d
	}
	return last, rows.Err()
}
