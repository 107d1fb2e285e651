package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/workoutlog/internal/models"
	"github.com/google/uuid"
)

// InsertExercise creates an exercise.
func (q *Queries) InsertExercise(ctx context.Context, e models.Exercise) error {
	_, err := q.exec(ctx,
		`INSERT INTO exercises (id, name, created_at) VALUES (?, ?, ?)`,
		e.ID, e.Name, toMillis(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting exercise %q: %w", e.Name, err)
	}
	return nil
}

// GetExercise returns the exercise with the given id.
func (q *Queries) GetExercise(ctx context.Context, id uuid.UUID) (models.Exercise, error) {
	var (
		e       models.Exercise
		created int64
	)
	err := q.queryRow(ctx,
		`SELECT id, name, created_at FROM exercises WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &created)
	if err != nil {
		return models.Exercise{}, notFound(err, "exercise "+id.String())
	}
	e.CreatedAt = fromMillis(created)
	return e, nil
}

// GetExerciseByName looks an exercise up by its exact name.
func (q *Queries) GetExerciseByName(ctx context.Context, name string) (models.Exercise, error) {
	var (
		e       models.Exercise
		created int64
	)
	err := q.queryRow(ctx,
		`SELECT id, name, created_at FROM exercises WHERE name = ?`, name,
	).Scan(&e.ID, &e.Name, &created)
	if err != nil {
		return models.Exercise{}, notFound(err, "exercise "+name)
	}
	e.CreatedAt = fromMillis(created)
	return e, nil
}

// EnsureExercise returns the id of the named exercise, creating it if
// needed. created reports whether a new row was inserted.
func (q *Queries) EnsureExercise(ctx context.Context, name string) (id uuid.UUID, created bool, err error) {
	name = strings.TrimSpace(name)
	e, err := q.GetExerciseByName(ctx, name)
	if err == nil {
		return e.ID, false, nil
	}
	if !IsNotFound(err) {
		return uuid.Nil, false, err
	}
	e = models.Exercise{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	if err := q.InsertExercise(ctx, e); err != nil {
		return uuid.Nil, false, err
	}
	return e.ID, true, nil
}

// ListExercises returns all exercises ordered by name.
func (q *Queries) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := q.query(ctx, `SELECT id, name, created_at FROM exercises ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var (
			e       models.Exercise
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &created); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		e.CreatedAt = fromMillis(created)
		result = append(result, e)
	}
	return result, rows.Err()
}
