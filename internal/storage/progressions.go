package storage

import (
	"context"
	"fmt"

	"github.com/claude/workoutlog/internal/models"
	"github.com/google/uuid"
)

// InsertProgression creates a progression rule.
func (q *Queries) InsertProgression(ctx context.Context, p models.Progression) error {
	_, err := q.exec(ctx,
		`INSERT INTO progressions (id, program_exercise_id, type, value, cadence, cap_kg, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ProgramExerciseID, p.Type, p.Value, p.Cadence, p.CapKg, toMillis(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting progression: %w", err)
	}
	return nil
}

// DeleteProgressions removes every rule of a program exercise.
func (q *Queries) DeleteProgressions(ctx context.Context, programExerciseID uuid.UUID) (int64, error) {
	res, err := q.exec(ctx,
		`DELETE FROM progressions WHERE program_exercise_id = ?`, programExerciseID)
	if err != nil {
		return 0, fmt.Errorf("deleting progressions: %w", err)
	}
	return res.RowsAffected()
}

// ListProgressions returns the rules of a program exercise, oldest first.
func (q *Queries) ListProgressions(ctx context.Context, programExerciseID uuid.UUID) ([]models.Progression, error) {
	rows, err := q.query(ctx,
		`SELECT id, program_exercise_id, type, value, cadence, cap_kg, created_at
		 FROM progressions WHERE program_exercise_id = ?
		 ORDER BY created_at, id`, programExerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying progressions: %w", err)
	}
	defer rows.Close()

	var result []models.Progression
	for rows.Next() {
		var (
			p       models.Progression
			created int64
		)
		if err := rows.Scan(&p.ID, &p.ProgramExerciseID, &p.Type, &p.Value, &p.Cadence, &p.CapKg, &created); err != nil {
			return nil, fmt.Errorf("scanning progression: %w", err)
		}
		p.CreatedAt = fromMillis(created)
		result = append(result, p)
	}
	return result, rows.Err()
}
