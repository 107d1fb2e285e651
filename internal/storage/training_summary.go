package storage

import (
	"context"
	"fmt"
)

// ExerciseVolume holds aggregated working-set volume for one exercise.
// Placeholder sets without a weight or rep count are not counted.
type ExerciseVolume struct {
	ExerciseName string  `json:"exercise_name"`
	Sessions     int     `json:"sessions"`
	WorkingSets  int     `json:"working_sets"`
	TotalReps    int     `json:"total_reps"`
	TonnageKg    float64 `json:"tonnage_kg"`
	TopWeightKg  float64 `json:"top_weight_kg"`
}

// GetTrainingSummary returns working-set volume per exercise for workouts
// with day keys in [from, to], highest tonnage first. Empty bounds are open.
func (q *Queries) GetTrainingSummary(ctx context.Context, from, to string) ([]ExerciseVolume, error) {
	query := `SELECT e.name,
		        COUNT(DISTINCT we.id),
		        COUNT(*),
		        COALESCE(SUM(s.reps), 0),
		        COALESCE(SUM(s.weight_kg * s.reps), 0),
		        COALESCE(MAX(s.weight_kg), 0)
		 FROM sets s
		 JOIN workout_exercises we ON we.id = s.workout_exercise_id
		 JOIN workouts w ON w.id = we.workout_id
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE NOT s.is_warmup AND s.weight_kg IS NOT NULL AND s.reps IS NOT NULL`
	var args []any
	if from != "" {
		query += ` AND w.day_key >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND w.day_key <= ?`
		args = append(args, to)
	}
	query += ` GROUP BY e.name ORDER BY 5 DESC, e.name`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying training summary: %w", err)
	}
	defer rows.Close()

	var result []ExerciseVolume
	for rows.Next() {
		var v ExerciseVolume
		if err := rows.Scan(&v.ExerciseName, &v.Sessions, &v.WorkingSets, &v.TotalReps, &v.TonnageKg, &v.TopWeightKg); err != nil {
			return nil, fmt.Errorf("scanning training summary: %w", err)
		}
		result = append(result, v)
	}
	return result, rows.Err()
}
