package storage

import (
	"context"
	"fmt"
)

// DataStats holds aggregate statistics about all stored data.
type DataStats struct {
	TotalPrograms    int64        `json:"total_programs"`
	ActivePrograms   int64        `json:"active_programs"`
	TotalPlanned     int64        `json:"total_planned"`
	TotalWorkouts    int64        `json:"total_workouts"`
	TotalExercises   int64        `json:"total_exercises"`
	TotalSets        int64        `json:"total_sets"`
	EarliestWorkout  *string      `json:"earliest_workout"`
	LatestWorkout    *string      `json:"latest_workout"`
	WorkoutsBySource []SourceStat `json:"workouts_by_source"`
}

// SourceStat counts workouts from one source.
type SourceStat struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// GetDataStats returns aggregate statistics for the stored data.
func (q *Queries) GetDataStats(ctx context.Context) (*DataStats, error) {
	stats := &DataStats{}

	counts := []struct {
		what  string
		query string
		dst   *int64
	}{
		{"programs", `SELECT COUNT(*) FROM programs`, &stats.TotalPrograms},
		{"active programs", `SELECT COUNT(*) FROM programs WHERE is_active`, &stats.ActivePrograms},
		{"planned workouts", `SELECT COUNT(*) FROM planned_workouts`, &stats.TotalPlanned},
		{"workouts", `SELECT COUNT(*) FROM workouts`, &stats.TotalWorkouts},
		{"exercises", `SELECT COUNT(*) FROM exercises`, &stats.TotalExercises},
		{"sets", `SELECT COUNT(*) FROM sets`, &stats.TotalSets},
	}
	for _, c := range counts {
		if err := q.queryRow(ctx, c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("counting %s: %w", c.what, err)
		}
	}

	err := q.queryRow(ctx, `SELECT MIN(day_key), MAX(day_key) FROM workouts`).
		Scan(&stats.EarliestWorkout, &stats.LatestWorkout)
	if err != nil {
		return nil, fmt.Errorf("querying date range: %w", err)
	}

	rows, err := q.query(ctx,
		`SELECT source, COUNT(*) FROM workouts
		 GROUP BY source
		 ORDER BY COUNT(*) DESC, source`)
	if err != nil {
		return nil, fmt.Errorf("querying workouts by source: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s SourceStat
		if err := rows.Scan(&s.Source, &s.Count); err != nil {
			return nil, fmt.Errorf("scanning source stat: %w", err)
		}
		stats.WorkoutsBySource = append(stats.WorkoutsBySource, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
