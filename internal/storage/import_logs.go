package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportLog represents a single import operation's outcome.
type ImportLog struct {
	ID                uuid.UUID `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	Source            string    `json:"source"`
	Status            string    `json:"status"`
	RowsReceived      int       `json:"rows_received"`
	WorkoutsInserted  int       `json:"workouts_inserted"`
	ExercisesInserted int       `json:"exercises_inserted"`
	SetsInserted      int64     `json:"sets_inserted"`
	DurationMs        *int      `json:"duration_ms"`
	ErrorMessage      *string   `json:"error_message"`
}

// InsertImportLog creates a new import log entry and returns its ID.
func (q *Queries) InsertImportLog(ctx context.Context, log ImportLog) (uuid.UUID, error) {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	_, err := q.exec(ctx,
		`INSERT INTO import_logs (id, created_at, source, status, rows_received, workouts_inserted,
		 exercises_inserted, sets_inserted, duration_ms, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, toMillis(log.CreatedAt), log.Source, log.Status, log.RowsReceived, log.WorkoutsInserted,
		log.ExercisesInserted, log.SetsInserted, log.DurationMs, log.ErrorMessage)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting import log: %w", err)
	}
	return log.ID, nil
}

// UpdateImportLog updates an existing import log entry (typically from "running" to "success" or "error").
func (q *Queries) UpdateImportLog(ctx context.Context, id uuid.UUID, log ImportLog) error {
	_, err := q.exec(ctx,
		`UPDATE import_logs SET
		 status = ?, rows_received = ?, workouts_inserted = ?, exercises_inserted = ?,
		 sets_inserted = ?, duration_ms = ?, error_message = ?
		 WHERE id = ?`,
		log.Status, log.RowsReceived, log.WorkoutsInserted, log.ExercisesInserted,
		log.SetsInserted, log.DurationMs, log.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("updating import log %s: %w", id, err)
	}
	return nil
}

// QueryImportLogs returns the most recent import logs.
func (q *Queries) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.query(ctx,
		`SELECT id, created_at, source, status, rows_received, workouts_inserted,
		 exercises_inserted, sets_inserted, duration_ms, error_message
		 FROM import_logs
		 ORDER BY created_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var (
			l       ImportLog
			created int64
		)
		if err := rows.Scan(&l.ID, &created, &l.Source, &l.Status, &l.RowsReceived, &l.WorkoutsInserted,
			&l.ExercisesInserted, &l.SetsInserted, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		l.CreatedAt = fromMillis(created)
		result = append(result, l)
	}
	return result, rows.Err()
}
