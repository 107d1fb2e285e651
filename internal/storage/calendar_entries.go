package storage

import (
	"context"
	"fmt"

	"github.com/claude/workoutlog/internal/models"
	"github.com/google/uuid"
)

// ReplaceCalendarEntries deletes a program's calendar entries and inserts
// the given ones in order. Run it inside a transaction.
func (q *Queries) ReplaceCalendarEntries(ctx context.Context, programID uuid.UUID, entries []models.CalendarEntry) error {
	if _, err := q.exec(ctx, `DELETE FROM calendar_entries WHERE program_id = ?`, programID); err != nil {
		return fmt.Errorf("deleting calendar entries: %w", err)
	}
	for i, e := range entries {
		_, err := q.exec(ctx,
			`INSERT INTO calendar_entries (id, program_id, psl_session_id, session_name, date_iso, order_index, exercises, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, programID, e.PSLSessionID, e.SessionName, e.DateISO, i, e.Exercises, toMillis(e.CreatedAt))
		if err != nil {
			return fmt.Errorf("inserting calendar entry %s: %w", e.DateISO, err)
		}
	}
	return nil
}

// ListCalendarEntries returns entries with dates in [from, to] across all
// programs, or only programID's when it is not uuid.Nil. An empty bound is
// open.
func (q *Queries) ListCalendarEntries(ctx context.Context, programID uuid.UUID, from, to string) ([]models.CalendarEntry, error) {
	query := `SELECT id, program_id, psl_session_id, session_name, date_iso, exercises, created_at
		 FROM calendar_entries WHERE 1 = 1`
	var args []any
	if from != "" {
		query += ` AND date_iso >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND date_iso <= ?`
		args = append(args, to)
	}
	if programID != uuid.Nil {
		query += ` AND program_id = ?`
		args = append(args, programID)
	}
	query += ` ORDER BY date_iso, program_id, order_index`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying calendar entries: %w", err)
	}
	defer rows.Close()

	var result []models.CalendarEntry
	for rows.Next() {
		var (
			e       models.CalendarEntry
			created int64
		)
		if err := rows.Scan(&e.ID, &e.ProgramID, &e.PSLSessionID, &e.SessionName, &e.DateISO, &e.Exercises, &created); err != nil {
			return nil, fmt.Errorf("scanning calendar entry: %w", err)
		}
		e.CreatedAt = fromMillis(created)
		result = append(result, e)
	}
	return result, rows.Err()
}
