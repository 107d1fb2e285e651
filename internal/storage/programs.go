package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/workoutlog/internal/models"
	"github.com/google/uuid"
)

// InsertProgram creates a program.
func (q *Queries) InsertProgram(ctx context.Context, p models.Program) error {
	_, err := q.exec(ctx,
		`INSERT INTO programs (id, name, psl_source, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Source, p.IsActive, toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting program: %w", err)
	}
	return nil
}

const programColumns = `id, name, psl_source, is_active, created_at, updated_at`

func scanProgram(row interface{ Scan(...any) error }) (models.Program, error) {
	var (
		p                models.Program
		created, updated int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Source, &p.IsActive, &created, &updated); err != nil {
		return models.Program{}, err
	}
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}

// GetProgram returns the program with the given id.
func (q *Queries) GetProgram(ctx context.Context, id uuid.UUID) (models.Program, error) {
	p, err := scanProgram(q.queryRow(ctx,
		`SELECT `+programColumns+` FROM programs WHERE id = ?`, id))
	if err != nil {
		return models.Program{}, notFound(err, "program "+id.String())
	}
	return p, nil
}

// ListPrograms returns programs, newest first. With activeOnly set only
// active programs are returned.
func (q *Queries) ListPrograms(ctx context.Context, activeOnly bool) ([]models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs`
	var args []any
	if activeOnly {
		query += ` WHERE is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying programs: %w", err)
	}
	defer rows.Close()

	var result []models.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// SetProgramActive flips the active flag of a program.
func (q *Queries) SetProgramActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := q.exec(ctx,
		`UPDATE programs SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, toMillis(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating program %s: %w", id, err)
	}
	return requireAffected(res, "program "+id.String())
}

// DeleteProgram removes a program. Days, exercises, progressions, planned
// workouts and calendar entries go with it.
func (q *Queries) DeleteProgram(ctx context.Context, id uuid.UUID) error {
	res, err := q.exec(ctx, `DELETE FROM programs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting program %s: %w", id, err)
	}
	return requireAffected(res, "program "+id.String())
}

// InsertProgramDay creates a program day.
func (q *Queries) InsertProgramDay(ctx context.Context, d models.ProgramDay) error {
	var dow *int
	if d.DayOfWeek != nil {
		v := int(*d.DayOfWeek)
		dow = &v
	}
	var anchor *string
	if d.Anchor != nil {
		s := d.Anchor.String()
		anchor = &s
	}
	_, err := q.exec(ctx,
		`INSERT INTO program_days (id, program_id, name, order_index, schedule, day_of_week, interval_days, cycle_index, anchor_date, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ProgramID, d.Name, d.OrderIndex, string(d.Schedule), dow, d.IntervalDays, d.CycleIndex, anchor, d.Note)
	if err != nil {
		return fmt.Errorf("inserting program day: %w", err)
	}
	return nil
}

const programDayColumns = `id, program_id, name, order_index, schedule, day_of_week, interval_days, cycle_index, anchor_date, note`

func scanProgramDay(row interface{ Scan(...any) error }) (models.ProgramDay, error) {
	var (
		d        models.ProgramDay
		schedule string
		dow      sql.NullInt64
		interval sql.NullInt64
		cycle    sql.NullInt64
		anchor   sql.NullString
	)
	if err := row.Scan(&d.ID, &d.ProgramID, &d.Name, &d.OrderIndex, &schedule, &dow, &interval, &cycle, &anchor, &d.Note); err != nil {
		return models.ProgramDay{}, err
	}
	d.Schedule = models.Schedule(schedule)
	if dow.Valid {
		wd := time.Weekday(dow.Int64)
		d.DayOfWeek = &wd
	}
	if interval.Valid {
		n := int(interval.Int64)
		d.IntervalDays = &n
	}
	if cycle.Valid {
		n := int(cycle.Int64)
		d.CycleIndex = &n
	}
	if anchor.Valid {
		a, err := civil.ParseDate(anchor.String)
		if err != nil {
			return models.ProgramDay{}, fmt.Errorf("parsing anchor date %q: %w", anchor.String, err)
		}
		d.Anchor = &a
	}
	return d, nil
}

// GetProgramDay returns the program day with the given id.
func (q *Queries) GetProgramDay(ctx context.Context, id uuid.UUID) (models.ProgramDay, error) {
	d, err := scanProgramDay(q.queryRow(ctx,
		`SELECT `+programDayColumns+` FROM program_days WHERE id = ?`, id))
	if err != nil {
		return models.ProgramDay{}, notFound(err, "program day "+id.String())
	}
	return d, nil
}

// ListProgramDays returns the days of a program in order.
func (q *Queries) ListProgramDays(ctx context.Context, programID uuid.UUID) ([]models.ProgramDay, error) {
	rows, err := q.query(ctx,
		`SELECT `+programDayColumns+` FROM program_days WHERE program_id = ? ORDER BY order_index, id`,
		programID)
	if err != nil {
		return nil, fmt.Errorf("querying program days: %w", err)
	}
	defer rows.Close()

	var result []models.ProgramDay
	for rows.Next() {
		d, err := scanProgramDay(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning program day: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// InsertProgramExercise creates a program exercise.
func (q *Queries) InsertProgramExercise(ctx context.Context, e models.ProgramExercise) error {
	_, err := q.exec(ctx,
		`INSERT INTO program_exercises (id, program_day_id, exercise_id, order_index, prescription)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.ProgramDayID, e.ExerciseID, e.OrderIndex, e.Prescription)
	if err != nil {
		return fmt.Errorf("inserting program exercise: %w", err)
	}
	return nil
}

// UpdateProgramExercisePrescription replaces the stored prescription.
func (q *Queries) UpdateProgramExercisePrescription(ctx context.Context, id uuid.UUID, prescription string) error {
	res, err := q.exec(ctx,
		`UPDATE program_exercises SET prescription = ? WHERE id = ?`, prescription, id)
	if err != nil {
		return fmt.Errorf("updating program exercise %s: %w", id, err)
	}
	return requireAffected(res, "program exercise "+id.String())
}

const programExerciseColumns = `pe.id, pe.program_day_id, pe.exercise_id, pe.order_index, pe.prescription`

func scanProgramExercise(row interface{ Scan(...any) error }) (models.ProgramExercise, error) {
	var e models.ProgramExercise
	err := row.Scan(&e.ID, &e.ProgramDayID, &e.ExerciseID, &e.OrderIndex, &e.Prescription)
	return e, err
}

// GetProgramExercise returns the program exercise with the given id.
func (q *Queries) GetProgramExercise(ctx context.Context, id uuid.UUID) (models.ProgramExercise, error) {
	e, err := scanProgramExercise(q.queryRow(ctx,
		`SELECT `+programExerciseColumns+` FROM program_exercises pe WHERE pe.id = ?`, id))
	if err != nil {
		return models.ProgramExercise{}, notFound(err, "program exercise "+id.String())
	}
	return e, nil
}

// ListProgramExercises returns the exercises of a program day in order.
func (q *Queries) ListProgramExercises(ctx context.Context, dayID uuid.UUID) ([]models.ProgramExercise, error) {
	return q.listProgramExercises(ctx,
		`SELECT `+programExerciseColumns+` FROM program_exercises pe
		 WHERE pe.program_day_id = ? ORDER BY pe.order_index, pe.id`, dayID)
}

// ListProgramExercisesByExercise returns every program exercise of a program
// that uses the given exercise.
func (q *Queries) ListProgramExercisesByExercise(ctx context.Context, programID, exerciseID uuid.UUID) ([]models.ProgramExercise, error) {
	return q.listProgramExercises(ctx,
		`SELECT `+programExerciseColumns+` FROM program_exercises pe
		 JOIN program_days d ON d.id = pe.program_day_id
		 WHERE d.program_id = ? AND pe.exercise_id = ?
		 ORDER BY d.order_index, pe.order_index`, programID, exerciseID)
}

func (q *Queries) listProgramExercises(ctx context.Context, query string, args ...any) ([]models.ProgramExercise, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying program exercises: %w", err)
	}
	defer rows.Close()

	var result []models.ProgramExercise
	for rows.Next() {
		e, err := scanProgramExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning program exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// ProgramIDForExercise resolves the program owning a program exercise.
func (q *Queries) ProgramIDForExercise(ctx context.Context, programExerciseID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.queryRow(ctx,
		`SELECT d.program_id FROM program_exercises pe
		 JOIN program_days d ON d.id = pe.program_day_id
		 WHERE pe.id = ?`, programExerciseID).Scan(&id)
	if err != nil {
		return uuid.Nil, notFound(err, "program exercise "+programExerciseID.String())
	}
	return id, nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
