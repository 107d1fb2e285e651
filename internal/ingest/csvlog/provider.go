package csvlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/claude/workoutlog/internal/ingest"
	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/google/uuid"
)

// Source is the import log source name for CSV imports.
const Source = "workoutlog_csv"

// Provider stores WorkoutLog CSV exports as completed workouts.
type Provider struct {
	db  *storage.DB
	log *slog.Logger
	loc *time.Location
	now func() time.Time
}

// NewProvider creates a CSV provider interpreting export times in loc.
func NewProvider(db *storage.DB, loc *time.Location, log *slog.Logger) *Provider {
	if loc == nil {
		loc = time.Local
	}
	return &Provider{db: db, log: log, loc: loc, now: time.Now}
}

// Ingest parses an export, stores it and records the run in the import log.
func (p *Provider) Ingest(ctx context.Context, r io.Reader) (*ingest.Result, error) {
	started := p.now()
	logID, logErr := p.db.InsertImportLog(ctx, storage.ImportLog{
		CreatedAt: started,
		Source:    Source,
		Status:    "running",
	})
	if logErr != nil {
		p.log.Error("failed to create import log", "error", logErr)
	}

	result, err := p.ingest(ctx, r)

	if logErr == nil {
		p.finishLog(ctx, logID, started, result, err)
	}
	if err != nil {
		return nil, err
	}
	p.log.Info("csv import complete",
		"rows", result.RowsReceived,
		"workouts_inserted", result.WorkoutsInserted,
		"workouts_replaced", result.WorkoutsReplaced,
		"sets_inserted", result.SetsInserted)
	return result, nil
}

func (p *Provider) ingest(ctx context.Context, r io.Reader) (*ingest.Result, error) {
	sessions, err := Parse(r, p.loc)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	result, err := p.Store(ctx, sessions)
	if err != nil {
		return nil, fmt.Errorf("storing sessions: %w", err)
	}
	return result, nil
}

func (p *Provider) finishLog(ctx context.Context, id uuid.UUID, started time.Time, result *ingest.Result, err error) {
	durationMs := int(p.now().Sub(started).Milliseconds())
	entry := storage.ImportLog{Status: "success", DurationMs: &durationMs}
	if result != nil {
		entry.RowsReceived = result.RowsReceived
		entry.WorkoutsInserted = result.WorkoutsInserted
		entry.ExercisesInserted = result.ExercisesInserted
		entry.SetsInserted = result.SetsInserted
	}
	if err != nil {
		msg := err.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	}
	if err := p.db.UpdateImportLog(ctx, id, entry); err != nil {
		p.log.Error("failed to finalize import log", "log_id", id, "error", err)
	}
}

// Store writes parsed sessions in one transaction. An existing CSV workout
// on the same day is deleted first so re-imports reflect the latest export.
func (p *Provider) Store(ctx context.Context, sessions []models.LogSession) (*ingest.Result, error) {
	result := &ingest.Result{}
	err := p.db.WithTx(ctx, func(q *storage.Queries) error {
		*result = ingest.Result{}
		for _, s := range sessions {
			r, err := storeSession(ctx, q, s)
			if err != nil {
				return fmt.Errorf("session %s: %w", s.Date, err)
			}
			result.Add(r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func storeSession(ctx context.Context, q *storage.Queries, s models.LogSession) (ingest.Result, error) {
	var r ingest.Result
	dayKey := s.Date.String()

	deleted, err := q.DeleteWorkoutByDay(ctx, dayKey, models.SourceCSV)
	if err != nil {
		return r, err
	}
	if deleted > 0 {
		r.WorkoutsReplaced++
	}

	completed := s.CompletedAt
	w := models.Workout{
		ID:          uuid.New(),
		DayKey:      dayKey,
		Source:      models.SourceCSV,
		StartedAt:   s.StartedAt,
		CompletedAt: &completed,
	}
	if err := q.InsertWorkout(ctx, w); err != nil {
		return r, err
	}
	r.WorkoutsInserted++

	for i, ex := range s.Exercises {
		exerciseID, created, err := q.EnsureExercise(ctx, ex.Name)
		if err != nil {
			return r, fmt.Errorf("exercise %q: %w", ex.Name, err)
		}
		if created {
			r.ExercisesInserted++
		}
		performed := ex.PerformedAt
		we := models.WorkoutExercise{
			ID:          uuid.New(),
			WorkoutID:   w.ID,
			ExerciseID:  exerciseID,
			OrderIndex:  i,
			PerformedAt: performed,
			CompletedAt: &performed,
			Notes:       ex.Notes,
		}
		if err := q.InsertWorkoutExercise(ctx, we); err != nil {
			return r, fmt.Errorf("exercise %q: %w", ex.Name, err)
		}

		sets := make([]models.Set, len(ex.Sets))
		for j, set := range ex.Sets {
			sets[j] = models.Set{
				ID:                uuid.New(),
				WorkoutExerciseID: we.ID,
				OrderIndex:        j,
				WeightKg:          set.WeightKg,
				Reps:              set.Reps,
				CreatedAt:         set.PerformedAt,
			}
		}
		n, err := q.InsertSets(ctx, sets)
		if err != nil {
			return r, fmt.Errorf("sets of %q: %w", ex.Name, err)
		}
		r.SetsInserted += n
		r.RowsReceived += len(ex.Sets)
	}
	return r, nil
}
