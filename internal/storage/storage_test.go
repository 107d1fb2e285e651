package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/claude/workoutlog/internal/storage/storagetest"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func seedProgram(t *testing.T, db *storage.DB) (models.Program, models.ProgramDay) {
	t.Helper()
	ctx := context.Background()
	now := time.UnixMilli(time.Now().UnixMilli())
	p := models.Program{ID: uuid.New(), Name: "Base", CreatedAt: now, UpdatedAt: now}
	if err := db.InsertProgram(ctx, p); err != nil {
		t.Fatal(err)
	}
	mon := time.Monday
	d := models.ProgramDay{ID: uuid.New(), ProgramID: p.ID, Name: "A", Schedule: models.ScheduleWeekly, DayOfWeek: &mon}
	if err := db.InsertProgramDay(ctx, d); err != nil {
		t.Fatal(err)
	}
	return p, d
}

// TestRebind verifies placeholders are numbered only for PostgreSQL.
func TestRebind(t *testing.T) {
	db := storagetest.New(t)
	if got := db.Queries.RebindForTest(`a = ? AND b = ?`); got != `a = ? AND b = ?` {
		t.Errorf("sqlite rebind = %q", got)
	}
}

// TestProgramDayRoundTrip verifies optional day fields survive storage.
func TestProgramDayRoundTrip(t *testing.T) {
	db := storagetest.New(t)
	ctx := context.Background()
	p, weekly := seedProgram(t, db)

	anchor := civil.Date{Year: 2026, Month: time.March, Day: 2}
	gap, index := 3, 2
	interval := models.ProgramDay{ID: uuid.New(), ProgramID: p.ID, Name: "B", OrderIndex: 1, Schedule: models.ScheduleInterval, IntervalDays: &gap, CycleIndex: &index}
	anchored := models.ProgramDay{ID: uuid.New(), ProgramID: p.ID, Name: "C", OrderIndex: 2, Schedule: models.ScheduleWeekly, DayOfWeek: weekly.DayOfWeek, Anchor: &anchor}
	for _, d := range []models.ProgramDay{interval, anchored} {
		if err := db.InsertProgramDay(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.ListProgramDays(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]models.ProgramDay{weekly, interval, anchored}, got); diff != "" {
		t.Errorf("days mismatch (-want +got):\n%s", diff)
	}
}

// TestGetMissingReturnsNotFound verifies lookups of absent rows wrap
// ErrNotFound.
func TestGetMissingReturnsNotFound(t *testing.T) {
	db := storagetest.New(t)
	ctx := context.Background()
	if _, err := db.GetProgram(ctx, uuid.New()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetProgram error = %v", err)
	}
	if _, err := db.GetPlannedWorkout(ctx, uuid.New()); !storage.IsNotFound(err) {
		t.Errorf("GetPlannedWorkout error = %v", err)
	}
	if err := db.DeleteProgram(ctx, uuid.New()); !storage.IsNotFound(err) {
		t.Errorf("DeleteProgram error = %v", err)
	}
}

// TestPlannedWorkoutUniquePerDay verifies the store refuses a second planned
// workout for the same program and day.
func TestPlannedWorkoutUniquePerDay(t *testing.T) {
	db := storagetest.New(t)
	ctx := context.Background()
	p, d := seedProgram(t, db)

	w := models.PlannedWorkout{ID: uuid.New(), ProgramID: p.ID, ProgramDayID: d.ID, PlannedFor: time.Now(), DayKey: "2026-03-02", CreatedAt: time.Now()}
	ok, err := db.InsertPlannedWorkout(ctx, w)
	if err != nil || !ok {
		t.Fatalf("first insert = %v, %v", ok, err)
	}
	w.ID = uuid.New()
	ok, err = db.InsertPlannedWorkout(ctx, w)
	if err != nil || ok {
		t.Fatalf("duplicate insert = %v, %v", ok, err)
	}

	keys, err := db.PlannedDayKeys(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]bool{"2026-03-02": true}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	last, err := db.LastPlannedByDay(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if last[d.ID] != (civil.Date{Year: 2026, Month: time.March, Day: 2}) {
		t.Errorf("last planned = %v", last[d.ID])
	}
}

// TestDeleteProgramCascades verifies deleting a program removes everything it
// owns.
func TestDeleteProgramCascades(t *testing.T) {
	db := storagetest.New(t)
	ctx := context.Background()
	p, d := seedProgram(t, db)

	pe := models.ProgramExercise{ID: uuid.New(), ProgramDayID: d.ID, ExerciseID: uuid.New(), Prescription: `{"version":1,"blocks":[]}`}
	if err := db.InsertProgramExercise(ctx, pe); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertProgression(ctx, models.Progression{ID: uuid.New(), ProgramExerciseID: pe.ID, Type: "kg_per_session", Value: 2.5, Cadence: "every_session", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertPlannedWorkout(ctx, models.PlannedWorkout{ID: uuid.New(), ProgramID: p.ID, ProgramDayID: d.ID, PlannedFor: time.Now(), DayKey: "2026-03-02", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceCalendarEntries(ctx, p.ID, []models.CalendarEntry{{ID: uuid.New(), DateISO: "2026-03-02", Exercises: "[]", CreatedAt: time.Now()}}); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteProgram(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := db.GetProgramDay(ctx, d.ID); !storage.IsNotFound(err) {
		t.Errorf("day survived: %v", err)
	}
	if _, err := db.GetProgramExercise(ctx, pe.ID); !storage.IsNotFound(err) {
		t.Errorf("exercise survived: %v", err)
	}
	rules, err := db.ListProgressions(ctx, pe.ID)
	if err != nil || len(rules) != 0 {
		t.Errorf("progressions = %v, %v", rules, err)
	}
	keys, err := db.PlannedDayKeys(ctx, p.ID)
	if err != nil || len(keys) != 0 {
		t.Errorf("planned keys = %v, %v", keys, err)
	}
	entries, err := db.ListCalendarEntries(ctx, uuid.Nil, "2026-01-01", "2026-12-31")
	if err != nil || len(entries) != 0 {
		t.Errorf("calendar entries = %v, %v", entries, err)
	}
}

// TestWithTxRollsBack verifies a failing transaction leaves no rows behind.
func TestWithTxRollsBack(t *testing.T) {
	db := storagetest.New(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(q *storage.Queries) error {
		if _, _, err := q.EnsureExercise(ctx, "Squat"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v", err)
	}
	if _, err := db.GetExerciseByName(ctx, "Squat"); !storage.IsNotFound(err) {
		t.Errorf("exercise committed despite rollback: %v", err)
	}
}

// TestEnsureExercise verifies exercises are created once and reused.
func TestEnsureExercise(t *testing.T) {
	db := storagetest.New(t)
	ctx := context.Background()

	id, created, err := db.EnsureExercise(ctx, " Bench Press ")
	if err != nil || !created {
		t.Fatalf("first ensure = %v, %v", created, err)
	}
	again, created, err := db.EnsureExercise(ctx, "Bench Press")
	if err != nil || created || again != id {
		t.Fatalf("second ensure = %v, %v, %v", again, created, err)
	}
}

// TestLastCompletedSession verifies only completed exercises count and
// warmups are excluded.
func TestLastCompletedSession(t *testing.T) {
	db := storagetest.New(t)
	ctx := context.Background()
	exID, _, err := db.EnsureExercise(ctx, "Squat")
	if err != nil {
		t.Fatal(err)
	}

	day := func(n int) time.Time { return time.Date(2026, 3, n, 0, 0, 0, 0, time.UTC) }
	weight := func(kg float64) *float64 { return &kg }
	reps := func(n int) *int { return &n }

	for i, tc := range []struct {
		day       int
		completed bool
		kg        float64
	}{{2, true, 100}, {5, true, 105}, {9, false, 110}} {
		w := models.Workout{ID: uuid.New(), DayKey: day(tc.day).Format("2006-01-02"), Source: models.SourceLog, StartedAt: day(tc.day)}
		if err := db.InsertWorkout(ctx, w); err != nil {
			t.Fatal(err)
		}
		we := models.WorkoutExercise{ID: uuid.New(), WorkoutID: w.ID, ExerciseID: exID, PerformedAt: day(tc.day)}
		if tc.completed {
			at := day(tc.day).Add(time.Hour)
			we.CompletedAt = &at
		}
		if err := db.InsertWorkoutExercise(ctx, we); err != nil {
			t.Fatal(err)
		}
		sets := []models.Set{
			{ID: uuid.New(), WorkoutExerciseID: we.ID, OrderIndex: 0, WeightKg: weight(60), Reps: reps(5), IsWarmup: true},
			{ID: uuid.New(), WorkoutExerciseID: we.ID, OrderIndex: 1, WeightKg: weight(tc.kg), Reps: reps(5 + i)},
		}
		if _, err := db.InsertSets(ctx, sets); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.LastCompletedSession(ctx, exID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.PerformedAt.Equal(day(5)) {
		t.Errorf("performed at = %v, want %v", got.PerformedAt, day(5))
	}
	if len(got.Sets) != 1 || *got.Sets[0].WeightKg != 105 || *got.Sets[0].Reps != 6 {
		t.Errorf("sets = %+v", got.Sets)
	}

	if _, err := db.LastCompletedSession(ctx, uuid.New()); !storage.IsNotFound(err) {
		t.Errorf("unknown exercise error = %v", err)
	}
}
