package apply

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/prescription"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/claude/workoutlog/internal/storage/storagetest"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

type fixture struct {
	db      *storage.DB
	svc     *Service
	day     models.ProgramDay
	planned models.PlannedWorkout
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := storagetest.New(t)
	now := time.Now()

	p := models.Program{ID: uuid.New(), Name: "P", CreatedAt: now, UpdatedAt: now}
	if err := db.InsertProgram(ctx, p); err != nil {
		t.Fatal(err)
	}
	mon := time.Monday
	day := models.ProgramDay{ID: uuid.New(), ProgramID: p.ID, Name: "A", Schedule: models.ScheduleWeekly, DayOfWeek: &mon}
	if err := db.InsertProgramDay(ctx, day); err != nil {
		t.Fatal(err)
	}
	planned := models.PlannedWorkout{
		ID: uuid.New(), ProgramID: p.ID, ProgramDayID: day.ID,
		PlannedFor: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), DayKey: "2026-03-02", CreatedAt: now,
	}
	if _, err := db.InsertPlannedWorkout(ctx, planned); err != nil {
		t.Fatal(err)
	}

	svc := NewService(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return &fixture{db: db, svc: svc, day: day, planned: planned}
}

func (f *fixture) addExercise(t *testing.T, order int, exerciseID uuid.UUID, p prescription.Prescription) uuid.UUID {
	t.Helper()
	doc, err := prescription.SerializeString(p)
	if err != nil {
		t.Fatal(err)
	}
	pe := models.ProgramExercise{ID: uuid.New(), ProgramDayID: f.day.ID, ExerciseID: exerciseID, OrderIndex: order, Prescription: doc}
	if err := f.db.InsertProgramExercise(context.Background(), pe); err != nil {
		t.Fatal(err)
	}
	return pe.ID
}

func (f *fixture) exercise(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id, _, err := f.db.EnsureExercise(context.Background(), name)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// TestApplyWarmupAndWork verifies one warmup block of two and a work block of
// 3×5 yield five unweighted placeholders, warmups first.
func TestApplyWarmupAndWork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addExercise(t, 0, f.exercise(t, "Squat"), prescription.CreateSimple(prescription.SimpleArgs{
		WarmupSets: 2, Sets: 3, Reps: prescription.FixedReps{Value: 5},
	}))

	res, err := f.svc.Apply(ctx, f.planned.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Exercises) != 1 {
		t.Fatalf("exercises = %d", len(res.Exercises))
	}
	applied := res.Exercises[0]
	if applied.WorkoutExercise.CompletedAt != nil {
		t.Error("applied exercise must not be completed")
	}
	if !applied.WorkoutExercise.PerformedAt.Equal(f.planned.PlannedFor) {
		t.Errorf("performed at = %v, want %v", applied.WorkoutExercise.PerformedAt, f.planned.PlannedFor)
	}

	sets, err := f.db.ListSets(ctx, applied.WorkoutExercise.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 5 {
		t.Fatalf("sets = %d, want 5", len(sets))
	}
	for i, s := range sets {
		if s.WeightKg != nil {
			t.Errorf("set %d has weight %v", i, *s.WeightKg)
		}
		if wantWarmup := i < 2; s.IsWarmup != wantWarmup {
			t.Errorf("set %d warmup = %v", i, s.IsWarmup)
		}
		if i < 2 && s.Reps != nil {
			t.Errorf("warmup set %d reps = %d, want unset", i, *s.Reps)
		}
		if i >= 2 && (s.Reps == nil || *s.Reps != 5) {
			t.Errorf("work set %d reps = %v, want 5", i, s.Reps)
		}
	}
}

// TestApplyContinuesOrder verifies applied exercises go after what the day
// already holds.
func TestApplyContinuesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bench := f.exercise(t, "Bench")

	w := models.Workout{ID: uuid.New(), DayKey: f.planned.DayKey, Source: models.SourceLog, StartedAt: f.planned.PlannedFor}
	if err := f.db.InsertWorkout(ctx, w); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		we := models.WorkoutExercise{ID: uuid.New(), WorkoutID: w.ID, ExerciseID: bench, OrderIndex: i, PerformedAt: f.planned.PlannedFor}
		if err := f.db.InsertWorkoutExercise(ctx, we); err != nil {
			t.Fatal(err)
		}
	}

	simple := prescription.CreateSimple(prescription.SimpleArgs{Sets: 2, Reps: prescription.RepRange{Min: 8, Max: 12}})
	f.addExercise(t, 0, f.exercise(t, "Row"), simple)
	f.addExercise(t, 1, f.exercise(t, "Curl"), simple)

	res, err := f.svc.Apply(ctx, f.planned.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.WorkoutID != w.ID {
		t.Errorf("applied into workout %s, want existing %s", res.WorkoutID, w.ID)
	}
	var orders []int
	for _, e := range res.Exercises {
		orders = append(orders, e.WorkoutExercise.OrderIndex)
		if r := e.Sets[0].Reps; r == nil || *r != 8 {
			t.Errorf("%s reps = %v, want range minimum 8", e.ExerciseName, r)
		}
	}
	if diff := cmp.Diff([]int{2, 3}, orders); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

// TestApplyTwiceDoesNotDuplicate verifies a second apply returns the first
// result instead of creating more rows.
func TestApplyTwiceDoesNotDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addExercise(t, 0, f.exercise(t, "Squat"), prescription.CreateSimple(prescription.SimpleArgs{Sets: 3}))

	first, err := f.svc.Apply(ctx, f.planned.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.Apply(ctx, f.planned.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !second.AlreadyApplied || len(second.Exercises) != 1 {
		t.Fatalf("second = %+v", second)
	}
	if second.Exercises[0].WorkoutExercise.ID != first.Exercises[0].WorkoutExercise.ID {
		t.Error("second apply returned a different workout exercise")
	}
	all, err := f.db.ListWorkoutExercises(ctx, first.WorkoutID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("workout holds %d exercises, want 1", len(all))
	}
}

// TestApplyRollsBackOnMissingExercise verifies a vanished exercise aborts the
// apply and leaves nothing behind.
func TestApplyRollsBackOnMissingExercise(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	simple := prescription.CreateSimple(prescription.SimpleArgs{Sets: 3})
	f.addExercise(t, 0, f.exercise(t, "Squat"), simple)
	missing := uuid.New()
	f.addExercise(t, 1, missing, simple)

	_, err := f.svc.Apply(ctx, f.planned.ID)
	if !errors.Is(err, ErrReferential) {
		t.Fatalf("error = %v, want referential", err)
	}
	var ref *ReferentialError
	if !errors.As(err, &ref) || ref.ID != missing || ref.Kind != "exercise" {
		t.Errorf("referential error = %+v", ref)
	}
	if _, err := f.db.GetWorkoutByDay(ctx, f.planned.DayKey, models.SourceLog); !storage.IsNotFound(err) {
		t.Errorf("workout survived rollback: %v", err)
	}
	prior, err := f.db.ListWorkoutExercisesByPlanned(ctx, f.planned.ID)
	if err != nil || len(prior) != 0 {
		t.Errorf("workout exercises survived rollback: %v, %v", prior, err)
	}
}

// TestApplyMissingPlannedWorkout verifies an unknown id is a referential
// error.
func TestApplyMissingPlannedWorkout(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Apply(context.Background(), uuid.New()); !errors.Is(err, ErrReferential) {
		t.Errorf("error = %v", err)
	}
}

// TestApplySkipsUnreadablePrescription verifies a damaged prescription skips
// only that exercise.
func TestApplySkipsUnreadablePrescription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bad := models.ProgramExercise{ID: uuid.New(), ProgramDayID: f.day.ID, ExerciseID: f.exercise(t, "Dip"), Prescription: `{"version":2}`}
	if err := f.db.InsertProgramExercise(ctx, bad); err != nil {
		t.Fatal(err)
	}
	f.addExercise(t, 1, f.exercise(t, "Squat"), prescription.CreateSimple(prescription.SimpleArgs{Sets: 1}))

	res, err := f.svc.Apply(ctx, f.planned.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Exercises) != 1 || res.Exercises[0].ExerciseName != "Squat" {
		t.Errorf("exercises = %+v", res.Exercises)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].ProgramExerciseID != bad.ID {
		t.Errorf("skipped = %+v", res.Skipped)
	}
}

// TestPlaceholders verifies block expansion without a store.
func TestPlaceholders(t *testing.T) {
	three := 3
	p := prescription.Prescription{Version: 1, Blocks: []prescription.Block{
		prescription.WarmupBlock{Style: "ramp", Sets: 1, Reps: &three},
		prescription.WorkBlock{Sets: 2, Reps: prescription.RepRange{Min: 6, Max: 8}},
	}}
	got := Placeholders(p)
	six := 6
	want := []Placeholder{{Reps: &three, IsWarmup: true}, {Reps: &six}, {Reps: &six}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

// TestCompleteReplacesPlaceholders verifies logging an applied exercise
// swaps its placeholders for the performed sets and makes it the latest
// completed session.
func TestCompleteReplacesPlaceholders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	squat := f.exercise(t, "Squat")
	f.addExercise(t, 0, squat, prescription.CreateSimple(prescription.SimpleArgs{
		WarmupSets: 1, Sets: 3, Reps: prescription.FixedReps{Value: 5},
	}))
	res, err := f.svc.Apply(ctx, f.planned.ID)
	if err != nil {
		t.Fatal(err)
	}
	weID := res.Exercises[0].WorkoutExercise.ID

	kg := func(v float64) *float64 { return &v }
	reps := func(v int) *int { return &v }
	logged := []LoggedSet{
		{WeightKg: kg(60), Reps: reps(5), IsWarmup: true},
		{WeightKg: kg(100), Reps: reps(5)},
		{WeightKg: kg(102.5), Reps: reps(4), RPE: kg(9.5)},
	}
	done, err := f.svc.Complete(ctx, weID, logged)
	if err != nil {
		t.Fatal(err)
	}
	if done.WorkoutExercise.CompletedAt == nil {
		t.Error("completed exercise has no completion time")
	}

	sets, err := f.db.ListSets(ctx, weID)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != len(logged) {
		t.Fatalf("sets = %d, want %d", len(sets), len(logged))
	}
	for i, s := range sets {
		if diff := cmp.Diff(logged[i], LoggedSet{WeightKg: s.WeightKg, Reps: s.Reps, RPE: s.RPE, IsWarmup: s.IsWarmup}); diff != "" {
			t.Errorf("set %d (-want +got):\n%s", i, diff)
		}
	}

	last, err := f.db.LastCompletedSession(ctx, squat)
	if err != nil {
		t.Fatal(err)
	}
	if last.WorkoutExerciseID != weID || len(last.Sets) != 2 {
		t.Errorf("last completed session = %+v", last)
	}
}

// TestCompleteRejects verifies out-of-range values and unknown exercises
// leave nothing written.
func TestCompleteRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addExercise(t, 0, f.exercise(t, "Squat"), prescription.CreateSimple(prescription.SimpleArgs{Sets: 2, Reps: prescription.FixedReps{Value: 5}}))
	res, err := f.svc.Apply(ctx, f.planned.ID)
	if err != nil {
		t.Fatal(err)
	}
	weID := res.Exercises[0].WorkoutExercise.ID

	neg, high := -1.0, 11.0
	for name, logged := range map[string][]LoggedSet{
		"empty":           nil,
		"negative weight": {{WeightKg: &neg}},
		"rpe above 10":    {{RPE: &high}},
	} {
		if _, err := f.svc.Complete(ctx, weID, logged); !errors.Is(err, ErrInvalidLog) {
			t.Errorf("%s: error = %v, want ErrInvalidLog", name, err)
		}
	}
	if sets, err := f.db.ListSets(ctx, weID); err != nil || len(sets) != 2 {
		t.Errorf("placeholders after rejected logs = %d (%v), want 2", len(sets), err)
	}

	if _, err := f.svc.Complete(ctx, uuid.New(), []LoggedSet{{}}); !storage.IsNotFound(err) {
		t.Errorf("unknown workout exercise error = %v", err)
	}
}
