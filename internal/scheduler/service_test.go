package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/claude/workoutlog/internal/storage/storagetest"
	"github.com/google/uuid"
)

func newService(t *testing.T, now time.Time) (*Service, *storage.DB) {
	t.Helper()
	db := storagetest.New(t)
	svc := NewService(db, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.loc = time.UTC
	svc.now = func() time.Time { return now }
	return svc, db
}

func seedProgram(t *testing.T, db *storage.DB, days ...models.ProgramDay) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	p := models.Program{ID: uuid.New(), Name: "P", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := db.InsertProgram(ctx, p); err != nil {
		t.Fatal(err)
	}
	for i, d := range days {
		d.ProgramID = p.ID
		d.OrderIndex = i
		d.Name = "Day"
		if err := db.InsertProgramDay(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	return p.ID
}

// TestGenerateWindowIdempotent verifies calling GenerateWindow twice leaves
// exactly one planned workout per day.
func TestGenerateWindowIdempotent(t *testing.T) {
	now := time.Date(2026, 1, 5, 8, 30, 0, 0, time.UTC)
	svc, db := newService(t, now)
	ctx := context.Background()
	id := seedProgram(t, db, weekly(time.Monday), weekly(time.Monday), interval(2))

	first, err := svc.GenerateWindow(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if first.Created == 0 || first.From != "2026-01-05" || first.To != "2026-03-02" {
		t.Fatalf("first = %+v", first)
	}
	second, err := svc.GenerateWindow(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if second.Created != 0 {
		t.Errorf("second pass created %d", second.Created)
	}

	planned, err := db.ListPlannedWorkouts(ctx, id, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(planned) != first.Created {
		t.Errorf("stored %d, created %d", len(planned), first.Created)
	}
	seen := map[string]bool{}
	for _, p := range planned {
		if seen[p.DayKey] {
			t.Errorf("duplicate planned workout on %s", p.DayKey)
		}
		seen[p.DayKey] = true
		if u := p.PlannedFor.UTC(); u.Format("2006-01-02") != p.DayKey || u.Hour() != 0 || u.Minute() != 0 {
			t.Errorf("planned_for %v does not start day %s", u, p.DayKey)
		}
	}
}

// TestGenerateWindowRolls verifies a later run only fills the newly reached
// days.
func TestGenerateWindowRolls(t *testing.T) {
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	svc, db := newService(t, now)
	ctx := context.Background()
	id := seedProgram(t, db, weekly(time.Monday))

	if _, err := svc.GenerateWindow(ctx, id); err != nil {
		t.Fatal(err)
	}
	svc.now = func() time.Time { return now.AddDate(0, 0, 7) }
	res, err := svc.GenerateWindow(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 1 {
		t.Errorf("rolled window created %d, want 1", res.Created)
	}
}

// TestGenerateWindowUnknownProgram verifies a missing program is reported.
func TestGenerateWindowUnknownProgram(t *testing.T) {
	svc, _ := newService(t, time.Now())
	if _, err := svc.GenerateWindow(context.Background(), uuid.New()); !storage.IsNotFound(err) {
		t.Errorf("error = %v", err)
	}
}
