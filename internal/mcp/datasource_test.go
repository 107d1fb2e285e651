package mcp

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/claude/workoutlog/internal/apply"
	"github.com/claude/workoutlog/internal/program"
	"github.com/claude/workoutlog/internal/progression"
	"github.com/claude/workoutlog/internal/scheduler"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/claude/workoutlog/internal/storage/storagetest"
	"github.com/google/uuid"
)

// TestLocalSource verifies the in-process source reads through to storage
// and reports unknown programs as not found.
func TestLocalSource(t *testing.T) {
	ctx := context.Background()
	db := storagetest.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	programs := program.NewService(db, scheduler.NewService(db, 0, log), log)
	ds := NewLocal(db, programs, apply.NewService(db, log), progression.NewService(db, log))

	if _, err := ds.ListPlanned(ctx, uuid.New(), "", ""); !storage.IsNotFound(err) {
		t.Errorf("ListPlanned(unknown) err = %v, want not found", err)
	}

	stats, err := ds.DataStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalPrograms != 0 || stats.TotalWorkouts != 0 {
		t.Errorf("stats = %+v, want empty", stats)
	}

	list, err := ds.ListPrograms(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("got %d programs, want 0", len(list))
	}
}
