package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/claude/workoutlog/internal/storage/storagetest"
)

const good = "-----Strength-----\nDate,Time,Exercise,# of Reps,Weight,Notes\n" +
	"\"19/01/2026\",\"18:34\",\"Squat\",\"5\",\"100\",\"\"\n" +
	"\"19/01/2026\",\"18:38\",\"Squat\",\"5\",\"100\",\"\"\n" +
	"\"20/01/2026\",\"09:00\",\"Row\",\"8\",\"60\",\"\"\n"

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// TestImportDirectory verifies every .csv file in a directory is imported
// and a broken file does not stop the others.
func TestImportDirectory(t *testing.T) {
	db := storagetest.New(t)
	dir := writeFiles(t, map[string]string{
		"a.csv":     good,
		"b.CSV":     "Date,Exercise,Weight\n2026-01-01,Squat,x\n",
		"notes.txt": "ignored",
	})

	imp := New(db, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)), false)
	stats, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesProcessed != 1 || stats.FilesErrored != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.WorkoutsInserted != 2 || stats.SetsInserted != 3 || stats.RowsReceived != 3 {
		t.Errorf("stats = %+v", stats)
	}

	workouts, err := db.ListWorkouts(context.Background(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 2 {
		t.Errorf("got %d workouts, want 2", len(workouts))
	}
}

// TestImportDryRun verifies a dry run counts without writing.
func TestImportDryRun(t *testing.T) {
	db := storagetest.New(t)
	dir := writeFiles(t, map[string]string{"export.csv": good})

	imp := New(db, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)), true)
	stats, err := imp.Import(context.Background(), filepath.Join(dir, "export.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesProcessed != 1 || stats.WorkoutsInserted != 2 || stats.SetsInserted != 3 {
		t.Fatalf("stats = %+v", stats)
	}
	workouts, err := db.ListWorkouts(context.Background(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 0 {
		t.Errorf("dry run wrote %d workouts", len(workouts))
	}
}

// TestImportMissingPath verifies a missing path is an error.
func TestImportMissingPath(t *testing.T) {
	imp := New(storagetest.New(t), time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)), false)
	if _, err := imp.Import(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error")
	}
}
