package upload

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claude/workoutlog/internal/ingest/csvlog"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	WorkoutsSent int
	SetsSent     int64
}

// Uploader walks a directory of CSV exports and POSTs each new or changed
// file to the workoutlog server.
type Uploader struct {
	client *Client
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. client may be nil in dry-run mode.
func New(client *Client, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dir:    dir,
		dryRun: dryRun,
		log:    log,
	}
}

// Run executes the upload pipeline. A failing file is logged and counted;
// the remaining files are still sent.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	if !u.dryRun {
		if err := u.client.Ping(ctx); err != nil {
			return &u.stats, err
		}
	}

	files, err := findExports(u.dir)
	if err != nil {
		return &u.stats, err
	}
	u.stats.FilesTotal = len(files)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		if err := u.processFile(ctx, path); err != nil {
			u.log.Error("upload failed", "file", path, "error", err)
			u.stats.FilesErrored++
		}
	}
	return &u.stats, nil
}

func (u *Uploader) processFile(ctx context.Context, path string) error {
	rel, err := filepath.Rel(u.dir, path)
	if err != nil {
		rel = path
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing: %w", err)
	}
	if done, err := u.state.IsUploaded(ctx, rel, hash); err != nil {
		return err
	} else if done {
		u.log.Debug("skipping unchanged export", "file", rel)
		u.stats.FilesSkipped++
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading: %w", err)
	}

	if u.dryRun {
		sessions, err := csvlog.Parse(bytes.NewReader(data), time.Local)
		if err != nil {
			return fmt.Errorf("parsing: %w", err)
		}
		for _, s := range sessions {
			u.stats.SetsSent += int64(s.SetCount())
		}
		u.stats.WorkoutsSent += len(sessions)
		u.stats.FilesUploaded++
		u.log.Info("dry run: parsed export", "file", rel, "workouts", len(sessions))
		return nil
	}

	res, err := u.client.SendCSV(ctx, data)
	if err != nil {
		return err
	}
	if err := u.state.MarkUploaded(ctx, rel, hash, res.WorkoutsInserted, time.Now()); err != nil {
		return err
	}
	u.stats.WorkoutsSent += res.WorkoutsInserted
	u.stats.SetsSent += res.SetsInserted
	u.stats.FilesUploaded++
	u.log.Info("uploaded export", "file", rel,
		"workouts", res.WorkoutsInserted, "replaced", res.WorkoutsReplaced, "sets", res.SetsInserted)
	return nil
}

// findExports returns the CSV files under dir in lexical order.
func findExports(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return files, nil
}
