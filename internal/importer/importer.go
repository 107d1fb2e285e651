// Package importer loads WorkoutLog CSV exports from disk into the store.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/workoutlog/internal/ingest"
	"github.com/claude/workoutlog/internal/ingest/csvlog"
	"github.com/claude/workoutlog/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesErrored   int

	ingest.Result
}

// Importer reads CSV exports from a file or directory.
type Importer struct {
	provider *csvlog.Provider
	log      *slog.Logger
	loc      *time.Location
	dryRun   bool
	stats    Stats
}

// New creates an Importer. With dryRun set, files are parsed and counted but
// nothing is written.
func New(db *storage.DB, loc *time.Location, log *slog.Logger, dryRun bool) *Importer {
	if loc == nil {
		loc = time.Local
	}
	return &Importer{
		provider: csvlog.NewProvider(db, loc, log),
		log:      log,
		loc:      loc,
		dryRun:   dryRun,
	}
}

// Import processes path, which is either a single export or a directory
// whose .csv files are imported in name order. A file that fails is logged
// and counted; the remaining files are still imported.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	files, err := exportFiles(path)
	if err != nil {
		return &imp.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		res, err := imp.importFile(ctx, f)
		if err != nil {
			imp.log.Warn("import failed", "file", f, "error", err)
			imp.stats.FilesErrored++
			continue
		}
		imp.stats.FilesProcessed++
		imp.stats.Add(*res)
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string) (*ingest.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !imp.dryRun {
		return imp.provider.Ingest(ctx, f)
	}

	sessions, err := csvlog.Parse(f, imp.loc)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	res := &ingest.Result{}
	for _, s := range sessions {
		res.RowsReceived += s.SetCount()
		res.WorkoutsInserted++
		res.SetsInserted += int64(s.SetCount())
	}
	return res, nil
}

func exportFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
