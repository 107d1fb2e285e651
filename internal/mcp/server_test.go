package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/workoutlog/internal/apply"
	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/program"
	"github.com/claude/workoutlog/internal/progression"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// fakeSource records the arguments it was called with.
type fakeSource struct {
	from, to   string
	activeOnly bool
	applied    uuid.UUID
	err        error
}

func (f *fakeSource) ListPrograms(_ context.Context, activeOnly bool) ([]models.Program, error) {
	f.activeOnly = activeOnly
	return []models.Program{{Name: "Upper/Lower", IsActive: true}}, f.err
}

func (f *fakeSource) GetProgram(_ context.Context, id uuid.UUID) (program.Detail, error) {
	return program.Detail{Program: models.Program{ID: id}}, f.err
}

func (f *fakeSource) ListPlanned(_ context.Context, _ uuid.UUID, from, to string) ([]models.PlannedWorkout, error) {
	f.from, f.to = from, to
	return nil, f.err
}

func (f *fakeSource) ApplyPlanned(_ context.Context, id uuid.UUID) (apply.Result, error) {
	f.applied = id
	return apply.Result{PlannedWorkoutID: id}, f.err
}

func (f *fakeSource) Suggest(_ context.Context, id uuid.UUID) (progression.Suggestion, error) {
	kg := 62.5
	return progression.Suggestion{ProgramExerciseID: id, SuggestedKg: &kg}, f.err
}

func (f *fakeSource) ListWorkouts(_ context.Context, from, to string) ([]models.Workout, error) {
	f.from, f.to = from, to
	return nil, f.err
}

func (f *fakeSource) TrainingSummary(_ context.Context, from, to string) ([]storage.ExerciseVolume, error) {
	f.from, f.to = from, to
	return []storage.ExerciseVolume{{ExerciseName: "Squat", TonnageKg: 1000}}, f.err
}

func (f *fakeSource) DataStats(context.Context) (*storage.DataStats, error) {
	return &storage.DataStats{TotalWorkouts: 3}, f.err
}

func newHandlers(ds DataSource) *handlers {
	return &handlers{
		ds:  ds,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now: func() time.Time { return time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC) },
	}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

// TestNewRegistersTools verifies every tool is registered on the server.
func TestNewRegistersTools(t *testing.T) {
	s := New(&fakeSource{}, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, name := range []string{
		"compile_psl", "list_programs", "get_program", "list_planned_workouts",
		"apply_planned_workout", "suggest_next_load", "get_workouts", "get_training_summary",
	} {
		if s.GetTool(name) == nil {
			t.Errorf("tool %q not registered", name)
		}
	}
}

// TestDateRange verifies end-anchored defaults and rejection of bad dates.
func TestDateRange(t *testing.T) {
	h := newHandlers(&fakeSource{})
	tests := []struct {
		name       string
		start, end string
		days       int
		wantFrom   string
		wantTo     string
		wantErr    bool
	}{
		{"defaults", "", "", 7, "2026-03-03", "2026-03-10", false},
		{"explicit", "2026-01-01", "2026-01-31", 7, "2026-01-01", "2026-01-31", false},
		{"end only", "", "2026-02-10", 90, "2025-11-12", "2026-02-10", false},
		{"bad start", "yesterday", "", 7, "", "", true},
		{"bad end", "", "2026-13-01", 7, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := h.dateRange(tt.start, tt.end, tt.days)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if from != tt.wantFrom || to != tt.wantTo {
				t.Errorf("range = %s..%s, want %s..%s", from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

// TestCompilePSLTool verifies the compile tool reports validity and
// diagnostics without touching the data source.
func TestCompilePSLTool(t *testing.T) {
	h := newHandlers(nil)

	res, err := h.compilePSL(context.Background(), callRequest(map[string]any{
		"source": "language_version: \"0.1\"\nmetadata: {id: p, name: P}\nsessions:\n  - {id: a, name: A, day: 1, exercises: [\"Squat: 3x5 @100kg\"]}\n",
	}))
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if !out.Valid {
		t.Errorf("valid = false, result %s", resultText(t, res))
	}

	res, _ = h.compilePSL(context.Background(), callRequest(map[string]any{}))
	if !res.IsError {
		t.Error("missing source should be a tool error")
	}
}

// TestToolArguments verifies tools parse their arguments and pass them to
// the data source.
func TestToolArguments(t *testing.T) {
	ctx := context.Background()
	ds := &fakeSource{}
	h := newHandlers(ds)

	if _, err := h.listPrograms(ctx, callRequest(map[string]any{"active_only": true})); err != nil {
		t.Fatal(err)
	}
	if !ds.activeOnly {
		t.Error("active_only not passed through")
	}

	id := uuid.New()
	res, _ := h.applyPlanned(ctx, callRequest(map[string]any{"planned_workout_id": id.String()}))
	if res.IsError || ds.applied != id {
		t.Errorf("apply: error %v, applied %s", res.IsError, ds.applied)
	}

	res, _ = h.listPlanned(ctx, callRequest(map[string]any{"program_id": uuid.NewString()}))
	if res.IsError || ds.from != "2026-03-10" || ds.to != "2026-03-24" {
		t.Errorf("planned range = %s..%s", ds.from, ds.to)
	}

	res, _ = h.getTrainingSummary(ctx, callRequest(map[string]any{"start": "2026-01-01"}))
	if res.IsError || ds.from != "2026-01-01" || ds.to != "2026-03-10" {
		t.Errorf("summary range = %s..%s", ds.from, ds.to)
	}

	res, _ = h.suggestNextLoad(ctx, callRequest(map[string]any{"program_exercise_id": "nope"}))
	if !res.IsError {
		t.Error("invalid UUID should be a tool error")
	}
}

// TestToolSourceError verifies data source failures become tool errors
// rather than protocol errors.
func TestToolSourceError(t *testing.T) {
	h := newHandlers(&fakeSource{err: errors.New("boom")})
	res, err := h.getWorkouts(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("protocol error: %v", err)
	}
	if !res.IsError {
		t.Error("expected tool error")
	}
}

// TestResources verifies resource handlers return JSON for the requested URI.
func TestResources(t *testing.T) {
	ds := &fakeSource{}
	h := newHandlers(ds)
	var req mcp.ReadResourceRequest
	req.Params.URI = "workoutlog://stats"

	contents, err := h.stats(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text := contents[0].(mcp.TextResourceContents)
	if text.URI != "workoutlog://stats" || text.MIMEType != "application/json" {
		t.Errorf("contents = %+v", text)
	}
	var stats storage.DataStats
	if err := json.Unmarshal([]byte(text.Text), &stats); err != nil || stats.TotalWorkouts != 3 {
		t.Errorf("stats = %+v, err %v", stats, err)
	}

	req.Params.URI = "workoutlog://recent_workouts"
	if _, err := h.recentWorkouts(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if ds.from != "2026-02-24" || ds.to != "2026-03-10" {
		t.Errorf("recent range = %s..%s", ds.from, ds.to)
	}
}
