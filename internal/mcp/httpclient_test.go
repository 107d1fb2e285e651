package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/claude/workoutlog/internal/apply"
	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/google/uuid"
)

// newRemote creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newRemote(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Error(err)
	}
}

// TestListProgramsRemote verifies the active filter is sent as a query param.
func TestListProgramsRemote(t *testing.T) {
	ts := newRemote(t, map[string]http.HandlerFunc{
		"/api/v1/programs": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("active"); got != "true" {
				t.Errorf("active=%q, want true", got)
			}
			writeTestJSON(t, w, http.StatusOK, []models.Program{{Name: "5/3/1", IsActive: true}})
		},
	})

	programs, err := NewHTTPClient(ts.URL, "").ListPrograms(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(programs) != 1 || programs[0].Name != "5/3/1" {
		t.Errorf("programs = %+v", programs)
	}
}

// TestApplyPlannedRemote verifies apply posts with the API key and accepts
// a 201 response.
func TestApplyPlannedRemote(t *testing.T) {
	id := uuid.New()
	ts := newRemote(t, map[string]http.HandlerFunc{
		"/api/v1/planned/" + id.String() + "/apply": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			if got := r.Header.Get("X-API-Key"); got != "secret" {
				t.Errorf("X-API-Key = %q, want secret", got)
			}
			writeTestJSON(t, w, http.StatusCreated, apply.Result{PlannedWorkoutID: id})
		},
	})

	res, err := NewHTTPClient(ts.URL+"/", "secret").ApplyPlanned(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if res.PlannedWorkoutID != id {
		t.Errorf("planned workout id = %s, want %s", res.PlannedWorkoutID, id)
	}
}

// TestTrainingSummaryRemote verifies date bounds are forwarded and omitted
// when empty.
func TestTrainingSummaryRemote(t *testing.T) {
	ts := newRemote(t, map[string]http.HandlerFunc{
		"/api/v1/training-summary": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("from") != "2026-01-01" || q.Has("to") {
				t.Errorf("query = %v", q)
			}
			if r.Header.Get("X-API-Key") != "" {
				t.Error("API key sent on a read")
			}
			writeTestJSON(t, w, http.StatusOK, []storage.ExerciseVolume{{ExerciseName: "Squat", TonnageKg: 5000}})
		},
	})

	summary, err := NewHTTPClient(ts.URL, "secret").TrainingSummary(context.Background(), "2026-01-01", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 1 || summary[0].TonnageKg != 5000 {
		t.Errorf("summary = %+v", summary)
	}
}

// TestRemoteErrorStatus verifies non-2xx responses become errors carrying
// the status and body.
func TestRemoteErrorStatus(t *testing.T) {
	id := uuid.New()
	ts := newRemote(t, map[string]http.HandlerFunc{
		"/api/v1/programs/" + id.String(): func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusNotFound, map[string]string{"error": "program not found"})
		},
	})

	_, err := NewHTTPClient(ts.URL, "").GetProgram(context.Background(), id)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "program not found") {
		t.Errorf("error = %v", err)
	}
}
