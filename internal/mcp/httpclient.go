package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/workoutlog/internal/apply"
	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/program"
	"github.com/claude/workoutlog/internal/progression"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the workoutlog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// is sent on mutating requests.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if method != http.MethodGet && c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func dateParams(from, to string) url.Values {
	v := url.Values{}
	if from != "" {
		v.Set("from", from)
	}
	if to != "" {
		v.Set("to", to)
	}
	return v
}

func (c *HTTPClient) ListPrograms(ctx context.Context, activeOnly bool) ([]models.Program, error) {
	params := url.Values{}
	if activeOnly {
		params.Set("active", "true")
	}
	var programs []models.Program
	if err := c.do(ctx, http.MethodGet, "/api/v1/programs", params, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

func (c *HTTPClient) GetProgram(ctx context.Context, id uuid.UUID) (program.Detail, error) {
	var d program.Detail
	err := c.do(ctx, http.MethodGet, "/api/v1/programs/"+id.String(), nil, &d)
	return d, err
}

func (c *HTTPClient) ListPlanned(ctx context.Context, programID uuid.UUID, from, to string) ([]models.PlannedWorkout, error) {
	var planned []models.PlannedWorkout
	if err := c.do(ctx, http.MethodGet, "/api/v1/programs/"+programID.String()+"/planned", dateParams(from, to), &planned); err != nil {
		return nil, err
	}
	return planned, nil
}

func (c *HTTPClient) ApplyPlanned(ctx context.Context, plannedWorkoutID uuid.UUID) (apply.Result, error) {
	var res apply.Result
	err := c.do(ctx, http.MethodPost, "/api/v1/planned/"+plannedWorkoutID.String()+"/apply", nil, &res)
	return res, err
}

func (c *HTTPClient) Suggest(ctx context.Context, programExerciseID uuid.UUID) (progression.Suggestion, error) {
	var s progression.Suggestion
	err := c.do(ctx, http.MethodGet, "/api/v1/program-exercises/"+programExerciseID.String()+"/suggestion", nil, &s)
	return s, err
}

func (c *HTTPClient) ListWorkouts(ctx context.Context, from, to string) ([]models.Workout, error) {
	var workouts []models.Workout
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts", dateParams(from, to), &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *HTTPClient) TrainingSummary(ctx context.Context, from, to string) ([]storage.ExerciseVolume, error) {
	var summary []storage.ExerciseVolume
	if err := c.do(ctx, http.MethodGet, "/api/v1/training-summary", dateParams(from, to), &summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (c *HTTPClient) DataStats(ctx context.Context) (*storage.DataStats, error) {
	var stats storage.DataStats
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
