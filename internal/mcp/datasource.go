package mcp

import (
	"context"

	"github.com/claude/workoutlog/internal/apply"
	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/program"
	"github.com/claude/workoutlog/internal/progression"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Local (in-process
// services) and HTTPClient (remote via REST API) both satisfy it.
type DataSource interface {
	ListPrograms(ctx context.Context, activeOnly bool) ([]models.Program, error)
	GetProgram(ctx context.Context, id uuid.UUID) (program.Detail, error)
	ListPlanned(ctx context.Context, programID uuid.UUID, from, to string) ([]models.PlannedWorkout, error)
	ApplyPlanned(ctx context.Context, plannedWorkoutID uuid.UUID) (apply.Result, error)
	Suggest(ctx context.Context, programExerciseID uuid.UUID) (progression.Suggestion, error)
	ListWorkouts(ctx context.Context, from, to string) ([]models.Workout, error)
	TrainingSummary(ctx context.Context, from, to string) ([]storage.ExerciseVolume, error)
	DataStats(ctx context.Context) (*storage.DataStats, error)
}

// Local serves MCP tools from the services of this process.
type Local struct {
	db          *storage.DB
	programs    *program.Service
	apply       *apply.Service
	progression *progression.Service
}

var _ DataSource = (*Local)(nil)

// NewLocal creates a DataSource backed by the given services.
func NewLocal(db *storage.DB, programs *program.Service, applier *apply.Service, prog *progression.Service) *Local {
	return &Local{db: db, programs: programs, apply: applier, progression: prog}
}

func (l *Local) ListPrograms(ctx context.Context, activeOnly bool) ([]models.Program, error) {
	return l.db.ListPrograms(ctx, activeOnly)
}

func (l *Local) GetProgram(ctx context.Context, id uuid.UUID) (program.Detail, error) {
	return l.programs.Get(ctx, id)
}

func (l *Local) ListPlanned(ctx context.Context, programID uuid.UUID, from, to string) ([]models.PlannedWorkout, error) {
	if _, err := l.db.GetProgram(ctx, programID); err != nil {
		return nil, err
	}
	return l.db.ListPlannedWorkouts(ctx, programID, from, to)
}

func (l *Local) ApplyPlanned(ctx context.Context, plannedWorkoutID uuid.UUID) (apply.Result, error) {
	return l.apply.Apply(ctx, plannedWorkoutID)
}

func (l *Local) Suggest(ctx context.Context, programExerciseID uuid.UUID) (progression.Suggestion, error) {
	return l.progression.Suggest(ctx, programExerciseID)
}

func (l *Local) ListWorkouts(ctx context.Context, from, to string) ([]models.Workout, error) {
	return l.db.ListWorkouts(ctx, from, to)
}

func (l *Local) TrainingSummary(ctx context.Context, from, to string) ([]storage.ExerciseVolume, error) {
	return l.db.GetTrainingSummary(ctx, from, to)
}

func (l *Local) DataStats(ctx context.Context) (*storage.DataStats, error) {
	return l.db.GetDataStats(ctx)
}
