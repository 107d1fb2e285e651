package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/workoutlog/internal/calendar"
	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Result summarizes one window generation.
type Result struct {
	ProgramID uuid.UUID       `json:"program_id"`
	Window    calendar.Window `json:"-"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Created   int             `json:"created"`
}

// Service generates planned workouts for programs.
type Service struct {
	db      *storage.DB
	log     *slog.Logger
	horizon int
	loc     *time.Location
	now     func() time.Time
}

// NewService creates a scheduler. horizonDays <= 0 selects DefaultHorizonDays.
func NewService(db *storage.DB, horizonDays int, log *slog.Logger) *Service {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Service{db: db, log: log, horizon: horizonDays, loc: time.Local, now: time.Now}
}

// Window returns the generation window starting today.
func (s *Service) Window() calendar.Window {
	return calendar.NewWindow(civil.DateOf(s.now().In(s.loc)), s.horizon)
}

// GenerateWindow fills the program's planned workouts through today plus the
// horizon. Calling it again creates nothing for days already planned.
func (s *Service) GenerateWindow(ctx context.Context, programID uuid.UUID) (Result, error) {
	w := s.Window()
	res := Result{ProgramID: programID, Window: w, From: w.Start.String(), To: w.End.String()}

	err := s.db.WithTx(ctx, func(q *storage.Queries) error {
		n, err := s.generate(ctx, q, programID, w)
		res.Created = n
		return err
	})
	if err != nil {
		return Result{}, err
	}

	s.log.Info("window generated", "program_id", programID, "window", w.String(), "created", res.Created)
	return res, nil
}

// GenerateWindowTx is GenerateWindow inside a caller's transaction.
func (s *Service) GenerateWindowTx(ctx context.Context, q *storage.Queries, programID uuid.UUID) (int, error) {
	return s.generate(ctx, q, programID, s.Window())
}

func (s *Service) generate(ctx context.Context, q *storage.Queries, programID uuid.UUID, w calendar.Window) (int, error) {
	if _, err := q.GetProgram(ctx, programID); err != nil {
		return 0, err
	}
	days, err := q.ListProgramDays(ctx, programID)
	if err != nil {
		return 0, err
	}
	existing, err := q.PlannedDayKeys(ctx, programID)
	if err != nil {
		return 0, err
	}
	last, err := q.LastPlannedByDay(ctx, programID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	created := 0
	for _, c := range Plan(existing, last, days, w) {
		ok, err := q.InsertPlannedWorkout(ctx, models.PlannedWorkout{
			ID:           uuid.New(),
			ProgramID:    programID,
			ProgramDayID: c.ProgramDayID,
			PlannedFor:   calendar.StartOfDay(c.Date, s.loc),
			DayKey:       c.DayKey(),
			CreatedAt:    now,
		})
		if err != nil {
			return created, fmt.Errorf("planning %s: %w", c.DayKey(), err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// RefreshActive regenerates the window of every active program. Failures of
// one program do not stop the others.
func (s *Service) RefreshActive(ctx context.Context) error {
	programs, err := s.db.ListPrograms(ctx, true)
	if err != nil {
		return err
	}
	var errs error
	for _, p := range programs {
		if _, err := s.GenerateWindow(ctx, p.ID); err != nil {
			s.log.Error("window generation failed", "program_id", p.ID, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("program %s: %w", p.ID, err))
		}
	}
	return errs
}
