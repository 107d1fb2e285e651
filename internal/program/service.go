// Package program persists compiled program documents as programs, days and
// prescribed exercises, and manages their progression rules and activation.
package program

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/claude/workoutlog/internal/calendar"
	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/prescription"
	"github.com/claude/workoutlog/internal/progression"
	"github.com/claude/workoutlog/internal/psl"
	"github.com/claude/workoutlog/internal/scheduler"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/google/uuid"
)

var (
	// ErrInvalidProgram is returned when a program document does not compile.
	ErrInvalidProgram = errors.New("program document is invalid")
	// ErrInvalidRule is returned for progression rules that cannot be stored.
	ErrInvalidRule = errors.New("invalid progression rule")
)

// Service manages stored programs.
type Service struct {
	db    *storage.DB
	sched *scheduler.Service
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a program service. sched generates the planned window
// when a program is activated.
func NewService(db *storage.DB, sched *scheduler.Service, log *slog.Logger) *Service {
	return &Service{db: db, sched: sched, log: log, now: time.Now}
}

// ImportSource compiles src and imports it. The compile result is returned
// even when the document is invalid so callers can show its diagnostics.
func (s *Service) ImportSource(ctx context.Context, src string) (models.Program, psl.Result, error) {
	res := psl.Compile(src)
	if !res.Valid {
		return models.Program{}, res, ErrInvalidProgram
	}
	p, err := s.Import(ctx, res.Compiled, src)
	return p, res, err
}

// Import persists a compiled program as an inactive program. Calendar
// programs get one anchored day per dated session; weekday sessions get one
// weekly day per weekday; cycle-day sessions become interval days repeating
// every cycle length. Nothing is written unless every row is.
func (s *Service) Import(ctx context.Context, compiled *psl.CompiledProgram, source string) (models.Program, error) {
	now := s.now()
	p := models.Program{
		ID:        uuid.New(),
		Name:      compiled.Name,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	days := planDays(compiled)

	err := s.db.WithTx(ctx, func(q *storage.Queries) error {
		if err := q.InsertProgram(ctx, p); err != nil {
			return err
		}
		for i, d := range days {
			d.day.ID = uuid.New()
			d.day.ProgramID = p.ID
			d.day.OrderIndex = i
			if err := q.InsertProgramDay(ctx, d.day); err != nil {
				return fmt.Errorf("inserting day %q: %w", d.day.Name, err)
			}
			for j, ex := range d.exercises {
				if err := insertExercise(ctx, q, d.day.ID, j, ex); err != nil {
					return fmt.Errorf("inserting %q on day %q: %w", ex.Name, d.day.Name, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return models.Program{}, fmt.Errorf("importing program: %w", err)
	}

	s.log.Info("program imported", "program_id", p.ID, "name", p.Name, "days", len(days))
	return p, nil
}

func insertExercise(ctx context.Context, q *storage.Queries, dayID uuid.UUID, order int, ex psl.CompiledExercise) error {
	exerciseID, _, err := q.EnsureExercise(ctx, ex.Name)
	if err != nil {
		return err
	}
	doc, err := prescription.SerializeString(ToPrescription(ex))
	if err != nil {
		return err
	}
	return q.InsertProgramExercise(ctx, models.ProgramExercise{
		ID:           uuid.New(),
		ProgramDayID: dayID,
		ExerciseID:   exerciseID,
		OrderIndex:   order,
		Prescription: doc,
	})
}

type plannedDay struct {
	day       models.ProgramDay
	exercises []psl.CompiledExercise
}

func planDays(c *psl.CompiledProgram) []plannedDay {
	if c.Calendar != nil {
		var out []plannedDay
		for _, m := range psl.Materialize(c, *c.Calendar) {
			wd := calendar.Weekday(m.Date)
			anchor := m.Date
			out = append(out, plannedDay{
				day: models.ProgramDay{
					Name:      m.SessionName,
					Schedule:  models.ScheduleWeekly,
					DayOfWeek: &wd,
					Anchor:    &anchor,
					Note:      m.DateISO,
				},
				exercises: m.Exercises,
			})
		}
		return out
	}

	var out []plannedDay
	var cycle []psl.CompiledSession
	cycleLen := 0
	for _, sess := range c.Sessions {
		switch r := sess.Recurrence.(type) {
		case psl.Weekdays:
			for _, wd := range r.Days {
				out = append(out, plannedDay{
					day: models.ProgramDay{
						Name:      sess.Name,
						Schedule:  models.ScheduleWeekly,
						DayOfWeek: &wd,
						Note:      calendar.WeekdayCode(wd),
					},
					exercises: sess.Exercises,
				})
			}
		case psl.CycleDay:
			cycle = append(cycle, sess)
			cycleLen = max(cycleLen, r.Index)
		}
	}

	sort.SliceStable(cycle, func(i, j int) bool {
		return cycle[i].Recurrence.(psl.CycleDay).Index < cycle[j].Recurrence.(psl.CycleDay).Index
	})
	for _, sess := range cycle {
		n := cycleLen
		idx := sess.Recurrence.(psl.CycleDay).Index
		out = append(out, plannedDay{
			day: models.ProgramDay{
				Name:         sess.Name,
				Schedule:     models.ScheduleInterval,
				IntervalDays: &n,
				CycleIndex:   &idx,
				Note:         fmt.Sprintf("day %d", idx),
			},
			exercises: sess.Exercises,
		})
	}
	return out
}

// Rule is a progression rule as supplied by a client.
type Rule struct {
	Type    string   `json:"type"`
	Value   float64  `json:"value"`
	Cadence string   `json:"cadence,omitempty"`
	CapKg   *float64 `json:"cap_kg,omitempty"`
}

func (r Rule) validate() error {
	if _, err := progression.ParseAlgorithm(r.Type); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if _, err := progression.ParseCadence(r.Cadence); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if r.CapKg != nil && *r.CapKg <= 0 {
		return fmt.Errorf("%w: cap_kg must be positive", ErrInvalidRule)
	}
	return nil
}

// ReplaceProgressions deletes every rule of a program exercise and inserts
// rules in their place.
func (s *Service) ReplaceProgressions(ctx context.Context, programExerciseID uuid.UUID, rules []Rule) ([]models.Progression, error) {
	for i, r := range rules {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	var out []models.Progression
	err := s.db.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetProgramExercise(ctx, programExerciseID); err != nil {
			return err
		}
		var err error
		out, err = s.replace(ctx, q, programExerciseID, rules)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("replacing progressions: %w", err)
	}
	return out, nil
}

// PropagateProgression replaces the rules of every program exercise in the
// program that trains exerciseID with the single rule r. It returns how many
// program exercises were updated.
func (s *Service) PropagateProgression(ctx context.Context, programID, exerciseID uuid.UUID, r Rule) (int, error) {
	if err := r.validate(); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.WithTx(ctx, func(q *storage.Queries) error {
		pes, err := q.ListProgramExercisesByExercise(ctx, programID, exerciseID)
		if err != nil {
			return err
		}
		for _, pe := range pes {
			if _, err := s.replace(ctx, q, pe.ID, []Rule{r}); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("propagating progression: %w", err)
	}
	s.log.Info("progression propagated", "program_id", programID, "exercise_id", exerciseID, "updated", n)
	return n, nil
}

func (s *Service) replace(ctx context.Context, q *storage.Queries, peID uuid.UUID, rules []Rule) ([]models.Progression, error) {
	if _, err := q.DeleteProgressions(ctx, peID); err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]models.Progression, 0, len(rules))
	for _, r := range rules {
		cadence, _ := progression.ParseCadence(r.Cadence)
		p := models.Progression{
			ID:                uuid.New(),
			ProgramExerciseID: peID,
			Type:              r.Type,
			Value:             r.Value,
			Cadence:           string(cadence),
			CapKg:             r.CapKg,
			CreatedAt:         now,
		}
		if err := q.InsertProgression(ctx, p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Activation summarizes what activating a program produced.
type Activation struct {
	Program         models.Program `json:"program"`
	CalendarEntries int            `json:"calendar_entries"`
	Planned         int            `json:"planned"`
}

// Activate marks a program active, rebuilds its calendar entries from a fresh
// compile of its stored document and plans its upcoming window.
func (s *Service) Activate(ctx context.Context, programID uuid.UUID) (Activation, error) {
	var act Activation
	err := s.db.WithTx(ctx, func(q *storage.Queries) error {
		p, err := q.GetProgram(ctx, programID)
		if err != nil {
			return err
		}
		if err := q.SetProgramActive(ctx, programID, true); err != nil {
			return err
		}
		p.IsActive = true

		entries, err := s.calendarEntries(p)
		if err != nil {
			return err
		}
		if err := q.ReplaceCalendarEntries(ctx, programID, entries); err != nil {
			return fmt.Errorf("replacing calendar entries: %w", err)
		}

		planned, err := s.sched.GenerateWindowTx(ctx, q, programID)
		if err != nil {
			return fmt.Errorf("generating window: %w", err)
		}
		act = Activation{Program: p, CalendarEntries: len(entries), Planned: planned}
		return nil
	})
	if err != nil {
		return Activation{}, fmt.Errorf("activating program: %w", err)
	}
	s.log.Info("program activated", "program_id", programID,
		"calendar_entries", act.CalendarEntries, "planned", act.Planned)
	return act, nil
}

func (s *Service) calendarEntries(p models.Program) ([]models.CalendarEntry, error) {
	if p.Source == "" {
		return nil, nil
	}
	res := psl.Compile(p.Source)
	if !res.Valid {
		return nil, ErrInvalidProgram
	}
	now := s.now()
	var out []models.CalendarEntry
	for _, e := range psl.ExtractCalendarEntries(res.Materialized) {
		doc, err := e.ExercisesJSON()
		if err != nil {
			return nil, err
		}
		out = append(out, models.CalendarEntry{
			ID:           uuid.New(),
			ProgramID:    p.ID,
			PSLSessionID: e.PSLSessionID,
			SessionName:  e.SessionName,
			DateISO:      e.DateISO,
			Exercises:    doc,
			CreatedAt:    now,
		})
	}
	return out, nil
}

// Deactivate stops a program from being planned. Existing planned workouts
// are kept.
func (s *Service) Deactivate(ctx context.Context, programID uuid.UUID) error {
	if err := s.db.SetProgramActive(ctx, programID, false); err != nil {
		return fmt.Errorf("deactivating program: %w", err)
	}
	return nil
}

// Delete removes a program with its days, exercises, rules, planned workouts
// and calendar entries.
func (s *Service) Delete(ctx context.Context, programID uuid.UUID) error {
	if err := s.db.DeleteProgram(ctx, programID); err != nil {
		return fmt.Errorf("deleting program: %w", err)
	}
	s.log.Info("program deleted", "program_id", programID)
	return nil
}
