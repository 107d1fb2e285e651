package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/workoutlog/internal/models"
	"github.com/claude/workoutlog/internal/prescription"
	"github.com/claude/workoutlog/internal/storage"
	"github.com/google/uuid"
)

// Suggestion is the outcome of evaluating a program exercise's rule against
// its history. SuggestedKg is nil when no suggestion could be made; Reason
// then says why.
type Suggestion struct {
	ProgramExerciseID uuid.UUID  `json:"program_exercise_id"`
	ExerciseID        uuid.UUID  `json:"exercise_id"`
	Algorithm         Algorithm  `json:"algorithm,omitempty"`
	Cadence           Cadence    `json:"cadence,omitempty"`
	LastPerformedAt   *time.Time `json:"last_performed_at,omitempty"`
	LastWeightKg      *float64   `json:"last_weight_kg,omitempty"`
	SuggestedKg       *float64   `json:"suggested_kg,omitempty"`
	Reason            string     `json:"reason,omitempty"`
}

// Service evaluates progression rules against logged history.
type Service struct {
	db  *storage.DB
	log *slog.Logger
	now func() time.Time
}

// NewService creates a progression service.
func NewService(db *storage.DB, log *slog.Logger) *Service {
	return &Service{db: db, log: log, now: time.Now}
}

// Suggest computes the next load for a program exercise from its rule and
// the most recent completed session of the exercise.
func (s *Service) Suggest(ctx context.Context, programExerciseID uuid.UUID) (Suggestion, error) {
	pe, err := s.db.GetProgramExercise(ctx, programExerciseID)
	if err != nil {
		return Suggestion{}, err
	}
	out := Suggestion{ProgramExerciseID: pe.ID, ExerciseID: pe.ExerciseID}

	rules, err := s.db.ListProgressions(ctx, pe.ID)
	if err != nil {
		return Suggestion{}, err
	}
	if len(rules) == 0 {
		out.Reason = "no progression rule"
		return out, nil
	}
	rule := rules[len(rules)-1]
	if out.Algorithm, err = ParseAlgorithm(rule.Type); err != nil {
		return Suggestion{}, err
	}
	if out.Cadence, err = ParseCadence(rule.Cadence); err != nil {
		return Suggestion{}, err
	}

	last, err := s.db.LastCompletedSession(ctx, pe.ExerciseID)
	if storage.IsNotFound(err) {
		out.Reason = "no completed session"
		return out, nil
	}
	if err != nil {
		return Suggestion{}, err
	}
	out.LastPerformedAt = &last.PerformedAt

	lastMax, ok := topWeight(last.Sets)
	if !ok {
		out.Reason = "last session has no weighted working sets"
		return out, nil
	}
	out.LastWeightKg = &lastMax

	if out.Cadence == Weekly && !earlierISOWeek(last.PerformedAt, s.now()) {
		out.SuggestedKg = &lastMax
		out.Reason = "weekly cadence, already trained this week"
		return out, nil
	}

	in, reason := inputsFor(out.Algorithm, rule, pe, last.Sets, lastMax)
	if in == nil {
		out.Reason = reason
		return out, nil
	}
	next := SuggestNext(in)
	out.SuggestedKg = &next

	s.log.Debug("progression suggested",
		"program_exercise_id", pe.ID, "algorithm", out.Algorithm,
		"last_kg", lastMax, "next_kg", next)
	return out, nil
}

func inputsFor(alg Algorithm, rule models.Progression, pe models.ProgramExercise, sets []models.Set, lastMax float64) (Inputs, string) {
	switch alg {
	case KgPerSession:
		return KgPerSessionInputs{LastMaxWeight: lastMax, Value: rule.Value, CapKg: rule.CapKg}, ""
	case PercentPerSession:
		return PercentPerSessionInputs{LastMaxWeight: lastMax, Percent: rule.Value}, ""
	case DoubleProgression:
		target, ok := targetMaxReps(pe.Prescription)
		if !ok {
			return nil, "prescription has no work block"
		}
		inc := rule.Value
		if inc <= 0 {
			inc = DefaultIncrementKg
		}
		var reps []int
		for _, set := range sets {
			if set.Reps != nil {
				reps = append(reps, *set.Reps)
			}
		}
		return DoubleProgressionInputs{LastSessionReps: reps, TargetMaxReps: target, LastWeight: lastMax, Increment: inc}, ""
	case AutoregulatedRPE:
		var readings []float64
		for _, set := range sets {
			if set.RPE != nil {
				readings = append(readings, *set.RPE)
			}
		}
		return AutoregulatedRPEInputs{Readings: readings, TargetRPE: rule.Value, LastWeight: lastMax}, ""
	default:
		return nil, fmt.Sprintf("unsupported algorithm %q", alg)
	}
}

// topWeight returns the heaviest weighted set.
func topWeight(sets []models.Set) (float64, bool) {
	var (
		top   float64
		found bool
	)
	for _, set := range sets {
		if set.WeightKg != nil && (!found || *set.WeightKg > top) {
			top = *set.WeightKg
			found = true
		}
	}
	return top, found
}

// targetMaxReps is the rep ceiling of the first work block.
func targetMaxReps(doc string) (int, bool) {
	p, ok := prescription.ParseString(doc)
	if !ok {
		return 0, false
	}
	for _, b := range p.Blocks {
		if w, ok := b.(prescription.WorkBlock); ok {
			return w.Reps.Ceiling(), true
		}
	}
	return 0, false
}

// earlierISOWeek reports whether a falls in an ISO week before b's.
func earlierISOWeek(a, b time.Time) bool {
	ay, aw := a.ISOWeek()
	by, bw := b.ISOWeek()
	return ay < by || (ay == by && aw < bw)
}

// ErrNoSuggestion is returned by Accept when no load can be suggested.
var ErrNoSuggestion = errors.New("no load suggestion")

// Accepted is the outcome of Accept.
type Accepted struct {
	Suggestion   Suggestion `json:"suggestion"`
	Prescription string     `json:"prescription"`
	Updated      int        `json:"updated_blocks"`
}

// Accept writes the suggested load into the program exercise's
// prescription. Work blocks with no target or an absolute target get the
// suggested load; relative targets (percentages, RPE, RIR) are left as they
// are. ErrNoSuggestion is returned when Suggest yields no load or no block
// can take it.
func (s *Service) Accept(ctx context.Context, programExerciseID uuid.UUID) (Accepted, error) {
	sug, err := s.Suggest(ctx, programExerciseID)
	if err != nil {
		return Accepted{}, err
	}
	if sug.SuggestedKg == nil {
		return Accepted{}, fmt.Errorf("%w: %s", ErrNoSuggestion, sug.Reason)
	}

	var out Accepted
	err = s.db.WithTx(ctx, func(q *storage.Queries) error {
		pe, err := q.GetProgramExercise(ctx, programExerciseID)
		if err != nil {
			return err
		}
		p, ok := prescription.ParseString(pe.Prescription)
		if !ok {
			return fmt.Errorf("%w: unreadable prescription", ErrNoSuggestion)
		}
		n := withTargetKg(&p, *sug.SuggestedKg)
		if n == 0 {
			return fmt.Errorf("%w: no work block takes an absolute load", ErrNoSuggestion)
		}
		doc, err := prescription.SerializeString(p)
		if err != nil {
			return fmt.Errorf("serializing prescription: %w", err)
		}
		if err := q.UpdateProgramExercisePrescription(ctx, pe.ID, doc); err != nil {
			return err
		}
		out = Accepted{Suggestion: sug, Prescription: doc, Updated: n}
		return nil
	})
	if err != nil {
		return Accepted{}, fmt.Errorf("accepting suggestion: %w", err)
	}

	s.log.Info("progression accepted",
		"program_exercise_id", programExerciseID,
		"target_kg", *sug.SuggestedKg, "blocks", out.Updated)
	return out, nil
}

// withTargetKg sets kg on every work block whose target is absent or
// absolute and returns how many blocks changed.
func withTargetKg(p *prescription.Prescription, kg float64) int {
	n := 0
	for i, b := range p.Blocks {
		w, ok := b.(prescription.WorkBlock)
		if !ok {
			continue
		}
		switch w.Target.(type) {
		case nil, prescription.FixedWeightKg:
			w.Target = prescription.FixedWeightKg{Kg: kg}
			p.Blocks[i] = w
			n++
		}
	}
	return n
}
