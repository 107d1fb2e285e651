// Package progression computes the next suggested training load from the
// results of the previous session.
package progression

import (
	"fmt"
	"math"
)

// Algorithm names a progression rule type.
type Algorithm string

const (
	KgPerSession      Algorithm = "kg_per_session"
	PercentPerSession Algorithm = "percent_per_session"
	DoubleProgression Algorithm = "double_progression"
	AutoregulatedRPE  Algorithm = "autoreg_rpe"
)

// DefaultIncrementKg is the double-progression step when a rule gives none.
const DefaultIncrementKg = 2.5

// Cadence is how often a rule re-evaluates.
type Cadence string

const (
	EverySession Cadence = "every_session"
	Weekly       Cadence = "weekly"
)

// ParseAlgorithm validates a stored rule type.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case KgPerSession, PercentPerSession, DoubleProgression, AutoregulatedRPE:
		return a, nil
	}
	return "", fmt.Errorf("unknown progression type %q", s)
}

// ParseCadence validates a stored cadence. Empty means every session.
func ParseCadence(s string) (Cadence, error) {
	switch c := Cadence(s); c {
	case "":
		return EverySession, nil
	case EverySession, Weekly:
		return c, nil
	}
	return "", fmt.Errorf("unknown cadence %q", s)
}

// Inputs carries the data one algorithm needs.
type Inputs interface {
	isInputs()
}

// KgPerSessionInputs adds a fixed amount, optionally capped.
type KgPerSessionInputs struct {
	LastMaxWeight float64
	Value         float64
	CapKg         *float64
}

// PercentPerSessionInputs adds a percentage of the last top weight.
type PercentPerSessionInputs struct {
	LastMaxWeight float64
	Percent       float64
}

// DoubleProgressionInputs adds Increment once every set hit TargetMaxReps.
type DoubleProgressionInputs struct {
	LastSessionReps []int
	TargetMaxReps   int
	LastWeight      float64
	Increment       float64
}

// AutoregulatedRPEInputs moves the load toward TargetRPE.
type AutoregulatedRPEInputs struct {
	Readings   []float64
	TargetRPE  float64
	LastWeight float64
}

func (KgPerSessionInputs) isInputs()      {}
func (PercentPerSessionInputs) isInputs() {}
func (DoubleProgressionInputs) isInputs() {}
func (AutoregulatedRPEInputs) isInputs()  {}

// SuggestNext returns the suggested load for the next session.
func SuggestNext(in Inputs) float64 {
	switch in := in.(type) {
	case KgPerSessionInputs:
		next := in.LastMaxWeight + in.Value
		if in.CapKg != nil {
			next = math.Min(next, *in.CapKg)
		}
		return next
	case PercentPerSessionInputs:
		return RoundQuarter(in.LastMaxWeight * (1 + in.Percent/100))
	case DoubleProgressionInputs:
		if len(in.LastSessionReps) == 0 {
			return in.LastWeight
		}
		for _, r := range in.LastSessionReps {
			if r < in.TargetMaxReps {
				return in.LastWeight
			}
		}
		return in.LastWeight + in.Increment
	case AutoregulatedRPEInputs:
		if len(in.Readings) == 0 {
			return in.LastWeight
		}
		var sum float64
		for _, r := range in.Readings {
			sum += r
		}
		avg := sum / float64(len(in.Readings))
		bump := math.Max(2.5, in.LastWeight*0.025)
		switch {
		case avg < in.TargetRPE-0.5:
			return RoundQuarter(in.LastWeight + bump)
		case avg > in.TargetRPE+0.5:
			return RoundQuarter(in.LastWeight - bump)
		default:
			return in.LastWeight
		}
	default:
		panic(fmt.Sprintf("progression: unknown inputs %T", in))
	}
}

// RoundQuarter rounds to the nearest 0.25.
func RoundQuarter(x float64) float64 {
	return math.Round(x*4) / 4
}
