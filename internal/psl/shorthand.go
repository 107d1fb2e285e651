package psl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/claude/workoutlog/internal/prescription"
)

// MaxSetsPerEntry bounds how many physical sets one shorthand string or
// structured set entry may expand to, and how many one exercise may hold.
const MaxSetsPerEntry = prescription.MaxBlockSets

// shorthandRe matches "<name>: <N>x<Reps> [@<Intensity>]". The name is greedy
// so it may itself contain colons.
var shorthandRe = regexp.MustCompile(`^\s*(.+)\s*:\s*(\d+)\s*[xX×]\s*(\d+(?:\s*-\s*\d+)?)\s*(?:@\s*(.+?))?\s*$`)

// ExpandShorthand turns a shorthand exercise string into a compiled exercise
// with one set per physical set.
func ExpandShorthand(s string) (CompiledExercise, error) {
	m := shorthandRe.FindStringSubmatch(s)
	if m == nil {
		return CompiledExercise{}, fmt.Errorf("shorthand %q does not match \"<name>: <sets>x<reps> @<intensity>\"", s)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n > MaxSetsPerEntry {
		return CompiledExercise{}, fmt.Errorf("shorthand %q: set count must be at most %d", s, MaxSetsPerEntry)
	}
	if n < 1 {
		return CompiledExercise{}, fmt.Errorf("shorthand %q: set count must be at least 1", s)
	}
	reps, err := ParseReps(m[3])
	if err != nil {
		return CompiledExercise{}, fmt.Errorf("shorthand %q: %w", s, err)
	}
	var in Intensity
	if m[4] != "" {
		if in, err = ParseIntensity(m[4]); err != nil {
			return CompiledExercise{}, fmt.Errorf("shorthand %q: %w", s, err)
		}
		if setRef(in) > 0 {
			return CompiledExercise{}, fmt.Errorf("shorthand %q: set references need the structured form", s)
		}
	}
	ex := CompiledExercise{Name: strings.TrimSpace(m[1]), Sets: make([]CompiledSet, 0, n)}
	for i := 0; i < n; i++ {
		ex.Sets = append(ex.Sets, CompiledSet{Reps: reps, Intensity: in})
	}
	return ex, nil
}

// ParseReps reads "5" or "8-12".
func ParseReps(s string) (prescription.RepSpec, error) {
	s = strings.TrimSpace(s)
	if a, b, ok := strings.Cut(s, "-"); ok {
		lo, err1 := strconv.Atoi(strings.TrimSpace(a))
		hi, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("invalid rep range %q", s)
		}
		return newRange(lo, hi)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid rep count %q", s)
	}
	return newFixed(n)
}

func newFixed(n int) (prescription.RepSpec, error) {
	if n < 1 {
		return nil, fmt.Errorf("rep count must be at least 1, got %d", n)
	}
	return prescription.FixedReps{Value: n}, nil
}

func newRange(lo, hi int) (prescription.RepSpec, error) {
	if lo < 1 || lo > hi {
		return nil, fmt.Errorf("invalid rep range %d-%d", lo, hi)
	}
	if lo == hi {
		return prescription.FixedReps{Value: lo}, nil
	}
	return prescription.RepRange{Min: lo, Max: hi}, nil
}
