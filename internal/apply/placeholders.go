package apply

import "github.com/claude/workoutlog/internal/prescription"

// Placeholder is one unlogged set: weight unset, reps pre-filled when known.
type Placeholder struct {
	Reps     *int
	IsWarmup bool
}

// Placeholders expands a prescription into its sets in block order. Warmup
// sets carry the block's reps if any; work sets carry the fixed reps or the
// bottom of the range.
func Placeholders(p prescription.Prescription) []Placeholder {
	var out []Placeholder
	for _, b := range p.Blocks {
		switch b := b.(type) {
		case prescription.WarmupBlock:
			for i := 0; i < b.Sets; i++ {
				out = append(out, Placeholder{Reps: copyInt(b.Reps), IsWarmup: true})
			}
		case prescription.WorkBlock:
			reps := prescription.DefaultReps
			if b.Reps != nil {
				reps = b.Reps
			}
			for i := 0; i < b.Sets; i++ {
				n := reps.Floor()
				out = append(out, Placeholder{Reps: &n})
			}
		}
	}
	return out
}

func copyInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
