package program

import (
	"github.com/claude/workoutlog/internal/prescription"
	"github.com/claude/workoutlog/internal/psl"
)

// ToPrescription collapses a compiled exercise into prescription blocks:
// each run of warmup sets becomes a WarmupBlock and each run of identical
// work sets becomes a WorkBlock.
func ToPrescription(ex psl.CompiledExercise) prescription.Prescription {
	p := prescription.Prescription{Version: prescription.Version, Blocks: []prescription.Block{}}
	if ex.RestSeconds != nil {
		rest := *ex.RestSeconds
		p.RestSeconds = &rest
	}
	if ex.Notes != "" {
		notes := ex.Notes
		p.Notes = &notes
	}

	for i := 0; i < len(ex.Sets); {
		set := ex.Sets[i]
		j := i + 1
		if set.Warmup {
			for j < len(ex.Sets) && ex.Sets[j].Warmup {
				j++
			}
			p.Blocks = append(p.Blocks, warmupBlock(ex.Sets[i:j]))
		} else {
			target := Target(set.Intensity)
			for j < len(ex.Sets) && !ex.Sets[j].Warmup &&
				ex.Sets[j].Reps == set.Reps && Target(ex.Sets[j].Intensity) == target {
				j++
			}
			reps := set.Reps
			if reps == nil {
				reps = prescription.DefaultReps
			}
			p.Blocks = append(p.Blocks, prescription.WorkBlock{Sets: j - i, Reps: reps, Target: target})
		}
		i = j
	}
	return p
}

// warmupBlock keeps the rep count only when every set of the run shares
// one fixed value.
func warmupBlock(sets []psl.CompiledSet) prescription.WarmupBlock {
	b := prescription.WarmupBlock{Style: prescription.DefaultWarmupStyle, Sets: len(sets)}
	first, ok := sets[0].Reps.(prescription.FixedReps)
	if !ok {
		return b
	}
	for _, s := range sets[1:] {
		if s.Reps != first {
			return b
		}
	}
	n := first.Value
	b.Reps = &n
	return b
}

// Target maps a set intensity to the prescription target it can be stored
// as. Intensities relative to other sets, load ranges and adjusted
// percentages have no stored form and map to nil.
func Target(in psl.Intensity) prescription.TargetSpec {
	switch in := in.(type) {
	case psl.PercentOf1RM:
		if in.Delta == nil {
			return prescription.PercentE1RM{Percent: in.Percent}
		}
	case psl.RPETarget:
		return prescription.RPE{Value: in.Value}
	case psl.RIRTarget:
		return prescription.RIR{Value: in.Value}
	case psl.AbsoluteLoad:
		return prescription.FixedWeightKg{Kg: in.Load.Kg()}
	}
	return nil
}
