package prescription

import (
	"fmt"
	"strconv"
	"strings"
)

// SimpleArgs describes the common "N warmups, then S×R at a target" shape.
type SimpleArgs struct {
	WarmupSets  int
	WarmupReps  int // 0 leaves warmup reps unset
	Sets        int
	Reps        RepSpec
	Target      TargetSpec
	RestSeconds int // 0 leaves rest unset
	Notes       string
}

// CreateSimple builds a prescription with at most one warmup block and one
// work block.
func CreateSimple(args SimpleArgs) Prescription {
	p := Prescription{Version: Version, Blocks: []Block{}}
	if args.RestSeconds > 0 {
		rest := args.RestSeconds
		p.RestSeconds = &rest
	}
	if args.Notes != "" {
		notes := args.Notes
		p.Notes = &notes
	}
	if args.WarmupSets > 0 {
		wb := WarmupBlock{Style: DefaultWarmupStyle, Sets: min(args.WarmupSets, MaxBlockSets)}
		if args.WarmupReps > 0 {
			reps := args.WarmupReps
			wb.Reps = &reps
		}
		p.Blocks = append(p.Blocks, wb)
	}
	sets := args.Sets
	if sets <= 0 {
		sets = 1
	}
	sets = min(sets, MaxBlockSets)
	reps := args.Reps
	if reps == nil || reps.Floor() <= 0 || reps.Floor() > reps.Ceiling() {
		reps = DefaultReps
	}
	p.Blocks = append(p.Blocks, WorkBlock{Sets: sets, Reps: reps, Target: args.Target})
	return p
}

// Describe renders a one-line summary such as "2 warmup · 3×5 @ 75% e1RM".
func Describe(p Prescription) string {
	parts := make([]string, 0, len(p.Blocks)+1)
	for _, b := range p.Blocks {
		switch b := b.(type) {
		case WarmupBlock:
			s := fmt.Sprintf("%d warmup", b.Sets)
			if b.Reps != nil {
				s += fmt.Sprintf("×%d", *b.Reps)
			}
			parts = append(parts, s)
		case WorkBlock:
			s := fmt.Sprintf("%d×%s", b.Sets, DescribeReps(b.Reps))
			if b.Target != nil {
				s += " @ " + DescribeTarget(b.Target)
			}
			parts = append(parts, s)
		}
	}
	if p.RestSeconds != nil {
		parts = append(parts, fmt.Sprintf("rest %ds", *p.RestSeconds))
	}
	return strings.Join(parts, " · ")
}

// DescribeReps renders "5" or "8-12".
func DescribeReps(r RepSpec) string {
	switch r := r.(type) {
	case FixedReps:
		return strconv.Itoa(r.Value)
	case RepRange:
		return fmt.Sprintf("%d-%d", r.Min, r.Max)
	default:
		return "?"
	}
}

// DescribeTarget renders a target spec for display.
func DescribeTarget(t TargetSpec) string {
	switch t := t.(type) {
	case FixedWeightKg:
		return formatNumber(t.Kg) + " kg"
	case PercentE1RM:
		return formatNumber(t.Percent) + "% e1RM"
	case RPE:
		return "RPE " + formatNumber(t.Value)
	case RIR:
		return "RIR " + formatNumber(t.Value)
	default:
		return ""
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
