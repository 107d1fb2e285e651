// Package prescription defines the persisted, versioned description of one
// exercise's planned work (ProgramPrescriptionV1) and its lenient JSON codec.
package prescription

// Version is the only schema version this package reads or writes.
const Version = 1

// MaxBlockSets is the largest set count a block may carry. Larger or
// non-positive counts read back as the default of one set.
const MaxBlockSets = 100

// Prescription is one exercise's planned work.
type Prescription struct {
	Version     int
	RestSeconds *int
	Notes       *string
	Blocks      []Block
}

// Block is either a WarmupBlock or a WorkBlock.
type Block interface {
	isBlock()
	// SetCount is the number of physical sets the block prescribes.
	SetCount() int
}

// WarmupBlock prescribes preparatory sets.
type WarmupBlock struct {
	Style string
	Sets  int
	Reps  *int
}

// WorkBlock prescribes training-stimulus sets.
type WorkBlock struct {
	Sets   int
	Reps   RepSpec
	Target TargetSpec // nil when no load target is prescribed
}

func (WarmupBlock) isBlock() {}
func (WorkBlock) isBlock()   {}

func (b WarmupBlock) SetCount() int { return b.Sets }
func (b WorkBlock) SetCount() int   { return b.Sets }

// RepSpec is a fixed rep count or a min-max range.
type RepSpec interface {
	isRepSpec()
	// Floor is the rep count a placeholder set starts from.
	Floor() int
	// Ceiling is the rep count that completes the spec.
	Ceiling() int
}

// FixedReps is an exact rep count.
type FixedReps struct {
	Value int
}

// RepRange is an inclusive rep range.
type RepRange struct {
	Min int
	Max int
}

func (FixedReps) isRepSpec() {}
func (RepRange) isRepSpec()  {}

func (r FixedReps) Floor() int   { return r.Value }
func (r FixedReps) Ceiling() int { return r.Value }
func (r RepRange) Floor() int    { return r.Min }
func (r RepRange) Ceiling() int  { return r.Max }

// TargetSpec selects the load for a work block.
type TargetSpec interface {
	isTarget()
}

// FixedWeightKg is an absolute load.
type FixedWeightKg struct {
	Kg float64
}

// PercentE1RM is a percentage of the estimated one-rep max.
type PercentE1RM struct {
	Percent float64
}

// RPE is a rate-of-perceived-exertion target.
type RPE struct {
	Value float64
}

// RIR is a reps-in-reserve target.
type RIR struct {
	Value float64
}

func (FixedWeightKg) isTarget() {}
func (PercentE1RM) isTarget()   {}
func (RPE) isTarget()           {}
func (RIR) isTarget()           {}

// DefaultReps is substituted for a malformed rep spec.
var DefaultReps RepSpec = FixedReps{Value: 5}

// DefaultWarmupStyle is used when a warmup block names no style.
const DefaultWarmupStyle = "ramp"

// SetCount returns the total number of physical sets in p.
func (p Prescription) SetCount() int {
	n := 0
	for _, b := range p.Blocks {
		n += b.SetCount()
	}
	return n
}
