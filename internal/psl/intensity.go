package psl

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/claude/workoutlog/internal/prescription"
)

// Unit is a load unit.
type Unit string

const (
	UnitKg Unit = "kg"
	UnitLb Unit = "lb"
)

// KgPerLb converts pounds to kilograms.
const KgPerLb = 0.45359237

// Load is a signed amount of weight.
type Load struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// Kg returns the load in kilograms.
func (l Load) Kg() float64 {
	if l.Unit == UnitLb {
		return l.Value * KgPerLb
	}
	return l.Value
}

// Intensity is the load-selection rule of one set.
type Intensity interface {
	isIntensity()
}

// PercentOf1RM is a percentage of the one-rep max, optionally adjusted by a load delta.
type PercentOf1RM struct {
	Percent float64
	Delta   *Load
}

// RPETarget is a rate-of-perceived-exertion target.
type RPETarget struct {
	Value float64
}

// RIRTarget is a reps-in-reserve target.
type RIRTarget struct {
	Value float64
}

// AbsoluteLoad is a fixed weight.
type AbsoluteLoad struct {
	Load Load
}

// LoadRange is a weight band.
type LoadRange struct {
	Min  float64
	Max  float64
	Unit Unit
}

// PercentOfSet is a percentage of the load used on an earlier set (1-based).
type PercentOfSet struct {
	Set     int
	Percent float64
}

// LoadDeltaFromSet is the load of an earlier set (1-based) plus a delta.
type LoadDeltaFromSet struct {
	Set   int
	Delta Load
}

func (PercentOf1RM) isIntensity()     {}
func (RPETarget) isIntensity()        {}
func (RIRTarget) isIntensity()        {}
func (AbsoluteLoad) isIntensity()     {}
func (LoadRange) isIntensity()        {}
func (PercentOfSet) isIntensity()     {}
func (LoadDeltaFromSet) isIntensity() {}

const num = `(\d+(?:\.\d+)?)`

var (
	percentRe      = regexp.MustCompile(`(?i)^` + num + `\s*%(?:\s*([+-])\s*` + num + `\s*(kg|lbs?)?)?$`)
	rpeRe          = regexp.MustCompile(`(?i)^RPE\s*` + num + `$`)
	rirRe          = regexp.MustCompile(`(?i)^RIR\s*` + num + `$`)
	loadRangeRe    = regexp.MustCompile(`(?i)^` + num + `\s*-\s*` + num + `\s*(kg|lbs?)?$`)
	loadRe         = regexp.MustCompile(`(?i)^` + num + `\s*(kg|lbs?)?$`)
	percentOfSetRe = regexp.MustCompile(`(?i)^` + num + `\s*%\s*(?:OF\s*)?S(?:ET)?\s*(\d+)$`)
	deltaFromSetRe = regexp.MustCompile(`(?i)^S(?:ET)?\s*(\d+)\s*([+-])\s*` + num + `\s*(kg|lbs?)?$`)
)

// ParseIntensity reads the textual intensity notation:
//
//	75%          percent of 1RM
//	75%+2.5kg    percent of 1RM plus a load delta
//	RPE8 RIR2    effort targets
//	100kg 225lb  absolute load (a bare number is kg)
//	100-110kg    load range
//	90%S1        percent of set 1
//	S1-10kg      set 1 load minus 10 kg
//
// A leading "@" is ignored. Matching is case-insensitive.
func ParseIntensity(s string) (Intensity, error) {
	raw := s
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "@"))
	if s == "" {
		return nil, fmt.Errorf("empty intensity")
	}

	if m := percentRe.FindStringSubmatch(s); m != nil {
		p := PercentOf1RM{Percent: mustFloat(m[1])}
		if m[2] != "" {
			d := Load{Value: mustFloat(m[3]), Unit: unitOf(m[4])}
			if m[2] == "-" {
				d.Value = -d.Value
			}
			p.Delta = &d
		}
		if p.Percent <= 0 {
			return nil, fmt.Errorf("intensity %q: percentage must be positive", raw)
		}
		return p, nil
	}
	if m := rpeRe.FindStringSubmatch(s); m != nil {
		v := mustFloat(m[1])
		if v > 10 {
			return nil, fmt.Errorf("intensity %q: RPE must be between 0 and 10", raw)
		}
		return RPETarget{Value: v}, nil
	}
	if m := rirRe.FindStringSubmatch(s); m != nil {
		return RIRTarget{Value: mustFloat(m[1])}, nil
	}
	if m := percentOfSetRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[2])
		return PercentOfSet{Set: n, Percent: mustFloat(m[1])}, nil
	}
	if m := deltaFromSetRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		d := Load{Value: mustFloat(m[3]), Unit: unitOf(m[4])}
		if m[2] == "-" {
			d.Value = -d.Value
		}
		return LoadDeltaFromSet{Set: n, Delta: d}, nil
	}
	if m := loadRangeRe.FindStringSubmatch(s); m != nil {
		lo, hi := mustFloat(m[1]), mustFloat(m[2])
		if lo > hi {
			return nil, fmt.Errorf("intensity %q: range minimum exceeds maximum", raw)
		}
		return LoadRange{Min: lo, Max: hi, Unit: unitOf(m[3])}, nil
	}
	if m := loadRe.FindStringSubmatch(s); m != nil {
		return AbsoluteLoad{Load: Load{Value: mustFloat(m[1]), Unit: unitOf(m[2])}}, nil
	}
	return nil, fmt.Errorf("unrecognised intensity %q", raw)
}

// FormatIntensity renders an intensity in the notation ParseIntensity reads.
func FormatIntensity(in Intensity) string {
	switch in := in.(type) {
	case PercentOf1RM:
		s := fmtNum(in.Percent) + "%"
		if in.Delta != nil {
			s += fmtSigned(in.Delta.Value) + string(in.Delta.Unit)
		}
		return s
	case RPETarget:
		return "RPE" + fmtNum(in.Value)
	case RIRTarget:
		return "RIR" + fmtNum(in.Value)
	case AbsoluteLoad:
		return fmtNum(in.Load.Value) + string(in.Load.Unit)
	case LoadRange:
		return fmtNum(in.Min) + "-" + fmtNum(in.Max) + string(in.Unit)
	case PercentOfSet:
		return fmtNum(in.Percent) + "%S" + strconv.Itoa(in.Set)
	case LoadDeltaFromSet:
		return "S" + strconv.Itoa(in.Set) + fmtSigned(in.Delta.Value) + string(in.Delta.Unit)
	default:
		return ""
	}
}

func unitOf(s string) Unit {
	if strings.HasPrefix(strings.ToLower(s), "lb") {
		return UnitLb
	}
	return UnitKg
}

func mustFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func fmtNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func fmtSigned(f float64) string {
	if f < 0 {
		return fmtNum(f)
	}
	return "+" + fmtNum(f)
}

// Wire form shared by the JSON encoding of compiled sets and calendar entries.
const (
	intensityPercent1RM   = "percent_1rm"
	intensityRPE          = "rpe"
	intensityRIR          = "rir"
	intensityLoad         = "load"
	intensityLoadRange    = "load_range"
	intensityPercentOfSet = "percent_of_set"
	intensityDeltaFromSet = "delta_from_set"
)

type intensityWire struct {
	Type  string   `json:"type" yaml:"type"`
	Value *float64 `json:"value,omitempty" yaml:"value"`
	Unit  Unit     `json:"unit,omitempty" yaml:"unit"`
	Min   *float64 `json:"min,omitempty" yaml:"min"`
	Max   *float64 `json:"max,omitempty" yaml:"max"`
	Set   int      `json:"set,omitempty" yaml:"set"`
	Delta *Load    `json:"delta,omitempty" yaml:"delta"`
}

func toWire(in Intensity) (intensityWire, error) {
	f := func(v float64) *float64 { return &v }
	switch in := in.(type) {
	case PercentOf1RM:
		return intensityWire{Type: intensityPercent1RM, Value: f(in.Percent), Delta: in.Delta}, nil
	case RPETarget:
		return intensityWire{Type: intensityRPE, Value: f(in.Value)}, nil
	case RIRTarget:
		return intensityWire{Type: intensityRIR, Value: f(in.Value)}, nil
	case AbsoluteLoad:
		return intensityWire{Type: intensityLoad, Value: f(in.Load.Value), Unit: in.Load.Unit}, nil
	case LoadRange:
		return intensityWire{Type: intensityLoadRange, Min: f(in.Min), Max: f(in.Max), Unit: in.Unit}, nil
	case PercentOfSet:
		return intensityWire{Type: intensityPercentOfSet, Value: f(in.Percent), Set: in.Set}, nil
	case LoadDeltaFromSet:
		d := in.Delta
		return intensityWire{Type: intensityDeltaFromSet, Set: in.Set, Delta: &d}, nil
	default:
		return intensityWire{}, fmt.Errorf("unknown intensity %T", in)
	}
}

func fromWire(w intensityWire) (Intensity, error) {
	unit := UnitKg
	if w.Unit != "" {
		unit = unitOf(string(w.Unit))
	}
	need := func(v *float64, field string) (float64, error) {
		if v == nil {
			return 0, fmt.Errorf("intensity %q requires %s", w.Type, field)
		}
		return *v, nil
	}
	switch strings.ToLower(w.Type) {
	case intensityPercent1RM, "percent", "percent_of_1rm":
		v, err := need(w.Value, "value")
		if err != nil {
			return nil, err
		}
		if v <= 0 {
			return nil, fmt.Errorf("intensity %q: percentage must be positive", w.Type)
		}
		p := PercentOf1RM{Percent: v}
		if w.Delta != nil {
			d := *w.Delta
			if d.Unit == "" {
				d.Unit = UnitKg
			}
			p.Delta = &d
		}
		return p, nil
	case intensityRPE:
		v, err := need(w.Value, "value")
		if err != nil {
			return nil, err
		}
		if v < 0 || v > 10 {
			return nil, fmt.Errorf("intensity %q: RPE must be between 0 and 10", w.Type)
		}
		return RPETarget{Value: v}, nil
	case intensityRIR:
		v, err := need(w.Value, "value")
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, fmt.Errorf("intensity %q: RIR must not be negative", w.Type)
		}
		return RIRTarget{Value: v}, nil
	case intensityLoad, "absolute":
		v, err := need(w.Value, "value")
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, fmt.Errorf("intensity %q: load must not be negative", w.Type)
		}
		return AbsoluteLoad{Load: Load{Value: v, Unit: unit}}, nil
	case intensityLoadRange:
		lo, err := need(w.Min, "min")
		if err != nil {
			return nil, err
		}
		hi, err := need(w.Max, "max")
		if err != nil {
			return nil, err
		}
		if lo > hi {
			return nil, fmt.Errorf("intensity %q: range minimum exceeds maximum", w.Type)
		}
		return LoadRange{Min: lo, Max: hi, Unit: unit}, nil
	case intensityPercentOfSet:
		v, err := need(w.Value, "value")
		if err != nil {
			return nil, err
		}
		if w.Set < 1 {
			return nil, fmt.Errorf("intensity %q requires set", w.Type)
		}
		return PercentOfSet{Set: w.Set, Percent: v}, nil
	case intensityDeltaFromSet:
		if w.Set < 1 {
			return nil, fmt.Errorf("intensity %q requires set", w.Type)
		}
		var d Load
		switch {
		case w.Delta != nil:
			d = *w.Delta
		case w.Value != nil:
			d = Load{Value: *w.Value, Unit: unit}
		default:
			return nil, fmt.Errorf("intensity %q requires delta", w.Type)
		}
		if d.Unit == "" {
			d.Unit = UnitKg
		}
		return LoadDeltaFromSet{Set: w.Set, Delta: d}, nil
	default:
		return nil, fmt.Errorf("unknown intensity type %q", w.Type)
	}
}

// MarshalIntensity encodes an intensity in its tagged JSON form.
func MarshalIntensity(in Intensity) (json.RawMessage, error) {
	w, err := toWire(in)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalIntensity decodes the tagged JSON form.
func UnmarshalIntensity(data []byte) (Intensity, error) {
	var w intensityWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding intensity: %w", err)
	}
	return fromWire(w)
}

type setWire struct {
	Reps      json.RawMessage `json:"reps"`
	Intensity json.RawMessage `json:"intensity,omitempty"`
	Warmup    bool            `json:"warmup,omitempty"`
}

// MarshalJSON encodes the set with tagged rep and intensity objects.
func (s CompiledSet) MarshalJSON() ([]byte, error) {
	reps, err := prescription.MarshalRepSpec(s.Reps)
	if err != nil {
		return nil, err
	}
	w := setWire{Reps: reps, Warmup: s.Warmup}
	if s.Intensity != nil {
		if w.Intensity, err = MarshalIntensity(s.Intensity); err != nil {
			return nil, err
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (s *CompiledSet) UnmarshalJSON(data []byte) error {
	var w setWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	reps, ok := prescription.ParseRepSpec(w.Reps)
	if !ok {
		return fmt.Errorf("decoding set: invalid reps %s", w.Reps)
	}
	*s = CompiledSet{Reps: reps, Warmup: w.Warmup}
	if len(w.Intensity) > 0 && string(w.Intensity) != "null" {
		in, err := UnmarshalIntensity(w.Intensity)
		if err != nil {
			return err
		}
		s.Intensity = in
	}
	return nil
}
