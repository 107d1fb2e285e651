package prescription

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSchemaVersion is returned when a document claims a version other than 1.
	ErrSchemaVersion = errors.New("unsupported prescription version")
	// ErrMalformed is returned when the document is not a JSON object with a block list.
	ErrMalformed = errors.New("malformed prescription")
)

const (
	kindWarmup = "warmup"
	kindWork   = "work"

	repFixed = "fixed"
	repRange = "range"

	targetFixedWeightKg = "fixedWeightKg"
	targetPercentE1RM   = "percentE1RM"
	targetRPE           = "rpe"
	targetRIR           = "rir"
)

// Parse decodes a prescription document. It returns ok=false for any
// document Decode rejects and never guesses at an unknown version.
func Parse(data []byte) (Prescription, bool) {
	p, err := Decode(data)
	if err != nil {
		return Prescription{}, false
	}
	return p, true
}

// ParseString is Parse for a string column.
func ParseString(s string) (Prescription, bool) {
	return Parse([]byte(s))
}

// Decode runs the hard gate (object shape and version) and then the soft
// default fill over the blocks. Only the gate can fail.
func Decode(data []byte) (Prescription, error) {
	doc, err := gate(data)
	if err != nil {
		return Prescription{}, err
	}
	return fill(doc), nil
}

// document is the gated, still-raw top level of a prescription.
type document struct {
	restSeconds json.RawMessage
	notes       json.RawMessage
	blocks      []json.RawMessage
}

// gate is the hard-fail pass.
func gate(data []byte) (document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return document{}, fmt.Errorf("%w: not a JSON object", ErrMalformed)
	}

	if raw, ok := top["version"]; ok {
		v, isNum := asInt(raw)
		if !isNum || v != Version {
			return document{}, fmt.Errorf("%w: %s", ErrSchemaVersion, bytes.TrimSpace(raw))
		}
	}

	doc := document{restSeconds: top["restSeconds"], notes: top["notes"]}
	if raw, ok := top["blocks"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &doc.blocks); err != nil {
			return document{}, fmt.Errorf("%w: blocks is not an array", ErrMalformed)
		}
	}
	return doc, nil
}

// fill is the soft-default pass: malformed optional fields become absent,
// malformed block fields fall back to their defaults, unknown block kinds
// are dropped.
func fill(doc document) Prescription {
	p := Prescription{Version: Version, Blocks: []Block{}}

	if v, ok := asInt(doc.restSeconds); ok && v >= 0 {
		p.RestSeconds = &v
	}
	var notes string
	if doc.notes != nil && !isNull(doc.notes) && json.Unmarshal(doc.notes, &notes) == nil {
		p.Notes = &notes
	}

	for _, raw := range doc.blocks {
		if b, ok := parseBlock(raw); ok {
			p.Blocks = append(p.Blocks, b)
		}
	}
	return p
}

func parseBlock(raw json.RawMessage) (Block, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}
	var kind string
	if err := json.Unmarshal(fields["kind"], &kind); err != nil {
		return nil, false
	}

	switch kind {
	case kindWarmup:
		b := WarmupBlock{Style: DefaultWarmupStyle, Sets: 1}
		var style string
		if json.Unmarshal(fields["style"], &style) == nil && style != "" {
			b.Style = style
		}
		if n, ok := asInt(fields["sets"]); ok && n > 0 && n <= MaxBlockSets {
			b.Sets = n
		}
		if n, ok := asInt(fields["reps"]); ok && n > 0 {
			b.Reps = &n
		}
		return b, true
	case kindWork:
		b := WorkBlock{Sets: 1, Reps: DefaultReps}
		if n, ok := asInt(fields["sets"]); ok && n > 0 && n <= MaxBlockSets {
			b.Sets = n
		}
		if r, ok := ParseRepSpec(fields["reps"]); ok {
			b.Reps = r
		}
		if t, ok := parseTarget(fields["target"]); ok {
			b.Target = t
		}
		return b, true
	default:
		return nil, false
	}
}

// ParseRepSpec decodes a {"type":"fixed"|"range"} rep spec. A bare positive
// integer is accepted as a fixed spec.
func ParseRepSpec(raw json.RawMessage) (RepSpec, bool) {
	if len(raw) == 0 || isNull(raw) {
		return nil, false
	}
	if n, ok := asInt(raw); ok {
		if n > 0 {
			return FixedReps{Value: n}, true
		}
		return nil, false
	}
	var w struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
		Min   json.RawMessage `json:"min"`
		Max   json.RawMessage `json:"max"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, false
	}
	switch w.Type {
	case repFixed:
		if n, ok := asInt(w.Value); ok && n > 0 {
			return FixedReps{Value: n}, true
		}
	case repRange:
		lo, okLo := asInt(w.Min)
		hi, okHi := asInt(w.Max)
		if okLo && okHi && lo > 0 && lo <= hi {
			return RepRange{Min: lo, Max: hi}, true
		}
	}
	return nil, false
}

func parseTarget(raw json.RawMessage) (TargetSpec, bool) {
	if len(raw) == 0 || isNull(raw) {
		return nil, false
	}
	var w struct {
		Type  string   `json:"type"`
		Value *float64 `json:"value"`
	}
	if err := json.Unmarshal(raw, &w); err != nil || w.Value == nil {
		return nil, false
	}
	v := *w.Value
	switch w.Type {
	case targetFixedWeightKg:
		if v >= 0 {
			return FixedWeightKg{Kg: v}, true
		}
	case targetPercentE1RM:
		if v > 0 {
			return PercentE1RM{Percent: v}, true
		}
	case targetRPE:
		if v >= 0 && v <= 10 {
			return RPE{Value: v}, true
		}
	case targetRIR:
		if v >= 0 {
			return RIR{Value: v}, true
		}
	}
	return nil, false
}

// Serialize encodes p in the version-1 wire format.
func Serialize(p Prescription) ([]byte, error) {
	w := wireDoc{
		Version:     Version,
		RestSeconds: p.RestSeconds,
		Notes:       p.Notes,
		Blocks:      make([]wireBlock, 0, len(p.Blocks)),
	}
	for _, b := range p.Blocks {
		switch b := b.(type) {
		case WarmupBlock:
			w.Blocks = append(w.Blocks, wireBlock{Kind: kindWarmup, Style: b.Style, Sets: b.Sets, Reps: repsOrNil(b.Reps)})
		case WorkBlock:
			reps, err := MarshalRepSpec(b.Reps)
			if err != nil {
				return nil, err
			}
			wb := wireBlock{Kind: kindWork, Sets: b.Sets, Reps: reps}
			if b.Target != nil {
				t, err := marshalTarget(b.Target)
				if err != nil {
					return nil, err
				}
				wb.Target = t
			}
			w.Blocks = append(w.Blocks, wb)
		default:
			return nil, fmt.Errorf("serializing prescription: unknown block %T", b)
		}
	}
	return json.Marshal(w)
}

// SerializeString is Serialize for a string column.
func SerializeString(p Prescription) (string, error) {
	data, err := Serialize(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type wireDoc struct {
	Version     int         `json:"version"`
	RestSeconds *int        `json:"restSeconds,omitempty"`
	Notes       *string     `json:"notes,omitempty"`
	Blocks      []wireBlock `json:"blocks"`
}

type wireBlock struct {
	Kind   string          `json:"kind"`
	Style  string          `json:"style,omitempty"`
	Sets   int             `json:"sets"`
	Reps   json.RawMessage `json:"reps,omitempty"`
	Target json.RawMessage `json:"target,omitempty"`
}

type wireRep struct {
	Type  string `json:"type"`
	Value int    `json:"value,omitempty"`
	Min   int    `json:"min,omitempty"`
	Max   int    `json:"max,omitempty"`
}

type wireTarget struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// MarshalRepSpec encodes r in the tagged wire form.
func MarshalRepSpec(r RepSpec) (json.RawMessage, error) {
	switch r := r.(type) {
	case FixedReps:
		return json.Marshal(wireRep{Type: repFixed, Value: r.Value})
	case RepRange:
		return json.Marshal(wireRep{Type: repRange, Min: r.Min, Max: r.Max})
	case nil:
		return MarshalRepSpec(DefaultReps)
	default:
		return nil, fmt.Errorf("unknown rep spec %T", r)
	}
}

func marshalTarget(t TargetSpec) (json.RawMessage, error) {
	var w wireTarget
	switch t := t.(type) {
	case FixedWeightKg:
		w = wireTarget{Type: targetFixedWeightKg, Value: t.Kg}
	case PercentE1RM:
		w = wireTarget{Type: targetPercentE1RM, Value: t.Percent}
	case RPE:
		w = wireTarget{Type: targetRPE, Value: t.Value}
	case RIR:
		w = wireTarget{Type: targetRIR, Value: t.Value}
	default:
		return nil, fmt.Errorf("unknown target %T", t)
	}
	return json.Marshal(w)
}

func repsOrNil(n *int) json.RawMessage {
	if n == nil {
		return nil
	}
	data, _ := json.Marshal(*n)
	return data
}

// asInt accepts JSON numbers with no fractional part.
func asInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || isNull(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
