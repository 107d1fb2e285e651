package psl

import (
	"fmt"
	"strings"
	"time"

	"github.com/claude/workoutlog/internal/calendar"
	"github.com/claude/workoutlog/internal/prescription"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// DefaultLanguageVersion is assumed when a document omits language_version.
const DefaultLanguageVersion = "0.1"

// MaxCalendarDays bounds the span of a calendar window, about five years.
const MaxCalendarDays = 5 * 366

// supportedVersions maps each accepted major.minor to the features it enables.
var supportedVersions = map[string]features{
	"v0.1": {},
	"v0.2": {calendar: true},
}

type features struct {
	calendar bool
}

// Compile parses, validates and expands a program document. It never returns
// a Go error: every problem is reported as a diagnostic. Compiled is set only
// when the document has no errors.
func Compile(src string) Result {
	ast, diags := Parse(src)
	if ast == nil || HasErrors(diags) {
		return Result{Diagnostics: diags}
	}

	c := &compiler{ast: ast, diags: diags}
	prog := c.compile()
	res := Result{AST: ast, Diagnostics: c.diags}
	if HasErrors(c.diags) {
		return res
	}
	res.Valid = true
	res.Compiled = prog
	if prog.Calendar != nil {
		res.Materialized = Materialize(prog, *prog.Calendar)
	}
	return res
}

type compiler struct {
	ast   *AST
	diags []Diagnostic
	feat  features
}

func (c *compiler) errorf(path string, line int, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{
		Severity: SeverityError,
		Code:     CodeValidation,
		Path:     path,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *compiler) warnf(path string, line int, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{
		Severity: SeverityWarning,
		Code:     CodeValidation,
		Path:     path,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *compiler) compile() *CompiledProgram {
	prog := &CompiledProgram{LanguageVersion: c.version()}

	if c.ast.Metadata == nil {
		c.errorf("metadata", 0, "metadata is required")
	} else {
		prog.ID = strings.TrimSpace(c.ast.Metadata.ID)
		prog.Name = strings.TrimSpace(c.ast.Metadata.Name)
		if prog.ID == "" {
			c.errorf("metadata.id", 0, "metadata.id is required")
		}
		if prog.Name == "" {
			c.errorf("metadata.name", 0, "metadata.name is required")
		}
	}

	if cal := c.ast.Calendar; cal != nil {
		if !c.feat.calendar {
			c.errorf("calendar", cal.Line, "calendar scheduling requires language_version 0.2 or later")
		} else if w, ok := c.window(cal); ok {
			prog.Calendar = &w
		}
	}

	if len(c.ast.Sessions) == 0 {
		c.errorf("sessions", 0, "at least one session is required")
	}
	seen := make(map[string]bool, len(c.ast.Sessions))
	for i := range c.ast.Sessions {
		s, ok := c.session(i, &c.ast.Sessions[i], c.ast.Calendar != nil)
		if !ok {
			continue
		}
		if seen[s.ID] {
			c.errorf(fmt.Sprintf("sessions[%d].id", i), c.ast.Sessions[i].Line, "duplicate session id %q", s.ID)
			continue
		}
		seen[s.ID] = true
		prog.Sessions = append(prog.Sessions, s)
	}
	return prog
}

// version resolves language_version and records the features it enables.
func (c *compiler) version() string {
	v := strings.TrimSpace(c.ast.LanguageVersion)
	if v == "" {
		c.warnf("language_version", 0, "language_version missing, assuming %s", DefaultLanguageVersion)
		v = DefaultLanguageVersion
	}
	sv := "v" + strings.TrimPrefix(v, "v")
	if !semver.IsValid(sv) {
		c.errorf("language_version", 0, "invalid language_version %q", v)
		return v
	}
	feat, ok := supportedVersions[semver.MajorMinor(sv)]
	if !ok {
		c.errorf("language_version", 0, "unsupported language_version %q", v)
		return v
	}
	c.feat = feat
	return v
}

func (c *compiler) window(cal *CalendarNode) (calendar.Window, bool) {
	start, err := calendar.ParseDate(cal.StartDate)
	if err != nil {
		c.errorf("calendar.start_date", cal.Line, "start_date must be an ISO date (YYYY-MM-DD), got %q", cal.StartDate)
		return calendar.Window{}, false
	}
	end, err := calendar.ParseDate(cal.EndDate)
	if err != nil {
		c.errorf("calendar.end_date", cal.Line, "end_date must be an ISO date (YYYY-MM-DD), got %q", cal.EndDate)
		return calendar.Window{}, false
	}
	if end.Before(start) {
		c.errorf("calendar", cal.Line, "end_date %s is before start_date %s", end, start)
		return calendar.Window{}, false
	}
	if span := end.DaysSince(start); span > MaxCalendarDays {
		c.errorf("calendar", cal.Line, "calendar spans %d days, at most %d are allowed", span, MaxCalendarDays)
		return calendar.Window{}, false
	}
	return calendar.Window{Start: start, End: end}, true
}

func (c *compiler) session(i int, n *SessionNode, calendarMode bool) (CompiledSession, bool) {
	path := fmt.Sprintf("sessions[%d]", i)
	ok := true

	s := CompiledSession{ID: strings.TrimSpace(n.ID), Name: strings.TrimSpace(n.Name)}
	if s.ID == "" {
		c.errorf(path+".id", n.Line, "session id is required")
		ok = false
	}
	if s.Name == "" {
		c.warnf(path+".name", n.Line, "session has no name, using its id")
		s.Name = s.ID
	}

	switch {
	case n.Day != nil && len(n.Schedule) > 0:
		c.errorf(path, n.Line, "session must set either day or schedule, not both")
		ok = false
	case n.Day != nil:
		if *n.Day < 1 {
			c.errorf(path+".day", n.Line, "day must be at least 1, got %d", *n.Day)
			ok = false
		}
		if calendarMode {
			c.warnf(path+".day", n.Line, "day-based sessions are ignored by the calendar")
		}
		s.Recurrence = CycleDay{Index: *n.Day}
	case len(n.Schedule) > 0:
		var days []time.Weekday
		for _, code := range n.Schedule {
			d, err := calendar.ParseWeekdayCode(code)
			if err != nil {
				c.errorf(path+".schedule", n.Line, "%v", err)
				ok = false
				continue
			}
			if !(Weekdays{Days: days}).Includes(d) {
				days = append(days, d)
			}
		}
		s.Recurrence = Weekdays{Days: days}
	default:
		c.errorf(path, n.Line, "session must set day or schedule")
		ok = false
	}

	if len(n.Exercises) == 0 {
		c.warnf(path+".exercises", n.Line, "session has no exercises")
	}
	for j := range n.Exercises {
		ex, exOK := c.exercise(fmt.Sprintf("%s.exercises[%d]", path, j), &n.Exercises[j])
		if !exOK {
			ok = false
			continue
		}
		s.Exercises = append(s.Exercises, ex)
	}
	return s, ok
}

func (c *compiler) exercise(path string, n *ExerciseNode) (CompiledExercise, bool) {
	if n.Shorthand != "" {
		ex, err := ExpandShorthand(n.Shorthand)
		if err != nil {
			c.errorf(path, n.Line, "%v", err)
			return CompiledExercise{}, false
		}
		return ex, true
	}

	ex := CompiledExercise{
		Name:        strings.TrimSpace(n.Name),
		Notes:       strings.TrimSpace(n.Notes),
		RestSeconds: n.RestSeconds,
	}
	ok := true
	if ex.Name == "" {
		c.errorf(path+".name", n.Line, "exercise name is required")
		ok = false
	}
	if n.RestSeconds != nil && *n.RestSeconds < 0 {
		c.errorf(path+".rest_seconds", n.Line, "rest_seconds must not be negative")
		ok = false
	}
	if len(n.Sets) == 0 {
		c.errorf(path+".sets", n.Line, "exercise needs at least one set")
		ok = false
	}
	for k := range n.Sets {
		setPath := fmt.Sprintf("%s.sets[%d]", path, k)
		sets, setOK := c.set(setPath, &n.Sets[k], len(ex.Sets))
		if !setOK {
			ok = false
			continue
		}
		ex.Sets = append(ex.Sets, sets...)
	}
	if len(ex.Sets) > MaxSetsPerEntry {
		c.errorf(path+".sets", n.Line, "exercise expands to %d sets, at most %d are allowed", len(ex.Sets), MaxSetsPerEntry)
		ok = false
	}
	return ex, ok
}

// set expands one structured entry into count physical sets. prior is the
// number of sets already compiled for the exercise; set references must
// point at one of them.
func (c *compiler) set(path string, n *SetNode, prior int) ([]CompiledSet, bool) {
	count := 1
	if n.Count != nil {
		count = *n.Count
		if count < 1 {
			c.errorf(path+".count", n.Line, "count must be at least 1, got %d", count)
			return nil, false
		}
		if count > MaxSetsPerEntry {
			c.errorf(path+".count", n.Line, "count must be at most %d, got %d", MaxSetsPerEntry, count)
			return nil, false
		}
	}

	reps, err := repsFromNode(&n.Reps)
	if err != nil {
		c.errorf(path+".reps", lineOr(n.Reps.Line, n.Line), "%v", err)
		return nil, false
	}
	in, err := intensityFromNode(&n.Intensity)
	if err != nil {
		c.errorf(path+".intensity", lineOr(n.Intensity.Line, n.Line), "%v", err)
		return nil, false
	}
	if ref := setRef(in); ref > 0 && ref > prior {
		c.errorf(path+".intensity", lineOr(n.Intensity.Line, n.Line), "intensity refers to set %d, which is not an earlier set", ref)
		return nil, false
	}

	sets := make([]CompiledSet, 0, count)
	for i := 0; i < count; i++ {
		sets = append(sets, CompiledSet{Reps: reps, Intensity: in, Warmup: n.Warmup})
	}
	return sets, true
}

func repsFromNode(n *yaml.Node) (prescription.RepSpec, error) {
	switch n.Kind {
	case 0:
		return nil, fmt.Errorf("reps is required")
	case yaml.ScalarNode:
		return ParseReps(n.Value)
	case yaml.MappingNode:
		var r struct {
			Value *int `yaml:"value"`
			Min   *int `yaml:"min"`
			Max   *int `yaml:"max"`
		}
		if err := n.Decode(&r); err != nil {
			return nil, fmt.Errorf("invalid reps: %w", err)
		}
		switch {
		case r.Value != nil:
			return newFixed(*r.Value)
		case r.Min != nil && r.Max != nil:
			return newRange(*r.Min, *r.Max)
		default:
			return nil, fmt.Errorf("reps mapping needs value or min and max")
		}
	default:
		return nil, fmt.Errorf("reps must be a number, a range or a mapping")
	}
}

func intensityFromNode(n *yaml.Node) (Intensity, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return nil, nil
		case "!!int", "!!float":
			var v float64
			if err := n.Decode(&v); err != nil {
				return nil, err
			}
			if v < 0 {
				return nil, fmt.Errorf("load must not be negative")
			}
			return AbsoluteLoad{Load: Load{Value: v, Unit: UnitKg}}, nil
		}
		return ParseIntensity(n.Value)
	case yaml.MappingNode:
		var w intensityWire
		if err := n.Decode(&w); err != nil {
			return nil, fmt.Errorf("invalid intensity: %w", err)
		}
		return fromWire(w)
	default:
		return nil, fmt.Errorf("intensity must be a string or a mapping")
	}
}

// setRef returns the 1-based set an intensity depends on, or 0.
func setRef(in Intensity) int {
	switch in := in.(type) {
	case PercentOfSet:
		return in.Set
	case LoadDeltaFromSet:
		return in.Set
	}
	return 0
}

func lineOr(line, fallback int) int {
	if line > 0 {
		return line
	}
	return fallback
}
