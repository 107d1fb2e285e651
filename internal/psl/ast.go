package psl

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// AST is the parsed, not yet validated program document. Field values are
// kept exactly as written; interpretation happens in the compiler.
type AST struct {
	LanguageVersion string        `yaml:"language_version" json:"language_version"`
	Metadata        *MetadataNode `yaml:"metadata" json:"metadata,omitempty"`
	Calendar        *CalendarNode `yaml:"calendar" json:"calendar,omitempty"`
	Sessions        []SessionNode `yaml:"sessions" json:"sessions"`
}

// MetadataNode identifies the program.
type MetadataNode struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// CalendarNode is the optional explicit calendar window.
type CalendarNode struct {
	StartDate string `yaml:"start_date" json:"start_date"`
	EndDate   string `yaml:"end_date" json:"end_date"`
	Line      int    `yaml:"-" json:"line"`
}

// SessionNode is one session of the document.
type SessionNode struct {
	ID        string         `yaml:"id" json:"id"`
	Name      string         `yaml:"name" json:"name"`
	Day       *int           `yaml:"day" json:"day,omitempty"`
	Schedule  ScheduleNode   `yaml:"schedule" json:"schedule,omitempty"`
	Exercises []ExerciseNode `yaml:"exercises" json:"exercises"`
	Line      int            `yaml:"-" json:"line"`
}

// ScheduleNode holds the weekday codes of a session. It accepts a single
// code, a comma-separated list or a YAML sequence.
type ScheduleNode []string

// ExerciseNode is either a shorthand string or a structured block.
type ExerciseNode struct {
	Shorthand   string    `yaml:"-" json:"shorthand,omitempty"`
	Name        string    `yaml:"name" json:"name,omitempty"`
	Sets        []SetNode `yaml:"sets" json:"sets,omitempty"`
	Notes       string    `yaml:"notes" json:"notes,omitempty"`
	RestSeconds *int      `yaml:"rest_seconds" json:"rest_seconds,omitempty"`
	Line        int       `yaml:"-" json:"line"`
}

// SetNode is one entry of a structured exercise. Reps and Intensity keep
// their raw YAML nodes so that both scalar and mapping forms can be
// interpreted (and reported) by the compiler.
type SetNode struct {
	Reps      yaml.Node `yaml:"reps" json:"-"`
	Intensity yaml.Node `yaml:"intensity" json:"-"`
	Count     *int      `yaml:"count" json:"count,omitempty"`
	Warmup    bool      `yaml:"warmup" json:"warmup,omitempty"`
	Line      int       `yaml:"-" json:"line"`
}

func (c *CalendarNode) UnmarshalYAML(n *yaml.Node) error {
	type plain CalendarNode
	if err := n.Decode((*plain)(c)); err != nil {
		return err
	}
	c.Line = n.Line
	return nil
}

func (s *SessionNode) UnmarshalYAML(n *yaml.Node) error {
	type plain SessionNode
	if err := n.Decode((*plain)(s)); err != nil {
		return err
	}
	s.Line = n.Line
	return nil
}

func (s *ScheduleNode) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var codes []string
		for _, c := range strings.Split(n.Value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				codes = append(codes, c)
			}
		}
		*s = codes
		return nil
	case yaml.SequenceNode:
		var codes []string
		if err := n.Decode(&codes); err != nil {
			return err
		}
		*s = codes
		return nil
	default:
		return fmt.Errorf("line %d: schedule must be a weekday code or a list of codes", n.Line)
	}
}

func (e *ExerciseNode) UnmarshalYAML(n *yaml.Node) error {
	e.Line = n.Line
	if n.Kind == yaml.ScalarNode {
		e.Shorthand = n.Value
		return nil
	}
	type plain ExerciseNode
	if err := n.Decode((*plain)(e)); err != nil {
		return err
	}
	e.Line = n.Line
	return nil
}

func (s *SetNode) UnmarshalYAML(n *yaml.Node) error {
	type plain SetNode
	if err := n.Decode((*plain)(s)); err != nil {
		return err
	}
	s.Line = n.Line
	return nil
}

// Parse decodes source text into an AST. A nil AST means the text could not
// be read as a program document; the diagnostics say why.
func Parse(src string) (*AST, []Diagnostic) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(src), &root); err != nil {
		return nil, syntaxDiagnostics(err)
	}
	ast := &AST{}
	if root.Kind == 0 {
		return ast, nil
	}
	if err := root.Decode(ast); err != nil {
		return nil, syntaxDiagnostics(err)
	}
	return ast, nil
}

func syntaxDiagnostics(err error) []Diagnostic {
	if te, ok := err.(*yaml.TypeError); ok {
		diags := make([]Diagnostic, 0, len(te.Errors))
		for _, msg := range te.Errors {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Code:     CodeSyntax,
				Line:     lineOf(msg),
				Message:  msg,
			})
		}
		return diags
	}
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	return []Diagnostic{{
		Severity: SeverityError,
		Code:     CodeSyntax,
		Line:     lineOf(msg),
		Message:  msg,
	}}
}

// lineOf extracts N from yaml.v3 messages of the form "line N: ...".
func lineOf(msg string) int {
	var line int
	if _, err := fmt.Sscanf(msg, "line %d:", &line); err == nil {
		return line
	}
	return 0
}
