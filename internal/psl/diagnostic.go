package psl

import (
	"fmt"
)

// Severity of a diagnostic. Only errors make a compile invalid.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code classifies a diagnostic.
type Code string

const (
	// CodeSyntax means the text could not be parsed into a document.
	CodeSyntax Code = "syntax"
	// CodeValidation means the document parsed but is incomplete or unsupported.
	CodeValidation Code = "validation"
)

// Diagnostic is one compiler message.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Path     string   `json:"path,omitempty"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	s := string(d.Severity)
	if d.Line > 0 {
		s += fmt.Sprintf(" (line %d)", d.Line)
	}
	if d.Path != "" {
		s += " " + d.Path
	}
	return s + ": " + d.Message
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
