// Package diag collects the diagnostics produced while compiling a SODL
// document. A Reporter belongs to exactly one compilation; diagnostics are
// only ever appended, never replaced, so late errors can't mask early ones.
package diag

import "fmt"

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type Diagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
}

// String renders the form consumed by the CLI: "line:column: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s", d.Line, d.Column, d.Message)
}

type Reporter struct {
	diagnostics []Diagnostic
}

func NewReporter() *Reporter {
	return &Reporter{}
}

func (r *Reporter) Errorf(line, column int, format string, args ...any) {
	r.diagnostics = append(r.diagnostics, Diagnostic{
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   column,
	})
}

func (r *Reporter) Warnf(line, column int, format string, args ...any) {
	r.diagnostics = append(r.diagnostics, Diagnostic{
		Severity: SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   column,
	})
}

// Diagnostics returns everything reported so far, in report order.
func (r *Reporter) Diagnostics() []Diagnostic {
	return r.diagnostics
}

func (r *Reporter) HasErrors() bool {
	for _, d := range r.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r *Reporter) HasWarnings() bool {
	for _, d := range r.diagnostics {
		if d.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

func (r *Reporter) Errors() []Diagnostic {
	return r.filter(SeverityError)
}

func (r *Reporter) Warnings() []Diagnostic {
	return r.filter(SeverityWarning)
}

func (r *Reporter) filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}
