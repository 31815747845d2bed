// Package compiler exposes the three public entry points over the
// lex/parse/analyze pipeline. Each call is self-contained: fresh token
// stream, fresh AST, fresh symbol table, so concurrent calls need no
// coordination.
package compiler

import (
	"fmt"

	"github.com/sodl-lang/sodlc/internal/analyzer"
	"github.com/sodl-lang/sodlc/internal/diag"
	"github.com/sodl-lang/sodlc/internal/lexer"
	"github.com/sodl-lang/sodlc/internal/parser"
	"github.com/sodl-lang/sodlc/internal/source"
)

// CompileResult is the full pipeline's output. Resolved is present even when
// Success is false, carrying whatever partial structure survived.
type CompileResult struct {
	Name        string                    `json:"name"`
	Success     bool                      `json:"success"`
	Diagnostics []diag.Diagnostic         `json:"diagnostics"`
	Resolved    *analyzer.ResolvedProgram `json:"-"`
}

// SyntaxResult is the lexer+parser view: no semantic pass runs.
type SyntaxResult struct {
	Valid       bool              `json:"valid"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
	LineCount   int               `json:"lineCount"`
}

// Compile runs the whole pipeline on raw input bytes. displayName labels the
// result for reporting; it is not read from disk. The only error return is
// undecodable input; malformed source comes back as diagnostics with
// Success=false.
func Compile(input []byte, displayName string) (*CompileResult, error) {
	text, err := source.Decode(input)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", displayName, err)
	}
	return CompileText(text, displayName), nil
}

// CompileText runs the pipeline on already-decoded text.
func CompileText(text, displayName string) *CompileResult {
	reporter := diag.NewReporter()
	tokens := lexer.Tokenize(text, reporter)
	doc := parser.Parse(tokens, reporter)
	resolved := analyzer.Analyze(doc, reporter)
	return &CompileResult{
		Name:        displayName,
		Success:     !reporter.HasErrors(),
		Diagnostics: reporter.Diagnostics(),
		Resolved:    resolved,
	}
}

// ValidateSyntax lexes and parses only. Closed-set values, unresolved
// references, and other semantic concerns do not affect validity here.
func ValidateSyntax(text string) *SyntaxResult {
	reporter := diag.NewReporter()
	tokens := lexer.Tokenize(text, reporter)
	parser.Parse(tokens, reporter)
	return &SyntaxResult{
		Valid:       !reporter.HasErrors(),
		Diagnostics: reporter.Diagnostics(),
		LineCount:   source.CountLines(text),
	}
}
