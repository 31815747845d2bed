// Package analyzer validates a parsed SODL document and produces the resolved
// program: symbols collected and cross-checked, template inheritance merged,
// module dependencies verified acyclic, interface contracts checked for
// completeness, closed-set fields validated.
//
// The analyzer never stops at the first error. Every check runs to completion
// and a best-effort resolved program is always returned, so callers can show
// partial structure alongside the diagnostics.
package analyzer

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/sodl-lang/sodlc/internal/ast"
	"github.com/sodl-lang/sodlc/internal/diag"
)

var severityLevels = map[string]bool{
	"critical": true,
	"high":     true,
	"medium":   true,
	"low":      true,
}

var outputKinds = map[string]bool{
	"design": true,
	"code":   true,
	"tests":  true,
	"diff":   true,
	"docs":   true,
}

// ResolvedProgram is the analyzed view of a document. Declarations touched by
// semantic errors are still present, so the lists below can hold duplicates
// and partially resolved entries.
type ResolvedProgram struct {
	Document   *ast.Document
	Systems    []*ResolvedSystem
	Templates  []*ast.TemplateDecl
	Interfaces []*ast.InterfaceDecl
	Modules    []*ast.ModuleDecl
	Policies   []*ast.PolicyDecl
	Pipelines  []*ast.PipelineDecl
}

// ResolvedSystem pairs a system declaration with its inheritance-merged
// fields. The declaration itself is never mutated.
type ResolvedSystem struct {
	Decl     *ast.SystemDecl
	Version  string
	Stack    []ast.StackEntry
	Intent   Intent
	Policies []*ast.PolicyDecl
}

type Intent struct {
	Primary    string
	Outcomes   []string
	OutOfScope []string
}

type Analyzer struct {
	reporter *diag.Reporter
	doc      *ast.Document
	table    *symbolTable
	resolved *ResolvedProgram

	// providers maps an interface name to the modules that implement or
	// export it, for requirement resolution and dependency edges.
	providers map[string][]*ast.ModuleDecl

	// reportedExtendsCycles keeps each interface extends cycle to one
	// diagnostic even when several modules implement the cycling interface.
	reportedExtendsCycles map[*ast.InterfaceDecl]bool
}

// Analyze runs both passes over doc and returns the resolved program.
// Diagnostics accumulate on reporter.
func Analyze(doc *ast.Document, reporter *diag.Reporter) *ResolvedProgram {
	a := &Analyzer{
		reporter:              reporter,
		doc:                   doc,
		table:                 newSymbolTable(),
		resolved:              &ResolvedProgram{Document: doc},
		providers:             make(map[string][]*ast.ModuleDecl),
		reportedExtendsCycles: make(map[*ast.InterfaceDecl]bool),
	}
	a.collect()
	a.resolve()
	return a.resolved
}

// resolve is the second pass: cross-reference resolution, inheritance merge,
// dependency-graph validation, contract completeness, closed-set checks.
func (a *Analyzer) resolve() {
	merger := newMerger(a)
	for _, decl := range a.doc.Decls {
		if t, ok := decl.(*ast.TemplateDecl); ok {
			merger.resolveTemplate(t)
		}
	}
	ast.Walk(a.doc, &resolvePass{a: a, merger: merger})
	a.checkDependencyGraph()
}

// resolvePass implements ast.Visitor for the resolution walk.
type resolvePass struct {
	a      *Analyzer
	merger *merger
}

func (p *resolvePass) VisitTemplate(d *ast.TemplateDecl) {
	p.a.resolved.Templates = append(p.a.resolved.Templates, d)
	for _, pol := range d.Policies {
		p.a.checkPolicyRules(pol)
	}
	p.a.checkEditBlocks(d.Edits)
}

func (p *resolvePass) VisitSystem(d *ast.SystemDecl) {
	merged := p.merger.resolveSystem(d)
	rs := &ResolvedSystem{Decl: d}
	if merged != nil {
		rs.Version = merged.version
		rs.Stack = merged.stack
		rs.Intent = merged.intent
		rs.Policies = merged.policies
	}
	p.a.resolved.Systems = append(p.a.resolved.Systems, rs)
	p.a.checkEditBlocks(d.Edits)
}

func (p *resolvePass) VisitInterface(d *ast.InterfaceDecl, enclosing *ast.SystemDecl) {
	p.a.resolved.Interfaces = append(p.a.resolved.Interfaces, d)
	if d.Extends != "" {
		if _, ok := p.a.table.lookup(enclosing, symInterface, d.Extends); !ok {
			p.a.reporter.Errorf(d.Span.Line, d.Span.Column,
				"undefined reference to '%s' in interface %s", d.Extends, d.Name)
		}
	}
}

func (p *resolvePass) VisitModule(d *ast.ModuleDecl, enclosing *ast.SystemDecl) {
	p.a.resolved.Modules = append(p.a.resolved.Modules, d)
	a := p.a

	for _, ref := range d.Implements {
		if _, ok := a.table.lookup(enclosing, symInterface, ref.Name); !ok {
			a.reporter.Errorf(ref.Span.Line, ref.Span.Column,
				"undefined reference to '%s' in module %s", ref.Name, d.Name)
		}
	}
	for _, ref := range d.Exports {
		if _, ok := a.table.lookup(enclosing, symInterface, ref.Name); !ok {
			a.reporter.Errorf(ref.Span.Line, ref.Span.Column,
				"undefined reference to '%s' in module %s", ref.Name, d.Name)
		}
	}
	for _, ref := range d.Requires {
		if !a.requirementResolves(enclosing, ref.Name) {
			a.reporter.Errorf(ref.Span.Line, ref.Span.Column,
				"unresolved requirement '%s' in module %s", ref.Name, d.Name)
		}
	}

	a.checkContracts(d, enclosing)

	for _, pattern := range d.Artifacts {
		if !doublestar.ValidatePattern(pattern) {
			a.reporter.Warnf(d.Span.Line, d.Span.Column,
				"invalid artifact pattern '%s' in module %s", pattern, d.Name)
		}
	}
}

func (p *resolvePass) VisitPolicy(d *ast.PolicyDecl, enclosing *ast.SystemDecl) {
	p.a.resolved.Policies = append(p.a.resolved.Policies, d)
	p.a.checkPolicyRules(d)
}

func (p *resolvePass) VisitPipeline(d *ast.PipelineDecl, enclosing *ast.SystemDecl) {
	p.a.resolved.Pipelines = append(p.a.resolved.Pipelines, d)
	a := p.a
	for _, step := range d.Steps {
		for _, ref := range step.Modules {
			if _, ok := a.table.lookup(enclosing, symModule, ref.Name); !ok {
				a.reporter.Errorf(ref.Span.Line, ref.Span.Column,
					"undefined reference to '%s' in step %s of pipeline \"%s\"", ref.Name, step.Name, d.Name)
			}
		}
		if step.Output != "" && !outputKinds[step.Output] {
			a.reporter.Errorf(step.Span.Line, step.Span.Column,
				"invalid output kind '%s' in step %s of pipeline \"%s\"", step.Output, step.Name, d.Name)
		}
	}
}

// requirementResolves reports whether name is a valid requirement target: an
// interface, a module, or anything some module implements or exports.
func (a *Analyzer) requirementResolves(enclosing *ast.SystemDecl, name string) bool {
	if _, ok := a.table.lookup(enclosing, symInterface, name); ok {
		return true
	}
	if _, ok := a.table.lookup(enclosing, symModule, name); ok {
		return true
	}
	return len(a.providers[name]) > 0
}

func (a *Analyzer) checkPolicyRules(d *ast.PolicyDecl) {
	for _, rule := range d.Rules {
		if !severityLevels[rule.Severity] {
			a.reporter.Errorf(rule.Span.Line, rule.Span.Column,
				"invalid severity '%s' in policy %s", rule.Severity, d.Name)
		}
	}
}

// checkEditBlocks validates rule severities inside replace-block bodies,
// which the resolution walk does not otherwise visit.
func (a *Analyzer) checkEditBlocks(edits []ast.EditOp) {
	for _, op := range edits {
		if op.Kind == ast.EditReplace && op.Block != nil {
			a.checkPolicyRules(op.Block)
		}
	}
}
