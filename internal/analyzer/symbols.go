package analyzer

import (
	"github.com/sodl-lang/sodlc/internal/ast"
)

type symKind int

const (
	symSystem symKind = iota
	symTemplate
	symInterface
	symModule
	symPolicy
	symPipeline
)

func (k symKind) String() string {
	switch k {
	case symSystem:
		return "system"
	case symTemplate:
		return "template"
	case symInterface:
		return "interface"
	case symModule:
		return "module"
	case symPolicy:
		return "policy"
	case symPipeline:
		return "pipeline"
	}
	return "declaration"
}

type tableKey struct {
	scope *ast.SystemDecl // nil for the global scope
	kind  symKind
	name  string
}

// symbolTable maps (scope, kind, name) to the first declaration seen under
// that key. Later declarations of the same key are duplicates: reported, kept
// in the document, absent from the table.
type symbolTable struct {
	entries map[tableKey]ast.Decl
}

func newSymbolTable() *symbolTable {
	return &symbolTable{entries: make(map[tableKey]ast.Decl)}
}

// declare registers decl and reports whether it was the first under its key.
func (t *symbolTable) declare(scope *ast.SystemDecl, kind symKind, name string, decl ast.Decl) bool {
	key := tableKey{scope: scope, kind: kind, name: name}
	if _, exists := t.entries[key]; exists {
		return false
	}
	t.entries[key] = decl
	return true
}

// lookup searches the enclosing system scope first, then the global scope.
func (t *symbolTable) lookup(scope *ast.SystemDecl, kind symKind, name string) (ast.Decl, bool) {
	if scope != nil {
		if d, ok := t.entries[tableKey{scope: scope, kind: kind, name: name}]; ok {
			return d, true
		}
	}
	d, ok := t.entries[tableKey{kind: kind, name: name}]
	return d, ok
}

// collect is the first pass: register every named declaration, scoped by its
// enclosing system or the global scope, and build the provider index for
// requirement resolution.
func (a *Analyzer) collect() {
	ast.Walk(a.doc, &collectPass{a: a})
}

type collectPass struct {
	a *Analyzer
}

func (p *collectPass) register(scope *ast.SystemDecl, kind symKind, decl ast.Decl) {
	name := decl.DeclName()
	if name == "" {
		// A parse error already swallowed the name; nothing to register.
		return
	}
	if !p.a.table.declare(scope, kind, name, decl) {
		pos := decl.Pos()
		p.a.reporter.Errorf(pos.Line, pos.Column, "duplicate name '%s'", name)
	}
}

func (p *collectPass) VisitSystem(d *ast.SystemDecl) {
	p.register(nil, symSystem, d)
}

func (p *collectPass) VisitTemplate(d *ast.TemplateDecl) {
	p.register(nil, symTemplate, d)
}

func (p *collectPass) VisitInterface(d *ast.InterfaceDecl, enclosing *ast.SystemDecl) {
	p.register(enclosing, symInterface, d)
}

func (p *collectPass) VisitModule(d *ast.ModuleDecl, enclosing *ast.SystemDecl) {
	p.register(enclosing, symModule, d)
	for _, ref := range d.Implements {
		p.a.providers[ref.Name] = append(p.a.providers[ref.Name], d)
	}
	for _, ref := range d.Exports {
		p.a.providers[ref.Name] = append(p.a.providers[ref.Name], d)
	}
}

func (p *collectPass) VisitPolicy(d *ast.PolicyDecl, enclosing *ast.SystemDecl) {
	p.register(enclosing, symPolicy, d)
}

func (p *collectPass) VisitPipeline(d *ast.PipelineDecl, enclosing *ast.SystemDecl) {
	p.register(enclosing, symPipeline, d)
}
