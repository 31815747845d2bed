// Package ast holds the node types the parser produces for a SODL document.
//
// Nodes are pure data: no behavior beyond traversal and structural equality.
// No node points back at its parent; each carries only the source span where
// it began, for diagnostics. Traversals that need the enclosing context pass
// it explicitly.
package ast

// Span is the source position a node starts at, 1-based.
type Span struct {
	Line   int
	Column int
}

// Document is an ordered sequence of top-level declarations.
type Document struct {
	Decls []Decl
}

// Decl is implemented by every named declaration.
type Decl interface {
	Node
	DeclName() string
}

// Node is the common interface over all AST nodes.
type Node interface {
	Pos() Span
}

type base struct {
	Span Span
}

func (b base) Pos() Span { return b.Span }

// SystemDecl is a `system "Name":` block. Templates share the same body
// shape, so both embed systemBody.
type SystemDecl struct {
	base
	Name    string
	Extends string // template name, empty when absent
	systemBody

	// Declarations nested inside the system body, in source order.
	Interfaces []*InterfaceDecl
	Modules    []*ModuleDecl
	Policies   []*PolicyDecl
	Pipelines  []*PipelineDecl
}

// TemplateDecl is a reusable prototype a system or another template extends.
type TemplateDecl struct {
	base
	Name    string
	Extends string
	systemBody

	Policies []*PolicyDecl
}

type systemBody struct {
	Version string
	Stack   *StackBlock
	Intent  *IntentBlock
	Edits   []EditOp // inheritance edits, in source order
}

// StackBlock maps stack property names to values. Order preserved for
// deterministic resolved output.
type StackBlock struct {
	base
	Entries []StackEntry
}

type StackEntry struct {
	Key   string
	Value string
	Span  Span
}

// Get returns the last value set for key, mirroring "later wins".
func (s *StackBlock) Get(key string) (string, bool) {
	for i := len(s.Entries) - 1; i >= 0; i-- {
		if s.Entries[i].Key == key {
			return s.Entries[i].Value, true
		}
	}
	return "", false
}

type IntentBlock struct {
	base
	Primary    string
	Outcomes   []string
	OutOfScope []string
}

// EditOp is an inheritance-edit statement recorded during parsing and applied
// during analysis, once the parent's shape is known. Order matters: later
// edits of the same path win.
type EditOp struct {
	Kind  EditKind
	Path  []string // dotted path segments, e.g. ["stack", "language"]
	Value string
	// Block is set for EditReplace: the replacement policy body.
	Block *PolicyDecl
	Span  Span
}

type EditKind int

const (
	EditOverride EditKind = iota
	EditAppend
	EditRemove
	EditReplace
)

func (k EditKind) String() string {
	switch k {
	case EditOverride:
		return "override"
	case EditAppend:
		return "append"
	case EditRemove:
		return "remove"
	case EditReplace:
		return "replace"
	}
	return "unknown"
}

type InterfaceDecl struct {
	base
	Name       string
	Doc        string
	Extends    string
	Fields     []*FieldDef
	Models     []*ModelDef
	Methods    []*MethodSig
	Invariants []string
}

// MethodSig is a method signature inside an interface or a module's api
// block. Override marks `override method` entries that replace an inherited
// signature of the same name.
type MethodSig struct {
	base
	Name     string
	Params   []Param
	Return   *TypeRef
	Override bool
}

type Param struct {
	Name string
	Type *TypeRef
}

type ModuleDecl struct {
	base
	Name       string
	Doc        string
	Owns       []string
	Requires   []Ref
	Implements []Ref
	Exports    []Ref
	API        *APIBlock
	Invariants []string
	Acceptance []string
	Artifacts  []string
	Config     []StackEntry
}

// Ref is a by-name cross reference resolved during analysis.
type Ref struct {
	Name string
	Span Span
}

type APIBlock struct {
	base
	Endpoints  []*EndpointDef
	WebSockets []*EndpointDef
	Commands   []*EndpointDef
	Models     []*ModelDef
	Methods    []*MethodSig
}

// EndpointDef is one `endpoint "VERB /path" -> Type` line. Status carries a
// trailing numeric literal when present; the parser records it without
// interpreting it.
type EndpointDef struct {
	base
	Verb   string
	Path   string
	Return *TypeRef
	Status int
}

type ModelDef struct {
	base
	Name   string
	Fields []*FieldDef
}

type FieldDef struct {
	base
	Name       string
	Type       *TypeRef
	Constraint string // raw text of a trailing (...) group, if any
}

type PolicyDecl struct {
	base
	Name  string
	Rules []*Rule
}

type Rule struct {
	base
	Text     string
	Severity string
}

type PipelineDecl struct {
	base
	Name  string
	Steps []*StepDecl
}

type StepDecl struct {
	base
	Name    string
	Modules []Ref
	Output  string
	Require string
	Gate    string
}

func (d *SystemDecl) DeclName() string    { return d.Name }
func (d *TemplateDecl) DeclName() string  { return d.Name }
func (d *InterfaceDecl) DeclName() string { return d.Name }
func (d *ModuleDecl) DeclName() string    { return d.Name }
func (d *PolicyDecl) DeclName() string    { return d.Name }
func (d *PipelineDecl) DeclName() string  { return d.Name }
