package analyzer

import (
	"strings"

	"github.com/sodl-lang/sodlc/internal/ast"
)

// mergedBody is the inheritance-merged view of a system or template body.
// Merging never mutates declarations; each merge produces fresh slices.
type mergedBody struct {
	version  string
	stack    []ast.StackEntry
	intent   Intent
	policies []*ast.PolicyDecl
}

// merger resolves extends chains with a visited set, so cycles are caught
// before any merge work runs, and caches each template's merged body.
type merger struct {
	a          *Analyzer
	cache      map[ast.Decl]*mergedBody
	inProgress map[ast.Decl]bool
}

func newMerger(a *Analyzer) *merger {
	return &merger{
		a:          a,
		cache:      make(map[ast.Decl]*mergedBody),
		inProgress: make(map[ast.Decl]bool),
	}
}

// resolveTemplate returns the template's merged body, or nil when the
// template sits on an extends cycle and is excluded from merging.
func (m *merger) resolveTemplate(t *ast.TemplateDecl) *mergedBody {
	if cached, ok := m.cache[t]; ok {
		return cached
	}
	if m.inProgress[t] {
		m.a.reporter.Errorf(t.Span.Line, t.Span.Column,
			"extends cycle involving template \"%s\"", t.Name)
		return nil
	}
	m.inProgress[t] = true
	defer delete(m.inProgress, t)

	parent := m.resolveParent(t.Extends, t.Span, "template", t.Name)
	merged := m.merge(parent, t.Version, t.Stack, t.Intent, t.Policies, t.Edits, t.Name)
	m.cache[t] = merged
	return merged
}

// resolveSystem merges a system over its template chain. Systems are never
// extended themselves, so no caching or cycle state is needed at this level.
func (m *merger) resolveSystem(s *ast.SystemDecl) *mergedBody {
	parent := m.resolveParent(s.Extends, s.Span, "system", s.Name)
	return m.merge(parent, s.Version, s.Stack, s.Intent, s.Policies, s.Edits, s.Name)
}

func (m *merger) resolveParent(extends string, at ast.Span, kind, name string) *mergedBody {
	if extends == "" {
		return nil
	}
	decl, ok := m.a.table.lookup(nil, symTemplate, extends)
	if !ok {
		m.a.reporter.Errorf(at.Line, at.Column,
			"undefined reference to '%s' in %s \"%s\"", extends, kind, name)
		return nil
	}
	return m.resolveTemplate(decl.(*ast.TemplateDecl))
}

// merge combines the parent's merged body with a child body in
// parent-then-child order: scalars child-wins, stack entries per key, intent
// lists replaced when the child declares its own, then the child's edit
// operations applied strictly in source order.
func (m *merger) merge(parent *mergedBody, version string, stack *ast.StackBlock, intent *ast.IntentBlock, policies []*ast.PolicyDecl, edits []ast.EditOp, declName string) *mergedBody {
	out := &mergedBody{}
	if parent != nil {
		out.version = parent.version
		out.stack = append([]ast.StackEntry(nil), parent.stack...)
		out.intent = Intent{
			Primary:    parent.intent.Primary,
			Outcomes:   append([]string(nil), parent.intent.Outcomes...),
			OutOfScope: append([]string(nil), parent.intent.OutOfScope...),
		}
		out.policies = append([]*ast.PolicyDecl(nil), parent.policies...)
	}

	if version != "" {
		out.version = version
	}
	if stack != nil {
		for _, e := range stack.Entries {
			out.setStack(e.Key, e.Value, e.Span)
		}
	}
	if intent != nil {
		if intent.Primary != "" {
			out.intent.Primary = intent.Primary
		}
		if len(intent.Outcomes) > 0 {
			out.intent.Outcomes = append([]string(nil), intent.Outcomes...)
		}
		if len(intent.OutOfScope) > 0 {
			out.intent.OutOfScope = append([]string(nil), intent.OutOfScope...)
		}
	}
	for _, pol := range policies {
		out.setPolicy(pol)
	}

	for _, op := range edits {
		m.applyEdit(out, op, declName)
	}
	return out
}

func (m *merger) applyEdit(out *mergedBody, op ast.EditOp, declName string) {
	path := strings.Join(op.Path, ".")
	switch op.Kind {
	case ast.EditOverride:
		switch {
		case len(op.Path) == 2 && op.Path[0] == "stack":
			out.setStack(op.Path[1], op.Value, op.Span)
		case len(op.Path) == 2 && op.Path[0] == "intent" && op.Path[1] == "primary":
			out.intent.Primary = op.Value
		case len(op.Path) == 1 && op.Path[0] == "version":
			out.version = op.Value
		default:
			m.a.reporter.Errorf(op.Span.Line, op.Span.Column,
				"cannot override path '%s' in \"%s\"", path, declName)
		}
	case ast.EditAppend:
		if target := out.intentList(op.Path); target != nil {
			*target = append(*target, op.Value)
		} else {
			m.a.reporter.Errorf(op.Span.Line, op.Span.Column,
				"cannot append to path '%s' in \"%s\"", path, declName)
		}
	case ast.EditRemove:
		switch {
		case len(op.Path) == 2 && op.Path[0] == "stack":
			out.removeStack(op.Path[1])
		default:
			if target := out.intentList(op.Path); target != nil {
				*target = removeValue(*target, op.Value)
			} else {
				m.a.reporter.Errorf(op.Span.Line, op.Span.Column,
					"cannot remove from path '%s' in \"%s\"", path, declName)
			}
		}
	case ast.EditReplace:
		if op.Block == nil {
			return
		}
		if !out.replacePolicy(op.Block) {
			m.a.reporter.Warnf(op.Span.Line, op.Span.Column,
				"replace block '%s' in \"%s\" does not match an inherited block", op.Block.Name, declName)
			out.policies = append(out.policies, op.Block)
		}
	}
}

// intentList returns the intent list a path addresses, or nil.
func (b *mergedBody) intentList(path []string) *[]string {
	if len(path) != 2 || path[0] != "intent" {
		return nil
	}
	switch path[1] {
	case "outcomes":
		return &b.intent.Outcomes
	case "out_of_scope":
		return &b.intent.OutOfScope
	}
	return nil
}

func (b *mergedBody) setStack(key, value string, at ast.Span) {
	for i, e := range b.stack {
		if e.Key == key {
			b.stack[i].Value = value
			return
		}
	}
	b.stack = append(b.stack, ast.StackEntry{Key: key, Value: value, Span: at})
}

func (b *mergedBody) removeStack(key string) {
	kept := b.stack[:0]
	for _, e := range b.stack {
		if e.Key != key {
			kept = append(kept, e)
		}
	}
	b.stack = kept
}

func (b *mergedBody) setPolicy(pol *ast.PolicyDecl) {
	for i, existing := range b.policies {
		if existing.Name == pol.Name {
			b.policies[i] = pol
			return
		}
	}
	b.policies = append(b.policies, pol)
}

func (b *mergedBody) replacePolicy(pol *ast.PolicyDecl) bool {
	for i, existing := range b.policies {
		if existing.Name == pol.Name {
			b.policies[i] = pol
			return true
		}
	}
	return false
}

func removeValue(list []string, value string) []string {
	kept := list[:0]
	for _, v := range list {
		if v != value {
			kept = append(kept, v)
		}
	}
	return kept
}
