package analyzer

import (
	"sort"
	"strings"

	"github.com/sodl-lang/sodlc/internal/ast"
)

// checkDependencyGraph builds the directed requires graph over modules and
// reports every distinct cycle once. A requirement contributes an edge to the
// module it names directly, or to every module that implements or exports the
// named interface.
func (a *Analyzer) checkDependencyGraph() {
	modules := a.resolved.Modules
	if len(modules) == 0 {
		return
	}

	moduleByName := make(map[string]*ast.ModuleDecl, len(modules))
	for _, m := range modules {
		if _, exists := moduleByName[m.Name]; !exists {
			moduleByName[m.Name] = m
		}
	}

	edges := make(map[*ast.ModuleDecl][]*ast.ModuleDecl, len(modules))
	for _, m := range modules {
		seen := make(map[*ast.ModuleDecl]bool)
		for _, ref := range m.Requires {
			// A requirement naming a module directly keeps its self-edge: a
			// module requiring itself by name is a one-module cycle. Through
			// provider resolution the self-edge is dropped instead, so a
			// module may require an interface it implements or exports.
			if target, ok := moduleByName[ref.Name]; ok {
				if !seen[target] {
					seen[target] = true
					edges[m] = append(edges[m], target)
				}
				continue
			}
			for _, target := range a.providers[ref.Name] {
				if target == m || seen[target] {
					continue
				}
				seen[target] = true
				edges[m] = append(edges[m], target)
			}
		}
		sort.Slice(edges[m], func(i, j int) bool {
			return edges[m][i].Name < edges[m][j].Name
		})
	}

	// DFS with an explicit recursion stack. Start nodes in name order so the
	// reported traversal order does not depend on declaration order.
	starts := append([]*ast.ModuleDecl(nil), modules...)
	sort.Slice(starts, func(i, j int) bool { return starts[i].Name < starts[j].Name })

	w := &cycleWalker{
		a:        a,
		edges:    edges,
		state:    make(map[*ast.ModuleDecl]int, len(modules)),
		index:    make(map[*ast.ModuleDecl]int, len(modules)),
		reported: make(map[string]bool),
	}
	for _, m := range starts {
		if w.state[m] == unvisited {
			w.visit(m)
		}
	}
}

const (
	unvisited = iota
	visiting
	done
)

type cycleWalker struct {
	a        *Analyzer
	edges    map[*ast.ModuleDecl][]*ast.ModuleDecl
	state    map[*ast.ModuleDecl]int
	index    map[*ast.ModuleDecl]int // position on the recursion stack
	stack    []*ast.ModuleDecl
	reported map[string]bool
}

func (w *cycleWalker) visit(m *ast.ModuleDecl) {
	w.state[m] = visiting
	w.index[m] = len(w.stack)
	w.stack = append(w.stack, m)

	for _, next := range w.edges[m] {
		switch w.state[next] {
		case unvisited:
			w.visit(next)
		case visiting:
			w.report(w.stack[w.index[next]:])
		}
	}

	w.stack = w.stack[:len(w.stack)-1]
	delete(w.index, m)
	w.state[m] = done
}

// report emits one diagnostic per distinct cycle. The cycle is rotated to
// start at its lexicographically smallest module so the same cycle found from
// different entry points deduplicates and reads identically.
func (w *cycleWalker) report(cycle []*ast.ModuleDecl) {
	names := make([]string, len(cycle))
	minAt := 0
	for i, m := range cycle {
		names[i] = m.Name
		if names[i] < names[minAt] {
			minAt = i
		}
	}
	rotated := append(names[minAt:], names[:minAt]...)

	key := strings.Join(rotated, "\x00")
	if w.reported[key] {
		return
	}
	w.reported[key] = true

	first := cycle[minAt]
	w.a.reporter.Errorf(first.Span.Line, first.Span.Column,
		"circular dependency among modules: %s -> %s", strings.Join(rotated, " -> "), rotated[0])
}
