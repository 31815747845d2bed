package analyzer

import (
	"strings"

	"github.com/sodl-lang/sodlc/internal/ast"
)

// checkContracts verifies that a module's declared api surface covers every
// method of every interface it implements, reporting each missing or
// mismatched method on its own.
func (a *Analyzer) checkContracts(d *ast.ModuleDecl, enclosing *ast.SystemDecl) {
	if len(d.Implements) == 0 {
		return
	}

	contract := make(map[string]*ast.MethodSig)
	if d.API != nil {
		for _, sig := range d.API.Methods {
			contract[sig.Name] = sig
		}
	}
	exported := make(map[string]bool, len(d.Exports))
	for _, ref := range d.Exports {
		exported[ref.Name] = true
	}

	for _, ref := range d.Implements {
		decl, ok := a.table.lookup(enclosing, symInterface, ref.Name)
		if !ok {
			continue // undefined reference already reported
		}
		iface := decl.(*ast.InterfaceDecl)
		required := a.flattenInterface(iface, enclosing)
		for _, want := range required {
			got, ok := contract[want.Name]
			if !ok {
				a.reporter.Errorf(ref.Span.Line, ref.Span.Column,
					"module %s missing method %s required by %s", d.Name, want.Name, ref.Name)
				continue
			}
			if !signatureMatches(got, want, exported[ref.Name]) {
				a.reporter.Errorf(got.Span.Line, got.Span.Column,
					"module %s method %s does not match the signature required by %s: expected %s",
					d.Name, want.Name, ref.Name, formatSig(want))
			}
		}
	}
}

// flattenInterface computes the interface's full method set: the transitive
// extends chain merged parent-first, with a later signature of the same name
// replacing the inherited one. An extends cycle excludes the interface above
// the cycle point and is reported once per interface.
func (a *Analyzer) flattenInterface(iface *ast.InterfaceDecl, enclosing *ast.SystemDecl) []*ast.MethodSig {
	visited := make(map[*ast.InterfaceDecl]bool)
	var flatten func(*ast.InterfaceDecl) []*ast.MethodSig
	flatten = func(cur *ast.InterfaceDecl) []*ast.MethodSig {
		if visited[cur] {
			if !a.reportedExtendsCycles[cur] {
				a.reportedExtendsCycles[cur] = true
				a.reporter.Errorf(cur.Span.Line, cur.Span.Column,
					"extends cycle involving interface %s", cur.Name)
			}
			return nil
		}
		visited[cur] = true

		var methods []*ast.MethodSig
		if cur.Extends != "" {
			if parent, ok := a.table.lookup(enclosing, symInterface, cur.Extends); ok {
				methods = flatten(parent.(*ast.InterfaceDecl))
			}
		}
		for _, sig := range cur.Methods {
			methods = replaceOrAppend(methods, sig)
		}
		return methods
	}
	return flatten(iface)
}

func replaceOrAppend(methods []*ast.MethodSig, sig *ast.MethodSig) []*ast.MethodSig {
	for i, existing := range methods {
		if existing.Name == sig.Name {
			methods[i] = sig
			return methods
		}
	}
	return append(methods, sig)
}

// signatureMatches compares a contract method against a required one. Arity
// and return type must always agree in shape; when the module also exports
// the interface, parameter types must match structurally as well. Parameter
// names never matter.
func signatureMatches(got, want *ast.MethodSig, exported bool) bool {
	if len(got.Params) != len(want.Params) {
		return false
	}
	if !got.Return.Equal(want.Return) {
		return false
	}
	if exported {
		for i := range want.Params {
			if !got.Params[i].Type.Equal(want.Params[i].Type) {
				return false
			}
		}
	}
	return true
}

func formatSig(sig *ast.MethodSig) string {
	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = p.Name + ": " + p.Type.String()
	}
	return sig.Name + "(" + strings.Join(params, ", ") + ") -> " + sig.Return.String()
}
