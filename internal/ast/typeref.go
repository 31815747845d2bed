package ast

import "strings"

// TypeKind is the closed set of type-annotation shapes the language accepts.
type TypeKind int

const (
	TypeNamed TypeKind = iota
	TypeGeneric
	TypeOptional
)

// TypeRef is the structural form of a declared type annotation: a bare name,
// a generic application `Base[Arg, ...]`, or an optional `Inner?`. Keeping
// the shape instead of raw text lets the analyzer compare types structurally.
type TypeRef struct {
	Kind  TypeKind
	Name  string     // TypeNamed and TypeGeneric base name
	Args  []*TypeRef // TypeGeneric arguments
	Inner *TypeRef   // TypeOptional element
	Span  Span
}

func Named(name string) *TypeRef {
	return &TypeRef{Kind: TypeNamed, Name: name}
}

func Generic(name string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: TypeGeneric, Name: name, Args: args}
}

func Optional(inner *TypeRef) *TypeRef {
	return &TypeRef{Kind: TypeOptional, Inner: inner}
}

// Equal reports structural equality, ignoring spans.
func (t *TypeRef) Equal(o *TypeRef) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.Name != o.Name {
		return false
	}
	switch t.Kind {
	case TypeGeneric:
		if len(t.Args) != len(o.Args) {
			return false
		}
		for i := range t.Args {
			if !t.Args[i].Equal(o.Args[i]) {
				return false
			}
		}
	case TypeOptional:
		return t.Inner.Equal(o.Inner)
	}
	return true
}

func (t *TypeRef) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TypeOptional:
		return t.Inner.String() + "?"
	case TypeGeneric:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.String()
		}
		return t.Name + "[" + strings.Join(parts, ", ") + "]"
	default:
		return t.Name
	}
}
