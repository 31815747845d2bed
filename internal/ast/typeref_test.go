package ast

import "testing"

func TestTypeRefEqual(t *testing.T) {
	for _, tc := range []struct {
		name string
		a, b *TypeRef
		want bool
	}{
		{"same name", Named("User"), Named("User"), true},
		{"different name", Named("User"), Named("Item"), false},
		{"named vs optional", Named("User"), Optional(Named("User")), false},
		{"optional same inner", Optional(Named("User")), Optional(Named("User")), true},
		{
			"generic same args",
			Generic("Map", Named("str"), Named("int")),
			Generic("Map", Named("str"), Named("int")),
			true,
		},
		{
			"generic different arity",
			Generic("List", Named("int")),
			Generic("List", Named("int"), Named("int")),
			false,
		},
		{
			"nested optional in generic",
			Generic("List", Optional(Named("User"))),
			Generic("List", Named("User")),
			false,
		},
		{"both nil", nil, nil, true},
		{"nil vs named", nil, Named("User"), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestTypeRefString(t *testing.T) {
	for _, tc := range []struct {
		ref  *TypeRef
		want string
	}{
		{Named("User"), "User"},
		{Optional(Named("User")), "User?"},
		{Generic("Map", Named("str"), Generic("List", Named("int"))), "Map[str, List[int]]"},
		{Optional(Generic("Result", Named("User"))), "Result[User]?"},
	} {
		if got := tc.ref.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
