package store

import (
	"path/filepath"
	"testing"

	"github.com/sodl-lang/sodlc/internal/diag"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndGet(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Upsert(&Result{
		Path:        "/work/app.sodl",
		ContentHash: "abc",
		Success:     false,
		ErrorCount:  1,
		Diagnostics: []diag.Diagnostic{
			{Severity: diag.SeverityError, Message: "undefined reference to 'X' in module M", Line: 3, Column: 9},
		},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.Get("/work/app.sodl")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for stored path")
	}
	if got.ContentHash != "abc" || got.Success || got.ErrorCount != 1 {
		t.Errorf("row = %+v", got)
	}
	if len(got.Diagnostics) != 1 || got.Diagnostics[0].Line != 3 {
		t.Errorf("diagnostics = %+v", got.Diagnostics)
	}
}

func TestGetMissingPath(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Get("/nowhere.sodl")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestUpsertReplacesByPath(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Upsert(&Result{Path: "/a.sodl", ContentHash: "v1", Success: false, ErrorCount: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upsert(&Result{Path: "/a.sodl", ContentHash: "v2", Success: true}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get("/a.sodl")
	if err != nil {
		t.Fatal(err)
	}
	if got.ContentHash != "v2" || !got.Success || got.ErrorCount != 0 {
		t.Errorf("row after second upsert = %+v", got)
	}

	all, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("List = %d rows, want 1", len(all))
	}
}

func TestListAndFailing(t *testing.T) {
	s := newTestStore(t)

	for _, r := range []*Result{
		{Path: "/b.sodl", ContentHash: "b", Success: true},
		{Path: "/a.sodl", ContentHash: "a", Success: false, ErrorCount: 1},
		{Path: "/c.sodl", ContentHash: "c", Success: false, ErrorCount: 3},
	} {
		if _, err := s.Upsert(r); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Path != "/a.sodl" || all[2].Path != "/c.sodl" {
		t.Errorf("List order: %v", paths(all))
	}

	failing, err := s.Failing()
	if err != nil {
		t.Fatal(err)
	}
	if len(failing) != 2 || failing[0].Path != "/a.sodl" || failing[1].Path != "/c.sodl" {
		t.Errorf("Failing: %v", paths(failing))
	}
}

func TestDeleteAndStats(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Upsert(&Result{Path: "/a.sodl", ContentHash: "a", Success: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upsert(&Result{Path: "/b.sodl", ContentHash: "b", Success: false, ErrorCount: 1}); err != nil {
		t.Fatal(err)
	}

	total, failing, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || failing != 1 {
		t.Errorf("stats = %d/%d", total, failing)
	}

	if err := s.Delete("/b.sodl"); err != nil {
		t.Fatal(err)
	}
	// Deleting a path that was never stored is a no-op.
	if err := s.Delete("/ghost.sodl"); err != nil {
		t.Fatal(err)
	}

	total, failing, err = s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || failing != 0 {
		t.Errorf("stats after delete = %d/%d", total, failing)
	}
}

func paths(rs []*Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Path
	}
	return out
}
