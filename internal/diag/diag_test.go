package diag

import "testing"

func TestReporterAccumulates(t *testing.T) {
	r := NewReporter()
	r.Errorf(1, 2, "first %s", "error")
	r.Warnf(3, 4, "a warning")
	r.Errorf(5, 6, "second error")

	all := r.Diagnostics()
	if len(all) != 3 {
		t.Fatalf("got %d diagnostics, want 3", len(all))
	}
	if all[0].Message != "first error" || all[0].Severity != SeverityError {
		t.Errorf("first diagnostic = %+v", all[0])
	}
	if !r.HasErrors() || !r.HasWarnings() {
		t.Errorf("HasErrors/HasWarnings = %v/%v", r.HasErrors(), r.HasWarnings())
	}
	if len(r.Errors()) != 2 || len(r.Warnings()) != 1 {
		t.Errorf("split = %d errors, %d warnings", len(r.Errors()), len(r.Warnings()))
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Severity: SeverityError, Message: "boom", Line: 7, Column: 12}
	if got := d.String(); got != "7:12: boom" {
		t.Errorf("String() = %q", got)
	}
}

func TestEmptyReporter(t *testing.T) {
	r := NewReporter()
	if r.HasErrors() || r.HasWarnings() || len(r.Diagnostics()) != 0 {
		t.Error("fresh reporter is not empty")
	}
}
