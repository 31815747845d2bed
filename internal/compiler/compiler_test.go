package compiler

import (
	"strings"
	"testing"
)

const goodSource = `
template "Base":
    version = "1.0"
    stack:
        language = "go"
system "Shop" extends "Base":
    interface Store:
        method get(id: str) -> Item?
    module Inventory:
        implements = [Store]
        api:
            method get(id: str) -> Item?
    pipeline "Build":
        step code:
            modules = [Inventory]
            output = code
`

func TestCompileSuccess(t *testing.T) {
	result, err := Compile([]byte(goodSource), "shop.sodl")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !result.Success {
		t.Fatalf("success = false, diagnostics: %v", result.Diagnostics)
	}
	if result.Name != "shop.sodl" {
		t.Errorf("name = %q", result.Name)
	}
	if result.Resolved == nil {
		t.Fatal("resolved program missing")
	}
}

func TestCompileWithErrorsKeepsPartialStructure(t *testing.T) {
	src := `
system "App":
    module M:
        requires = [Ghost]
`
	result, err := Compile([]byte(src), "app.sodl")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if result.Success {
		t.Fatal("success = true despite unresolved requirement")
	}
	if result.Resolved == nil || len(result.Resolved.Systems) != 1 || len(result.Resolved.Modules) != 1 {
		t.Errorf("partial structure missing: %+v", result.Resolved)
	}
}

func TestCompileUndecodableInput(t *testing.T) {
	_, err := Compile([]byte{0x00, 0x01, 0x02, 0xFF}, "bad.bin")
	if err == nil {
		t.Fatal("want a hard error for undecodable input")
	}
	if !strings.Contains(err.Error(), "bad.bin") {
		t.Errorf("error does not name the input: %v", err)
	}
}

func TestValidateSyntaxIgnoresSemantics(t *testing.T) {
	src := "policy P:\n    rule \"x\" severity = urgent\n"

	syntax := ValidateSyntax(src)
	if !syntax.Valid {
		t.Errorf("valid = false, diagnostics: %v", syntax.Diagnostics)
	}
	if syntax.LineCount != 2 {
		t.Errorf("lineCount = %d, want 2", syntax.LineCount)
	}

	// The same text fails full compilation on the semantic check.
	result := CompileText(src, "p.sodl")
	if result.Success {
		t.Error("full compile should reject the severity")
	}
}

func TestValidateSyntaxReportsSyntaxErrors(t *testing.T) {
	syntax := ValidateSyntax("module M:\n    owns = = broken\n")
	if syntax.Valid {
		t.Error("valid = true for malformed input")
	}
	if len(syntax.Diagnostics) == 0 {
		t.Error("no diagnostics for malformed input")
	}
}

func TestStructureSummary(t *testing.T) {
	result := CompileText(goodSource, "shop.sodl")
	if !result.Success {
		t.Fatalf("diagnostics: %v", result.Diagnostics)
	}

	summary := StructureSummary(result.Resolved)
	if summary.SystemCount != 1 || summary.InterfaceCount != 1 || summary.ModuleCount != 1 || summary.PipelineCount != 1 {
		t.Errorf("counts = %+v", summary)
	}
	if len(summary.PerSystem) != 1 {
		t.Fatalf("perSystem = %+v", summary.PerSystem)
	}
	per := summary.PerSystem[0]
	if per.Name != "Shop" || per.Version != "1.0" || per.ModuleCount != 1 {
		t.Errorf("perSystem[0] = %+v", per)
	}
	if len(per.Modules) != 1 || per.Modules[0] != "Inventory" {
		t.Errorf("module names = %v", per.Modules)
	}
}

func TestStructureSummaryNilProgram(t *testing.T) {
	summary := StructureSummary(nil)
	if summary.SystemCount != 0 || len(summary.PerSystem) != 0 {
		t.Errorf("summary of nil program = %+v", summary)
	}
}
