package analyzer

import (
	"strings"
	"testing"

	"github.com/sodl-lang/sodlc/internal/diag"
	"github.com/sodl-lang/sodlc/internal/lexer"
	"github.com/sodl-lang/sodlc/internal/parser"
)

func analyze(t *testing.T, src string) (*ResolvedProgram, *diag.Reporter) {
	t.Helper()
	reporter := diag.NewReporter()
	tokens := lexer.Tokenize(src, reporter)
	doc := parser.Parse(tokens, reporter)
	if reporter.HasErrors() {
		t.Fatalf("input does not lex/parse cleanly: %v", reporter.Diagnostics())
	}
	return Analyze(doc, reporter), reporter
}

func errorsContaining(reporter *diag.Reporter, substr string) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range reporter.Errors() {
		if strings.Contains(d.Message, substr) {
			out = append(out, d)
		}
	}
	return out
}

func TestMissingMethodReported(t *testing.T) {
	_, reporter := analyze(t, `
interface X:
    method f(a: str) -> int
module M:
    implements = [X]
`)

	errs := reporter.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want exactly 1: %v", len(errs), errs)
	}
	want := "module M missing method f required by X"
	if errs[0].Message != want {
		t.Errorf("message = %q, want %q", errs[0].Message, want)
	}
}

func TestSatisfiedContractIsQuiet(t *testing.T) {
	_, reporter := analyze(t, `
interface X:
    method f(a: str) -> int
module M:
    implements = [X]
    api:
        method f(value: str) -> int
`)

	if reporter.HasErrors() {
		t.Errorf("unexpected errors: %v", reporter.Errors())
	}
}

func TestCompletenessMonotonicity(t *testing.T) {
	base := `
interface X:
    method f(a: str) -> int
%s
module M:
    implements = [X]
    api:
        method f(a: str) -> int
`
	_, before := analyze(t, strings.ReplaceAll(base, "%s", ""))
	if n := len(before.Errors()); n != 0 {
		t.Fatalf("baseline has %d errors: %v", n, before.Errors())
	}

	grown := strings.ReplaceAll(base, "%s", "    method g() -> bool")
	_, after := analyze(t, grown)
	missing := errorsContaining(after, "missing method g")
	if len(after.Errors()) != 1 || len(missing) != 1 {
		t.Errorf("adding one interface method should add exactly one diagnostic, got %v", after.Errors())
	}
}

func TestInheritedMethodsRequired(t *testing.T) {
	_, reporter := analyze(t, `
interface Base:
    method ping() -> bool
interface X extends Base:
    method f(a: str) -> int
module M:
    implements = [X]
    api:
        method f(a: str) -> int
`)

	errs := reporter.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "missing method ping") {
		t.Errorf("got %v, want one missing ping diagnostic", errs)
	}
}

func TestOverrideMethodReplacesInheritedSignature(t *testing.T) {
	// The override in X changes ping's return type; the module matches the
	// overridden signature, not Base's.
	_, reporter := analyze(t, `
interface Base:
    method ping() -> bool
interface X extends Base:
    override method ping() -> Status
module M:
    implements = [X]
    api:
        method ping() -> Status
`)

	if reporter.HasErrors() {
		t.Errorf("unexpected errors: %v", reporter.Errors())
	}
}

func TestParameterNamesNeverMatter(t *testing.T) {
	_, reporter := analyze(t, `
interface X:
    method f(a: str) -> int
module M:
    implements = [X]
    exports = [X]
    api:
        method f(renamed: str) -> int
`)

	if reporter.HasErrors() {
		t.Errorf("parameter name mismatch should not be an error: %v", reporter.Errors())
	}
}

func TestExportedInterfaceChecksParamTypes(t *testing.T) {
	src := `
interface X:
    method f(a: str) -> int
module M:
    implements = [X]
    %s
    api:
        method f(a: bytes) -> int
`
	// Without exports, arity and return shape are enough.
	_, lax := analyze(t, strings.ReplaceAll(src, "%s\n    ", ""))
	if lax.HasErrors() {
		t.Fatalf("non-exported mismatch should pass: %v", lax.Errors())
	}

	_, strict := analyze(t, strings.ReplaceAll(src, "%s", "exports = [X]"))
	errs := strict.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "does not match the signature required by X") {
		t.Errorf("got %v, want one signature mismatch", errs)
	}
}

func TestDependencyCycleTwoModules(t *testing.T) {
	_, reporter := analyze(t, `
module A:
    requires = [B]
module B:
    requires = [A]
`)

	errs := reporter.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want exactly 1: %v", len(errs), errs)
	}
	msg := errs[0].Message
	if !strings.Contains(msg, "circular dependency") || !strings.Contains(msg, "A -> B -> A") {
		t.Errorf("message = %q", msg)
	}
}

func TestDependencyCycleSelfRequire(t *testing.T) {
	_, reporter := analyze(t, `
module A:
    requires = [A]
`)

	errs := reporter.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want exactly 1: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Message, "circular dependency among modules: A -> A") {
		t.Errorf("message = %q", errs[0].Message)
	}
}

func TestSelfRequireThroughOwnInterfaceAllowed(t *testing.T) {
	_, reporter := analyze(t, `
interface X:
    method f() -> int
module A:
    implements = [X]
    requires = [X]
    api:
        method f() -> int
`)

	if reporter.HasErrors() {
		t.Errorf("unexpected errors: %v", reporter.Errors())
	}
}

func TestDependencyCycleOrderIndependent(t *testing.T) {
	decls := []string{
		"module A:\n    requires = [B]\n",
		"module B:\n    requires = [C]\n",
		"module C:\n    requires = [A]\n",
	}
	orders := [][]int{{0, 1, 2}, {2, 0, 1}, {1, 2, 0}}

	var messages []string
	for _, order := range orders {
		var sb strings.Builder
		for _, i := range order {
			sb.WriteString(decls[i])
		}
		_, reporter := analyze(t, sb.String())

		cycles := errorsContaining(reporter, "circular dependency")
		if len(cycles) != 1 {
			t.Fatalf("order %v: got %d cycle diagnostics, want 1: %v", order, len(cycles), reporter.Errors())
		}
		messages = append(messages, cycles[0].Message)
	}

	for _, msg := range messages[1:] {
		if msg != messages[0] {
			t.Errorf("cycle message depends on declaration order: %q vs %q", messages[0], msg)
		}
	}
	if !strings.Contains(messages[0], "A -> B -> C -> A") {
		t.Errorf("message = %q", messages[0])
	}
}

func TestIndependentCyclesEachReported(t *testing.T) {
	_, reporter := analyze(t, `
module A:
    requires = [B]
module B:
    requires = [A]
module C:
    requires = [D]
module D:
    requires = [C]
`)

	cycles := errorsContaining(reporter, "circular dependency")
	if len(cycles) != 2 {
		t.Errorf("got %d cycle diagnostics, want 2: %v", len(cycles), reporter.Errors())
	}
}

func TestRequirementThroughImplementer(t *testing.T) {
	// B requires the interface; A implements it. The edge runs B -> A and
	// A's own requirement closes the loop.
	_, reporter := analyze(t, `
interface Store:
    method get() -> int
module A:
    implements = [Store]
    requires = [B]
    api:
        method get() -> int
module B:
    requires = [Store]
`)

	cycles := errorsContaining(reporter, "circular dependency")
	if len(cycles) != 1 {
		t.Errorf("got %d cycle diagnostics, want 1: %v", len(cycles), reporter.Errors())
	}
}

func TestUnresolvedRequirement(t *testing.T) {
	_, reporter := analyze(t, `
module M:
    requires = [Ghost]
`)

	errs := reporter.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "unresolved requirement 'Ghost' in module M") {
		t.Errorf("got %v", errs)
	}
}

func TestInvalidSeverity(t *testing.T) {
	_, reporter := analyze(t, `
policy P:
    rule "x" severity = urgent
`)

	errs := reporter.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "invalid severity 'urgent'") {
		t.Errorf("got %v", errs)
	}
}

func TestInvalidOutputKind(t *testing.T) {
	_, reporter := analyze(t, `
module M:
    doc = "x"
pipeline "Build":
    step one:
        modules = [M]
        output = artwork
`)

	errs := reporter.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "invalid output kind 'artwork'") {
		t.Errorf("got %v", errs)
	}
}

func TestDuplicateNameKeepsBoth(t *testing.T) {
	resolved, reporter := analyze(t, `
system "App":
    version = "1"
system "App":
    version = "2"
`)

	dups := errorsContaining(reporter, "duplicate name 'App'")
	if len(dups) != 1 {
		t.Fatalf("got %d duplicate diagnostics, want 1: %v", len(dups), reporter.Errors())
	}
	if len(resolved.Systems) != 2 {
		t.Errorf("resolved systems = %d, want both declarations kept", len(resolved.Systems))
	}
}

func TestDuplicateInDifferentScopesAllowed(t *testing.T) {
	_, reporter := analyze(t, `
system "A":
    module M:
        doc = "inside A"
system "B":
    module M:
        doc = "inside B"
`)

	if dups := errorsContaining(reporter, "duplicate name"); len(dups) != 0 {
		t.Errorf("same name in different systems flagged: %v", dups)
	}
}

func TestTemplateMerge(t *testing.T) {
	resolved, reporter := analyze(t, `
template "Base":
    version = "1.0"
    stack:
        language = "go"
        queue = "nats"
    intent:
        primary = "From the template"
        outcomes = ["keep", "drop"]
    policy Security:
        rule "old" severity = low
system "S" extends "Base":
    version = "2.0"
    override stack.language = "rust"
    append intent.outcomes += "added"
    remove intent.outcomes -= "drop"
    replace block Security:
        rule "new" severity = high
`)

	if reporter.HasErrors() {
		t.Fatalf("unexpected errors: %v", reporter.Errors())
	}
	if len(resolved.Systems) != 1 {
		t.Fatalf("resolved systems = %d", len(resolved.Systems))
	}
	sys := resolved.Systems[0]

	if sys.Version != "2.0" {
		t.Errorf("version = %q, child scalar must win", sys.Version)
	}
	stack := map[string]string{}
	for _, e := range sys.Stack {
		stack[e.Key] = e.Value
	}
	if stack["language"] != "rust" || stack["queue"] != "nats" {
		t.Errorf("stack = %v", stack)
	}
	if sys.Intent.Primary != "From the template" {
		t.Errorf("primary = %q, parent value must survive", sys.Intent.Primary)
	}
	wantOutcomes := []string{"keep", "added"}
	if len(sys.Intent.Outcomes) != 2 || sys.Intent.Outcomes[0] != wantOutcomes[0] || sys.Intent.Outcomes[1] != wantOutcomes[1] {
		t.Errorf("outcomes = %v, want %v", sys.Intent.Outcomes, wantOutcomes)
	}
	if len(sys.Policies) != 1 || sys.Policies[0].Rules[0].Text != "new" {
		t.Errorf("policies = %+v, replace block must substitute", sys.Policies)
	}
}

func TestMergeIdempotentOnNoOpEdits(t *testing.T) {
	// A child that declares nothing inherits the parent body unchanged.
	resolved, reporter := analyze(t, `
template "Base":
    version = "1.0"
    stack:
        language = "go"
    intent:
        primary = "p"
        outcomes = ["a", "b"]
system "S" extends "Base":
    version = "1.0"
`)

	if reporter.HasErrors() {
		t.Fatalf("unexpected errors: %v", reporter.Errors())
	}
	sys := resolved.Systems[0]
	if sys.Version != "1.0" || len(sys.Stack) != 1 || len(sys.Intent.Outcomes) != 2 {
		t.Errorf("merged body changed under a no-op child: %+v", sys)
	}
}

func TestTemplateChain(t *testing.T) {
	resolved, reporter := analyze(t, `
template "A":
    stack:
        language = "go"
template "B" extends "A":
    stack:
        queue = "nats"
system "S" extends "B":
    version = "1"
`)

	if reporter.HasErrors() {
		t.Fatalf("unexpected errors: %v", reporter.Errors())
	}
	if len(resolved.Systems[0].Stack) != 2 {
		t.Errorf("stack = %+v, want both chain levels merged", resolved.Systems[0].Stack)
	}
}

func TestTemplateExtendsCycle(t *testing.T) {
	resolved, reporter := analyze(t, `
template "A" extends "B":
    version = "1"
template "B" extends "A":
    version = "2"
system "S" extends "A":
    stack:
        language = "go"
`)

	cycles := errorsContaining(reporter, "extends cycle")
	if len(cycles) == 0 {
		t.Fatal("extends cycle not reported")
	}
	// Analysis continues: the system still resolves with its own fields.
	if len(resolved.Systems) != 1 || len(resolved.Systems[0].Stack) != 1 {
		t.Errorf("system analysis did not continue past the cycle: %+v", resolved.Systems)
	}
}

func TestUnresolvedTemplateReference(t *testing.T) {
	_, reporter := analyze(t, `
system "S" extends "Nowhere":
    version = "1"
`)

	errs := errorsContaining(reporter, "undefined reference to 'Nowhere'")
	if len(errs) != 1 {
		t.Errorf("got %v", reporter.Errors())
	}
}

func TestInterfaceExtendsCycleReportedOnce(t *testing.T) {
	_, reporter := analyze(t, `
interface A extends B:
    method f() -> int
interface B extends A:
    method g() -> int
module M:
    implements = [A, B]
    api:
        method f() -> int
        method g() -> int
`)

	cycles := errorsContaining(reporter, "extends cycle involving interface")
	if len(cycles) == 0 || len(cycles) > 2 {
		t.Errorf("got %d cycle diagnostics: %v", len(cycles), reporter.Errors())
	}
}

func TestInvalidArtifactPatternWarns(t *testing.T) {
	_, reporter := analyze(t, `
module M:
    artifacts = ["src/[broken"]
`)

	if reporter.HasErrors() {
		t.Fatalf("bad glob must be a warning, got errors: %v", reporter.Errors())
	}
	warns := reporter.Warnings()
	if len(warns) != 1 || !strings.Contains(warns[0].Message, "invalid artifact pattern") {
		t.Errorf("got %v", warns)
	}
}

func TestPipelineModuleReferences(t *testing.T) {
	_, reporter := analyze(t, `
pipeline "Build":
    step one:
        modules = [Ghost]
        output = code
`)

	errs := errorsContaining(reporter, "undefined reference to 'Ghost'")
	if len(errs) != 1 {
		t.Errorf("got %v", reporter.Errors())
	}
}
