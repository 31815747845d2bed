package lexer

import (
	"strings"
	"testing"

	"github.com/sodl-lang/sodlc/internal/diag"
	"github.com/sodl-lang/sodlc/internal/token"
)

func lex(t *testing.T, src string) ([]token.Token, *diag.Reporter) {
	t.Helper()
	reporter := diag.NewReporter()
	return Tokenize(src, reporter), reporter
}

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func countKind(tokens []token.Token, kind token.Kind) int {
	n := 0
	for _, tok := range tokens {
		if tok.Kind == kind {
			n++
		}
	}
	return n
}

func TestIndentBalance(t *testing.T) {
	src := "system \"A\":\n  module M:\n    doc = \"x\"\n  policy P:\n    rule \"r\" severity = low\n"
	tokens, reporter := lex(t, src)

	if reporter.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", reporter.Diagnostics())
	}
	indents := countKind(tokens, token.Indent)
	dedents := countKind(tokens, token.Dedent)
	if indents != dedents {
		t.Errorf("indent/dedent mismatch: %d INDENT, %d DEDENT", indents, dedents)
	}
	if tokens[len(tokens)-1].Kind != token.EOF {
		t.Errorf("last token = %v, want EOF", tokens[len(tokens)-1])
	}
}

func TestBlankAndCommentLinesIgnoreLayout(t *testing.T) {
	src := "module M:\n\n    # just a comment\n  doc = \"x\"\n"
	tokens, reporter := lex(t, src)

	if reporter.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", reporter.Diagnostics())
	}
	// The comment line is indented deeper than the body but must not open a
	// block of its own.
	if got := countKind(tokens, token.Indent); got != 1 {
		t.Errorf("INDENT count = %d, want 1 (tokens: %v)", got, kinds(tokens))
	}
}

func TestMixedTabsAndSpaces(t *testing.T) {
	src := "module M:\n\t  doc = \"x\"\n"
	_, reporter := lex(t, src)

	errs := reporter.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Message, "mixed tabs and spaces") {
		t.Errorf("unexpected message: %q", errs[0].Message)
	}
}

func TestTabAdvancesToNextStop(t *testing.T) {
	// One tab and four spaces indent to the same width, so the nested lines
	// sit in the same block.
	src := "module M:\n\tdoc = \"x\"\n    owns = [\"y\"]\n"
	tokens, reporter := lex(t, src)

	if reporter.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", reporter.Diagnostics())
	}
	if got := countKind(tokens, token.Indent); got != 1 {
		t.Errorf("INDENT count = %d, want 1", got)
	}
}

func TestInconsistentIndentationRecovers(t *testing.T) {
	src := "module M:\n    doc = \"x\"\n  owns = [\"y\"]\n"
	tokens, reporter := lex(t, src)

	errs := reporter.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "inconsistent indentation") {
		t.Fatalf("got %v, want one inconsistent indentation error", errs)
	}
	// Recovery pushes the observed width; the stream still balances.
	if countKind(tokens, token.Indent) != countKind(tokens, token.Dedent) {
		t.Errorf("indentation stack did not rebalance: %v", kinds(tokens))
	}
}

func TestUnterminatedString(t *testing.T) {
	src := "doc = \"never closed\nowns = [\"x\"]\n"
	tokens, reporter := lex(t, src)

	errs := reporter.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "unterminated string") {
		t.Fatalf("got %v, want one unterminated string error", errs)
	}

	var lit *token.Token
	for i := range tokens {
		if tokens[i].Kind == token.String {
			lit = &tokens[i]
			break
		}
	}
	if lit == nil {
		t.Fatal("no string token produced")
	}
	if lit.Lexeme != "never closed" {
		t.Errorf("string lexeme = %q, want token ended at line boundary", lit.Lexeme)
	}
}

func TestStringEscapes(t *testing.T) {
	src := `doc = "a \"quoted\" name\nwith \\ backslash"` + "\n"
	tokens, reporter := lex(t, src)

	if reporter.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", reporter.Diagnostics())
	}
	for _, tok := range tokens {
		if tok.Kind == token.String {
			want := "a \"quoted\" name\nwith \\ backslash"
			if tok.Lexeme != want {
				t.Errorf("lexeme = %q, want %q", tok.Lexeme, want)
			}
			return
		}
	}
	t.Fatal("no string token produced")
}

func TestOperatorsMaximalMunch(t *testing.T) {
	src := "a -> b += c -= d.e?\n"
	tokens, reporter := lex(t, src)

	if reporter.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", reporter.Diagnostics())
	}
	want := []token.Kind{
		token.Ident, token.Arrow, token.Ident, token.PlusEquals, token.Ident,
		token.MinusEquals, token.Ident, token.Dot, token.Ident, token.Question,
		token.Newline, token.EOF,
	}
	got := kinds(tokens)
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}
}

func TestNumbers(t *testing.T) {
	src := "retries = 3\nratio = 0.75\n"
	tokens, reporter := lex(t, src)

	if reporter.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", reporter.Diagnostics())
	}
	if countKind(tokens, token.Int) != 1 {
		t.Errorf("want one integer token in %v", tokens)
	}
	if countKind(tokens, token.Float) != 1 {
		t.Errorf("want one float token in %v", tokens)
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	src := "module modules moduleX\n"
	tokens, _ := lex(t, src)

	want := []token.Kind{token.KwModule, token.KwModules, token.Ident, token.Newline, token.EOF}
	got := kinds(tokens)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}
}

func TestInvalidCharacterRecoversAtLineEnd(t *testing.T) {
	src := "doc = @nonsense\nowns = [\"x\"]\n"
	tokens, reporter := lex(t, src)

	errs := reporter.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "unexpected character") {
		t.Fatalf("got %v, want one unexpected character error", errs)
	}
	if countKind(tokens, token.Error) != 1 {
		t.Errorf("want one error token in %v", kinds(tokens))
	}
	// The following line still tokenizes.
	if countKind(tokens, token.KwOwns) != 1 {
		t.Errorf("next line lost after recovery: %v", kinds(tokens))
	}
}

func TestUnexpectedMultibyteCharacter(t *testing.T) {
	src := "doc = élan\n"
	tokens, reporter := lex(t, src)

	errs := reporter.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Message, "'é'") {
		t.Errorf("message does not name the rune: %q", errs[0].Message)
	}
	if countKind(tokens, token.Error) != 1 {
		t.Errorf("want one error token in %v", kinds(tokens))
	}
}

func TestCarriageReturnLineEndings(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
	}{
		{"crlf", "doc = \"x\"\r\nowns = [\"y\"]\r\n"},
		{"bare cr", "doc = \"x\"\rowns = [\"y\"]\r"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tokens, reporter := lex(t, tc.src)

			if reporter.HasErrors() {
				t.Fatalf("unexpected diagnostics: %v", reporter.Diagnostics())
			}
			var owns *token.Token
			for i := range tokens {
				if tokens[i].Kind == token.KwOwns {
					owns = &tokens[i]
					break
				}
			}
			if owns == nil {
				t.Fatalf("second line lost: %v", kinds(tokens))
			}
			if owns.Line != 2 || owns.Column != 1 {
				t.Errorf("owns at %d:%d, want 2:1", owns.Line, owns.Column)
			}
		})
	}
}

func TestPositionsAreOneBased(t *testing.T) {
	tokens, _ := lex(t, "doc = \"x\"\n")

	if tokens[0].Line != 1 || tokens[0].Column != 1 {
		t.Errorf("first token at %d:%d, want 1:1", tokens[0].Line, tokens[0].Column)
	}
}
