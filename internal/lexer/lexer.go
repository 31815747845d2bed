// Package lexer turns SODL source text into a flat token stream, synthesizing
// INDENT/DEDENT/NEWLINE tokens from layout the way the parser expects them.
//
// The lexer never fails: malformed input produces an Error token plus a
// diagnostic and scanning resumes at the next line boundary.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/sodl-lang/sodlc/internal/diag"
	"github.com/sodl-lang/sodlc/internal/token"
)

const tabWidth = 4

type Lexer struct {
	src      string
	pos      int
	line     int
	col      int
	reporter *diag.Reporter

	// Indentation widths currently open. Always starts with 0; tokens at
	// width 0 close every open level.
	indents []int

	tokens []token.Token
}

func New(src string, reporter *diag.Reporter) *Lexer {
	return &Lexer{
		src:      src,
		line:     1,
		col:      1,
		reporter: reporter,
		indents:  []int{0},
	}
}

// Tokenize scans the whole input. The returned slice always ends with enough
// DEDENT tokens to rebalance the indentation stack, followed by EOF.
func Tokenize(src string, reporter *diag.Reporter) []token.Token {
	return New(src, reporter).Run()
}

func (l *Lexer) Run() []token.Token {
	for l.pos < len(l.src) {
		l.scanLine()
	}

	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(token.Dedent, "")
	}
	l.emit(token.EOF, "")
	return l.tokens
}

// scanLine handles one physical line: leading whitespace, then tokens up to
// the newline. Blank and comment-only lines never touch the indent stack.
func (l *Lexer) scanLine() {
	width, mixed := l.scanIndentation()

	if l.atLineEnd() {
		l.skipLineEnd()
		return
	}
	if l.peek() == '#' {
		l.skipComment()
		l.skipLineEnd()
		return
	}

	if mixed {
		l.reporter.Errorf(l.line, 1, "mixed tabs and spaces in indentation")
	}
	l.applyIndentation(width)

	emitted := false
	for !l.atLineEnd() {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t':
			l.advance()
		case c == '#':
			l.skipComment()
		case c == '"':
			l.scanString()
			emitted = true
		case isDigit(c):
			l.scanNumber()
			emitted = true
		case isIdentStart(c):
			l.scanIdent()
			emitted = true
		default:
			if l.scanOperator() {
				emitted = true
				continue
			}
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			l.errorToken(l.src[l.pos:l.pos+size], "unexpected character %q", r)
			l.skipToLineEnd()
			emitted = true
		}
	}

	if emitted {
		l.emit(token.Newline, "")
	}
	l.skipLineEnd()
}

// scanIndentation measures the leading whitespace of the current line.
// A tab advances to the next multiple of tabWidth.
func (l *Lexer) scanIndentation() (width int, mixed bool) {
	sawSpace, sawTab := false, false
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ':
			sawSpace = true
			width++
		case '\t':
			sawTab = true
			width = (width/tabWidth + 1) * tabWidth
		default:
			return width, sawSpace && sawTab
		}
		l.advance()
	}
	return width, sawSpace && sawTab
}

func (l *Lexer) applyIndentation(width int) {
	top := l.indents[len(l.indents)-1]
	switch {
	case width > top:
		l.indents = append(l.indents, width)
		l.emitAt(token.Indent, "", l.line, 1)
	case width < top:
		for len(l.indents) > 1 && width < l.indents[len(l.indents)-1] {
			l.indents = l.indents[:len(l.indents)-1]
			l.emitAt(token.Dedent, "", l.line, 1)
		}
		if width != l.indents[len(l.indents)-1] {
			l.reporter.Errorf(l.line, 1, "inconsistent indentation: width %d does not match any open block", width)
			// Recover by opening a fresh level at the observed width.
			l.indents = append(l.indents, width)
			l.emitAt(token.Indent, "", l.line, 1)
		}
	}
}

func (l *Lexer) scanString() {
	startLine, startCol := l.line, l.col
	l.advance() // opening quote

	var sb strings.Builder
	for !l.atLineEnd() {
		c := l.peek()
		if c == '"' {
			l.advance()
			l.emitAt(token.String, sb.String(), startLine, startCol)
			return
		}
		if c == '\\' {
			l.advance()
			if l.atLineEnd() {
				break
			}
			switch l.peek() {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(l.peek())
			}
			l.advance()
			continue
		}
		sb.WriteByte(c)
		l.advance()
	}

	// Unterminated: the token ends at the line boundary.
	l.reporter.Errorf(startLine, startCol, "unterminated string literal")
	l.emitAt(token.String, sb.String(), startLine, startCol)
}

func (l *Lexer) scanNumber() {
	startLine, startCol := l.line, l.col
	start := l.pos
	for !l.atLineEnd() && isDigit(l.peek()) {
		l.advance()
	}
	kind := token.Int
	if l.pos < len(l.src) && l.peek() == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		kind = token.Float
		l.advance()
		for !l.atLineEnd() && isDigit(l.peek()) {
			l.advance()
		}
	}
	l.emitAt(kind, l.src[start:l.pos], startLine, startCol)
}

func (l *Lexer) scanIdent() {
	startLine, startCol := l.line, l.col
	start := l.pos
	for !l.atLineEnd() && isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := l.src[start:l.pos]
	l.emitAt(token.Lookup(lexeme), lexeme, startLine, startCol)
}

// scanOperator recognizes the fixed operator set by maximal munch: two-rune
// operators are tried before their one-rune prefixes.
func (l *Lexer) scanOperator() bool {
	startLine, startCol := l.line, l.col

	if l.pos+1 < len(l.src) {
		two := l.src[l.pos : l.pos+2]
		var kind token.Kind
		switch two {
		case "->":
			kind = token.Arrow
		case "+=":
			kind = token.PlusEquals
		case "-=":
			kind = token.MinusEquals
		}
		if kind != token.Error {
			l.advance()
			l.advance()
			l.emitAt(kind, two, startLine, startCol)
			return true
		}
	}

	var kind token.Kind
	switch l.peek() {
	case ':':
		kind = token.Colon
	case '=':
		kind = token.Equals
	case ',':
		kind = token.Comma
	case '[':
		kind = token.LBracket
	case ']':
		kind = token.RBracket
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '.':
		kind = token.Dot
	case '?':
		kind = token.Question
	default:
		return false
	}
	lexeme := string(l.peek())
	l.advance()
	l.emitAt(kind, lexeme, startLine, startCol)
	return true
}

func (l *Lexer) errorToken(lexeme, format string, args ...any) {
	l.reporter.Errorf(l.line, l.col, format, args...)
	l.emit(token.Error, lexeme)
	l.pos += len(lexeme)
	l.col++
}

func (l *Lexer) skipComment() {
	for !l.atLineEnd() {
		l.advance()
	}
}

func (l *Lexer) skipToLineEnd() {
	for !l.atLineEnd() {
		l.advance()
	}
}

// skipLineEnd consumes one line terminator: "\n", "\r\n", or a bare "\r".
func (l *Lexer) skipLineEnd() {
	if l.pos >= len(l.src) {
		return
	}
	switch l.src[l.pos] {
	case '\r':
		l.pos++
		if l.pos < len(l.src) && l.src[l.pos] == '\n' {
			l.pos++
		}
	case '\n':
		l.pos++
	default:
		return
	}
	l.line++
	l.col = 1
}

func (l *Lexer) atLineEnd() bool {
	return l.pos >= len(l.src) || l.src[l.pos] == '\n' || l.src[l.pos] == '\r'
}

func (l *Lexer) peek() byte {
	return l.src[l.pos]
}

func (l *Lexer) advance() {
	l.pos++
	l.col++
}

func (l *Lexer) emit(kind token.Kind, lexeme string) {
	l.emitAt(kind, lexeme, l.line, l.col)
}

func (l *Lexer) emitAt(kind token.Kind, lexeme string, line, col int) {
	l.tokens = append(l.tokens, token.Token{Kind: kind, Lexeme: lexeme, Line: line, Column: col})
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
