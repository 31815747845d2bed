// Package parser builds the SODL AST from the token stream by recursive
// descent, one function per grammar production.
//
// The parser never aborts on a bad statement. Inside any block, an
// unexpected token is reported and the parser resynchronizes at the next
// line boundary of the same depth, so every well-formed sibling statement
// still reaches the document.
package parser

import (
	"strconv"
	"strings"

	"github.com/sodl-lang/sodlc/internal/ast"
	"github.com/sodl-lang/sodlc/internal/diag"
	"github.com/sodl-lang/sodlc/internal/token"
)

type Parser struct {
	tokens   []token.Token
	pos      int
	reporter *diag.Reporter
}

// Parse consumes the token stream and returns the document plus whatever
// syntax diagnostics accumulated on the reporter.
func Parse(tokens []token.Token, reporter *diag.Reporter) *ast.Document {
	p := &Parser{tokens: tokens, reporter: reporter}
	return p.parseDocument()
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) at(kind token.Kind) bool {
	return p.cur().Kind == kind
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) accept(kind token.Kind) bool {
	if p.at(kind) {
		p.advance()
		return true
	}
	return false
}

// expect reports a syntax error when the current token does not match. The
// caller decides whether to resynchronize.
func (p *Parser) expect(kind token.Kind, context string) (token.Token, bool) {
	if p.at(kind) {
		return p.advance(), true
	}
	t := p.cur()
	p.reporter.Errorf(t.Line, t.Column, "expected %s in %s, got %s", kind, context, t.Kind)
	return t, false
}

func (p *Parser) skipNewlines() {
	for p.at(token.Newline) {
		p.advance()
	}
}

// resync discards tokens up to and including the next NEWLINE at the current
// depth. It stops short of a DEDENT that would close the enclosing block and
// never consumes EOF, so block loops terminate cleanly.
func (p *Parser) resync() {
	depth := 0
	for {
		switch p.cur().Kind {
		case token.EOF:
			return
		case token.Indent:
			depth++
		case token.Dedent:
			if depth == 0 {
				return
			}
			depth--
		case token.Newline:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) errHere(format string, args ...any) {
	t := p.cur()
	p.reporter.Errorf(t.Line, t.Column, format, args...)
}

func span(t token.Token) ast.Span {
	return ast.Span{Line: t.Line, Column: t.Column}
}

func (p *Parser) parseDocument() *ast.Document {
	doc := &ast.Document{}
	for !p.at(token.EOF) {
		switch p.cur().Kind {
		case token.Newline, token.Indent, token.Dedent:
			p.advance()
		case token.KwSystem:
			doc.Decls = append(doc.Decls, p.parseSystem())
		case token.KwTemplate:
			doc.Decls = append(doc.Decls, p.parseTemplate())
		case token.KwInterface:
			doc.Decls = append(doc.Decls, p.parseInterface())
		case token.KwModule:
			doc.Decls = append(doc.Decls, p.parseModule())
		case token.KwPolicy:
			doc.Decls = append(doc.Decls, p.parsePolicy())
		case token.KwPipeline:
			doc.Decls = append(doc.Decls, p.parsePipeline())
		default:
			p.errHere("unexpected %s at top level", p.cur().Kind)
			p.resync()
		}
	}
	return doc
}

// header parses `[extends name] ':' NEWLINE` after the declaration name and
// reports whether an indented body follows. extendsWith is the token kind
// naming the parent (String or Ident); token.Error means the construct does
// not support inheritance and any extends clause is a syntax error.
func (p *Parser) header(context string, extendsWith token.Kind) (extends string, hasBody bool) {
	if p.at(token.KwExtends) {
		if extendsWith == token.Error {
			p.errHere("extends is not allowed in %s", context)
			p.advance()
			if p.at(token.String) || p.at(token.Ident) {
				p.advance()
			}
		} else {
			p.advance()
			if t, ok := p.expect(extendsWith, context); ok {
				extends = t.Lexeme
			}
		}
	}
	if _, ok := p.expect(token.Colon, context); !ok {
		p.resync()
	}
	p.skipNewlines()
	return extends, p.accept(token.Indent)
}

// atBlockEnd is the shared loop condition for indented bodies: consume
// newlines, stop at the closing DEDENT or at EOF.
func (p *Parser) atBlockEnd() bool {
	p.skipNewlines()
	if p.at(token.EOF) {
		return true
	}
	return p.accept(token.Dedent)
}

func (p *Parser) parseSystem() *ast.SystemDecl {
	start := p.advance() // system
	decl := &ast.SystemDecl{}
	decl.Span = span(start)
	if t, ok := p.expect(token.String, "system declaration"); ok {
		decl.Name = t.Lexeme
	}
	extends, hasBody := p.header("system declaration", token.String)
	decl.Extends = extends
	if !hasBody {
		return decl
	}
	for !p.atBlockEnd() {
		switch p.cur().Kind {
		case token.KwVersion:
			decl.Version = p.parseScalarAssign("version")
		case token.KwStack:
			decl.Stack = p.parseStack()
		case token.KwIntent:
			decl.Intent = p.parseIntent()
		case token.KwInterface:
			decl.Interfaces = append(decl.Interfaces, p.parseInterface())
		case token.KwModule:
			decl.Modules = append(decl.Modules, p.parseModule())
		case token.KwPolicy:
			decl.Policies = append(decl.Policies, p.parsePolicy())
		case token.KwPipeline:
			decl.Pipelines = append(decl.Pipelines, p.parsePipeline())
		case token.KwOverride, token.KwAppend, token.KwRemove, token.KwReplace:
			if op, ok := p.parseEdit(); ok {
				decl.Edits = append(decl.Edits, op)
			}
		default:
			p.errHere("unexpected %s in system body", p.cur().Kind)
			p.resync()
		}
	}
	return decl
}

func (p *Parser) parseTemplate() *ast.TemplateDecl {
	start := p.advance() // template
	decl := &ast.TemplateDecl{}
	decl.Span = span(start)
	if t, ok := p.expect(token.String, "template declaration"); ok {
		decl.Name = t.Lexeme
	}
	extends, hasBody := p.header("template declaration", token.String)
	decl.Extends = extends
	if !hasBody {
		return decl
	}
	for !p.atBlockEnd() {
		switch p.cur().Kind {
		case token.KwVersion:
			decl.Version = p.parseScalarAssign("version")
		case token.KwStack:
			decl.Stack = p.parseStack()
		case token.KwIntent:
			decl.Intent = p.parseIntent()
		case token.KwPolicy:
			decl.Policies = append(decl.Policies, p.parsePolicy())
		case token.KwOverride, token.KwAppend, token.KwRemove, token.KwReplace:
			if op, ok := p.parseEdit(); ok {
				decl.Edits = append(decl.Edits, op)
			}
		default:
			p.errHere("unexpected %s in template body", p.cur().Kind)
			p.resync()
		}
	}
	return decl
}

// parseScalarAssign handles `key = "value"` lines.
func (p *Parser) parseScalarAssign(context string) string {
	p.advance() // key
	if _, ok := p.expect(token.Equals, context); !ok {
		p.resync()
		return ""
	}
	t, ok := p.expect(token.String, context)
	if !ok {
		p.resync()
		return ""
	}
	return t.Lexeme
}

func (p *Parser) parseStack() *ast.StackBlock {
	start := p.advance() // stack
	block := &ast.StackBlock{}
	block.Span = span(start)
	if _, ok := p.expect(token.Colon, "stack block"); !ok {
		p.resync()
		return block
	}
	p.skipNewlines()
	if !p.accept(token.Indent) {
		return block
	}
	for !p.atBlockEnd() {
		t := p.cur()
		if t.Kind != token.Ident && !t.Kind.IsKeyword() {
			p.errHere("unexpected %s in stack block", t.Kind)
			p.resync()
			continue
		}
		p.advance()
		if _, ok := p.expect(token.Equals, "stack entry"); !ok {
			p.resync()
			continue
		}
		v, ok := p.expect(token.String, "stack entry")
		if !ok {
			p.resync()
			continue
		}
		block.Entries = append(block.Entries, ast.StackEntry{Key: t.Lexeme, Value: v.Lexeme, Span: span(t)})
	}
	return block
}

func (p *Parser) parseIntent() *ast.IntentBlock {
	start := p.advance() // intent
	block := &ast.IntentBlock{}
	block.Span = span(start)
	if _, ok := p.expect(token.Colon, "intent block"); !ok {
		p.resync()
		return block
	}
	p.skipNewlines()
	if !p.accept(token.Indent) {
		return block
	}
	for !p.atBlockEnd() {
		switch p.cur().Kind {
		case token.KwPrimary:
			block.Primary = p.parseScalarAssign("intent primary")
		case token.KwOutcomes:
			block.Outcomes = p.parseStringListAssign("intent outcomes")
		case token.KwOutOfScope:
			block.OutOfScope = p.parseStringListAssign("intent out_of_scope")
		default:
			p.errHere("unexpected %s in intent block", p.cur().Kind)
			p.resync()
		}
	}
	return block
}

func (p *Parser) parseEdit() (ast.EditOp, bool) {
	start := p.advance()
	op := ast.EditOp{Span: span(start)}
	switch start.Kind {
	case token.KwOverride:
		op.Kind = ast.EditOverride
	case token.KwAppend:
		op.Kind = ast.EditAppend
	case token.KwRemove:
		op.Kind = ast.EditRemove
	case token.KwReplace:
		op.Kind = ast.EditReplace
		return p.parseReplaceBlock(op)
	}

	op.Path = p.parsePath()
	var assign token.Kind
	switch op.Kind {
	case ast.EditOverride:
		assign = token.Equals
	case ast.EditAppend:
		assign = token.PlusEquals
	case ast.EditRemove:
		assign = token.MinusEquals
	}
	if _, ok := p.expect(assign, op.Kind.String()+" statement"); !ok {
		p.resync()
		return op, false
	}
	v, ok := p.expect(token.String, op.Kind.String()+" statement")
	if !ok {
		p.resync()
		return op, false
	}
	op.Value = v.Lexeme
	return op, true
}

// parseReplaceBlock handles `replace block Name:` followed by a policy-shaped
// body that substitutes the like-named inherited block.
func (p *Parser) parseReplaceBlock(op ast.EditOp) (ast.EditOp, bool) {
	if _, ok := p.expect(token.KwBlock, "replace statement"); !ok {
		p.resync()
		return op, false
	}
	nameTok, ok := p.expect(token.Ident, "replace statement")
	if !ok {
		p.resync()
		return op, false
	}
	op.Path = []string{nameTok.Lexeme}
	policy := &ast.PolicyDecl{Name: nameTok.Lexeme}
	policy.Span = span(nameTok)
	if _, ok := p.expect(token.Colon, "replace statement"); !ok {
		p.resync()
		return op, false
	}
	p.skipNewlines()
	if p.accept(token.Indent) {
		p.parseRules(policy)
	}
	op.Block = policy
	return op, true
}

func (p *Parser) parsePath() []string {
	var path []string
	t := p.cur()
	if t.Kind == token.Ident || t.Kind.IsKeyword() {
		path = append(path, t.Lexeme)
		p.advance()
	}
	for p.accept(token.Dot) {
		t := p.cur()
		if t.Kind != token.Ident && !t.Kind.IsKeyword() {
			p.errHere("expected path segment after '.', got %s", t.Kind)
			break
		}
		path = append(path, t.Lexeme)
		p.advance()
	}
	return path
}

func (p *Parser) parseInterface() *ast.InterfaceDecl {
	start := p.advance() // interface
	decl := &ast.InterfaceDecl{}
	decl.Span = span(start)
	if t, ok := p.expect(token.Ident, "interface declaration"); ok {
		decl.Name = t.Lexeme
	}
	extends, hasBody := p.header("interface declaration", token.Ident)
	decl.Extends = extends
	if !hasBody {
		return decl
	}
	for !p.atBlockEnd() {
		switch p.cur().Kind {
		case token.KwDoc:
			decl.Doc = p.parseScalarAssign("interface doc")
		case token.KwField:
			if f := p.parseField(); f != nil {
				decl.Fields = append(decl.Fields, f)
			}
		case token.KwModel:
			if m := p.parseModel(); m != nil {
				decl.Models = append(decl.Models, m)
			}
		case token.KwMethod:
			if m := p.parseMethod(false); m != nil {
				decl.Methods = append(decl.Methods, m)
			}
		case token.KwOverride:
			p.advance()
			if !p.at(token.KwMethod) {
				p.errHere("expected 'method' after 'override' in interface body")
				p.resync()
				continue
			}
			if m := p.parseMethod(true); m != nil {
				decl.Methods = append(decl.Methods, m)
			}
		case token.KwInvariants:
			decl.Invariants = append(decl.Invariants, p.parseInvariants()...)
		default:
			p.errHere("unexpected %s in interface body", p.cur().Kind)
			p.resync()
		}
	}
	return decl
}

// parseMethod handles `method name(param: Type, ...) -> Type`.
func (p *Parser) parseMethod(override bool) *ast.MethodSig {
	start := p.advance() // method
	sig := &ast.MethodSig{Override: override}
	sig.Span = span(start)
	nameTok, ok := p.expect(token.Ident, "method signature")
	if !ok {
		p.resync()
		return nil
	}
	sig.Name = nameTok.Lexeme
	if _, ok := p.expect(token.LParen, "method signature"); !ok {
		p.resync()
		return sig
	}
	if !p.at(token.RParen) {
		for {
			pn, ok := p.expect(token.Ident, "method parameter")
			if !ok {
				p.resync()
				return sig
			}
			if _, ok := p.expect(token.Colon, "method parameter"); !ok {
				p.resync()
				return sig
			}
			pt := p.parseTypeRef()
			sig.Params = append(sig.Params, ast.Param{Name: pn.Lexeme, Type: pt})
			if !p.accept(token.Comma) {
				break
			}
		}
	}
	if _, ok := p.expect(token.RParen, "method signature"); !ok {
		p.resync()
		return sig
	}
	if _, ok := p.expect(token.Arrow, "method signature"); !ok {
		p.resync()
		return sig
	}
	sig.Return = p.parseTypeRef()
	return sig
}

// parseTypeRef accepts the bounded annotation grammar: a named type, a
// generic application with square brackets, and a trailing '?' for optional.
func (p *Parser) parseTypeRef() *ast.TypeRef {
	t, ok := p.expect(token.Ident, "type annotation")
	if !ok {
		return nil
	}
	ref := &ast.TypeRef{Kind: ast.TypeNamed, Name: t.Lexeme, Span: span(t)}
	if p.accept(token.LBracket) {
		ref.Kind = ast.TypeGeneric
		for {
			arg := p.parseTypeRef()
			if arg == nil {
				break
			}
			ref.Args = append(ref.Args, arg)
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.RBracket, "type annotation")
	}
	if q := p.cur(); q.Kind == token.Question {
		p.advance()
		ref = &ast.TypeRef{Kind: ast.TypeOptional, Inner: ref, Span: ref.Span}
	}
	return ref
}

func (p *Parser) parseField() *ast.FieldDef {
	start := p.advance() // field
	f := &ast.FieldDef{}
	f.Span = span(start)
	nameTok := p.cur()
	if nameTok.Kind != token.Ident && !nameTok.Kind.IsKeyword() {
		p.errHere("expected field name, got %s", nameTok.Kind)
		p.resync()
		return nil
	}
	p.advance()
	f.Name = nameTok.Lexeme
	if _, ok := p.expect(token.Colon, "field definition"); !ok {
		p.resync()
		return f
	}
	f.Type = p.parseTypeRef()
	if p.at(token.LParen) {
		f.Constraint = p.parseConstraintGroup()
	}
	return f
}

// parseConstraintGroup records the raw text of a balanced (...) suffix.
func (p *Parser) parseConstraintGroup() string {
	p.advance() // '('
	var parts []string
	depth := 1
	for depth > 0 && !p.at(token.Newline) && !p.at(token.EOF) {
		t := p.cur()
		switch t.Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				p.advance()
				return strings.Join(parts, "")
			}
		}
		parts = append(parts, t.Lexeme)
		p.advance()
	}
	p.errHere("unterminated constraint group")
	return strings.Join(parts, "")
}

func (p *Parser) parseModel() *ast.ModelDef {
	start := p.advance() // model
	m := &ast.ModelDef{}
	m.Span = span(start)
	nameTok, ok := p.expect(token.Ident, "model definition")
	if !ok {
		p.resync()
		return nil
	}
	m.Name = nameTok.Lexeme
	if _, ok := p.expect(token.Colon, "model definition"); !ok {
		p.resync()
		return m
	}
	p.skipNewlines()
	if !p.accept(token.Indent) {
		return m
	}
	for !p.atBlockEnd() {
		if !p.at(token.KwField) {
			p.errHere("expected 'field' in model body, got %s", p.cur().Kind)
			p.resync()
			continue
		}
		if f := p.parseField(); f != nil {
			m.Fields = append(m.Fields, f)
		}
	}
	return m
}

func (p *Parser) parseInvariants() []string {
	p.advance() // invariants
	var out []string
	if _, ok := p.expect(token.Colon, "invariants block"); !ok {
		p.resync()
		return out
	}
	p.skipNewlines()
	if !p.accept(token.Indent) {
		return out
	}
	for !p.atBlockEnd() {
		if !p.accept(token.KwInvariant) {
			p.errHere("expected 'invariant' in invariants block, got %s", p.cur().Kind)
			p.resync()
			continue
		}
		if t, ok := p.expect(token.String, "invariant"); ok {
			out = append(out, t.Lexeme)
		} else {
			p.resync()
		}
	}
	return out
}

func (p *Parser) parseModule() *ast.ModuleDecl {
	start := p.advance() // module
	decl := &ast.ModuleDecl{}
	decl.Span = span(start)
	if t, ok := p.expect(token.Ident, "module declaration"); ok {
		decl.Name = t.Lexeme
	}
	if _, hasBody := p.header("module declaration", token.Error); !hasBody {
		return decl
	}
	for !p.atBlockEnd() {
		switch p.cur().Kind {
		case token.KwDoc:
			decl.Doc = p.parseScalarAssign("module doc")
		case token.KwOwns:
			decl.Owns = p.parseStringListAssign("owns")
		case token.KwRequires:
			decl.Requires = p.parseRefListAssign("requires")
		case token.KwImplements:
			decl.Implements = p.parseRefListAssign("implements")
		case token.KwExports:
			decl.Exports = p.parseRefListAssign("exports")
		case token.KwArtifacts:
			decl.Artifacts = p.parseStringListAssign("artifacts")
		case token.KwAPI:
			decl.API = p.parseAPI()
		case token.KwInvariants:
			decl.Invariants = append(decl.Invariants, p.parseInvariants()...)
		case token.KwAcceptance:
			decl.Acceptance = append(decl.Acceptance, p.parseAcceptance()...)
		case token.KwConfig:
			decl.Config = p.parseConfig()
		default:
			p.errHere("unexpected %s in module body", p.cur().Kind)
			p.resync()
		}
	}
	return decl
}

func (p *Parser) parseAcceptance() []string {
	p.advance() // acceptance
	var out []string
	if _, ok := p.expect(token.Colon, "acceptance block"); !ok {
		p.resync()
		return out
	}
	p.skipNewlines()
	if !p.accept(token.Indent) {
		return out
	}
	for !p.atBlockEnd() {
		if !p.accept(token.KwTest) {
			p.errHere("expected 'test' in acceptance block, got %s", p.cur().Kind)
			p.resync()
			continue
		}
		if t, ok := p.expect(token.String, "acceptance test"); ok {
			out = append(out, t.Lexeme)
		} else {
			p.resync()
		}
	}
	return out
}

func (p *Parser) parseConfig() []ast.StackEntry {
	p.advance() // config
	var entries []ast.StackEntry
	if _, ok := p.expect(token.Colon, "config block"); !ok {
		p.resync()
		return entries
	}
	p.skipNewlines()
	if !p.accept(token.Indent) {
		return entries
	}
	for !p.atBlockEnd() {
		t := p.cur()
		if t.Kind != token.Ident && !t.Kind.IsKeyword() {
			p.errHere("unexpected %s in config block", t.Kind)
			p.resync()
			continue
		}
		p.advance()
		if _, ok := p.expect(token.Equals, "config entry"); !ok {
			p.resync()
			continue
		}
		v := p.cur()
		switch v.Kind {
		case token.String, token.Int, token.Float, token.Ident:
			p.advance()
			entries = append(entries, ast.StackEntry{Key: t.Lexeme, Value: v.Lexeme, Span: span(t)})
		default:
			p.errHere("expected scalar config value, got %s", v.Kind)
			p.resync()
		}
	}
	return entries
}

func (p *Parser) parseAPI() *ast.APIBlock {
	start := p.advance() // api
	block := &ast.APIBlock{}
	block.Span = span(start)
	if _, ok := p.expect(token.Colon, "api block"); !ok {
		p.resync()
		return block
	}
	p.skipNewlines()
	if !p.accept(token.Indent) {
		return block
	}
	for !p.atBlockEnd() {
		switch p.cur().Kind {
		case token.KwEndpoint:
			if e := p.parseEndpoint("endpoint"); e != nil {
				block.Endpoints = append(block.Endpoints, e)
			}
		case token.KwModel:
			if m := p.parseModel(); m != nil {
				block.Models = append(block.Models, m)
			}
		case token.KwMethod:
			if m := p.parseMethod(false); m != nil {
				block.Methods = append(block.Methods, m)
			}
		case token.Ident:
			// websocket and command routes share the endpoint shape but are
			// not reserved words.
			switch p.cur().Lexeme {
			case "websocket":
				if e := p.parseEndpoint("websocket"); e != nil {
					block.WebSockets = append(block.WebSockets, e)
				}
			case "command":
				if e := p.parseEndpoint("command"); e != nil {
					block.Commands = append(block.Commands, e)
				}
			default:
				p.errHere("unexpected %q in api block", p.cur().Lexeme)
				p.resync()
			}
		default:
			p.errHere("unexpected %s in api block", p.cur().Kind)
			p.resync()
		}
	}
	return block
}

// parseEndpoint handles `endpoint "VERB /path" -> Type [status]`. The verb
// and path are split out of the quoted route; a trailing integer is recorded
// as the status code without interpretation.
func (p *Parser) parseEndpoint(context string) *ast.EndpointDef {
	start := p.advance() // endpoint / websocket / command
	e := &ast.EndpointDef{}
	e.Span = span(start)
	routeTok, ok := p.expect(token.String, context)
	if !ok {
		p.resync()
		return nil
	}
	verb, path, found := strings.Cut(routeTok.Lexeme, " ")
	if found {
		e.Verb = verb
		e.Path = strings.TrimSpace(path)
	} else if context == "endpoint" {
		p.reporter.Errorf(routeTok.Line, routeTok.Column, "malformed endpoint route %q: expected \"VERB /path\"", routeTok.Lexeme)
		e.Path = routeTok.Lexeme
	} else {
		e.Path = routeTok.Lexeme
	}
	if _, ok := p.expect(token.Arrow, context); !ok {
		p.resync()
		return e
	}
	e.Return = p.parseTypeRef()
	if p.at(token.Int) {
		t := p.advance()
		e.Status, _ = strconv.Atoi(t.Lexeme)
	}
	return e
}

func (p *Parser) parsePolicy() *ast.PolicyDecl {
	start := p.advance() // policy
	decl := &ast.PolicyDecl{}
	decl.Span = span(start)
	if t, ok := p.expect(token.Ident, "policy declaration"); ok {
		decl.Name = t.Lexeme
	}
	if _, hasBody := p.header("policy declaration", token.Error); !hasBody {
		return decl
	}
	p.parseRules(decl)
	return decl
}

// parseRules consumes `rule "text" severity = level` lines until the block
// closes. Any identifier is accepted as the level; membership in the closed
// severity set is the analyzer's concern.
func (p *Parser) parseRules(decl *ast.PolicyDecl) {
	for !p.atBlockEnd() {
		if !p.at(token.KwRule) {
			p.errHere("unexpected %s in policy body", p.cur().Kind)
			p.resync()
			continue
		}
		start := p.advance()
		rule := &ast.Rule{}
		rule.Span = span(start)
		textTok, ok := p.expect(token.String, "rule")
		if !ok {
			p.resync()
			continue
		}
		rule.Text = textTok.Lexeme
		if _, ok := p.expect(token.KwSeverity, "rule"); !ok {
			p.resync()
			continue
		}
		if _, ok := p.expect(token.Equals, "rule severity"); !ok {
			p.resync()
			continue
		}
		sevTok := p.cur()
		if sevTok.Kind != token.Ident && !sevTok.Kind.IsKeyword() {
			p.errHere("expected severity level, got %s", sevTok.Kind)
			p.resync()
			continue
		}
		p.advance()
		rule.Severity = sevTok.Lexeme
		decl.Rules = append(decl.Rules, rule)
	}
}

func (p *Parser) parsePipeline() *ast.PipelineDecl {
	start := p.advance() // pipeline
	decl := &ast.PipelineDecl{}
	decl.Span = span(start)
	if t, ok := p.expect(token.String, "pipeline declaration"); ok {
		decl.Name = t.Lexeme
	}
	if _, hasBody := p.header("pipeline declaration", token.Error); !hasBody {
		return decl
	}
	for !p.atBlockEnd() {
		if !p.at(token.KwStep) {
			p.errHere("unexpected %s in pipeline body", p.cur().Kind)
			p.resync()
			continue
		}
		decl.Steps = append(decl.Steps, p.parseStep())
	}
	return decl
}

func (p *Parser) parseStep() *ast.StepDecl {
	start := p.advance() // step
	step := &ast.StepDecl{}
	step.Span = span(start)
	if t, ok := p.expect(token.Ident, "step declaration"); ok {
		step.Name = t.Lexeme
	}
	if _, hasBody := p.header("step declaration", token.Error); !hasBody {
		return step
	}
	for !p.atBlockEnd() {
		switch p.cur().Kind {
		case token.KwModules:
			step.Modules = p.parseRefListAssign("step modules")
		case token.KwOutput:
			p.advance()
			if _, ok := p.expect(token.Equals, "step output"); !ok {
				p.resync()
				continue
			}
			v := p.cur()
			if v.Kind == token.Ident || v.Kind == token.String || v.Kind.IsKeyword() {
				p.advance()
				step.Output = v.Lexeme
			} else {
				p.errHere("expected output kind, got %s", v.Kind)
				p.resync()
			}
		case token.KwRequire:
			step.Require = p.parseScalarAssign("step require")
		case token.KwGate:
			step.Gate = p.parseScalarAssign("step gate")
		default:
			p.errHere("unexpected %s in step body", p.cur().Kind)
			p.resync()
		}
	}
	return step
}

// parseStringListAssign handles `key = ["a", "b"]`, tolerating line breaks
// inside the brackets.
func (p *Parser) parseStringListAssign(context string) []string {
	p.advance() // key
	if _, ok := p.expect(token.Equals, context); !ok {
		p.resync()
		return nil
	}
	return p.parseStringList(context)
}

func (p *Parser) parseStringList(context string) []string {
	p.skipBracketLayout()
	if _, ok := p.expect(token.LBracket, context); !ok {
		p.resync()
		return nil
	}
	var out []string
	p.skipBracketLayout()
	if !p.at(token.RBracket) {
		for {
			p.skipBracketLayout()
			if p.at(token.RBracket) {
				break // trailing comma
			}
			t, ok := p.expect(token.String, context)
			if !ok {
				p.resync()
				return out
			}
			out = append(out, t.Lexeme)
			p.skipBracketLayout()
			if !p.accept(token.Comma) {
				break
			}
		}
	}
	p.skipBracketLayout()
	p.expect(token.RBracket, context)
	return out
}

// parseRefListAssign handles `key = [Name, "Other"]`; both identifiers and
// quoted names are accepted as references.
func (p *Parser) parseRefListAssign(context string) []ast.Ref {
	p.advance() // key
	if _, ok := p.expect(token.Equals, context); !ok {
		p.resync()
		return nil
	}
	p.skipBracketLayout()
	if _, ok := p.expect(token.LBracket, context); !ok {
		p.resync()
		return nil
	}
	var out []ast.Ref
	p.skipBracketLayout()
	if !p.at(token.RBracket) {
		for {
			p.skipBracketLayout()
			if p.at(token.RBracket) {
				break // trailing comma
			}
			t := p.cur()
			if t.Kind != token.Ident && t.Kind != token.String {
				p.errHere("expected name in %s list, got %s", context, t.Kind)
				p.resync()
				return out
			}
			p.advance()
			out = append(out, ast.Ref{Name: t.Lexeme, Span: span(t)})
			p.skipBracketLayout()
			if !p.accept(token.Comma) {
				break
			}
		}
	}
	p.skipBracketLayout()
	p.expect(token.RBracket, context)
	return out
}

// skipBracketLayout discards layout tokens inside bracketed lists, where the
// lexer's line-oriented INDENT/DEDENT synthesis has no meaning.
func (p *Parser) skipBracketLayout() {
	for {
		switch p.cur().Kind {
		case token.Newline, token.Indent, token.Dedent:
			p.advance()
		default:
			return
		}
	}
}
