// Package token defines the token kinds produced by the SODL lexer.
//
// Positions are 1-based: the first character of a document is line 1,
// column 1. INDENT, DEDENT and NEWLINE are structural tokens synthesized
// from layout rather than scanned from characters.
package token

import "fmt"

type Kind int

const (
	// Error marks input the lexer could not tokenize. The lexeme holds the
	// offending text; a diagnostic with detail accompanies every Error token.
	Error Kind = iota
	EOF

	Ident
	String
	Int
	Float

	// Structural tokens synthesized from layout.
	Newline
	Indent
	Dedent

	// Operators and punctuation.
	Colon        // :
	Equals       // =
	Comma        // ,
	LBracket     // [
	RBracket     // ]
	LParen       // (
	RParen       // )
	Arrow        // ->
	PlusEquals   // +=
	MinusEquals  // -=
	Dot          // .
	Question     // ?

	// Keywords.
	KwSystem
	KwTemplate
	KwInterface
	KwModule
	KwPolicy
	KwPipeline
	KwExtends
	KwStack
	KwIntent
	KwPrimary
	KwOutcomes
	KwOutOfScope
	KwMethod
	KwField
	KwModel
	KwEndpoint
	KwOwns
	KwRequires
	KwImplements
	KwExports
	KwAPI
	KwInvariants
	KwInvariant
	KwAcceptance
	KwTest
	KwArtifacts
	KwConfig
	KwStep
	KwOutput
	KwRequire
	KwGate
	KwModules
	KwRule
	KwSeverity
	KwDoc
	KwVersion
	KwOverride
	KwAppend
	KwRemove
	KwReplace
	KwBlock
)

var kindNames = map[Kind]string{
	Error:       "ERROR",
	EOF:         "EOF",
	Ident:       "identifier",
	String:      "string",
	Int:         "integer",
	Float:       "float",
	Newline:     "NEWLINE",
	Indent:      "INDENT",
	Dedent:      "DEDENT",
	Colon:       "':'",
	Equals:      "'='",
	Comma:       "','",
	LBracket:    "'['",
	RBracket:    "']'",
	LParen:      "'('",
	RParen:      "')'",
	Arrow:       "'->'",
	PlusEquals:  "'+='",
	MinusEquals: "'-='",
	Dot:         "'.'",
	Question:    "'?'",
}

var keywords = map[string]Kind{
	"system":       KwSystem,
	"template":     KwTemplate,
	"interface":    KwInterface,
	"module":       KwModule,
	"policy":       KwPolicy,
	"pipeline":     KwPipeline,
	"extends":      KwExtends,
	"stack":        KwStack,
	"intent":       KwIntent,
	"primary":      KwPrimary,
	"outcomes":     KwOutcomes,
	"out_of_scope": KwOutOfScope,
	"method":       KwMethod,
	"field":        KwField,
	"model":        KwModel,
	"endpoint":     KwEndpoint,
	"owns":         KwOwns,
	"requires":     KwRequires,
	"implements":   KwImplements,
	"exports":      KwExports,
	"api":          KwAPI,
	"invariants":   KwInvariants,
	"invariant":    KwInvariant,
	"acceptance":   KwAcceptance,
	"test":         KwTest,
	"artifacts":    KwArtifacts,
	"config":       KwConfig,
	"step":         KwStep,
	"output":       KwOutput,
	"require":      KwRequire,
	"gate":         KwGate,
	"modules":      KwModules,
	"rule":         KwRule,
	"severity":     KwSeverity,
	"doc":          KwDoc,
	"version":      KwVersion,
	"override":     KwOverride,
	"append":       KwAppend,
	"remove":       KwRemove,
	"replace":      KwReplace,
	"block":        KwBlock,
}

// Lookup classifies an identifier, promoting it to a keyword kind when the
// spelling matches one.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Ident
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	for spelling, kw := range keywords {
		if kw == k {
			return fmt.Sprintf("'%s'", spelling)
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether the kind is a reserved word. Keywords double as
// field names in model bodies, so the parser needs the distinction.
func (k Kind) IsKeyword() bool {
	return k >= KwSystem
}

// Token is immutable once produced by the lexer.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Column int
}

func (t Token) String() string {
	if t.Lexeme == "" {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Lexeme)
}
