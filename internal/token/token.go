// Package token implements the tokenizer and preprocessor: macro-aware
// lexing driven by the directive set §4.4 names (#include, #define,
// #undef, #ifdef/#ifndef/#else/#endif, and ## token paste).
package token

import "github.com/rcc-lang/rcc/internal/source"

// Kind discriminates what a Token represents.
type Kind int

// The full token vocabulary: punctuation/operators in the priority order
// the lexer tries them, keywords, and the literal/identifier/EOF kinds.
const (
	EOF Kind = iota
	IDENT
	INT
	LONG
	CHAR
	STRING

	// keywords
	KwVoid
	KwChar
	KwInt
	KwLong
	KwStruct
	KwUnion
	KwEnum
	KwTypedef
	KwSizeof
	KwIf
	KwElse
	KwFor
	KwWhile
	KwDo
	KwSwitch
	KwCase
	KwDefault
	KwBreak
	KwContinue
	KwReturn
	KwExtern

	// multi-char operators, longest-match first
	Ellipsis   // ...
	ShiftLeftEq
	ShiftRightEq
	ShiftLeft
	ShiftRight
	EqEq
	NotEq
	LtEq
	GtEq
	AndAnd
	OrOr
	PlusPlus
	MinusMinus
	Arrow
	AddEq
	SubEq
	MulEq
	DivEq
	ModEq
	AndEq
	OrEq
	XorEq
	NotEq1 // ~=

	// single-char punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semi
	Comma
	Dot
	Amp
	Star
	Plus
	Minus
	Slash
	Percent
	Lt
	Gt
	Eq
	Bang
	Tilde
	Caret
	Pipe
	Question
	Colon
)

var keywords = map[string]Kind{
	"void": KwVoid, "char": KwChar, "int": KwInt, "long": KwLong,
	"struct": KwStruct, "union": KwUnion, "enum": KwEnum, "typedef": KwTypedef,
	"sizeof": KwSizeof, "if": KwIf, "else": KwElse, "for": KwFor,
	"while": KwWhile, "do": KwDo, "switch": KwSwitch, "case": KwCase,
	"default": KwDefault, "break": KwBreak, "continue": KwContinue,
	"return": KwReturn, "extern": KwExtern,
}

// longest-match-first operator table, mirroring token.c's dispatch order.
var operators = []struct {
	text string
	kind Kind
}{
	{"...", Ellipsis},
	{"<<=", ShiftLeftEq}, {">>=", ShiftRightEq},
	{"<<", ShiftLeft}, {">>", ShiftRight},
	{"==", EqEq}, {"!=", NotEq}, {"<=", LtEq}, {">=", GtEq},
	{"&&", AndAnd}, {"||", OrOr},
	{"++", PlusPlus}, {"--", MinusMinus}, {"->", Arrow},
	{"+=", AddEq}, {"-=", SubEq}, {"*=", MulEq}, {"/=", DivEq}, {"%=", ModEq},
	{"&=", AndEq}, {"|=", OrEq}, {"^=", XorEq}, {"~=", NotEq1},
	{"(", LParen}, {")", RParen}, {"{", LBrace}, {"}", RBrace},
	{"[", LBracket}, {"]", RBracket}, {";", Semi}, {",", Comma}, {".", Dot},
	{"&", Amp}, {"*", Star}, {"+", Plus}, {"-", Minus}, {"/", Slash},
	{"%", Percent}, {"<", Lt}, {">", Gt}, {"=", Eq}, {"!", Bang},
	{"~", Tilde}, {"^", Caret}, {"|", Pipe}, {"?", Question}, {":", Colon},
}

// Token is a single lexeme with its classification, literal payload, and
// diagnostic position.
type Token struct {
	Kind    Kind
	Text    string
	IntVal  int32
	LongVal int64
	CharVal byte
	StrVal  string
	Pos     source.Pos
}

func isAlpha(b int) bool { return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isDigit(b int) bool { return b >= '0' && b <= '9' }
func isAlnum(b int) bool { return isAlpha(b) || isDigit(b) }
func isSpace(b int) bool { return b == ' ' || b == '\t' || b == '\r' || b == '\n' }
