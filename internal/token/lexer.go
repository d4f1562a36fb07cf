package token

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rcc-lang/rcc/internal/macro"
	"github.com/rcc-lang/rcc/internal/source"
	"github.com/rcc-lang/rcc/internal/strpool"
)

// Includer resolves an #include target to its body bytes, owned by the
// caller (internal/compiler wires this to a filesystem search over its
// include directories, unless WithIncluder supplies another).
type Includer func(name string, angled bool) (body []byte, resolvedName string, err error)

// Lexer drives tokenization of one translation unit's full #include and
// macro-expansion closure into a flat token slice.
type Lexer struct {
	Src     *source.Stack
	Macros  *macro.Table
	Exp     *macro.Expander
	Strings *strpool.Strings
	Include Includer

	condStack []condFrame
	Tokens    []Token
}

type condFrame struct {
	taken    bool // this branch (if/ifdef) or an already-taken earlier branch
	elseSeen bool
}

// NewLexer constructs a Lexer over an already-initialized source stack.
func NewLexer(src *source.Stack, macros *macro.Table, exp *macro.Expander, strs *strpool.Strings, inc Includer) *Lexer {
	return &Lexer{Src: src, Macros: macros, Exp: exp, Strings: strs, Include: inc}
}

// Tokenize consumes the current top source frame (and anything it
// transitively #includes or macro-expands) to EOF, appending to l.Tokens.
func (l *Lexer) Tokenize() error {
	for {
		l.skip()
		b := l.Src.Byte()
		if b < 0 {
			if l.Src.Depth() > 1 {
				return l.Src.Exit()
			}
			return nil
		}

		if b == '#' {
			if err := l.directive(); err != nil {
				return err
			}
			continue
		}

		l.Src.SnapshotPos()
		pos := l.Src.PrevPos()

		switch {
		case isAlpha(b):
			name := l.scanIdent()
			if kw, ok := keywords[name]; ok {
				l.emit(Token{Kind: kw, Text: name, Pos: pos})
				continue
			}
			if m, ok := l.Macros.Find(name); ok && !l.Exp.InExpansion(name) {
				if err := l.expand(name, m); err != nil {
					return err
				}
				continue
			}
			l.emit(Token{Kind: IDENT, Text: name, Pos: pos})

		case isDigit(b):
			tok, err := l.scanNumber(pos)
			if err != nil {
				return err
			}
			l.emit(tok)

		case b == '\'':
			tok, err := l.scanChar(pos)
			if err != nil {
				return err
			}
			l.emit(tok)

		case b == '"':
			tok, err := l.scanString(pos)
			if err != nil {
				return err
			}
			l.emit(tok)

		default:
			tok, ok := l.scanOperator(pos)
			if !ok {
				return fmt.Errorf("token: %s: unrecognized character %q", l.Src.PosString(pos), rune(b))
			}
			if tok.Kind == TokenHash2 {
				if err := l.pasteLastTwo(); err != nil {
					return err
				}
				continue
			}
			l.emit(tok)
		}
	}
}

// TokenHash2 is a synthetic kind used only internally to signal a ## paste.
const TokenHash2 Kind = -1

func (l *Lexer) emit(t Token) { l.Tokens = append(l.Tokens, t) }

func (l *Lexer) skip() {
	for {
		b := l.Src.Byte()
		switch {
		case b < 0:
			return
		case isSpace(b):
			l.Src.Next()
		case b == '/' && l.peek(1) == '/':
			for l.Src.Byte() >= 0 && l.Src.Byte() != '\n' {
				l.Src.Next()
			}
		case b == '/' && l.peek(1) == '*':
			l.Src.Next()
			l.Src.Next()
			for l.Src.Byte() >= 0 && !(l.Src.Byte() == '*' && l.peek(1) == '/') {
				l.Src.Next()
			}
			l.Src.Next()
			l.Src.Next()
		default:
			return
		}
	}
}

// peek looks n bytes ahead without consuming, by scanning the frame's raw
// buffer directly (the Stack exposes only the current byte, so the lexer
// reaches into the frame the same way the teacher's scan() does).
func (l *Lexer) peek(n int) int {
	f := l.Src.Current()
	if f == nil || f.Pos+n >= f.End {
		return -1
	}
	return int(f.Buf.Body[f.Pos+n])
}

func (l *Lexer) scanIdent() string {
	var sb strings.Builder
	for isAlnum(l.Src.Byte()) {
		sb.WriteByte(byte(l.Src.Byte()))
		l.Src.Next()
	}
	return sb.String()
}

func (l *Lexer) scanNumber(pos source.Pos) (Token, error) {
	var sb strings.Builder
	base := 10
	if l.Src.Byte() == '0' {
		sb.WriteByte('0')
		l.Src.Next()
		if l.Src.Byte() == 'x' || l.Src.Byte() == 'X' {
			base = 16
			sb.WriteByte(byte(l.Src.Byte()))
			l.Src.Next()
		} else if isDigit(l.Src.Byte()) {
			base = 8
		}
	}
	for isAlnum(l.Src.Byte()) {
		sb.WriteByte(byte(l.Src.Byte()))
		l.Src.Next()
	}
	text := sb.String()
	isLong := false
	digits := text
	if base == 16 {
		digits = text[2:]
	}
	for strings.HasSuffix(digits, "l") || strings.HasSuffix(digits, "L") {
		isLong = true
		digits = digits[:len(digits)-1]
	}
	parseBase := base
	prefix := ""
	if base == 16 {
		prefix = digits
	} else {
		prefix = digits
	}
	v, err := strconv.ParseInt(prefix, parseBase, 64)
	if err != nil {
		return Token{}, fmt.Errorf("token: %s: invalid numeric literal %q", l.Src.PosString(pos), text)
	}
	if !isLong && (v > 1<<31-1 || v < -(1<<31)) {
		isLong = true
	}
	if isLong {
		return Token{Kind: LONG, Text: text, LongVal: v, Pos: pos}, nil
	}
	return Token{Kind: INT, Text: text, IntVal: int32(v), Pos: pos}, nil
}

func (l *Lexer) scanEscape() (byte, error) {
	l.Src.Next() // consume backslash
	b := l.Src.Byte()
	l.Src.Next()
	switch b {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case '\\':
		return '\\', nil
	case '\'':
		return '\'', nil
	case '"':
		return '"', nil
	default:
		return byte(b), nil
	}
}

func (l *Lexer) scanChar(pos source.Pos) (Token, error) {
	l.Src.Next() // opening '
	var v byte
	if l.Src.Byte() == '\\' {
		c, err := l.scanEscape()
		if err != nil {
			return Token{}, err
		}
		v = c
	} else {
		v = byte(l.Src.Byte())
		l.Src.Next()
	}
	if l.Src.Byte() != '\'' {
		return Token{}, fmt.Errorf("token: %s: unterminated char literal", l.Src.PosString(pos))
	}
	l.Src.Next()
	return Token{Kind: CHAR, CharVal: v, Pos: pos}, nil
}

func (l *Lexer) scanString(pos source.Pos) (Token, error) {
	l.Src.Next() // opening "
	var sb strings.Builder
	for {
		b := l.Src.Byte()
		if b < 0 {
			return Token{}, fmt.Errorf("token: %s: unterminated string literal", l.Src.PosString(pos))
		}
		if b == '"' {
			l.Src.Next()
			break
		}
		if b == '\\' {
			c, err := l.scanEscape()
			if err != nil {
				return Token{}, err
			}
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte(byte(b))
		l.Src.Next()
	}
	s := sb.String()
	return Token{Kind: STRING, StrVal: s, Text: s, Pos: pos}, nil
}

func (l *Lexer) scanOperator(pos source.Pos) (Token, bool) {
	if l.Src.Byte() == '#' && l.peek(1) == '#' {
		l.Src.Next()
		l.Src.Next()
		return Token{Kind: TokenHash2, Pos: pos}, true
	}
	for _, op := range operators {
		if l.matches(op.text) {
			for range op.text {
				l.Src.Next()
			}
			return Token{Kind: op.kind, Text: op.text, Pos: pos}, true
		}
	}
	return Token{}, false
}

func (l *Lexer) matches(text string) bool {
	f := l.Src.Current()
	if f == nil || f.Pos+len(text) > f.End {
		return false
	}
	return string(f.Buf.Body[f.Pos:f.Pos+len(text)]) == text
}

// pasteLastTwo implements ## token concatenation: the token emitted just
// before the ## is removed, the single token after it is scanned, their
// source text is concatenated, and the result is re-tokenized over a
// synthetic buffer.
func (l *Lexer) pasteLastTwo() error {
	if len(l.Tokens) == 0 {
		return fmt.Errorf("token: ## with no preceding token")
	}
	lhs := l.Tokens[len(l.Tokens)-1]
	l.Tokens = l.Tokens[:len(l.Tokens)-1]

	l.skip()
	l.Src.SnapshotPos()
	savedTokens := l.Tokens
	l.Tokens = nil
	if err := l.tokenizeOne(); err != nil {
		return err
	}
	if len(l.Tokens) != 1 {
		return fmt.Errorf("token: ## right-hand side must be a single token")
	}
	rhs := l.Tokens[0]
	l.Tokens = savedTokens

	pasted := lhs.Text + rhs.Text
	id, err := l.Src.Enter("<paste>", []byte(pasted))
	if err != nil {
		return err
	}
	defer l.Src.Exit()
	l.skip()
	if err := l.tokenizeOne(); err != nil {
		return err
	}
	_ = id
	return nil
}

// tokenizeOne scans exactly one token (assuming whitespace has already
// been skipped) and appends it to l.Tokens, for use by ## paste handling
// where a single-shot scan is needed rather than the full loop.
func (l *Lexer) tokenizeOne() error {
	b := l.Src.Byte()
	if b < 0 {
		return fmt.Errorf("token: expected a token, got EOF")
	}
	l.Src.SnapshotPos()
	pos := l.Src.PrevPos()
	switch {
	case isAlpha(b):
		l.emit(Token{Kind: IDENT, Text: l.scanIdent(), Pos: pos})
	case isDigit(b):
		t, err := l.scanNumber(pos)
		if err != nil {
			return err
		}
		l.emit(t)
	default:
		t, ok := l.scanOperator(pos)
		if !ok {
			return fmt.Errorf("token: %s: unrecognized character %q", l.Src.PosString(pos), rune(b))
		}
		l.emit(t)
	}
	return nil
}
