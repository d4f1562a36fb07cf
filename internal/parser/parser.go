// Package parser implements the recursive-descent IR builder: it consumes
// the token stream and lowers it into the atom pool, following the
// production cascade and precedence climbing of the original compiler's
// parser (parse_primary -> ... -> parse_expr_sequence) while additionally
// handling struct/union/switch/ternary/compound-assignment lowering.
package parser

import (
	"fmt"

	"github.com/rcc-lang/rcc/internal/atom"
	"github.com/rcc-lang/rcc/internal/funcs"
	"github.com/rcc-lang/rcc/internal/strpool"
	"github.com/rcc-lang/rcc/internal/token"
	"github.com/rcc-lang/rcc/internal/types"
	"github.com/rcc-lang/rcc/internal/vars"
)

// Parser walks a token slice, building IR in an atom.Pool and declaring
// types/variables/functions as it goes.
type Parser struct {
	toks []token.Token
	pos  int

	Atoms   *atom.Pool
	Types   *types.Registry
	Vars    *vars.Table
	Funcs   *funcs.Table
	Strings *strpool.Strings
	Arrays  *strpool.Arrays

	loopCtx   []loopLabels
	switchCtx []switchLabels
}

type loopLabels struct{ contTarget, breakTarget int }
type switchLabels struct{ breakTarget int }

// New constructs a Parser over a finished token stream, sharing the given
// symbol tables (already seeded with primitive types).
func New(toks []token.Token, atoms *atom.Pool, tys *types.Registry, vs *vars.Table, fs *funcs.Table, strs *strpool.Strings, arrs *strpool.Arrays) *Parser {
	return &Parser{toks: toks, Atoms: atoms, Types: tys, Vars: vs, Funcs: fs, Strings: strs, Arrays: arrs}
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// expect is the "try" form: on a match it advances and reports true,
// leaving the cursor untouched otherwise. Parser routines built on expect
// never return an error for "not present here" -- only must does.
func (p *Parser) expect(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// must is the fatal form: a missing expected token is a hard parse error.
func (p *Parser) must(k token.Kind, what string) (token.Token, error) {
	if !p.at(k) {
		return token.Token{}, fmt.Errorf("parser: %s: expected %s, got %q", p.cur().Pos, what, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) alloc1(a atom.Atom) (atom.Index, error) {
	i, err := p.Atoms.Alloc(1)
	if err != nil {
		return 0, err
	}
	*p.Atoms.Get(i) = a
	return i, nil
}

// Parse consumes the whole token stream as a translation unit: a sequence
// of type declarations, global variable declarations, and function
// prototypes/definitions.
func (p *Parser) Parse() error {
	for !p.at(token.EOF) {
		if err := p.parseTopLevel(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseTopLevel() error {
	switch {
	case p.expect(token.KwTypedef):
		return p.parseTypedef()
	case p.at(token.KwStruct), p.at(token.KwUnion), p.at(token.KwEnum):
		if err := p.parseTypeDecl(); err != nil {
			return err
		}
		return p.expectSemiOrFuncOrVar(nil)
	default:
		base, isExtern, err := p.parseDeclSpec()
		if err != nil {
			return err
		}
		return p.parseDeclaratorList(base, isExtern)
	}
}
