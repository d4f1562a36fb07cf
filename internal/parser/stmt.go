package parser

import (
	"fmt"

	"github.com/rcc-lang/rcc/internal/atom"
	"github.com/rcc-lang/rcc/internal/token"
)

// parseCompoundStatement parses a "{ ... }" block, entering its own
// variable scope and chaining its statements with AndThen.
func (p *Parser) parseCompoundStatement() (atom.Index, error) {
	if _, err := p.must(token.LBrace, "'{'"); err != nil {
		return 0, err
	}
	p.Vars.EnterFrame()
	defer p.Vars.ExitFrame()

	var chain atom.Index
	for !p.expect(token.RBrace) {
		s, err := p.parseStatement()
		if err != nil {
			return 0, err
		}
		chain, err = p.chainStatement(chain, s)
		if err != nil {
			return 0, err
		}
	}
	if chain == 0 {
		return p.alloc1(atom.Atom{Op: atom.Nop})
	}
	return chain, nil
}

func (p *Parser) parseStatement() (atom.Index, error) {
	switch {
	case p.at(token.LBrace):
		return p.parseCompoundStatement()
	case p.expect(token.Semi):
		return p.alloc1(atom.Atom{Op: atom.Nop})
	case p.expect(token.KwIf):
		return p.parseIf()
	case p.expect(token.KwFor):
		return p.parseFor()
	case p.expect(token.KwWhile):
		return p.parseWhile()
	case p.expect(token.KwDo):
		return p.parseDoWhile()
	case p.expect(token.KwSwitch):
		return p.parseSwitch()
	case p.expect(token.KwCase):
		return p.parseCase()
	case p.expect(token.KwDefault):
		return p.parseDefault()
	case p.expect(token.KwBreak):
		if _, err := p.must(token.Semi, "';'"); err != nil {
			return 0, err
		}
		return p.parseBreak()
	case p.expect(token.KwContinue):
		if _, err := p.must(token.Semi, "';'"); err != nil {
			return 0, err
		}
		return p.parseContinue()
	case p.expect(token.KwReturn):
		return p.parseReturn()
	case p.isDeclStart():
		isExtern := p.expect(token.KwExtern)
		base, _, err := p.parseDeclSpec()
		if err != nil {
			return 0, err
		}
		return p.parseLocalDecl(base, isExtern)
	default:
		e, err := p.parseExprSequence()
		if err != nil {
			return 0, err
		}
		if _, err := p.must(token.Semi, "';'"); err != nil {
			return 0, err
		}
		return p.alloc1(atom.Atom{Op: atom.ExprStatement, Ref: e})
	}
}

func (p *Parser) isDeclStart() bool {
	switch p.cur().Kind {
	case token.KwExtern, token.KwVoid, token.KwChar, token.KwInt, token.KwLong, token.KwStruct, token.KwUnion, token.KwEnum:
		return true
	case token.IDENT:
		_, ok := p.Types.FindType(p.cur().Text)
		return ok
	default:
		return false
	}
}

func (p *Parser) parseIf() (atom.Index, error) {
	if _, err := p.must(token.LParen, "'('"); err != nil {
		return 0, err
	}
	cond, err := p.parseExprSequence()
	if err != nil {
		return 0, err
	}
	if _, err := p.must(token.RParen, "')'"); err != nil {
		return 0, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return 0, err
	}
	var els atom.Index
	if p.expect(token.KwElse) {
		els, err = p.parseStatement()
		if err != nil {
			return 0, err
		}
	}
	head, err := p.Atoms.Alloc(3)
	if err != nil {
		return 0, err
	}
	*p.Atoms.Get(head) = atom.Atom{Op: atom.If, Ref: p.Atoms.AtomToRvalue(cond)}
	*p.Atoms.Get(head + 1) = atom.Atom{Op: atom.Arg, Ref: then}
	*p.Atoms.Get(head + 2) = atom.Atom{Op: atom.Arg, Ref: els}
	return head, nil
}

func (p *Parser) parseFor() (atom.Index, error) {
	if _, err := p.must(token.LParen, "'('"); err != nil {
		return 0, err
	}
	p.Vars.EnterFrame()
	defer p.Vars.ExitFrame()
	var init atom.Index
	if p.isDeclStart() {
		isExtern := p.expect(token.KwExtern)
		base, _, err := p.parseDeclSpec()
		if err != nil {
			return 0, err
		}
		// parseLocalDecl consumes the terminating ';'
		if init, err = p.parseLocalDecl(base, isExtern); err != nil {
			return 0, err
		}
	} else {
		if !p.at(token.Semi) {
			var err error
			init, err = p.parseExprSequence()
			if err != nil {
				return 0, err
			}
		}
		if _, err := p.must(token.Semi, "';'"); err != nil {
			return 0, err
		}
	}
	cond := atom.Index(0)
	if !p.at(token.Semi) {
		var err error
		cond, err = p.parseExprSequence()
		if err != nil {
			return 0, err
		}
	} else {
		intType, _ := p.Types.FindType("int")
		var err error
		cond, err = p.alloc1(atom.Atom{Op: atom.IntegerLit, Type: intType, IntVal: 1})
		if err != nil {
			return 0, err
		}
	}
	if _, err := p.must(token.Semi, "';'"); err != nil {
		return 0, err
	}
	var post atom.Index
	if !p.at(token.RParen) {
		var err error
		post, err = p.parseExprSequence()
		if err != nil {
			return 0, err
		}
	}
	if _, err := p.must(token.RParen, "')'"); err != nil {
		return 0, err
	}

	p.loopCtx = append(p.loopCtx, loopLabels{})
	body, err := p.parseStatement()
	p.loopCtx = p.loopCtx[:len(p.loopCtx)-1]
	if err != nil {
		return 0, err
	}

	head, err := p.Atoms.Alloc(4)
	if err != nil {
		return 0, err
	}
	*p.Atoms.Get(head) = atom.Atom{Op: atom.For, Ref: p.Atoms.AtomToRvalue(cond)}
	*p.Atoms.Get(head + 1) = atom.Atom{Op: atom.Arg, Ref: body}
	*p.Atoms.Get(head + 2) = atom.Atom{Op: atom.Arg, Ref: init}
	*p.Atoms.Get(head + 3) = atom.Atom{Op: atom.Arg, Ref: post}
	return head, nil
}

func (p *Parser) parseWhile() (atom.Index, error) {
	if _, err := p.must(token.LParen, "'('"); err != nil {
		return 0, err
	}
	cond, err := p.parseExprSequence()
	if err != nil {
		return 0, err
	}
	if _, err := p.must(token.RParen, "')'"); err != nil {
		return 0, err
	}
	p.loopCtx = append(p.loopCtx, loopLabels{})
	body, err := p.parseStatement()
	p.loopCtx = p.loopCtx[:len(p.loopCtx)-1]
	if err != nil {
		return 0, err
	}
	head, err := p.Atoms.Alloc(2)
	if err != nil {
		return 0, err
	}
	*p.Atoms.Get(head) = atom.Atom{Op: atom.While, Ref: p.Atoms.AtomToRvalue(cond)}
	*p.Atoms.Get(head + 1) = atom.Atom{Op: atom.Arg, Ref: body}
	return head, nil
}

func (p *Parser) parseDoWhile() (atom.Index, error) {
	p.loopCtx = append(p.loopCtx, loopLabels{})
	body, err := p.parseStatement()
	p.loopCtx = p.loopCtx[:len(p.loopCtx)-1]
	if err != nil {
		return 0, err
	}
	if _, err := p.must(token.KwWhile, "'while'"); err != nil {
		return 0, err
	}
	if _, err := p.must(token.LParen, "'('"); err != nil {
		return 0, err
	}
	cond, err := p.parseExprSequence()
	if err != nil {
		return 0, err
	}
	if _, err := p.must(token.RParen, "')'"); err != nil {
		return 0, err
	}
	if _, err := p.must(token.Semi, "';'"); err != nil {
		return 0, err
	}
	head, err := p.Atoms.Alloc(2)
	if err != nil {
		return 0, err
	}
	*p.Atoms.Get(head) = atom.Atom{Op: atom.DoWhile, Ref: body}
	*p.Atoms.Get(head + 1) = atom.Atom{Op: atom.Arg, Ref: p.Atoms.AtomToRvalue(cond)}
	return head, nil
}

func (p *Parser) parseSwitch() (atom.Index, error) {
	if _, err := p.must(token.LParen, "'('"); err != nil {
		return 0, err
	}
	scrutinee, err := p.parseExprSequence()
	if err != nil {
		return 0, err
	}
	if _, err := p.must(token.RParen, "')'"); err != nil {
		return 0, err
	}

	p.switchCtx = append(p.switchCtx, switchLabels{})
	body, err := p.parseStatement()
	p.switchCtx = p.switchCtx[:len(p.switchCtx)-1]
	if err != nil {
		return 0, err
	}

	head, err := p.Atoms.Alloc(2)
	if err != nil {
		return 0, err
	}
	*p.Atoms.Get(head) = atom.Atom{Op: atom.Switch, Ref: p.Atoms.AtomToRvalue(scrutinee)}
	*p.Atoms.Get(head + 1) = atom.Atom{Op: atom.Arg, Ref: body}
	return head, nil
}

func (p *Parser) parseCase() (atom.Index, error) {
	if len(p.switchCtx) == 0 {
		return 0, fmt.Errorf("parser: %s: 'case' outside of a switch", p.cur().Pos)
	}
	val, err := p.parseConstInt()
	if err != nil {
		return 0, err
	}
	if _, err := p.must(token.Colon, "':'"); err != nil {
		return 0, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return 0, err
	}
	intType, _ := p.Types.FindType("int")
	valAtom, err := p.alloc1(atom.Atom{Op: atom.IntegerLit, Type: intType, IntVal: int32(val)})
	if err != nil {
		return 0, err
	}
	head, err := p.Atoms.Alloc(2)
	if err != nil {
		return 0, err
	}
	*p.Atoms.Get(head) = atom.Atom{Op: atom.Case, Ref: valAtom}
	*p.Atoms.Get(head + 1) = atom.Atom{Op: atom.Arg, Ref: body}
	return head, nil
}

func (p *Parser) parseDefault() (atom.Index, error) {
	if len(p.switchCtx) == 0 {
		return 0, fmt.Errorf("parser: %s: 'default' outside of a switch", p.cur().Pos)
	}
	if _, err := p.must(token.Colon, "':'"); err != nil {
		return 0, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return 0, err
	}
	return p.alloc1(atom.Atom{Op: atom.Default, Ref: body})
}

func (p *Parser) parseBreak() (atom.Index, error) {
	if len(p.loopCtx) == 0 && len(p.switchCtx) == 0 {
		return 0, fmt.Errorf("parser: %s: 'break' outside of a loop or switch", p.cur().Pos)
	}
	return p.alloc1(atom.Atom{Op: atom.Break})
}

func (p *Parser) parseContinue() (atom.Index, error) {
	if len(p.loopCtx) == 0 {
		return 0, fmt.Errorf("parser: %s: 'continue' outside of a loop", p.cur().Pos)
	}
	return p.alloc1(atom.Atom{Op: atom.Continue})
}

func (p *Parser) parseReturn() (atom.Index, error) {
	if p.expect(token.Semi) {
		return p.alloc1(atom.Atom{Op: atom.Return})
	}
	e, err := p.parseExprSequence()
	if err != nil {
		return 0, err
	}
	if _, err := p.must(token.Semi, "';'"); err != nil {
		return 0, err
	}
	return p.alloc1(atom.Atom{Op: atom.Return, Ref: p.Atoms.AtomToRvalue(e)})
}
