package parser

import (
	"fmt"

	"github.com/rcc-lang/rcc/internal/atom"
	"github.com/rcc-lang/rcc/internal/token"
	"github.com/rcc-lang/rcc/internal/types"
	"github.com/rcc-lang/rcc/internal/vars"
)

// parseExprSequence parses a comma-operator sequence of assignment
// expressions, the widest expression grammar (used by for-loop clauses).
func (p *Parser) parseExprSequence() (atom.Index, error) {
	e, err := p.parseAssignExpr()
	if err != nil {
		return 0, err
	}
	for p.expect(token.Comma) {
		rhs, err := p.parseAssignExpr()
		if err != nil {
			return 0, err
		}
		e, err = p.chainStatement(e, rhs)
		if err != nil {
			return 0, err
		}
	}
	return e, nil
}

var compoundOps = map[token.Kind]atom.Op{
	token.AddEq: atom.Add, token.SubEq: atom.Sub, token.MulEq: atom.Mul,
	token.DivEq: atom.Div, token.ModEq: atom.Mod, token.AndEq: atom.BitAnd,
	token.OrEq: atom.BitOr, token.XorEq: atom.BitXor,
	token.ShiftLeftEq: atom.Lshift, token.ShiftRightEq: atom.Rshift,
}

// parseAssignExpr handles plain and compound assignment, right-associative,
// sitting above the ternary level per the C grammar.
func (p *Parser) parseAssignExpr() (atom.Index, error) {
	lhs, err := p.parseTernary()
	if err != nil {
		return 0, err
	}
	if p.expect(token.Eq) {
		rhs, err := p.parseAssignExpr()
		if err != nil {
			return 0, err
		}
		return p.buildBindAuto(rhs, lhs)
	}
	if op, ok := compoundOps[p.cur().Kind]; ok {
		p.advance()
		rhs, err := p.parseAssignExpr()
		if err != nil {
			return 0, err
		}
		combined, err := p.binOp(op, p.Atoms.AtomToRvalue(lhs), p.Atoms.AtomToRvalue(rhs))
		if err != nil {
			return 0, err
		}
		return p.buildBindAuto(combined, lhs)
	}
	return lhs, nil
}

func (p *Parser) buildBindAuto(rvalue, lvalue atom.Index) (atom.Index, error) {
	return p.buildBind(rvalue, lvalue, p.Atoms.Get(lvalue).Type)
}

func (p *Parser) buildBind(rvalue, lvalue atom.Index, t *types.Type) (atom.Index, error) {
	head, err := p.Atoms.Alloc(2)
	if err != nil {
		return 0, err
	}
	*p.Atoms.Get(head) = atom.Atom{Op: atom.Bind, Type: t, Ref: p.Atoms.AtomToRvalue(rvalue)}
	*p.Atoms.Get(head + 1) = atom.Atom{Op: atom.Arg, Ref: lvalue}
	return head, nil
}

func (p *Parser) parseTernary() (atom.Index, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return 0, err
	}
	if !p.expect(token.Question) {
		return cond, nil
	}
	then, err := p.parseAssignExpr()
	if err != nil {
		return 0, err
	}
	if _, err := p.must(token.Colon, "':'"); err != nil {
		return 0, err
	}
	els, err := p.parseAssignExpr()
	if err != nil {
		return 0, err
	}
	head, err := p.Atoms.Alloc(3)
	if err != nil {
		return 0, err
	}
	*p.Atoms.Get(head) = atom.Atom{Op: atom.Ternary, Type: p.Atoms.Get(then).Type, Ref: p.Atoms.AtomToRvalue(cond)}
	*p.Atoms.Get(head + 1) = atom.Atom{Op: atom.Arg, Ref: p.Atoms.AtomToRvalue(then)}
	*p.Atoms.Get(head + 2) = atom.Atom{Op: atom.Arg, Ref: p.Atoms.AtomToRvalue(els)}
	return head, nil
}

func (p *Parser) binaryLevel(next func() (atom.Index, error), ops map[token.Kind]atom.Op) (atom.Index, error) {
	lhs, err := next()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := ops[p.cur().Kind]
		if !ok {
			return lhs, nil
		}
		p.advance()
		rhs, err := next()
		if err != nil {
			return 0, err
		}
		lhs, err = p.binOp(op, p.Atoms.AtomToRvalue(lhs), p.Atoms.AtomToRvalue(rhs))
		if err != nil {
			return 0, err
		}
	}
}

func (p *Parser) parseLogicalOr() (atom.Index, error) {
	return p.binaryLevel(p.parseLogicalAnd, map[token.Kind]atom.Op{token.OrOr: atom.LogOr})
}
func (p *Parser) parseLogicalAnd() (atom.Index, error) {
	return p.binaryLevel(p.parseBitOr, map[token.Kind]atom.Op{token.AndAnd: atom.LogAnd})
}
func (p *Parser) parseBitOr() (atom.Index, error) {
	return p.binaryLevel(p.parseBitXor, map[token.Kind]atom.Op{token.Pipe: atom.BitOr})
}
func (p *Parser) parseBitXor() (atom.Index, error) {
	return p.binaryLevel(p.parseBitAnd, map[token.Kind]atom.Op{token.Caret: atom.BitXor})
}
func (p *Parser) parseBitAnd() (atom.Index, error) {
	return p.binaryLevel(p.parseEquality, map[token.Kind]atom.Op{token.Amp: atom.BitAnd})
}
func (p *Parser) parseEquality() (atom.Index, error) {
	return p.binaryLevel(p.parseRelational, map[token.Kind]atom.Op{token.EqEq: atom.EqEq, token.NotEq: atom.EqNe})
}
func (p *Parser) parseRelational() (atom.Index, error) {
	return p.binaryLevel(p.parseShift, map[token.Kind]atom.Op{
		token.Lt: atom.EqLt, token.LtEq: atom.EqLe, token.Gt: atom.EqGt, token.GtEq: atom.EqGe,
	})
}
func (p *Parser) parseShift() (atom.Index, error) {
	return p.binaryLevel(p.parseAdditive, map[token.Kind]atom.Op{
		token.ShiftLeft: atom.Lshift, token.ShiftRight: atom.Rshift,
	})
}
func (p *Parser) parseAdditive() (atom.Index, error) {
	return p.binaryLevel(p.parseMultiplicative, map[token.Kind]atom.Op{token.Plus: atom.Add, token.Minus: atom.Sub})
}
func (p *Parser) parseMultiplicative() (atom.Index, error) {
	return p.binaryLevel(p.parseCast, map[token.Kind]atom.Op{
		token.Star: atom.Mul, token.Slash: atom.Div, token.Percent: atom.Mod,
	})
}

func (p *Parser) binOp(op atom.Op, lhs, rhs atom.Index) (atom.Index, error) {
	head, err := p.Atoms.Alloc(2)
	if err != nil {
		return 0, err
	}
	resultType := p.Atoms.Get(lhs).Type
	*p.Atoms.Get(head) = atom.Atom{Op: op, Type: resultType, Ref: lhs}
	*p.Atoms.Get(head + 1) = atom.Atom{Op: atom.Arg, Ref: rhs}
	return head, nil
}

func (p *Parser) parseCast() (atom.Index, error) {
	if p.at(token.LParen) && p.isTypeAhead(1) {
		save := p.pos
		p.advance()
		t, _, err := p.parseDeclSpec()
		if err == nil {
			t, _, derr := p.parseDeclarator(t)
			if derr == nil && p.expect(token.RParen) {
				inner, err := p.parseCast()
				if err != nil {
					return 0, err
				}
				i, err := p.alloc1(atom.Atom{Op: atom.Cast, Type: t, Ref: p.Atoms.AtomToRvalue(inner)})
				return i, err
			}
		}
		p.pos = save
	}
	return p.parseUnary()
}

func (p *Parser) isTypeAhead(offset int) bool {
	i := p.pos + offset
	if i >= len(p.toks) {
		return false
	}
	tk := p.toks[i]
	switch tk.Kind {
	case token.KwVoid, token.KwChar, token.KwInt, token.KwLong, token.KwStruct, token.KwUnion, token.KwEnum:
		return true
	case token.IDENT:
		_, ok := p.Types.FindType(tk.Text)
		return ok
	default:
		return false
	}
}

func (p *Parser) parseUnary() (atom.Index, error) {
	switch {
	case p.expect(token.Amp):
		operand, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		ot := p.Atoms.Get(operand).Type
		if ot.Kind == types.Array {
			ot = ot.PointsTo // array decay: &arr points at the element type
		}
		pt := p.Types.AddPointerType(ot)
		return p.alloc1(atom.Atom{Op: atom.Ptr, Type: pt, Ref: operand})
	case p.expect(token.Star):
		operand, err := p.parseCast()
		if err != nil {
			return 0, err
		}
		v := p.Atoms.AtomToRvalue(operand)
		pointee := pointeeOf(p.Atoms.Get(v).Type)
		return p.alloc1(atom.Atom{Op: atom.PtrDeref, Type: pointee, Ref: v})
	case p.expect(token.Minus):
		operand, err := p.parseCast()
		if err != nil {
			return 0, err
		}
		return p.alloc1(atom.Atom{Op: atom.Neg, Type: p.Atoms.Get(operand).Type, Ref: p.Atoms.AtomToRvalue(operand)})
	case p.expect(token.Bang):
		operand, err := p.parseCast()
		if err != nil {
			return 0, err
		}
		intType, _ := p.Types.FindType("int")
		return p.alloc1(atom.Atom{Op: atom.LogNot, Type: intType, Ref: p.Atoms.AtomToRvalue(operand)})
	case p.expect(token.Tilde):
		operand, err := p.parseCast()
		if err != nil {
			return 0, err
		}
		return p.alloc1(atom.Atom{Op: atom.BitNot, Type: p.Atoms.Get(operand).Type, Ref: p.Atoms.AtomToRvalue(operand)})
	case p.at(token.PlusPlus), p.at(token.MinusMinus):
		// prefix inc/dec: desugar to (x += 1) / (x -= 1)
		op := atom.Add
		if p.advance().Kind == token.MinusMinus {
			op = atom.Sub
		}
		lhs, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		one, err := p.alloc1(atom.Atom{Op: atom.IntegerLit, Type: p.Atoms.Get(lhs).Type, IntVal: 1})
		if err != nil {
			return 0, err
		}
		combined, err := p.binOp(op, p.Atoms.AtomToRvalue(lhs), one)
		if err != nil {
			return 0, err
		}
		return p.buildBindAuto(combined, lhs)
	case p.expect(token.KwSizeof):
		return p.parseSizeof()
	default:
		return p.parsePostfix()
	}
}

func pointeeOf(t *types.Type) *types.Type {
	if t.Kind == types.Pointer || t.Kind == types.Array {
		return t.PointsTo
	}
	return t
}

func (p *Parser) parseSizeof() (atom.Index, error) {
	intType, _ := p.Types.FindType("int")
	if p.at(token.LParen) && p.isTypeAhead(1) {
		p.advance()
		t, _, err := p.parseDeclSpec()
		if err != nil {
			return 0, err
		}
		t, _, err = p.parseDeclarator(t)
		if err != nil {
			return 0, err
		}
		if _, err := p.must(token.RParen, "')'"); err != nil {
			return 0, err
		}
		return p.alloc1(atom.Atom{Op: atom.IntegerLit, Type: intType, IntVal: int32(p.Types.Size(t))})
	}
	e, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	return p.alloc1(atom.Atom{Op: atom.IntegerLit, Type: intType, IntVal: int32(p.Types.Size(p.Atoms.Get(e).Type))})
}

func (p *Parser) parsePostfix() (atom.Index, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.expect(token.LBracket):
			idx, err := p.parseExprSequence()
			if err != nil {
				return 0, err
			}
			if _, err := p.must(token.RBracket, "']'"); err != nil {
				return 0, err
			}
			e, err = p.buildArrayIndexExpr(e, idx)
			if err != nil {
				return 0, err
			}
		case p.expect(token.Dot):
			name, err := p.must(token.IDENT, "member name")
			if err != nil {
				return 0, err
			}
			e, err = p.buildMemberAccess(e, name.Text)
			if err != nil {
				return 0, err
			}
		case p.expect(token.Arrow):
			name, err := p.must(token.IDENT, "member name")
			if err != nil {
				return 0, err
			}
			deref, err := p.alloc1(atom.Atom{Op: atom.PtrDeref, Type: pointeeOf(p.Atoms.Get(e).Type), Ref: p.Atoms.AtomToRvalue(e)})
			if err != nil {
				return 0, err
			}
			e, err = p.buildMemberAccess(deref, name.Text)
			if err != nil {
				return 0, err
			}
		case p.expect(token.LParen):
			e, err = p.parseCallArgs(e)
			if err != nil {
				return 0, err
			}
		case p.expect(token.PlusPlus):
			e, err = p.buildPostfix(atom.PostfixInc, e)
			if err != nil {
				return 0, err
			}
		case p.expect(token.MinusMinus):
			e, err = p.buildPostfix(atom.PostfixDec, e)
			if err != nil {
				return 0, err
			}
		default:
			return e, nil
		}
	}
}

func (p *Parser) buildPostfix(op atom.Op, lvalue atom.Index) (atom.Index, error) {
	return p.alloc1(atom.Atom{Op: op, Type: p.Atoms.Get(lvalue).Type, Ref: lvalue})
}

func (p *Parser) buildArrayIndex(v *vars.Variable, idx atom.Index) (atom.Index, error) {
	ref, err := p.alloc1(atom.Atom{Op: atom.VarRef, Type: v.Type, Var: v})
	if err != nil {
		return 0, err
	}
	return p.buildArrayIndexExpr(ref, idx)
}

func (p *Parser) buildArrayIndexExpr(base, idx atom.Index) (atom.Index, error) {
	baseT := p.Atoms.Get(base).Type
	elemT := pointeeOf(baseT)
	var addr atom.Index
	var err error
	if baseT.Kind == types.Array {
		addr = base // address-of array decays to its own base address
	} else {
		addr = p.Atoms.AtomToRvalue(base)
	}
	scale, err := p.alloc1(atom.Atom{Op: atom.IntegerLit, Type: p.Atoms.Get(idx).Type, IntVal: int32(elemT.Size)})
	if err != nil {
		return 0, err
	}
	scaled, err := p.binOp(atom.Mul, p.Atoms.AtomToRvalue(idx), scale)
	if err != nil {
		return 0, err
	}
	sum, err := p.binOp(atom.Add, addr, scaled)
	if err != nil {
		return 0, err
	}
	return p.alloc1(atom.Atom{Op: atom.ArrayIndex, Type: elemT, Ref: sum})
}

func (p *Parser) buildMemberAccess(base atom.Index, name string) (atom.Index, error) {
	baseT := p.Atoms.Get(base).Type
	m, ok := p.Types.FindStructMember(baseT, name)
	if !ok {
		return 0, fmt.Errorf("parser: %q has no member %q", baseT.String(), name)
	}
	off, err := p.alloc1(atom.Atom{Op: atom.IntegerLit, IntVal: int32(m.Offset)})
	if err != nil {
		return 0, err
	}
	sum, err := p.binOp(atom.Add, base, off)
	if err != nil {
		return 0, err
	}
	return p.alloc1(atom.Atom{Op: atom.ArrayIndex, Type: m.Type, Ref: sum})
}

func (p *Parser) parseCallArgs(callee atom.Index) (atom.Index, error) {
	fn := p.Atoms.Get(callee).Func
	if fn == nil {
		return 0, fmt.Errorf("parser: call target is not a function")
	}
	var args []atom.Index
	for !p.at(token.RParen) {
		a, err := p.parseAssignExpr()
		if err != nil {
			return 0, err
		}
		args = append(args, p.Atoms.AtomToRvalue(a))
		if !p.expect(token.Comma) {
			break
		}
	}
	if _, err := p.must(token.RParen, "')'"); err != nil {
		return 0, err
	}
	if !fn.IsVariadic && len(args) != len(fn.Args) {
		return 0, fmt.Errorf("parser: %q expects %d argument(s), got %d", fn.Name, len(fn.Args), len(args))
	}
	head, err := p.Atoms.Alloc(1 + len(args))
	if err != nil {
		return 0, err
	}
	*p.Atoms.Get(head) = atom.Atom{Op: atom.Apply, Type: fn.Return, Func: fn}
	for i, a := range args {
		*p.Atoms.Get(head + 1 + atom.Index(i)) = atom.Atom{Op: atom.Arg, Ref: a}
	}
	return head, nil
}

func (p *Parser) parsePrimary() (atom.Index, error) {
	switch {
	case p.at(token.INT):
		t := p.advance()
		intType, _ := p.Types.FindType("int")
		return p.alloc1(atom.Atom{Op: atom.IntegerLit, Type: intType, IntVal: t.IntVal})
	case p.at(token.LONG):
		t := p.advance()
		longType, _ := p.Types.FindType("long")
		return p.alloc1(atom.Atom{Op: atom.LongLit, Type: longType, LongVal: t.LongVal})
	case p.at(token.CHAR):
		t := p.advance()
		charType, _ := p.Types.FindType("char")
		return p.alloc1(atom.Atom{Op: atom.IntegerLit, Type: charType, IntVal: int32(t.CharVal)})
	case p.at(token.STRING):
		t := p.advance()
		id := p.Strings.Intern(t.StrVal)
		charPtr, _ := p.Types.FindType("char")
		pt := p.Types.AddPointerType(charPtr)
		return p.alloc1(atom.Atom{Op: atom.StringLit, Type: pt, StrID: id})
	case p.expect(token.LParen):
		e, err := p.parseExprSequence()
		if err != nil {
			return 0, err
		}
		_, err = p.must(token.RParen, "')'")
		return e, err
	case p.at(token.IDENT):
		name := p.advance().Text
		if f, ok := p.Funcs.Find(name); ok {
			return p.alloc1(atom.Atom{Op: atom.Nop, Type: f.Return, Func: f})
		}
		v, ok := p.Vars.FindVar(name)
		if !ok {
			return 0, fmt.Errorf("parser: %s: undeclared identifier %q", p.cur().Pos, name)
		}
		if v.IsConstant {
			return p.alloc1(atom.Atom{Op: atom.IntegerLit, Type: v.Type, IntVal: int32(v.IntValue)})
		}
		return p.alloc1(atom.Atom{Op: atom.VarRef, Type: v.Type, Var: v})
	default:
		return 0, fmt.Errorf("parser: %s: unexpected token %q", p.cur().Pos, p.cur().Text)
	}
}

// buildAssign builds "v = rhs" for a freshly declared local's initializer.
func (p *Parser) buildAssign(v *vars.Variable, rhs atom.Index, t *types.Type) (atom.Index, error) {
	lvalue, err := p.alloc1(atom.Atom{Op: atom.VarRef, Type: v.Type, Var: v})
	if err != nil {
		return 0, err
	}
	return p.buildBind(rhs, lvalue, t)
}

// chainStatement sequences two already-built statement/expression atoms
// with AndThen, or returns the non-zero one if the other is absent.
func (p *Parser) chainStatement(a, b atom.Index) (atom.Index, error) {
	if a == 0 {
		return b, nil
	}
	if b == 0 {
		return a, nil
	}
	head, err := p.Atoms.Alloc(2)
	if err != nil {
		return 0, err
	}
	*p.Atoms.Get(head) = atom.Atom{Op: atom.AndThen, Ref: a}
	*p.Atoms.Get(head + 1) = atom.Atom{Op: atom.Arg, Ref: b}
	return head, nil
}
