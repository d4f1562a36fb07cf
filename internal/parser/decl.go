package parser

import (
	"fmt"

	"github.com/rcc-lang/rcc/internal/atom"
	"github.com/rcc-lang/rcc/internal/token"
	"github.com/rcc-lang/rcc/internal/types"
	"github.com/rcc-lang/rcc/internal/vars"
)

// parseDeclSpec parses the leading type-specifier of a declaration
// ("extern"? base-type), returning the named base type.
func (p *Parser) parseDeclSpec() (*types.Type, bool, error) {
	isExtern := p.expect(token.KwExtern)

	switch {
	case p.expect(token.KwVoid):
		t, _ := p.Types.FindType("void")
		return t, isExtern, nil
	case p.expect(token.KwChar):
		t, _ := p.Types.FindType("char")
		return t, isExtern, nil
	case p.expect(token.KwInt):
		t, _ := p.Types.FindType("int")
		return t, isExtern, nil
	case p.expect(token.KwLong):
		t, _ := p.Types.FindType("long")
		return t, isExtern, nil
	case p.at(token.KwStruct) || p.at(token.KwUnion):
		t, err := p.parseStructOrUnionRef()
		return t, isExtern, err
	case p.at(token.KwEnum):
		t, err := p.parseEnumRef()
		return t, isExtern, err
	case p.at(token.IDENT):
		if t, ok := p.Types.FindType(p.cur().Text); ok {
			p.advance()
			return t, isExtern, nil
		}
		return nil, false, fmt.Errorf("parser: %s: unknown type name %q", p.cur().Pos, p.cur().Text)
	default:
		return nil, false, fmt.Errorf("parser: %s: expected a type", p.cur().Pos)
	}
}

func (p *Parser) parseStructOrUnionRef() (*types.Type, error) {
	isUnion := p.at(token.KwUnion)
	p.advance()

	name := ""
	if p.at(token.IDENT) {
		name = p.advance().Text
	}

	if p.expect(token.LBrace) {
		var t *types.Type
		if isUnion {
			t = p.Types.AddUnionType(name, name == "")
		} else {
			t = p.Types.AddStructType(name, name == "")
		}
		for !p.expect(token.RBrace) {
			mt, _, err := p.parseDeclSpec()
			if err != nil {
				return nil, err
			}
			for {
				mt2, mname, err := p.parseDeclarator(mt)
				if err != nil {
					return nil, err
				}
				p.Types.AddStructMember(t, mname, mt2, isUnion)
				if mt2.Kind == types.Union && mname == "" {
					p.Types.CopyUnionMemberToStruct(t, mt2)
				}
				if !p.expect(token.Comma) {
					break
				}
			}
			if _, err := p.must(token.Semi, "';'"); err != nil {
				return nil, err
			}
		}
		return t, nil
	}

	kind := "struct "
	if isUnion {
		kind = "union "
	}
	t, ok := p.Types.FindType(kind + name)
	if !ok {
		if isUnion {
			t = p.Types.AddUnionType(name, false)
		} else {
			t = p.Types.AddStructType(name, false)
		}
	}
	return t, nil
}

func (p *Parser) parseEnumRef() (*types.Type, error) {
	p.advance()
	name := ""
	if p.at(token.IDENT) {
		name = p.advance().Text
	}
	t := p.Types.AddEnumType(name)
	if p.expect(token.LBrace) {
		intType, _ := p.Types.FindType("int")
		next := 0
		for !p.expect(token.RBrace) {
			member, err := p.must(token.IDENT, "enum member name")
			if err != nil {
				return nil, err
			}
			if p.expect(token.Eq) {
				v, err := p.parseConstInt()
				if err != nil {
					return nil, err
				}
				next = v
			}
			p.Vars.AddConstantInt(member.Text, intType, next)
			next++
			if !p.expect(token.Comma) {
				if _, err := p.must(token.RBrace, "'}'"); err != nil {
					return nil, err
				}
				break
			}
		}
	}
	return t, nil
}

func (p *Parser) parseConstInt() (int, error) {
	neg := p.expect(token.Minus)
	t, err := p.must(token.INT, "integer constant")
	if err != nil {
		return 0, err
	}
	v := int(t.IntVal)
	if neg {
		v = -v
	}
	return v, nil
}

func (p *Parser) parseTypedef() error {
	base, _, err := p.parseDeclSpec()
	if err != nil {
		return err
	}
	t, name, err := p.parseDeclarator(base)
	if err != nil {
		return err
	}
	p.Types.AddTypedef(name, t)
	_, err = p.must(token.Semi, "';'")
	return err
}

func (p *Parser) parseTypeDecl() error {
	_, _, err := p.parseDeclSpec()
	return err
}

// expectSemiOrFuncOrVar accepts only the ';' that ends a bare
// struct/union/enum declaration; a declarator list after the type (a
// variable or function declared in the same statement) is reported as an
// error.
func (p *Parser) expectSemiOrFuncOrVar(base *types.Type) error {
	if p.expect(token.Semi) {
		return nil
	}
	return fmt.Errorf("parser: %s: expected ';'", p.cur().Pos)
}

// parseDeclarator consumes leading '*' (pointer) and trailing '[n]' (array)
// around a name, returning the fully-qualified type and the declared name.
func (p *Parser) parseDeclarator(base *types.Type) (*types.Type, string, error) {
	t := base
	for p.expect(token.Star) {
		t = p.Types.AddPointerType(t)
	}
	name := ""
	if p.at(token.IDENT) {
		name = p.advance().Text
	}
	for p.expect(token.LBracket) {
		length := 0
		if p.at(token.INT) {
			length = int(p.advance().IntVal)
		}
		if _, err := p.must(token.RBracket, "']'"); err != nil {
			return nil, "", err
		}
		t = p.Types.AddArrayType(t, length)
	}
	return t, name, nil
}

// parseDeclaratorList handles one or more comma-separated declarators
// after a type specifier, at file scope: each is either a function
// prototype/definition (if followed by '(') or a variable declaration
// (optionally initialized).
func (p *Parser) parseDeclaratorList(base *types.Type, isExtern bool) error {
	for {
		t, name, err := p.parseDeclarator(base)
		if err != nil {
			return err
		}
		if p.at(token.LParen) {
			if err := p.parseFunction(t, name, isExtern); err != nil {
				return err
			}
			return nil
		}

		v, err := p.Vars.AddVarWithCheck(t, name)
		if err != nil {
			return err
		}
		v.IsExternal = isExtern

		if p.expect(token.Eq) {
			if err := p.parseGlobalInitializer(v, t); err != nil {
				return err
			}
		}
		if p.expect(token.Comma) {
			continue
		}
		_, err = p.must(token.Semi, "';'")
		return err
	}
}

func (p *Parser) parseGlobalInitializer(v *vars.Variable, t *types.Type) error {
	v.HasValue = true
	switch {
	case p.at(token.STRING):
		s := p.advance()
		v.StringID = p.Strings.Intern(s.StrVal)
		return nil
	case p.expect(token.LBrace):
		h := p.Arrays.Alloc()
		v.ArrayHandle = int(h)
		n := 0
		for !p.expect(token.RBrace) {
			val, err := p.parseConstInt()
			if err != nil {
				return err
			}
			p.Arrays.Push(h, val)
			n++
			if !p.expect(token.Comma) {
				if _, err := p.must(token.RBrace, "'}'"); err != nil {
					return err
				}
				break
			}
		}
		if t.Kind == types.Array && t.ArrayLen == 0 {
			p.Vars.VarRealloc(v, p.Types.AddArrayType(t.PointsTo, n))
		}
		return nil
	default:
		val, err := p.parseConstInt()
		if err != nil {
			return err
		}
		v.IntValue = val
		return nil
	}
}

// parseFunction parses a prototype's parameter list and either a ';'
// (declaration only) or a compound-statement body (definition).
func (p *Parser) parseFunction(ret *types.Type, name string, isExtern bool) error {
	if _, err := p.must(token.LParen, "'('"); err != nil {
		return err
	}

	var argTypes []*types.Type
	var argNames []string
	isVariadic := false
	for !p.at(token.RParen) {
		if p.expect(token.Ellipsis) {
			isVariadic = true
			break
		}
		at, _, err := p.parseDeclSpec()
		if err != nil {
			return err
		}
		at2, aname, err := p.parseDeclarator(at)
		if err != nil {
			return err
		}
		argTypes = append(argTypes, at2)
		argNames = append(argNames, aname)
		if !p.expect(token.Comma) {
			break
		}
	}
	if _, err := p.must(token.RParen, "')'"); err != nil {
		return err
	}

	protoArgs := make([]*vars.Variable, len(argTypes))
	for i, at := range argTypes {
		protoArgs[i] = &vars.Variable{Name: argNames[i], Type: at}
	}
	f, err := p.Funcs.Add(name, ret, isExtern, isVariadic, protoArgs)
	if err != nil {
		return err
	}

	if p.expect(token.Semi) {
		return nil
	}

	p.Vars.EnterFrame()
	p.Vars.ResetMaxOffset()

	var declared []*vars.Variable
	for i, at := range argTypes {
		v := p.Vars.AddVar(argNames[i], at)
		declared = append(declared, v)
	}
	if isVariadic {
		f.RegSaveOffset = p.Vars.AddRegisterSaveArea()
	}

	body, err := p.parseCompoundStatement()
	if err != nil {
		return err
	}
	maxOffset := p.Vars.MaxOffset()
	p.Vars.ExitFrame()

	p.Funcs.SetBody(f, declared, int(body), maxOffset)
	return nil
}

func (p *Parser) parseLocalDecl(base *types.Type, isExtern bool) (atom.Index, error) {
	var chain atom.Index
	for {
		t, name, err := p.parseDeclarator(base)
		if err != nil {
			return 0, err
		}
		v, err := p.Vars.AddVarWithCheck(t, name)
		if err != nil {
			return 0, err
		}
		v.IsExternal = isExtern

		if p.expect(token.Eq) {
			init, err := p.parseLocalInitializer(v, t)
			if err != nil {
				return 0, err
			}
			chain, err = p.chainStatement(chain, init)
			if err != nil {
				return 0, err
			}
		}
		if !p.expect(token.Comma) {
			break
		}
	}
	_, err := p.must(token.Semi, "';'")
	return chain, err
}

// parseLocalInitializer lowers "T x[] = {1,2,3};"-style local array
// initializers into an AndThen chain of element assignments, resizing a
// flexible array type once the element count is known.
func (p *Parser) parseLocalInitializer(v *vars.Variable, t *types.Type) (atom.Index, error) {
	if !p.expect(token.LBrace) {
		rhs, err := p.parseAssignExpr()
		if err != nil {
			return 0, err
		}
		return p.buildAssign(v, rhs, t)
	}

	intType, _ := p.Types.FindType("int")
	var elems []atom.Index
	for !p.expect(token.RBrace) {
		e, err := p.parseAssignExpr()
		if err != nil {
			return 0, err
		}
		elems = append(elems, e)
		if !p.expect(token.Comma) {
			if _, err := p.must(token.RBrace, "'}'"); err != nil {
				return 0, err
			}
			break
		}
	}
	if t.Kind == types.Array && t.ArrayLen == 0 {
		p.Vars.VarRealloc(v, p.Types.AddArrayType(t.PointsTo, len(elems)))
	}

	var chain atom.Index
	for i, e := range elems {
		idx, err := p.alloc1(atom.Atom{Op: atom.IntegerLit, Type: intType, IntVal: int32(i)})
		if err != nil {
			return 0, err
		}
		lv, err := p.buildArrayIndex(v, idx)
		if err != nil {
			return 0, err
		}
		bind, err := p.buildBind(e, lv, t.PointsTo)
		if err != nil {
			return 0, err
		}
		chain, err = p.chainStatement(chain, bind)
		if err != nil {
			return 0, err
		}
	}
	return chain, nil
}
