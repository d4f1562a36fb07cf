// Package atom implements the flat, append-only IR: a bump-allocated array
// of Atoms where every multi-operand node is a "head + ARG continuation"
// run, and every atom only ever references strictly-lower indices -- so the
// whole pool is acyclic by construction.
package atom

import (
	"fmt"

	"github.com/rcc-lang/rcc/internal/funcs"
	"github.com/rcc-lang/rcc/internal/source"
	"github.com/rcc-lang/rcc/internal/types"
	"github.com/rcc-lang/rcc/internal/vars"
)

// Index references an Atom in a Pool. 0 means "no atom".
type Index int

// Op discriminates the operation an Atom performs.
type Op int

// The IR's operation vocabulary, covering every construct §4.8 names.
const (
	Nop Op = iota
	Arg // continuation slot: "this index's value lives at head+N"

	IntegerLit
	LongLit
	StringLit
	ArrayLit

	VarRef
	VarVal

	Bind // assignment: ARG rvalue, ARG lvalue-address

	Add
	Sub
	Mul
	Div
	Mod
	BitAnd
	BitOr
	BitXor
	Lshift
	Rshift
	Neg
	BitNot

	EqEq
	EqNe
	EqLt
	EqLe
	EqGt
	EqGe
	LogAnd
	LogOr
	LogNot

	Ptr      // address-of
	PtrDeref // pointer dereference
	ArrayIndex
	Cast
	Ternary // head cond, ARG then, ARG else
	PostfixInc
	PostfixDec

	Apply // function call: head callee, ARG... args

	ExprStatement
	AndThen // statement sequencing: head, ARG next

	If      // head cond, ARG then, ARG else (0 if absent)
	For     // head cond, ARG body, ARG init, ARG post
	While   // head cond, ARG body
	DoWhile // head body, ARG cond
	Switch  // head scrutinee, ARG body (AndThen chain of Case/Default clauses)
	Case    // head value, ARG body
	Default // head body
	Break
	Continue
	Return
)

// Atom is one IR node. Only the fields its Op actually uses are meaningful;
// the parser never reads a field an Op doesn't own.
type Atom struct {
	Op       Op
	Type     *types.Type
	Pos      source.Pos
	IntVal   int32
	LongVal  int64
	StrID    int
	Ref      Index
	Var      *vars.Variable
	Func     *funcs.Function
}

// Pool is the bump-only atom array, 1-indexed so that 0 can mean "none".
type Pool struct {
	atoms []Atom
	limit int
}

// DefaultLimit bounds how many atoms a single translation unit may
// allocate, guarding against runaway recursive-descent input.
const DefaultLimit = 1 << 20

// NewPool returns an empty pool with the default capacity limit.
func NewPool() *Pool { return &Pool{limit: DefaultLimit} }

// SetLimit overrides the pool's capacity limit (the CLI's --atom-limit).
func (p *Pool) SetLimit(n int) { p.limit = n }

// Alloc reserves n contiguous atom slots (a head plus its ARG
// continuations) and returns the index of the first.
func (p *Pool) Alloc(n int) (Index, error) {
	if len(p.atoms)+n > p.limit {
		return 0, fmt.Errorf("atom: source code too long (exceeds %d atoms)", p.limit)
	}
	start := len(p.atoms) + 1
	p.atoms = append(p.atoms, make([]Atom, n)...)
	return Index(start), nil
}

// Get returns a pointer to the atom at i, or panics if i is out of range --
// an internal invariant violation, not a recoverable compile error.
func (p *Pool) Get(i Index) *Atom {
	if i <= 0 || int(i) > len(p.atoms) {
		panic(fmt.Sprintf("atom: index %d out of range [1,%d]", i, len(p.atoms)))
	}
	return &p.atoms[i-1]
}

// Arg returns the nth continuation slot's Ref field after a head atom at
// index i -- i.e. the value of atom i+n.
func (p *Pool) Arg(i Index, n int) Index {
	return p.Get(i + Index(n)).Ref
}

// Len reports how many atoms have been allocated.
func (p *Pool) Len() int { return len(p.atoms) }

// AtomToRvalue normalizes an address-producing atom (VarRef, ArrayIndex)
// into the value it addresses (VarVal, a PtrDeref-wrapped value), and is a
// no-op (idempotent) on an atom that is already an rvalue.
func (p *Pool) AtomToRvalue(i Index) Index {
	a := p.Get(i)
	switch a.Op {
	case VarRef:
		v, err := p.Alloc(1)
		if err != nil {
			panic(err)
		}
		*p.Get(v) = Atom{Op: VarVal, Type: a.Type, Pos: a.Pos, Var: a.Var}
		return v
	case ArrayIndex:
		v, err := p.Alloc(1)
		if err != nil {
			panic(err)
		}
		*p.Get(v) = Atom{Op: PtrDeref, Type: a.Type, Pos: a.Pos, Ref: i}
		return v
	default:
		return i
	}
}
