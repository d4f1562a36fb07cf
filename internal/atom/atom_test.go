package atom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcc-lang/rcc/internal/atom"
	"github.com/rcc-lang/rcc/internal/types"
	"github.com/rcc-lang/rcc/internal/vars"
)

func TestAllocIsStrictlyIncreasing(t *testing.T) {
	p := atom.NewPool()
	a, err := p.Alloc(1)
	require.NoError(t, err)
	b, err := p.Alloc(2)
	require.NoError(t, err)
	assert.Greater(t, int(b), int(a), "every atom must reference only strictly-lower indices")
}

func TestAtomToRvalueIdempotent(t *testing.T) {
	reg := types.NewRegistry()
	i, _ := reg.FindType("int")
	tbl := vars.NewTable()
	tbl.EnterFrame()
	v := tbl.AddVar("x", i)

	p := atom.NewPool()
	ref, _ := p.Alloc(1)
	*p.Get(ref) = atom.Atom{Op: atom.VarRef, Type: i, Var: v}

	r1 := p.AtomToRvalue(ref)
	assert.Equal(t, atom.VarVal, p.Get(r1).Op)

	r2 := p.AtomToRvalue(r1)
	assert.Equal(t, r1, r2, "AtomToRvalue must be idempotent")
}

func TestAllocOverLimitFails(t *testing.T) {
	p := atom.NewPool()
	p.SetLimit(2)
	_, err := p.Alloc(2)
	require.NoError(t, err)
	_, err = p.Alloc(1)
	assert.Error(t, err)
}

func TestArgContinuation(t *testing.T) {
	p := atom.NewPool()
	head, _ := p.Alloc(2)
	rvalue, _ := p.Alloc(1)
	*p.Get(rvalue) = atom.Atom{Op: atom.IntegerLit, IntVal: 7}
	*p.Get(head) = atom.Atom{Op: atom.Bind, Ref: rvalue}
	*p.Get(head + 1) = atom.Atom{Op: atom.Arg, Ref: rvalue}

	assert.Equal(t, rvalue, p.Arg(head, 1))
}
