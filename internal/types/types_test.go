package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcc-lang/rcc/internal/types"
)

func TestPrimitivesSeeded(t *testing.T) {
	r := types.NewRegistry()
	i, ok := r.FindType("int")
	require.True(t, ok)
	assert.Equal(t, 4, i.Size)

	l, ok := r.FindType("long")
	require.True(t, ok)
	assert.Equal(t, 8, l.Size)
}

func TestPointerIdempotent(t *testing.T) {
	r := types.NewRegistry()
	i, _ := r.FindType("int")
	p1 := r.AddPointerType(i)
	p2 := r.AddPointerType(i)
	assert.Same(t, p1, p2)
	assert.Equal(t, 8, p1.Size)
}

func TestStructTightPacking(t *testing.T) {
	r := types.NewRegistry()
	c, _ := r.FindType("char")
	i, _ := r.FindType("int")

	st := r.AddStructType("point", false)
	r.AddStructMember(st, "tag", c, false)
	r.AddStructMember(st, "x", i, false)

	m, ok := r.FindStructMember(st, "x")
	require.True(t, ok)
	assert.Equal(t, 1, m.Offset) // no alignment padding after the char
	assert.Equal(t, 5, st.Size)
}

func TestUnionSizeIsMax(t *testing.T) {
	r := types.NewRegistry()
	c, _ := r.FindType("char")
	l, _ := r.FindType("long")

	u := r.AddUnionType("u", false)
	r.AddStructMember(u, "c", c, true)
	r.AddStructMember(u, "l", l, true)

	assert.Equal(t, 8, u.Size)
	mc, _ := r.FindStructMember(u, "c")
	ml, _ := r.FindStructMember(u, "l")
	assert.Equal(t, 0, mc.Offset)
	assert.Equal(t, 0, ml.Offset)
}

func TestAnonymousUnionPromotion(t *testing.T) {
	r := types.NewRegistry()
	i, _ := r.FindType("int")
	l, _ := r.FindType("long")

	union := r.AddUnionType("", true)
	r.AddStructMember(union, "asInt", i, true)
	r.AddStructMember(union, "asLong", l, true)

	outer := r.AddStructType("outer", false)
	r.AddStructMember(outer, "tag", i, false)
	r.AddStructMember(outer, "", union, false)

	r.CopyUnionMemberToStruct(outer, union)

	m, ok := r.FindStructMember(outer, "asLong")
	require.True(t, ok)
	assert.Equal(t, 4, m.Offset)
}

func TestArrayIdempotentAndSize(t *testing.T) {
	r := types.NewRegistry()
	i, _ := r.FindType("int")
	a1 := r.AddArrayType(i, 10)
	a2 := r.AddArrayType(i, 10)
	assert.Same(t, a1, a2)
	assert.Equal(t, 40, r.Size(a1))
}
