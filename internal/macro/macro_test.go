package macro_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcc-lang/rcc/internal/macro"
)

func TestAddFindUndef(t *testing.T) {
	tbl := macro.NewTable()
	tbl.Add("FOO", 0, 10, 20, nil)

	m, ok := tbl.Find("FOO")
	require.True(t, ok)
	assert.Equal(t, 10, m.Start)

	tbl.Undef("FOO")
	_, ok = tbl.Find("FOO")
	assert.False(t, ok)
}

func TestExpanderCycleGuard(t *testing.T) {
	tbl := macro.NewTable()
	tbl.Add("A", 0, 0, 1, nil)
	exp := macro.NewExpander(tbl)

	m, _ := tbl.Find("A")
	require.NoError(t, exp.Push(m, 0, nil))
	assert.True(t, exp.InExpansion("A"))

	err := exp.Push(m, 0, nil)
	assert.Error(t, err)

	require.NoError(t, exp.Pop())
	assert.False(t, exp.InExpansion("A"))
}

func TestExpanderArgBindingInnermostOnly(t *testing.T) {
	tbl := macro.NewTable()
	tbl.Add("M", 0, 0, 10, []string{"x"})
	exp := macro.NewExpander(tbl)

	m, _ := tbl.Find("M")
	require.NoError(t, exp.Push(m, 1, [][2]int{{3, 5}}))

	bound, ok := exp.LookupArg("x")
	require.True(t, ok)
	assert.Equal(t, 1, bound.SrcID)
	assert.Equal(t, 3, bound.Start)
	assert.Equal(t, 5, bound.End)

	_, ok = exp.LookupArg("y")
	assert.False(t, ok)

	tbl.Add("N", 0, 0, 10, []string{"z"})
	n, _ := tbl.Find("N")
	require.NoError(t, exp.Push(n, 1, [][2]int{{7, 8}}))
	_, ok = exp.LookupArg("x")
	assert.False(t, ok, "an enclosing expansion's parameters are not visible")
}

func TestPushArityMismatch(t *testing.T) {
	tbl := macro.NewTable()
	tbl.Add("M", 0, 0, 10, []string{"x", "y"})
	exp := macro.NewExpander(tbl)
	m, _ := tbl.Find("M")
	err := exp.Push(m, 0, [][2]int{{0, 1}})
	assert.Error(t, err)
}
