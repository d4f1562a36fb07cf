package vars_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcc-lang/rcc/internal/types"
	"github.com/rcc-lang/rcc/internal/vars"
)

func TestNestedFrameMaxOffsetPersists(t *testing.T) {
	reg := types.NewRegistry()
	i, _ := reg.FindType("int")

	tbl := vars.NewTable()
	tbl.EnterFrame()
	tbl.AddVar("a", i)
	assert.Equal(t, 4, tbl.MaxOffset())

	tbl.EnterFrame()
	tbl.AddVar("b", i)
	assert.Equal(t, 8, tbl.MaxOffset())
	tbl.ExitFrame()

	assert.Equal(t, 8, tbl.MaxOffset(), "exiting a block frame must not shrink the function's high-water offset")
}

func TestFindVarInnermostOut(t *testing.T) {
	reg := types.NewRegistry()
	i, _ := reg.FindType("int")

	tbl := vars.NewTable()
	tbl.AddGlobal("x", i)
	tbl.EnterFrame()
	inner := tbl.AddVar("x", i)

	found, ok := tbl.FindVar("x")
	require.True(t, ok)
	assert.Same(t, inner, found)
}

func TestAddVarWithCheckFlexibleArrayUpgrade(t *testing.T) {
	reg := types.NewRegistry()
	c, _ := reg.FindType("char")
	flex := reg.AddArrayType(c, 0)
	sized := reg.AddArrayType(c, 8)

	tbl := vars.NewTable()
	v1, err := tbl.AddVarWithCheck(flex, "buf")
	require.NoError(t, err)

	v2, err := tbl.AddVarWithCheck(sized, "buf")
	require.NoError(t, err)
	assert.Same(t, v1, v2)
	assert.Equal(t, 8, v2.Type.Size)
}

func TestAddVarWithCheckIncompatible(t *testing.T) {
	reg := types.NewRegistry()
	i, _ := reg.FindType("int")
	l, _ := reg.FindType("long")

	tbl := vars.NewTable()
	_, err := tbl.AddVarWithCheck(i, "n")
	require.NoError(t, err)

	_, err = tbl.AddVarWithCheck(l, "n")
	assert.Error(t, err)
}
