package funcs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcc-lang/rcc/internal/funcs"
	"github.com/rcc-lang/rcc/internal/types"
)

func TestAddForwardDeclThenDefine(t *testing.T) {
	reg := types.NewRegistry()
	i, _ := reg.FindType("int")

	tbl := funcs.NewTable()
	f1, err := tbl.Add("add", i, false, false, nil)
	require.NoError(t, err)

	f2, err := tbl.Add("add", i, false, false, nil)
	require.NoError(t, err)
	assert.Same(t, f1, f2)

	tbl.SetBody(f2, nil, 42, 16)
	assert.Equal(t, 42, f1.Body)
	assert.Len(t, tbl.Defined(), 1)
}

func TestAddIncompatibleRedeclaration(t *testing.T) {
	reg := types.NewRegistry()
	i, _ := reg.FindType("int")
	l, _ := reg.FindType("long")

	tbl := funcs.NewTable()
	_, err := tbl.Add("f", i, false, false, nil)
	require.NoError(t, err)

	_, err = tbl.Add("f", l, false, false, nil)
	assert.Error(t, err)
}
