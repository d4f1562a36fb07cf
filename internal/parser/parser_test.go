package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcc-lang/rcc/internal/atom"
	"github.com/rcc-lang/rcc/internal/funcs"
	"github.com/rcc-lang/rcc/internal/macro"
	"github.com/rcc-lang/rcc/internal/parser"
	"github.com/rcc-lang/rcc/internal/source"
	"github.com/rcc-lang/rcc/internal/strpool"
	"github.com/rcc-lang/rcc/internal/token"
	"github.com/rcc-lang/rcc/internal/types"
	"github.com/rcc-lang/rcc/internal/vars"
)

func parseSource(t *testing.T, src string) (*parser.Parser, *funcs.Table) {
	t.Helper()
	st := source.NewStack()
	_, err := st.Enter("t.c", []byte(src))
	require.NoError(t, err)

	tbl := macro.NewTable()
	exp := macro.NewExpander(tbl)
	strs := strpool.NewStrings()
	lx := token.NewLexer(st, tbl, exp, strs, nil)
	require.NoError(t, lx.Tokenize())

	tys := types.NewRegistry()
	vs := vars.NewTable()
	fs := funcs.NewTable()
	arrs := strpool.NewArrays()
	ap := atom.NewPool()

	p := parser.New(lx.Tokens, ap, tys, vs, fs, strs, arrs)
	require.NoError(t, p.Parse())
	return p, fs
}

func TestParseSimpleFunction(t *testing.T) {
	_, fs := parseSource(t, `
		int add(int a, int b) {
			return a + b;
		}
	`)
	f, ok := fs.Find("add")
	require.True(t, ok)
	assert.NotZero(t, f.Body)
	assert.Len(t, f.Args, 2)
}

func TestParseIfWhileFor(t *testing.T) {
	_, fs := parseSource(t, `
		int f(int n) {
			int total;
			total = 0;
			for (int i = 0; i < n; i = i + 1) {
				if (i == 2) {
					continue;
				}
				total = total + i;
			}
			while (n > 0) {
				n = n - 1;
			}
			return total;
		}
	`)
	f, ok := fs.Find("f")
	require.True(t, ok)
	assert.NotZero(t, f.Body)
}

func TestParseGlobalArrayInitializer(t *testing.T) {
	p, _ := parseSource(t, `int xs[] = {1, 2, 3};`)
	v, ok := p.Vars.FindVar("xs")
	require.True(t, ok)
	assert.Equal(t, 3, v.Type.ArrayLen)
	assert.Equal(t, []int{1, 2, 3}, p.Arrays.Values(strpool.Handle(v.ArrayHandle)))
}

func TestParseStructAndSwitch(t *testing.T) {
	_, fs := parseSource(t, `
		struct point { int x; int y; };

		int classify(int n) {
			struct point p;
			p.x = n;
			switch (n) {
				case 1:
					return 1;
				case 2:
					return 2;
				default:
					return 0;
			}
		}
	`)
	f, ok := fs.Find("classify")
	require.True(t, ok)
	assert.NotZero(t, f.Body)
}
