package emit_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcc-lang/rcc/internal/atom"
	"github.com/rcc-lang/rcc/internal/emit"
	"github.com/rcc-lang/rcc/internal/funcs"
	"github.com/rcc-lang/rcc/internal/macro"
	"github.com/rcc-lang/rcc/internal/parser"
	"github.com/rcc-lang/rcc/internal/source"
	"github.com/rcc-lang/rcc/internal/strpool"
	"github.com/rcc-lang/rcc/internal/token"
	"github.com/rcc-lang/rcc/internal/types"
	"github.com/rcc-lang/rcc/internal/vars"
)

func compileToAsm(t *testing.T, src string) string {
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

	var buf bytes.Buffer
	em := emit.New(&buf, ap, strs, arrs)
	require.NoError(t, em.Emit("t.c", fs))
	return buf.String()
}

func TestEmitSimpleFunction(t *testing.T) {
	asm := compileToAsm(t, `
		int add(int a, int b) {
			return a + b;
		}
	`)
	assert.Contains(t, asm, ".globl\tadd")
	assert.Contains(t, asm, "addl\t%edx, %eax")
	assert.Contains(t, asm, "leave")
	assert.Contains(t, asm, "ret")
}

func TestEmitIfElse(t *testing.T) {
	asm := compileToAsm(t, `
		int f(int n) {
			if (n > 0) {
				return 1;
			} else {
				return 0;
			}
		}
	`)
	assert.True(t, strings.Contains(asm, "setg\t%al") || strings.Contains(asm, "jz"))
}

func TestEmitForLoop(t *testing.T) {
	asm := compileToAsm(t, `
		int sum(int n) {
			int total;
			total = 0;
			for (int i = 0; i < n; i = i + 1) {
				total = total + i;
			}
			return total;
		}
	`)
	assert.Contains(t, asm, "jmp\t.L")
}

func TestEmitFunctionCall(t *testing.T) {
	asm := compileToAsm(t, `
		int add(int a, int b) {
			return a + b;
		}
		int main() {
			return add(1, 2);
		}
	`)
	assert.Contains(t, asm, "call\tadd")
}
