package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcc-lang/rcc/internal/macro"
	"github.com/rcc-lang/rcc/internal/source"
	"github.com/rcc-lang/rcc/internal/strpool"
	"github.com/rcc-lang/rcc/internal/token"
)

func lex(t *testing.T, src string) []token.Token {
	t.Helper()
	st := source.NewStack()
	_, err := st.Enter("t.c", []byte(src))
	require.NoError(t, err)

	tbl := macro.NewTable()
	exp := macro.NewExpander(tbl)
	strs := strpool.NewStrings()
	lx := token.NewLexer(st, tbl, exp, strs, nil)
	require.NoError(t, lx.Tokenize())
	return lx.Tokens
}

func TestBasicTokens(t *testing.T) {
	toks := lex(t, "int x = 42;")
	kinds := make([]token.Kind, len(toks))
	for i, tk := range toks {
		kinds[i] = tk.Kind
	}
	assert.Equal(t, []token.Kind{token.KwInt, token.IDENT, token.Eq, token.INT, token.Semi}, kinds)
	assert.Equal(t, int32(42), toks[3].IntVal)
}

func TestLongPromotion(t *testing.T) {
	toks := lex(t, "5000000000")
	require.Len(t, toks, 1)
	assert.Equal(t, token.LONG, toks[0].Kind)
	assert.Equal(t, int64(5000000000), toks[0].LongVal)
}

func TestObjectMacroExpansion(t *testing.T) {
	st := source.NewStack()
	_, err := st.Enter("t.c", []byte("FOO + 1"))
	require.NoError(t, err)

	tbl := macro.NewTable()
	_, err = st.Enter("<def>", []byte("42"))
	require.NoError(t, err)
	require.NoError(t, st.Exit())
	tbl.Add("FOO", 1, 0, 2, nil)

	exp := macro.NewExpander(tbl)
	lx := token.NewLexer(st, tbl, exp, strpool.NewStrings(), nil)
	require.NoError(t, lx.Tokenize())

	require.Len(t, lx.Tokens, 3)
	assert.Equal(t, token.INT, lx.Tokens[0].Kind)
	assert.Equal(t, int32(42), lx.Tokens[0].IntVal)
}

func TestFunctionMacroExpansionWithArgs(t *testing.T) {
	st := source.NewStack()
	_, err := st.Enter("<def>", []byte("((a)+(b))"))
	require.NoError(t, err)
	require.NoError(t, st.Exit())

	_, err = st.Enter("t.c", []byte("ADD(1, 2)"))
	require.NoError(t, err)

	tbl := macro.NewTable()
	tbl.Add("ADD", 0, 0, 9, []string{"a", "b"})

	exp := macro.NewExpander(tbl)
	lx := token.NewLexer(st, tbl, exp, strpool.NewStrings(), nil)
	require.NoError(t, lx.Tokenize())

	var ints []int32
	for _, tk := range lx.Tokens {
		if tk.Kind == token.INT {
			ints = append(ints, tk.IntVal)
		}
	}
	assert.Equal(t, []int32{1, 2}, ints)
}

func TestIfndefSkipsBody(t *testing.T) {
	toks := lex(t, "#ifndef FOO\nint a;\n#else\nint b;\n#endif\n")
	require.Len(t, toks, 3)
	assert.Equal(t, "a", toks[1].Text)
}

func TestStringAndCharLiterals(t *testing.T) {
	toks := lex(t, `"hi\n" 'a'`)
	require.Len(t, toks, 2)
	assert.Equal(t, "hi\n", toks[0].StrVal)
	assert.Equal(t, byte('a'), toks[1].CharVal)
}
