package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

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

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "tokenize a file and dump its token stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lex, _, err := tokenizeFile(args[0])
			if err != nil {
				return err
			}
			for i, tok := range lex.Tokens {
				fmt.Fprintf(os.Stdout, "%4d  %-20v %q  @%s\n", i, tok.Kind, tok.Text, tok.Pos)
			}
			return nil
		},
	}
}

func newAtomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "atoms <file>",
		Short: "parse a file and dump its atom pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ap, err := parseFile(args[0])
			if err != nil {
				return err
			}
			for i := 1; i <= ap.Len(); i++ {
				a := ap.Get(atom.Index(i))
				typeName := "-"
				if a.Type != nil {
					typeName = a.Type.Name
				}
				fmt.Fprintf(os.Stdout, "%4d  %-14v ref=%-4d type=%s\n", i, a.Op, a.Ref, typeName)
			}
			return nil
		},
	}
}

func tokenizeFile(name string) (*token.Lexer, *macro.Table, error) {
	body, err := os.ReadFile(name)
	if err != nil {
		return nil, nil, err
	}
	st := source.NewStack()
	if _, err := st.Enter(name, body); err != nil {
		return nil, nil, err
	}
	tbl := macro.NewTable()
	exp := macro.NewExpander(tbl)
	strs := strpool.NewStrings()
	lex := token.NewLexer(st, tbl, exp, strs, nil)
	if err := lex.Tokenize(); err != nil {
		return nil, nil, err
	}
	return lex, tbl, nil
}

func parseFile(name string) (*parser.Parser, *atom.Pool, error) {
	lex, _, err := tokenizeFile(name)
	if err != nil {
		return nil, nil, err
	}
	tys := types.NewRegistry()
	vs := vars.NewTable()
	fs := funcs.NewTable()
	strs := strpool.NewStrings()
	arrs := strpool.NewArrays()
	ap := atom.NewPool()

	p := parser.New(lex.Tokens, ap, tys, vs, fs, strs, arrs)
	if err := p.Parse(); err != nil {
		return nil, nil, err
	}
	return p, ap, nil
}
