package token

import (
	"fmt"

	"github.com/rcc-lang/rcc/internal/macro"
)

// expand enters a macro invocation: for function-like macros it first
// captures each actual argument as a byte range (honoring nested
// parens/brackets and quoted strings, exactly like read_macro_arg), binds
// them to the macro's formal parameters, then re-tokenizes the macro body
// with those bindings in scope.
func (l *Lexer) expand(name string, m *macro.Macro) error {
	var argRanges [][2]int
	argSrcID := l.Src.Current().Buf.ID
	if m.Params != nil {
		l.skip()
		if l.Src.Byte() != '(' {
			return fmt.Errorf("token: %q used as a function-like macro without arguments", name)
		}
		l.Src.Next()
		ranges, err := l.readMacroArgs()
		if err != nil {
			return err
		}
		argRanges = ranges
	}

	if err := l.Exp.Push(m, argSrcID, argRanges); err != nil {
		return err
	}
	if err := l.Src.EnterSlice(m.SrcID, m.Start, m.End); err != nil {
		return err
	}
	if err := l.tokenizeExpansion(); err != nil {
		return err
	}
	if err := l.Src.Exit(); err != nil {
		return err
	}
	return l.Exp.Pop()
}

// tokenizeExpansion tokenizes the current (macro-body) frame to its end,
// substituting any identifier bound as a formal parameter by re-entering
// its actual-argument byte range, and otherwise behaving exactly like the
// main Tokenize loop (so nested macro calls within a macro body expand
// too).
func (l *Lexer) tokenizeExpansion() error {
	for {
		l.skip()
		b := l.Src.Byte()
		if b < 0 {
			return nil
		}
		l.Src.SnapshotPos()
		pos := l.Src.PrevPos()

		switch {
		case isAlpha(b):
			name := l.scanIdent()
			if arg, ok := l.Exp.LookupArg(name); ok {
				if err := l.Src.EnterSlice(arg.SrcID, arg.Start, arg.End); err != nil {
					return err
				}
				if err := l.tokenizeExpansion(); err != nil {
					return err
				}
				if err := l.Src.Exit(); err != nil {
					return err
				}
				continue
			}
			if kw, ok := keywords[name]; ok {
				l.emit(Token{Kind: kw, Text: name, Pos: pos})
				continue
			}
			if m, ok := l.Macros.Find(name); ok && !l.Exp.InExpansion(name) {
				if err := l.expand(name, m); err != nil {
					return err
				}
				continue
			}
			l.emit(Token{Kind: IDENT, Text: name, Pos: pos})

		case isDigit(b):
			t, err := l.scanNumber(pos)
			if err != nil {
				return err
			}
			l.emit(t)

		case b == '\'':
			t, err := l.scanChar(pos)
			if err != nil {
				return err
			}
			l.emit(t)

		case b == '"':
			t, err := l.scanString(pos)
			if err != nil {
				return err
			}
			l.emit(t)

		default:
			t, ok := l.scanOperator(pos)
			if !ok {
				return fmt.Errorf("token: %s: unrecognized character %q", l.Src.PosString(pos), rune(b))
			}
			if t.Kind == TokenHash2 {
				if err := l.pasteLastTwo(); err != nil {
					return err
				}
				continue
			}
			l.emit(t)
		}
	}
}

// readMacroArgs scans a function-like macro's actual-argument list,
// assuming the opening '(' has already been consumed. Each argument is a
// byte range [start,end); top-level ',' separates arguments, nested
// '(' '[' and quoted strings are honored so a ',' inside them does not
// split an argument, and the matching ')' ends the list.
func (l *Lexer) readMacroArgs() ([][2]int, error) {
	var ranges [][2]int
	f := l.Src.Current()
	depth := 0

	l.skipArgSpace()
	start := f.Pos
	if l.Src.Byte() == ')' {
		l.Src.Next()
		return nil, nil
	}

	for {
		b := l.Src.Byte()
		switch {
		case b < 0:
			return nil, fmt.Errorf("token: unterminated macro argument list")
		case b == '"' || b == '\'':
			quote := b
			l.Src.Next()
			for l.Src.Byte() >= 0 && l.Src.Byte() != quote {
				if l.Src.Byte() == '\\' {
					l.Src.Next()
				}
				l.Src.Next()
			}
			l.Src.Next()
		case b == '(' || b == '[':
			depth++
			l.Src.Next()
		case b == ')' && depth == 0:
			ranges = append(ranges, [2]int{start, f.Pos})
			l.Src.Next()
			return ranges, nil
		case b == ')' || b == ']':
			depth--
			l.Src.Next()
		case b == ',' && depth == 0:
			ranges = append(ranges, [2]int{start, f.Pos})
			l.Src.Next()
			l.skipArgSpace()
			start = f.Pos
		default:
			l.Src.Next()
		}
	}
}

func (l *Lexer) skipArgSpace() {
	for isSpace(l.Src.Byte()) {
		l.Src.Next()
	}
}
