package token

import (
	"fmt"
	"strings"
)

// directive handles a '#' found where a token would start (after
// whitespace and comments are skipped): #include, #define, #undef,
// #ifdef, #ifndef, #else, #endif. A #pragma line is skipped; any other
// directive word is a preprocessor error.
func (l *Lexer) directive() error {
	l.Src.Next() // consume '#'
	l.skipSpacesOnLine()
	word := l.scanIdent()

	switch word {
	case "include":
		return l.doInclude()
	case "define":
		return l.doDefine()
	case "undef":
		l.skipSpacesOnLine()
		name := l.scanIdent()
		l.Macros.Undef(name)
		return l.restOfLine()
	case "ifdef":
		l.skipSpacesOnLine()
		name := l.scanIdent()
		_, ok := l.Macros.Find(name)
		return l.pushCond(ok)
	case "ifndef":
		l.skipSpacesOnLine()
		name := l.scanIdent()
		_, ok := l.Macros.Find(name)
		return l.pushCond(!ok)
	case "else":
		return l.doElse()
	case "endif":
		return l.doEndif()
	case "pragma":
		return l.restOfLine()
	default:
		return fmt.Errorf("token: unknown preprocessor directive %q", word)
	}
}

func (l *Lexer) skipSpacesOnLine() {
	for l.Src.Byte() == ' ' || l.Src.Byte() == '\t' {
		l.Src.Next()
	}
}

func (l *Lexer) restOfLine() error {
	for b := l.Src.Byte(); b >= 0 && b != '\n'; b = l.Src.Byte() {
		l.Src.Next()
	}
	return nil
}

func (l *Lexer) doInclude() error {
	l.skipSpacesOnLine()
	open := l.Src.Byte()
	var closeB int
	angled := false
	switch open {
	case '"':
		closeB = '"'
	case '<':
		closeB = '>'
		angled = true
	default:
		return fmt.Errorf("token: #include expects \"file\" or <file>")
	}
	l.Src.Next()
	var sb strings.Builder
	for l.Src.Byte() >= 0 && l.Src.Byte() != closeB {
		sb.WriteByte(byte(l.Src.Byte()))
		l.Src.Next()
	}
	l.Src.Next() // closing delimiter
	if err := l.restOfLine(); err != nil {
		return err
	}

	if l.Include == nil {
		return fmt.Errorf("token: #include %q with no Includer configured", sb.String())
	}
	body, name, err := l.Include(sb.String(), angled)
	if err != nil {
		return err
	}
	if _, err := l.Src.Enter(name, body); err != nil {
		return err
	}
	return l.Tokenize()
}

func (l *Lexer) doDefine() error {
	l.skipSpacesOnLine()
	name := l.scanIdent()
	if name == "" {
		return fmt.Errorf("token: #define missing macro name")
	}

	var params []string
	if l.Src.Byte() == '(' {
		l.Src.Next()
		for {
			l.skipSpacesOnLine()
			if l.Src.Byte() == ')' {
				l.Src.Next()
				break
			}
			p := l.scanIdent()
			if p == "" {
				return fmt.Errorf("token: #define %q has a malformed parameter list", name)
			}
			params = append(params, p)
			l.skipSpacesOnLine()
			if l.Src.Byte() == ',' {
				l.Src.Next()
				continue
			}
			if l.Src.Byte() == ')' {
				l.Src.Next()
				break
			}
			return fmt.Errorf("token: #define %q has a malformed parameter list", name)
		}
	}

	f := l.Src.Current()
	l.skipSpacesOnLine()
	start := f.Pos
	for l.Src.Byte() >= 0 && l.Src.Byte() != '\n' {
		l.Src.Next()
	}
	end := f.Pos
	l.Macros.Add(name, f.Buf.ID, start, end, params)
	return nil
}

func (l *Lexer) pushCond(taken bool) error {
	l.condStack = append(l.condStack, condFrame{taken: taken})
	if !taken {
		return l.skipToElseOrEndif()
	}
	return nil
}

func (l *Lexer) doElse() error {
	if len(l.condStack) == 0 {
		return fmt.Errorf("token: #else without matching #if*")
	}
	top := &l.condStack[len(l.condStack)-1]
	if top.elseSeen {
		return fmt.Errorf("token: duplicate #else")
	}
	top.elseSeen = true
	if err := l.restOfLine(); err != nil {
		return err
	}
	if top.taken {
		return l.skipToElseOrEndif()
	}
	top.taken = true
	return nil
}

func (l *Lexer) doEndif() error {
	if len(l.condStack) == 0 {
		return fmt.Errorf("token: #endif without matching #if*")
	}
	l.condStack = l.condStack[:len(l.condStack)-1]
	return l.restOfLine()
}

// skipToElseOrEndif scans raw text (not tokenizing) until a matching
// #else or #endif at the current nesting depth, honoring nested
// #ifdef/#ifndef regions so they are skipped as a whole. It leaves the
// cursor sitting exactly on the matching directive's leading '#', so the
// caller's normal directive() dispatch processes it (flipping #else's
// taken state, popping #endif's cond frame).
func (l *Lexer) skipToElseOrEndif() error {
	depth := 0
	for {
		if err := l.restOfLine(); err != nil {
			return err
		}
		if l.Src.Byte() < 0 {
			return fmt.Errorf("token: unterminated #if* region")
		}
		l.Src.Next() // step past the newline restOfLine stopped on
		l.skipSpacesOnLine()
		if l.Src.Byte() != '#' {
			continue
		}

		f := l.Src.Current()
		savedPos, savedLine, savedCol := f.Pos, f.Line, f.Col
		l.Src.Next()
		l.skipSpacesOnLine()
		word := l.scanIdent()
		f.Pos, f.Line, f.Col = savedPos, savedLine, savedCol

		switch word {
		case "ifdef", "ifndef":
			depth++
		case "endif":
			if depth == 0 {
				return nil
			}
			depth--
		case "else":
			if depth == 0 {
				return nil
			}
		}
	}
}
