// Package compiler wires the source/macro/token/types/vars/funcs/atom
// packages into one translation-unit Unit, built through the teacher's
// functional-options idiom and guarded by internal/panicerr so a fatal
// compile-time halt always comes back as a clean error.
package compiler

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rcc-lang/rcc/internal/atom"
	"github.com/rcc-lang/rcc/internal/emit"
	"github.com/rcc-lang/rcc/internal/flushio"
	"github.com/rcc-lang/rcc/internal/funcs"
	"github.com/rcc-lang/rcc/internal/logio"
	"github.com/rcc-lang/rcc/internal/macro"
	"github.com/rcc-lang/rcc/internal/panicerr"
	"github.com/rcc-lang/rcc/internal/parser"
	"github.com/rcc-lang/rcc/internal/source"
	"github.com/rcc-lang/rcc/internal/strpool"
	"github.com/rcc-lang/rcc/internal/token"
	"github.com/rcc-lang/rcc/internal/types"
	"github.com/rcc-lang/rcc/internal/vars"
)

// Error is a fatal compile-time diagnostic: the first error always aborts
// the translation unit, with no resynchronization attempt.
type Error struct {
	Unit string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Unit, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Unit owns every symbol table a single translation unit needs: its own
// source stack, macro table, type registry, variable/function tables, and
// atom pool, so independent units never share mutable state.
type Unit struct {
	name string
	out  io.Writer
	tee  io.Writer
	logf func(string, ...interface{})

	atomLimit   int
	includeDirs []string
	includer    token.Includer
	annotate    bool

	Atoms   *atom.Pool
	Types   *types.Registry
	Vars    *vars.Table
	Funcs   *funcs.Table
	Strings *strpool.Strings
	Arrays  *strpool.Arrays
	Macros  *macro.Table
}

// Option configures a Unit at construction, following the teacher's
// VMOption/apply pattern generalized to this compiler's domain.
type Option interface{ apply(u *Unit) }

type optionFunc func(u *Unit)

func (f optionFunc) apply(u *Unit) { f(u) }

// WithOutput sets the Unit's assembly output sink.
func WithOutput(w io.Writer) Option {
	return optionFunc(func(u *Unit) { u.out = w })
}

// WithTee additionally mirrors emitted assembly to w, e.g. for a caller
// that wants to echo output to stdout while also writing it to a file.
func WithTee(w io.Writer) Option {
	return optionFunc(func(u *Unit) { u.tee = w })
}

// WithLogf sets the Unit's diagnostic log function.
func WithLogf(logf func(string, ...interface{})) Option {
	return optionFunc(func(u *Unit) { u.logf = logf })
}

// WithAtomLimit overrides the atom pool's capacity limit.
func WithAtomLimit(n int) Option {
	return optionFunc(func(u *Unit) { u.atomLimit = n })
}

// WithIncluder overrides how #include targets are resolved.
func WithIncluder(inc token.Includer) Option {
	return optionFunc(func(u *Unit) { u.includer = inc })
}

// WithIncludeDirs configures the default filesystem includer to search dirs,
// in order, for both "quoted" and <angled> #include targets.
func WithIncludeDirs(dirs ...string) Option {
	return optionFunc(func(u *Unit) {
		u.includeDirs = dirs
		u.includer = fileIncluder(dirs)
	})
}

// fileIncluder resolves #include targets against a fixed search path,
// reading the first match off disk.
func fileIncluder(dirs []string) token.Includer {
	return func(name string, _ bool) ([]byte, string, error) {
		for _, dir := range dirs {
			path := filepath.Join(dir, name)
			body, err := os.ReadFile(path)
			if err == nil {
				return body, path, nil
			}
			if !os.IsNotExist(err) {
				return nil, "", err
			}
		}
		return nil, "", fmt.Errorf("compiler: include %q not found in %v", name, dirs)
	}
}

// WithAsmComments turns on "# atom @N" trailer comments in emitted output.
func WithAsmComments() Option {
	return optionFunc(func(u *Unit) { u.annotate = true })
}

// New constructs a Unit named for diagnostics (typically the root file's
// name), applying opts over sensible defaults.
func New(name string, opts ...Option) *Unit {
	u := &Unit{
		name:      name,
		out:       io.Discard,
		logf:      func(string, ...interface{}) {},
		atomLimit: atom.DefaultLimit,
		Types:     types.NewRegistry(),
		Vars:      vars.NewTable(),
		Funcs:     funcs.NewTable(),
		Strings:   strpool.NewStrings(),
		Arrays:    strpool.NewArrays(),
		Macros:    macro.NewTable(),
	}
	for _, opt := range opts {
		opt.apply(u)
	}
	u.Atoms = atom.NewPool()
	u.Atoms.SetLimit(u.atomLimit)
	return u
}

// Compile tokenizes, parses, and emits body as this Unit's root source,
// returning a *Error on any fatal diagnostic. ctx is checked between the
// pipeline's three stages so a caller compiling many independent units
// concurrently (via golang.org/x/sync/errgroup) can cancel promptly; each
// individual stage still runs single-threaded and to completion, per the
// single-pass concurrency model.
func (u *Unit) Compile(ctx context.Context, body []byte) error {
	err := panicerr.Recover(u.name, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		src := source.NewStack()
		if _, err := src.Enter(u.name, body); err != nil {
			return &Error{Unit: u.name, Err: err}
		}

		exp := macro.NewExpander(u.Macros)
		lex := token.NewLexer(src, u.Macros, exp, u.Strings, u.includer)
		if err := lex.Tokenize(); err != nil {
			return &Error{Unit: u.name, Err: err}
		}
		u.logf("TRACE: %s: %d tokens", u.name, len(lex.Tokens))

		if err := ctx.Err(); err != nil {
			return err
		}

		p := parser.New(lex.Tokens, u.Atoms, u.Types, u.Vars, u.Funcs, u.Strings, u.Arrays)
		if err := p.Parse(); err != nil {
			return &Error{Unit: u.name, Err: err}
		}
		u.logf("TRACE: %s: %d atoms", u.name, u.Atoms.Len())

		if err := ctx.Err(); err != nil {
			return err
		}

		sink := flushio.NewWriteFlusher(u.out)
		if u.tee != nil {
			sink = flushio.WriteFlushers(sink, flushio.NewWriteFlusher(u.tee))
		}

		em := emit.New(sink, u.Atoms, u.Strings, u.Arrays)
		em.AnnotateAtoms = u.annotate
		if err := em.Emit(u.name, u.Funcs); err != nil {
			return &Error{Unit: u.name, Err: err}
		}
		return sink.Flush()
	})
	if panicerr.IsPanic(err) {
		return &Error{Unit: u.name, Err: err}
	}
	return err
}

// NewLeveledLogf adapts a *logio.Logger into the logf shape WithLogf wants,
// for callers that want leveled output rather than a bare func literal.
func NewLeveledLogf(log *logio.Logger, level string) func(string, ...interface{}) {
	return log.Leveledf(level)
}
