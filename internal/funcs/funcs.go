// Package funcs implements the function table: signatures, argument
// vectors, and the variadic register-save-area bookkeeping the emitter's
// prologue needs.
package funcs

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/rcc-lang/rcc/internal/types"
	"github.com/rcc-lang/rcc/internal/vars"
)

// Function is one declared or defined function.
type Function struct {
	Name          string
	Return        *types.Type
	IsVariadic    bool
	IsExternal    bool
	Args          []*vars.Variable
	Body          int // atom.Index of the function body, 0 until defined
	MaxOffset     int
	RegSaveOffset int // 0 unless IsVariadic
}

// Table is the name -> Function binding, in declaration order so the
// emitter can walk functions deterministically.
type Table struct {
	byName map[string]*Function
	order  []*Function
}

// NewTable returns an empty function table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Function)}
}

// Add inserts a new function, or validates and returns an existing forward
// declaration sharing the same name.
func (t *Table) Add(name string, ret *types.Type, isExternal, isVariadic bool, args []*vars.Variable) (*Function, error) {
	if existing, ok := t.byName[name]; ok {
		if existing.Return != ret || len(existing.Args) != len(args) || existing.IsVariadic != isVariadic {
			return nil, fmt.Errorf("funcs: %q redeclared with incompatible signature", name)
		}
		return existing, nil
	}
	f := &Function{Name: name, Return: ret, IsExternal: isExternal, IsVariadic: isVariadic, Args: args}
	t.byName[name] = f
	t.order = append(t.order, f)
	return f, nil
}

// Find looks up a function by name.
func (t *Table) Find(name string) (*Function, bool) {
	f, ok := t.byName[name]
	return f, ok
}

// SetBody fills in a declared function's body once its definition is
// parsed.
func (t *Table) SetBody(f *Function, args []*vars.Variable, body, maxOffset int) {
	f.Args = args
	f.Body = body
	f.MaxOffset = maxOffset
}

// All returns every function in declaration order, for the emitter's
// top-level walk.
func (t *Table) All() []*Function { return t.order }

// Defined returns only functions with a parsed body, via the teacher's
// adopted lo.Filter idiom for slice projection.
func (t *Table) Defined() []*Function {
	return lo.Filter(t.order, func(f *Function, _ int) bool { return f.Body != 0 })
}
