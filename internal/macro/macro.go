// Package macro implements the macro table and expansion-frame stack: name
// to body/formal-parameter binding, cycle detection, and argument capture
// by byte-range pseudo-macro, exactly as the preprocessor requires.
package macro

import "fmt"

// Macro is one #define-d name: a function- or object-like body living in
// some source buffer's [Start,End) byte range.
type Macro struct {
	Name   string
	SrcID  int
	Start  int
	End    int
	Params []string // nil for an object-like macro
}

// Table is the append-mostly name -> Macro binding.
type Table struct {
	byName map[string]*Macro
}

// NewTable returns an empty macro table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Macro)}
}

// Add registers or replaces a macro definition.
func (t *Table) Add(name string, srcID, start, end int, params []string) {
	t.byName[name] = &Macro{Name: name, SrcID: srcID, Start: start, End: end, Params: params}
}

// Find looks up a macro by name.
func (t *Table) Find(name string) (*Macro, bool) {
	m, ok := t.byName[name]
	return m, ok
}

// Undef removes a macro definition, per #undef.
func (t *Table) Undef(name string) {
	delete(t.byName, name)
}

// frame is one entry in the expansion stack: the macro currently being
// expanded, and its actual-argument bindings (each itself a byte-range
// pseudo-macro over the use-site source).
type frame struct {
	macro *Macro
	args  map[string]*Macro
}

// Expander owns the expansion-frame stack used to detect macro recursion
// and to resolve formal-parameter references while expanding a macro body.
type Expander struct {
	table  *Table
	frames []frame
}

// NewExpander returns an Expander reading macro definitions from t.
func NewExpander(t *Table) *Expander {
	return &Expander{table: t}
}

// InExpansion reports whether name is already being expanded somewhere on
// the stack -- the cycle guard backing spec invariant that a macro may
// never appear in its own transitive expansion.
func (e *Expander) InExpansion(name string) bool {
	for _, f := range e.frames {
		if f.macro.Name == name {
			return true
		}
	}
	return false
}

// Push enters a macro's body as the new top expansion frame, binding its
// formal parameters to the given actual-argument byte ranges. The caller
// is responsible for also pushing the corresponding source.Stack frame
// over [m.Start, m.End).
func (e *Expander) Push(m *Macro, argSrcID int, args [][2]int) error {
	if e.InExpansion(m.Name) {
		return fmt.Errorf("macro: %q recursively expands itself", m.Name)
	}
	if len(args) != len(m.Params) {
		return fmt.Errorf("macro: %q expects %d argument(s), got %d", m.Name, len(m.Params), len(args))
	}
	bound := make(map[string]*Macro, len(m.Params))
	for i, p := range m.Params {
		bound[p] = &Macro{Name: p, SrcID: argSrcID, Start: args[i][0], End: args[i][1]}
	}
	e.frames = append(e.frames, frame{macro: m, args: bound})
	return nil
}

// Pop leaves the current macro expansion.
func (e *Expander) Pop() error {
	if len(e.frames) == 0 {
		return fmt.Errorf("macro: pop with no expansion active")
	}
	e.frames = e.frames[:len(e.frames)-1]
	return nil
}

// Depth reports how many macro expansions are currently nested.
func (e *Expander) Depth() int { return len(e.frames) }

// LookupArg resolves name against only the innermost frame's formal
// parameters -- matching enter_macro_arg's "innermost frame only" scoping,
// so a macro's own body never sees an enclosing expansion's parameters.
func (e *Expander) LookupArg(name string) (*Macro, bool) {
	if len(e.frames) == 0 {
		return nil, false
	}
	m, ok := e.frames[len(e.frames)-1].args[name]
	return m, ok
}
