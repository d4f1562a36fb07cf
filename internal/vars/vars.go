// Package vars implements the variable table: nested scope frames over
// stack-offset-assigned locals, plus globals and named integer constants.
package vars

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/rcc-lang/rcc/internal/types"
)

// Variable is one declared name: a local (with a frame-relative stack
// Offset), a global, or a compile-time constant.
type Variable struct {
	Name        string
	Type        *types.Type
	IsConstant  bool
	IsExternal  bool
	IsGlobal    bool
	HasValue    bool
	Offset      int
	IntValue    int
	StringID    int
	ArrayHandle int
}

// Frame is one lexical scope. MaxOffset is shared across a whole function's
// nested block frames so descending into and returning from a block never
// shrinks the function's running high-water mark of stack usage.
type Frame struct {
	parent    *Frame
	vars      []*Variable
	maxOffset *int
}

// Table is the variable scope stack plus the flat set of globals.
type Table struct {
	globals []*Variable
	top     *Frame
}

// NewTable returns an empty variable table with no frames entered.
func NewTable() *Table { return &Table{} }

// EnterFrame pushes a new lexical scope. The first frame of a function
// should be entered with parent == nil; nested block frames enter within
// it to share its MaxOffset.
func (t *Table) EnterFrame() {
	mo := new(int)
	if t.top != nil {
		mo = t.top.maxOffset
	}
	t.top = &Frame{parent: t.top, maxOffset: mo}
}

// ExitFrame pops the current scope, propagating its MaxOffset to the
// parent it shares the pointer with (a no-op, since they already share the
// pointer -- kept as an explicit step for callers relying on it as the
// stack pop).
func (t *Table) ExitFrame() {
	if t.top == nil {
		return
	}
	t.top = t.top.parent
}

// ResetMaxOffset starts a fresh function's stack-offset accounting.
func (t *Table) ResetMaxOffset() {
	if t.top != nil {
		*t.top.maxOffset = 0
	}
}

// MaxOffset reports the current frame chain's high-water stack offset.
func (t *Table) MaxOffset() int {
	if t.top == nil {
		return 0
	}
	return *t.top.maxOffset
}

// AddVar declares a new local in the current frame, assigning it the next
// stack slot.
func (t *Table) AddVar(name string, typ *types.Type) *Variable {
	size := typ.Size
	if typ.Kind == types.Array {
		size = typ.PointsTo.Size * typ.ArrayLen
	}
	*t.top.maxOffset += size
	v := &Variable{Name: name, Type: typ, Offset: *t.top.maxOffset}
	t.top.vars = append(t.top.vars, v)
	return v
}

// FindVar searches the current frame chain innermost-out, falling back to
// globals.
func (t *Table) FindVar(name string) (*Variable, bool) {
	for f := t.top; f != nil; f = f.parent {
		if v, ok := findIn(f.vars, name); ok {
			return v, true
		}
	}
	return findIn(t.globals, name)
}

// FindVarInCurrentFrame searches only the innermost scope, for shadow-
// declaration checks.
func (t *Table) FindVarInCurrentFrame(name string) (*Variable, bool) {
	if t.top == nil {
		return nil, false
	}
	return findIn(t.top.vars, name)
}

func findIn(vs []*Variable, name string) (*Variable, bool) {
	return lo.Find(vs, func(v *Variable) bool { return v.Name == name })
}

// AddConstantInt declares a named compile-time integer constant (an enum
// member, for instance).
func (t *Table) AddConstantInt(name string, typ *types.Type, value int) *Variable {
	v := &Variable{Name: name, Type: typ, IsConstant: true, HasValue: true, IntValue: value}
	if t.top != nil {
		t.top.vars = append(t.top.vars, v)
	} else {
		t.globals = append(t.globals, v)
	}
	return v
}

// AddGlobal declares a file-scope variable.
func (t *Table) AddGlobal(name string, typ *types.Type) *Variable {
	v := &Variable{Name: name, Type: typ, IsGlobal: true}
	t.globals = append(t.globals, v)
	return v
}

// VarRealloc patches v's type and offset in place, as used when a flexible
// array declaration (T x[]) is resized once its initializer's length is
// known. Callers must separately patch any VAR_REF atom that cached the
// old offset.
func (t *Table) VarRealloc(v *Variable, newType *types.Type) {
	v.Type = newType
	if !v.IsGlobal && t.top != nil {
		*t.top.maxOffset += newType.Size
		v.Offset = *t.top.maxOffset
	}
}

// AddVarWithCheck declares name with compatibility rules matching repeated
// global declarations: an identical, not-yet-initialized redeclaration is
// accepted as the same Variable; a bare "T[]"/"T*" may be upgraded in
// place to "T[N]" by a later sized declaration; anything else is an error.
func (t *Table) AddVarWithCheck(typ *types.Type, name string) (*Variable, error) {
	existing, ok := t.FindVarInCurrentFrame(name)
	if !ok && t.top == nil {
		existing, ok = findIn(t.globals, name)
	}
	if !ok {
		if t.top != nil {
			return t.AddVar(name, typ), nil
		}
		return t.AddGlobal(name, typ), nil
	}
	if existing.HasValue {
		return nil, fmt.Errorf("vars: %q already initialized", name)
	}
	switch {
	case sameShape(existing.Type, typ):
		return existing, nil
	case (existing.Type.Kind == types.Pointer ||
		existing.Type.Kind == types.Array && existing.Type.ArrayLen == 0) &&
		typ.Kind == types.Array && typ.PointsTo == existing.Type.PointsTo:
		existing.Type = typ
		return existing, nil
	default:
		return nil, fmt.Errorf("vars: %q redeclared with incompatible type", name)
	}
}

func sameShape(a, b *types.Type) bool {
	return a.Kind == b.Kind && a.PointsTo == b.PointsTo && a.ArrayLen == b.ArrayLen
}

// AddRegisterSaveArea reserves the six 8-byte integer-argument spill slots
// a variadic function's prologue needs for __builtin_va_start support, and
// returns the offset of the first slot (the one nearest the frame
// pointer); slot i lives at that offset plus 8*i below %rbp.
func (t *Table) AddRegisterSaveArea() int {
	const slots = 6
	*t.top.maxOffset += slots * 8
	return *t.top.maxOffset - slots*8 + 8
}
