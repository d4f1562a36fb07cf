// Package emit walks the atom pool for each defined function and writes
// x86-64 AT&T/GNU-as text implementing it, using a purely stack-based
// evaluation discipline and the SysV integer calling convention.
package emit

import (
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/rcc-lang/rcc/internal/atom"
	"github.com/rcc-lang/rcc/internal/funcs"
	"github.com/rcc-lang/rcc/internal/strpool"
)

var argRegs8 = [6]string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}
var argRegs4 = [6]string{"%edi", "%esi", "%edx", "%ecx", "%r8d", "%r9d"}

// Emitter writes assembly text for a whole translation unit.
type Emitter struct {
	w            io.Writer
	atoms        *atom.Pool
	strings      *strpool.Strings
	arrays       *strpool.Arrays
	labelCounter int

	// AnnotateAtoms emits a trailing "# atom @N" comment after the code of
	// each compiled atom, for cross-referencing with the `rcc atoms` dump.
	AnnotateAtoms bool

	returnLabel int
	breakStack  []int
	contStack   []int
}

// New constructs an Emitter writing to w.
func New(w io.Writer, atoms *atom.Pool, strs *strpool.Strings, arrs *strpool.Arrays) *Emitter {
	return &Emitter{w: w, atoms: atoms, strings: strs, arrays: arrs}
}

func (e *Emitter) out(s string)                 { fmt.Fprintf(e.w, "\t%s\n", s) }
func (e *Emitter) outf(format string, a ...any)  { e.out(fmt.Sprintf(format, a...)) }
func (e *Emitter) label(s string)               { fmt.Fprintf(e.w, "%s:\n", s) }
func (e *Emitter) raw(s string)                 { fmt.Fprintf(e.w, "%s\n", s) }

func (e *Emitter) newLabel() int {
	e.labelCounter++
	return e.labelCounter
}

func (e *Emitter) labelName(n int) string { return fmt.Sprintf(".L%d", n) }

// Emit writes the full translation unit: file directive, .rodata for every
// interned string and array, then .text for every defined function.
func (e *Emitter) Emit(fileName string, fs *funcs.Table) error {
	e.raw(fmt.Sprintf(".file\t%q", fileName))
	e.raw("")

	e.raw(".section\t.rodata")
	for i, s := range e.strings.All() {
		e.label(fmt.Sprintf(".LC%d", i))
		e.raw(fmt.Sprintf("\t.string\t%q", s))
	}
	for i, vals := range e.arrays.All() {
		e.label(fmt.Sprintf(".LA%d", i))
		for _, v := range vals {
			e.raw(fmt.Sprintf("\t.long\t%d", v))
		}
	}
	e.raw("")
	e.raw(".text")
	e.raw("")

	for _, f := range lo.Filter(fs.All(), func(f *funcs.Function, _ int) bool { return f.Body != 0 }) {
		if err := e.compileFunc(f); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) compileFunc(f *funcs.Function) error {
	e.returnLabel = e.newLabel()

	e.raw(".globl\t" + f.Name)
	e.raw(".type\t" + f.Name + ", @function")
	e.label(f.Name)
	e.out("pushq\t%rbp")
	e.out("movq\t%rsp, %rbp")
	e.outf("subq\t$%d, %%rsp", f.MaxOffset)

	for i, v := range f.Args {
		if i >= 6 {
			break // 7th+ argument is stack-spilled by the caller; reserved, untested
		}
		reg := argRegs4[i]
		mov := "movl"
		if v.Type.Size == 8 {
			reg = argRegs8[i]
			mov = "movq"
		}
		e.outf("%s\t%s, -%d(%%rbp)", mov, reg, v.Offset)
	}
	if f.IsVariadic {
		for i := 0; i < 6; i++ {
			e.outf("movq\t%s, -%d(%%rbp)", argRegs8[i], f.RegSaveOffset+i*8)
		}
	}

	if err := e.compile(atom.Index(f.Body)); err != nil {
		return err
	}

	e.out("xor\t%eax, %eax")
	e.label(e.labelName(e.returnLabel))
	e.out("leave")
	e.out("ret")
	e.raw("")
	return nil
}

func (e *Emitter) compile(i atom.Index) error {
	if i == 0 {
		return nil
	}
	a := e.atoms.Get(i)
	if e.AnnotateAtoms {
		defer e.raw(fmt.Sprintf("\t# atom @%d", i))
	}

	switch a.Op {
	case atom.Nop:
		return nil

	case atom.IntegerLit:
		e.outf("movl\t$%d, %%eax", a.IntVal)
		e.out("pushq\t%rax")
		return nil
	case atom.LongLit:
		e.outf("movq\t$%d, %%rax", a.LongVal)
		e.out("pushq\t%rax")
		return nil
	case atom.StringLit:
		e.outf("movl\t$.LC%d, %%eax", a.StrID-1)
		e.out("pushq\t%rax")
		return nil

	case atom.VarRef:
		return e.emitVarRef(a)
	case atom.VarVal:
		return e.emitVarVal(a)

	case atom.Bind:
		if err := e.compile(a.Ref); err != nil {
			return err
		}
		if err := e.compile(e.atoms.Arg(i, 1)); err != nil {
			return err
		}
		e.emitCopy(a.Type.Size)
		return nil

	case atom.Ptr:
		return e.compile(a.Ref)
	case atom.PtrDeref:
		if err := e.compile(a.Ref); err != nil {
			return err
		}
		e.emitDeref(a.Type.Size)
		return nil
	case atom.ArrayIndex:
		// address-producing: AtomToRvalue wraps it in PtrDeref for its value
		return e.compile(a.Ref)

	case atom.Neg:
		if err := e.compile(a.Ref); err != nil {
			return err
		}
		e.out("popq\t%rax")
		e.out("negl\t%eax")
		e.out("pushq\t%rax")
		return nil
	case atom.BitNot:
		if err := e.compile(a.Ref); err != nil {
			return err
		}
		e.out("popq\t%rax")
		e.out("notl\t%eax")
		e.out("pushq\t%rax")
		return nil
	case atom.LogNot:
		if err := e.compile(a.Ref); err != nil {
			return err
		}
		e.out("popq\t%rdx")
		e.out("xorq\t%rax, %rax")
		e.out("orl\t%edx, %edx")
		e.out("setz\t%al")
		e.out("pushq\t%rax")
		return nil

	case atom.Add, atom.Sub, atom.Mul, atom.Div, atom.Mod,
		atom.BitAnd, atom.BitOr, atom.BitXor, atom.Lshift, atom.Rshift,
		atom.EqEq, atom.EqNe, atom.EqLt, atom.EqLe, atom.EqGt, atom.EqGe,
		atom.LogAnd, atom.LogOr:
		if err := e.compile(a.Ref); err != nil {
			return err
		}
		if err := e.compile(e.atoms.Arg(i, 1)); err != nil {
			return err
		}
		e.emitBinOp(a.Op)
		return nil

	case atom.PostfixInc, atom.PostfixDec:
		return e.emitPostfix(i, a)

	case atom.Cast:
		return e.compile(a.Ref)

	case atom.Ternary:
		return e.compileTernary(i, a)

	case atom.Apply:
		return e.compileApply(i, a)

	case atom.ExprStatement:
		if err := e.compile(a.Ref); err != nil {
			return err
		}
		e.out("popq\t%rax")
		return nil
	case atom.AndThen:
		if err := e.compile(a.Ref); err != nil {
			return err
		}
		return e.compile(e.atoms.Arg(i, 1))

	case atom.If:
		return e.compileIf(i, a)
	case atom.For:
		return e.compileFor(i, a)
	case atom.While:
		return e.compileWhile(i, a)
	case atom.DoWhile:
		return e.compileDoWhile(i, a)
	case atom.Switch:
		return e.compileSwitch(i, a)
	case atom.Case:
		return e.compile(e.atoms.Arg(i, 1))
	case atom.Default:
		return e.compile(a.Ref)
	case atom.Break:
		if len(e.breakStack) == 0 {
			return fmt.Errorf("emit: break with no enclosing loop/switch")
		}
		e.outf("jmp\t%s", e.labelName(e.breakStack[len(e.breakStack)-1]))
		return nil
	case atom.Continue:
		if len(e.contStack) == 0 {
			return fmt.Errorf("emit: continue with no enclosing loop")
		}
		e.outf("jmp\t%s", e.labelName(e.contStack[len(e.contStack)-1]))
		return nil
	case atom.Return:
		if a.Ref != 0 {
			if err := e.compile(a.Ref); err != nil {
				return err
			}
			e.out("popq\t%rax")
		}
		e.outf("jmp\t%s", e.labelName(e.returnLabel))
		return nil

	default:
		return fmt.Errorf("emit: unhandled atom op %v", a.Op)
	}
}
