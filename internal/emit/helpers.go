package emit

import (
	"github.com/rcc-lang/rcc/internal/atom"
)

func (e *Emitter) emitVarRef(a *atom.Atom) error {
	if a.Var.IsGlobal {
		e.outf("movl\t$%s, %%eax", a.Var.Name)
	} else {
		e.outf("leaq\t-%d(%%rbp), %%rax", a.Var.Offset)
	}
	e.out("pushq\t%rax")
	return nil
}

func (e *Emitter) emitVarVal(a *atom.Atom) error {
	size := a.Var.Type.Size
	mov, reg := "movl", "%eax"
	if size == 8 {
		mov, reg = "movq", "%rax"
	}
	if a.Var.IsGlobal {
		e.outf("%s\t%s(%%rip), %s", mov, a.Var.Name, reg)
	} else {
		e.outf("%s\t-%d(%%rbp), %s", mov, a.Var.Offset, reg)
	}
	e.out("pushq\t%rax")
	return nil
}

func (e *Emitter) emitCopy(size int) {
	e.out("popq\t%rax") // address
	e.out("popq\t%rdx") // value
	if size == 8 {
		e.out("movq\t%rdx, (%rax)")
	} else {
		e.out("movl\t%edx, (%rax)")
	}
	e.out("pushq\t%rdx")
}

func (e *Emitter) emitDeref(size int) {
	e.out("popq\t%rax")
	if size == 8 {
		e.out("movq\t(%rax), %rax")
	} else {
		e.out("movl\t(%rax), %eax")
	}
	e.out("pushq\t%rax")
}

func (e *Emitter) emitBinOp(op atom.Op) {
	switch op {
	case atom.Add:
		e.out("popq\t%rdx")
		e.out("popq\t%rax")
		e.out("addl\t%edx, %eax")
		e.out("pushq\t%rax")
	case atom.Sub:
		e.out("popq\t%rdx")
		e.out("popq\t%rax")
		e.out("subl\t%edx, %eax")
		e.out("pushq\t%rax")
	case atom.Mul:
		e.out("popq\t%rdx")
		e.out("popq\t%rax")
		e.out("imull\t%edx, %eax")
		e.out("pushq\t%rax")
	case atom.Div:
		e.out("popq\t%rcx")
		e.out("popq\t%rax")
		e.out("cdq")
		e.out("idivl\t%ecx")
		e.out("pushq\t%rax")
	case atom.Mod:
		e.out("popq\t%rcx")
		e.out("popq\t%rax")
		e.out("cdq")
		e.out("idivl\t%ecx")
		e.out("pushq\t%rdx")
	case atom.BitAnd:
		e.out("popq\t%rdx")
		e.out("popq\t%rax")
		e.out("andl\t%edx, %eax")
		e.out("pushq\t%rax")
	case atom.BitOr:
		e.out("popq\t%rdx")
		e.out("popq\t%rax")
		e.out("orl\t%edx, %eax")
		e.out("pushq\t%rax")
	case atom.BitXor:
		e.out("popq\t%rdx")
		e.out("popq\t%rax")
		e.out("xorl\t%edx, %eax")
		e.out("pushq\t%rax")
	case atom.Lshift:
		e.out("popq\t%rcx")
		e.out("popq\t%rax")
		e.out("sall\t%cl, %eax")
		e.out("pushq\t%rax")
	case atom.Rshift:
		e.out("popq\t%rcx")
		e.out("popq\t%rax")
		e.out("sarl\t%cl, %eax")
		e.out("pushq\t%rax")
	case atom.EqEq:
		e.emitCompare("sete")
	case atom.EqNe:
		e.emitCompare("setne")
	case atom.EqLt:
		e.emitCompare("setl")
	case atom.EqLe:
		e.emitCompare("setle")
	case atom.EqGt:
		e.emitCompare("setg")
	case atom.EqGe:
		e.emitCompare("setge")
	case atom.LogAnd:
		e.out("popq\t%rdx")
		e.out("popq\t%rcx")
		e.out("xorl\t%eax, %eax")
		e.out("orl\t%ecx, %ecx")
		e.out("setne\t%al")
		e.out("xorl\t%ecx, %ecx")
		e.out("orl\t%edx, %edx")
		e.out("setne\t%cl")
		e.out("andl\t%ecx, %eax")
		e.out("pushq\t%rax")
	case atom.LogOr:
		e.out("popq\t%rdx")
		e.out("popq\t%rax")
		e.out("orl\t%edx, %eax")
		e.out("setne\t%al")
		e.out("movzbl\t%al, %eax")
		e.out("pushq\t%rax")
	}
}

func (e *Emitter) emitCompare(set string) {
	e.out("popq\t%rdx")
	e.out("popq\t%rcx")
	e.out("xorl\t%eax, %eax")
	e.out("subl\t%edx, %ecx")
	e.outf("%s\t%%al", set)
	e.out("pushq\t%rax")
}

func (e *Emitter) emitPostfix(i atom.Index, a *atom.Atom) error {
	if err := e.compile(a.Ref); err != nil {
		return err
	}
	e.emitDeref(a.Type.Size)
	// keep the loaded value as the result, then store the incremented/
	// decremented value back through the lvalue address recomputed from the
	// same ref.
	e.out("movq\t(%rsp), %rax")
	if a.Op == atom.PostfixInc {
		e.out("addl\t$1, %eax")
	} else {
		e.out("subl\t$1, %eax")
	}
	e.out("pushq\t%rax")
	if err := e.compile(a.Ref); err != nil {
		return err
	}
	e.emitCopy(a.Type.Size)
	e.out("popq\t%rax") // discard stored-value copy, leaving the pre-op value on top
	return nil
}

func (e *Emitter) compileTernary(i atom.Index, a *atom.Atom) error {
	lElse := e.newLabel()
	lEnd := e.newLabel()
	if err := e.compile(a.Ref); err != nil {
		return err
	}
	e.out("popq\t%rax")
	e.out("orl\t%eax, %eax")
	e.outf("jz\t%s", e.labelName(lElse))
	if err := e.compile(e.atoms.Arg(i, 1)); err != nil {
		return err
	}
	e.outf("jmp\t%s", e.labelName(lEnd))
	e.label(e.labelName(lElse))
	if err := e.compile(e.atoms.Arg(i, 2)); err != nil {
		return err
	}
	e.label(e.labelName(lEnd))
	return nil
}

func (e *Emitter) compileApply(i atom.Index, a *atom.Atom) error {
	f := a.Func
	n := len(f.Args)
	if f.IsVariadic {
		n = countArgs(e, i)
	}
	for k := 0; k < n; k++ {
		if err := e.compile(e.atoms.Arg(i, 1+k)); err != nil {
			return err
		}
	}
	for k := n - 1; k >= 0; k-- {
		if k < 6 {
			e.outf("popq\t%s", argRegs8[k])
		}
	}
	if f.IsVariadic {
		e.out("movb\t$0, %al")
	}
	e.outf("call\t%s", f.Name)
	e.out("pushq\t%rax")
	return nil
}

func countArgs(e *Emitter, head atom.Index) int {
	n := 0
	for {
		a := e.atoms.Get(head + atom.Index(1+n))
		if a.Op != atom.Arg {
			break
		}
		n++
	}
	return n
}

func (e *Emitter) compileIf(i atom.Index, a *atom.Atom) error {
	hasElse := e.atoms.Arg(i, 2) != 0
	lEnd := e.newLabel()
	lElse := e.newLabel()

	if err := e.compile(a.Ref); err != nil {
		return err
	}
	e.out("popq\t%rax")
	e.out("orl\t%eax, %eax")
	target := lEnd
	if hasElse {
		target = lElse
	}
	e.outf("jz\t%s", e.labelName(target))

	if err := e.compile(e.atoms.Arg(i, 1)); err != nil {
		return err
	}
	if hasElse {
		e.outf("jmp\t%s", e.labelName(lEnd))
		e.label(e.labelName(lElse))
		if err := e.compile(e.atoms.Arg(i, 2)); err != nil {
			return err
		}
	}
	e.label(e.labelName(lEnd))
	return nil
}

func (e *Emitter) compileFor(i atom.Index, a *atom.Atom) error {
	lBody := e.newLabel()
	lCont := e.newLabel()
	lEnd := e.newLabel()

	if err := e.compile(e.atoms.Arg(i, 2)); err != nil { // init
		return err
	}
	e.label(e.labelName(lBody))
	if err := e.compile(a.Ref); err != nil { // cond
		return err
	}
	e.out("popq\t%rax")
	e.out("orl\t%eax, %eax")
	e.outf("jz\t%s", e.labelName(lEnd))

	e.breakStack = append(e.breakStack, lEnd)
	e.contStack = append(e.contStack, lCont)
	err := e.compile(e.atoms.Arg(i, 1)) // body
	e.breakStack = e.breakStack[:len(e.breakStack)-1]
	e.contStack = e.contStack[:len(e.contStack)-1]
	if err != nil {
		return err
	}

	e.label(e.labelName(lCont))
	if err := e.compile(e.atoms.Arg(i, 3)); err != nil { // post
		return err
	}
	e.outf("jmp\t%s", e.labelName(lBody))
	e.label(e.labelName(lEnd))
	return nil
}

func (e *Emitter) compileWhile(i atom.Index, a *atom.Atom) error {
	lBody := e.newLabel()
	lEnd := e.newLabel()
	e.label(e.labelName(lBody))
	if err := e.compile(a.Ref); err != nil {
		return err
	}
	e.out("popq\t%rax")
	e.out("orl\t%eax, %eax")
	e.outf("jz\t%s", e.labelName(lEnd))

	e.breakStack = append(e.breakStack, lEnd)
	e.contStack = append(e.contStack, lBody)
	err := e.compile(e.atoms.Arg(i, 1))
	e.breakStack = e.breakStack[:len(e.breakStack)-1]
	e.contStack = e.contStack[:len(e.contStack)-1]
	if err != nil {
		return err
	}
	e.outf("jmp\t%s", e.labelName(lBody))
	e.label(e.labelName(lEnd))
	return nil
}

func (e *Emitter) compileDoWhile(i atom.Index, a *atom.Atom) error {
	lBody := e.newLabel()
	lCond := e.newLabel()
	lEnd := e.newLabel()
	e.label(e.labelName(lBody))

	e.breakStack = append(e.breakStack, lEnd)
	e.contStack = append(e.contStack, lCond)
	err := e.compile(a.Ref)
	e.breakStack = e.breakStack[:len(e.breakStack)-1]
	e.contStack = e.contStack[:len(e.contStack)-1]
	if err != nil {
		return err
	}

	e.label(e.labelName(lCond))
	if err := e.compile(e.atoms.Arg(i, 1)); err != nil {
		return err
	}
	e.out("popq\t%rax")
	e.out("orl\t%eax, %eax")
	e.outf("jnz\t%s", e.labelName(lBody))
	e.label(e.labelName(lEnd))
	return nil
}

// compileSwitch spills the scrutinee to a temp and lowers each case clause
// as a compare-and-jump, in source order, falling through absent a break.
func (e *Emitter) compileSwitch(i atom.Index, a *atom.Atom) error {
	if err := e.compile(a.Ref); err != nil {
		return err
	}
	e.out("popq\t%rax")
	lEnd := e.newLabel()
	e.breakStack = append(e.breakStack, lEnd)
	err := e.compileSwitchBody(e.atoms.Arg(i, 1))
	e.breakStack = e.breakStack[:len(e.breakStack)-1]
	if err != nil {
		return err
	}
	e.label(e.labelName(lEnd))
	return nil
}

// compileSwitchBody walks the switch body's AndThen chain, comparing %eax
// (the scrutinee, held live across case dispatch) against each Case's
// constant and falling through into Default otherwise.
func (e *Emitter) compileSwitchBody(i atom.Index) error {
	if i == 0 {
		return nil
	}
	a := e.atoms.Get(i)
	switch a.Op {
	case atom.AndThen:
		if err := e.compileSwitchBody(a.Ref); err != nil {
			return err
		}
		return e.compileSwitchBody(e.atoms.Arg(i, 1))
	case atom.Case:
		valAtom := e.atoms.Get(a.Ref)
		lSkip := e.newLabel()
		e.outf("cmpl\t$%d, %%eax", valAtom.IntVal)
		e.outf("jne\t%s", e.labelName(lSkip))
		if err := e.compile(e.atoms.Arg(i, 1)); err != nil {
			return err
		}
		e.label(e.labelName(lSkip))
		return nil
	case atom.Default:
		return e.compile(a.Ref)
	default:
		return e.compile(i)
	}
}
