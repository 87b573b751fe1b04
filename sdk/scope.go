package sdk

import (
	"fmt"

	"github.com/Doomsk/netqasm/lang/ir"
)

// Scope is an open control-flow region. Opening a scope emits its enter
// instructions; Close emits the exit labels and branches. Scopes close in
// strictly LIFO order; closing any other scope panics, since mismatched
// nesting would corrupt the label structure of the subroutine.
type Scope struct {
	builder   *Builder
	kind      string
	exitLabel ir.Label
	closeFn   func() error
	closed    bool
}

// ExitLabel returns the label that closing this scope will define.
func (s *Scope) ExitLabel() ir.Label { return s.exitLabel }

// Break jumps past the end of the scope. Inside a try scope this marks
// success.
func (s *Scope) Break() {
	s.builder.EmitJmp(s.exitLabel)
}

// Close ends the scope, emitting its exit instructions.
func (s *Scope) Close() error {
	b := s.builder
	if s.closed {
		panic(ScopeMisuse{Message: fmt.Sprintf("%s scope closed twice", s.kind)})
	}
	if len(b.scopes) == 0 || b.scopes[len(b.scopes)-1] != s {
		panic(ScopeMisuse{Message: fmt.Sprintf(
			"%s scope (exit %s) is not the innermost open scope", s.kind, s.exitLabel)})
	}
	b.scopes = b.scopes[:len(b.scopes)-1]
	s.closed = true
	return s.closeFn()
}

func (b *Builder) pushScope(kind string, exit ir.Label, closeFn func() error) *Scope {
	s := &Scope{builder: b, kind: kind, exitLabel: exit, closeFn: closeFn}
	b.scopes = append(b.scopes, s)
	return s
}

// ============================================================================
// Loop
// ============================================================================

// openLoop emits the loop prologue over [0, count) and returns the open
// scope plus the counter register. A nil pinned register allocates a
// fresh C register, released when the loop closes.
func (b *Builder) openLoop(count int, pinned *ir.Register) (*Scope, ir.Register, error) {
	var counter ir.Register
	var err error
	if pinned != nil {
		counter, err = b.regs.pin(*pinned)
	} else {
		counter, err = b.regs.alloc(ir.RoleC)
	}
	if err != nil {
		return nil, ir.Register{}, err
	}

	start := b.labels.fresh(labelLoopStart)
	exit := b.labels.fresh(labelLoopExit)

	b.EmitSet(counter, 0)
	b.EmitLabel(start)
	b.EmitBranch(ir.BEQ, []ir.Operand{counter, ir.Imm(count)}, exit)

	scope := b.pushScope("loop", exit, func() error {
		b.EmitAdd(counter, counter, ir.Imm(1))
		b.EmitJmp(start)
		b.EmitLabel(exit)
		b.regs.release(counter)
		return nil
	})
	return scope, counter, nil
}

// openTry emits a bounded retry loop. The body marks success by jumping
// to the scope's exit label via Break.
func (b *Builder) openTry(maxTries int) (*Scope, error) {
	counter, err := b.regs.alloc(ir.RoleC)
	if err != nil {
		return nil, err
	}

	start := b.labels.fresh(labelTryStart)
	exit := b.labels.fresh(labelTryExit)

	b.EmitSet(counter, 0)
	b.EmitLabel(start)
	b.EmitBranch(ir.BEQ, []ir.Operand{counter, ir.Imm(maxTries)}, exit)

	return b.pushScope("try", exit, func() error {
		b.EmitAdd(counter, counter, ir.Imm(1))
		b.EmitJmp(start)
		b.EmitLabel(exit)
		b.regs.release(counter)
		return nil
	}), nil
}

// openIfEqConst branches on two compile-time constants, loading both into
// scratch registers.
func (b *Builder) openIfEqConst(a, other int) (*Scope, error) {
	ra, err := b.regs.alloc(ir.RoleR)
	if err != nil {
		return nil, err
	}
	rb, err := b.regs.alloc(ir.RoleR)
	if err != nil {
		b.regs.release(ra)
		return nil, err
	}
	exit := b.labels.fresh(labelIfExit)
	b.EmitSet(ra, a)
	b.EmitSet(rb, other)
	b.EmitBranch(ir.BNE, []ir.Operand{ra, rb}, exit)
	b.regs.release(rb)
	b.regs.release(ra)

	return b.pushScope("if", exit, func() error {
		b.EmitLabel(exit)
		return nil
	}), nil
}
