package sdk

import (
	"fmt"

	"github.com/Doomsk/netqasm/lang/ir"
)

// futureKind tags where a future's value lives.
type futureKind uint8

const (
	// futureArrayCell futures are backed by one array cell; the index
	// may itself be a register for loop-varying access.
	futureArrayCell futureKind = iota
	// futureRegister futures live in a register only.
	futureRegister
)

// Future is a deferred classical scalar, typically a measurement outcome
// that only materializes once the subroutine runs. Reading emits a LOAD,
// writing emits a STORE; comparison scopes branch on the loaded value.
type Future struct {
	builder *Builder
	kind    futureKind

	// array cell backing
	array *Array
	index ir.Operand

	// register backing
	reg   ir.Register
	bound bool
}

// NewRegFuture creates a register-backed future. The register is assigned
// when a value is first written into the future (e.g. by a measurement).
func NewRegFuture(conn *Connection) *Future {
	return &Future{builder: conn.builder, kind: futureRegister}
}

func newArrayFuture(b *Builder, array *Array, index ir.Operand) *Future {
	return &Future{builder: b, kind: futureArrayCell, array: array, index: index}
}

func (f *Future) cell() ir.ArrayEntry {
	return ir.ArrayEntry{Array: f.array.address, Index: f.index}
}

func (f *Future) bind(reg ir.Register) {
	f.reg = reg
	f.bound = true
}

// Register returns the backing register of a register future.
func (f *Future) Register() (ir.Register, bool) {
	if f.kind != futureRegister || !f.bound {
		return ir.Register{}, false
	}
	return f.reg, true
}

// loadInto emits the LOAD of an array-cell future into the given register.
func (f *Future) loadInto(reg ir.Register) error {
	if f.kind != futureArrayCell {
		return fmt.Errorf("future is not backed by an array cell")
	}
	f.builder.EmitLoad(reg, f.cell())
	return nil
}

// Read loads the future's value into a fresh scratch register and returns
// it. Register futures return their backing register directly.
func (f *Future) Read() (ir.Register, error) {
	if f.kind == futureRegister {
		if !f.bound {
			return ir.Register{}, fmt.Errorf("future has no value yet")
		}
		return f.reg, nil
	}
	reg, err := f.builder.regs.alloc(ir.RoleR)
	if err != nil {
		return ir.Register{}, err
	}
	if err := f.loadInto(reg); err != nil {
		f.builder.regs.release(reg)
		return ir.Register{}, err
	}
	return reg, nil
}

// Store writes a register into the future's backing array cell.
func (f *Future) Store(src ir.Register) error {
	if f.kind != futureArrayCell {
		return fmt.Errorf("future is not backed by an array cell")
	}
	f.builder.EmitStore(src, f.cell())
	return nil
}

// branchValue puts the future's value into a register for a branch. The
// returned release flag tells the caller whether the register is scratch.
func (f *Future) branchValue() (ir.Register, bool, error) {
	if f.kind == futureRegister {
		if !f.bound {
			return ir.Register{}, false, fmt.Errorf("future has no value yet")
		}
		return f.reg, false, nil
	}
	reg, err := f.Read()
	if err != nil {
		return ir.Register{}, false, err
	}
	return reg, true, nil
}

// openIfScope loads the future and emits the inverse branch to a fresh
// exit label: the branch fires exactly when the predicate is false, so
// the scope body runs when it is true.
func (f *Future) openIfScope(inverse ir.GenericInstr, extra []ir.Operand) (*Scope, error) {
	reg, scratch, err := f.branchValue()
	if err != nil {
		return nil, err
	}
	b := f.builder
	exit := b.labels.fresh(labelIfExit)
	b.EmitBranch(inverse, append([]ir.Operand{reg}, extra...), exit)
	if scratch {
		b.regs.release(reg)
	}
	return b.pushScope("if", exit, func() error {
		b.EmitLabel(exit)
		return nil
	}), nil
}

// IfEq opens a scope whose body runs when the future equals value.
func (f *Future) IfEq(value int) (*Scope, error) {
	return f.openIfScope(ir.BNE, []ir.Operand{ir.Imm(value)})
}

// IfNe opens a scope whose body runs when the future differs from value.
func (f *Future) IfNe(value int) (*Scope, error) {
	return f.openIfScope(ir.BEQ, []ir.Operand{ir.Imm(value)})
}

// IfEz opens a scope whose body runs when the future is zero.
func (f *Future) IfEz() (*Scope, error) {
	return f.openIfScope(ir.BNZ, nil)
}

// IfNz opens a scope whose body runs when the future is non-zero.
func (f *Future) IfNz() (*Scope, error) {
	return f.openIfScope(ir.BEZ, nil)
}
