// Package sdk is the application-facing surface of the SDK: qubit and
// classical-memory handles, futures, control-flow scopes, EPR sockets and
// the connection that owns the subroutine builder.
//
// Application code manipulates handles; every operation is recorded by the
// builder as generic instructions in the pending pre-subroutine, which is
// handed to the runtime when the connection flushes.
package sdk

import (
	"github.com/go-logr/logr"

	"github.com/Doomsk/netqasm/lang/ir"
)

// gateTarget is the operand a gate lowers against: an immediate virtual
// qubit ID, or a future whose value is loaded from an array cell at run
// time (register-indirect, used inside synthesized EPR loops).
type gateTarget struct {
	id     int
	future *Future
}

func immediateTarget(id int) gateTarget { return gateTarget{id: id} }

// Builder accumulates the pending pre-subroutine. It owns the symbolic
// allocators, the active-qubit set and the scope stack, and is the single
// source of truth for everything the handles mutate.
type Builder struct {
	log     logr.Logger
	appName string

	regs     *registerAllocator
	qubitIDs *idPool
	labels   labelAllocator

	nextArrayAddress int

	commands        []ir.Command
	arrays          []ir.ArrayDecl
	pinnedRegisters []ir.Register

	activeQubits map[int]*Qubit
	scopes       []*Scope

	// returnArrays controls whether declared arrays are handed back to
	// the controlling runtime at the end of the subroutine.
	returnArrays bool
}

func newBuilder(appName string, log logr.Logger) *Builder {
	return &Builder{
		log:          log,
		appName:      appName,
		regs:         newRegisterAllocator(),
		qubitIDs:     newIDPool("virtual qubit ID", maxVirtualQubits),
		activeQubits: map[int]*Qubit{},
		returnArrays: true,
	}
}

// ============================================================================
// Emit primitives
// ============================================================================

func (b *Builder) emit(instr ir.GenericInstr, operands ...ir.Operand) {
	cmd := ir.NewICmd(instr, operands...)
	b.log.V(1).Info("emit", "cmd", cmd.String())
	b.commands = append(b.commands, cmd)
}

// EmitSet loads an immediate into a register.
func (b *Builder) EmitSet(reg ir.Register, value int) {
	b.emit(ir.SET, reg, ir.Imm(value))
}

// EmitAdd emits dst = a + other.
func (b *Builder) EmitAdd(dst ir.Register, a ir.Register, other ir.Operand) {
	b.emit(ir.ADD, dst, a, other)
}

// EmitStore writes a register into an array cell.
func (b *Builder) EmitStore(src ir.Register, cell ir.ArrayEntry) {
	b.emit(ir.STORE, src, cell)
}

// EmitLoad reads an array cell into a register.
func (b *Builder) EmitLoad(dst ir.Register, cell ir.ArrayEntry) {
	b.emit(ir.LOAD, dst, cell)
}

// EmitBranch emits a conditional branch; operands exclude the target.
func (b *Builder) EmitBranch(instr ir.GenericInstr, operands []ir.Operand, target ir.Label) {
	b.emit(instr, append(operands, target)...)
}

// EmitJmp emits an unconditional jump.
func (b *Builder) EmitJmp(target ir.Label) {
	b.emit(ir.JMP, target)
}

// EmitLabel defines a branch label at the current position.
func (b *Builder) EmitLabel(name ir.Label) {
	b.commands = append(b.commands, &ir.BranchLabel{Name: name})
}

// ============================================================================
// Qubit lowering
// ============================================================================

// NewQubitID hands out a fresh virtual qubit ID. IDs recycle once their
// owner frees them; among active qubits they are unique.
func (b *Builder) NewQubitID() (int, error) {
	return b.qubitIDs.alloc()
}

// acquireQubitReg binds a Q register to the target's virtual qubit ID,
// either from an immediate or by loading it from the backing array cell.
// The caller releases the register after the gate emit.
func (b *Builder) acquireQubitReg(target gateTarget) (ir.Register, error) {
	reg, err := b.regs.alloc(ir.RoleQ)
	if err != nil {
		return ir.Register{}, err
	}
	if target.future != nil {
		if err := target.future.loadInto(reg); err != nil {
			b.regs.release(reg)
			return ir.Register{}, err
		}
	} else {
		b.EmitSet(reg, target.id)
	}
	return reg, nil
}

// AddNewQubitCommands allocates and initializes a fresh qubit in the
// quantum node controller.
func (b *Builder) AddNewQubitCommands(qubitID int) error {
	reg, err := b.acquireQubitReg(immediateTarget(qubitID))
	if err != nil {
		return err
	}
	b.emit(ir.QALLOC, reg)
	b.emit(ir.INIT, reg)
	b.regs.release(reg)
	return nil
}

// AddInitQubitCommands resets a qubit to |0>.
func (b *Builder) AddInitQubitCommands(qubitID int) error {
	reg, err := b.acquireQubitReg(immediateTarget(qubitID))
	if err != nil {
		return err
	}
	b.emit(ir.INIT, reg)
	b.regs.release(reg)
	return nil
}

// AddQFreeCommands returns a qubit to the controller.
func (b *Builder) AddQFreeCommands(qubitID int) error {
	reg, err := b.acquireQubitReg(immediateTarget(qubitID))
	if err != nil {
		return err
	}
	b.emit(ir.QFREE, reg)
	b.regs.release(reg)
	return nil
}

// AddSingleQubitCommands emits a single-qubit gate.
func (b *Builder) AddSingleQubitCommands(instr ir.GenericInstr, target gateTarget) error {
	reg, err := b.acquireQubitReg(target)
	if err != nil {
		return err
	}
	b.emit(instr, reg)
	b.regs.release(reg)
	return nil
}

// AddTwoQubitCommands emits a controlled two-qubit gate.
func (b *Builder) AddTwoQubitCommands(instr ir.GenericInstr, control, target gateTarget) error {
	creg, err := b.acquireQubitReg(control)
	if err != nil {
		return err
	}
	treg, err := b.acquireQubitReg(target)
	if err != nil {
		b.regs.release(creg)
		return err
	}
	b.emit(instr, creg, treg)
	b.regs.release(treg)
	b.regs.release(creg)
	return nil
}

// AddSingleQubitRotationCommands emits a rotation of n*pi/2^d. When angle
// is non-nil, n and d are ignored and the angle is approximated by a
// sequence of such rotations.
func (b *Builder) AddSingleQubitRotationCommands(
	instr ir.GenericInstr, target gateTarget, n, d int, angle *float64,
) error {
	steps := []rotationStep{{n: n, d: d}}
	if angle != nil {
		steps = angleSpecFromFloat(*angle)
	}
	reg, err := b.acquireQubitReg(target)
	if err != nil {
		return err
	}
	for _, step := range steps {
		b.emit(instr, reg, ir.Imm(step.n), ir.Imm(step.d))
	}
	b.regs.release(reg)
	return nil
}

// AddMeasureCommands measures the target qubit, frees it unless inplace,
// and stores the outcome into the future's backing cell or register.
func (b *Builder) AddMeasureCommands(target gateTarget, future *Future, inplace bool) error {
	qreg, err := b.acquireQubitReg(target)
	if err != nil {
		return err
	}
	outcome, err := b.regs.alloc(ir.RoleM)
	if err != nil {
		b.regs.release(qreg)
		return err
	}
	b.emit(ir.MEAS, qreg, outcome)
	if !inplace {
		b.emit(ir.QFREE, qreg)
	}
	b.regs.release(qreg)

	switch future.kind {
	case futureArrayCell:
		b.EmitStore(outcome, future.cell())
		b.regs.release(outcome)
	case futureRegister:
		future.bind(outcome)
		b.pinRegister(outcome)
	}
	return nil
}

// pinRegister declares a register to be returned to the runtime.
func (b *Builder) pinRegister(reg ir.Register) {
	b.pinnedRegisters = append(b.pinnedRegisters, reg)
}

// ============================================================================
// Arrays
// ============================================================================

// NewArray declares a fresh array of the given length in the node's
// classical memory.
func (b *Builder) NewArray(length int) (*Array, error) {
	address := ir.Address(b.nextArrayAddress)
	b.nextArrayAddress++
	b.emit(ir.ARRAY, ir.Imm(length), address)
	b.arrays = append(b.arrays, ir.ArrayDecl{Address: address, Length: length})
	return &Array{builder: b, address: address, length: length}, nil
}

// writeImmediate stores an immediate into an array cell through a scratch
// register.
func (b *Builder) writeImmediate(value int, cell ir.ArrayEntry) error {
	reg, err := b.regs.alloc(ir.RoleR)
	if err != nil {
		return err
	}
	b.EmitSet(reg, value)
	b.EmitStore(reg, cell)
	b.regs.release(reg)
	return nil
}

// ============================================================================
// Active-qubit set
// ============================================================================

func (b *Builder) activateQubit(q *Qubit) {
	if q.target.future != nil {
		return // future qubits have no lifecycle in the active set
	}
	b.activeQubits[q.target.id] = q
}

func (b *Builder) deactivateQubit(q *Qubit) {
	if q.target.future != nil {
		return
	}
	delete(b.activeQubits, q.target.id)
	b.qubitIDs.release(q.target.id)
}

// ActiveQubitIDs returns the virtual IDs of all active qubits, for leak
// diagnostics.
func (b *Builder) ActiveQubitIDs() []int {
	ids := make([]int, 0, len(b.activeQubits))
	for id := range b.activeQubits {
		ids = append(ids, id)
	}
	return ids
}

// ============================================================================
// Pending subroutine
// ============================================================================

// PopPendingSubroutine appends the return declarations, validates the
// accumulated commands, and returns them as a pre-subroutine. The
// builder's pending state is reset so a new subroutine can be built;
// active qubits keep their virtual IDs across subroutines.
func (b *Builder) PopPendingSubroutine() (*ir.PreSubroutine, error) {
	var problems []string
	if len(b.scopes) > 0 {
		problems = append(problems, "open control-flow scope at subroutine end")
	}

	var returnArrays []ir.Address
	if b.returnArrays {
		for _, decl := range b.arrays {
			b.emit(ir.RET_ARR, decl.Address)
			returnArrays = append(returnArrays, decl.Address)
		}
	}
	for _, reg := range b.pinnedRegisters {
		b.emit(ir.RET_REG, reg)
	}

	subroutine := &ir.PreSubroutine{
		AppName:         b.appName,
		Commands:        b.commands,
		Arrays:          b.arrays,
		ReturnRegisters: b.pinnedRegisters,
		ReturnArrays:    returnArrays,
	}
	problems = append(problems, subroutine.Validate()...)

	b.commands = nil
	b.arrays = nil
	b.pinnedRegisters = nil
	b.nextArrayAddress = 0
	b.labels = labelAllocator{}
	b.regs = newRegisterAllocator()
	b.scopes = nil

	if len(problems) > 0 {
		return subroutine, &IRInconsistencyError{Problems: problems}
	}
	return subroutine, nil
}

// PendingCommandCount reports how many commands the pending subroutine
// holds.
func (b *Builder) PendingCommandCount() int { return len(b.commands) }
