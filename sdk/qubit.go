package sdk

import (
	"fmt"

	"github.com/Doomsk/netqasm/lang/ir"
)

// EntInfo describes the entanglement a qubit was produced with. The
// classical fields are futures over the entanglement-info array the link
// layer fills in; the remote node ID is known at build time from the EPR
// socket.
type EntInfo struct {
	RemoteNodeID   int
	SequenceNumber *Future
	Goodness       *Future
	BellState      *Future
}

// Qubit is a handle to a qubit allocated in the quantum node. The handle
// identifies the qubit by its virtual ID; the mapping to a physical qubit
// is the node controller's concern.
//
// Gate and measurement calls are recorded by the builder as instructions
// in the pending subroutine. A handle whose qubit has been freed (by a
// destructive measurement or Free) is inactive and rejects further
// operations.
type Qubit struct {
	conn   *Connection
	target gateTarget
	active bool

	entInfo    *EntInfo
	remoteNode string
}

// NewQubit allocates a fresh qubit in the node, emitting its allocation
// and initialization.
func NewQubit(conn *Connection) (*Qubit, error) {
	b := conn.builder
	id, err := b.NewQubitID()
	if err != nil {
		return nil, err
	}
	if err := b.AddNewQubitCommands(id); err != nil {
		return nil, err
	}
	q := &Qubit{conn: conn, target: immediateTarget(id), active: true}
	b.activateQubit(q)
	return q, nil
}

// newEPRQubit wraps a virtual ID allocated by an entanglement request; no
// allocation commands are emitted.
func newEPRQubit(conn *Connection, id int, entInfo *EntInfo) *Qubit {
	q := &Qubit{conn: conn, target: immediateTarget(id), active: true, entInfo: entInfo}
	conn.builder.activateQubit(q)
	return q
}

// newFutureQubit wraps a virtual ID that lives in an array cell, making
// gate operands register-indirect. Future qubits take no part in the
// active-set lifecycle.
func newFutureQubit(conn *Connection, id *Future) *Qubit {
	return &Qubit{conn: conn, target: gateTarget{id: -1, future: id}, active: true}
}

func (q *Qubit) String() string {
	if q.active {
		return fmt.Sprintf("Qubit at the node %s", q.conn.Name())
	}
	return "Not active qubit"
}

// ID returns the virtual qubit ID, or -1 for a future qubit whose ID is
// only known at run time.
func (q *Qubit) ID() int {
	if q.target.future != nil {
		return -1
	}
	return q.target.id
}

// Active reports whether the handle may still be operated on.
func (q *Qubit) Active() bool { return q.active }

// AssertActive returns a QubitNotActiveError if the handle has been freed
// or invalidated.
func (q *Qubit) AssertActive() error {
	if !q.active {
		return &QubitNotActiveError{QubitID: q.target.id}
	}
	return nil
}

func (q *Qubit) deactivate() {
	if !q.active {
		return
	}
	q.active = false
	q.conn.builder.deactivateQubit(q)
}

// EntanglementInfo returns the entanglement info, or nil if the qubit is
// not the result of an entanglement request. Future qubits cannot answer.
func (q *Qubit) EntanglementInfo() *EntInfo {
	if q.target.future != nil {
		return nil
	}
	return q.entInfo
}

// RemoteEntangledNode resolves and caches the name of the node this qubit
// is entangled with. Returns empty for a qubit with no entanglement info.
func (q *Qubit) RemoteEntangledNode() (string, error) {
	if q.remoteNode != "" {
		return q.remoteNode, nil
	}
	info := q.EntanglementInfo()
	if info == nil {
		return "", nil
	}
	name, err := q.conn.network.NodeName(info.RemoteNodeID)
	if err != nil {
		return "", err
	}
	q.remoteNode = name
	return name, nil
}

// ============================================================================
// Gates
// ============================================================================

func (q *Qubit) singleQubit(instr ir.GenericInstr) error {
	if err := q.AssertActive(); err != nil {
		return err
	}
	return q.conn.builder.AddSingleQubitCommands(instr, q.target)
}

// X performs a Pauli X on the qubit.
func (q *Qubit) X() error { return q.singleQubit(ir.X) }

// Y performs a Pauli Y on the qubit.
func (q *Qubit) Y() error { return q.singleQubit(ir.Y) }

// Z performs a Pauli Z on the qubit.
func (q *Qubit) Z() error { return q.singleQubit(ir.Z) }

// H performs a Hadamard on the qubit.
func (q *Qubit) H() error { return q.singleQubit(ir.H) }

// S performs an S gate on the qubit.
func (q *Qubit) S() error { return q.singleQubit(ir.S) }

// K performs a K gate on the qubit.
func (q *Qubit) K() error { return q.singleQubit(ir.K) }

// T performs a T gate on the qubit.
func (q *Qubit) T() error { return q.singleQubit(ir.T) }

func (q *Qubit) rotation(instr ir.GenericInstr, n, d int, angle *float64) error {
	if err := q.AssertActive(); err != nil {
		return err
	}
	return q.conn.builder.AddSingleQubitRotationCommands(instr, q.target, n, d, angle)
}

// RotX rotates around the X axis by n*pi/2^d.
func (q *Qubit) RotX(n, d int) error { return q.rotation(ir.ROT_X, n, d, nil) }

// RotY rotates around the Y axis by n*pi/2^d.
func (q *Qubit) RotY(n, d int) error { return q.rotation(ir.ROT_Y, n, d, nil) }

// RotZ rotates around the Z axis by n*pi/2^d.
func (q *Qubit) RotZ(n, d int) error { return q.rotation(ir.ROT_Z, n, d, nil) }

// RotXAngle rotates around the X axis by an arbitrary angle, approximated
// by a sequence of n*pi/2^d rotations.
func (q *Qubit) RotXAngle(angle float64) error { return q.rotation(ir.ROT_X, 0, 0, &angle) }

// RotYAngle rotates around the Y axis by an arbitrary angle.
func (q *Qubit) RotYAngle(angle float64) error { return q.rotation(ir.ROT_Y, 0, 0, &angle) }

// RotZAngle rotates around the Z axis by an arbitrary angle.
func (q *Qubit) RotZAngle(angle float64) error { return q.rotation(ir.ROT_Z, 0, 0, &angle) }

func (q *Qubit) twoQubit(instr ir.GenericInstr, target *Qubit) error {
	if err := q.AssertActive(); err != nil {
		return err
	}
	if err := target.AssertActive(); err != nil {
		return err
	}
	return q.conn.builder.AddTwoQubitCommands(instr, q.target, target.target)
}

// Cnot applies a CNOT with this qubit as control.
func (q *Qubit) Cnot(target *Qubit) error { return q.twoQubit(ir.CNOT, target) }

// Cphase applies a CPHASE with this qubit as control.
func (q *Qubit) Cphase(target *Qubit) error { return q.twoQubit(ir.CPHASE, target) }

// ============================================================================
// Measurement and lifecycle
// ============================================================================

// Measure destructively measures the qubit in the standard basis. The
// outcome is stored in a fresh one-cell array; the returned future reads
// it back.
func (q *Qubit) Measure() (*Future, error) {
	if err := q.AssertActive(); err != nil {
		return nil, err
	}
	array, err := q.conn.builder.NewArray(1)
	if err != nil {
		return nil, err
	}
	future, err := array.GetFutureIndex(0)
	if err != nil {
		return nil, err
	}
	if err := q.measureInto(future, false); err != nil {
		return nil, err
	}
	return future, nil
}

// MeasureToRegister destructively measures the qubit, leaving the outcome
// in a register declared for return instead of an array.
func (q *Qubit) MeasureToRegister() (*Future, error) {
	if err := q.AssertActive(); err != nil {
		return nil, err
	}
	future := NewRegFuture(q.conn)
	if err := q.measureInto(future, false); err != nil {
		return nil, err
	}
	return future, nil
}

// MeasureInto measures the qubit into a caller-provided future. With
// inplace the qubit survives in the post-measurement state.
func (q *Qubit) MeasureInto(future *Future, inplace bool) error {
	if err := q.AssertActive(); err != nil {
		return err
	}
	return q.measureInto(future, inplace)
}

func (q *Qubit) measureInto(future *Future, inplace bool) error {
	if err := q.conn.builder.AddMeasureCommands(q.target, future, inplace); err != nil {
		return err
	}
	if !inplace {
		q.deactivate()
	}
	return nil
}

// Reset re-initializes the qubit to |0>.
func (q *Qubit) Reset() error {
	if err := q.AssertActive(); err != nil {
		return err
	}
	return q.conn.builder.AddSingleQubitCommands(ir.INIT, q.target)
}

// Free returns the qubit to the node controller and deactivates the
// handle.
func (q *Qubit) Free() error {
	if err := q.AssertActive(); err != nil {
		return err
	}
	if err := q.conn.builder.AddSingleQubitCommands(ir.QFREE, q.target); err != nil {
		return err
	}
	q.deactivate()
	return nil
}
