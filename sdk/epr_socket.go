package sdk

import (
	"fmt"

	"github.com/Doomsk/netqasm/lang/ir"
	"github.com/Doomsk/netqasm/qlink"
)

// PostRoutine runs once per generated EPR pair inside the synthesized
// loop of a sequential request. For type-K requests the qubit is
// register-indirect: its virtual ID is loaded from the pair's cell of the
// qubit-ID array. For types that keep no local qubit, q is nil and the
// pair's outcome lives in the entanglement-info array. pair is the loop
// counter, usable as an array index.
type PostRoutine func(conn *Connection, q *Qubit, pair ir.Operand) error

// EPRResult is what an entanglement request yields at build time: handles
// to the kept local qubits for type-K requests, and the entanglement-info
// array the link layer fills in. For types M and R no qubits are kept and
// the info array is the only result surface; its records hold the
// measurement outcomes.
type EPRResult struct {
	Qubits  []*Qubit
	EntInfo *Array
}

// EPRSocket requests entanglement generation with one peer node. Sockets
// are created up front and bound to a connection when it opens.
type EPRSocket struct {
	conn *Connection

	remoteNodeName string
	id             int
	minFidelity    int
}

// NewEPRSocket creates a socket to the named peer, with socket ID 0.
func NewEPRSocket(remoteNodeName string) *EPRSocket {
	return NewEPRSocketWithID(remoteNodeName, 0)
}

// NewEPRSocketWithID creates a socket with an explicit socket ID, for
// applications holding several sockets to the same peer.
func NewEPRSocketWithID(remoteNodeName string, id int) *EPRSocket {
	return &EPRSocket{remoteNodeName: remoteNodeName, id: id, minFidelity: 100}
}

// RemoteNodeName returns the peer this socket generates entanglement
// with.
func (s *EPRSocket) RemoteNodeName() string { return s.remoteNodeName }

// ID returns the socket ID.
func (s *EPRSocket) ID() int { return s.id }

// MinFidelity returns the minimum fidelity requests on this socket ask
// of the link layer, in percent.
func (s *EPRSocket) MinFidelity() int { return s.minFidelity }

// SetMinFidelity adjusts the requested minimum fidelity for subsequent
// requests.
func (s *EPRSocket) SetMinFidelity(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("minimum fidelity must be a percentage, got %d", percent)
	}
	s.minFidelity = percent
	return nil
}

func (s *EPRSocket) remoteNodeID() (int, error) {
	if s.conn == nil {
		return 0, fmt.Errorf("EPR socket to %s is not bound to a connection", s.remoteNodeName)
	}
	return s.conn.network.NodeID(s.remoteNodeName)
}

// Create generates one EPR pair of the given type with the peer.
func (s *EPRSocket) Create(tp qlink.EPRType) (*EPRResult, error) {
	return s.CreateN(tp, 1)
}

// CreateN generates the given number of EPR pairs, waiting for all of
// them before returning.
func (s *EPRSocket) CreateN(tp qlink.EPRType, number int) (*EPRResult, error) {
	return s.request(ir.CREATE_EPR, number, tp, nil)
}

// CreateSequential generates pairs one at a time; the post routine runs
// on each pair as soon as its entanglement info arrives.
func (s *EPRSocket) CreateSequential(tp qlink.EPRType, number int, post PostRoutine) (*EPRResult, error) {
	if post == nil {
		return nil, fmt.Errorf("sequential create requires a post routine")
	}
	return s.request(ir.CREATE_EPR, number, tp, post)
}

// Recv is the receiving side of Create.
func (s *EPRSocket) Recv(tp qlink.EPRType) (*EPRResult, error) {
	return s.RecvN(tp, 1)
}

// RecvN is the receiving side of CreateN.
func (s *EPRSocket) RecvN(tp qlink.EPRType, number int) (*EPRResult, error) {
	return s.request(ir.RECV_EPR, number, tp, nil)
}

// RecvSequential is the receiving side of CreateSequential.
func (s *EPRSocket) RecvSequential(tp qlink.EPRType, number int, post PostRoutine) (*EPRResult, error) {
	if post == nil {
		return nil, fmt.Errorf("sequential recv requires a post routine")
	}
	return s.request(ir.RECV_EPR, number, tp, post)
}

func (s *EPRSocket) request(instr ir.GenericInstr, number int, tp qlink.EPRType, post PostRoutine) (*EPRResult, error) {
	if number < 1 {
		return nil, fmt.Errorf("number of pairs must be positive, got %d", number)
	}
	remoteID, err := s.remoteNodeID()
	if err != nil {
		return nil, err
	}
	return s.conn.builder.addEPRCommands(s.conn, eprRequest{
		instr:        instr,
		remoteNodeID: remoteID,
		socketID:     s.id,
		number:       number,
		tp:           tp,
		minFidelity:  s.minFidelity,
		post:         post,
	})
}

// eprRequest carries one entanglement request into the builder.
type eprRequest struct {
	instr        ir.GenericInstr
	remoteNodeID int
	socketID     int
	number       int
	tp           qlink.EPRType
	minFidelity  int
	post         PostRoutine
}

// addEPRCommands lowers an entanglement request: result arrays, the
// request instruction over metadata registers, and either a single wait
// over all entanglement info or a synthesized per-pair loop running the
// post routine.
func (b *Builder) addEPRCommands(conn *Connection, req eprRequest) (*EPRResult, error) {
	entArray, err := b.NewArray(req.number * req.tp.OKFields())
	if err != nil {
		return nil, err
	}

	// Qubit-ID array: chosen virtual IDs ride to the controller in
	// classical memory; the EPR instruction does the allocation. Only
	// request types that keep a local qubit have one.
	var qubitArray *Array
	var virtualIDs []int
	if req.tp.KeepsQubits() {
		qubitArray, err = b.NewArray(req.number)
		if err != nil {
			return nil, err
		}
		for i := 0; i < req.number; i++ {
			id, err := b.NewQubitID()
			if err != nil {
				return nil, err
			}
			virtualIDs = append(virtualIDs, id)
			if err := b.writeImmediate(id, qubitArray.entry(ir.Imm(i))); err != nil {
				return nil, err
			}
		}
	}

	var argsArray *Array
	if req.instr == ir.CREATE_EPR {
		argsArray, err = b.NewArray(qlink.NumRequestArgFields)
		if err != nil {
			return nil, err
		}
		args := qlink.RequestArgs{Type: req.tp, Number: req.number, MinFidelity: req.minFidelity}
		for i, value := range args.Fields() {
			if err := b.writeImmediate(value, argsArray.entry(ir.Imm(i))); err != nil {
				return nil, err
			}
		}
	}

	if err := b.emitEPRInstr(req, qubitArray, argsArray, entArray); err != nil {
		return nil, err
	}

	if req.post != nil {
		if err := b.addEPRPostLoop(conn, req, entArray, qubitArray); err != nil {
			return nil, err
		}
		return &EPRResult{EntInfo: entArray}, nil
	}

	b.emit(ir.WAIT_ALL, entArray.fullSlice())

	qubits := make([]*Qubit, 0, len(virtualIDs))
	for i, id := range virtualIDs {
		qubits = append(qubits, newEPRQubit(conn, id, b.entInfoForPair(entArray, req, i)))
	}
	return &EPRResult{Qubits: qubits, EntInfo: entArray}, nil
}

// emitEPRInstr sets the metadata registers and emits the request
// instruction. Array addresses travel in E-role registers.
func (b *Builder) emitEPRInstr(req eprRequest, qubitArray, argsArray, entArray *Array) error {
	values := []int{req.remoteNodeID, req.socketID, arrayAddressValue(qubitArray)}
	if req.instr == ir.CREATE_EPR {
		values = append(values, arrayAddressValue(argsArray))
	}
	values = append(values, arrayAddressValue(entArray))

	regs := make([]ir.Register, len(values))
	operands := make([]ir.Operand, len(values))
	for i, value := range values {
		reg, err := b.regs.alloc(ir.RoleE)
		if err != nil {
			return err
		}
		b.EmitSet(reg, value)
		regs[i] = reg
		operands[i] = reg
	}
	b.emit(req.instr, operands...)
	for _, reg := range regs {
		b.regs.release(reg)
	}
	return nil
}

func arrayAddressValue(a *Array) int {
	if a == nil {
		return 0
	}
	return int(a.Address())
}

// addEPRPostLoop synthesizes the per-pair loop of a sequential request:
// wait for the pair's slice of the entanglement-info array, then run the
// post routine on a register-indirect qubit.
func (b *Builder) addEPRPostLoop(conn *Connection, req eprRequest, entArray, qubitArray *Array) error {
	slots := req.tp.OKFields()

	sliceStart, err := b.regs.alloc(ir.RoleR)
	if err != nil {
		return err
	}
	b.EmitSet(sliceStart, 0)

	scope, pair, err := b.openLoop(req.number, nil)
	if err != nil {
		b.regs.release(sliceStart)
		return err
	}

	sliceStop, err := b.regs.alloc(ir.RoleR)
	if err == nil {
		b.EmitAdd(sliceStop, sliceStart, ir.Imm(slots))
		b.emit(ir.WAIT_ALL, entArray.slice(sliceStart, sliceStop))
		b.regs.release(sliceStop)

		var q *Qubit
		if qubitArray != nil {
			q = newFutureQubit(conn, qubitArray.GetFutureAt(pair))
		}
		err = req.post(conn, q, pair)
		b.EmitAdd(sliceStart, sliceStart, ir.Imm(slots))
	}

	if closeErr := scope.Close(); err == nil {
		err = closeErr
	}
	b.regs.release(sliceStart)
	return err
}

// entInfoForPair exposes the interesting slots of one pair's
// entanglement-info record as futures.
func (b *Builder) entInfoForPair(entArray *Array, req eprRequest, pair int) *EntInfo {
	base := pair * req.tp.OKFields()
	slot := func(offset int) *Future {
		return entArray.GetFutureAt(ir.Imm(base + offset))
	}
	return &EntInfo{
		RemoteNodeID:   req.remoteNodeID,
		SequenceNumber: slot(qlink.OKSlotSequenceNumber),
		Goodness:       slot(qlink.OKSlotGoodness),
		BellState:      slot(qlink.OKSlotBellState),
	}
}
