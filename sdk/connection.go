package sdk

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/Doomsk/netqasm/lang/ir"
	"github.com/Doomsk/netqasm/logging"
)

// NetworkInfo resolves between node names and node IDs. The builder needs
// name→ID to address entanglement requests and ID→name to answer
// remote-entangled-node queries.
type NetworkInfo interface {
	NodeID(name string) (int, error)
	NodeName(id int) (string, error)
}

// StaticNetworkInfo is a fixed name→ID mapping.
type StaticNetworkInfo map[string]int

// NodeID implements NetworkInfo.
func (m StaticNetworkInfo) NodeID(name string) (int, error) {
	id, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("unknown node name %q", name)
	}
	return id, nil
}

// NodeName implements NetworkInfo.
func (m StaticNetworkInfo) NodeName(id int) (string, error) {
	for name, nodeID := range m {
		if nodeID == id {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown node ID %d", id)
}

// Committer receives each flushed pre-subroutine for assembly and
// execution on the quantum node.
type Committer func(*ir.PreSubroutine) error

// Connection is a builder session for one application on one node. All
// handle operations funnel through its builder; closing the connection
// flushes the pending pre-subroutine downstream.
type Connection struct {
	name    string
	builder *Builder
	network NetworkInfo
	log     logr.Logger
	commit  Committer
	closed  bool
}

// NewConnection opens a session. EPR sockets passed here are bound to the
// connection and usable for entanglement requests within it.
func NewConnection(
	appName string,
	network NetworkInfo,
	eprSockets []*EPRSocket,
	log logr.Logger,
	commit Committer,
) *Connection {
	conn := &Connection{
		name:    appName,
		builder: newBuilder(appName, log),
		network: network,
		log:     log,
		commit:  commit,
	}
	for _, socket := range eprSockets {
		socket.conn = conn
	}
	return conn
}

// Name returns the application name the session was opened with.
func (c *Connection) Name() string { return c.name }

// Builder exposes the underlying subroutine builder.
func (c *Connection) Builder() *Builder { return c.builder }

// NewArray declares a fresh classical array in the current subroutine.
func (c *Connection) NewArray(length int) (*Array, error) {
	return c.builder.NewArray(length)
}

// Flush hands the pending pre-subroutine to the runtime. A pending
// subroutine with no commands is dropped.
func (c *Connection) Flush() error {
	if c.builder.PendingCommandCount() == 0 {
		return nil
	}
	subroutine, err := c.builder.PopPendingSubroutine()
	if err != nil {
		return err
	}
	if c.commit == nil {
		return nil
	}
	return c.commit(subroutine)
}

// Close flushes the pending subroutine and ends the session. Qubits still
// active at close are leaked from the application's point of view and are
// reported through the session logger.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.Flush()

	if leaked := c.builder.ActiveQubitIDs(); len(leaked) > 0 {
		c.log.Info("qubits still active at session close", "virtualIDs", leaked)
	}
	return err
}

// ============================================================================
// Control-flow scopes
// ============================================================================

// Loop opens a scope whose body runs count times.
func (c *Connection) Loop(count int) (*Scope, error) {
	scope, _, err := c.builder.openLoop(count, nil)
	return scope, err
}

// LoopWithRegister opens a loop scope with a caller-pinned counter
// register.
func (c *Connection) LoopWithRegister(count int, counter ir.Register) (*Scope, error) {
	scope, _, err := c.builder.openLoop(count, &counter)
	return scope, err
}

// LoopBody runs body count times; the body receives the counter register
// for loop-varying indexing.
func (c *Connection) LoopBody(count int, body func(counter ir.Register) error) error {
	return c.loopBody(count, nil, body)
}

// LoopBodyWithRegister is LoopBody with a caller-pinned counter register.
func (c *Connection) LoopBodyWithRegister(count int, counter ir.Register, body func(counter ir.Register) error) error {
	return c.loopBody(count, &counter, body)
}

func (c *Connection) loopBody(count int, pinned *ir.Register, body func(counter ir.Register) error) error {
	scope, counter, err := c.builder.openLoop(count, pinned)
	if err != nil {
		return err
	}
	err = body(counter)
	if closeErr := scope.Close(); err == nil {
		err = closeErr
	}
	return err
}

// TryUntilSuccess opens a bounded retry scope; the body marks success by
// calling Break on the scope.
func (c *Connection) TryUntilSuccess(maxTries int) (*Scope, error) {
	return c.builder.openTry(maxTries)
}

// IfEqConst runs body when the two constants compare equal at run time.
func (c *Connection) IfEqConst(a, b int, body func() error) error {
	scope, err := c.builder.openIfEqConst(a, b)
	if err != nil {
		return err
	}
	err = body()
	if closeErr := scope.Close(); err == nil {
		err = closeErr
	}
	return err
}

// IfEqConstElse runs body when the constants compare equal and elseBody
// otherwise.
func (c *Connection) IfEqConstElse(a, b int, body, elseBody func() error) error {
	bld := c.builder
	ra, err := bld.regs.alloc(ir.RoleR)
	if err != nil {
		return err
	}
	rb, err := bld.regs.alloc(ir.RoleR)
	if err != nil {
		bld.regs.release(ra)
		return err
	}
	elseLabel := bld.labels.fresh(labelElse)
	exit := bld.labels.fresh(labelIfExit)
	bld.EmitSet(ra, a)
	bld.EmitSet(rb, b)
	bld.EmitBranch(ir.BNE, []ir.Operand{ra, rb}, elseLabel)
	bld.regs.release(rb)
	bld.regs.release(ra)

	if err := body(); err != nil {
		return err
	}
	bld.EmitJmp(exit)
	bld.EmitLabel(elseLabel)
	if err := elseBody(); err != nil {
		return err
	}
	bld.EmitLabel(exit)
	return nil
}

// ============================================================================
// Debug connection
// ============================================================================

// DebugConnection is a builder session with no runtime behind it: flushed
// subroutines are retained for inspection instead of executed, and the
// network is a static node-ID mapping.
type DebugConnection struct {
	*Connection

	// Committed holds every flushed pre-subroutine in order.
	Committed []*ir.PreSubroutine
}

// NewDebugConnection opens a debug session. A nil nodeIDs mapping gets
// the app's own node as ID 0.
func NewDebugConnection(appName string, nodeIDs map[string]int, eprSockets ...*EPRSocket) *DebugConnection {
	if nodeIDs == nil {
		nodeIDs = map[string]int{appName: 0}
	}
	debug := &DebugConnection{}
	debug.Connection = NewConnection(
		appName,
		StaticNetworkInfo(nodeIDs),
		eprSockets,
		logging.Discard(),
		func(subroutine *ir.PreSubroutine) error {
			debug.Committed = append(debug.Committed, subroutine)
			return nil
		},
	)
	return debug
}

// PopPendingSubroutine pops the accumulated pre-subroutine for
// inspection, resetting the builder's pending state.
func (d *DebugConnection) PopPendingSubroutine() (*ir.PreSubroutine, error) {
	return d.builder.PopPendingSubroutine()
}
