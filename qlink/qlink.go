// Package qlink carries the link-layer compatibility types the builder
// needs to lower entanglement-generation requests: the EPR request types
// and the layout of the entanglement-info records the link layer writes
// back into classical memory.
package qlink

// EPRType selects what an entanglement-generation request produces.
type EPRType uint8

const (
	// TypeK keeps the local qubit of each generated pair.
	TypeK EPRType = iota
	// TypeM measures the local qubit directly after generation.
	TypeM
	// TypeR performs remote state preparation.
	TypeR
)

func (t EPRType) String() string {
	switch t {
	case TypeK:
		return "K"
	case TypeM:
		return "M"
	case TypeR:
		return "R"
	}
	return "unknown"
}

// KeepsQubits reports whether requests of this type yield local qubit
// handles (one per pair).
func (t EPRType) KeepsQubits() bool { return t == TypeK }

// okFields is the per-type slot count of one entanglement-info record.
// The exact record layout belongs to the link layer; the builder only
// needs the counts to size the result arrays.
var okFields = map[EPRType]int{
	TypeK: 10,
	TypeM: 11,
	TypeR: 11,
}

// OKFields returns the number of classical-memory slots one
// entanglement-info record of this type occupies.
func (t EPRType) OKFields() int { return okFields[t] }

// Slot indices within a type-K entanglement-info record that the SDK
// reads back.
const (
	OKSlotSequenceNumber = 0
	OKSlotPurposeID      = 1
	OKSlotRemoteNodeID   = 2
	OKSlotGoodness       = 3
	OKSlotBellState      = 9
)

// RequestArgs is the classical request record that rides along with a
// CREATE_EPR instruction in an argument array.
type RequestArgs struct {
	Type        EPRType
	Number      int
	MinFidelity int
}

// Fields returns the record as array-cell values, in slot order.
func (a RequestArgs) Fields() []int {
	return []int{int(a.Type), a.Number, a.MinFidelity}
}

// NumRequestArgFields is the length of the request-argument array.
const NumRequestArgFields = 3
