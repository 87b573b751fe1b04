// Package ir defines the intermediate representation produced by the
// subroutine builder: generic (untranslated) instructions, their operands,
// branch labels and the pre-subroutine container that holds them.
//
// A pre-subroutine is the last representation before assembly into the
// binary NetQASM instruction stream; that assembly is not done here.
package ir

// GenericInstr identifies an instruction independent of the hardware
// flavour it is later assembled for.
type GenericInstr uint8

const (
	// Allocation
	QALLOC GenericInstr = iota
	QFREE
	ARRAY

	// Initialization
	INIT
	SET

	// Memory
	STORE
	LOAD

	// Classical logic
	JMP
	BEZ
	BNZ
	BEQ
	BNE

	// Classical operations
	ADD

	// Single-qubit gates
	X
	Y
	Z
	H
	S
	K
	T

	// Single-qubit rotations
	ROT_X
	ROT_Y
	ROT_Z

	// Two-qubit gates
	CNOT
	CPHASE

	// Measurement
	MEAS

	// Entanglement generation
	CREATE_EPR
	RECV_EPR

	// Waiting
	WAIT_ALL

	// Return
	RET_REG
	RET_ARR
)

var instrNames = map[GenericInstr]string{
	QALLOC:     "qalloc",
	QFREE:      "qfree",
	ARRAY:      "array",
	INIT:       "init",
	SET:        "set",
	STORE:      "store",
	LOAD:       "load",
	JMP:        "jmp",
	BEZ:        "bez",
	BNZ:        "bnz",
	BEQ:        "beq",
	BNE:        "bne",
	ADD:        "add",
	X:          "x",
	Y:          "y",
	Z:          "z",
	H:          "h",
	S:          "s",
	K:          "k",
	T:          "t",
	ROT_X:      "rot_x",
	ROT_Y:      "rot_y",
	ROT_Z:      "rot_z",
	CNOT:       "cnot",
	CPHASE:     "cphase",
	MEAS:       "meas",
	CREATE_EPR: "create_epr",
	RECV_EPR:   "recv_epr",
	WAIT_ALL:   "wait_all",
	RET_REG:    "ret_reg",
	RET_ARR:    "ret_arr",
}

// String returns the mnemonic of the instruction.
func (i GenericInstr) String() string {
	if name, ok := instrNames[i]; ok {
		return name
	}
	return "unknown"
}

// InstrCategory groups instructions by the kind of resource they touch.
type InstrCategory uint8

const (
	CatAllocation InstrCategory = iota
	CatClassical
	CatBranch
	CatQubitGate
	CatMeasurement
	CatEntanglement
	CatWait
	CatReturn
)

// InstrDescriptor holds static metadata for one generic instruction.
type InstrDescriptor struct {
	Instr    GenericInstr
	Category InstrCategory

	// NumOperands is the exact operand count; -1 means variable.
	NumOperands int

	// Branches is true when the last operand is a branch-label reference.
	Branches bool
}

// instrDescriptors is the static descriptor table for the whole opcode set.
var instrDescriptors = map[GenericInstr]InstrDescriptor{
	QALLOC:     {Instr: QALLOC, Category: CatAllocation, NumOperands: 1},
	QFREE:      {Instr: QFREE, Category: CatAllocation, NumOperands: 1},
	ARRAY:      {Instr: ARRAY, Category: CatAllocation, NumOperands: 2},
	INIT:       {Instr: INIT, Category: CatQubitGate, NumOperands: 1},
	SET:        {Instr: SET, Category: CatClassical, NumOperands: 2},
	STORE:      {Instr: STORE, Category: CatClassical, NumOperands: 2},
	LOAD:       {Instr: LOAD, Category: CatClassical, NumOperands: 2},
	JMP:        {Instr: JMP, Category: CatBranch, NumOperands: 1, Branches: true},
	BEZ:        {Instr: BEZ, Category: CatBranch, NumOperands: 2, Branches: true},
	BNZ:        {Instr: BNZ, Category: CatBranch, NumOperands: 2, Branches: true},
	BEQ:        {Instr: BEQ, Category: CatBranch, NumOperands: 3, Branches: true},
	BNE:        {Instr: BNE, Category: CatBranch, NumOperands: 3, Branches: true},
	ADD:        {Instr: ADD, Category: CatClassical, NumOperands: 3},
	X:          {Instr: X, Category: CatQubitGate, NumOperands: 1},
	Y:          {Instr: Y, Category: CatQubitGate, NumOperands: 1},
	Z:          {Instr: Z, Category: CatQubitGate, NumOperands: 1},
	H:          {Instr: H, Category: CatQubitGate, NumOperands: 1},
	S:          {Instr: S, Category: CatQubitGate, NumOperands: 1},
	K:          {Instr: K, Category: CatQubitGate, NumOperands: 1},
	T:          {Instr: T, Category: CatQubitGate, NumOperands: 1},
	ROT_X:      {Instr: ROT_X, Category: CatQubitGate, NumOperands: 3},
	ROT_Y:      {Instr: ROT_Y, Category: CatQubitGate, NumOperands: 3},
	ROT_Z:      {Instr: ROT_Z, Category: CatQubitGate, NumOperands: 3},
	CNOT:       {Instr: CNOT, Category: CatQubitGate, NumOperands: 2},
	CPHASE:     {Instr: CPHASE, Category: CatQubitGate, NumOperands: 2},
	MEAS:       {Instr: MEAS, Category: CatMeasurement, NumOperands: 2},
	CREATE_EPR: {Instr: CREATE_EPR, Category: CatEntanglement, NumOperands: 5},
	RECV_EPR:   {Instr: RECV_EPR, Category: CatEntanglement, NumOperands: 4},
	WAIT_ALL:   {Instr: WAIT_ALL, Category: CatWait, NumOperands: 1},
	RET_REG:    {Instr: RET_REG, Category: CatReturn, NumOperands: 1},
	RET_ARR:    {Instr: RET_ARR, Category: CatReturn, NumOperands: 1},
}

// Descriptor returns the static metadata for an instruction.
func Descriptor(i GenericInstr) (InstrDescriptor, bool) {
	desc, ok := instrDescriptors[i]
	return desc, ok
}
