package sdk

import (
	"fmt"
	"sort"

	"github.com/Doomsk/netqasm/lang/ir"
)

// Register-file size per role. Registers recycle through a free list, so
// the cap bounds simultaneously-live registers, not total allocations.
const registersPerRole = 16

// maxVirtualQubits bounds simultaneously-active virtual qubit IDs.
const maxVirtualQubits = 1024

// idPool hands out the lowest free non-negative ID; released IDs are
// reused before the counter advances. Uniqueness holds among live IDs.
type idPool struct {
	class string
	limit int
	next  int
	free  []int
}

func newIDPool(class string, limit int) *idPool {
	return &idPool{class: class, limit: limit}
}

func (p *idPool) alloc() (int, error) {
	if len(p.free) > 0 {
		id := p.free[0]
		p.free = p.free[1:]
		return id, nil
	}
	if p.next >= p.limit {
		return 0, &AllocatorExhaustedError{Class: p.class, Limit: p.limit}
	}
	id := p.next
	p.next++
	return id, nil
}

func (p *idPool) release(id int) {
	i := sort.SearchInts(p.free, id)
	if i < len(p.free) && p.free[i] == id {
		return
	}
	p.free = append(p.free, 0)
	copy(p.free[i+1:], p.free[i:])
	p.free[i] = id
}

// registerAllocator manages the per-role register files.
type registerAllocator struct {
	pools [ir.NumRegisterRoles]*idPool
}

func newRegisterAllocator() *registerAllocator {
	ra := &registerAllocator{}
	for role := 0; role < ir.NumRegisterRoles; role++ {
		class := fmt.Sprintf("%s register", ir.RegisterRole(role))
		ra.pools[role] = newIDPool(class, registersPerRole)
	}
	return ra
}

func (ra *registerAllocator) alloc(role ir.RegisterRole) (ir.Register, error) {
	index, err := ra.pools[role].alloc()
	if err != nil {
		return ir.Register{}, err
	}
	return ir.Register{Role: role, Index: index}, nil
}

// pin removes a specific register from its pool, for caller-chosen
// registers like an explicit loop counter. Pinning an index at or beyond
// the monotonic watermark advances it so later allocations skip past.
func (ra *registerAllocator) pin(reg ir.Register) (ir.Register, error) {
	pool := ra.pools[reg.Role]
	for i, id := range pool.free {
		if id == reg.Index {
			pool.free = append(pool.free[:i], pool.free[i+1:]...)
			return reg, nil
		}
	}
	if reg.Index >= pool.limit {
		return ir.Register{}, &AllocatorExhaustedError{Class: pool.class, Limit: pool.limit}
	}
	if reg.Index >= pool.next {
		for id := pool.next; id < reg.Index; id++ {
			pool.free = append(pool.free, id)
		}
		sort.Ints(pool.free)
		pool.next = reg.Index + 1
		return reg, nil
	}
	// Below the watermark and not in the free list: already live.
	return ir.Register{}, fmt.Errorf("register %s is already in use", reg)
}

func (ra *registerAllocator) release(reg ir.Register) {
	ra.pools[reg.Role].release(reg.Index)
}

// labelAllocator formats fresh branch-label names. The sequence number is
// global per subroutine, which makes every label name unique (I2).
type labelAllocator struct {
	seq int
}

// Label kinds.
const (
	labelIfExit    = "IF_EXIT"
	labelElse      = "ELSE"
	labelLoopStart = "LOOP_START"
	labelLoopExit  = "LOOP_EXIT"
	labelTryStart  = "TRY_START"
	labelTryExit   = "TRY_EXIT"
)

func (la *labelAllocator) fresh(kind string) ir.Label {
	label := ir.Label(fmt.Sprintf("%s%d", kind, la.seq))
	la.seq++
	return label
}
