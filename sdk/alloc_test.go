package sdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doomsk/netqasm/lang/ir"
)

// ============================================================================
// ID pool
// ============================================================================

func Test_IDPool_Monotonic(t *testing.T) {
	pool := newIDPool("test ID", 8)
	for want := 0; want < 3; want++ {
		id, err := pool.alloc()
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
}

func Test_IDPool_RecyclesLowestFreed(t *testing.T) {
	pool := newIDPool("test ID", 8)
	for i := 0; i < 4; i++ {
		_, err := pool.alloc()
		require.NoError(t, err)
	}
	pool.release(2)
	pool.release(1)

	id, err := pool.alloc()
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	id, err = pool.alloc()
	require.NoError(t, err)
	assert.Equal(t, 2, id)
	id, err = pool.alloc()
	require.NoError(t, err)
	assert.Equal(t, 4, id)
}

func Test_IDPool_DoubleReleaseIgnored(t *testing.T) {
	pool := newIDPool("test ID", 8)
	_, err := pool.alloc()
	require.NoError(t, err)
	pool.release(0)
	pool.release(0)

	first, err := pool.alloc()
	require.NoError(t, err)
	second, err := pool.alloc()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func Test_IDPool_Exhausted(t *testing.T) {
	pool := newIDPool("test ID", 2)
	_, err := pool.alloc()
	require.NoError(t, err)
	_, err = pool.alloc()
	require.NoError(t, err)

	_, err = pool.alloc()
	var exhausted *AllocatorExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Limit)
	assert.Equal(t, "test ID", exhausted.Class)
}

// ============================================================================
// Register allocator
// ============================================================================

func Test_RegisterAllocator_RolesAreDisjoint(t *testing.T) {
	ra := newRegisterAllocator()
	q, err := ra.alloc(ir.RoleQ)
	require.NoError(t, err)
	r, err := ra.alloc(ir.RoleR)
	require.NoError(t, err)

	assert.Equal(t, ir.Register{Role: ir.RoleQ, Index: 0}, q)
	assert.Equal(t, ir.Register{Role: ir.RoleR, Index: 0}, r)
}

func Test_RegisterAllocator_ReleaseRecycles(t *testing.T) {
	ra := newRegisterAllocator()
	reg, err := ra.alloc(ir.RoleQ)
	require.NoError(t, err)
	ra.release(reg)

	again, err := ra.alloc(ir.RoleQ)
	require.NoError(t, err)
	assert.Equal(t, reg, again)
}

func Test_RegisterAllocator_Exhausted(t *testing.T) {
	ra := newRegisterAllocator()
	for i := 0; i < registersPerRole; i++ {
		_, err := ra.alloc(ir.RoleR)
		require.NoError(t, err)
	}
	_, err := ra.alloc(ir.RoleR)
	var exhausted *AllocatorExhaustedError
	assert.ErrorAs(t, err, &exhausted)
}

func Test_RegisterAllocator_Pin(t *testing.T) {
	ra := newRegisterAllocator()
	pinned, err := ra.pin(ir.Register{Role: ir.RoleC, Index: 9})
	require.NoError(t, err)
	assert.Equal(t, 9, pinned.Index)

	// Fresh allocations skip the pinned index.
	for i := 0; i < 9; i++ {
		reg, err := ra.alloc(ir.RoleC)
		require.NoError(t, err)
		assert.Equal(t, i, reg.Index)
	}
	reg, err := ra.alloc(ir.RoleC)
	require.NoError(t, err)
	assert.Equal(t, 10, reg.Index)
}

func Test_RegisterAllocator_PinLiveRegisterFails(t *testing.T) {
	ra := newRegisterAllocator()
	reg, err := ra.alloc(ir.RoleC)
	require.NoError(t, err)

	_, err = ra.pin(reg)
	assert.Error(t, err)

	ra.release(reg)
	_, err = ra.pin(reg)
	assert.NoError(t, err)
}

func Test_RegisterAllocator_PinOutOfRange(t *testing.T) {
	ra := newRegisterAllocator()
	_, err := ra.pin(ir.Register{Role: ir.RoleC, Index: registersPerRole})
	assert.Error(t, err)
}

// ============================================================================
// Label allocator
// ============================================================================

func Test_LabelAllocator_GlobalSequence(t *testing.T) {
	la := labelAllocator{}
	assert.Equal(t, ir.Label("IF_EXIT0"), la.fresh(labelIfExit))
	assert.Equal(t, ir.Label("LOOP_START1"), la.fresh(labelLoopStart))
	assert.Equal(t, ir.Label("LOOP_EXIT2"), la.fresh(labelLoopExit))
	assert.Equal(t, ir.Label("ELSE3"), la.fresh(labelElse))
	assert.Equal(t, ir.Label("TRY_START4"), la.fresh(labelTryStart))
	assert.Equal(t, ir.Label("TRY_EXIT5"), la.fresh(labelTryExit))
}
