package sdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doomsk/netqasm/lang/inspect"
	"github.com/Doomsk/netqasm/lang/ir"
)

func Test_Future_ReadEmitsLoad(t *testing.T) {
	conn := NewDebugConnection("Alice", nil)

	q := newQubit(t, conn)
	m, err := q.Measure()
	require.NoError(t, err)

	reg, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, ir.RoleR, reg.Role)

	_, in := popInspect(t, conn)
	assert.True(t, in.MatchPattern(ir.STORE, ir.LOAD))
}

func Test_Future_StoreIntoCell(t *testing.T) {
	conn := NewDebugConnection("Alice", nil)

	array, err := conn.NewArray(4)
	require.NoError(t, err)
	future, err := array.GetFutureIndex(2)
	require.NoError(t, err)

	src, err := conn.Builder().regs.alloc(ir.RoleR)
	require.NoError(t, err)
	conn.Builder().EmitSet(src, 7)
	require.NoError(t, future.Store(src))

	_, in := popInspect(t, conn)
	assert.True(t, in.MatchPattern(ir.ARRAY, ir.SET, ir.STORE))
}

func Test_RegFuture_UnboundRead(t *testing.T) {
	conn := NewDebugConnection("Alice", nil)

	future := NewRegFuture(conn.Connection)
	_, err := future.Read()
	assert.Error(t, err)
	_, bound := future.Register()
	assert.False(t, bound)
}

func Test_RegFuture_BoundByMeasurement(t *testing.T) {
	conn := NewDebugConnection("Alice", nil)

	q := newQubit(t, conn)
	m, err := q.MeasureToRegister()
	require.NoError(t, err)

	reg, bound := m.Register()
	require.True(t, bound)
	assert.Equal(t, ir.RoleM, reg.Role)

	// A register future reads without a LOAD.
	read, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, reg, read)

	sub, in := popInspect(t, conn)
	assert.False(t, in.ContainsInstr(ir.LOAD))
	assert.True(t, in.ContainsInstr(ir.RET_REG))
	assert.Contains(t, sub.ReturnRegisters, reg)
}

func Test_Future_IfScopesUseInverseBranch(t *testing.T) {
	cases := []struct {
		name    string
		open    func(m *Future) (*Scope, error)
		inverse ir.GenericInstr
	}{
		{"if_eq", func(m *Future) (*Scope, error) { return m.IfEq(0) }, ir.BNE},
		{"if_ne", func(m *Future) (*Scope, error) { return m.IfNe(0) }, ir.BEQ},
		{"if_ez", func(m *Future) (*Scope, error) { return m.IfEz() }, ir.BNZ},
		{"if_nz", func(m *Future) (*Scope, error) { return m.IfNz() }, ir.BEZ},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := NewDebugConnection("Alice", nil)
			q := newQubit(t, conn)
			m, err := q.Measure()
			require.NoError(t, err)

			scope, err := tc.open(m)
			require.NoError(t, err)
			newQubit(t, conn)
			require.NoError(t, scope.Close())

			_, in := popInspect(t, conn)
			assert.True(t, in.MatchPattern(
				ir.LOAD,
				tc.inverse,
				inspect.AnyZeroOrMore,
				inspect.BranchLabel,
			))
		})
	}
}

func Test_Array_GetFutureIndexBounds(t *testing.T) {
	conn := NewDebugConnection("Alice", nil)

	array, err := conn.NewArray(2)
	require.NoError(t, err)

	_, err = array.GetFutureIndex(2)
	assert.Error(t, err)
	_, err = array.GetFutureIndex(-1)
	assert.Error(t, err)
	_, err = array.GetFutureIndex(1)
	assert.NoError(t, err)
}

func Test_Array_Addressing(t *testing.T) {
	conn := NewDebugConnection("Alice", nil)

	first, err := conn.NewArray(3)
	require.NoError(t, err)
	second, err := conn.NewArray(5)
	require.NoError(t, err)

	assert.Equal(t, ir.Address(0), first.Address())
	assert.Equal(t, ir.Address(1), second.Address())
	assert.Equal(t, 5, second.Length())

	sub, _ := popInspect(t, conn)
	require.Len(t, sub.Arrays, 2)
	assert.Equal(t, ir.ArrayDecl{Address: 0, Length: 3}, sub.Arrays[0])
	assert.Equal(t, []ir.Address{0, 1}, sub.ReturnArrays)
}
