package qlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_EPRType_String(t *testing.T) {
	assert.Equal(t, "K", TypeK.String())
	assert.Equal(t, "M", TypeM.String())
	assert.Equal(t, "R", TypeR.String())
}

func Test_EPRType_KeepsQubits(t *testing.T) {
	assert.True(t, TypeK.KeepsQubits())
	assert.False(t, TypeM.KeepsQubits())
	assert.False(t, TypeR.KeepsQubits())
}

func Test_EPRType_OKFields(t *testing.T) {
	for _, tp := range []EPRType{TypeK, TypeM, TypeR} {
		assert.Greater(t, tp.OKFields(), OKSlotBellState, "record must hold all named slots")
	}
}

func Test_RequestArgs_Fields(t *testing.T) {
	args := RequestArgs{Type: TypeK, Number: 7, MinFidelity: 95}
	fields := args.Fields()
	assert.Len(t, fields, NumRequestArgFields)
	assert.Equal(t, int(TypeK), fields[0])
	assert.Equal(t, 7, fields[1])
	assert.Equal(t, 95, fields[2])
}
