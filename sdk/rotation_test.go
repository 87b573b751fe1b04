package sdk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doomsk/netqasm/lang/ir"
)

func rotationAngle(steps []rotationStep) float64 {
	total := 0.0
	for _, step := range steps {
		total += float64(step.n) * math.Pi / math.Exp2(float64(step.d))
	}
	return total
}

func Test_AngleSpec_ExactFractions(t *testing.T) {
	assert.Equal(t, []rotationStep{{n: 1, d: 0}}, angleSpecFromFloat(math.Pi))
	assert.Equal(t, []rotationStep{{n: 1, d: 1}}, angleSpecFromFloat(math.Pi/2))
	assert.Equal(t, []rotationStep{{n: 3, d: 2}}, angleSpecFromFloat(3*math.Pi/4))
	assert.Equal(t, []rotationStep{{n: -1, d: 1}}, angleSpecFromFloat(-math.Pi/2))
}

func Test_AngleSpec_ZeroAngle(t *testing.T) {
	assert.Equal(t, []rotationStep{{n: 0, d: 0}}, angleSpecFromFloat(0))
}

func Test_AngleSpec_ApproximatesWithinTolerance(t *testing.T) {
	for _, angle := range []float64{0.1, 1.0, 2.5, -0.7, math.Pi / 3} {
		steps := angleSpecFromFloat(angle)
		require.NotEmpty(t, steps)
		assert.InDelta(t, angle, rotationAngle(steps), angleTolerance,
			"angle %v approximated by %v", angle, steps)
		assert.LessOrEqual(t, len(steps), maxRotationSteps)
		for _, step := range steps {
			assert.LessOrEqual(t, step.d, maxRotationDenominator)
		}
	}
}

func Test_AngleSpec_Deterministic(t *testing.T) {
	assert.Equal(t, angleSpecFromFloat(1.234), angleSpecFromFloat(1.234))
}

func Test_Rotation_ImmediateOperands(t *testing.T) {
	conn := NewDebugConnection("Alice", nil)

	q := newQubit(t, conn)
	require.NoError(t, q.RotX(3, 1))

	sub, in := popInspect(t, conn)
	assert.True(t, in.MatchPattern(ir.SET, ir.ROT_X))

	var rot *ir.ICmd
	for _, cmd := range sub.Commands {
		if icmd, ok := cmd.(*ir.ICmd); ok && icmd.Instruction == ir.ROT_X {
			rot = icmd
		}
	}
	require.NotNil(t, rot)
	require.Len(t, rot.Operands, 3)
	assert.Equal(t, ir.Imm(3), rot.Operands[1])
	assert.Equal(t, ir.Imm(1), rot.Operands[2])
}

func Test_Rotation_AngleLowersToSequence(t *testing.T) {
	conn := NewDebugConnection("Alice", nil)

	q := newQubit(t, conn)
	require.NoError(t, q.RotYAngle(math.Pi/2))

	_, in := popInspect(t, conn)
	assert.True(t, in.MatchPattern(ir.SET, ir.ROT_Y))
	assert.False(t, in.ContainsInstr(ir.ROT_X))
	assert.False(t, in.ContainsInstr(ir.ROT_Z))
}
