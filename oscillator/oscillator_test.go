package oscillator_test

import (
	"testing"

	"github.com/edp1096/qoc/control"
	"github.com/edp1096/qoc/oscillator"
	"github.com/stretchr/testify/require"
)

func mustBasis(t *testing.T) *control.Basis {
	b, err := control.NewBasis(1.0, 6, []float64{0.0})
	require.NoError(t, err)
	return b
}

func TestLadderDense(t *testing.T) {
	o, err := oscillator.New("q0", 3, 2, mustBasis(t), 1.0)
	require.NoError(t, err)
	a := o.LadderDense()
	require.InDelta(t, 1.0, a[0][1], 1e-12)
	require.InDelta(t, 1.4142135623730951, a[1][2], 1e-9)
	require.Equal(t, 0.0, a[2][0])
}

func TestGuardLevels(t *testing.T) {
	o, err := oscillator.New("q0", 3, 2, mustBasis(t), 1.0)
	require.NoError(t, err)
	require.True(t, o.HasGuard())
	require.Equal(t, []int{2}, o.GuardLevels())
}

func TestSystemLiftDimension(t *testing.T) {
	o1, _ := oscillator.New("q0", 2, 2, mustBasis(t), 0.0)
	o2, _ := oscillator.New("q1", 3, 2, mustBasis(t), 1.0)
	sys, err := oscillator.NewSystem([]*oscillator.Oscillator{o1, o2})
	require.NoError(t, err)
	require.Equal(t, 6, sys.N)

	a0 := sys.Lowering(0)
	require.Equal(t, 6, a0.Rows)
	dense := a0.Dense()
	// a0 lowers the first factor: index (i0,i1) -> i0*3+i1 (row-major over dims)
	require.InDelta(t, 1.0, dense[0][3], 1e-12) // (0,0) <- (1,0): row=0*3+0=0,col=1*3+0=3
}

func TestEssentialMaskAndGuardWeight(t *testing.T) {
	o1, _ := oscillator.New("q0", 3, 2, mustBasis(t), 2.0)
	sys, err := oscillator.NewSystem([]*oscillator.Oscillator{o1})
	require.NoError(t, err)
	mask := sys.EssentialMask()
	require.Equal(t, []bool{true, true, false}, mask)
	w := sys.GuardWeight()
	require.Equal(t, []float64{0, 0, 2.0}, w)
}
