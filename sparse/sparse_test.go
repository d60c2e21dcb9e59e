package sparse_test

import (
	"testing"

	"github.com/edp1096/qoc/sparse"
	"github.com/stretchr/testify/require"
)

func denseMatVec(a [][]float64, x []float64) []float64 {
	y := make([]float64, len(a))
	for i := range a {
		for j := range a[i] {
			y[i] += a[i][j] * x[j]
		}
	}
	return y
}

func TestMatVecMatchesDense(t *testing.T) {
	b := sparse.NewBuilder(3, 3)
	b.Add(0, 0, 2)
	b.Add(0, 2, -1)
	b.Add(1, 1, 5)
	b.Add(2, 0, 3)
	b.Add(2, 2, 1)
	m := b.Build()

	dense := [][]float64{
		{2, 0, -1},
		{0, 5, 0},
		{3, 0, 1},
	}
	x := []float64{1, 2, 3}
	want := denseMatVec(dense, x)

	got := make([]float64, 3)
	m.MatVec(x, got)
	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-12)
	}
}

func TestMatVecTransMatchesTranspose(t *testing.T) {
	b := sparse.NewBuilder(2, 3)
	b.Add(0, 0, 1)
	b.Add(0, 1, 2)
	b.Add(1, 2, 4)
	m := b.Build()

	x := []float64{1, -1}
	got := make([]float64, 3)
	m.MatVecTrans(x, got)

	// A^T x computed by hand: A = [[1,2,0],[0,0,4]]
	want := []float64{1, 2, -4}
	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-12)
	}
}

func TestAXPYSamePattern(t *testing.T) {
	dstB := sparse.NewBuilder(2, 2)
	dstB.Add(0, 0, 1)
	dstB.Add(0, 1, 1)
	dstB.Add(1, 1, 1)
	dst := dstB.Build()

	srcB := sparse.NewBuilder(2, 2)
	srcB.Add(0, 0, 3)
	srcB.Add(1, 1, 2)
	src := srcB.Build()

	scatter, err := sparse.BuildScatterMap(dst, src)
	require.NoError(t, err)

	dst.AXPYSamePattern(2.0, src, scatter)
	dense := dst.Dense()
	require.InDelta(t, 7.0, dense[0][0], 1e-12) // 1 + 2*3
	require.InDelta(t, 1.0, dense[0][1], 1e-12)
	require.InDelta(t, 5.0, dense[1][1], 1e-12) // 1 + 2*2
}

func TestShiftIdentity(t *testing.T) {
	b := sparse.NewBuilder(2, 2)
	b.Add(0, 0, 1)
	b.Add(1, 1, 1)
	m := b.Build()
	require.NoError(t, m.ShiftIdentity(5))
	dense := m.Dense()
	require.InDelta(t, 6.0, dense[0][0], 1e-12)
	require.InDelta(t, 6.0, dense[1][1], 1e-12)
}

func TestKronIdentityLeftAndRight(t *testing.T) {
	xb := sparse.NewBuilder(2, 2)
	xb.Add(0, 1, 7)
	x := xb.Build()

	left := sparse.KronIdentityLeft(2, x) // I2 ⊗ x, 4x4
	require.Equal(t, 4, left.Rows)
	dense := left.Dense()
	require.InDelta(t, 7, dense[0][1], 1e-12)
	require.InDelta(t, 7, dense[2][3], 1e-12)

	right := sparse.KronIdentityRight(x, 2) // x ⊗ I2, 4x4
	dense2 := right.Dense()
	require.InDelta(t, 7, dense2[0][2], 1e-12) // (row0,col1) of x maps to (0*2+0, 1*2+0)
	require.InDelta(t, 7, dense2[1][3], 1e-12)
}

func TestZeroValuesClearsEveryValue(t *testing.T) {
	b := sparse.NewBuilder(2, 2)
	b.Add(0, 0, 9)
	m := b.Build()
	m.ZeroValues()
	for _, v := range m.Values {
		require.Equal(t, 0.0, v)
	}
}
