package assembler_test

import (
	"math"
	"testing"

	"github.com/edp1096/qoc/assembler"
	"github.com/edp1096/qoc/control"
	"github.com/edp1096/qoc/oscillator"
	"github.com/stretchr/testify/require"
)

func mustSystem(t *testing.T) *oscillator.System {
	basis, err := control.NewBasis(2.0, 6, []float64{1.0, 3.0})
	require.NoError(t, err)
	o0, err := oscillator.New("q0", 3, 2, basis, 1.0)
	require.NoError(t, err)
	o1, err := oscillator.New("q1", 2, 2, basis, 0.0)
	require.NoError(t, err)
	sys, err := oscillator.NewSystem([]*oscillator.Oscillator{o0, o1})
	require.NoError(t, err)
	return sys
}

func randomDesign(sys *oscillator.System) []float64 {
	x := make([]float64, sys.ParamDim())
	for i := range x {
		x[i] = 0.1 * float64(i%5-2)
	}
	return x
}

func denseEqual(t *testing.T, want, got [][]float64) {
	require.Equal(t, len(want), len(got))
	for i := range want {
		for j := range want[i] {
			require.InDelta(t, want[i][j], got[i][j], 1e-9, "mismatch at (%d,%d)", i, j)
		}
	}
}

func TestAssembleRHSMatchesDenseReference_Lindblad(t *testing.T) {
	sys := mustSystem(t)
	a, err := assembler.New(assembler.Lindblad, sys, nil, assembler.LindbladBoth, []float64{10.0, 20.0})
	require.NoError(t, err)
	require.NoError(t, a.SetDesign(randomDesign(sys)))

	for _, tt := range []float64{0.0, 0.37, 1.0, 2.0} {
		got := a.AssembleRHS(tt).Dense()
		want := a.ReferenceDenseRHS(tt)
		denseEqual(t, want, got)
	}
}

func TestAssembleRHSMatchesDenseReference_Schrodinger(t *testing.T) {
	sys := mustSystem(t)
	drift := make([][]float64, sys.N)
	for i := range drift {
		drift[i] = make([]float64, sys.N)
	}
	drift[0][1], drift[1][0] = 0.05, 0.05
	a, err := assembler.New(assembler.Schrodinger, sys, drift, assembler.LindbladNone, nil)
	require.NoError(t, err)
	require.NoError(t, a.SetDesign(randomDesign(sys)))

	for _, tt := range []float64{0.0, 0.5, 1.3} {
		got := a.AssembleRHS(tt).Dense()
		want := a.ReferenceDenseRHS(tt)
		denseEqual(t, want, got)
	}
}

func TestSchrodingerRHSIsSkewSymmetric(t *testing.T) {
	// In Schrodinger mode RHS(t) must be skew-symmetric: the block
	// operator represents d/dt (re(psi), im(psi)) = [[0,H],[-H,0]]*(re,im),
	// a real rotation generator, so RHS(t)^T == -RHS(t).
	sys := mustSystem(t)
	a, err := assembler.New(assembler.Schrodinger, sys, nil, assembler.LindbladNone, nil)
	require.NoError(t, err)
	require.NoError(t, a.SetDesign(randomDesign(sys)))

	rhs := a.AssembleRHS(0.8).Dense()
	for i := range rhs {
		for j := range rhs[i] {
			require.InDelta(t, rhs[i][j], -rhs[j][i], 1e-9)
		}
	}
}

func TestComputeDRHSDPContribMatchesFiniteDifference(t *testing.T) {
	sys := mustSystem(t)
	a, err := assembler.New(assembler.Lindblad, sys, nil, assembler.LindbladDecay, []float64{5.0, 8.0})
	require.NoError(t, err)
	x := randomDesign(sys)
	require.NoError(t, a.SetDesign(x))

	n := a.Order
	fwd := make([]float64, n)
	adj := make([]float64, n)
	for i := 0; i < n; i++ {
		fwd[i] = math.Sin(float64(i) + 0.3)
		adj[i] = math.Cos(float64(i) + 0.7)
	}
	tt := 0.6

	grad := make([]float64, sys.ParamDim())
	require.NoError(t, a.ComputeDRHSDPContrib(tt, fwd, adj, 1.0, grad))

	// f(x) = adj . RHS(t;x) . fwd, gradient via central differences.
	eval := func(xx []float64) float64 {
		require.NoError(t, a.SetDesign(xx))
		rhs := a.AssembleRHS(tt)
		y := make([]float64, n)
		rhs.MatVec(fwd, y)
		sum := 0.0
		for i := range y {
			sum += adj[i] * y[i]
		}
		return sum
	}

	const h = 1e-6
	for j := 0; j < sys.ParamDim(); j++ {
		xp := append([]float64(nil), x...)
		xm := append([]float64(nil), x...)
		xp[j] += h
		xm[j] -= h
		fd := (eval(xp) - eval(xm)) / (2 * h)
		require.InDelta(t, fd, grad[j], 1e-4, "param %d", j)
	}
	require.NoError(t, a.SetDesign(x))
}
