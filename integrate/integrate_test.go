package integrate_test

import (
	"math"
	"testing"

	"github.com/edp1096/qoc/integrate"
	"github.com/edp1096/qoc/linsolve"
	"github.com/edp1096/qoc/sparse"
	"github.com/stretchr/testify/require"
)

// rotationAssemble returns a constant skew-symmetric generator
// A = [[0, w], [-w, 0]], whose exact flow is a 2D rotation by w*t,
// giving a closed-form reference solution for integrator-order checks.
func rotationAssemble(w float64) integrate.AssembleFunc {
	b := sparse.NewBuilder(2, 2)
	b.Add(0, 1, w)
	b.Add(1, 0, -w)
	a := b.Build()
	return func(float64) *sparse.Matrix { return a }
}

func exactRotation(w, tt float64, x0 []float64) []float64 {
	c, s := math.Cos(w*tt), math.Sin(w*tt)
	return []float64{c*x0[0] + s*x0[1], -s*x0[0] + c*x0[1]}
}

func runFixedStep(method integrate.Method, assemble integrate.AssembleFunc, x0 []float64, tEnd float64, nsteps int) ([]float64, error) {
	h := tEnd / float64(nsteps)
	x := append([]float64(nil), x0...)
	t := 0.0
	settings := linsolve.Settings{Tolerance: 1e-13, MaxIterations: 200}
	var err error
	for i := 0; i < nsteps; i++ {
		x, err = method.EvolveFwd(assemble, linsolve.GMRES{}, settings, x, t, h)
		if err != nil {
			return nil, err
		}
		t += h
	}
	return x, nil
}

func errorAt(method integrate.Method, w float64, nsteps int) float64 {
	assemble := rotationAssemble(w)
	x0 := []float64{1.0, 0.0}
	got, err := runFixedStep(method, assemble, x0, 1.0, nsteps)
	if err != nil {
		panic(err)
	}
	want := exactRotation(w, 1.0, x0)
	num := math.Hypot(got[0]-want[0], got[1]-want[1])
	den := math.Hypot(want[0], want[1])
	return num / den
}

func TestEulerIsFirstOrder(t *testing.T) {
	eCoarse := errorAt(integrate.Euler{}, 2.0, 50)
	eFine := errorAt(integrate.Euler{}, 2.0, 100)
	ratio := eCoarse / eFine
	require.Greater(t, ratio, 1.7) // expect ~2 for a first-order method
}

func TestImplicitMidpointIsSecondOrder(t *testing.T) {
	eCoarse := errorAt(integrate.ImplicitMidpoint{}, 2.0, 20)
	eFine := errorAt(integrate.ImplicitMidpoint{}, 2.0, 40)
	ratio := eCoarse / eFine
	require.Greater(t, ratio, 3.5) // expect ~4 for a second-order method
}

func TestComposition4IsHigherOrderThanMidpoint(t *testing.T) {
	comp4 := integrate.NewComposition4()
	eMid := errorAt(integrate.ImplicitMidpoint{}, 2.0, 10)
	eComp := errorAt(comp4, 2.0, 10)
	require.Less(t, eComp, eMid)
}

func TestComposition4CoefficientsSumToOne(t *testing.T) {
	g1 := 1.0 / (2.0 - math.Cbrt(2.0))
	g2 := -math.Cbrt(2.0) * g1
	require.InDelta(t, 1.0, g1+g2+g1, 1e-14)
}

func TestComposition8PalindromeSum(t *testing.T) {
	head := []float64{
		0.74167036435061295344822780,
		-0.40910082580003159399730010,
		0.19075471029623837995387626,
		-0.57386247111608226665638773,
		0.29906418130365592384446354,
		0.33462491824529818378495798,
		0.31529309239676659663205666,
		-0.79688793935291635401978884,
	}
	sum := 0.0
	for _, g := range head {
		sum += g
	}
	for i := 6; i >= 0; i-- {
		sum += head[i]
	}
	require.LessOrEqual(t, math.Abs(sum-1.0), 1e-14)
}

func TestImplicitMidpointTimeReversible(t *testing.T) {
	assemble := rotationAssemble(1.3)
	x0 := []float64{0.6, -0.8}
	mid := integrate.ImplicitMidpoint{}

	fwd, err := runFixedStep(mid, assemble, x0, 1.0, 25)
	require.NoError(t, err)

	// Run the same method backward in time (negative h) from fwd.
	h := -1.0 / 25.0
	x := append([]float64(nil), fwd...)
	tt := 1.0
	settings := linsolve.Settings{Tolerance: 1e-13, MaxIterations: 200}
	for i := 0; i < 25; i++ {
		x, err = mid.EvolveFwd(assemble, linsolve.GMRES{}, settings, x, tt, h)
		require.NoError(t, err)
		tt += h
	}

	require.InDelta(t, x0[0], x[0], 1e-9)
	require.InDelta(t, x0[1], x[1], 1e-9)
}

func TestImplicitMidpointAdjointMatchesFiniteDifference(t *testing.T) {
	w := 0.9
	assemble := rotationAssemble(w)
	mid := integrate.ImplicitMidpoint{}
	settings := linsolve.Settings{Tolerance: 1e-13, MaxIterations: 200}
	h := 0.05
	tStart := 0.2

	eval := func(x0 []float64) float64 {
		x, err := mid.EvolveFwd(assemble, linsolve.GMRES{}, settings, x0, tStart, h)
		require.NoError(t, err)
		return x[0] + 2*x[1] // linear functional of the endpoint state
	}

	x0 := []float64{0.4, 0.7}
	// Discrete adjoint of the linear functional c . x_next w.r.t. x0
	// is EvolveBwd applied to c.
	lambdaNext := []float64{1.0, 2.0}
	grad, err := mid.EvolveBwd(assemble, linsolve.GMRES{}, settings, lambdaNext, tStart, h)
	require.NoError(t, err)

	const eps = 1e-6
	for j := 0; j < 2; j++ {
		xp := append([]float64(nil), x0...)
		xm := append([]float64(nil), x0...)
		xp[j] += eps
		xm[j] -= eps
		fd := (eval(xp) - eval(xm)) / (2 * eps)
		require.InDelta(t, fd, grad[j], 1e-6)
	}
}
