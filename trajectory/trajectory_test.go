package trajectory_test

import (
	"testing"

	"github.com/edp1096/qoc/assembler"
	"github.com/edp1096/qoc/control"
	"github.com/edp1096/qoc/integrate"
	"github.com/edp1096/qoc/linsolve"
	"github.com/edp1096/qoc/objective"
	"github.com/edp1096/qoc/oscillator"
	"github.com/edp1096/qoc/target"
	"github.com/edp1096/qoc/trajectory"
	"github.com/stretchr/testify/require"
)

func buildTestSystem(t *testing.T) *oscillator.System {
	basis, err := control.NewBasis(1.0, 3, []float64{1.0})
	require.NoError(t, err)
	o0, err := oscillator.New("q0", 2, 2, basis, 0.0)
	require.NoError(t, err)
	sys, err := oscillator.NewSystem([]*oscillator.Oscillator{o0})
	require.NoError(t, err)
	return sys
}

// runJ recomputes J(x) via a fresh forward sweep and Objective.Finalize,
// independent of the adjoint path, so it can serve as a
// finite-difference oracle for the composed adjoint gradient.
func runJ(t *testing.T, sys *oscillator.System, tgt target.Target, x []float64, nsteps int, dt, gammaTikhonov float64) float64 {
	a, err := assembler.New(assembler.Schrodinger, sys, nil, assembler.LindbladNone, nil)
	require.NoError(t, err)
	require.NoError(t, a.SetDesign(x))

	state := make([]float64, 2*sys.N)
	state[0] = 1

	method := integrate.ImplicitMidpoint{}
	solver := linsolve.GMRES{}
	settings := linsolve.Settings{Tolerance: 1e-13, MaxIterations: 200}

	tr, err := trajectory.Run(trajectory.Schrodinger, method, solver, settings, a.AssembleRHS, state, 0, dt, nsteps)
	require.NoError(t, err)

	x0 := make([]float64, len(x))
	obj := objective.New(objective.Config{
		Target:        tgt,
		GammaTikhonov: gammaTikhonov,
		T:             float64(nsteps) * dt,
		EssentialMask: sys.EssentialMask(),
		GuardWeight:   sys.GuardWeight(),
	})
	grad := make([]float64, sys.ParamDim())
	j, _ := obj.Finalize(tr.Final(), x, x0, grad)
	return j
}

// TestSolveAdjointMatchesFiniteDifference composes trajectory.Run,
// objective.Objective.Finalize, and trajectory.Trajectory.SolveAdjoint
// into the full discrete-adjoint gradient pipeline and checks it
// against centered finite differences of the end-to-end objective,
// exercising integrate.ImplicitMidpoint.GradStep (the reverse-time
// path that silently never ran until opsOf's argument order was
// fixed).
func TestSolveAdjointMatchesFiniteDifference(t *testing.T) {
	sys := buildTestSystem(t)
	tgt := target.NewStateTransfer(target.Schrodinger, []float64{0, 1}, []float64{0, 0})

	x := make([]float64, sys.ParamDim())
	for i := range x {
		x[i] = 0.05 * float64(i%3-1)
	}

	const dt = 0.05
	const nsteps = 4
	const gammaTikhonov = 0.1

	a, err := assembler.New(assembler.Schrodinger, sys, nil, assembler.LindbladNone, nil)
	require.NoError(t, err)
	require.NoError(t, a.SetDesign(x))

	state := make([]float64, 2*sys.N)
	state[0] = 1

	method := integrate.ImplicitMidpoint{}
	solver := linsolve.GMRES{}
	settings := linsolve.Settings{Tolerance: 1e-13, MaxIterations: 200}

	tr, err := trajectory.Run(trajectory.Schrodinger, method, solver, settings, a.AssembleRHS, state, 0, dt, nsteps)
	require.NoError(t, err)

	x0 := make([]float64, len(x))
	obj := objective.New(objective.Config{
		Target:        tgt,
		GammaTikhonov: gammaTikhonov,
		T:             float64(nsteps) * dt,
		EssentialMask: sys.EssentialMask(),
		GuardWeight:   sys.GuardWeight(),
	})
	grad := make([]float64, sys.ParamDim())
	_, terminalGrad := obj.Finalize(tr.Final(), x, x0, grad)

	contrib := func(tt float64, stateFwd, stateAdj []float64, scale float64) error {
		return a.ComputeDRHSDPContrib(tt, stateFwd, stateAdj, scale, grad)
	}
	_, err = tr.SolveAdjoint(terminalGrad, contrib)
	require.NoError(t, err)

	const h = 1e-6
	for j := 0; j < len(x); j++ {
		xp := append([]float64(nil), x...)
		xm := append([]float64(nil), x...)
		xp[j] += h
		xm[j] -= h
		jp := runJ(t, sys, tgt, xp, nsteps, dt, gammaTikhonov)
		jm := runJ(t, sys, tgt, xm, nsteps, dt, gammaTikhonov)
		fd := (jp - jm) / (2 * h)
		require.InDelta(t, fd, grad[j], 1e-4, "param %d", j)
	}
}

// TestStateAtBackwardRecomputeMatchesForward checks the Schrodinger
// storage policy's core claim: recomputing a stored-nothing trajectory
// backward from the final state reproduces the forward states, up to
// solver tolerance (§4.6 "the integrator is time-reversible in that
// mode").
func TestStateAtBackwardRecomputeMatchesForward(t *testing.T) {
	sys := buildTestSystem(t)
	x := make([]float64, sys.ParamDim())
	for i := range x {
		x[i] = 0.03 * float64(i%4-2)
	}
	a, err := assembler.New(assembler.Schrodinger, sys, nil, assembler.LindbladNone, nil)
	require.NoError(t, err)
	require.NoError(t, a.SetDesign(x))

	state := make([]float64, 2*sys.N)
	state[0] = 1

	method := integrate.ImplicitMidpoint{}
	solver := linsolve.GMRES{}
	settings := linsolve.Settings{Tolerance: 1e-13, MaxIterations: 200}

	const dt = 0.05
	const nsteps = 5

	trLindblad, err := trajectory.Run(trajectory.Lindblad, method, solver, settings, a.AssembleRHS, state, 0, dt, nsteps)
	require.NoError(t, err)
	trSchrodinger, err := trajectory.Run(trajectory.Schrodinger, method, solver, settings, a.AssembleRHS, state, 0, dt, nsteps)
	require.NoError(t, err)

	for i := 0; i <= nsteps; i++ {
		want, err := trLindblad.StateAt(i)
		require.NoError(t, err)
		got, err := trSchrodinger.StateAt(i)
		require.NoError(t, err)
		for k := range want {
			require.InDelta(t, want[k], got[k], 1e-8, "step %d component %d", i, k)
		}
	}
}
