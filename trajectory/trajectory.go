// Package trajectory composes the integrate package's per-step
// EvolveFwd/GradStep into the two external operations the gradient
// pipeline needs (§6): a forward sweep that produces the final state
// (solve_ode) and a backward sweep that walks the discrete adjoint
// back over the same steps, accumulating the design gradient as it
// goes (solve_adjoint_ode). It follows the teacher's
// pkg/analysis/tran.go Transient.Execute shape — a fixed loop over
// time steps storing one named result per step
// (tr.StoreTimeResult(tr.time, ...)) — specialized from "always keep
// every step" to the per-mode storage policy (§4.6): Lindblad mode
// keeps the full trajectory so the backward sweep reads states back
// directly, Schrodinger mode keeps only the final state and
// recomputes the primal backward by evolving with step -dt, since the
// methods in this module are time-reversible in that mode.
package trajectory

import (
	"fmt"

	"github.com/edp1096/qoc/integrate"
	"github.com/edp1096/qoc/linsolve"
)

// Mode selects the storage policy, mirroring assembler.Mode's
// Lindblad/Schrodinger split without importing that package — a
// Trajectory only needs to know which policy applies, never the
// physical representation details assembler.Mode also carries.
type Mode int

const (
	Lindblad Mode = iota
	Schrodinger
)

// Trajectory is the result of a forward sweep: the final state plus
// enough bookkeeping to replay the primal states a backward sweep
// needs, per Mode's storage policy.
type Trajectory struct {
	mode     Mode
	x0       []float64
	final    []float64
	states   [][]float64 // populated only when mode == Lindblad; states[i] is the state at t0+i*dt

	assemble integrate.AssembleFunc
	method   integrate.Method
	solver   linsolve.Method
	settings linsolve.Settings

	t0     float64
	dt     float64
	nsteps int
}

// Run sweeps x0 forward nsteps steps of width dt starting at t0,
// storing the full trajectory when mode is Lindblad or only the
// final state when mode is Schrodinger (§4.6 "Trajectory storage
// policy").
func Run(mode Mode, method integrate.Method, solver linsolve.Method, settings linsolve.Settings, assemble integrate.AssembleFunc, x0 []float64, t0, dt float64, nsteps int) (*Trajectory, error) {
	tr := &Trajectory{
		mode:     mode,
		x0:       x0,
		assemble: assemble,
		method:   method,
		solver:   solver,
		settings: settings,
		t0:       t0,
		dt:       dt,
		nsteps:   nsteps,
	}

	if mode == Lindblad {
		tr.states = make([][]float64, nsteps+1)
		tr.states[0] = x0
	}

	cur := x0
	t := t0
	for step := 0; step < nsteps; step++ {
		next, err := method.EvolveFwd(assemble, solver, settings, cur, t, dt)
		if err != nil {
			return nil, fmt.Errorf("trajectory: forward step %d: %w", step, err)
		}
		cur = next
		t += dt
		if mode == Lindblad {
			tr.states[step+1] = cur
		}
	}
	tr.final = cur
	return tr, nil
}

// Final returns the state at t0+nsteps*dt.
func (tr *Trajectory) Final() []float64 { return tr.final }

// StateAt returns the primal state at t0+i*dt (0 <= i <= nsteps). In
// Lindblad mode this is a direct lookup of the stored trajectory; in
// Schrodinger mode it is recomputed by evolving the final state
// backward with step -dt, relying on the time-reversibility of the
// methods in this module in that representation (§4.6).
func (tr *Trajectory) StateAt(i int) ([]float64, error) {
	if i < 0 || i > tr.nsteps {
		return nil, fmt.Errorf("trajectory: StateAt: index %d out of range [0,%d]", i, tr.nsteps)
	}
	if tr.mode == Lindblad {
		return tr.states[i], nil
	}

	cur := tr.final
	t := tr.t0 + float64(tr.nsteps)*tr.dt
	for step := tr.nsteps; step > i; step-- {
		prev, err := tr.method.EvolveFwd(tr.assemble, tr.solver, tr.settings, cur, t, -tr.dt)
		if err != nil {
			return nil, fmt.Errorf("trajectory: backward recompute at step %d: %w", step, err)
		}
		cur = prev
		t -= tr.dt
	}
	return cur, nil
}

// SolveAdjoint walks the discrete adjoint backward from lambdaFinal
// (the adjoint seed at the trajectory's final time, typically
// Objective.Finalize's terminalGrad) over every step this trajectory
// took, calling contrib once per step's internal gradient
// contribution through integrate.Method.GradStep, and returns the
// adjoint state at t0 (§6 "solve_adjoint_ode(...) -> accumulates into
// grad").
func (tr *Trajectory) SolveAdjoint(lambdaFinal []float64, contrib integrate.ContribFunc) ([]float64, error) {
	lambda := lambdaFinal
	for step := tr.nsteps - 1; step >= 0; step-- {
		xStart, err := tr.StateAt(step)
		if err != nil {
			return nil, fmt.Errorf("trajectory: adjoint step %d: %w", step, err)
		}
		t := tr.t0 + float64(step)*tr.dt

		next, err := tr.method.GradStep(tr.assemble, tr.solver, tr.settings, xStart, lambda, t, tr.dt, contrib)
		if err != nil {
			return nil, fmt.Errorf("trajectory: adjoint step %d: %w", step, err)
		}
		lambda = next
	}
	return lambda, nil
}
