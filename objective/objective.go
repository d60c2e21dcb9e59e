// Package objective composes the terminal target score, the Tikhonov
// regularizer, the running (weighted) infidelity penalty, and the
// guard-level leakage penalty into the scalar cost J and its gradient
// (§4.7). It accumulates running sums across a trajectory the way the
// teacher's pkg/analysis/anlysis.go BaseAnalysis accumulates
// per-time-step results into named result slices, specialized from
// "store every (name, value) pair" bookkeeping to a fixed set of
// scalar running sums plus a reverse-accumulated gradient.
package objective

import (
	"math"

	"github.com/edp1096/qoc/target"
)

// Config bundles the scalar weights and leakage bookkeeping an
// Objective needs, independent of how the trajectory was produced
// (§9 "each component takes exactly the collaborators it needs").
type Config struct {
	Target target.Target

	GammaTikhonov float64
	GammaPenalty  float64
	GammaLeakage  float64
	PenaltyParam  float64 // sigma in w(t)

	// EssentialMask/GuardWeight are per-basis-index bookkeeping from
	// the oscillator system (oscillator.System.EssentialMask/GuardWeight),
	// threaded in as plain slices so this package never imports
	// oscillator.
	EssentialMask []bool
	GuardWeight   []float64

	T float64 // trajectory horizon
}

// Objective accumulates the running-penalty and leakage integrals
// across a trajectory sweep, then combines them with the terminal
// target score and the Tikhonov term into the final (J, grad).
type Objective struct {
	cfg Config

	runningPenalty float64 // accumulated integral of w(t)*J_terminal(rho(t))
	leakage        float64 // accumulated integral of guard-level populations
}

// New constructs an empty accumulator ready for a forward sweep.
func New(cfg Config) *Objective {
	return &Objective{cfg: cfg}
}

// RunningWeight is w(t) = (1/sigma)*exp(-((t-T)/sigma)^2), emphasizing
// late-time deviations (§4.7).
func (o *Objective) RunningWeight(t float64) float64 {
	sigma := o.cfg.PenaltyParam
	if sigma <= 0 {
		return 0
	}
	d := (t - o.cfg.T) / sigma
	return (1 / sigma) * math.Exp(-d*d)
}

// AccumulateStep folds one trajectory sample at time t into the
// running penalty and leakage integrals, weighted by the step's
// quadrature width dt (midpoint/trapezoid per the caller's scheme,
// §4.7 "approximated by the midpoint/trapezoid sum consistent with
// the chosen integrator").
func (o *Objective) AccumulateStep(t float64, state []float64, dt float64) {
	o.runningPenalty += o.RunningWeight(t) * o.cfg.Target.Infidelity(state) * dt
	o.leakage += o.leakagePopulation(state) * dt
}

// leakagePopulation sums guard-level populations weighted per level
// (§4.7 "ℓ sums the populations of designated guard levels"). state is
// either a Schrodinger-mode amplitude vector (re/im halves, length 2N)
// or a Lindblad-mode vectorized density matrix (length 2N^2); which
// one is inferred from state's length against GuardWeight's length N.
func (o *Objective) leakagePopulation(state []float64) float64 {
	n := len(o.cfg.GuardWeight)
	if n == 0 {
		return 0
	}
	if len(state) == 2*n {
		// Schrodinger: population_i = re_i^2 + im_i^2.
		sum := 0.0
		re, im := state[:n], state[n:]
		for i := 0; i < n; i++ {
			if o.cfg.GuardWeight[i] == 0 {
				continue
			}
			sum += o.cfg.GuardWeight[i] * (re[i]*re[i] + im[i]*im[i])
		}
		return sum
	}
	if len(state) == 2*n*n {
		// Lindblad: population_i = Re(rho_ii) = vecRe[i*n+i] under the
		// column-major vec(rho) layout this module uses throughout.
		sum := 0.0
		vecRe := state[:n*n]
		for i := 0; i < n; i++ {
			if o.cfg.GuardWeight[i] == 0 {
				continue
			}
			sum += o.cfg.GuardWeight[i] * vecRe[i*n+i]
		}
		return sum
	}
	return 0
}

// Finalize combines the accumulated running penalty/leakage with the
// terminal target score and the Tikhonov term into J, adds the
// Tikhonov gradient contribution into the caller-supplied grad, and
// returns the terminal-target gradient (w.r.t. the final state, handed
// to the caller's adjoint sweep) in a newly allocated slice. Terminal-state gradient accumulation
// into the design-vector gradient happens via the adjoint sweep, not
// here (§4.7 "reverse-accumulating").
func (o *Objective) Finalize(stateFinal []float64, x, x0 []float64, grad []float64) (j float64, terminalGrad []float64) {
	jTerminal := o.cfg.Target.Infidelity(stateFinal)
	tikhonov := 0.0
	if o.cfg.GammaTikhonov > 0 {
		for i := range x {
			d := x[i] - x0[i]
			tikhonov += d * d
		}
		tikhonov *= o.cfg.GammaTikhonov / 2
		for i := range grad {
			grad[i] += o.cfg.GammaTikhonov * (x[i] - x0[i])
		}
	}

	j = jTerminal + tikhonov + o.cfg.GammaPenalty*o.runningPenalty + o.cfg.GammaLeakage*o.leakage

	terminalGrad = make([]float64, len(stateFinal))
	o.cfg.Target.InfidelityGrad(stateFinal, terminalGrad)
	return j, terminalGrad
}

// Reset clears the running accumulators so the same Objective can be
// reused across optimizer iterations without reallocating.
func (o *Objective) Reset() {
	o.runningPenalty = 0
	o.leakage = 0
}
