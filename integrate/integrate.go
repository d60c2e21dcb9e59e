// Package integrate provides the closed set of time-stepping methods
// this module supports — Euler, implicit midpoint, and Yoshida-type
// symmetric compositions built on top of implicit midpoint — plus
// their discrete adjoints (§4.6, §9 "Polymorphism over integrators").
// Each method is exposed through the same small capability set
// (Name, Order, EvolveFwd, EvolveBwd, GradStep) as a closed tagged variant
// rather than an open-ended interface hierarchy, mirroring the
// teacher's BaseAnalysis/concrete-analysis split
// (pkg/analysis/anlysis.go) adapted from Newton-step bookkeeping to
// time-stepping.
package integrate

import (
	"fmt"
	"math"

	"github.com/edp1096/qoc/linsolve"
	"github.com/edp1096/qoc/qocerr"
	"github.com/edp1096/qoc/sparse"
)

// AssembleFunc returns the frozen operator A(t) such that
// dx/dt = A(t)*x, aliasing the assembler's internal storage (the
// caller must not retain it past the next call), matching the
// integrator/assembler boundary drawn in §5.
type AssembleFunc func(t float64) *sparse.Matrix

// ContribFunc accumulates one term of a gradient contraction into the
// caller's grad buffer: scale*stateAdj^T*(dRHS/dtheta)(t)*stateFwd,
// matching assembler.Assembler.ComputeDRHSDPContrib's shape with its
// trailing grad slice bound by the caller's closure (§4.6
// "accumulate into grad the contribution (dPhi_h/dtheta)^T . x_adj").
type ContribFunc func(t float64, stateFwd, stateAdj []float64, scale float64) error

// Method is the closed capability set every integrator exposes.
type Method interface {
	Name() string
	Order() int

	// EvolveFwd advances x from time t to t+h.
	EvolveFwd(assemble AssembleFunc, solver linsolve.Method, settings linsolve.Settings, x []float64, t, h float64) ([]float64, error)

	// EvolveBwd advances the adjoint state lambda from time t+h back
	// to t. It takes no primal state: every method here is linear in
	// the state, so its adjoint step depends only on the assembled
	// operators.
	EvolveBwd(assemble AssembleFunc, solver linsolve.Method, settings linsolve.Settings, lambda []float64, t, h float64) ([]float64, error)

	// GradStep is EvolveBwd plus the design-gradient accumulation
	// this step's discrete adjoint requires: given the forward state
	// xStart at t (the state EvolveFwd started this step from) and
	// the adjoint state lambda at t+h, it calls contrib once per
	// internal RHS evaluation the step's adjoint needs and returns
	// the adjoint state at t, identically to EvolveBwd (§4.6
	// "evolve_bwd(..., grad, compute_grad)").
	GradStep(assemble AssembleFunc, solver linsolve.Method, settings linsolve.Settings, xStart, lambda []float64, t, h float64, contrib ContribFunc) ([]float64, error)
}

// opsOf adapts sparse.Matrix's (input, output) MatVec/MatVecTrans
// signature to linsolve.MatrixOps's (dst, x) = (output, input)
// convention; the argument order does not line up directly.
func opsOf(a *sparse.Matrix) linsolve.MatrixOps {
	return linsolve.MatrixOps{
		MatVec:      func(dst, x []float64) { a.MatVec(x, dst) },
		MatVecTrans: func(dst, x []float64) { a.MatVecTrans(x, dst) },
	}
}

func checkFinite(x []float64, where string) error {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("integrate: %s: non-finite state: %w", where, qocerr.ErrNumerical)
		}
	}
	return nil
}
