package assembler

import (
	"fmt"

	"github.com/edp1096/qoc/qocerr"
	"github.com/edp1096/qoc/sparse"
)

// SetDesign binds the flat design vector x (length Sys.ParamDim())
// that subsequent AssembleRHS/ComputeDRHSDPContrib calls read from.
// The Assembler keeps the slice itself, not a copy: the caller owns
// its lifetime and must not mutate it concurrently with an in-flight
// trajectory (§5 "single design vector per trajectory").
func (a *Assembler) SetDesign(x []float64) error {
	if len(x) != a.Sys.ParamDim() {
		return fmt.Errorf("assembler: SetDesign: want %d design values, got %d: %w", a.Sys.ParamDim(), len(x), qocerr.ErrMisconfiguration)
	}
	a.design = x
	return nil
}

// AssembleRHS overwrites the frozen union pattern's values with
// RHS(t) = A_const + sum_k p_k(t)*P_k + q_k(t)*Q_k (§4.4) and returns
// it. The returned matrix aliases the Assembler's internal storage;
// it is only valid until the next AssembleRHS call.
func (a *Assembler) AssembleRHS(t float64) *sparse.Matrix {
	a.union.ZeroValues()
	a.union.AXPYSamePattern(1, a.aConst, a.aScat)
	for k, o := range a.Sys.Oscillators {
		theta := a.design[a.offsets[k] : a.offsets[k]+a.lens[k]]
		p, q := o.Basis.Evaluate(t, theta)
		a.union.AXPYSamePattern(p, a.pMats[k], a.pScat[k])
		a.union.AXPYSamePattern(q, a.qMats[k], a.qScat[k])
	}
	return a.union
}

// ComputeDRHSDPContrib accumulates scale*stateAdj^T*(dRHS/dtheta)*stateFwd
// into grad (length Sys.ParamDim()) via the discrete adjoint's
// vector-Jacobian contraction through the control basis (§4.6
// "gradient accumulation"): since RHS is linear in (p_k, q_k), the
// contraction reduces to a pair of scalars per oscillator handed to
// control.Basis.Derivative.
func (a *Assembler) ComputeDRHSDPContrib(t float64, stateFwd, stateAdj []float64, scale float64, grad []float64) error {
	if len(stateFwd) != a.Order || len(stateAdj) != a.Order {
		return fmt.Errorf("assembler: ComputeDRHSDPContrib: state vectors must have length %d: %w", a.Order, qocerr.ErrMisconfiguration)
	}
	if len(grad) != a.Sys.ParamDim() {
		return fmt.Errorf("assembler: ComputeDRHSDPContrib: grad must have length %d: %w", a.Sys.ParamDim(), qocerr.ErrMisconfiguration)
	}

	for k, o := range a.Sys.Oscillators {
		a.pMats[k].MatVec(stateFwd, a.pkxBuf)
		a.qMats[k].MatVec(stateFwd, a.qkxBuf)

		var pbar, qbar float64
		for i := 0; i < a.Order; i++ {
			pbar += stateAdj[i] * a.pkxBuf[i]
			qbar += stateAdj[i] * a.qkxBuf[i]
		}
		pbar *= scale
		qbar *= scale

		gradSlice := grad[a.offsets[k] : a.offsets[k]+a.lens[k]]
		o.Basis.Derivative(t, pbar, qbar, gradSlice)
	}
	return nil
}

// ReferenceDenseRHS recomputes RHS(t) directly from the constant and
// per-oscillator dense quadrants, bypassing the scatter-map machinery
// entirely. It exists so tests can check AssembleRHS's frozen-pattern
// accumulation against an independent code path (§8).
func (a *Assembler) ReferenceDenseRHS(t float64) [][]float64 {
	out := a.aConst.Dense()
	for k, o := range a.Sys.Oscillators {
		theta := a.design[a.offsets[k] : a.offsets[k]+a.lens[k]]
		p, q := o.Basis.Evaluate(t, theta)
		addDenseScaled(out, a.pMats[k].Dense(), p)
		addDenseScaled(out, a.qMats[k].Dense(), q)
	}
	return out
}

func addDenseScaled(dst, src [][]float64, scale float64) {
	for i := range dst {
		for j := range dst[i] {
			dst[i][j] += scale * src[i][j]
		}
	}
}
