// Package control implements the quadratic B-spline x carrier-wave
// pulse parameterization (§4.2 of the specification) and the closed
// set of scalar transfer functions that may wrap a raw control
// channel (§9 "Control transfer functions"). The transfer-function
// sum type follows the teacher's one closed-interface-plus-concrete-
// types pattern for device kinds (pkg/device/device.go's Device /
// TimeDependent / NonLinear split in edp1096-toy-spice), specialized
// from SPICE waveform sources (pkg/device/isource.go's DC/SIN/PULSE/
// PWL CurrentSource) to the cos/sin/spline/constant/identity set named
// by the spec.
package control

import (
	"fmt"
	"math"
)

// Basis parameterizes a scalar pulse envelope on [0, T] as a sum of
// carrier-modulated quadratic B-splines (§4.2). Each carrier c owns L
// spline coefficients per real channel (alpha, beta); the first and
// last spline slot of every carrier is a virtual, permanently-zeroed
// boundary spline, which is what makes evaluate(0) == evaluate(T) ==
// 0 exact rather than approximate (§4.2 "Boundary policy").
type Basis struct {
	T            float64
	NSplines     int // L, including the two virtual boundary splines
	CarrierFreqs []float64
	groundFreq   float64
	dtKnot       float64
	centers      []float64
}

// NewBasis builds a control basis for horizon T with nsplines spline
// coefficients per carrier and the given carrier frequencies. The
// ground (first) carrier frequency is subtracted from every carrier
// to avoid aliasing, per §4.2.
func NewBasis(t float64, nsplines int, carrierFreqs []float64) (*Basis, error) {
	if nsplines < 3 {
		return nil, fmt.Errorf("control: NewBasis: nsplines must be >= 3 (got %d), need at least one interior spline", nsplines)
	}
	if len(carrierFreqs) == 0 {
		return nil, fmt.Errorf("control: NewBasis: at least one carrier frequency is required")
	}
	if t <= 0 {
		return nil, fmt.Errorf("control: NewBasis: horizon T must be positive (got %g)", t)
	}

	ground := carrierFreqs[0]
	shifted := make([]float64, len(carrierFreqs))
	for i, f := range carrierFreqs {
		shifted[i] = f - ground
	}

	dt := t / float64(nsplines-2)
	centers := make([]float64, nsplines)
	for l := 0; l < nsplines; l++ {
		centers[l] = dt * float64(l-1)
	}

	return &Basis{
		T:            t,
		NSplines:     nsplines,
		CarrierFreqs: shifted,
		groundFreq:   ground,
		dtKnot:       dt,
		centers:      centers,
	}, nil
}

// NCoeffPerCarrier is the number of (alpha, beta) pairs stored in the
// design vector per carrier, i.e. NSplines (matches §3's D = Σ 2*C*L).
func (b *Basis) NCoeffPerCarrier() int { return b.NSplines }

// quadraticKernel evaluates the order-2 B-spline kernel of half-width 1.5 at
// the normalized offset tau = (t - center)/dtKnot.
func quadraticKernel(tau float64) float64 {
	a := math.Abs(tau)
	switch {
	case a <= 0.5:
		return 0.75 - a*a
	case a <= 1.5:
		d := 1.5 - a
		return 0.5 * d * d
	default:
		return 0
	}
}

// quadraticKernelDeriv is d/dtau of quadraticKernel.
func quadraticKernelDeriv(tau float64) float64 {
	a := math.Abs(tau)
	sign := 1.0
	if tau < 0 {
		sign = -1.0
	}
	switch {
	case a <= 0.5:
		return -2 * a * sign
	case a <= 1.5:
		return -(1.5 - a) * sign
	default:
		return 0
	}
}

// activeSplines calls fn(l, B_l(t), dB_l/dt) for every spline whose
// support reaches t. Because the kernel has finite support of width
// 3*dtKnot, at most 3 splines are ever active, giving the O(3)
// evaluation cost required by §4.2. Splines 0 and NSplines-1 are the
// virtual boundary splines: their coefficients are always treated as
// zero regardless of what the caller supplies.
func (b *Basis) activeSplines(t float64, fn func(l int, val, deriv float64)) {
	// The supporting splines for t are those whose center lies within
	// 1.5*dtKnot of t; centers are uniformly spaced by dtKnot starting
	// at centers[0] = -dtKnot, so the candidate indices are the index
	// nearest to (t/dtKnot + 1) and its two neighbours.
	mid := t/b.dtKnot + 1
	start := int(math.Floor(mid+0.5)) - 1
	if start < 0 {
		start = 0
	}
	end := start + 3
	if end > b.NSplines {
		end = b.NSplines
	}
	for l := start; l < end; l++ {
		tau := (t - b.centers[l]) / b.dtKnot
		if math.Abs(tau) > 1.5 {
			continue
		}
		if l == 0 || l == b.NSplines-1 {
			continue // virtual boundary spline, always zero
		}
		val := quadraticKernel(tau)
		deriv := quadraticKernelDeriv(tau) / b.dtKnot
		fn(l, val, deriv)
	}
}

// Evaluate returns (p, q) at time t given the flat coefficient slice
// theta for ONE oscillator, laid out per §3: for each carrier c in
// [0, len(CarrierFreqs)), NSplines pairs (alpha_l, beta_l).
//
// p(t) = Re[ sum_c (alpha_c(t) + i*beta_c(t)) * exp(i*f_c*t) ]
// q(t) = Im[ sum_c (alpha_c(t) + i*beta_c(t)) * exp(i*f_c*t) ]
//
// which expands to the §4.2 formula for p with q as its quadrature
// companion sharing the same spline coefficients.
func (b *Basis) Evaluate(t float64, theta []float64) (p, q float64) {
	nc := len(b.CarrierFreqs)
	for c := 0; c < nc; c++ {
		base := c * 2 * b.NSplines
		var alpha, beta float64
		b.activeSplines(t, func(l int, val, _ float64) {
			alpha += theta[base+2*l] * val
			beta += theta[base+2*l+1] * val
		})
		f := b.CarrierFreqs[c]
		cosft, sinft := math.Cos(f*t), math.Sin(f*t)
		p += alpha*cosft - beta*sinft
		q += alpha*sinft + beta*cosft
	}
	return p, q
}

// Derivative adds the vector-Jacobian product d(p,q)/dtheta . (pbar,
// qbar) into grad (length must match theta's). It must stay
// numerically consistent with Evaluate so finite-difference checks
// pass to machine precision (§4.2).
func (b *Basis) Derivative(t float64, pbar, qbar float64, grad []float64) {
	nc := len(b.CarrierFreqs)
	for c := 0; c < nc; c++ {
		base := c * 2 * b.NSplines
		f := b.CarrierFreqs[c]
		cosft, sinft := math.Cos(f*t), math.Sin(f*t)
		// dp/dalpha_l = cos(ft)*B_l, dp/dbeta_l = -sin(ft)*B_l
		// dq/dalpha_l = sin(ft)*B_l, dq/dbeta_l =  cos(ft)*B_l
		dAlpha := pbar*cosft + qbar*sinft
		dBeta := -pbar*sinft + qbar*cosft
		b.activeSplines(t, func(l int, val, _ float64) {
			grad[base+2*l] += dAlpha * val
			grad[base+2*l+1] += dBeta * val
		})
	}
}

// GroundFrequency returns the carrier frequency subtracted from every
// channel to form CarrierFreqs.
func (b *Basis) GroundFrequency() float64 { return b.groundFreq }
