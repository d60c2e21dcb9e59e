package control

import (
	"fmt"
	"math"
)

// TransferKind enumerates the closed set of transfer functions a
// control channel may be wrapped in, mirroring the teacher's
// SourceType (DC | SIN | PULSE | PWL) enum in pkg/device/device.go.
type TransferKind int

const (
	Identity TransferKind = iota
	Constant
	Cosine
	Sine
	Spline
)

// Transfer wraps a raw control value p (or q) with an optional
// nonlinear reshaping u(p). Both Eval and Der are required so the
// discrete adjoint can compose through it via the chain rule (§4.2).
// A Transfer is an immutable, closed sum type: the Kind field selects
// which parameter set is meaningful, following the teacher's single
// struct-with-mode-tag representation (CurrentSource.ctype) rather
// than one interface implementation per kind, since every kind here
// is a two-line pure function.
type Transfer struct {
	Kind TransferKind

	// Constant
	Const float64

	// Cosine, Sine: amp*cos(freq*x), amp*sin(freq*x)
	Amp  float64
	Freq float64

	// Spline: clamped piecewise-linear curve through Knots/Coeffs,
	// used in place of the original FITPACK-backed cubic curve, which
	// this module does not link (§9 Open Questions).
	Knots  []float64
	Coeffs []float64
}

// NewIdentityTransfer returns u(x) = x.
func NewIdentityTransfer() Transfer { return Transfer{Kind: Identity} }

// NewConstantTransfer returns u(x) = c.
func NewConstantTransfer(c float64) Transfer { return Transfer{Kind: Constant, Const: c} }

// NewCosineTransfer returns u(x) = amp*cos(freq*x).
func NewCosineTransfer(amp, freq float64) Transfer { return Transfer{Kind: Cosine, Amp: amp, Freq: freq} }

// NewSineTransfer returns u(x) = amp*sin(freq*x).
func NewSineTransfer(amp, freq float64) Transfer { return Transfer{Kind: Sine, Amp: amp, Freq: freq} }

// NewSplineTransfer returns a clamped piecewise-linear transfer
// function through the given knots/coefficients (len(knots) ==
// len(coeffs)).
func NewSplineTransfer(knots, coeffs []float64) (Transfer, error) {
	if len(knots) != len(coeffs) {
		return Transfer{}, fmt.Errorf("control: NewSplineTransfer: len(knots)=%d != len(coeffs)=%d", len(knots), len(coeffs))
	}
	if len(knots) < 2 {
		return Transfer{}, fmt.Errorf("control: NewSplineTransfer: need at least 2 knots")
	}
	return Transfer{Kind: Spline, Knots: knots, Coeffs: coeffs}, nil
}

// Eval evaluates the transfer function at x.
func (tr Transfer) Eval(x float64) float64 {
	switch tr.Kind {
	case Identity:
		return x
	case Constant:
		return tr.Const
	case Cosine:
		return tr.Amp * math.Cos(tr.Freq*x)
	case Sine:
		return tr.Amp * math.Sin(tr.Freq*x)
	case Spline:
		v, _ := tr.splineEvalDer(x)
		return v
	default:
		return x
	}
}

// Der evaluates the derivative of the transfer function at x.
func (tr Transfer) Der(x float64) float64 {
	switch tr.Kind {
	case Identity:
		return 1.0
	case Constant:
		return 0.0
	case Cosine:
		return -tr.Amp * tr.Freq * math.Sin(tr.Freq*x)
	case Sine:
		return tr.Amp * tr.Freq * math.Cos(tr.Freq*x)
	case Spline:
		_, d := tr.splineEvalDer(x)
		return d
	default:
		return 1.0
	}
}

// splineEvalDer implements a clamped (constant-extrapolation)
// piecewise-linear interpolant through Knots/Coeffs. §7
// ("Boundary violation") requires clamping extrapolation with a
// logged warning rather than failing; the warning is the caller's
// responsibility since this type carries no logger (kept pure, per
// §9's "eval/der are pure functions").
func (tr Transfer) splineEvalDer(x float64) (value, deriv float64) {
	n := len(tr.Knots)
	if x < tr.Knots[0] {
		return tr.Coeffs[0], 0
	}
	if x > tr.Knots[n-1] {
		return tr.Coeffs[n-1], 0
	}
	for i := 0; i < n-1; i++ {
		if x >= tr.Knots[i] && x <= tr.Knots[i+1] {
			slope := tr.segmentSlope(i)
			value = tr.Coeffs[i] + slope*(x-tr.Knots[i])
			deriv = slope
			return value, deriv
		}
	}
	return tr.Coeffs[n-1], 0
}

func (tr Transfer) segmentSlope(i int) float64 {
	return (tr.Coeffs[i+1] - tr.Coeffs[i]) / (tr.Knots[i+1] - tr.Knots[i])
}

// InBounds reports whether x lies within [Knots[0], Knots[len-1]] for
// a Spline transfer; other kinds are always in bounds.
func (tr Transfer) InBounds(x float64) bool {
	if tr.Kind != Spline {
		return true
	}
	return x >= tr.Knots[0] && x <= tr.Knots[len(tr.Knots)-1]
}
