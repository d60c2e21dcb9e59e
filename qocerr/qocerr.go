// Package qocerr centralizes the four failure kinds named in the
// specification's error-handling table (§7): misconfiguration,
// convergence failure, numerical failure, and boundary violation.
// Errors of these kinds from config, linsolve, integrate and the
// assembler's SetDesign/ComputeDRHSDPContrib wrap one of these
// sentinels via fmt.Errorf's %w verb (the constructors in assembler,
// control, oscillator and sparse return plain errors that wrap none
// of them), following
// the teacher's wrap-with-context idiom (e.g.
// pkg/analysis/tran.go's `fmt.Errorf("stamping error: %v", err)`)
// upgraded to %w so callers can errors.Is/errors.As against a fixed
// taxonomy instead of string-matching.
package qocerr

import "errors"

// Sentinel errors, one per §7 row. Wrap these with fmt.Errorf("...: %w", ErrX)
// to attach call-site context while keeping the kind classifiable.
var (
	// ErrMisconfiguration: missing required key, inconsistent
	// dimensions. Policy: fail fast at construction.
	ErrMisconfiguration = errors.New("qoc: misconfiguration")

	// ErrConvergence: linear solver exceeded its iteration budget.
	// Policy: surface to caller with solver stats; caller may retry
	// with a different step size.
	ErrConvergence = errors.New("qoc: convergence failure")

	// ErrNumerical: non-finite state, singular (I - alpha*A). Policy:
	// abort the trajectory; signal the optimizer to reject the step.
	ErrNumerical = errors.New("qoc: numerical failure")

	// ErrBoundary: a transfer function was evaluated outside its knot
	// range. Policy: log a warning, clamp to the boundary value.
	ErrBoundary = errors.New("qoc: boundary violation")
)

// Is reports whether err (or any error it wraps) is classified as
// kind. It is a thin alias over errors.Is kept here so call sites
// read `qocerr.Is(err, qocerr.ErrNumerical)` instead of importing
// errors just for this one check.
func Is(err, kind error) bool { return errors.Is(err, kind) }
