// Package linsolve solves the shifted linear systems (I - alpha*A)*y = b
// that every implicit integrator step in this module reduces to (§4.5),
// for both the forward operator and its transpose (needed by the
// discrete adjoint). It follows the reverse-communication-free
// MatrixOps/Settings/Stats shape of gonum's retired public
// `iterative` package (vladimir-ch-iterative__solve.go in the
// retrieved pack) rather than that package's op-code dispatch loop,
// since this module only ever needs two concrete methods, not an
// open-ended plugin set.
package linsolve

import (
	"fmt"
	"math"

	"github.com/edp1096/qoc/qocerr"
)

// MatrixOps describes A via matrix-vector products only; A itself is
// never materialized. MatVecTrans is required because the discrete
// adjoint solves the same shifted system with A^T (§4.6).
type MatrixOps struct {
	MatVec      func(dst, x []float64)
	MatVecTrans func(dst, x []float64)
}

// Settings controls the iteration. Zero values fall back to defaults
// sized from the system dimension, matching the teacher package's
// defaultSettings behavior.
type Settings struct {
	Tolerance     float64 // relative residual tolerance; 0 means 1e-10
	MaxIterations int     // 0 means 2*dim
}

func (s Settings) withDefaults(dim int) Settings {
	if s.Tolerance == 0 {
		s.Tolerance = 1e-10
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = 2 * dim
	}
	return s
}

// Stats reports how a solve behaved, exposed so a caller can maintain
// a running average of iteration count/residual across a trajectory's
// many steps for diagnostics (§4.5).
type Stats struct {
	Iterations   int
	ResidualNorm float64
}

// Method is a shifted-system solver: given (I - alpha*A), b, and an
// initial guess x0 (may be nil, meaning the zero vector), produce an
// approximate x with (I - alpha*A)*x ~= b.
type Method interface {
	Solve(ops MatrixOps, alpha float64, b, x0 []float64, settings Settings, transpose bool) ([]float64, Stats, error)
}

func applyShifted(ops MatrixOps, alpha float64, x, dst []float64, transpose bool) {
	if transpose {
		ops.MatVecTrans(dst, x)
	} else {
		ops.MatVec(dst, x)
	}
	for i := range dst {
		dst[i] = x[i] - alpha*dst[i]
	}
}

func residual(ops MatrixOps, alpha float64, x, b []float64, transpose bool) (r []float64, norm float64) {
	r = make([]float64, len(b))
	applyShifted(ops, alpha, x, r, transpose)
	for i := range r {
		r[i] = b[i] - r[i]
	}
	norm = norm2(r)
	return r, norm
}

func norm2(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func validate(ops MatrixOps, b []float64, transpose bool) error {
	if ops.MatVec == nil {
		return fmt.Errorf("linsolve: MatVec must be non-nil: %w", qocerr.ErrMisconfiguration)
	}
	if transpose && ops.MatVecTrans == nil {
		return fmt.Errorf("linsolve: MatVecTrans must be non-nil for a transposed solve: %w", qocerr.ErrMisconfiguration)
	}
	if len(b) == 0 {
		return fmt.Errorf("linsolve: zero-length system: %w", qocerr.ErrMisconfiguration)
	}
	return nil
}
