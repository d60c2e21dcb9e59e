package linsolve

import (
	"fmt"
	"math"

	"github.com/edp1096/qoc/qocerr"
)

// Neumann solves (I - alpha*A)*x = b by the fixed-point (Neumann
// series) iteration x_{k+1} = b + alpha*A*x_k, which converges
// whenever the spectral radius of alpha*A is below one; when it does
// not converge within MaxIterations it returns ErrConvergence. Each
// iteration costs one matrix-vector product, less than a GMRES
// iteration; the caller picks the method (cmd/qocctl uses GMRES unless
// linear_solver is "neumann") and neither falls back to the other.
type Neumann struct{}

func (Neumann) Solve(ops MatrixOps, alpha float64, b, x0 []float64, settings Settings, transpose bool) ([]float64, Stats, error) {
	if err := validate(ops, b, transpose); err != nil {
		return nil, Stats{}, err
	}
	dim := len(b)
	settings = settings.withDefaults(dim)

	x := make([]float64, dim)
	if x0 != nil {
		copy(x, x0)
	}

	ax := make([]float64, dim)
	bnorm := norm2(b)
	if bnorm == 0 {
		bnorm = 1
	}

	var stats Stats
	for it := 0; it < settings.MaxIterations; it++ {
		if transpose {
			ops.MatVecTrans(ax, x)
		} else {
			ops.MatVec(ax, x)
		}
		next := make([]float64, dim)
		for i := range next {
			next[i] = b[i] + alpha*ax[i]
		}

		diffNorm := 0.0
		for i := range next {
			d := next[i] - x[i]
			diffNorm += d * d
		}
		x = next
		stats.Iterations = it + 1

		if math.Sqrt(diffNorm)/bnorm < settings.Tolerance {
			_, resNorm := residual(ops, alpha, x, b, transpose)
			stats.ResidualNorm = resNorm / bnorm
			return x, stats, nil
		}
	}

	_, resNorm := residual(ops, alpha, x, b, transpose)
	stats.ResidualNorm = resNorm / bnorm
	return x, stats, fmt.Errorf("linsolve: Neumann: %w (residual %g after %d iterations)", qocerr.ErrConvergence, stats.ResidualNorm, stats.Iterations)
}
