package linsolve

import (
	"fmt"
	"math"

	"github.com/edp1096/qoc/qocerr"
)

// GMRES solves (I - alpha*A)*x = b by full (non-restarted) GMRES via
// the Arnoldi process with modified Gram-Schmidt and Givens-rotation
// QR of the upper Hessenberg matrix, the classical construction
// gonum's retired `iterative` package names but leaves to its own
// `Method` implementations (vladimir-ch-iterative__iterative.go in
// the retrieved pack defines the reverse-communication scaffolding
// only). Callers pick it instead of Neumann for systems where Neumann's
// fixed-point iteration converges too slowly, per §9; neither method
// falls back to the other.
type GMRES struct{}

func (GMRES) Solve(ops MatrixOps, alpha float64, b, x0 []float64, settings Settings, transpose bool) ([]float64, Stats, error) {
	if err := validate(ops, b, transpose); err != nil {
		return nil, Stats{}, err
	}
	dim := len(b)
	settings = settings.withDefaults(dim)
	m := settings.MaxIterations
	if m > dim {
		m = dim
	}
	if m == 0 {
		m = 1
	}

	x := make([]float64, dim)
	if x0 != nil {
		copy(x, x0)
	}

	r0, beta := residual(ops, alpha, x, b, transpose)
	bnorm := norm2(b)
	if bnorm == 0 {
		bnorm = 1
	}
	stats := Stats{ResidualNorm: beta / bnorm}
	if stats.ResidualNorm < settings.Tolerance {
		return x, stats, nil
	}

	v := make([][]float64, m+1)
	v[0] = make([]float64, dim)
	for i := range r0 {
		v[0][i] = r0[i] / beta
	}

	h := make([][]float64, m+1)
	for i := range h {
		h[i] = make([]float64, m)
	}
	cs := make([]float64, m)
	sn := make([]float64, m)
	g := make([]float64, m+1)
	g[0] = beta

	w := make([]float64, dim)
	k := 0
	for ; k < m; k++ {
		applyShifted(ops, alpha, v[k], w, transpose)

		for i := 0; i <= k; i++ {
			h[i][k] = dot(w, v[i])
			axpy(w, -h[i][k], v[i])
		}
		h[k+1][k] = norm2(w)

		v[k+1] = make([]float64, dim)
		if h[k+1][k] > 1e-300 {
			for i := range w {
				v[k+1][i] = w[i] / h[k+1][k]
			}
		}

		for i := 0; i < k; i++ {
			applyGivens(cs[i], sn[i], &h[i][k], &h[i+1][k])
		}
		cs[k], sn[k] = givensCoeffs(h[k][k], h[k+1][k])
		applyGivens(cs[k], sn[k], &h[k][k], &h[k+1][k])
		applyGivens(cs[k], sn[k], &g[k], &g[k+1])

		stats.Iterations = k + 1
		resNorm := math.Abs(g[k+1]) / bnorm
		stats.ResidualNorm = resNorm
		if resNorm < settings.Tolerance {
			k++
			break
		}
	}

	y := backSolveUpperTriangular(h, g, k)
	for j := 0; j < k; j++ {
		axpy(x, y[j], v[j])
	}

	_, resNorm := residual(ops, alpha, x, b, transpose)
	stats.ResidualNorm = resNorm / bnorm
	if stats.ResidualNorm >= settings.Tolerance {
		return x, stats, fmt.Errorf("linsolve: GMRES: %w (residual %g after %d iterations)", qocerr.ErrConvergence, stats.ResidualNorm, stats.Iterations)
	}
	return x, stats, nil
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func axpy(dst []float64, alpha float64, src []float64) {
	for i := range dst {
		dst[i] += alpha * src[i]
	}
}

func givensCoeffs(a, b float64) (c, s float64) {
	if b == 0 {
		return 1, 0
	}
	if math.Abs(b) > math.Abs(a) {
		t := a / b
		s = 1 / math.Sqrt(1+t*t)
		c = s * t
		return c, s
	}
	t := b / a
	c = 1 / math.Sqrt(1+t*t)
	s = c * t
	return c, s
}

func applyGivens(c, s float64, a, b *float64) {
	av, bv := *a, *b
	*a = c*av + s*bv
	*b = -s*av + c*bv
}

// backSolveUpperTriangular solves the k x k upper-triangular system
// H[0:k][0:k]*y = g[0:k] by back substitution, where H has been
// reduced to upper-triangular form in place by the Givens rotations
// applied during the Arnoldi loop.
func backSolveUpperTriangular(h [][]float64, g []float64, k int) []float64 {
	y := make([]float64, k)
	for i := k - 1; i >= 0; i-- {
		sum := g[i]
		for j := i + 1; j < k; j++ {
			sum -= h[i][j] * y[j]
		}
		if h[i][i] != 0 {
			y[i] = sum / h[i][i]
		}
	}
	return y
}
