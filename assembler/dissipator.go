package assembler

import (
	"math"

	"github.com/edp1096/qoc/oscillator"
	"github.com/edp1096/qoc/sparse"
)

// buildDissipator returns L_vec, the vectorized Lindblad generator
// (§4.4), as the sum over oscillators and channels of
//
//	L_vec(C) = C⊗C - 1/2*(I⊗(C^T C) + (C^T C)⊗I)
//
// for each collapse operator C, which is the standard vectorization
// of D[C](rho) = C*rho*C^T - 1/2*{C^T C, rho}. Decay uses
// C = sqrt(rate)*a_k (amplitude damping); dephasing uses
// C = sqrt(rate/2)*n_k (pure dephasing via the number operator). rate
// is the per-oscillator collapse rate in units of 1/time, matching
// New's collapseRates parameter.
func buildDissipator(sys *oscillator.System, kind LindbladKind, collapseRates []float64) *sparse.Matrix {
	n := sys.N
	acc := sparse.NewBuilder(n*n, n*n)
	if kind == LindbladNone {
		return acc.Build()
	}

	for k := range sys.Oscillators {
		rate := collapseRates[k]
		if rate <= 0 {
			continue
		}

		if kind == LindbladDecay || kind == LindbladBoth {
			c := scaleMatrix(sys.Lowering(k), math.Sqrt(rate))
			addChannel(acc, n, c)
		}
		if kind == LindbladDephase || kind == LindbladBoth {
			numOp := liftNumberOperator(sys, k)
			c := scaleMatrix(numOp, math.Sqrt(rate/2.0))
			addChannel(acc, n, c)
		}
	}

	return acc.Build()
}

func scaleMatrix(m *sparse.Matrix, alpha float64) *sparse.Matrix {
	c := m.Clone()
	c.Scale(alpha)
	return c
}

func liftNumberOperator(sys *oscillator.System, k int) *sparse.Matrix {
	dims := sys.Dims
	return sparse.LiftOperator(dims, k, sys.Oscillators[k].NumberDense())
}

// addChannel adds one channel's L_vec(C) contribution directly into
// the accumulating union Builder acc (size n^2 x n^2).
func addChannel(acc *sparse.Builder, n int, c *sparse.Matrix) {
	cc := sparse.Kron(c, c)
	ct := sparse.Transpose(c)
	ctc := sparse.MatMul(ct, c)

	addScaledInto(acc, cc, 1.0)
	left := sparse.KronIdentityLeft(n, ctc)
	right := sparse.KronIdentityRight(ctc, n)
	addScaledInto(acc, left, -0.5)
	addScaledInto(acc, right, -0.5)
}

func addScaledInto(acc *sparse.Builder, m *sparse.Matrix, scale float64) {
	for row := 0; row < m.Rows; row++ {
		for k := m.RowPtr[row]; k < m.RowPtr[row+1]; k++ {
			acc.Add(row, m.ColIdx[k], scale*m.Values[k])
		}
	}
}
