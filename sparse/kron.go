package sparse

// KronIdentityLeft builds I_n ⊗ x: for every nonzero (r, c, v) of x and
// every block index blk in [0, n), it places v at
// (blk*x.Rows + r, blk*x.Cols + c). Grounded on the vectorized
// commutator construction of §4.4 ("I⊗H"), generalized to any real
// sparse x rather than a dense Hamiltonian.
func KronIdentityLeft(n int, x *Matrix) *Matrix {
	b := NewBuilder(n*x.Rows, n*x.Cols)
	for row := 0; row < x.Rows; row++ {
		for k := x.RowPtr[row]; k < x.RowPtr[row+1]; k++ {
			col := x.ColIdx[k]
			v := x.Values[k]
			for blk := 0; blk < n; blk++ {
				b.Add(blk*x.Rows+row, blk*x.Cols+col, v)
			}
		}
	}
	return b.Build()
}

// KronIdentityRight builds x ⊗ I_n: for every nonzero (r, c, v) of x
// and every intra-block index m in [0, n), it places v at
// (r*n + m, c*n + m). Grounded on §4.4's "Hᵀ⊗I" construction.
func KronIdentityRight(x *Matrix, n int) *Matrix {
	b := NewBuilder(x.Rows*n, x.Cols*n)
	for row := 0; row < x.Rows; row++ {
		for k := x.RowPtr[row]; k < x.RowPtr[row+1]; k++ {
			col := x.ColIdx[k]
			v := x.Values[k]
			for m := 0; m < n; m++ {
				b.Add(row*n+m, col*n+m, v)
			}
		}
	}
	return b.Build()
}

// Transpose returns x^T as a freshly built CSR matrix.
func Transpose(x *Matrix) *Matrix {
	b := NewBuilder(x.Cols, x.Rows)
	for row := 0; row < x.Rows; row++ {
		for k := x.RowPtr[row]; k < x.RowPtr[row+1]; k++ {
			b.Add(x.ColIdx[k], row, x.Values[k])
		}
	}
	return b.Build()
}

// Add returns a freshly built matrix equal to alpha*a + beta*b. Used
// only at construction time for small constant operators (e.g.
// combining a ⊗ I terms); the hot assembly path uses
// AXPYSamePattern on pre-frozen patterns instead.
func Add(alpha float64, a *Matrix, beta float64, b *Matrix) *Matrix {
	bld := NewBuilder(a.Rows, a.Cols)
	for row := 0; row < a.Rows; row++ {
		for k := a.RowPtr[row]; k < a.RowPtr[row+1]; k++ {
			bld.Add(row, a.ColIdx[k], alpha*a.Values[k])
		}
	}
	for row := 0; row < b.Rows; row++ {
		for k := b.RowPtr[row]; k < b.RowPtr[row+1]; k++ {
			bld.Add(row, b.ColIdx[k], beta*b.Values[k])
		}
	}
	return bld.Build()
}

// LiftOperator embeds a dense local operator acting on factor index
// target (of size local.Rows x local.Cols) into the full Kronecker
// product space I_{n_0}⊗...⊗local⊗...⊗I_{n_{K-1}} given the per-factor
// dimensions dims. Grounded on §4.3's "â_k = I⊗...⊗a_k⊗...⊗I" lift,
// which the oscillator package specializes to ladder/number operators.
func LiftOperator(dims []int, target int, local [][]float64) *Matrix {
	before, after := 1, 1
	for i, d := range dims {
		if i < target {
			before *= d
		} else if i > target {
			after *= d
		}
	}
	localB := NewBuilder(len(local), len(local))
	for r, row := range local {
		for c, v := range row {
			if v != 0 {
				localB.Add(r, c, v)
			}
		}
	}
	localMat := localB.Build()

	// lift = I_before ⊗ local ⊗ I_after
	withAfter := KronIdentityRight(localMat, after)
	return KronIdentityLeft(before, withAfter)
}
