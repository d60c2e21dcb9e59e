package sparse

// MatMul computes the sparse-sparse product a*b. It is only ever used
// at construction time (building the Lindblad dissipator's C^T*C
// terms, §4.4), never in the per-step assembly hot path, so a simple
// triple-loop accumulation into a Builder is adequate.
func MatMul(a, b *Matrix) *Matrix {
	bld := NewBuilder(a.Rows, b.Cols)
	for i := 0; i < a.Rows; i++ {
		for pa := a.RowPtr[i]; pa < a.RowPtr[i+1]; pa++ {
			k := a.ColIdx[pa]
			av := a.Values[pa]
			if av == 0 {
				continue
			}
			for pb := b.RowPtr[k]; pb < b.RowPtr[k+1]; pb++ {
				bld.Add(i, b.ColIdx[pb], av*b.Values[pb])
			}
		}
	}
	return bld.Build()
}

// Kron computes the true Kronecker product a⊗b (as opposed to
// KronIdentityLeft/Right, which special-case one factor being
// identity). Used to vectorize Lindblad dissipators: vec(C rho C^T) =
// (C⊗C) vec(rho).
func Kron(a, b *Matrix) *Matrix {
	bld := NewBuilder(a.Rows*b.Rows, a.Cols*b.Cols)
	for i := 0; i < a.Rows; i++ {
		for pa := a.RowPtr[i]; pa < a.RowPtr[i+1]; pa++ {
			ca := a.ColIdx[pa]
			av := a.Values[pa]
			for j := 0; j < b.Rows; j++ {
				for pb := b.RowPtr[j]; pb < b.RowPtr[j+1]; pb++ {
					bld.Add(i*b.Rows+j, ca*b.Cols+b.ColIdx[pb], av*b.Values[pb])
				}
			}
		}
	}
	return bld.Build()
}

// Block2x2 assembles a 2*dim x 2*dim matrix from four dim x dim
// quadrants, any of which may be nil (meaning an all-zero quadrant).
// This is the shared layout for both the Lindblad block operator
// [[Omega,-Sigma],[Sigma,Omega]] (§4.4) and the Schrodinger-mode block
// operator (§4.4 Schrodinger variant), at whatever dim the caller is
// working in (N^2 for vectorized density matrices, N for state
// vectors).
func Block2x2(dim int, topLeft, topRight, bottomLeft, bottomRight *Matrix) *Matrix {
	bld := NewBuilder(2*dim, 2*dim)
	addQuadrant(bld, topLeft, 0, 0)
	addQuadrant(bld, topRight, 0, dim)
	addQuadrant(bld, bottomLeft, dim, 0)
	addQuadrant(bld, bottomRight, dim, dim)
	return bld.Build()
}

func addQuadrant(bld *Builder, q *Matrix, rowOff, colOff int) {
	if q == nil {
		return
	}
	for row := 0; row < q.Rows; row++ {
		for k := q.RowPtr[row]; k < q.RowPtr[row+1]; k++ {
			bld.Add(rowOff+row, colOff+q.ColIdx[k], q.Values[k])
		}
	}
}
