// Package sparse provides a real-valued sparse matrix kit with a
// structure that is fixed once and values that are overwritten in
// place on every assembly call. It mirrors the teacher's
// accumulate-by-(row,col)-then-freeze pattern (pkg/matrix/circuit.go
// in the retrieved edp1096-toy-spice repo, itself a thin wrapper over
// github.com/edp1096/sparse's linked-list matrix) but targets CSR
// storage, because the master-equation assembler needs repeated
// mat-vec and mat-transpose-vec at every time step rather than LU
// factorization.
package sparse

import "fmt"

// Matrix is a row-compressed (CSR) real sparse matrix. Once built by
// Builder.Build, RowPtr and ColIdx never change; only Values is
// mutated in place by AXPYSamePattern, Scale, ShiftIdentity and
// ZeroValues.
type Matrix struct {
	Rows, Cols int
	RowPtr     []int     // length Rows+1
	ColIdx     []int     // length nnz, sorted ascending within each row
	Values     []float64 // length nnz

	diagIdx []int // per row, index into Values of the diagonal entry, or -1
}

// NNZ returns the number of structurally nonzero entries.
func (m *Matrix) NNZ() int { return len(m.Values) }

// ZeroValues keeps the pattern and sets every numeric value to zero.
// Grounded on CircuitMatrix.Clear's pattern-preserving reset.
func (m *Matrix) ZeroValues() {
	for i := range m.Values {
		m.Values[i] = 0
	}
}

// Scale multiplies every value by alpha in place.
func (m *Matrix) Scale(alpha float64) {
	for i := range m.Values {
		m.Values[i] *= alpha
	}
}

// ShiftIdentity adds alpha to every diagonal entry. It is an error if
// the matrix is not square or a diagonal slot is missing from the
// frozen pattern (the caller must have included the diagonal when
// building the union pattern).
func (m *Matrix) ShiftIdentity(alpha float64) error {
	if m.Rows != m.Cols {
		return fmt.Errorf("sparse: ShiftIdentity requires a square matrix, got %dx%d", m.Rows, m.Cols)
	}
	for i := 0; i < m.Rows; i++ {
		idx := m.diagIdx[i]
		if idx < 0 {
			return fmt.Errorf("sparse: ShiftIdentity: row %d has no diagonal entry in the frozen pattern", i)
		}
		m.Values[idx] += alpha
	}
	return nil
}

// MatVec computes y = A*x. y must be preallocated with length Rows;
// it is overwritten, not accumulated into. O(nnz), no allocation.
func (m *Matrix) MatVec(x, y []float64) {
	for i := 0; i < m.Rows; i++ {
		sum := 0.0
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			sum += m.Values[k] * x[m.ColIdx[k]]
		}
		y[i] = sum
	}
}

// MatVecAdd computes y += scale*A*x without allocating.
func (m *Matrix) MatVecAdd(x, y []float64, scale float64) {
	for i := 0; i < m.Rows; i++ {
		sum := 0.0
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			sum += m.Values[k] * x[m.ColIdx[k]]
		}
		y[i] += scale * sum
	}
}

// MatVecTrans computes y = A^T*x. y must be preallocated with length
// Cols; it is overwritten.
func (m *Matrix) MatVecTrans(x, y []float64) {
	for i := range y {
		y[i] = 0
	}
	for i := 0; i < m.Rows; i++ {
		xi := x[i]
		if xi == 0 {
			continue
		}
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			y[m.ColIdx[k]] += m.Values[k] * xi
		}
	}
}

// ScatterMap records, for each nonzero of a source matrix (in its own
// CSR order), the index into a destination matrix's Values array of
// the same (row, col) entry. Built once via BuildScatterMap and reused
// on every assembly call.
type ScatterMap []int

// BuildScatterMap computes the mapping from src's nonzero pattern into
// dst's. src's pattern MUST be a structural subset of dst's; it is a
// programmer error otherwise (§4.4: "all failures during matrix
// construction are programmer errors").
func BuildScatterMap(dst, src *Matrix) (ScatterMap, error) {
	if src.Rows != dst.Rows || src.Cols != dst.Cols {
		return nil, fmt.Errorf("sparse: BuildScatterMap: dimension mismatch dst=%dx%d src=%dx%d",
			dst.Rows, dst.Cols, src.Rows, src.Cols)
	}
	m := make(ScatterMap, len(src.Values))
	for i := 0; i < src.Rows; i++ {
		dRow := dst.RowPtr[i]
		dEnd := dst.RowPtr[i+1]
		for k := src.RowPtr[i]; k < src.RowPtr[i+1]; k++ {
			col := src.ColIdx[k]
			pos := -1
			for d := dRow; d < dEnd; d++ {
				if dst.ColIdx[d] == col {
					pos = d
					break
				}
			}
			if pos < 0 {
				return nil, fmt.Errorf("sparse: BuildScatterMap: entry (%d,%d) not present in destination pattern", i, col)
			}
			m[k] = pos
		}
	}
	return m, nil
}

// AXPYSamePattern performs dst.Values[scatter[k]] += alpha*src.Values[k]
// for every nonzero k of src, i.e. dst <- dst + alpha*src restricted to
// a precomputed scatter map from src's pattern into dst's.
func (m *Matrix) AXPYSamePattern(alpha float64, src *Matrix, scatter ScatterMap) {
	if alpha == 0 {
		return
	}
	for k, v := range src.Values {
		m.Values[scatter[k]] += alpha * v
	}
}

// Clone returns a deep copy sharing no backing arrays with m.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{
		Rows:    m.Rows,
		Cols:    m.Cols,
		RowPtr:  append([]int(nil), m.RowPtr...),
		ColIdx:  append([]int(nil), m.ColIdx...),
		Values:  append([]float64(nil), m.Values...),
		diagIdx: append([]int(nil), m.diagIdx...),
	}
	return c
}

// Dense materializes m as a row-major dense slice, for tests and
// small reference checks only.
func (m *Matrix) Dense() [][]float64 {
	out := make([][]float64, m.Rows)
	for i := range out {
		out[i] = make([]float64, m.Cols)
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			out[i][m.ColIdx[k]] = m.Values[k]
		}
	}
	return out
}
