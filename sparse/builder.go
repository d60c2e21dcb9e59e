package sparse

import "sort"

// Builder accumulates (row, col, value) triplets in COO form, summing
// duplicates, and freezes them into a CSR Matrix. This is the
// construction-time counterpart to CircuitMatrix.AddElement in the
// teacher repo, which also accumulates by summing into an existing
// slot rather than overwriting.
type Builder struct {
	rows, cols int
	entries    map[int64]float64 // key = row*cols + col
}

// NewBuilder creates an empty builder for a rows x cols matrix.
func NewBuilder(rows, cols int) *Builder {
	return &Builder{rows: rows, cols: cols, entries: make(map[int64]float64)}
}

func (b *Builder) key(row, col int) int64 {
	return int64(row)*int64(b.cols) + int64(col)
}

// Add accumulates value into the (row, col) slot, creating it if
// absent. Matches CircuitMatrix.AddElement's "+=" stamping semantics.
func (b *Builder) Add(row, col int, value float64) {
	b.entries[b.key(row, col)] += value
}

// EnsurePattern guarantees a structural (possibly zero-valued) entry
// exists at (row, col), so that later AXPYSamePattern calls targeting
// a union built from several Builders can find a slot for it.
func (b *Builder) EnsurePattern(row, col int) {
	k := b.key(row, col)
	if _, ok := b.entries[k]; !ok {
		b.entries[k] = 0
	}
}

// Merge copies every entry of other into b, summing on overlap. Used
// to build a union pattern out of several constant component
// matrices (A_const, the per-oscillator Pk/Qk) before freezing.
func (b *Builder) Merge(other *Builder) {
	for k, v := range other.entries {
		b.entries[k] += v
	}
}

// MergePattern copies only the structural presence of other's entries
// into b (as zero if not already present), without adding values.
func (b *Builder) MergePattern(other *Builder) {
	for k := range other.entries {
		if _, ok := b.entries[k]; !ok {
			b.entries[k] = 0
		}
	}
}

type cooEntry struct {
	row, col int
	value    float64
}

// Build freezes the accumulated entries into a CSR Matrix with
// row-major, column-ascending ordering, and precomputes the diagonal
// index cache used by ShiftIdentity.
func (b *Builder) Build() *Matrix {
	list := make([]cooEntry, 0, len(b.entries))
	for k, v := range b.entries {
		row := int(k / int64(b.cols))
		col := int(k % int64(b.cols))
		list = append(list, cooEntry{row, col, v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].row != list[j].row {
			return list[i].row < list[j].row
		}
		return list[i].col < list[j].col
	})

	m := &Matrix{
		Rows:   b.rows,
		Cols:   b.cols,
		RowPtr: make([]int, b.rows+1),
		ColIdx: make([]int, len(list)),
		Values: make([]float64, len(list)),
	}
	m.diagIdx = make([]int, b.rows)
	for i := range m.diagIdx {
		m.diagIdx[i] = -1
	}

	row := 0
	for i, e := range list {
		for row < e.row {
			row++
			m.RowPtr[row] = i
		}
		m.ColIdx[i] = e.col
		m.Values[i] = e.value
		if e.row == e.col && e.row < b.rows {
			m.diagIdx[e.row] = i
		}
	}
	for row < b.rows {
		row++
		m.RowPtr[row] = len(list)
	}

	return m
}
