// Package assembler implements the master-equation assembler (§4.4):
// it builds the time-independent system operator and the
// time-dependent control-coupling operators once, then assembles
// RHS(t) and the gradient-path dRHSdp contribution on every call
// without allocating or touching the frozen sparse pattern. It plays
// the role the teacher's pkg/circuit package plays for a netlist
// (Circuit.Stamp accumulating every device's contribution into one
// shared matrix each Newton iteration, pkg/circuit/circuit.go),
// specialized from device stamping to the vectorized Lindblad/
// Schrodinger commutator construction.
package assembler

import (
	"fmt"

	"github.com/edp1096/qoc/oscillator"
	"github.com/edp1096/qoc/sparse"
)

// Mode selects which physical equation the assembler's operator
// represents.
type Mode int

const (
	Lindblad Mode = iota
	Schrodinger
)

// LindbladKind selects which dissipation channels are active,
// mirroring the `lindblad_type` config key of §6.
type LindbladKind int

const (
	LindbladNone LindbladKind = iota
	LindbladDecay
	LindbladDephase
	LindbladBoth
)

// Assembler owns every constant sparse operator (A_const and the
// per-oscillator P_k/Q_k pieces) plus the frozen union pattern they
// are scattered into. Matrices are created once; only values are
// mutated on each Assemble call (§3 "Entity lifecycles").
type Assembler struct {
	Mode  Mode
	Sys   *oscillator.System
	Order int // 2*N^2 (Lindblad) or 2*N (Schrodinger)

	union   *sparse.Matrix // the frozen RHS(t) pattern, mutated in place
	aConst  *sparse.Matrix
	aScat   sparse.ScatterMap
	pMats   []*sparse.Matrix
	pScat   []sparse.ScatterMap
	qMats   []*sparse.Matrix
	qScat   []sparse.ScatterMap
	offsets []int
	lens    []int

	design []float64 // bound design vector, set via SetDesign

	// scratch buffers reused across calls, avoiding per-call allocation
	pkxBuf []float64
	qkxBuf []float64
}

// New constructs an assembler for the given system. drift is the
// dense N x N symmetric drift Hamiltonian H_d (nil means no drift);
// for Lindblad mode, kind and collapseRates (one rate per oscillator,
// units 1/time) select the dissipation channels.
func New(mode Mode, sys *oscillator.System, drift [][]float64, kind LindbladKind, collapseRates []float64) (*Assembler, error) {
	n := sys.N
	if drift != nil && (len(drift) != n || len(drift[0]) != n) {
		return nil, fmt.Errorf("assembler: New: drift Hamiltonian must be %dx%d, got %dx%d", n, n, len(drift), len(drift[0]))
	}
	if mode == Lindblad && kind != LindbladNone && len(collapseRates) != len(sys.Oscillators) {
		return nil, fmt.Errorf("assembler: New: need one collapse rate per oscillator (%d), got %d", len(sys.Oscillators), len(collapseRates))
	}

	hd := denseToSparse(drift, n)

	var a *Assembler
	var err error
	switch mode {
	case Lindblad:
		a, err = buildLindblad(sys, hd, kind, collapseRates)
	case Schrodinger:
		a, err = buildSchrodinger(sys, hd)
	default:
		return nil, fmt.Errorf("assembler: New: unknown mode %d", mode)
	}
	if err != nil {
		return nil, err
	}

	a.Mode = mode
	a.Sys = sys
	a.offsets = sys.ParamOffsets()
	a.lens = sys.ParamLens()
	a.pkxBuf = make([]float64, a.Order)
	a.qkxBuf = make([]float64, a.Order)
	return a, nil
}

func denseToSparse(drift [][]float64, n int) *sparse.Matrix {
	b := sparse.NewBuilder(n, n)
	if drift != nil {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if drift[i][j] != 0 {
					b.Add(i, j, drift[i][j])
				}
			}
		}
	}
	return b.Build()
}

// ladderBlocks returns, for oscillator k, the lifted symmetric
// "Re" piece (a_k + a_k^T) and antisymmetric "Im" piece (a_k - a_k^T)
// used to build both the Hamiltonian and its commutator lift.
func ladderBlocks(sys *oscillator.System, k int) (reOp, imOp *sparse.Matrix) {
	a := sys.Lowering(k)
	at := sparse.Transpose(a)
	reOp = sparse.Add(1, a, 1, at)
	imOp = sparse.Add(1, a, -1, at)
	return reOp, imOp
}

func buildLindblad(sys *oscillator.System, hd *sparse.Matrix, kind LindbladKind, rates []float64) (*Assembler, error) {
	n := sys.N
	n2 := n * n
	order := 2 * n2

	sigmaConst := sparse.Add(1, sparse.KronIdentityRight(hd, n), -1, sparse.KronIdentityLeft(n, hd))
	lVec := buildDissipator(sys, kind, rates)

	negSigmaConst := sparse.Add(-1, sigmaConst, 0, sigmaConst)
	aConst := sparse.Block2x2(n2, lVec, negSigmaConst, sigmaConst, lVec)

	pMats := make([]*sparse.Matrix, len(sys.Oscillators))
	qMats := make([]*sparse.Matrix, len(sys.Oscillators))
	for k := range sys.Oscillators {
		reOp, imOp := ladderBlocks(sys, k)
		sigmaK := sparse.Add(1, sparse.KronIdentityRight(reOp, n), -1, sparse.KronIdentityLeft(n, reOp))
		omegaK := sparse.Add(1, sparse.KronIdentityLeft(n, imOp), 1, sparse.KronIdentityRight(imOp, n))

		negSigmaK := sparse.Add(-1, sigmaK, 0, sigmaK)
		pMats[k] = sparse.Block2x2(n2, nil, negSigmaK, sigmaK, nil)
		qMats[k] = sparse.Block2x2(n2, omegaK, nil, nil, omegaK)
	}

	return freeze(order, aConst, pMats, qMats)
}

func buildSchrodinger(sys *oscillator.System, hd *sparse.Matrix) (*Assembler, error) {
	n := sys.N
	order := 2 * n

	negHd := sparse.Add(-1, hd, 0, hd)
	aConst := sparse.Block2x2(n, nil, hd, negHd, nil)

	pMats := make([]*sparse.Matrix, len(sys.Oscillators))
	qMats := make([]*sparse.Matrix, len(sys.Oscillators))
	for k := range sys.Oscillators {
		reOp, imOp := ladderBlocks(sys, k)
		negReOp := sparse.Add(-1, reOp, 0, reOp)
		pMats[k] = sparse.Block2x2(n, nil, reOp, negReOp, nil)
		qMats[k] = sparse.Block2x2(n, imOp, nil, nil, imOp)
	}

	return freeze(order, aConst, pMats, qMats)
}

// freeze builds the union pattern out of aConst and every P_k/Q_k,
// freezes it, and precomputes the scatter maps each component needs
// to AXPY into the union on every assembly call.
func freeze(order int, aConst *sparse.Matrix, pMats, qMats []*sparse.Matrix) (*Assembler, error) {
	union := sparse.NewBuilder(order, order)
	mergePattern(union, aConst)
	for _, m := range pMats {
		mergePattern(union, m)
	}
	for _, m := range qMats {
		mergePattern(union, m)
	}
	unionMat := union.Build()

	aScat, err := sparse.BuildScatterMap(unionMat, aConst)
	if err != nil {
		return nil, fmt.Errorf("assembler: freeze: const operator: %w", err)
	}
	pScat := make([]sparse.ScatterMap, len(pMats))
	qScat := make([]sparse.ScatterMap, len(qMats))
	for k, m := range pMats {
		pScat[k], err = sparse.BuildScatterMap(unionMat, m)
		if err != nil {
			return nil, fmt.Errorf("assembler: freeze: P_%d: %w", k, err)
		}
	}
	for k, m := range qMats {
		qScat[k], err = sparse.BuildScatterMap(unionMat, m)
		if err != nil {
			return nil, fmt.Errorf("assembler: freeze: Q_%d: %w", k, err)
		}
	}

	return &Assembler{
		Order:  order,
		union:  unionMat,
		aConst: aConst,
		aScat:  aScat,
		pMats:  pMats,
		pScat:  pScat,
		qMats:  qMats,
		qScat:  qScat,
	}, nil
}

func mergePattern(dst *sparse.Builder, src *sparse.Matrix) {
	for row := 0; row < src.Rows; row++ {
		for k := src.RowPtr[row]; k < src.RowPtr[row+1]; k++ {
			dst.EnsurePattern(row, src.ColIdx[k])
		}
	}
}
