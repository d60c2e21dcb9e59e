package oscillator

import (
	"fmt"

	"github.com/edp1096/qoc/sparse"
)

// System is the composite Hilbert space of K oscillators, with the
// per-oscillator lowering operators pre-lifted to the full dimension
// N = prod(levels) once at construction (§4.3). Lifts are sparse
// because the ladder operator of an individual oscillator has only
// O(n_k) nonzeros and the Kronecker lift preserves that sparsity
// pattern exactly.
type System struct {
	Oscillators []*Oscillator
	Dims        []int
	N           int

	lowering []*sparse.Matrix // a_k lifted to N x N, one per oscillator
}

// NewSystem builds the composite space and lifts every oscillator's
// ladder operator once. Dimension mismatches are programmer errors
// per §4.4 and are returned rather than panicking only because system
// construction happens outside the hot assembly path.
func NewSystem(oscs []*Oscillator) (*System, error) {
	if len(oscs) == 0 {
		return nil, fmt.Errorf("oscillator: NewSystem: at least one oscillator is required")
	}
	dims := make([]int, len(oscs))
	n := 1
	for i, o := range oscs {
		dims[i] = o.Levels
		n *= o.Levels
	}

	lowering := make([]*sparse.Matrix, len(oscs))
	for k, o := range oscs {
		lowering[k] = sparse.LiftOperator(dims, k, o.LadderDense())
	}

	return &System{
		Oscillators: oscs,
		Dims:        dims,
		N:           n,
		lowering:    lowering,
	}, nil
}

// Lowering returns the N x N lifted lowering operator â_k for
// oscillator k.
func (s *System) Lowering(k int) *sparse.Matrix { return s.lowering[k] }

// ParamOffsets returns, for each oscillator, the starting index of
// its slice of the flat design vector x, following the layout fixed
// by §6: per oscillator, per carrier, per spline coefficient, a real
// (alpha, beta) pair.
func (s *System) ParamOffsets() []int {
	offsets := make([]int, len(s.Oscillators))
	pos := 0
	for k, o := range s.Oscillators {
		offsets[k] = pos
		pos += 2 * len(o.Basis.CarrierFreqs) * o.Basis.NSplines
	}
	return offsets
}

// ParamLens returns the length of each oscillator's slice of x.
func (s *System) ParamLens() []int {
	lens := make([]int, len(s.Oscillators))
	for k, o := range s.Oscillators {
		lens[k] = 2 * len(o.Basis.CarrierFreqs) * o.Basis.NSplines
	}
	return lens
}

// ParamDim is the total design-vector length D = sum_k 2*C_k*L_k.
func (s *System) ParamDim() int {
	total := 0
	for _, l := range s.ParamLens() {
		total += l
	}
	return total
}

// EssentialMask returns, for every basis index of the full N-dim
// space, whether that basis state lies entirely within every
// oscillator's essential subspace (used by the guard-level leakage
// penalty, §4.7).
func (s *System) EssentialMask() []bool {
	mask := make([]bool, s.N)
	idx := make([]int, len(s.Dims))
	for i := range mask {
		ok := true
		rem := i
		for k := len(s.Dims) - 1; k >= 0; k-- {
			idx[k] = rem % s.Dims[k]
			rem /= s.Dims[k]
		}
		for k, o := range s.Oscillators {
			if idx[k] >= o.EssentialDim {
				ok = false
				break
			}
		}
		mask[i] = ok
	}
	return mask
}

// GuardWeight returns, for every basis index of the full N-dim space,
// the sum of LeakWeight over every oscillator factor whose local
// index is in that oscillator's guard range (0 if the state is fully
// essential).
func (s *System) GuardWeight() []float64 {
	w := make([]float64, s.N)
	idx := make([]int, len(s.Dims))
	for i := range w {
		rem := i
		for k := len(s.Dims) - 1; k >= 0; k-- {
			idx[k] = rem % s.Dims[k]
			rem /= s.Dims[k]
		}
		sum := 0.0
		for k, o := range s.Oscillators {
			if idx[k] >= o.EssentialDim {
				sum += o.LeakWeight
			}
		}
		w[i] = sum
	}
	return w
}
