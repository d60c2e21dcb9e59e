// Package oscillator models the per-oscillator ladder operators and
// binds each oscillator to its control basis (§4.3). It plays the
// role the teacher's pkg/device package plays for circuit elements
// (BaseDevice holding per-instance state plus a reference to shared
// matrix/model collaborators), specialized from lumped circuit
// elements to bosonic ladder operators.
package oscillator

import (
	"fmt"
	"math"

	"github.com/edp1096/qoc/control"
)

// Oscillator is one factor of the composite Hilbert space: an
// n-level truncated harmonic oscillator driven by its own control
// basis. The levels from EssentialDim up to Levels-1 are its guard
// levels (§GLOSSARY, see GuardLevels), whose population counts as
// leakage in the objective (C7).
type Oscillator struct {
	Name         string
	Levels       int
	EssentialDim int // number of essential (non-guard) levels, 1 <= EssentialDim <= Levels
	Basis        *control.Basis
	LeakWeight   float64 // per-level weight used by the guard-level penalty (§4.7)
}

// New constructs an oscillator with the given truncated level count
// and control basis. essentialDim must lie in [1, levels]; a value
// below levels leaves at least one guard level to penalize, and
// essentialDim == levels (with leakWeight == 0) disables leakage
// tracking for this oscillator.
func New(name string, levels, essentialDim int, basis *control.Basis, leakWeight float64) (*Oscillator, error) {
	if levels < 1 {
		return nil, fmt.Errorf("oscillator %q: levels must be >= 1 (got %d)", name, levels)
	}
	if essentialDim < 1 || essentialDim > levels {
		return nil, fmt.Errorf("oscillator %q: essentialDim must be in [1, %d] (got %d)", name, levels, essentialDim)
	}
	return &Oscillator{
		Name:         name,
		Levels:       levels,
		EssentialDim: essentialDim,
		Basis:        basis,
		LeakWeight:   leakWeight,
	}, nil
}

// HasGuard reports whether this oscillator has a non-essential guard
// level to track for leakage.
func (o *Oscillator) HasGuard() bool { return o.EssentialDim < o.Levels }

// GuardLevels returns the level indices that count as leakage.
func (o *Oscillator) GuardLevels() []int {
	if !o.HasGuard() {
		return nil
	}
	out := make([]int, 0, o.Levels-o.EssentialDim)
	for n := o.EssentialDim; n < o.Levels; n++ {
		out = append(out, n)
	}
	return out
}

// LadderDense returns the dense n x n lowering-operator matrix
// a|n> = sqrt(n)|n-1>, real by construction.
func (o *Oscillator) LadderDense() [][]float64 {
	n := o.Levels
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
	}
	for level := 1; level < n; level++ {
		a[level-1][level] = math.Sqrt(float64(level))
	}
	return a
}

// NumberDense returns the dense diagonal number operator n_hat = a^dag a.
func (o *Oscillator) NumberDense() [][]float64 {
	n := o.Levels
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = float64(i)
	}
	return m
}

