package integrate

import "math"

// compositionCoeffs4 is the classical Yoshida S=3 symmetric
// composition: a palindromic triple of step weights summing to 1 that
// cancels the third-order local truncation term of the underlying
// second-order base method (implicit midpoint), raising the global
// order to 4.
func compositionCoeffs4() []float64 {
	g1 := 1.0 / (2.0 - math.Cbrt(2.0))
	g2 := -math.Cbrt(2.0) * g1
	return []float64{g1, g2, g1}
}

// compositionCoeffs8 is the S=15 symmetric composition listed
// verbatim in the external-interfaces section of the specification
// this module implements: gamma_9..gamma_15 are gamma_7..gamma_1
// reversed (palindrome), summing to 1 to eighth order. Grounded on
// the teacher's coeffs table pattern (pkg/util/integrator.go's BDF
// coefficient slices), generalized from fixed stencil weights to
// composition step weights.
func compositionCoeffs8() []float64 {
	head := []float64{
		0.74167036435061295344822780,
		-0.40910082580003159399730010,
		0.19075471029623837995387626,
		-0.57386247111608226665638773,
		0.29906418130365592384446354,
		0.33462491824529818378495798,
		0.31529309239676659663205666,
		-0.79688793935291635401978884,
	}
	g := make([]float64, 15)
	copy(g, head)
	for i := 0; i < 7; i++ {
		g[8+i] = head[6-i]
	}
	return g
}
