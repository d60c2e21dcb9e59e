package integrate

import "github.com/edp1096/qoc/linsolve"

// Euler is the explicit forward-Euler step x_next = x + h*A(t)*x,
// first order. Its discrete adjoint is the transpose of that affine
// map: lambda_prev = lambda + h*A(t)^T*lambda.
type Euler struct{}

func (Euler) Name() string { return "euler" }
func (Euler) Order() int   { return 1 }

func (Euler) EvolveFwd(assemble AssembleFunc, _ linsolve.Method, _ linsolve.Settings, x []float64, t, h float64) ([]float64, error) {
	a := assemble(t)
	ax := make([]float64, len(x))
	a.MatVec(x, ax)
	next := make([]float64, len(x))
	for i := range next {
		next[i] = x[i] + h*ax[i]
	}
	if err := checkFinite(next, "euler forward step"); err != nil {
		return nil, err
	}
	return next, nil
}

func (Euler) EvolveBwd(assemble AssembleFunc, _ linsolve.Method, _ linsolve.Settings, lambda []float64, t, h float64) ([]float64, error) {
	a := assemble(t)
	at := make([]float64, len(lambda))
	a.MatVecTrans(lambda, at)
	prev := make([]float64, len(lambda))
	for i := range prev {
		prev[i] = lambda[i] + h*at[i]
	}
	if err := checkFinite(prev, "euler backward step"); err != nil {
		return nil, err
	}
	return prev, nil
}

// GradStep: Phi_h(x;theta) = x + h*A(t;theta)*x, so the gradient
// contribution is exactly h * (dA/dtheta at t)(x) . lambda (§4.6
// "Explicit Euler" gradient contribution), taken at the untouched
// forward state xStart and the incoming adjoint state lambda.
func (Euler) GradStep(assemble AssembleFunc, solver linsolve.Method, settings linsolve.Settings, xStart, lambda []float64, t, h float64, contrib ContribFunc) ([]float64, error) {
	if err := contrib(t, xStart, lambda, h); err != nil {
		return nil, err
	}
	return Euler{}.EvolveBwd(assemble, solver, settings, lambda, t, h)
}
