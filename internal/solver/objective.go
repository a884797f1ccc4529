package solver

import (
	"context"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// residualFunc writes f(x) into dst.
type residualFunc func(dst, x []float64)

// jacobianFunc writes ∂f/∂x at x into dst.
type jacobianFunc func(dst *mat.Dense, x []float64)

// leastSquares recasts the square system f(x) = 0 as minimizing ½‖f(x)‖².
// The gradient is Jᵀf and the Hessian is the Gauss–Newton term JᵀJ, which is
// exact at a root.
type leastSquares struct {
	n         int
	residuals residualFunc
	jacobian  jacobianFunc
}

// finiteDifference returns a Jacobian estimated from residual evaluations
// alone, using gonum's forward-difference formula.
func finiteDifference(n int, f residualFunc, step float64) jacobianFunc {
	return func(dst *mat.Dense, x []float64) {
		origin := make([]float64, n)
		f(origin, x)
		fd.Jacobian(dst, f, x, &fd.JacobianSettings{
			Formula:     fd.Forward,
			OriginValue: origin,
			Step:        step,
		})
	}
}

func (ls leastSquares) value(x []float64) float64 {
	f := make([]float64, ls.n)
	ls.residuals(f, x)
	return 0.5 * floats.Dot(f, f)
}

func (ls leastSquares) grad(grad, x []float64) {
	f := make([]float64, ls.n)
	ls.residuals(f, x)
	j := mat.NewDense(ls.n, len(x), nil)
	ls.jacobian(j, x)
	mat.NewVecDense(len(grad), grad).MulVec(j.T(), mat.NewVecDense(ls.n, f))
}

func (ls leastSquares) hess(hess *mat.SymDense, x []float64) {
	j := mat.NewDense(ls.n, len(x), nil)
	ls.jacobian(j, x)
	hess.SymOuterK(1, j.T())
}

// problem builds the gonum Problem. Cancelling ctx stops the run at the next
// evaluation with a Failure status.
func (ls leastSquares) problem(ctx context.Context) optimize.Problem {
	return optimize.Problem{
		Func: ls.value,
		Grad: ls.grad,
		Hess: ls.hess,
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
}

// residualConverger stops as soon as ½‖f‖² ≤ threshold, which bounds every
// |f_i| by the configured tolerance. Stagnation is left to FunctionConverge.
type residualConverger struct {
	threshold float64
	stall     optimize.FunctionConverge
}

func newResidualConverger(tol float64) *residualConverger {
	return &residualConverger{
		threshold: 0.5 * tol * tol,
		stall:     optimize.FunctionConverge{Relative: 1e-12, Iterations: 25},
	}
}

func (c *residualConverger) Init(dim int) {
	c.stall.Init(dim)
}

func (c *residualConverger) Converged(loc *optimize.Location) optimize.Status {
	if loc.F <= c.threshold {
		return optimize.FunctionThreshold
	}
	return c.stall.Converged(loc)
}
