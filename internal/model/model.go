package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Model binds one calibration set to the residual and Jacobian functions.
// It is immutable and safe for concurrent use.
type Model struct {
	constants Constants
}

// New validates c and returns a Model over it.
func New(c Constants) (*Model, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Model{constants: c}, nil
}

// Default returns a Model over DefaultConstants.
func Default() *Model {
	return &Model{constants: DefaultConstants()}
}

// Constants returns a copy of the calibration in use.
func (m *Model) Constants() Constants {
	return m.constants
}

// Residuals evaluates the equations at x, which must hold three values.
func (m *Model) Residuals(x []float64) (Vector, error) {
	v, err := NewVector(x)
	if err != nil {
		return Vector{}, err
	}
	return Residuals(m.constants, v), nil
}

// Jacobian evaluates the analytic Jacobian at x, which must hold three values.
func (m *Model) Jacobian(x []float64) (Matrix, error) {
	v, err := NewVector(x)
	if err != nil {
		return Matrix{}, err
	}
	return Jacobian(m.constants, v), nil
}

// At evaluates both models at the same point.
func (m *Model) At(x Vector) (Vector, Matrix) {
	return Residuals(m.constants, x), Jacobian(m.constants, x)
}

// ResidualFunc adapts the residuals to the dst/x callback shape used by
// gonum's diff/fd package. It panics on mis-sized slices, which is a
// programming error at that level.
func (m *Model) ResidualFunc() func(dst, x []float64) {
	return func(dst, x []float64) {
		if len(dst) != 3 || len(x) != 3 {
			panic(fmt.Sprintf("model: residual callback sized %d/%d, want 3/3", len(dst), len(x)))
		}
		f := Residuals(m.constants, Vector{x[0], x[1], x[2]})
		copy(dst, f[:])
	}
}

// JacobianFunc adapts the analytic Jacobian to a gonum dense destination.
func (m *Model) JacobianFunc() func(dst *mat.Dense, x []float64) {
	return func(dst *mat.Dense, x []float64) {
		if len(x) != 3 {
			panic(fmt.Sprintf("model: jacobian callback sized %d, want 3", len(x)))
		}
		j := Jacobian(m.constants, Vector{x[0], x[1], x[2]})
		for r := range j {
			for c := range j[r] {
				dst.Set(r, c, j[r][c])
			}
		}
	}
}
