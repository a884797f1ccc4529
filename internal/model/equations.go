package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a 3×3 Jacobian; entry [i][j] is ∂f_i/∂x_j with rows in equation
// order and columns in parameter order (φ_ref, β_sple, β_mix).
type Matrix [3][3]float64

// Dense copies m into a gonum matrix.
func (m Matrix) Dense() *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	for i := range m {
		for j := range m[i] {
			d.Set(i, j, m[i][j])
		}
	}
	return d
}

func (m Matrix) String() string {
	return fmt.Sprintf("%v", mat.Formatted(m.Dense(), mat.Squeeze()))
}

// Residuals evaluates the three mass-balance equations at x.
// Non-finite inputs propagate into the result unchanged.
func Residuals(c Constants, x Vector) Vector {
	phi, bs, bm := x[PhiRef], x[BetaSample], x[BetaMix]
	var f Vector
	for i, iso := range c.Isotopes {
		a := c.base(i)
		f[i] = phi*iso.Spike + (1-phi)*iso.Standard*math.Pow(a, bs) - iso.Mix*math.Pow(a, bm)
	}
	return f
}

// Jacobian evaluates the closed-form partial derivatives of Residuals at x.
func Jacobian(c Constants, x Vector) Matrix {
	phi, bs, bm := x[PhiRef], x[BetaSample], x[BetaMix]
	var j Matrix
	for i, iso := range c.Isotopes {
		a := c.base(i)
		ln := math.Log(a)
		as, am := math.Pow(a, bs), math.Pow(a, bm)

		j[i][PhiRef] = iso.Spike - iso.Standard*as
		// d/dβ a^β = ln(a)·a^β
		j[i][BetaSample] = (1 - phi) * iso.Standard * ln * as
		j[i][BetaMix] = -iso.Mix * ln * am
	}
	return j
}
