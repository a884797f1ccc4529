package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidInput is returned for parameter vectors that are not exactly
	// three numbers.
	ErrInvalidInput = errors.New("invalid parameter vector")

	// ErrInvalidConstants is returned by Constants.Validate.
	ErrInvalidConstants = errors.New("invalid calibration constants")
)

// Parameter indices.
const (
	PhiRef = iota
	BetaSample
	BetaMix
)

// ParameterNames are the unknowns in vector order.
var ParameterNames = [3]string{"phi_ref", "beta_sple", "beta_mix"}

// Vector is a parameter vector (φ_ref, β_sple, β_mix) or a residual vector
// (f1, f2, f3), depending on context.
type Vector [3]float64

// DefaultGuess is the initial guess used when the caller supplies none.
var DefaultGuess = Vector{0.5, 0.5, 2.0}

// NewVector copies xs into a Vector. xs must hold exactly three values.
func NewVector(xs []float64) (Vector, error) {
	var v Vector
	if len(xs) != len(v) {
		return v, fmt.Errorf("%w: want 3 values, got %d", ErrInvalidInput, len(xs))
	}
	copy(v[:], xs)
	return v, nil
}

// ParseVector parses three numbers, e.g. the fields of "0.5,0.5,2".
func ParseVector(fields []string) (Vector, error) {
	var v Vector
	if len(fields) != len(v) {
		return v, fmt.Errorf("%w: want 3 values, got %d", ErrInvalidInput, len(fields))
	}
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return v, fmt.Errorf("%w: %s: %q is not a number", ErrInvalidInput, ParameterNames[i], f)
		}
		v[i] = x
	}
	return v, nil
}

// ParseVectorString parses a comma-separated triple.
func ParseVectorString(s string) (Vector, error) {
	return ParseVector(strings.Split(s, ","))
}

// Slice returns a fresh slice holding the components.
func (v Vector) Slice() []float64 {
	out := make([]float64, len(v))
	copy(out, v[:])
	return out
}

// MaxAbs is the infinity norm of v.
func (v Vector) MaxAbs() float64 {
	m := 0.0
	for _, x := range v {
		if math.IsNaN(x) {
			return math.NaN()
		}
		m = math.Max(m, math.Abs(x))
	}
	return m
}

// IsFinite reports whether every component is a finite number.
func (v Vector) IsFinite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// InUnitInterval reports whether φ_ref lies in [0, 1]. The equations do not
// require it; callers that treat φ_ref strictly as a fraction can check it.
func (v Vector) InUnitInterval() bool {
	return v[PhiRef] >= 0 && v[PhiRef] <= 1
}

// Sub returns v − w.
func (v Vector) Sub(w Vector) Vector {
	return Vector{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

func (v Vector) String() string {
	return fmt.Sprintf("[%.10g %.10g %.10g]", v[0], v[1], v[2])
}
