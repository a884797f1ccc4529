package solver

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/optimize"
)

// Methods accepted by Settings.Method for the derivative-free strategy.
const (
	MethodNewton = "newton"
	MethodBFGS   = "bfgs"
	MethodLBFGS  = "lbfgs"
)

// Methods lists the derivative-free methods in display order.
var Methods = []string{MethodNewton, MethodBFGS, MethodLBFGS}

// Settings bounds a single solve.
type Settings struct {
	// Tolerance is the largest |f_i| accepted as a root.
	Tolerance float64
	// MaxIterations caps major iterations; 0 means no cap.
	MaxIterations int
	// MaxEvaluations caps residual evaluations; 0 means no cap.
	MaxEvaluations int
	// Method picks the derivative-free minimizer.
	Method string
	// Step is the finite-difference step; 0 uses the formula default.
	Step float64
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		Tolerance:      1e-10,
		MaxIterations:  200,
		MaxEvaluations: 5000,
		Method:         MethodNewton,
	}
}

// Validate checks the settings for obvious mistakes.
func (s Settings) Validate() error {
	if !(s.Tolerance > 0) {
		return fmt.Errorf("tolerance must be positive, got %v", s.Tolerance)
	}
	if s.MaxIterations < 0 || s.MaxEvaluations < 0 {
		return fmt.Errorf("iteration and evaluation limits must be non-negative")
	}
	if s.Step < 0 {
		return fmt.Errorf("finite-difference step must be non-negative, got %v", s.Step)
	}
	if _, err := methodFor(s.Method); err != nil {
		return err
	}
	return nil
}

// methodFor maps a configured method name onto a fresh gonum Method. Methods
// carry per-run state, so one must never be shared between solves.
func methodFor(name string) (optimize.Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", MethodNewton:
		return newtonMethod(), nil
	case MethodBFGS:
		return &optimize.BFGS{}, nil
	case MethodLBFGS:
		return &optimize.LBFGS{}, nil
	default:
		return nil, fmt.Errorf("unknown method %q (valid: %s)", name, strings.Join(Methods, ", "))
	}
}

// newtonMethod is Newton's method with Armijo backtracking. Given the
// Gauss–Newton Hessian JᵀJ its step is the Newton–Raphson step −J⁻¹f.
func newtonMethod() *optimize.Newton {
	return &optimize.Newton{Linesearcher: &optimize.Backtracking{}}
}
