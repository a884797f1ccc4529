// Package solver runs the double-spike equations through gonum's optimize
// package using one of two strategies:
//
//   - fsolve: derivative-free. Only the residuals are handed to the solver;
//     the Jacobian it needs is estimated by forward differences.
//   - root: Jacobian-aware. Newton's method with line search driven by the
//     analytic Jacobian from package model.
//
// Both strategies report convergence explicitly in Result. Whether a
// non-converged result is an error is left to the caller.
package solver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dspike/internal/logging"
	"dspike/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/optimize"
)

// Strategy names a solve strategy.
type Strategy string

const (
	// FSolve is the derivative-free strategy.
	FSolve Strategy = "fsolve"
	// Root is the Jacobian-aware strategy.
	Root Strategy = "root"
)

// ErrUnknownStrategy is returned by ParseStrategy and Solve.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ParseStrategy accepts the strategy names used on the command line.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fsolve", "derivative-free":
		return FSolve, nil
	case "root", "root-method", "hybr", "jacobian":
		return Root, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Result is the full outcome of one solve.
type Result struct {
	Strategy     Strategy
	Method       string
	Initial      model.Vector
	X            model.Vector
	Residuals    model.Vector
	ResidualNorm float64 // max |f_i| at X
	Converged    bool
	Status       string
	Message      string
	Iterations   int
	Evaluations  int
	Runtime      time.Duration
}

// Comparison holds both strategies run from the same guess.
type Comparison struct {
	Initial  model.Vector
	FSolve   Result
	Root     Result
	MaxDelta float64 // max |x_fsolve − x_root| over the components
}

// Solver runs strategies over a single Model. It holds no mutable state and
// may be shared between goroutines.
type Solver struct {
	model    *model.Model
	settings Settings
}

// New returns a Solver over m.
func New(m *model.Model, settings Settings) (*Solver, error) {
	if m == nil {
		return nil, errors.New("solver: nil model")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}
	return &Solver{model: m, settings: settings}, nil
}

// Settings returns the solver settings.
func (s *Solver) Settings() Settings {
	return s.settings
}

// Model returns the model being solved.
func (s *Solver) Model() *model.Model {
	return s.model
}

// Solve dispatches to the named strategy.
func (s *Solver) Solve(ctx context.Context, strategy Strategy, guess model.Vector) (Result, error) {
	switch strategy {
	case FSolve:
		return s.FSolve(ctx, guess), nil
	case Root:
		return s.Root(ctx, guess), nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// FSolve runs the derivative-free strategy from guess.
func (s *Solver) FSolve(ctx context.Context, guess model.Vector) Result {
	method, err := methodFor(s.settings.Method)
	if err != nil {
		// Settings were validated in New.
		panic(err)
	}
	f := residualFunc(s.model.ResidualFunc())
	ls := leastSquares{
		n:         3,
		residuals: f,
		jacobian:  finiteDifference(3, f, s.settings.Step),
	}
	name := strings.ToLower(s.settings.Method)
	if name == "" {
		name = MethodNewton
	}
	return s.run(ctx, FSolve, name, ls, method, guess)
}

// Root runs the Jacobian-aware strategy from guess.
func (s *Solver) Root(ctx context.Context, guess model.Vector) Result {
	ls := leastSquares{
		n:         3,
		residuals: residualFunc(s.model.ResidualFunc()),
		jacobian:  jacobianFunc(s.model.JacobianFunc()),
	}
	return s.run(ctx, Root, MethodNewton, ls, newtonMethod(), guess)
}

// Compare runs both strategies from the same guess. It reports both results
// and how far apart they are, without judging agreement.
func (s *Solver) Compare(ctx context.Context, guess model.Vector) (Comparison, error) {
	cmp := Comparison{Initial: guess}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cmp.FSolve = s.FSolve(gctx, guess)
		return nil
	})
	g.Go(func() error {
		cmp.Root = s.Root(gctx, guess)
		return nil
	})
	if err := g.Wait(); err != nil {
		return cmp, err
	}

	cmp.MaxDelta = cmp.FSolve.X.Sub(cmp.Root.X).MaxAbs()
	return cmp, nil
}

func (s *Solver) run(ctx context.Context, strategy Strategy, methodName string, ls leastSquares, method optimize.Method, guess model.Vector) Result {
	log := logging.Get(logging.CategorySolver).With(
		zap.String("strategy", string(strategy)),
		zap.String("method", methodName),
	)
	log.Debug("solve started", zap.Float64s("guess", guess[:]))

	settings := &optimize.Settings{
		Converger:       newResidualConverger(s.settings.Tolerance),
		MajorIterations: s.settings.MaxIterations,
		FuncEvaluations: s.settings.MaxEvaluations,
	}

	start := time.Now()
	res, err := optimize.Minimize(ls.problem(ctx), guess.Slice(), settings, method)

	out := Result{
		Strategy: strategy,
		Method:   methodName,
		Initial:  guess,
		X:        guess,
		Runtime:  time.Since(start),
	}
	if res != nil {
		out.Status = res.Status.String()
		out.Iterations = res.MajorIterations
		out.Evaluations = res.FuncEvaluations
		// Without a completed iteration the best location is never filled in,
		// so the last iterate is the guess itself.
		if res.MajorIterations > 0 {
			copy(out.X[:], res.X)
		}
	} else {
		out.Status = optimize.Failure.String()
	}

	out.Residuals = model.Residuals(s.model.Constants(), out.X)
	out.ResidualNorm = out.Residuals.MaxAbs()
	out.Converged = err == nil && out.ResidualNorm <= s.settings.Tolerance

	switch {
	case out.Converged:
		out.Message = "The solution converged."
	case err != nil:
		out.Message = err.Error()
	case res != nil && res.Status.Early():
		out.Message = fmt.Sprintf("stopped early (%s) with max residual %.3g", res.Status, out.ResidualNorm)
	default:
		out.Message = fmt.Sprintf("max residual %.3g exceeds tolerance %.3g", out.ResidualNorm, s.settings.Tolerance)
	}

	log.Debug("solve finished",
		zap.Bool("converged", out.Converged),
		zap.String("status", out.Status),
		zap.Float64("residual", out.ResidualNorm),
		zap.Int("iterations", out.Iterations),
		zap.Duration("runtime", out.Runtime),
	)
	if !out.Converged {
		log.Warn("solve did not converge", zap.String("message", out.Message))
	}
	return out
}
