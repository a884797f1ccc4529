package solver

import (
	"context"
	"math"
	"testing"

	"dspike/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// root of the default constants, cross-checked with an independent Newton solve.
var knownRoot = model.Vector{0.0026988822528120, -0.0329797528583, 2.2682180429263}

func newSolver(t *testing.T, s Settings) *Solver {
	t.Helper()
	slv, err := New(model.Default(), s)
	require.NoError(t, err)
	return slv
}

func assertRoot(t *testing.T, r Result) {
	t.Helper()
	require.True(t, r.Converged, "%s: %s", r.Strategy, r.Message)
	for i, f := range r.Residuals {
		assert.Less(t, math.Abs(f), 1e-6, "residual %d", i)
	}
	for i := range knownRoot {
		assert.InDelta(t, knownRoot[i], r.X[i], 1e-6, model.ParameterNames[i])
	}
}

func TestSolver_DefaultGuess(t *testing.T) {
	slv := newSolver(t, DefaultSettings())
	ctx := context.Background()

	t.Run("fsolve", func(t *testing.T) {
		r := slv.FSolve(ctx, model.DefaultGuess)
		assertRoot(t, r)
		assert.Equal(t, FSolve, r.Strategy)
		assert.Equal(t, model.DefaultGuess, r.Initial)
		assert.Equal(t, "The solution converged.", r.Message)
		assert.Greater(t, r.Iterations, 0)
	})

	t.Run("root", func(t *testing.T) {
		r := slv.Root(ctx, model.DefaultGuess)
		assertRoot(t, r)
		assert.Equal(t, Root, r.Strategy)
		assert.Equal(t, MethodNewton, r.Method)
	})
}

func TestSolver_CustomGuess(t *testing.T) {
	slv := newSolver(t, DefaultSettings())
	guess := model.Vector{0.6, 0.4, 1.5}

	r := slv.Root(context.Background(), guess)
	assertRoot(t, r)
	assert.Equal(t, guess, r.Initial)
	assert.Len(t, r.X.Slice(), 3)
}

func TestSolver_ResultMatchesModel(t *testing.T) {
	slv := newSolver(t, DefaultSettings())
	r := slv.Root(context.Background(), model.DefaultGuess)

	want := model.Residuals(model.DefaultConstants(), r.X)
	assert.Equal(t, want, r.Residuals)
	assert.Equal(t, want.MaxAbs(), r.ResidualNorm)
}

func TestSolver_Compare(t *testing.T) {
	defer goleak.VerifyNone(t)

	slv := newSolver(t, DefaultSettings())
	c, err := slv.Compare(context.Background(), model.DefaultGuess)
	require.NoError(t, err)

	assert.Equal(t, model.DefaultGuess, c.Initial)
	assertRoot(t, c.FSolve)
	assertRoot(t, c.Root)

	approx := cmpopts.EquateApprox(0, 1e-4)
	if diff := cmp.Diff(c.Root.X, c.FSolve.X, approx); diff != "" {
		t.Errorf("strategies disagree (-root +fsolve):\n%s", diff)
	}
	assert.Less(t, c.MaxDelta, 1e-4)
	assert.Equal(t, c.FSolve.X.Sub(c.Root.X).MaxAbs(), c.MaxDelta)
}

func TestSolver_Solve(t *testing.T) {
	slv := newSolver(t, DefaultSettings())
	ctx := context.Background()

	r, err := slv.Solve(ctx, Root, model.DefaultGuess)
	require.NoError(t, err)
	assert.Equal(t, Root, r.Strategy)

	_, err = slv.Solve(ctx, Strategy("hybrid"), model.DefaultGuess)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestSolver_AlternativeMethods(t *testing.T) {
	for _, method := range Methods {
		t.Run(method, func(t *testing.T) {
			s := DefaultSettings()
			s.Method = method
			slv := newSolver(t, s)

			r := slv.FSolve(context.Background(), model.DefaultGuess)
			assert.Equal(t, method, r.Method)
			assert.Len(t, r.X.Slice(), 3)
			assert.Equal(t, model.Residuals(model.DefaultConstants(), r.X), r.Residuals)
			if r.Converged {
				assert.LessOrEqual(t, r.ResidualNorm, s.Tolerance)
			}
		})
	}
}

func TestSolver_IterationLimitIsReported(t *testing.T) {
	s := DefaultSettings()
	s.MaxIterations = 1
	slv := newSolver(t, s)

	r := slv.Root(context.Background(), model.DefaultGuess)
	assert.False(t, r.Converged)
	assert.Equal(t, "IterationLimit", r.Status)
	assert.Equal(t, model.DefaultGuess, r.X)
	assert.Contains(t, r.Message, "stopped early")
}

func TestSolver_CancelledContext(t *testing.T) {
	slv := newSolver(t, DefaultSettings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, r := range []Result{slv.FSolve(ctx, model.DefaultGuess), slv.Root(ctx, model.DefaultGuess)} {
		assert.False(t, r.Converged)
		assert.Equal(t, model.DefaultGuess, r.X)
		assert.Contains(t, r.Message, context.Canceled.Error())
	}
}

func TestSolver_NonFiniteGuess(t *testing.T) {
	slv := newSolver(t, DefaultSettings())
	guess := model.Vector{0.5, math.NaN(), 2.0}

	r := slv.Root(context.Background(), guess)
	assert.False(t, r.Converged)
	assert.True(t, math.IsNaN(r.ResidualNorm))
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, DefaultSettings())
	assert.Error(t, err)

	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"zero tolerance", func(s *Settings) { s.Tolerance = 0 }},
		{"nan tolerance", func(s *Settings) { s.Tolerance = math.NaN() }},
		{"negative iterations", func(s *Settings) { s.MaxIterations = -1 }},
		{"negative step", func(s *Settings) { s.Step = -1e-6 }},
		{"unknown method", func(s *Settings) { s.Method = "levenberg" }},
		{"simplex method is not offered", func(s *Settings) { s.Method = "nelder-mead" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			_, err := New(model.Default(), s)
			assert.Error(t, err)
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"fsolve", FSolve},
		{"FSOLVE", FSolve},
		{"root", Root},
		{"root-method", Root},
		{" root-method ", Root},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseStrategy("brent")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}
