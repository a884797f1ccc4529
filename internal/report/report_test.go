package report

import (
	"context"
	"strings"
	"testing"

	"dspike/internal/model"
	"dspike/internal/solver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compareDefault(t *testing.T) solver.Comparison {
	t.Helper()
	slv, err := solver.New(model.Default(), solver.DefaultSettings())
	require.NoError(t, err)
	c, err := slv.Compare(context.Background(), model.DefaultGuess)
	require.NoError(t, err)
	return c
}

func TestMarkdown_Sections(t *testing.T) {
	md := Markdown(model.DefaultConstants(), compareDefault(t))

	for _, want := range []string{
		"# Double-spike calibration report",
		"Initial guess: `[0.5 0.5 2]`",
		"## Calibration constants",
		"| 100/95 | 53.97511406 | 0.601491655 | 0.83866852 |",
		"| 97/95 | 51.84570718 | 0.598673698 | 0.773076736 |",
		"## Solutions",
		"| phi_ref | 0.00269888",
		"| beta_mix | 2.268218",
		"## Residuals at each solution",
		"- **fsolve** (newton): converged",
		"- **root** (newton): converged",
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "outside [0, 1]")
}

func TestMarkdown_NotConvergedAndOutOfRange(t *testing.T) {
	c := compareDefault(t)
	c.Root.Converged = false
	c.Root.Message = "stopped early (IterationLimit) with max residual 26.5"
	c.FSolve.X[model.PhiRef] = 1.4

	md := Markdown(model.DefaultConstants(), c)
	assert.Contains(t, md, "- **root** (newton): not converged: stopped early (IterationLimit)")
	assert.Contains(t, md, "phi_ref lies outside [0, 1]")
}

func TestMarkdown_TableRowsPerEquation(t *testing.T) {
	md := Markdown(model.DefaultConstants(), compareDefault(t))
	for _, row := range []string{"| f1 (100/95) |", "| f2 (98/95) |", "| f3 (97/95) |"} {
		assert.Equal(t, 1, strings.Count(md, row), row)
	}
}
