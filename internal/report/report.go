// Package report formats a comparison run as a Markdown calibration report.
package report

import (
	"fmt"
	"strings"

	"dspike/internal/model"
	"dspike/internal/solver"
)

// Markdown renders the calibration constants, both solutions and their
// residuals as a Markdown document.
func Markdown(c model.Constants, cmp solver.Comparison) string {
	var b strings.Builder

	b.WriteString("# Double-spike calibration report\n\n")
	fmt.Fprintf(&b, "Initial guess: `%s`\n\n", cmp.Initial)

	b.WriteString("## Calibration constants\n\n")
	b.WriteString("| Ratio | Spike | Standard | Mix |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	labels := c.Labels()
	for i, iso := range c.Isotopes {
		fmt.Fprintf(&b, "| %s | %.10g | %.10g | %.10g |\n", labels[i], iso.Spike, iso.Standard, iso.Mix)
	}
	b.WriteString("\n")

	b.WriteString("## Solutions\n\n")
	b.WriteString("| Parameter | fsolve | root |\n")
	b.WriteString("|---|---:|---:|\n")
	for i, name := range model.ParameterNames {
		fmt.Fprintf(&b, "| %s | %.10g | %.10g |\n", name, cmp.FSolve.X[i], cmp.Root.X[i])
	}
	fmt.Fprintf(&b, "\nLargest difference between the strategies: %.3g\n\n", cmp.MaxDelta)

	b.WriteString("## Residuals at each solution\n\n")
	b.WriteString("| Equation | fsolve | root |\n")
	b.WriteString("|---|---:|---:|\n")
	for i := range labels {
		fmt.Fprintf(&b, "| f%d (%s) | %.3g | %.3g |\n", i+1, labels[i], cmp.FSolve.Residuals[i], cmp.Root.Residuals[i])
	}
	b.WriteString("\n")

	b.WriteString("## Convergence\n\n")
	for _, r := range []solver.Result{cmp.FSolve, cmp.Root} {
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", r.Strategy, r.Method, convergence(r))
	}
	if !cmp.Root.X.InUnitInterval() || !cmp.FSolve.X.InUnitInterval() {
		b.WriteString("\n> phi_ref lies outside [0, 1]; check the calibration constants.\n")
	}

	return b.String()
}

func convergence(r solver.Result) string {
	if r.Converged {
		return fmt.Sprintf("converged after %d iterations, max |f| = %.3g", r.Iterations, r.ResidualNorm)
	}
	return "not converged: " + r.Message
}
