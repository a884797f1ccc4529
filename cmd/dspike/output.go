package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"dspike/internal/model"
	"dspike/internal/solver"
	"dspike/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// printer renders command output. Styles are bound to the destination writer,
// so redirected output stays free of escape codes.
type printer struct {
	w     io.Writer
	label lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	dim   lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:     w,
		label: r.NewStyle().Bold(true),
		ok:    r.NewStyle().Foreground(lipgloss.Color("42")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		dim:   r.NewStyle().Faint(true),
	}
}

func (p *printer) heading(s string) {
	fmt.Fprintln(p.w, p.label.Render(s))
}

// solution prints "<strategy> Solution: [x1 x2 x3]".
func (p *printer) solution(r solver.Result) {
	fmt.Fprintf(p.w, "%s %s\n", p.label.Render(string(r.Strategy)+" Solution:"), r.X)
}

func (p *printer) status(r solver.Result) {
	if r.Converged {
		fmt.Fprintf(p.w, "  %s %s\n", p.ok.Render("converged"),
			p.dim.Render(fmt.Sprintf("(%s, %d iterations, max|f| = %.3g)", r.Status, r.Iterations, r.ResidualNorm)))
		return
	}
	fmt.Fprintf(p.w, "  %s %s\n", p.warn.Render("not converged:"), r.Message)
}

func (p *printer) delta(d float64) {
	fmt.Fprintf(p.w, "  %s %.3g\n", p.dim.Render("max |fsolve - root|:"), d)
}

// evaluation prints residuals and the Jacobian at x.
func (p *printer) evaluation(c model.Constants, x, f model.Vector, j model.Matrix) {
	fmt.Fprintf(p.w, "%s %s\n", p.label.Render("Point:"), x)
	if !x.InUnitInterval() {
		fmt.Fprintf(p.w, "  %s\n", p.warn.Render("phi_ref is outside [0, 1]"))
	}

	fmt.Fprintln(p.w, p.label.Render("Residuals:"))
	labels := c.Labels()
	for i, v := range f {
		fmt.Fprintf(p.w, "  f%d (%s): %.10g\n", i+1, labels[i], v)
	}
	fmt.Fprintf(p.w, "  max|f| = %.3g\n", f.MaxAbs())

	fmt.Fprintf(p.w, "%s %s\n", p.label.Render("Jacobian"), p.dim.Render("(rows f1..f3, columns "+strings.Join(model.ParameterNames[:], ", ")+"):"))
	fmt.Fprintln(p.w, j)
}

// runs prints a history table, newest first.
func (p *printer) runs(runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(p.w, p.dim.Render("No runs recorded."))
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.dim).
		Headers("ID", "CREATED", "STRATEGY", "CONVERGED", "MAX|F|", "SOLUTION")
	for _, r := range runs {
		t.Row(
			shortID(r.ID),
			r.CreatedAt.Local().Format(time.DateTime),
			r.Strategy,
			yesNo(r.Converged),
			fmt.Sprintf("%.3g", r.ResidualNorm),
			r.Solution.String(),
		)
	}
	fmt.Fprintln(p.w, t.String())
}

// run prints every recorded field of one run.
func (p *printer) run(r store.Run) {
	fields := []struct {
		name  string
		value string
	}{
		{"ID", r.ID},
		{"Created", r.CreatedAt.Local().Format(time.RFC3339)},
		{"Strategy", r.Strategy},
		{"Method", r.Method},
		{"Initial guess", r.Initial.String()},
		{"Solution", r.Solution.String()},
		{"Residuals", r.Residuals.String()},
		{"Max |f|", fmt.Sprintf("%.3g", r.ResidualNorm)},
		{"Converged", yesNo(r.Converged)},
		{"Status", r.Status},
		{"Message", r.Message},
		{"Iterations", fmt.Sprint(r.Iterations)},
		{"Evaluations", fmt.Sprint(r.Evaluations)},
		{"Duration", r.Duration.String()},
	}
	for _, f := range fields {
		fmt.Fprintf(p.w, "%s %s\n", p.label.Render(fmt.Sprintf("%-14s", f.name+":")), f.value)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
