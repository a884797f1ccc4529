package main

import (
	"dspike/internal/model"
	"dspike/internal/solver"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// guessFlags holds the initial guess flags of one command.
type guessFlags struct {
	phiRef     float64
	betaSample float64
	betaMix    float64
}

var guesses = map[*cobra.Command]*guessFlags{}

func registerGuessFlags(cmd *cobra.Command) {
	g := &guessFlags{}
	d := model.DefaultGuess
	cmd.Flags().Float64VarP(&g.phiRef, "phi-ref", "p", d[model.PhiRef], "Initial guess for phi_ref")
	cmd.Flags().Float64VarP(&g.betaSample, "beta-sple", "b", d[model.BetaSample], "Initial guess for beta_sple")
	cmd.Flags().Float64VarP(&g.betaMix, "beta-mix", "m", d[model.BetaMix], "Initial guess for beta_mix")
	guesses[cmd] = g
}

// initialGuess resolves the guess for cmd. Flags given on the command line
// win; the rest come from the config file.
func initialGuess(cmd *cobra.Command) model.Vector {
	v := cfg.InitialGuess()
	g, ok := guesses[cmd]
	if !ok {
		return v
	}
	if cmd.Flags().Changed("phi-ref") {
		v[model.PhiRef] = g.phiRef
	}
	if cmd.Flags().Changed("beta-sple") {
		v[model.BetaSample] = g.betaSample
	}
	if cmd.Flags().Changed("beta-mix") {
		v[model.BetaMix] = g.betaMix
	}
	return v
}

var solveStrategy string

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve with the strategy named by --strategy",
	Long: `Solve with the strategy named by --strategy.

fsolve (also derivative-free) uses a finite-difference Jacobian; root (also
root-method, hybr, jacobian) uses Newton's method with the analytic Jacobian.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, err := solver.ParseStrategy(solveStrategy)
		if err != nil {
			return err
		}
		return runSolve(cmd, strategy)
	},
}

var fsolveCmd = &cobra.Command{
	Use:   "fsolve",
	Short: "Solve with the derivative-free strategy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSolve(cmd, solver.FSolve)
	},
}

var rootMethodCmd = &cobra.Command{
	Use:     "root-method",
	Aliases: []string{"root"},
	Short:   "Solve with Newton's method and the analytic Jacobian",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSolve(cmd, solver.Root)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run both strategies from the same guess and print both solutions",
	Args:  cobra.NoArgs,
	RunE:  runCompare,
}

func runSolve(cmd *cobra.Command, strategy solver.Strategy) error {
	slv, err := newSolver()
	if err != nil {
		return err
	}
	guess := initialGuess(cmd)
	logger.Debug("solving", zap.String("strategy", string(strategy)), zap.Stringer("guess", guess))

	res, err := slv.Solve(cmd.Context(), strategy, guess)
	if err != nil {
		return err
	}

	p := newPrinter(cmd.OutOrStdout())
	p.solution(res)
	if showStatus {
		p.status(res)
	}
	recordRuns(cmd.Context(), res)
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	slv, err := newSolver()
	if err != nil {
		return err
	}
	return compareAndPrint(cmd, slv, initialGuess(cmd))
}

func compareAndPrint(cmd *cobra.Command, slv *solver.Solver, guess model.Vector) error {
	logger.Debug("comparing", zap.Stringer("guess", guess))

	c, err := slv.Compare(cmd.Context(), guess)
	if err != nil {
		return err
	}

	p := newPrinter(cmd.OutOrStdout())
	p.heading("Comparison of solutions:")
	p.solution(c.FSolve)
	if showStatus {
		p.status(c.FSolve)
	}
	p.solution(c.Root)
	if showStatus {
		p.status(c.Root)
		p.delta(c.MaxDelta)
	}
	recordRuns(cmd.Context(), c.FSolve, c.Root)
	return nil
}
