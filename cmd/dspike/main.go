package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dspike/internal/config"
	"dspike/internal/logging"
	"dspike/internal/model"
	"dspike/internal/solver"
	"dspike/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	showStatus bool
	noHistory  bool

	// Loaded in PersistentPreRunE
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dspike",
	Short: "dspike - double-spike isotope calibration solver",
	Long: `dspike solves the three double-spike mass-balance equations for the
spike/standard mixing fraction phi_ref and the fractionation factors
beta_sple and beta_mix.

Two strategies are available: fsolve (derivative-free, finite-difference
Jacobian) and root-method (Newton with the analytic Jacobian). compare runs
both from the same initial guess.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}

		if err := logging.Initialize(cfg.Logging.Options(verbose)); err != nil {
			return err
		}
		logger = logging.Get(logging.CategoryCLI)
		logging.Boot("config loaded",
			zap.String("path", configPath),
			zap.String("command", cmd.CommandPath()),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file (missing file = defaults)")
	rootCmd.PersistentFlags().BoolVar(&showStatus, "status", false, "Print convergence status under each solution")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Do not record runs in the history database")

	// Initial guess flags
	for _, c := range []*cobra.Command{solveCmd, fsolveCmd, rootMethodCmd, compareCmd, evalCmd, watchCmd, reportCmd} {
		registerGuessFlags(c)
	}

	solveCmd.Flags().StringVarP(&solveStrategy, "strategy", "s", string(solver.Root), "Strategy: fsolve or root")

	reportCmd.Flags().BoolVar(&reportRaw, "raw", false, "Print the Markdown source instead of rendering it")
	reportCmd.Flags().StringVar(&reportStyle, "style", "auto", "Render style: auto, dark, light, notty, ascii")
	reportCmd.Flags().IntVar(&reportWidth, "width", 100, "Word-wrap width")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show (0 = all)")
	historyCmd.AddCommand(historyShowCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")

	// Add commands to root
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(fsolveCmd)
	rootCmd.AddCommand(rootMethodCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newSolver builds a solver from the loaded config.
func newSolver() (*solver.Solver, error) {
	constants, err := cfg.ToConstants()
	if err != nil {
		return nil, err
	}
	m, err := model.New(constants)
	if err != nil {
		return nil, err
	}
	return solver.New(m, cfg.SolverSettings())
}

// openHistory returns the run store, or nil when history is disabled.
func openHistory() (*store.RunStore, error) {
	if noHistory || !cfg.Store.Enabled {
		return nil, nil
	}
	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return s, nil
}

// recordRuns stores results when history is enabled. The results are already
// printed by then, so a store failure is logged and never fails the command.
func recordRuns(ctx context.Context, results ...solver.Result) {
	s, err := openHistory()
	if err != nil {
		logger.Warn("run history unavailable", zap.Error(err))
		return
	}
	if s == nil {
		return
	}
	defer s.Close()

	for _, r := range results {
		run, err := s.Record(ctx, store.NewRun(r))
		if err != nil {
			logger.Warn("failed to record run", zap.String("strategy", string(r.Strategy)), zap.Error(err))
			return
		}
		logger.Debug("run recorded", zap.String("id", run.ID), zap.String("strategy", run.Strategy))
	}
}
