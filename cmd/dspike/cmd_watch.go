package main

import (
	"fmt"

	"dspike/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchCmd re-runs compare every time the config file is saved, so a new
// calibration can be checked without leaving the editor.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run compare whenever the config file changes",
	Long: `Run compare once, then again every time the config file is saved.

Invalid edits are reported and the previous configuration stays in effect.
Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		slv, err := newSolver()
		if err != nil {
			return err
		}
		if err := compareAndPrint(cmd, slv, initialGuess(cmd)); err != nil {
			return err
		}

		w, err := config.NewWatcher(configPath)
		if err != nil {
			return err
		}
		defer w.Close()

		out := cmd.OutOrStdout()
		p := newPrinter(out)
		fmt.Fprintf(out, "%s\n", p.dim.Render("Watching "+w.Path()))

		return w.Watch(cmd.Context(),
			func(next *config.Config) {
				cfg = next
				slv, err := newSolver()
				if err != nil {
					logger.Warn("reloaded config rejected", zap.Error(err))
					fmt.Fprintf(out, "%s %v\n", p.warn.Render("config error:"), err)
					return
				}
				p.heading("Config reloaded.")
				if err := compareAndPrint(cmd, slv, initialGuess(cmd)); err != nil {
					fmt.Fprintf(out, "%s %v\n", p.warn.Render("compare failed:"), err)
				}
			},
			func(err error) {
				fmt.Fprintf(out, "%s %v\n", p.warn.Render("config error:"), err)
			},
		)
	},
}
