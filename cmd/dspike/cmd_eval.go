package main

import (
	"fmt"

	"dspike/internal/model"

	"github.com/spf13/cobra"
)

// evalCmd prints the residuals and Jacobian at a point without solving.
var evalCmd = &cobra.Command{
	Use:   "eval [phi_ref,beta_sple,beta_mix]",
	Short: "Evaluate the residuals and Jacobian at a point",
	Long: `Evaluate the three residuals and the analytic Jacobian at a point.

The point is either the positional triple "phi_ref,beta_sple,beta_mix" or
the -p/-b/-m flags.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		constants, err := cfg.ToConstants()
		if err != nil {
			return err
		}
		m, err := model.New(constants)
		if err != nil {
			return err
		}

		x := initialGuess(cmd)
		if len(args) == 1 {
			if x, err = model.ParseVectorString(args[0]); err != nil {
				return fmt.Errorf("invalid point: %w", err)
			}
		}

		f, j := m.At(x)
		newPrinter(cmd.OutOrStdout()).evaluation(constants, x, f, j)
		return nil
	},
}
