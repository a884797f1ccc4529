package main

import (
	"fmt"

	"dspike/internal/report"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	reportRaw   bool
	reportStyle string
	reportWidth int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run compare and print a Markdown calibration report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		slv, err := newSolver()
		if err != nil {
			return err
		}
		c, err := slv.Compare(cmd.Context(), initialGuess(cmd))
		if err != nil {
			return err
		}
		recordRuns(cmd.Context(), c.FSolve, c.Root)

		md := report.Markdown(slv.Model().Constants(), c)
		if reportRaw {
			_, err := fmt.Fprint(cmd.OutOrStdout(), md)
			return err
		}

		styleOpt := glamour.WithStandardStyle(reportStyle)
		if reportStyle == "auto" {
			styleOpt = glamour.WithAutoStyle()
		}
		renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(reportWidth))
		if err != nil {
			return fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		out, err := renderer.Render(md)
		if err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}
