package main

import (
	"fmt"

	"dspike/internal/store"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded solver runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := historyStore()
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		newPrinter(cmd.OutOrStdout()).runs(runs)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := historyStore()
		if err != nil {
			return err
		}
		defer s.Close()

		run, err := s.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		newPrinter(cmd.OutOrStdout()).run(run)
		return nil
	},
}

// historyStore opens the store for reading even when --no-history is set.
func historyStore() (*store.RunStore, error) {
	if !cfg.Store.Enabled {
		return nil, fmt.Errorf("run history is disabled (store.enabled: false)")
	}
	return store.Open(cfg.Store.Path)
}
