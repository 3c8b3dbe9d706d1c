package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klubi/reagent/internal/tui"
)

func newUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ui",
		Aliases: []string{"browse"},
		Short:   "Browse the task journal in a terminal UI",
		Long:    "Launch a terminal UI listing recorded tasks with their steps, answers and errors.",
		Example: `  reagent ui`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := openJournal(true)
			if err != nil {
				return err
			}
			defer journal.Close()

			app := tui.NewApp(journal, logger)
			if err := app.Run(); err != nil {
				return fmt.Errorf("UI error: %w", err)
			}
			return nil
		},
	}

	return cmd
}
