package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klubi/reagent/internal/store"
)

func newDeleteCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:     "delete [task...]",
		Aliases: []string{"rm"},
		Short:   "Delete tasks from the journal",
		Long: `Delete tasks by name or unique name prefix, or every task of one
session with --session.`,
		Example: `  reagent delete 0192f5e1-7a4c
  reagent delete --session 0192f5e1-7a4c-7b21-9d1e-3f6a2c8b4d10`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && session == "" {
				return fmt.Errorf("name a task or give --session")
			}

			journal, err := openJournal(true)
			if err != nil {
				return err
			}
			defer journal.Close()

			var names []string
			for _, arg := range args {
				task, err := store.Resolve(journal, arg)
				if err != nil {
					return fmt.Errorf("task %q: %w", arg, err)
				}
				names = append(names, task.Metadata.Name)
			}
			if session != "" {
				tasks, err := journal.List(session)
				if err != nil {
					return err
				}
				for _, t := range tasks {
					names = append(names, t.Metadata.Name)
				}
			}

			for _, name := range names {
				if err := journal.Delete(name); err != nil {
					return fmt.Errorf("deleting task %s: %w", name, err)
				}
				fmt.Printf("task/%s deleted\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Delete every task of this session")

	return cmd
}
