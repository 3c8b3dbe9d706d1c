package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	v1alpha1 "github.com/klubi/reagent/pkg/apis/v1alpha1"
)

func newHistoryCmd() *cobra.Command {
	var (
		session string
		limit   int
	)

	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"tasks", "ls"},
		Short:   "List recorded tasks",
		Long: `List tasks from the journal, oldest first.

The journal is locked while an interactive session is running; run this
from another terminal once the session has ended.`,
		Example: `  reagent history
  reagent history --limit 5
  reagent history --session 0192f5e1-7a4c-7b21-9d1e-3f6a2c8b4d10 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := openJournal(true)
			if err != nil {
				return err
			}
			defer journal.Close()

			tasks, err := journal.List(session)
			if err != nil {
				return err
			}
			if limit > 0 && len(tasks) > limit {
				tasks = tasks[len(tasks)-limit:]
			}
			if len(tasks) == 0 {
				fmt.Println("No tasks found.")
				return nil
			}

			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				rows = append(rows, taskToRow(t))
			}
			return printOutput(tasks, taskHeaders(), rows)
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Only show tasks from this session")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the most recent N tasks")

	return cmd
}

func taskHeaders() []string {
	return []string{"NAME", "PHASE", "RETRIES", "STEPS", "DURATION", "AGE", "QUESTION"}
}

func taskToRow(t *v1alpha1.Task) []string {
	return []string{
		t.Metadata.Name,
		colorPhase(t.Status.Phase),
		strconv.Itoa(t.Status.Retries),
		strconv.Itoa(len(t.Status.Steps)),
		formatDuration(t.Duration()),
		formatAge(t.Metadata.CreatedAt),
		truncate(strings.ReplaceAll(t.Spec.Question, "\n", " "), 50),
	}
}
