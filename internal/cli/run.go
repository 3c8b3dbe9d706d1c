package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klubi/reagent/pkg/manifest"
)

func newRunCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "run <project-dir> [-f tasks.yaml | -- <task>]",
		Short: "Run one task, or a file of tasks, and exit",
		Long: `Run a single task given after "--", or every Task document in a YAML
file in order. Tasks in one invocation share a conversation, so later
tasks can refer to earlier answers. A failed task stops the batch.`,
		Example: `  reagent run ./myproject -- "Write a hello world program in Go"
  reagent run --yes ./myproject -f tasks.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			type job struct{ name, question string }
			var jobs []job

			if file != "" {
				if len(args) > 1 {
					return fmt.Errorf("give either -f or a task after \"--\", not both")
				}
				tasks, err := manifest.ParseFile(file)
				if err != nil {
					return err
				}
				for i, t := range tasks {
					jobs = append(jobs, job{manifest.DisplayName(t, i), t.Spec.Question})
				}
				if len(jobs) == 0 {
					return fmt.Errorf("no tasks found in %s", file)
				}
			} else {
				question := strings.TrimSpace(strings.Join(args[1:], " "))
				if question == "" {
					return fmt.Errorf("task required: reagent run <project-dir> -- \"your task here\"")
				}
				jobs = append(jobs, job{"task", question})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			in := bufio.NewReader(os.Stdin)
			s, err := openSession(args[0], in, os.Stdout)
			if err != nil {
				return err
			}
			defer s.Close()

			for i, j := range jobs {
				if len(jobs) > 1 {
					color.New(color.FgCyan, color.Bold).Printf("\n[%d/%d] %s\n", i+1, len(jobs), j.name)
				}
				if !runTask(ctx, s, j.question, os.Stdout) {
					return fmt.Errorf("%s failed", j.name)
				}
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with Task documents")

	return cmd
}
