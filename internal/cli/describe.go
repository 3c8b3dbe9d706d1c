package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klubi/reagent/internal/store"
	v1alpha1 "github.com/klubi/reagent/pkg/apis/v1alpha1"
)

const timeLayout = "2006-01-02 15:04:05"

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <task>",
		Short: "Show a recorded task step by step",
		Long: `Print a task from the journal: its question, outcome and every thought,
action, observation and retry in order. Any unique prefix of the task
name is accepted.`,
		Example: `  reagent describe 0192f5e1-7a4c
  reagent describe 0192f5e1 -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := openJournal(true)
			if err != nil {
				return err
			}
			defer journal.Close()

			task, err := store.Resolve(journal, args[0])
			if err != nil {
				return fmt.Errorf("task %q: %w", args[0], err)
			}

			if outputFormat != "table" {
				return printOutput(task, nil, nil)
			}
			describeTask(task)
			return nil
		},
	}

	return cmd
}

func describeTask(task *v1alpha1.Task) {
	bold := color.New(color.Bold)

	bold.Println("Task:")
	printField("  Name", task.Metadata.Name)
	printField("  Session", task.Metadata.Session)
	printField("  Labels", formatLabels(task.Metadata.Labels))
	printField("  Created", task.Metadata.CreatedAt.Format(timeLayout))
	printField("  Updated", task.Metadata.UpdatedAt.Format(timeLayout))

	fmt.Println()
	bold.Println("Spec:")
	printField("  Model", task.Spec.Model)
	printField("  Project Dir", task.Spec.ProjectDir)
	printField("  Question", task.Spec.Question)

	fmt.Println()
	bold.Println("Status:")
	printField("  Phase", colorPhase(task.Status.Phase))
	printField("  Retries", fmt.Sprintf("%d", task.Status.Retries))
	if !task.Status.StartedAt.IsZero() {
		printField("  Started At", task.Status.StartedAt.Format(timeLayout))
	}
	if !task.Status.FinishedAt.IsZero() {
		printField("  Finished At", task.Status.FinishedAt.Format(timeLayout))
		printField("  Duration", formatDuration(task.Duration()))
	}

	if len(task.Status.Steps) > 0 {
		fmt.Println()
		bold.Println("Steps:")
		for i, step := range task.Status.Steps {
			fmt.Printf("  %3d  %s  %s\n", i+1, step.At.Format("15:04:05"), formatStep(step))
		}
	}

	if task.Status.Answer != "" {
		fmt.Println()
		bold.Println("Answer:")
		fmt.Println(task.Status.Answer)
	}
	if task.Status.Error != "" {
		fmt.Println()
		bold.Println("Error:")
		fmt.Println(color.RedString(task.Status.Error))
	}
}

// formatStep renders one journal step on a single line.
func formatStep(step v1alpha1.Step) string {
	label := fmt.Sprintf("%-12s", step.Kind)
	switch step.Kind {
	case v1alpha1.StepAction:
		quoted := make([]string, len(step.Args))
		for i, a := range step.Args {
			quoted[i] = fmt.Sprintf("%q", truncate(a, 40))
		}
		return color.YellowString(label) + fmt.Sprintf("%s(%s)", step.Tool, strings.Join(quoted, ", "))
	case v1alpha1.StepRetry:
		return color.RedString(label) + oneLine(step.Content, 100)
	case v1alpha1.StepFinalAnswer:
		return color.GreenString(label) + oneLine(step.Content, 100)
	default:
		return label + oneLine(step.Content, 100)
	}
}

func oneLine(s string, maxLen int) string {
	return truncate(strings.Join(strings.Fields(s), " "), maxLen)
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return "<none>"
	}
	parts := make([]string, 0, len(labels))
	for k, v := range labels {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	return strings.Join(parts, ", ")
}
