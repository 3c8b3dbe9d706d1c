package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/klubi/reagent/internal/agent"
)

const replHelp = `Type a task and press Enter. Commands:
  /history   show the conversation kept between tasks
  /clear     forget the conversation
  quit, exit leave`

// runREPL reads tasks line by line until quit, exit or end of input. A
// failed task is reported and the loop continues.
func runREPL(ctx context.Context, s *session, in *bufio.Reader, out io.Writer) error {
	a := s.runtime.Agent()
	color.New(color.FgCyan, color.Bold).Fprintf(out, "reagent working in %s\n", a.ProjectDir())
	fmt.Fprintln(out, replHelp)

	for {
		fmt.Fprint(out, "\nTask> ")
		line, readErr := in.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("reading input: %w", readErr)
		}
		eof := readErr != nil

		input := strings.TrimSpace(line)
		switch {
		case input == "" && eof:
			fmt.Fprintln(out)
			return nil
		case input == "":
			fmt.Fprintln(out, "Please enter a task.")
			continue
		case input == "quit" || input == "exit":
			return nil
		case input == "/clear":
			a.ClearHistory()
			fmt.Fprintln(out, "Conversation cleared.")
		case input == "/history":
			printHistory(out, a)
		default:
			runTask(ctx, s, input, out)
		}

		if eof {
			return nil
		}
	}
}

// runTask executes one task and reports its outcome.
func runTask(ctx context.Context, s *session, question string, out io.Writer) bool {
	result, _, err := s.runtime.ExecuteTask(ctx, question, s.console)
	switch {
	case err != nil && result != nil:
		// The answer was shown; only the journal write failed.
		color.New(color.FgYellow).Fprintf(out, "Warning: %v\n", err)
	case err != nil:
		fmt.Fprintln(out)
		color.New(color.FgRed, color.Bold).Fprintf(out, "Task failed: %v\n", err)
		if agent.IsRetryLimit(err) {
			fmt.Fprintln(out, "The model kept answering without a usable action. Try rephrasing the task.")
		}
		return false
	case result.Cancelled:
		color.New(color.FgYellow).Fprintln(out, "Operation cancelled.")
	}
	return true
}

func printHistory(out io.Writer, a *agent.Agent) {
	history := a.History()
	fmt.Fprintf(out, "%d message(s) in the conversation.\n", len(history))
	for i, m := range history {
		fmt.Fprintf(out, "%3d %-9s %s\n", i+1, m.Role, truncate(strings.ReplaceAll(m.Content, "\n", " "), 100))
	}
}
