package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/klubi/reagent/internal/agent"
)

// observationPreview caps how much of a tool result is echoed.
const observationPreview = 2000

// consoleObserver prints task progress for the operator. Raw model text
// is shown dimmed; parsed events are labelled and colored.
type consoleObserver struct {
	out io.Writer

	raw     *color.Color
	thought *color.Color
	action  *color.Color
	observe *color.Color
	warn    *color.Color
	answer  *color.Color
}

func newConsoleObserver(out io.Writer) *consoleObserver {
	return &consoleObserver{
		out:     out,
		raw:     color.New(color.Faint),
		thought: color.New(color.FgCyan, color.Bold),
		action:  color.New(color.FgYellow, color.Bold),
		observe: color.New(color.FgBlue, color.Bold),
		warn:    color.New(color.FgYellow),
		answer:  color.New(color.FgGreen, color.Bold),
	}
}

func (c *consoleObserver) OnDelta(text string) {
	c.raw.Fprint(c.out, text)
}

func (c *consoleObserver) OnThought(thought string) {
	fmt.Fprintln(c.out)
	c.thought.Fprint(c.out, "\nThought: ")
	fmt.Fprintln(c.out, thought)
}

func (c *consoleObserver) OnAction(call agent.Call) {
	quoted := make([]string, len(call.Args))
	for i, a := range call.Args {
		quoted[i] = fmt.Sprintf("%q", truncate(a, 80))
	}
	c.action.Fprint(c.out, "Action: ")
	fmt.Fprintf(c.out, "%s(%s)\n", call.Tool, strings.Join(quoted, ", "))
}

func (c *consoleObserver) OnObservation(tool, observation string) {
	c.observe.Fprint(c.out, "Observation: ")
	fmt.Fprintln(c.out, truncate(observation, observationPreview))
}

func (c *consoleObserver) OnRetry(attempt, limit int, reason error) {
	fmt.Fprintln(c.out)
	c.warn.Fprintf(c.out, "Incomplete model output, asking again (retry %d of %d): %v\n", attempt, limit, reason)
}

func (c *consoleObserver) OnFinalAnswer(answer string) {
	fmt.Fprintln(c.out)
	c.answer.Fprintln(c.out, "Final answer:")
	fmt.Fprintln(c.out, answer)
}
