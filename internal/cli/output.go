package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	v1alpha1 "github.com/klubi/reagent/pkg/apis/v1alpha1"
)

// outputFormat is set by the root command's -o flag.
// Supported values: "table" (default), "json", "yaml".
var outputFormat string

// printTable writes one tab-aligned line per row under a header line.
func printTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// printOutput writes v as JSON or YAML, or the prepared rows as a table,
// depending on -o.
func printOutput(v interface{}, headers []string, rows [][]string) error {
	return writeOutput(os.Stdout, outputFormat, v, headers, rows)
}

func writeOutput(w io.Writer, format string, v interface{}, headers []string, rows [][]string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	default:
		return printTable(w, headers, rows)
	}
}

// printField prints one "Label:   value" line of a describe view.
func printField(label, value string) {
	if value == "" {
		value = "<none>"
	}
	fmt.Printf("%-20s%s\n", label+":", value)
}

var phaseColors = map[v1alpha1.TaskPhase]color.Attribute{
	v1alpha1.TaskPending:   color.FgWhite,
	v1alpha1.TaskRunning:   color.FgYellow,
	v1alpha1.TaskSucceeded: color.FgGreen,
	v1alpha1.TaskFailed:    color.FgRed,
	v1alpha1.TaskCancelled: color.FgMagenta,
}

func colorPhase(phase v1alpha1.TaskPhase) string {
	if attr, ok := phaseColors[phase]; ok {
		return color.New(attr).Sprint(phase)
	}
	return string(phase)
}

// formatAge returns a human-readable duration string relative to the given
// time, such as "5s", "3m", "2h", "4d". Returns "<unknown>" for zero times.
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "<unknown>"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// truncate shortens s to at most maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// formatDuration rounds d for display; zero means unfinished.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}
