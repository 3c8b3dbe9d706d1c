package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	v1alpha1 "github.com/klubi/reagent/pkg/apis/v1alpha1"
)

var tableHeaders = []string{"NAME", "PHASE", "RETRIES", "STEPS", "AGE", "QUESTION"}

func (a *App) fillTable() {
	a.tasks.Clear()

	a.mu.Lock()
	err := a.loadErr
	a.mu.Unlock()
	if err != nil {
		setHeaders(a.tasks, "ERROR")
		a.tasks.SetCell(1, 0, tview.NewTableCell("Error: "+err.Error()).SetTextColor(tcell.ColorRed))
		return
	}

	setHeaders(a.tasks, tableHeaders...)
	for i, t := range a.visible() {
		phase := string(t.Status.Phase)
		cells := []*tview.TableCell{
			tview.NewTableCell(t.Metadata.Name).SetReference(t),
			tview.NewTableCell(phase).SetTextColor(phaseColor(phase)),
			tview.NewTableCell(fmt.Sprint(t.Status.Retries)),
			tview.NewTableCell(fmt.Sprint(len(t.Status.Steps))),
			tview.NewTableCell(formatAge(t.Metadata.CreatedAt)),
			tview.NewTableCell(oneLine(t.Spec.Question, 60)).SetExpansion(1),
		}
		for col, c := range cells {
			a.tasks.SetCell(i+1, col, c)
		}
	}
	if a.tasks.GetRowCount() > 1 {
		a.tasks.Select(1, 0)
	}
}

func setHeaders(table *tview.Table, headers ...string) {
	for col, h := range headers {
		table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorWhite).
			SetBackgroundColor(tcell.ColorDarkCyan).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}
}

// selectTasks filters tasks by phase and a case-insensitive query over
// name, session, question, answer and error. The result is newest first.
func selectTasks(tasks []*v1alpha1.Task, phase v1alpha1.TaskPhase, query string) []*v1alpha1.Task {
	query = strings.ToLower(query)
	out := make([]*v1alpha1.Task, 0, len(tasks))
	for i := len(tasks) - 1; i >= 0; i-- {
		t := tasks[i]
		if phase != "" && t.Status.Phase != phase {
			continue
		}
		if query != "" && !containsAny(query, t.Metadata.Name, t.Metadata.Session, t.Spec.Question, t.Status.Answer, t.Status.Error) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func containsAny(query string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// formatTaskDetail renders a task with tview color tags. Free text is
// escaped so brackets in model output are not read as tags.
func formatTaskDetail(t *v1alpha1.Task) string {
	var b strings.Builder
	field := func(label, value string) {
		fmt.Fprintf(&b, "[::b]%-10s[-::-] %s\n", label+":", value)
	}

	phase := string(t.Status.Phase)
	field("Name", t.Metadata.Name)
	field("Session", t.Metadata.Session)
	field("Phase", fmt.Sprintf("[%s]%s[-]", phaseColorName(phase), phase))
	field("Model", t.Spec.Model)
	field("Project", tview.Escape(t.Spec.ProjectDir))
	field("Retries", fmt.Sprint(t.Status.Retries))
	field("Created", t.Metadata.CreatedAt.Format(time.RFC3339))
	if d := t.Duration(); d > 0 {
		field("Duration", d.Round(time.Millisecond).String())
	}
	fmt.Fprintf(&b, "\n[::b]Question:[-::-]\n%s\n", tview.Escape(t.Spec.Question))

	if len(t.Status.Steps) > 0 {
		b.WriteString("\n[::b]Steps:[-::-]\n")
		for _, s := range t.Status.Steps {
			b.WriteString(formatStep(s))
		}
	}
	if t.Status.Answer != "" {
		fmt.Fprintf(&b, "\n[green::b]Answer:[-::-]\n%s\n", tview.Escape(t.Status.Answer))
	}
	if t.Status.Error != "" {
		fmt.Fprintf(&b, "\n[red::b]Error:[-::-]\n[red]%s[-]\n", tview.Escape(t.Status.Error))
	}
	return b.String()
}

func formatStep(s v1alpha1.Step) string {
	var color, text string
	switch s.Kind {
	case v1alpha1.StepAction:
		args := make([]string, len(s.Args))
		for i, arg := range s.Args {
			args[i] = fmt.Sprintf("%q", oneLine(arg, 40))
		}
		color, text = "yellow", fmt.Sprintf("%s(%s)", s.Tool, strings.Join(args, ", "))
	case v1alpha1.StepObservation:
		color, text = "blue", oneLine(s.Content, 200)
	case v1alpha1.StepRetry:
		color, text = "red", s.Content
	case v1alpha1.StepFinalAnswer:
		color = "green"
	default:
		color, text = "aqua", s.Content
	}
	return fmt.Sprintf("[gray]%s[-] [%s]%-11s[-] %s\n", s.At.Format("15:04:05"), color, s.Kind, tview.Escape(text))
}

// formatAge returns a human-readable duration string since the given time.
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
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

// oneLine collapses whitespace and cuts s to maxLen runes.
func oneLine(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

var phaseColors = map[string]string{
	string(v1alpha1.TaskSucceeded): "green",
	string(v1alpha1.TaskRunning):   "yellow",
	string(v1alpha1.TaskFailed):    "red",
	string(v1alpha1.TaskCancelled): "gray",
}

func phaseColorName(phase string) string {
	if c, ok := phaseColors[phase]; ok {
		return c
	}
	return "white"
}

func phaseColor(phase string) tcell.Color {
	return tcell.GetColor(phaseColorName(phase))
}
