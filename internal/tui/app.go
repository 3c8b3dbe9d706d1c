// Package tui provides a terminal UI for browsing the reagent task journal.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/klubi/reagent/internal/store"
	v1alpha1 "github.com/klubi/reagent/pkg/apis/v1alpha1"
)

const confirmPage = "confirm"

// view is a phase filter selected with the number keys. The empty phase
// shows every task.
type view struct {
	key   rune
	name  string
	phase v1alpha1.TaskPhase
}

var views = []view{
	{'1', "All", ""},
	{'2', "Succeeded", v1alpha1.TaskSucceeded},
	{'3', "Failed", v1alpha1.TaskFailed},
	{'4', "Cancelled", v1alpha1.TaskCancelled},
}

// App is the journal browser: a task table with an optional side panel
// showing the highlighted task's steps.
type App struct {
	app    *tview.Application
	pages  *tview.Pages
	root   *tview.Flex // title bar, body, hint bar
	body   *tview.Flex // task table and steps panel
	title  *tview.TextView
	hints  *tview.TextView
	tasks  *tview.Table
	steps  *tview.TextView
	search *tview.InputField

	journal store.Store
	logger  *zap.Logger

	mu      sync.Mutex
	current int // index into views
	query   string
	cache   []*v1alpha1.Task // oldest first
	loadErr error

	stepsShown  bool
	searchShown bool
}

// NewApp creates a journal browser reading from journal.
func NewApp(journal store.Store, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		app:     tview.NewApplication(),
		journal: journal,
		logger:  logger,
		title:   newBar(),
		hints:   newBar(),
	}

	a.tasks = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0).
		SetSeparator(tview.Borders.Vertical)
	a.tasks.SetBorderPadding(0, 0, 1, 1)

	a.steps = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	a.steps.SetBorder(true).
		SetTitle(" Task ").
		SetBorderColor(tcell.ColorDodgerBlue)

	a.search = tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldWidth(40).
		SetFieldBackgroundColor(tcell.ColorBlack).
		SetLabelColor(tcell.ColorYellow)
	a.search.SetDoneFunc(a.searchDone)

	a.body = tview.NewFlex().AddItem(a.tasks, 0, 1, true)
	a.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.title, 1, 0, false).
		AddItem(a.body, 0, 1, true).
		AddItem(a.hints, 1, 0, false)
	a.pages = tview.NewPages().AddPage("journal", a.root, true, true)

	a.showTitle()
	a.showHints()
	a.app.SetInputCapture(a.handleKey)
	a.app.SetRoot(a.pages, true).SetFocus(a.tasks)

	return a
}

func newBar() *tview.TextView {
	bar := tview.NewTextView().SetDynamicColors(true)
	bar.SetBackgroundColor(tcell.ColorDarkBlue)
	return bar
}

// Run loads the journal and runs the TUI event loop.
func (a *App) Run() error {
	a.reload()
	return a.app.Run()
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if a.searchShown || a.pages.HasPage(confirmPage) {
		return event
	}

	switch event.Key() {
	case tcell.KeyEnter:
		a.openSteps()
		return nil
	case tcell.KeyEscape:
		switch {
		case a.stepsShown:
			a.closeSteps()
		case a.searchQuery() != "":
			a.setQuery("")
			a.redraw()
		}
		return nil
	case tcell.KeyRune:
	default:
		return event
	}

	r := event.Rune()
	for i, v := range views {
		if r == v.key {
			a.mu.Lock()
			a.current = i
			a.mu.Unlock()
			a.redraw()
			return nil
		}
	}
	switch r {
	case '/':
		a.openSearch()
	case 'q':
		a.app.Stop()
	case 'r':
		a.reload()
	case 'd':
		a.confirmDelete()
	case 'j':
		a.moveSelection(1)
	case 'k':
		a.moveSelection(-1)
	default:
		return event
	}
	return nil
}

// moveSelection steps the highlighted row, staying below the header.
func (a *App) moveSelection(delta int) {
	row, _ := a.tasks.GetSelection()
	row += delta
	if row >= 1 && row < a.tasks.GetRowCount() {
		a.tasks.Select(row, 0)
	}
}

func (a *App) setQuery(q string) {
	a.mu.Lock()
	a.query = q
	a.mu.Unlock()
}

func (a *App) searchQuery() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.query
}

// reload reads every task from the journal and redraws.
func (a *App) reload() {
	tasks, err := a.journal.List("")
	if err != nil {
		a.logger.Warn("listing journal failed", zap.Error(err))
	}
	a.mu.Lock()
	a.cache, a.loadErr = tasks, err
	a.mu.Unlock()
	a.redraw()
}

func (a *App) redraw() {
	a.showTitle()
	a.fillTable()
}

// visible returns the cached tasks matching the current view and search
// query, newest first.
func (a *App) visible() []*v1alpha1.Task {
	a.mu.Lock()
	defer a.mu.Unlock()
	return selectTasks(a.cache, views[a.current].phase, a.query)
}

// highlighted returns the task on the selected row, if any.
func (a *App) highlighted() *v1alpha1.Task {
	row, _ := a.tasks.GetSelection()
	if row < 1 || row >= a.tasks.GetRowCount() {
		return nil
	}
	t, _ := a.tasks.GetCell(row, 0).GetReference().(*v1alpha1.Task)
	return t
}

func (a *App) openSteps() {
	t := a.highlighted()
	if t == nil {
		return
	}
	a.steps.SetText(formatTaskDetail(t)).ScrollToBeginning()
	if !a.stepsShown {
		a.body.AddItem(a.steps, 0, 1, false)
		a.stepsShown = true
	}
}

func (a *App) closeSteps() {
	if !a.stepsShown {
		return
	}
	a.body.RemoveItem(a.steps)
	a.stepsShown = false
	a.app.SetFocus(a.tasks)
}

func (a *App) openSearch() {
	if a.searchShown {
		return
	}
	a.searchShown = true
	a.search.SetText(a.searchQuery())
	a.root.RemoveItem(a.hints)
	a.root.AddItem(a.search, 1, 0, true)
	a.app.SetFocus(a.search)
}

func (a *App) searchDone(key tcell.Key) {
	switch key {
	case tcell.KeyEnter:
		a.setQuery(a.search.GetText())
	case tcell.KeyEscape:
		a.search.SetText("")
		a.setQuery("")
	default:
		return
	}
	a.searchShown = false
	a.root.RemoveItem(a.search)
	a.root.AddItem(a.hints, 1, 0, false)
	a.app.SetFocus(a.tasks)
	a.redraw()
}

func (a *App) confirmDelete() {
	t := a.highlighted()
	if t == nil {
		return
	}
	name := t.Metadata.Name

	modal := tview.NewModal().
		SetText(fmt.Sprintf("Delete task %s?", name)).
		AddButtons([]string{"Delete", "Cancel"}).
		SetDoneFunc(func(_ int, label string) {
			a.pages.RemovePage(confirmPage)
			a.app.SetFocus(a.tasks)
			if label == "Delete" {
				a.deleteTask(name)
			}
		})
	modal.SetBackgroundColor(tcell.ColorDarkRed)

	a.pages.AddPage(confirmPage, modal, true, true)
	a.app.SetFocus(modal)
}

func (a *App) deleteTask(name string) {
	if err := a.journal.Delete(name); err != nil {
		a.logger.Warn("deleting task failed", zap.String("task", name), zap.Error(err))
		a.hints.SetText(fmt.Sprintf(" [red]Delete failed: %v[-]", err))
		time.AfterFunc(3*time.Second, func() {
			a.app.QueueUpdateDraw(a.showHints)
		})
		return
	}
	a.logger.Info("task deleted", zap.String("task", name))
	a.closeSteps()
	a.reload()
}

func (a *App) showTitle() {
	a.mu.Lock()
	current, query := a.current, a.query
	a.mu.Unlock()

	tabs := make([]string, len(views))
	for i, v := range views {
		if i == current {
			tabs[i] = fmt.Sprintf("[::b]<%c>[%s][::-]", v.key, v.name)
		} else {
			tabs[i] = fmt.Sprintf("<%c>%s", v.key, v.name)
		}
	}

	text := " [::b]reagent journal[::-] | " + strings.Join(tabs, "  ")
	if query != "" {
		text += fmt.Sprintf(" | [yellow]search: %s[-]", tview.Escape(query))
	}
	a.title.SetText(text)
}

func (a *App) showHints() {
	a.hints.SetText(" [yellow]<enter>[white]Steps  [yellow]<d>[white]Delete  [yellow]</>[white]Search  [yellow]<r>[white]Reload  [yellow]<esc>[white]Back  [yellow]<q>[white]Quit")
}
