package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/klubi/reagent/internal/agent"
	"github.com/klubi/reagent/internal/config"
	"github.com/klubi/reagent/internal/llm"
	"github.com/klubi/reagent/internal/store"
	"github.com/klubi/reagent/internal/tools"
)

// session bundles the collaborators a task-running command needs.
type session struct {
	runtime *agent.Runtime
	journal store.Store
	console *consoleObserver
}

func (s *session) Close() error {
	return s.journal.Close()
}

// openSession validates the project directory and wires the model
// client, tools, agent and journal from the loaded configuration.
// Confirmation prompts read from in, the same reader the caller uses for
// its own input.
func openSession(projectDir string, in *bufio.Reader, out io.Writer) (*session, error) {
	if err := checkProjectDir(projectDir); err != nil {
		return nil, err
	}
	if err := cfg.RequireModel(); err != nil {
		var missing *config.MissingValueError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%w (set it in the environment, a .env file, or %s)", err, config.DefaultPath())
		}
		return nil, err
	}

	var confirm tools.Confirmer = tools.NewConsoleConfirmer(in, out)
	if autoYes {
		confirm = tools.AutoConfirm(true)
	}

	journal, err := openJournal(false)
	if err != nil {
		return nil, err
	}

	client := llm.NewOpenAIClient(cfg.Model.APIBase, cfg.Model.APIKey, logger)
	s, err := newSession(projectDir, client, journal, confirm, out, cfg, logger)
	if err != nil {
		journal.Close()
		return nil, err
	}
	return s, nil
}

// newSession builds a session from explicit collaborators.
func newSession(projectDir string, client llm.Client, journal store.Store, confirm tools.Confirmer, out io.Writer, c *config.Config, l *zap.Logger) (*session, error) {
	registry, err := tools.NewDefaultRegistry(projectDir, confirm, tools.Options{
		ShellTimeout:   c.Agent.ShellTimeout,
		MaxOutputBytes: c.Agent.MaxOutputBytes,
	})
	if err != nil {
		return nil, err
	}

	prompt, err := agent.LoadPromptRenderer(c.Agent.PromptTemplate)
	if err != nil {
		return nil, err
	}

	a, err := agent.New(client, registry, l, agent.Options{
		Model:       c.Model.Name,
		ProjectDir:  projectDir,
		MaxRetries:  c.Agent.MaxRetries,
		Stream:      c.Agent.Stream,
		SettleDelay: c.Agent.SettleDelay,
		Prompt:      prompt,
		Confirm:     confirm,
	})
	if err != nil {
		return nil, err
	}

	rt, err := agent.NewRuntime(a, journal, l)
	if err != nil {
		return nil, err
	}
	return &session{
		runtime: rt,
		journal: journal,
		console: newConsoleObserver(out),
	}, nil
}

// checkProjectDir rejects paths that do not name an existing directory.
func checkProjectDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("project directory %s does not exist", dir)
		}
		return fmt.Errorf("checking project directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// openJournal opens the BoltDB journal. When the journal is disabled a
// task-running command gets an in-memory store instead, while commands
// that only read the journal (required) fail.
func openJournal(required bool) (store.Store, error) {
	if noJournal || !cfg.Store.Enabled {
		if required {
			return nil, errors.New("the task journal is disabled (store.enabled=false or --no-journal)")
		}
		return store.NewMemoryStore(), nil
	}

	if err := os.MkdirAll(cfg.Store.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", cfg.Store.DataDir, err)
	}
	s, err := store.NewBoltStore(cfg.JournalPath())
	if err != nil {
		if errors.Is(err, store.ErrLocked) {
			return nil, fmt.Errorf("%w (retry with --no-journal)", err)
		}
		return nil, fmt.Errorf("opening journal at %s: %w", cfg.JournalPath(), err)
	}
	return s, nil
}
