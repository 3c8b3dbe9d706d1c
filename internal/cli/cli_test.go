package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/klubi/reagent/internal/config"
	"github.com/klubi/reagent/internal/llm"
	"github.com/klubi/reagent/internal/store"
	"github.com/klubi/reagent/internal/tools"
	v1alpha1 "github.com/klubi/reagent/pkg/apis/v1alpha1"
)

// scriptedClient answers blocking calls from a fixed list.
type scriptedClient struct {
	responses []string
	calls     int
}

func (c *scriptedClient) Complete(context.Context, llm.Request) (string, error) {
	if c.calls >= len(c.responses) {
		return "", errors.New("no scripted response left")
	}
	c.calls++
	return c.responses[c.calls-1], nil
}

func (c *scriptedClient) Stream(context.Context, llm.Request) (llm.Stream, error) {
	return nil, errors.New("streaming not scripted")
}

// useTestConfig installs package globals for one test.
func useTestConfig(t *testing.T) {
	t.Helper()
	c := config.DefaultConfig()
	c.Agent.Stream = false
	c.Store.DataDir = t.TempDir()
	prevCfg, prevLogger, prevNoJournal := cfg, logger, noJournal
	cfg, logger, noJournal = c, zap.NewNop(), false
	t.Cleanup(func() { cfg, logger, noJournal = prevCfg, prevLogger, prevNoJournal })
}

func newTestSession(t *testing.T, client llm.Client, input string) (*session, *bufio.Reader, *bytes.Buffer) {
	t.Helper()
	useTestConfig(t)
	in := bufio.NewReader(strings.NewReader(input))
	out := &bytes.Buffer{}
	s, err := newSession(t.TempDir(), client, store.NewMemoryStore(), tools.NewConsoleConfirmer(in, out), out, cfg, logger)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, in, out
}

func TestREPLRunsTasksAndCommands(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"<thought>easy</thought><final_answer>hello there</final_answer>",
	}}
	s, in, out := newTestSession(t, client, "\nsay hello\n/history\n/clear\n/history\nquit\n")

	if err := runREPL(context.Background(), s, in, out); err != nil {
		t.Fatalf("runREPL: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Please enter a task.",
		"Final answer:",
		"hello there",
		"2 message(s) in the conversation.",
		"Conversation cleared.",
		"0 message(s) in the conversation.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if client.calls != 1 {
		t.Errorf("expected 1 model call, got %d", client.calls)
	}

	tasks, err := s.journal.List("")
	if err != nil {
		t.Fatalf("listing journal: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Status.Phase != v1alpha1.TaskSucceeded {
		t.Fatalf("expected one succeeded task in the journal, got %+v", tasks)
	}
}

func TestREPLStopsAtEndOfInput(t *testing.T) {
	s, in, out := newTestSession(t, &scriptedClient{}, "")

	if err := runREPL(context.Background(), s, in, out); err != nil {
		t.Fatalf("runREPL: %v", err)
	}
}

func TestREPLShellConfirmationSharesInput(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`<action>run_terminal_command("rm -rf build")</action>`,
	}}
	s, in, out := newTestSession(t, client, "clean up\nn\nexit\n")

	if err := runREPL(context.Background(), s, in, out); err != nil {
		t.Fatalf("runREPL: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, `Run command "rm -rf build"? (y/N)`) {
		t.Errorf("expected confirmation prompt, got:\n%s", got)
	}
	if !strings.Contains(got, "Operation cancelled.") {
		t.Errorf("expected cancellation notice, got:\n%s", got)
	}
	tasks, _ := s.journal.List("")
	if len(tasks) != 1 || tasks[0].Status.Phase != v1alpha1.TaskCancelled {
		t.Errorf("expected one cancelled task, got %+v", tasks)
	}
}

func TestRunTaskReportsFailure(t *testing.T) {
	client := &scriptedClient{responses: []string{"no tags", "still none", "nope", "no", "never"}}
	s, _, out := newTestSession(t, client, "")

	if runTask(context.Background(), s, "do something", out) {
		t.Fatal("expected the task to fail")
	}
	got := out.String()
	if !strings.Contains(got, "Task failed:") || !strings.Contains(got, "Try rephrasing") {
		t.Errorf("expected failure report with retry hint, got:\n%s", got)
	}
}

func TestCheckProjectDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := checkProjectDir(dir); err != nil {
		t.Errorf("expected directory to be accepted, got %v", err)
	}
	if err := checkProjectDir(file); err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("expected not-a-directory error, got %v", err)
	}
	if err := checkProjectDir(filepath.Join(dir, "missing")); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("expected does-not-exist error, got %v", err)
	}
}

func TestOpenJournal(t *testing.T) {
	useTestConfig(t)

	s, err := openJournal(true)
	if err != nil {
		t.Fatalf("opening journal: %v", err)
	}
	if _, ok := s.(*store.BoltStore); !ok {
		t.Errorf("expected a BoltStore, got %T", s)
	}
	s.Close()
	if _, err := os.Stat(cfg.JournalPath()); err != nil {
		t.Errorf("expected journal file to exist: %v", err)
	}

	noJournal = true
	if _, err := openJournal(true); err == nil {
		t.Error("expected an error when the journal is required but disabled")
	}
	s, err = openJournal(false)
	if err != nil {
		t.Fatalf("opening fallback journal: %v", err)
	}
	if _, ok := s.(*store.MemoryStore); !ok {
		t.Errorf("expected a MemoryStore, got %T", s)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"this is too long", 10, "this is..."},
		{"héllo wörld", 8, "héllo..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestDescribeTools(t *testing.T) {
	registry, err := tools.NewDefaultRegistry(t.TempDir(), tools.AutoConfirm(false), tools.Options{})
	if err != nil {
		t.Fatal(err)
	}
	infos, rows := describeTools(registry)
	if len(infos) != registry.Len() || len(rows) != registry.Len() {
		t.Fatalf("expected %d tools, got %d infos and %d rows", registry.Len(), len(infos), len(rows))
	}
	if infos[0].Name != rows[0][0] {
		t.Errorf("expected rows to follow infos, got %s and %s", infos[0].Name, rows[0][0])
	}
}

func TestWriteOutput(t *testing.T) {
	infos := []toolInfo{{Name: "read_file", Description: "Read a file"}}
	rows := [][]string{{"read_file", "Read a file"}}
	headers := []string{"NAME", "DESCRIPTION"}

	tests := []struct {
		format string
		want   []string
	}{
		{"table", []string{"NAME       DESCRIPTION\n", "read_file  Read a file\n"}},
		{"json", []string{`"name": "read_file"`, `"description": "Read a file"`}},
		{"yaml", []string{"- name: read_file\n", "  description: Read a file\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeOutput(&buf, tt.format, infos, headers, rows); err != nil {
				t.Fatalf("writeOutput: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}
