package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// waitDelay bounds how long Execute waits for output after the command
// was killed.
const waitDelay = time.Second

// ShellTool runs a command line through the platform shell in the project
// directory. Confirmation happens in the agent loop before Execute is
// reached.
type ShellTool struct {
	workingDir     string
	timeout        time.Duration
	maxOutputBytes int
}

// ShellConfig configures the shell tool.
type ShellConfig struct {
	WorkingDir     string
	Timeout        time.Duration
	MaxOutputBytes int
}

// NewShellTool creates a shell tool, filling zero values with defaults.
func NewShellTool(cfg ShellConfig) *ShellTool {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxOutputBytes == 0 {
		cfg.MaxOutputBytes = 100 * 1024
	}
	return &ShellTool{
		workingDir:     cfg.WorkingDir,
		timeout:        cfg.Timeout,
		maxOutputBytes: cfg.MaxOutputBytes,
	}
}

func (t *ShellTool) Name() string        { return "run_terminal_command" }
func (t *ShellTool) Description() string { return "Run a terminal command in the project directory and return its output." }

// Execute runs args[0]; further arguments are ignored. A non-zero exit is
// a failure carrying stderr.
func (t *ShellTool) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("%w: %s takes a command line", ErrInvalidArguments, t.Name())
	}
	command := args[0]

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := shellCommand(ctx, command)
	cmd.Dir = t.workingDir
	// Background children inherit the output pipes; on timeout the whole
	// process group is killed and the pipes are closed after waitDelay.
	killProcessGroupOnCancel(cmd)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("command timed out after %v: %s", t.timeout, command)
	}
	// The shell exited cleanly but a background child kept the output
	// pipes open past waitDelay.
	if errors.Is(err, exec.ErrWaitDelay) {
		err = nil
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("command failed: %s", t.truncate(msg))
	}

	return "command succeeded:\n" + t.truncate(stdout.String()), nil
}

func (t *ShellTool) truncate(s string) string {
	if len(s) <= t.maxOutputBytes {
		return s
	}
	cut := t.maxOutputBytes
	// Back up to a rune boundary.
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + fmt.Sprintf("\n[... output truncated, %d bytes omitted ...]", len(s)-cut)
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}
