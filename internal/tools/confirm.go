package tools

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Confirmer asks the operator a yes/no question. Implementations block
// until an answer is available.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConsoleConfirmer reads answers line by line. Only "y" or "Y" counts as
// yes; end of input counts as no.
type ConsoleConfirmer struct {
	in  *bufio.Reader
	out io.Writer
	mu  sync.Mutex
}

// NewConsoleConfirmer shares in with any other line reader on the same
// stream (the REPL) so buffered input is never lost between the two.
func NewConsoleConfirmer(in *bufio.Reader, out io.Writer) *ConsoleConfirmer {
	return &ConsoleConfirmer{in: in, out: out}
}

func (c *ConsoleConfirmer) Confirm(prompt string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "%s (y/N): ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "y" || strings.TrimSpace(line) == "Y", nil
}

// AutoConfirm answers every prompt with the same value. Used by --yes and
// by tests.
type AutoConfirm bool

func (a AutoConfirm) Confirm(string) (bool, error) {
	return bool(a), nil
}

// ScriptedConfirmer replays fixed answers in order and records the prompts
// it was shown. Once the answers run out it says no.
type ScriptedConfirmer struct {
	Answers []bool
	Prompts []string
}

func (s *ScriptedConfirmer) Confirm(prompt string) (bool, error) {
	s.Prompts = append(s.Prompts, prompt)
	if len(s.Answers) == 0 {
		return false, nil
	}
	ans := s.Answers[0]
	s.Answers = s.Answers[1:]
	return ans, nil
}
