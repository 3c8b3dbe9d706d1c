// Package tools implements the capabilities the agent can invoke: a flat
// Tool interface, a name-keyed Registry, and the built-in file and shell
// tools bound to a project directory.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Tool is a named capability the model can call with string arguments.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args []string) (string, error)
}

// CancelledResult is returned (as a result, not an error) when the
// operator declines a confirmation prompt.
const CancelledResult = "operation cancelled by operator"

// ErrInvalidArguments reports a call with the wrong number of arguments.
var ErrInvalidArguments = errors.New("invalid arguments")

// requireArgs checks the exact argument count for a tool.
func requireArgs(tool string, args []string, n int, what string) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s takes %s, got %d argument(s)", ErrInvalidArguments, tool, what, len(args))
	}
	return nil
}

// Registry maps tool names to tools. It is filled once at startup and only
// read afterwards, so lookups need no locking.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any tool with the same name.
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name()] = tool
}

// Get returns the named tool, or false if none is registered.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Describe renders the tool list for the system prompt, one
// "- name: description" line per tool.
func (r *Registry) Describe() string {
	lines := make([]string, 0, len(r.tools))
	for _, name := range r.Names() {
		lines = append(lines, fmt.Sprintf("- %s: %s", name, r.tools[name].Description()))
	}
	return strings.Join(lines, "\n")
}
