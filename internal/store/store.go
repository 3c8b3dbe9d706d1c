// Package store provides persistence for the task journal.
//
// Keys follow the convention "/{kind}/{name}". Task names are UUIDv7
// strings, so lexical key order is also chronological order.
package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	v1alpha1 "github.com/klubi/reagent/pkg/apis/v1alpha1"
)

// Store is the persistence interface for journal tasks.
type Store interface {
	// Create stores a new task.
	// Returns ErrAlreadyExists if a task with the same name exists.
	Create(task *v1alpha1.Task) error

	// Get retrieves the task with the given name.
	// Returns ErrNotFound if it does not exist.
	Get(name string) (*v1alpha1.Task, error)

	// Update replaces a stored task.
	// Returns ErrNotFound if it does not exist.
	Update(task *v1alpha1.Task) error

	// Delete removes the task with the given name.
	// Returns ErrNotFound if it does not exist.
	Delete(name string) error

	// List returns tasks in chronological order. An empty session
	// returns tasks from every session.
	List(session string) ([]*v1alpha1.Task, error)

	// Close releases any resources held by the store (e.g. BoltDB file handle).
	Close() error
}

// Common sentinel errors.
var (
	ErrAlreadyExists = fmt.Errorf("task already exists")
	ErrNotFound      = fmt.Errorf("task not found")
	ErrAmbiguous     = fmt.Errorf("task name prefix is ambiguous")
)

// TaskKey builds the canonical store key for a task.
//
//	TaskKey("0192f5e1-...")
//	=> "/Task/0192f5e1-..."
func TaskKey(name string) string {
	return fmt.Sprintf("/%s/%s", v1alpha1.KindTask, name)
}

// Resolve finds the single task whose name starts with prefix.
// An exact match always wins.
func Resolve(s Store, prefix string) (*v1alpha1.Task, error) {
	if prefix == "" {
		return nil, ErrNotFound
	}
	if task, err := s.Get(prefix); err == nil {
		return task, nil
	}

	all, err := s.List("")
	if err != nil {
		return nil, err
	}
	var match *v1alpha1.Task
	for _, t := range all {
		if !strings.HasPrefix(t.Metadata.Name, prefix) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: %q", ErrAmbiguous, prefix)
		}
		match = t
	}
	if match == nil {
		return nil, ErrNotFound
	}
	return match, nil
}

// sortTasks orders tasks by name, which for UUIDv7 names is creation order.
func sortTasks(tasks []*v1alpha1.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].Metadata.Name < tasks[j].Metadata.Name
	})
}

func decodeTask(raw []byte) (*v1alpha1.Task, error) {
	var task v1alpha1.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// inSession reports whether task belongs to session; the empty session
// matches every task.
func inSession(task *v1alpha1.Task, session string) bool {
	return session == "" || task.Metadata.Session == session
}
