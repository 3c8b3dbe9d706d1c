package store

import (
	"encoding/json"
	"sync"

	v1alpha1 "github.com/klubi/reagent/pkg/apis/v1alpha1"
)

// MemoryStore keeps encoded tasks in a map. It backs sessions run with the
// journal disabled, and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string][]byte)}
}

func (m *MemoryStore) Create(task *v1alpha1.Task) error {
	return m.put(task, false)
}

func (m *MemoryStore) Update(task *v1alpha1.Task) error {
	return m.put(task, true)
}

// put stores a copy of task. exists states whether the key must already
// be present (update) or absent (create).
func (m *MemoryStore) put(task *v1alpha1.Task, exists bool) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := TaskKey(task.Metadata.Name)
	_, found := m.tasks[key]
	switch {
	case exists && !found:
		return ErrNotFound
	case !exists && found:
		return ErrAlreadyExists
	}
	m.tasks[key] = raw
	return nil
}

func (m *MemoryStore) Get(name string) (*v1alpha1.Task, error) {
	m.mu.RLock()
	raw, ok := m.tasks[TaskKey(name)]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return decodeTask(raw)
}

func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := TaskKey(name)
	if _, ok := m.tasks[key]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, key)
	return nil
}

func (m *MemoryStore) List(session string) ([]*v1alpha1.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*v1alpha1.Task, 0, len(m.tasks))
	for _, raw := range m.tasks {
		task, err := decodeTask(raw)
		if err != nil {
			return nil, err
		}
		if inSession(task, session) {
			out = append(out, task)
		}
	}
	sortTasks(out)
	return out, nil
}

// Close drops every task.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.tasks = make(map[string][]byte)
	m.mu.Unlock()
	return nil
}
