package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	v1alpha1 "github.com/klubi/reagent/pkg/apis/v1alpha1"
)

// newTestTask creates a Task for testing with the given name and session.
func newTestTask(name, session, question string) *v1alpha1.Task {
	return &v1alpha1.Task{
		TypeMeta: v1alpha1.TypeMeta{
			APIVersion: v1alpha1.APIVersion,
			Kind:       v1alpha1.KindTask,
		},
		Metadata: v1alpha1.ObjectMeta{
			Name:      name,
			Session:   session,
			CreatedAt: time.Now(),
		},
		Spec: v1alpha1.TaskSpec{
			Question: question,
		},
		Status: v1alpha1.TaskStatus{
			Phase: v1alpha1.TaskRunning,
		},
	}
}

// forEachStore runs fn against a MemoryStore and a BoltStore in a temp dir.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStore()
		defer s.Close()
		fn(t, s)
	})
	t.Run("bolt", func(t *testing.T) {
		s, err := NewBoltStore(filepath.Join(t.TempDir(), "journal.db"))
		if err != nil {
			t.Fatalf("opening bolt store: %v", err)
		}
		defer s.Close()
		fn(t, s)
	})
}

func TestCreateAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		task := newTestTask("task-1", "sess-a", "list files")
		task.Status.Steps = []v1alpha1.Step{
			{Kind: v1alpha1.StepAction, Tool: "read_file", Args: []string{"notes.txt"}},
		}

		if err := s.Create(task); err != nil {
			t.Fatalf("unexpected error on Create: %v", err)
		}

		got, err := s.Get("task-1")
		if err != nil {
			t.Fatalf("unexpected error on Get after Create: %v", err)
		}
		if got.Spec.Question != "list files" {
			t.Errorf("expected question 'list files', got %q", got.Spec.Question)
		}
		if got.Metadata.Session != "sess-a" {
			t.Errorf("expected session sess-a, got %s", got.Metadata.Session)
		}
		if len(got.Status.Steps) != 1 {
			t.Fatalf("expected 1 step, got %d", len(got.Status.Steps))
		}
		if got.Status.Steps[0].Tool != "read_file" {
			t.Errorf("expected step tool read_file, got %s", got.Status.Steps[0].Tool)
		}
	})
}

func TestCreateDuplicate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		task := newTestTask("dup", "sess-a", "q")
		if err := s.Create(task); err != nil {
			t.Fatalf("unexpected error on first Create: %v", err)
		}

		// Creating the same name again must return ErrAlreadyExists.
		if err := s.Create(task); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestGetNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUpdate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		task := newTestTask("upd", "sess-a", "q")
		if err := s.Create(task); err != nil {
			t.Fatalf("unexpected error on Create: %v", err)
		}

		task.Status.Phase = v1alpha1.TaskSucceeded
		task.Status.Answer = "Done"
		if err := s.Update(task); err != nil {
			t.Fatalf("unexpected error on Update: %v", err)
		}

		got, err := s.Get("upd")
		if err != nil {
			t.Fatalf("unexpected error on Get: %v", err)
		}
		if got.Status.Phase != v1alpha1.TaskSucceeded {
			t.Errorf("expected phase Succeeded, got %s", got.Status.Phase)
		}
		if got.Status.Answer != "Done" {
			t.Errorf("expected answer Done, got %q", got.Status.Answer)
		}
	})
}

func TestUpdateNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		if err := s.Update(newTestTask("ghost", "", "q")); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		if err := s.Create(newTestTask("del", "sess-a", "q")); err != nil {
			t.Fatalf("unexpected error on Create: %v", err)
		}
		if err := s.Delete("del"); err != nil {
			t.Fatalf("unexpected error on Delete: %v", err)
		}
		if _, err := s.Get("del"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after Delete, got %v", err)
		}
		if err := s.Delete("del"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second Delete, got %v", err)
		}
	})
}

func TestListOrderAndSessionFilter(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		// Insert out of order; List must sort by name.
		for _, tc := range []struct{ name, session string }{
			{"0003", "sess-b"},
			{"0001", "sess-a"},
			{"0002", "sess-a"},
		} {
			if err := s.Create(newTestTask(tc.name, tc.session, "q")); err != nil {
				t.Fatalf("unexpected error on Create(%s): %v", tc.name, err)
			}
		}

		all, err := s.List("")
		if err != nil {
			t.Fatalf("unexpected error on List: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 tasks, got %d", len(all))
		}
		for i, want := range []string{"0001", "0002", "0003"} {
			if all[i].Metadata.Name != want {
				t.Errorf("position %d: expected %s, got %s", i, want, all[i].Metadata.Name)
			}
		}

		onlyA, err := s.List("sess-a")
		if err != nil {
			t.Fatalf("unexpected error on List(sess-a): %v", err)
		}
		if len(onlyA) != 2 {
			t.Fatalf("expected 2 tasks in sess-a, got %d", len(onlyA))
		}
	})
}

func TestResolve(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		for _, name := range []string{"abc-111", "abc-222", "def-333"} {
			if err := s.Create(newTestTask(name, "sess", "q")); err != nil {
				t.Fatalf("unexpected error on Create(%s): %v", name, err)
			}
		}

		got, err := Resolve(s, "def")
		if err != nil {
			t.Fatalf("unexpected error resolving unique prefix: %v", err)
		}
		if got.Metadata.Name != "def-333" {
			t.Errorf("expected def-333, got %s", got.Metadata.Name)
		}

		if _, err := Resolve(s, "abc"); !errors.Is(err, ErrAmbiguous) {
			t.Errorf("expected ErrAmbiguous, got %v", err)
		}
		if _, err := Resolve(s, "zzz"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		exact, err := Resolve(s, "abc-111")
		if err != nil {
			t.Fatalf("unexpected error resolving exact name: %v", err)
		}
		if exact.Metadata.Name != "abc-111" {
			t.Errorf("expected abc-111, got %s", exact.Metadata.Name)
		}
	})
}

func TestBoltStoreLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	first, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("opening first store: %v", err)
	}
	defer first.Close()

	if _, err := NewBoltStore(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked for second open, got %v", err)
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	if err := s.Create(newTestTask("keep", "sess", "q")); err != nil {
		t.Fatalf("unexpected error on Create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error on Close: %v", err)
	}

	reopened, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.Get("keep"); err != nil {
		t.Fatalf("expected task to survive reopen, got %v", err)
	}
}
