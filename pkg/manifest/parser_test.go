package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klubi/reagent/pkg/apis/v1alpha1"
)

func TestParseTask(t *testing.T) {
	yaml := []byte(`
apiVersion: reagent.dev/v1alpha1
kind: Task
metadata:
  name: add-readme
  labels:
    batch: docs
spec:
  question: "Create a README.md describing the project"
`)
	tasks, err := ParseBytes(yaml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.APIVersion != v1alpha1.APIVersion {
		t.Errorf("expected apiVersion %s, got %s", v1alpha1.APIVersion, task.APIVersion)
	}
	if task.Kind != v1alpha1.KindTask {
		t.Errorf("expected kind Task, got %s", task.Kind)
	}
	if task.Metadata.Name != "add-readme" {
		t.Errorf("expected name add-readme, got %s", task.Metadata.Name)
	}
	if task.Metadata.Labels["batch"] != "docs" {
		t.Errorf("expected label batch=docs, got %s", task.Metadata.Labels["batch"])
	}
	if task.Spec.Question != "Create a README.md describing the project" {
		t.Errorf("unexpected question %q", task.Spec.Question)
	}
}

func TestParseMultiDocument(t *testing.T) {
	yaml := []byte(`
kind: Task
metadata:
  name: first
spec:
  question: "List the files"
---
---
kind: Task
spec:
  question: |
    Write a haiku
    about Go
`)
	tasks, err := ParseBytes(yaml)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Spec.Question != "List the files" {
		t.Errorf("unexpected first question %q", tasks[0].Spec.Question)
	}
	if tasks[1].Spec.Question != "Write a haiku\nabout Go\n" {
		t.Errorf("unexpected second question %q", tasks[1].Spec.Question)
	}
	if tasks[1].APIVersion != v1alpha1.APIVersion {
		t.Errorf("expected default apiVersion, got %s", tasks[1].APIVersion)
	}

	if got := DisplayName(tasks[0], 0); got != "first" {
		t.Errorf("DisplayName = %q, want first", got)
	}
	if got := DisplayName(tasks[1], 1); got != "task-2" {
		t.Errorf("DisplayName = %q, want task-2", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty question",
			yaml:    "kind: Task\nspec:\n  question: \"  \"\n",
			wantErr: "spec.question",
		},
		{
			name:    "unknown kind",
			yaml:    "kind: Pipeline\nmetadata:\n  name: x\n",
			wantErr: "unknown resource kind",
		},
		{
			name:    "foreign api version",
			yaml:    "apiVersion: example.com/v2\nkind: Task\nspec:\n  question: q\n",
			wantErr: "unsupported apiVersion",
		},
		{
			name:    "second document broken",
			yaml:    "kind: Task\nspec:\n  question: ok\n---\nkind: Task\nspec: [\n",
			wantErr: "decoding yaml document",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	tasks, err := ParseBytes([]byte("\n---\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(tasks))
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	content := []byte(`apiVersion: reagent.dev/v1alpha1
kind: Task
spec:
  question: "Run the tests"
---
apiVersion: reagent.dev/v1alpha1
kind: Task
spec:
  question: "Fix what failed"
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	tasks, err := ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[1].Spec.Question != "Fix what failed" {
		t.Errorf("unexpected question %q", tasks[1].Spec.Question)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
