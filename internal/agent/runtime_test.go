package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/klubi/reagent/internal/store"
	"github.com/klubi/reagent/internal/tools"
	v1alpha1 "github.com/klubi/reagent/pkg/apis/v1alpha1"
)

func newTestRuntime(t *testing.T, client *fakeClient, confirm tools.Confirmer) (*Runtime, *store.MemoryStore, string) {
	t.Helper()
	a, dir := newTestAgent(t, client, confirm)
	s := store.NewMemoryStore()
	rt, err := NewRuntime(a, s, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	return rt, s, dir
}

func stepKinds(task *v1alpha1.Task) []v1alpha1.StepKind {
	kinds := make([]v1alpha1.StepKind, 0, len(task.Status.Steps))
	for _, s := range task.Status.Steps {
		kinds = append(kinds, s.Kind)
	}
	return kinds
}

func TestExecuteTaskRecordsSuccess(t *testing.T) {
	client := &fakeClient{responses: []string{
		"<thought>look</thought><action>read_file(\"notes.txt\")</action>",
		"<final_answer>Done</final_answer>",
	}}
	rt, s, dir := newTestRuntime(t, client, tools.AutoConfirm(false))
	writeFile(t, dir, "notes.txt", "content")

	result, task, err := rt.ExecuteTask(context.Background(), "summarize notes", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != "Done" {
		t.Errorf("answer = %q", result.Answer)
	}

	stored, err := s.Get(task.Metadata.Name)
	if err != nil {
		t.Fatalf("task not stored: %v", err)
	}
	if stored.Kind != v1alpha1.KindTask || stored.APIVersion != v1alpha1.APIVersion {
		t.Errorf("unexpected type meta %+v", stored.TypeMeta)
	}
	if stored.Status.Phase != v1alpha1.TaskSucceeded || stored.Status.Answer != "Done" {
		t.Errorf("unexpected status %+v", stored.Status)
	}
	if stored.Spec.Question != "summarize notes" || stored.Spec.Model != "test-model" || stored.Spec.ProjectDir != dir {
		t.Errorf("unexpected spec %+v", stored.Spec)
	}
	if stored.Metadata.Session != rt.Session() {
		t.Errorf("session = %q, want %q", stored.Metadata.Session, rt.Session())
	}
	if stored.Status.FinishedAt.Before(stored.Status.StartedAt) {
		t.Error("finish time before start time")
	}

	want := []v1alpha1.StepKind{v1alpha1.StepThought, v1alpha1.StepAction, v1alpha1.StepObservation, v1alpha1.StepFinalAnswer}
	got := stepKinds(stored)
	if len(got) != len(want) {
		t.Fatalf("steps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %s, want %s", i, got[i], want[i])
		}
	}
	action := stored.Status.Steps[1]
	if action.Tool != "read_file" || len(action.Args) != 1 || action.Args[0] != "notes.txt" {
		t.Errorf("unexpected action step %+v", action)
	}
	if stored.Status.Steps[2].Content != "content" {
		t.Errorf("unexpected observation step %+v", stored.Status.Steps[2])
	}
}

func TestExecuteTaskRecordsFailure(t *testing.T) {
	responses := make([]string, DefaultMaxRetries)
	for i := range responses {
		responses[i] = "no tags"
	}
	client := &fakeClient{responses: responses}
	rt, s, _ := newTestRuntime(t, client, tools.AutoConfirm(false))

	obs := &recordingObserver{}
	_, task, err := rt.ExecuteTask(context.Background(), "q", obs)
	if !IsRetryLimit(err) {
		t.Fatalf("expected retry limit error, got %v", err)
	}
	if len(obs.retries) != DefaultMaxRetries {
		t.Errorf("caller observer should see every retry, got %v", obs.retries)
	}

	stored, err := s.Get(task.Metadata.Name)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status.Phase != v1alpha1.TaskFailed {
		t.Errorf("phase = %s", stored.Status.Phase)
	}
	if stored.Status.Retries != DefaultMaxRetries {
		t.Errorf("retries = %d", stored.Status.Retries)
	}
	if !strings.Contains(stored.Status.Error, "retry limit exceeded") {
		t.Errorf("unexpected error text %q", stored.Status.Error)
	}
}

func TestExecuteTaskRecordsCancellation(t *testing.T) {
	client := &fakeClient{responses: []string{"<action>run_terminal_command(\"ls\")</action>"}}
	rt, s, _ := newTestRuntime(t, client, tools.AutoConfirm(false))

	result, task, err := rt.ExecuteTask(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Cancelled {
		t.Error("expected cancelled result")
	}
	stored, _ := s.Get(task.Metadata.Name)
	if stored.Status.Phase != v1alpha1.TaskCancelled || stored.Status.Answer != tools.CancelledResult {
		t.Errorf("unexpected status %+v", stored.Status)
	}
}

func TestExecuteTaskSessionOrdering(t *testing.T) {
	client := &fakeClient{responses: []string{
		"<final_answer>1</final_answer>",
		"<final_answer>2</final_answer>",
		"<final_answer>3</final_answer>",
	}}
	rt, s, _ := newTestRuntime(t, client, tools.AutoConfirm(false))

	for _, q := range []string{"first", "second", "third"} {
		if _, _, err := rt.ExecuteTask(context.Background(), q, nil); err != nil {
			t.Fatal(err)
		}
	}

	tasks, err := s.List(rt.Session())
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	for i, q := range []string{"first", "second", "third"} {
		if tasks[i].Spec.Question != q {
			t.Errorf("tasks[%d] = %q, want %q", i, tasks[i].Spec.Question, q)
		}
	}
	if rt.Agent().HistoryLen() != 6 {
		t.Errorf("history should span all tasks, got %d", rt.Agent().HistoryLen())
	}
}

type failingStore struct {
	store.Store
}

func (failingStore) Update(*v1alpha1.Task) error { return errors.New("disk full") }

func TestExecuteTaskJournalErrorKeepsResult(t *testing.T) {
	client := &fakeClient{responses: []string{"<final_answer>ok</final_answer>"}}
	a, _ := newTestAgent(t, client, tools.AutoConfirm(false))
	rt, err := NewRuntime(a, failingStore{store.NewMemoryStore()}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	result, _, err := rt.ExecuteTask(context.Background(), "q", nil)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected journal error, got %v", err)
	}
	if result == nil || result.Answer != "ok" {
		t.Errorf("result should survive a journal error, got %+v", result)
	}
}
