// Package v1alpha1 defines the task journal resource types.
package v1alpha1

import "time"

const (
	APIVersion = "reagent.dev/v1alpha1"
)

// Resource kinds
const (
	KindTask = "Task"
)

// TypeMeta describes the API version and kind of a resource.
type TypeMeta struct {
	APIVersion string `json:"apiVersion" yaml:"apiVersion"`
	Kind       string `json:"kind" yaml:"kind"`
}

// ObjectMeta holds metadata common to all resources.
type ObjectMeta struct {
	Name      string            `json:"name" yaml:"name"`
	Session   string            `json:"session,omitempty" yaml:"session,omitempty"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	CreatedAt time.Time         `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// -------------------------------------------------------
// Task
// -------------------------------------------------------

// TaskPhase represents the lifecycle phase of a Task.
type TaskPhase string

const (
	TaskPending   TaskPhase = "Pending"
	TaskRunning   TaskPhase = "Running"
	TaskSucceeded TaskPhase = "Succeeded"
	TaskFailed    TaskPhase = "Failed"
	TaskCancelled TaskPhase = "Cancelled"
)

// Task is one top-level question put to the agent and everything the
// agent did to answer it.
type Task struct {
	TypeMeta `json:",inline" yaml:",inline"`
	Metadata ObjectMeta `json:"metadata" yaml:"metadata"`
	Spec     TaskSpec   `json:"spec" yaml:"spec"`
	Status   TaskStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

type TaskSpec struct {
	Question   string `json:"question" yaml:"question"`
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	ProjectDir string `json:"projectDir,omitempty" yaml:"projectDir,omitempty"`
}

type TaskStatus struct {
	Phase      TaskPhase `json:"phase" yaml:"phase"`
	Answer     string    `json:"answer,omitempty" yaml:"answer,omitempty"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	Retries    int       `json:"retries" yaml:"retries"`
	Steps      []Step    `json:"steps,omitempty" yaml:"steps,omitempty"`
	StartedAt  time.Time `json:"startedAt,omitempty" yaml:"startedAt,omitempty"`
	FinishedAt time.Time `json:"finishedAt,omitempty" yaml:"finishedAt,omitempty"`
}

// -------------------------------------------------------
// Step
// -------------------------------------------------------

// StepKind identifies what a journal step records.
type StepKind string

const (
	StepThought     StepKind = "Thought"
	StepAction      StepKind = "Action"
	StepObservation StepKind = "Observation"
	StepRetry       StepKind = "Retry"
	StepFinalAnswer StepKind = "FinalAnswer"
)

// Step is a single event in a task's reasoning/tool-use loop.
type Step struct {
	Kind    StepKind  `json:"kind" yaml:"kind"`
	Content string    `json:"content,omitempty" yaml:"content,omitempty"`
	Tool    string    `json:"tool,omitempty" yaml:"tool,omitempty"`
	Args    []string  `json:"args,omitempty" yaml:"args,omitempty"`
	At      time.Time `json:"at" yaml:"at"`
}

// Duration returns how long the task ran, or zero if it has not finished.
func (t *Task) Duration() time.Duration {
	if t.Status.StartedAt.IsZero() || t.Status.FinishedAt.IsZero() {
		return 0
	}
	return t.Status.FinishedAt.Sub(t.Status.StartedAt)
}
