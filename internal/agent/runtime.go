package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klubi/reagent/internal/store"
	v1alpha1 "github.com/klubi/reagent/pkg/apis/v1alpha1"
)

// Runtime runs tasks on an Agent and records each one in the task
// journal. All tasks of one Runtime share a session ID.
type Runtime struct {
	agent   *Agent
	store   store.Store
	logger  *zap.Logger
	session string
	// mu serializes tasks; the agent's history has a single owner.
	mu sync.Mutex
}

// NewRuntime creates a Runtime with a fresh session ID.
func NewRuntime(a *Agent, s store.Store, logger *zap.Logger) (*Runtime, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}
	return &Runtime{
		agent:   a,
		store:   s,
		logger:  logger,
		session: id.String(),
	}, nil
}

// Session returns the session ID stamped on every task.
func (r *Runtime) Session() string { return r.session }

// Agent returns the wrapped agent.
func (r *Runtime) Agent() *Agent { return r.agent }

// ExecuteTask runs question as a new task. The task is stored as Running
// before the first model call and updated with its outcome afterwards.
// The task's own error is returned in preference to a journal error.
func (r *Runtime) ExecuteTask(ctx context.Context, question string, obs Observer) (*Result, *v1alpha1.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, nil, fmt.Errorf("generating task id: %w", err)
	}

	now := time.Now()
	task := &v1alpha1.Task{
		TypeMeta: v1alpha1.TypeMeta{APIVersion: v1alpha1.APIVersion, Kind: v1alpha1.KindTask},
		Metadata: v1alpha1.ObjectMeta{
			Name:      id.String(),
			Session:   r.session,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Spec: v1alpha1.TaskSpec{
			Question:   question,
			Model:      r.agent.Model(),
			ProjectDir: r.agent.ProjectDir(),
		},
		Status: v1alpha1.TaskStatus{
			Phase:     v1alpha1.TaskRunning,
			StartedAt: now,
		},
	}

	r.logger.Info("executing task",
		zap.String("task", task.Metadata.Name),
		zap.String("session", r.session),
	)
	if err := r.store.Create(task); err != nil {
		return nil, nil, fmt.Errorf("recording task: %w", err)
	}

	rec := &journalRecorder{}
	var o Observer = rec
	if obs != nil {
		o = MultiObserver{obs, rec}
	}
	result, runErr := r.agent.RunWithObserver(ctx, question, o)

	finishedAt := time.Now()
	task.Status.Steps = rec.steps
	task.Status.Retries = rec.retries
	task.Status.FinishedAt = finishedAt
	task.Metadata.UpdatedAt = finishedAt
	switch {
	case runErr != nil:
		task.Status.Phase = v1alpha1.TaskFailed
		task.Status.Error = runErr.Error()
	case result.Cancelled:
		task.Status.Phase = v1alpha1.TaskCancelled
		task.Status.Answer = result.Answer
	default:
		task.Status.Phase = v1alpha1.TaskSucceeded
		task.Status.Answer = result.Answer
	}

	r.logger.Debug("writing task result to store",
		zap.String("task", task.Metadata.Name),
		zap.String("phase", string(task.Status.Phase)),
		zap.Int("steps", len(task.Status.Steps)),
	)
	if err := r.store.Update(task); err != nil {
		r.logger.Error("failed to record task outcome", zap.String("task", task.Metadata.Name), zap.Error(err))
		if runErr == nil {
			return result, task, fmt.Errorf("recording task outcome: %w", err)
		}
	}
	return result, task, runErr
}

// journalRecorder turns loop events into journal steps. Streamed deltas
// are not recorded; the parsed events carry the same content.
type journalRecorder struct {
	NopObserver
	steps   []v1alpha1.Step
	retries int
}

func (j *journalRecorder) add(step v1alpha1.Step) {
	step.At = time.Now()
	j.steps = append(j.steps, step)
}

func (j *journalRecorder) OnThought(thought string) {
	j.add(v1alpha1.Step{Kind: v1alpha1.StepThought, Content: thought})
}

func (j *journalRecorder) OnAction(call Call) {
	j.add(v1alpha1.Step{Kind: v1alpha1.StepAction, Tool: call.Tool, Args: call.Args})
}

func (j *journalRecorder) OnObservation(tool, observation string) {
	j.add(v1alpha1.Step{Kind: v1alpha1.StepObservation, Tool: tool, Content: observation})
}

func (j *journalRecorder) OnRetry(attempt, limit int, reason error) {
	j.retries = attempt
	j.add(v1alpha1.Step{Kind: v1alpha1.StepRetry, Content: fmt.Sprintf("attempt %d/%d: %v", attempt, limit, reason)})
}

func (j *journalRecorder) OnFinalAnswer(answer string) {
	j.add(v1alpha1.Step{Kind: v1alpha1.StepFinalAnswer, Content: answer})
}

// IsRetryLimit reports whether err ended a task at the retry ceiling.
func IsRetryLimit(err error) bool {
	return errors.Is(err, ErrRetryLimitExceeded)
}
