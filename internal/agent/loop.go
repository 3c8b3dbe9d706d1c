package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/klubi/reagent/internal/llm"
	"github.com/klubi/reagent/internal/tools"
)

// InteractiveTool is the tool the loop asks the operator about before
// every call.
const InteractiveTool = "run_terminal_command"

// DefaultMaxRetries bounds the malformed responses accepted per task.
const DefaultMaxRetries = 5

// Options configures an Agent.
type Options struct {
	Model      string
	ProjectDir string
	MaxRetries int
	// Stream selects streaming receive; SettleDelay is the pause after
	// the first closing action tag is seen.
	Stream      bool
	SettleDelay time.Duration
	Prompt      *PromptRenderer
	Confirm     tools.Confirmer
}

// Result is the outcome of one task that did not fail.
type Result struct {
	Answer string
	// Cancelled is set when the operator declined a command; Answer then
	// holds tools.CancelledResult.
	Cancelled bool
	Retries   int
}

// Agent runs tasks against a model with a fixed tool registry. It keeps
// the conversation history between tasks and is not safe for concurrent
// use.
type Agent struct {
	client  llm.Client
	tools   *tools.Registry
	opts    Options
	logger  *zap.Logger
	history []llm.Message
}

// New creates an Agent. Zero options fall back to defaults; a nil
// Confirm declines every prompt.
func New(client llm.Client, registry *tools.Registry, logger *zap.Logger, opts Options) (*Agent, error) {
	if client == nil {
		return nil, errors.New("agent: model client is required")
	}
	if registry == nil {
		return nil, errors.New("agent: tool registry is required")
	}
	if opts.ProjectDir == "" {
		return nil, errors.New("agent: project directory is required")
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Prompt == nil {
		p, err := NewPromptRenderer("")
		if err != nil {
			return nil, err
		}
		opts.Prompt = p
	}
	if opts.Confirm == nil {
		opts.Confirm = tools.AutoConfirm(false)
	}
	return &Agent{
		client: client,
		tools:  registry,
		opts:   opts,
		logger: logger,
	}, nil
}

// Model returns the model identifier sent with every request.
func (a *Agent) Model() string { return a.opts.Model }

// ProjectDir returns the directory the tools are bound to.
func (a *Agent) ProjectDir() string { return a.opts.ProjectDir }

// History returns a copy of the conversation so far, without the system
// message.
func (a *Agent) History() []llm.Message {
	out := make([]llm.Message, len(a.history))
	copy(out, a.history)
	return out
}

// HistoryLen returns the number of messages in the conversation.
func (a *Agent) HistoryLen() int { return len(a.history) }

// ClearHistory forgets all previous tasks.
func (a *Agent) ClearHistory() { a.history = nil }

// Run executes one task without progress notifications.
func (a *Agent) Run(ctx context.Context, question string) (*Result, error) {
	return a.RunWithObserver(ctx, question, NopObserver{})
}

// RunWithObserver executes one task until the model gives a final answer,
// the operator cancels, or a fatal error occurs. Malformed responses are
// answered with a retry prompt; after MaxRetries of them the task fails
// with ErrRetryLimitExceeded.
func (a *Agent) RunWithObserver(ctx context.Context, question string, obs Observer) (*Result, error) {
	if obs == nil {
		obs = NopObserver{}
	}

	system, err := a.systemPrompt()
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(a.history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	messages = append(messages, a.history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: "<question>" + question + "</question>"})

	retries := 0
	for {
		if retries >= a.opts.MaxRetries {
			a.logger.Error("retry limit exceeded", zap.Int("retries", retries))
			return nil, fmt.Errorf("%w: %d responses without a usable action", ErrRetryLimitExceeded, retries)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := a.receive(ctx, messages, obs)
		if err != nil {
			a.logger.Error("model call failed", zap.Error(err))
			return nil, err
		}

		d := Interpret(text)
		a.logAnalysis(text)
		if d.Thought != "" {
			obs.OnThought(d.Thought)
		}

		if d.Kind == DirectiveFinalAnswer {
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: text})
			a.commit(messages)
			obs.OnFinalAnswer(d.Text)
			return &Result{Answer: d.Text, Retries: retries}, nil
		}

		var call Call
		if d.Kind == DirectiveAction {
			call, err = ParseCall(d.Text)
		} else {
			err = &ParseError{Input: preview(text, 100), Reason: "no complete <action> or <final_answer> tag"}
		}
		if err != nil {
			retries++
			a.logger.Warn("malformed model response",
				zap.Int("attempt", retries),
				zap.Int("max", a.opts.MaxRetries),
				zap.Error(err),
			)
			obs.OnRetry(retries, a.opts.MaxRetries, err)
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: retryPrompt(retries, err)})
			continue
		}

		obs.OnAction(call)

		if call.Tool == InteractiveTool {
			ok, err := a.opts.Confirm.Confirm(fmt.Sprintf("Run command %q?", strings.Join(call.Args, " ")))
			if err != nil {
				return nil, fmt.Errorf("confirming %s: %w", call.Tool, err)
			}
			if !ok {
				a.logger.Info("command declined by operator", zap.Strings("args", call.Args))
				return &Result{Answer: tools.CancelledResult, Cancelled: true, Retries: retries}, nil
			}
		}

		observation, err := a.invoke(ctx, call)
		if err != nil {
			a.logger.Error("tool failed", zap.String("tool", call.Tool), zap.Error(err))
			return nil, err
		}
		obs.OnObservation(call.Tool, observation)

		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, Content: text},
			llm.Message{Role: llm.RoleUser, Content: "<observation>" + observation + "</observation>"},
		)
		a.commit(messages)
	}
}

// invoke runs a call against the registry. An unknown tool is reported
// back to the model as an observation.
func (a *Agent) invoke(ctx context.Context, call Call) (string, error) {
	tool, ok := a.tools.Get(call.Tool)
	if !ok {
		a.logger.Warn("model called unknown tool", zap.String("tool", call.Tool))
		return fmt.Sprintf("tool '%s' does not exist", call.Tool), nil
	}

	a.logger.Info("dispatching tool",
		zap.String("tool", call.Tool),
		zap.Int("args", len(call.Args)),
	)
	out, err := tool.Execute(ctx, call.Args)
	if err != nil {
		return "", &ToolError{Tool: call.Tool, Err: err}
	}
	return out, nil
}

func (a *Agent) systemPrompt() (string, error) {
	files, err := ListProjectFiles(a.opts.ProjectDir)
	if err != nil {
		return "", err
	}
	return a.opts.Prompt.Render(PromptData{
		ToolList:        a.tools.Describe(),
		OperatingSystem: OperatingSystemName(),
		FileList:        files,
	})
}

// commit stores everything after the system message as the history.
func (a *Agent) commit(messages []llm.Message) {
	a.history = append(a.history[:0:0], messages[1:]...)
}

func (a *Agent) logAnalysis(text string) {
	p := analyze(text)
	a.logger.Debug("model response",
		zap.Int("chars", p.chars),
		zap.Bool("finalAnswerOpen", p.hasFinalAnswerOpen),
		zap.Bool("finalAnswerClose", p.hasFinalAnswerClose),
		zap.Bool("actionOpen", p.hasActionOpen),
		zap.Bool("actionClose", p.hasActionClose),
	)
}

func retryPrompt(attempt int, reason error) string {
	var pe *ParseError
	detail := ""
	if errors.As(reason, &pe) && pe.Reason == "not a function call" {
		detail = fmt.Sprintf("The action %q is not a valid function call. ", pe.Input)
	}
	return fmt.Sprintf("%sPlease output a complete action tag in the form <action>tool_name(arguments)</action>. This is retry %d.", detail, attempt)
}

// preview returns at most n runes of s.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
