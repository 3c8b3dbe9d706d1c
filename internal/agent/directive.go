// Package agent implements the ReAct conversation loop: it reads tagged
// directives out of model output, dispatches tool calls, and records the
// exchange in a task journal.
package agent

import "strings"

// Delimiters recognized in model output.
const (
	thoughtOpen      = "<thought>"
	thoughtClose     = "</thought>"
	actionOpen       = "<action>"
	actionClose      = "</action>"
	finalAnswerOpen  = "<final_answer>"
	finalAnswerClose = "</final_answer>"
)

// DirectiveKind classifies one model response.
type DirectiveKind int

const (
	DirectiveNone DirectiveKind = iota
	DirectiveAction
	DirectiveFinalAnswer
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveAction:
		return "action"
	case DirectiveFinalAnswer:
		return "final_answer"
	default:
		return "none"
	}
}

// Directive is what one response asks the loop to do. Thought is carried
// alongside because it can accompany any kind.
type Directive struct {
	Kind    DirectiveKind
	Thought string
	// Text is the final answer or the raw action expression.
	Text string
}

// Interpret classifies a response. A complete final answer wins over a
// complete action in the same text.
func Interpret(text string) Directive {
	d := Directive{}
	if thought, ok := ExtractThought(text); ok {
		d.Thought = thought
	}
	if answer, ok := ExtractFinalAnswer(text); ok {
		d.Kind = DirectiveFinalAnswer
		d.Text = answer
		return d
	}
	if action, ok := ExtractAction(text); ok {
		d.Kind = DirectiveAction
		d.Text = action
	}
	return d
}

// ExtractThought returns the trimmed content of the first complete
// thought segment.
func ExtractThought(text string) (string, bool) {
	return extract(text, thoughtOpen, thoughtClose)
}

// ExtractAction returns the trimmed content of the first complete action
// segment.
func ExtractAction(text string) (string, bool) {
	return extract(text, actionOpen, actionClose)
}

// ExtractFinalAnswer returns the trimmed content of the first complete
// final answer segment.
func ExtractFinalAnswer(text string) (string, bool) {
	return extract(text, finalAnswerOpen, finalAnswerClose)
}

// extract takes the span between the first open delimiter and the first
// close delimiter after it.
func extract(text, open, close string) (string, bool) {
	start := strings.Index(text, open)
	if start < 0 {
		return "", false
	}
	body := text[start+len(open):]
	end := strings.Index(body, close)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}

// HasCompleteAction reports whether text holds an action that
// ExtractAction would return.
func HasCompleteAction(text string) bool {
	_, ok := extract(text, actionOpen, actionClose)
	return ok
}

// ActionPending reports an action that has opened but not closed yet, as
// happens when a stream is cut short.
func ActionPending(text string) bool {
	return strings.Contains(text, actionOpen) && !HasCompleteAction(text)
}

// tagPresence summarizes which delimiters occur in text, for debug logs.
type tagPresence struct {
	chars               int
	hasActionOpen       bool
	hasActionClose      bool
	hasFinalAnswerOpen  bool
	hasFinalAnswerClose bool
}

func analyze(text string) tagPresence {
	return tagPresence{
		chars:               len([]rune(text)),
		hasActionOpen:       strings.Contains(text, actionOpen),
		hasActionClose:      strings.Contains(text, actionClose),
		hasFinalAnswerOpen:  strings.Contains(text, finalAnswerOpen),
		hasFinalAnswerClose: strings.Contains(text, finalAnswerClose),
	}
}
