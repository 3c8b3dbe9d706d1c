package agent

// Observer is notified as a task progresses. Callbacks run on the loop's
// goroutine and block it.
type Observer interface {
	// OnDelta receives streamed response text as it arrives.
	OnDelta(text string)
	OnThought(thought string)
	OnAction(call Call)
	OnObservation(tool, observation string)
	// OnRetry reports a response without a usable directive. attempt
	// starts at 1.
	OnRetry(attempt, limit int, reason error)
	OnFinalAnswer(answer string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnDelta(string) {}
func (NopObserver) OnThought(string) {}
func (NopObserver) OnAction(Call) {}
func (NopObserver) OnObservation(string, string) {}
func (NopObserver) OnRetry(int, int, error) {}
func (NopObserver) OnFinalAnswer(string) {}

// MultiObserver fans events out in order.
type MultiObserver []Observer

func (m MultiObserver) OnDelta(text string) {
	for _, o := range m {
		o.OnDelta(text)
	}
}

func (m MultiObserver) OnThought(thought string) {
	for _, o := range m {
		o.OnThought(thought)
	}
}

func (m MultiObserver) OnAction(call Call) {
	for _, o := range m {
		o.OnAction(call)
	}
}

func (m MultiObserver) OnObservation(tool, observation string) {
	for _, o := range m {
		o.OnObservation(tool, observation)
	}
}

func (m MultiObserver) OnRetry(attempt, limit int, reason error) {
	for _, o := range m {
		o.OnRetry(attempt, limit, reason)
	}
}

func (m MultiObserver) OnFinalAnswer(answer string) {
	for _, o := range m {
		o.OnFinalAnswer(answer)
	}
}
