// Package llm provides the chat-completion transport used by the agent loop.
package llm

import "context"

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the input to a model call.
type Request struct {
	Model    string
	Messages []Message
}

// Client is the interface for chat-completion providers.
type Client interface {
	// Complete makes a blocking call and returns the whole response text.
	Complete(ctx context.Context, req Request) (string, error)

	// Stream starts a streaming call. Callers must Close the stream.
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Stream yields response text fragments in order. Recv returns io.EOF
// once the response is complete.
type Stream interface {
	Recv() (string, error)
	Close() error
}
