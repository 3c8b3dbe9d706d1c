package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient implements Client for OpenAI-compatible APIs
// (OpenRouter, OpenAI, vLLM, Ollama's /v1 endpoint, etc.).
type OpenAIClient struct {
	client *openai.Client
	logger *zap.Logger
}

// NewOpenAIClient creates a client for the endpoint at baseURL.
func NewOpenAIClient(baseURL, apiKey string, logger *zap.Logger) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		logger: logger,
	}
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}

// Complete sends a non-streaming chat completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	c.logger.Debug("chat completion",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
	)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toOpenAIMessages(req.Messages),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: response has no choices")
	}

	c.logger.Debug("chat completion finished",
		zap.Int("promptTokens", resp.Usage.PromptTokens),
		zap.Int("completionTokens", resp.Usage.CompletionTokens),
		zap.String("finishReason", string(resp.Choices[0].FinishReason)),
	)
	return resp.Choices[0].Message.Content, nil
}

// Stream starts a streaming chat completion request.
func (c *OpenAIClient) Stream(ctx context.Context, req Request) (Stream, error) {
	c.logger.Debug("chat completion stream",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
	)

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toOpenAIMessages(req.Messages),
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion stream: %w", err)
	}
	return &openAIStream{stream: stream}, nil
}

// openAIStream adapts go-openai's chunk stream to text fragments.
type openAIStream struct {
	stream *openai.ChatCompletionStream
}

// Recv skips chunks that carry no text (role headers, usage trailers).
func (s *openAIStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("receiving stream chunk: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if text := resp.Choices[0].Delta.Content; text != "" {
			return text, nil
		}
	}
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}
