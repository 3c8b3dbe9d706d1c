package agent

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/klubi/reagent/internal/llm"
)

// receive makes one model call and returns the response text.
func (a *Agent) receive(ctx context.Context, messages []llm.Message, obs Observer) (string, error) {
	req := llm.Request{Model: a.opts.Model, Messages: messages}

	if !a.opts.Stream {
		text, err := a.client.Complete(ctx, req)
		if err != nil {
			return "", &APIError{Err: err}
		}
		obs.OnDelta(text)
		return text, nil
	}

	stream, err := a.client.Stream(ctx, req)
	if err != nil {
		return "", &APIError{Err: err}
	}
	defer stream.Close()

	var buf strings.Builder
	settled := false
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if buf.Len() == 0 {
				return "", &APIError{Err: err}
			}
			a.logger.Warn("stream interrupted, using partial response",
				zap.Int("bytes", buf.Len()),
				zap.Error(err),
			)
			break
		}

		buf.WriteString(chunk)
		obs.OnDelta(chunk)

		// The first closing action tag gets one settle pause; after that
		// the stream stops as soon as the action pair is complete.
		if !settled && strings.Contains(buf.String(), actionClose) {
			settled = true
			if err := sleep(ctx, a.opts.SettleDelay); err != nil {
				return "", err
			}
		}
		if settled && HasCompleteAction(buf.String()) {
			a.logger.Debug("complete action received, closing stream")
			break
		}
	}

	text := buf.String()
	if ActionPending(text) {
		a.logger.Warn("response ended inside an open action tag",
			zap.String("tail", tail(text, 200)),
		)
	}
	return text, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tail returns at most the last n runes of s.
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "..." + string(r[len(r)-n:])
}
