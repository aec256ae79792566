package gateway

import (
	"context"
	"strings"

	"github.com/sirfaxe-ai/aok-training-backend/internal/conversation"
	"github.com/sirfaxe-ai/aok-training-backend/pkg/provider/llm"
)

// CompletionOptions tunes one completion call. A nil Temperature and a zero
// MaxTokens use the provider defaults.
type CompletionOptions struct {
	Temperature *float64
	MaxTokens   int
}

// Completion sends an assembled conversation to a text-completion provider.
type Completion struct {
	provider llm.Provider
	iv       *invoker
}

// NewCompletion creates a Completion gateway over p. A nil p yields a gateway
// whose calls fail with [CodeNotConfigured].
func NewCompletion(p llm.Provider, opts ...Option) *Completion {
	s := newSettings(opts)
	name := "none"
	if p != nil {
		name = p.Name()
	}
	return &Completion{
		provider: p,
		iv: &invoker{
			kind:     KindCompletion,
			provider: name,
			metrics:  s.metrics,
			breaker:  s.breaker,
			latency:  s.metrics.CompletionDuration,
		},
	}
}

// Complete sends turns and returns the trimmed reply text. A blank reply is a
// [CodeEmptyResponse] error.
func (c *Completion) Complete(ctx context.Context, turns []conversation.Turn, opts CompletionOptions) (string, error) {
	if c.provider == nil {
		return "", notConfigured(KindCompletion)
	}

	req := llm.CompletionRequest{
		Messages:    make([]llm.Message, 0, len(turns)),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	for _, t := range turns {
		req.Messages = append(req.Messages, llm.Message{Role: string(t.Role), Content: t.Content})
	}

	var reply string
	err := c.iv.invoke(ctx, func(ctx context.Context) error {
		resp, err := c.provider.Complete(ctx, req)
		if err != nil {
			return err
		}
		if resp == nil || strings.TrimSpace(resp.Content) == "" {
			return errEmpty
		}
		reply = strings.TrimSpace(resp.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}
