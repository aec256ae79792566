package gateway

import (
	"context"
	"strings"

	"github.com/sirfaxe-ai/aok-training-backend/pkg/provider/stt"
)

// Transcription sends a recording to a speech-to-text provider.
type Transcription struct {
	provider stt.Provider
	language string
	hint     string
	iv       *invoker
}

// NewTranscription creates a Transcription gateway over p. A nil p yields a
// gateway whose calls fail with [CodeNotConfigured].
func NewTranscription(p stt.Provider, opts ...Option) *Transcription {
	s := newSettings(opts)
	name := "none"
	if p != nil {
		name = p.Name()
	}
	return &Transcription{
		provider: p,
		language: s.language,
		hint:     s.hint,
		iv: &invoker{
			kind:     KindTranscription,
			provider: name,
			metrics:  s.metrics,
			breaker:  s.breaker,
			latency:  s.metrics.TranscriptionDuration,
		},
	}
}

// Transcribe returns the trimmed recognised text of audio. Silence or
// unintelligible speech yields "" with a nil error; deciding what that means
// is left to the caller.
func (t *Transcription) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if t.provider == nil {
		return "", notConfigured(KindTranscription)
	}

	req := stt.Request{Audio: audio, Language: t.language, Prompt: t.hint}

	var text string
	err := t.iv.invoke(ctx, func(ctx context.Context) error {
		res, err := t.provider.Transcribe(ctx, req)
		if err != nil {
			return err
		}
		if res != nil {
			text = strings.TrimSpace(res.Text)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
