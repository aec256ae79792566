package gateway

import (
	"context"

	"github.com/sirfaxe-ai/aok-training-backend/internal/voice"
	"github.com/sirfaxe-ai/aok-training-backend/pkg/provider/tts"
)

// Speech sends text and a voice selection to a text-to-speech provider.
type Speech struct {
	provider tts.Provider
	iv       *invoker
}

// NewSpeech creates a Speech gateway over p. A nil p yields a gateway whose
// calls fail with [CodeNotConfigured].
func NewSpeech(p tts.Provider, opts ...Option) *Speech {
	s := newSettings(opts)
	name := "none"
	if p != nil {
		name = p.Name()
	}
	return &Speech{
		provider: p,
		iv: &invoker{
			kind:     KindSpeech,
			provider: name,
			metrics:  s.metrics,
			breaker:  s.breaker,
			latency:  s.metrics.SpeechDuration,
		},
	}
}

// Synthesize renders text as WAV audio with the voice, speed and style from
// sel. A clip without bytes is a [CodeEmptyResponse] error.
func (s *Speech) Synthesize(ctx context.Context, text string, sel voice.Selection) (tts.Audio, error) {
	if s.provider == nil {
		return tts.Audio{}, notConfigured(KindSpeech)
	}

	req := tts.Request{
		Text:         text,
		Voice:        sel.Voice,
		Speed:        sel.Speed,
		Instructions: sel.Style,
		Format:       tts.FormatWAV,
	}

	var clip tts.Audio
	err := s.iv.invoke(ctx, func(ctx context.Context) error {
		out, err := s.provider.Synthesize(ctx, req)
		if err != nil {
			return err
		}
		if out == nil || len(out.Data) == 0 {
			return errEmpty
		}
		clip = *out
		return nil
	})
	if err != nil {
		return tts.Audio{}, err
	}
	if clip.ContentType == "" {
		clip.ContentType = tts.FormatWAV.ContentType()
	}
	return clip, nil
}
