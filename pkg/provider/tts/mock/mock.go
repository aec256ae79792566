// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider to feed a controlled clip to callers and to verify that the
// expected voice, speed and instructions reach the TTS backend.
//
// Example:
//
//	p := &mock.Provider{Audio: &tts.Audio{Data: []byte("RIFF"), ContentType: "audio/wav"}}
//	clip, _ := p.Synthesize(ctx, tts.Request{Text: "Hallo", Voice: "alloy"})
package mock

import (
	"context"
	"sync"

	"github.com/sirfaxe-ai/aok-training-backend/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Req is the Request passed to Synthesize.
	Req tts.Request
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// ProviderName is returned by Name. Defaults to "mock".
	ProviderName string

	// Audio is returned by Synthesize. If nil, a tiny WAV header clip is
	// returned so callers always receive non-empty bytes.
	Audio *tts.Audio

	// Err, if non-nil, is returned as the error from Synthesize.
	Err error

	// SynthesizeCalls records every invocation of Synthesize.
	SynthesizeCalls []SynthesizeCall
}

// Name implements tts.Provider.
func (p *Provider) Name() string {
	if p.ProviderName == "" {
		return "mock"
	}
	return p.ProviderName
}

// Synthesize records the call and returns Audio, Err.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (*tts.Audio, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Req: req})
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Audio == nil {
		return &tts.Audio{Data: []byte("RIFF\x24\x00\x00\x00WAVEfmt "), ContentType: "audio/wav"}, nil
	}
	return p.Audio, nil
}

// Calls returns a snapshot of the recorded Synthesize calls.
func (p *Provider) Calls() []SynthesizeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SynthesizeCall, len(p.SynthesizeCalls))
	copy(out, p.SynthesizeCalls)
	return out
}

var _ tts.Provider = (*Provider)(nil)
