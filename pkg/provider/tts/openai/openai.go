// Package openai provides a text-to-speech provider backed by the OpenAI
// speech endpoint (gpt-4o-mini-tts, tts-1, …).
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/sirfaxe-ai/aok-training-backend/pkg/provider/tts"
)

const (
	defaultModel = "gpt-4o-mini-tts"

	// MinSpeed and MaxSpeed bound the speed multiplier accepted by the API.
	MinSpeed = 0.25
	MaxSpeed = 4.0
)

// Compile-time assertion that Provider implements tts.Provider.
var _ tts.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the speech model. Defaults to "gpt-4o-mini-tts".
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.timeout = d
	}
}

// Provider implements tts.Provider using the OpenAI API.
type Provider struct {
	client  oai.Client
	model   string
	baseURL string
	timeout time.Duration
}

// New creates a new Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai tts: apiKey must not be empty")
	}
	p := &Provider{model: defaultModel}
	for _, o := range opts {
		o(p)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if p.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(p.baseURL))
	}
	if p.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: p.timeout}))
	}
	p.client = oai.NewClient(reqOpts...)
	return p, nil
}

// Name implements tts.Provider.
func (p *Provider) Name() string { return "openai" }

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (*tts.Audio, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai tts: speech: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai tts: read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("openai tts: empty audio in response")
	}

	format := req.Format
	if format == "" {
		format = tts.FormatWAV
	}
	return &tts.Audio{Data: data, ContentType: format.ContentType()}, nil
}

// buildParams converts a tts.Request into OpenAI SDK params.
func (p *Provider) buildParams(req tts.Request) (oai.AudioSpeechNewParams, error) {
	if req.Text == "" {
		return oai.AudioSpeechNewParams{}, errors.New("openai tts: text must not be empty")
	}
	if req.Voice == "" {
		return oai.AudioSpeechNewParams{}, errors.New("openai tts: voice must not be empty")
	}

	params := oai.AudioSpeechNewParams{
		Model:          oai.SpeechModel(p.model),
		Input:          req.Text,
		Voice:          oai.AudioSpeechNewParamsVoice(req.Voice),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatWAV,
	}
	if req.Format == tts.FormatMP3 {
		params.ResponseFormat = oai.AudioSpeechNewParamsResponseFormatMP3
	}
	if req.Speed != nil {
		params.Speed = oai.Float(clampSpeed(*req.Speed))
	}
	if req.Instructions != "" {
		params.Instructions = oai.String(req.Instructions)
	}
	return params, nil
}

func clampSpeed(s float64) float64 {
	return max(MinSpeed, min(MaxSpeed, s))
}
