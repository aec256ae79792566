// Package api serves the JSON endpoints the browser training UI talks to:
// chat with a simulated customer, transcribe a recording, synthesize the
// customer's voice and evaluate the finished call.
//
// Handlers are thin. They decode and validate the request, resolve the
// persona, call exactly one gateway and encode the answer. Validation
// problems become 400 responses with a short German message; gateway
// failures become 500 responses with a generic message while the cause is
// logged.
package api

import (
	"context"
	"net/http"

	"github.com/sirfaxe-ai/aok-training-backend/internal/config"
	"github.com/sirfaxe-ai/aok-training-backend/internal/conversation"
	"github.com/sirfaxe-ai/aok-training-backend/internal/feedback"
	"github.com/sirfaxe-ai/aok-training-backend/internal/gateway"
	"github.com/sirfaxe-ai/aok-training-backend/internal/observe"
	"github.com/sirfaxe-ai/aok-training-backend/internal/persona"
	"github.com/sirfaxe-ai/aok-training-backend/internal/prompt"
	"github.com/sirfaxe-ai/aok-training-backend/internal/voice"
	"github.com/sirfaxe-ai/aok-training-backend/pkg/provider/tts"
)

// Completer produces the customer's next line. [*gateway.Completion]
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, turns []conversation.Turn, opts gateway.CompletionOptions) (string, error)
}

// Transcriber turns a recording into text. [*gateway.Transcription]
// satisfies it.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer renders text as speech. [*gateway.Speech] satisfies it.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, sel voice.Selection) (tts.Audio, error)
}

// FeedbackComposer evaluates a transcript. [*feedback.Composer] satisfies it.
type FeedbackComposer interface {
	Compose(ctx context.Context, req feedback.Request) (string, error)
}

// Dependencies are the collaborators shared by all handlers. They are
// created once at startup and must be safe for concurrent use.
type Dependencies struct {
	Personas    *persona.Registry
	Prompts     *prompt.Builder
	Completion  Completer
	Transcriber Transcriber
	Speech      Synthesizer
	Feedback    FeedbackComposer
}

// Option configures a [Server].
type Option func(*Server)

// WithMaxBodyBytes caps request bodies. Default: [config.DefaultMaxBodyBytes].
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithChatOptions sets the model parameters for /chat completions.
func WithChatOptions(o gateway.CompletionOptions) Option {
	return func(s *Server) { s.chatOpts = o }
}

// WithMetrics sets the metric instruments. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Server holds the handlers of the training API.
type Server struct {
	deps     Dependencies
	maxBody  int64
	chatOpts gateway.CompletionOptions
	metrics  *observe.Metrics
}

// NewServer returns a Server. A nil Prompts builder uses the embedded
// templates.
func NewServer(deps Dependencies, opts ...Option) *Server {
	if deps.Prompts == nil {
		deps.Prompts = prompt.Default()
	}
	s := &Server{
		deps:     deps,
		maxBody:  config.DefaultMaxBodyBytes,
		chatOpts: gateway.CompletionOptions{Temperature: new(config.DefaultChatTemperature)},
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Register adds the API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat", s.Chat)
	mux.HandleFunc("POST /transcribe", s.Transcribe)
	mux.HandleFunc("POST /voice", s.Voice)
	mux.HandleFunc("POST /feedback", s.Feedback)
	mux.HandleFunc("GET /personas", s.Personas)
}

// resolve looks up the persona and counts the request under its id, or
// under "generic" when the id is unknown.
func (s *Server) resolve(ctx context.Context, id, route string) *persona.Profile {
	p := s.deps.Personas.Resolve(id)
	s.metrics.RecordPersonaRequest(ctx, persona.Label(p), route)
	return p
}
