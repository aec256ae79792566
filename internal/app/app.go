// Package app wires all subsystems of the training backend into a running
// HTTP service.
//
// The App struct owns the full lifecycle: New builds the persona table, the
// prompt templates, the gateways and the HTTP handler; Run serves until the
// context is cancelled; Shutdown drains in-flight requests.
//
// For testing, inject doubles via functional options (WithPersonas,
// WithListener, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sirfaxe-ai/aok-training-backend/internal/api"
	"github.com/sirfaxe-ai/aok-training-backend/internal/config"
	"github.com/sirfaxe-ai/aok-training-backend/internal/feedback"
	"github.com/sirfaxe-ai/aok-training-backend/internal/gateway"
	"github.com/sirfaxe-ai/aok-training-backend/internal/health"
	"github.com/sirfaxe-ai/aok-training-backend/internal/observe"
	"github.com/sirfaxe-ai/aok-training-backend/internal/persona"
	"github.com/sirfaxe-ai/aok-training-backend/internal/phonetic"
	"github.com/sirfaxe-ai/aok-training-backend/internal/prompt"
	"github.com/sirfaxe-ai/aok-training-backend/internal/resilience"
	"github.com/sirfaxe-ai/aok-training-backend/internal/voice"
	"github.com/sirfaxe-ai/aok-training-backend/pkg/provider/llm"
	"github.com/sirfaxe-ai/aok-training-backend/pkg/provider/stt"
	"github.com/sirfaxe-ai/aok-training-backend/pkg/provider/tts"
)

// readHeaderTimeout bounds how long a client may take to send request headers.
const readHeaderTimeout = 10 * time.Second

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured; the matching endpoint then answers 500 and
// /readyz reports the slot as failing. Populated by main.go via the config
// registry.
type Providers struct {
	LLM llm.Provider
	STT stt.Provider
	TTS tts.Provider
}

// App owns all subsystem lifetimes.
type App struct {
	cfg       *config.Config
	providers *Providers

	personas       *persona.Registry
	prompts        *prompt.Builder
	metrics        *observe.Metrics
	metricsHandler http.Handler
	listener       net.Listener

	breakers map[gateway.Kind]*resilience.CircuitBreaker
	handler  http.Handler
	server   *http.Server

	// closers are called in order during Shutdown.
	closers []func(context.Context) error

	// stopOnce guards the Shutdown path.
	stopOnce    sync.Once
	shutdownErr error
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithPersonas injects a persona registry instead of loading one from config.
func WithPersonas(r *persona.Registry) Option {
	return func(a *App) { a.personas = r }
}

// WithPrompts injects a prompt builder instead of loading templates from config.
func WithPrompts(b *prompt.Builder) Option {
	return func(a *App) { a.prompts = b }
}

// WithMetrics sets the metric instruments. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithListener makes Run serve on ln instead of listening on
// cfg.Server.ListenAddr.
func WithListener(ln net.Listener) Option {
	return func(a *App) { a.listener = ln }
}

// WithCloser registers fn to run during Shutdown after the HTTP server has
// drained, in registration order.
func WithCloser(fn func(context.Context) error) Option {
	return func(a *App) { a.closers = append(a.closers, fn) }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry).
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Persona table ─────────────────────────────────────────────────
	if err := a.initPersonas(); err != nil {
		return nil, fmt.Errorf("app: init personas: %w", err)
	}

	// ── 2. Prompt templates ──────────────────────────────────────────────
	if err := a.initPrompts(); err != nil {
		return nil, fmt.Errorf("app: init prompts: %w", err)
	}

	// ── 3. Gateways + HTTP handler ───────────────────────────────────────
	a.initHandler()

	a.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	slog.Info("app initialised",
		"personas", a.personas.Len(),
		"llm", providerName(providers.LLM),
		"stt", providerName(providers.STT),
		"tts", providerName(providers.TTS),
	)
	return a, nil
}

func (a *App) initPersonas() error {
	if a.personas != nil {
		return nil
	}
	opts := []persona.Option{persona.WithVoiceCheck(voice.IsValid)}
	if a.cfg.Personas.File == "" {
		a.personas = persona.Builtin(opts...)
		return nil
	}
	reg, err := persona.LoadFile(a.cfg.Personas.File, opts...)
	if err != nil {
		return err
	}
	slog.Info("loaded persona file", "path", a.cfg.Personas.File, "personas", reg.Len())
	a.personas = reg
	return nil
}

func (a *App) initPrompts() error {
	if a.prompts != nil {
		return nil
	}
	p := a.cfg.Prompts
	if p.SystemFile == "" && p.GenericFile == "" && p.FeedbackFile == "" {
		a.prompts = prompt.Default()
		return nil
	}
	t, err := prompt.LoadFiles(p.SystemFile, p.GenericFile, p.FeedbackFile)
	if err != nil {
		return err
	}
	b, err := prompt.New(t)
	if err != nil {
		return err
	}
	a.prompts = b
	return nil
}

func (a *App) initHandler() {
	a.breakers = make(map[gateway.Kind]*resilience.CircuitBreaker, 3)
	gwOpts := func(kind gateway.Kind, extra ...gateway.Option) []gateway.Option {
		opts := append([]gateway.Option{gateway.WithMetrics(a.metrics)}, extra...)
		if a.cfg.Resilience.Disabled {
			return opts
		}
		cb := resilience.New(resilience.Config{
			Name:         string(kind),
			MaxFailures:  a.cfg.Resilience.MaxFailures,
			ResetTimeout: a.cfg.Resilience.ResetTimeout,
		})
		a.breakers[kind] = cb
		return append(opts, gateway.WithBreaker(cb))
	}

	sttCfg := a.cfg.Providers.STT
	completion := gateway.NewCompletion(a.providers.LLM, gwOpts(gateway.KindCompletion)...)
	transcription := gateway.NewTranscription(a.providers.STT, gwOpts(gateway.KindTranscription,
		gateway.WithLanguage(sttCfg.Language),
		gateway.WithVocabulary(sttCfg.Vocabulary),
	)...)
	speech := gateway.NewSpeech(a.providers.TTS, gwOpts(gateway.KindSpeech)...)

	composer := feedback.NewComposer(completion, a.personas, a.prompts,
		feedback.WithNameFinder(phonetic.New()),
		feedback.WithCompletionOptions(modelOptions(a.cfg.Feedback)),
	)

	srv := api.NewServer(api.Dependencies{
		Personas:    a.personas,
		Prompts:     a.prompts,
		Completion:  completion,
		Transcriber: transcription,
		Speech:      speech,
		Feedback:    composer,
	},
		api.WithMaxBodyBytes(a.cfg.Server.MaxBodyBytes),
		api.WithChatOptions(modelOptions(a.cfg.Chat)),
		api.WithMetrics(a.metrics),
	)

	probes := health.New("",
		a.providerCheck(gateway.KindCompletion, a.providers.LLM != nil),
		a.providerCheck(gateway.KindTranscription, a.providers.STT != nil),
		a.providerCheck(gateway.KindSpeech, a.providers.TTS != nil),
	)

	mux := http.NewServeMux()
	probes.Register(mux)
	srv.Register(mux)
	if a.metricsHandler != nil {
		mux.Handle("GET /metrics", a.metricsHandler)
	}

	a.handler = observe.Middleware(a.metrics)(api.CORS(a.cfg.Server.AllowedOrigin)(api.JSONFallback(mux)))
}

// providerCheck reports a gateway as not ready when it has no provider or
// its breaker is open.
func (a *App) providerCheck(kind gateway.Kind, configured bool) health.Checker {
	return health.Checker{
		Name: string(kind),
		Check: func(context.Context) error {
			if !configured {
				return errors.New("provider not configured")
			}
			if cb := a.breakers[kind]; cb != nil && cb.State() == resilience.StateOpen {
				return resilience.ErrCircuitOpen
			}
			return nil
		},
	}
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP until ctx is cancelled, then shuts down gracefully within
// cfg.Server.ShutdownTimeout. It returns nil after a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	ln := a.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.server.Addr)
		if err != nil {
			return fmt.Errorf("app: listen %s: %w", a.server.Addr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", ln.Addr().String())
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout())
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown stops accepting connections, waits for in-flight requests and runs
// the registered closers. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if err := a.server.Shutdown(ctx); err != nil {
			slog.Warn("http server shutdown", "err", err)
			a.shutdownErr = err
		}

		for i, closer := range a.closers {
			if err := closer(ctx); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return a.shutdownErr
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (a *App) shutdownTimeout() time.Duration {
	if d := a.cfg.Server.ShutdownTimeout; d > 0 {
		return d
	}
	return config.DefaultShutdownTimeout
}

func modelOptions(m config.ModelConfig) gateway.CompletionOptions {
	o := gateway.CompletionOptions{MaxTokens: m.MaxTokens}
	if m.Temperature != nil {
		o.Temperature = new(*m.Temperature)
	}
	return o
}

type named interface{ Name() string }

func providerName(p named) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}
