// Package gateway adapts the provider interfaces in pkg/provider to the
// service's domain types.
//
// Each gateway makes exactly one synchronous provider call per operation and
// never retries. Every failure comes back as a *[GatewayError] with a stable
// [Code]. Calls are wrapped in a span, timed into the matching latency
// histogram and guarded by an optional circuit breaker.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/sirfaxe-ai/aok-training-backend/internal/observe"
	"github.com/sirfaxe-ai/aok-training-backend/internal/resilience"
)

// Option configures a gateway. Options that do not apply to a gateway type
// are ignored by it.
type Option func(*settings)

type settings struct {
	metrics  *observe.Metrics
	breaker  *resilience.CircuitBreaker
	language string
	hint     string
}

// WithMetrics sets the metric instruments. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithBreaker guards every provider call with cb.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(s *settings) { s.breaker = cb }
}

// WithLanguage sets the transcription language hint (e.g. "de").
func WithLanguage(lang string) Option {
	return func(s *settings) { s.language = lang }
}

// WithVocabulary sets the transcription vocabulary hint, such as names and
// product terms the recogniser should expect.
func WithVocabulary(hint string) Option {
	return func(s *settings) { s.hint = hint }
}

func newSettings(opts []Option) settings {
	var s settings
	for _, o := range opts {
		o(&s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// invoker runs one instrumented provider call.
type invoker struct {
	kind     Kind
	provider string
	metrics  *observe.Metrics
	breaker  *resilience.CircuitBreaker
	latency  metric.Float64Histogram
}

// invoke runs fn through the breaker inside a span and records metrics. The
// returned error is nil or a *GatewayError.
func (iv *invoker) invoke(ctx context.Context, fn func(context.Context) error) error {
	ctx, span := observe.StartSpan(ctx, "gateway."+string(iv.kind),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("provider", iv.provider)),
	)

	// A blank answer proves the provider is reachable, so the breaker sees it
	// as a success.
	var empty bool
	start := time.Now()
	err := iv.breaker.Execute(ctx, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, errEmpty) {
			empty = true
			return nil
		}
		return err
	})
	if err == nil && empty {
		err = errEmpty
	}
	iv.latency.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("provider", iv.provider)))

	if err == nil {
		iv.metrics.RecordGatewayRequest(ctx, iv.provider, string(iv.kind), "ok")
		observe.EndSpan(span, nil)
		return nil
	}

	if errors.Is(ctx.Err(), context.Canceled) && !errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %w", context.Canceled, err)
	}
	gerr := classify(iv.kind, err)
	iv.metrics.RecordGatewayRequest(ctx, iv.provider, string(iv.kind), "error")
	iv.metrics.RecordGatewayError(ctx, iv.provider, string(iv.kind), string(gerr.Code))
	span.SetAttributes(attribute.String("gateway.error_code", string(gerr.Code)))
	observe.EndSpan(span, gerr)
	return gerr
}

// notConfigured is returned by gateways built without a provider.
func notConfigured(kind Kind) error {
	return classify(kind, errNotConfigured)
}
