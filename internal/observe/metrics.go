// Package observe provides application-wide observability primitives for the
// training backend: OpenTelemetry metrics, tracing, trace-aware structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is installed by [InitProvider] so that metrics can be scraped
// via the standard /metrics endpoint. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/sirfaxe-ai/aok-training-backend"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms per gateway ---

	// CompletionDuration tracks text-completion latency (chat and feedback).
	CompletionDuration metric.Float64Histogram

	// TranscriptionDuration tracks speech-to-text latency.
	TranscriptionDuration metric.Float64Histogram

	// SpeechDuration tracks text-to-speech latency.
	SpeechDuration metric.Float64Histogram

	// --- Counters ---

	// GatewayRequests counts outbound provider calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	GatewayRequests metric.Int64Counter

	// GatewayErrors counts failed outbound calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("code", ...)
	GatewayErrors metric.Int64Counter

	// PersonaRequests counts requests per resolved persona. Use with attributes:
	//   attribute.String("persona", ...), attribute.String("route", ...)
	PersonaRequests metric.Int64Counter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// hosted model calls, which range from sub-second to tens of seconds.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.CompletionDuration, err = m.Float64Histogram("trainer.completion.duration",
		metric.WithDescription("Latency of text completion calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscriptionDuration, err = m.Float64Histogram("trainer.transcription.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SpeechDuration, err = m.Float64Histogram("trainer.speech.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.GatewayRequests, err = m.Int64Counter("trainer.gateway.requests",
		metric.WithDescription("Total outbound provider requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.GatewayErrors, err = m.Int64Counter("trainer.gateway.errors",
		metric.WithDescription("Total failed provider requests by provider, kind, and error code."),
	); err != nil {
		return nil, err
	}
	if met.PersonaRequests, err = m.Int64Counter("trainer.persona.requests",
		metric.WithDescription("Total requests by resolved persona and route."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("trainer.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordGatewayRequest records one outbound provider call with the standard
// attribute set.
func (m *Metrics) RecordGatewayRequest(ctx context.Context, provider, kind, status string) {
	m.GatewayRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordGatewayError records one failed outbound provider call.
func (m *Metrics) RecordGatewayError(ctx context.Context, provider, kind, code string) {
	m.GatewayErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("code", code),
		),
	)
}

// RecordPersonaRequest records a request served for persona on route. Pass
// "generic" when no persona was resolved.
func (m *Metrics) RecordPersonaRequest(ctx context.Context, persona, route string) {
	m.PersonaRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("persona", persona),
			attribute.String("route", route),
		),
	)
}
