// AngelaMos | 2026
// telemetry.go

package core

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/carterperez-dev/freelancer-packages/internal/config"
)

const (
	tracerName          = "freelancer-packages"
	defaultSampleRate   = 0.1
	exportTimeout       = 5 * time.Second
	tracerFlushDeadline = 10 * time.Second
)

// Telemetry owns the tracer provider installed for the process. When tracing
// is disabled the provider is nil and spans fall through to the global no-op.
type Telemetry struct {
	provider *sdktrace.TracerProvider
}

func NewTelemetry(
	ctx context.Context,
	otelCfg config.OtelConfig,
	appCfg config.AppConfig,
) (*Telemetry, error) {
	if !otelCfg.Enabled || otelCfg.Endpoint == "" {
		return &Telemetry{}, nil
	}

	exporter, err := newSpanExporter(ctx, otelCfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(otelCfg.ServiceName),
			semconv.ServiceVersion(appCfg.Version),
			semconv.DeploymentEnvironment(appCfg.Environment),
		),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(exportTimeout)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(otelCfg.SampleRate)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &Telemetry{provider: provider}, nil
}

func newSpanExporter(
	ctx context.Context,
	otelCfg config.OtelConfig,
) (sdktrace.SpanExporter, error) {
	creds := credentials.NewClientTLSFromCert(nil, "")
	if otelCfg.Insecure {
		creds = insecure.NewCredentials()
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otelCfg.Endpoint),
		otlptracegrpc.WithTimeout(exportTimeout),
		otlptracegrpc.WithTLSCredentials(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("dial otlp collector %s: %w", otelCfg.Endpoint, err)
	}
	return exporter, nil
}

// samplerFor keeps child spans with their parent's decision and samples new
// traces at rate, which must lie in (0, 1].
func samplerFor(rate float64) sdktrace.Sampler {
	if rate <= 0 || rate > 1 {
		rate = defaultSampleRate
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
}

func (t *Telemetry) Enabled() bool {
	return t.provider != nil
}

// Shutdown flushes buffered spans. It is a no-op when tracing is disabled.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}

	flushCtx, cancel := context.WithTimeout(ctx, tracerFlushDeadline)
	defer cancel()

	if err := t.provider.Shutdown(flushCtx); err != nil {
		return fmt.Errorf("flush spans: %w", err)
	}
	return nil
}

// StartSpan opens a span on the global provider.
func StartSpan(
	ctx context.Context,
	name string,
	attrs ...attribute.KeyValue,
) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

func SetSpanError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
