package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"worth-it/internal/common/logger"
)

// NewTracerProvider installs a global tracer provider whose finished spans are
// written to log at debug level. Extra processors (exporters) are appended.
func NewTracerProvider(log logger.Logger, processors ...sdktrace.SpanProcessor) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSpanProcessor(&logProcessor{logger: log}),
	}
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp
}

// ShutdownTracer flushes and stops tp within five seconds.
func ShutdownTracer(tp *sdktrace.TracerProvider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = tp.Shutdown(ctx)
}

type logProcessor struct {
	logger logger.Logger
}

func (p *logProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	fields := map[string]interface{}{
		"span":       s.Name(),
		"traceId":    s.SpanContext().TraceID().String(),
		"durationMs": s.EndTime().Sub(s.StartTime()).Milliseconds(),
		"status":     s.Status().Code.String(),
	}
	for _, kv := range s.Attributes() {
		fields[string(kv.Key)] = kv.Value.Emit()
	}
	p.logger.Debug("span finished", fields)
}

func (p *logProcessor) Shutdown(context.Context) error   { return nil }
func (p *logProcessor) ForceFlush(context.Context) error { return nil }
