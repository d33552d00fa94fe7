package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/accord/internal/core/ports"
)

// Bridge implements sdktrace.SpanProcessor by reporting finished spans to a logger.
type Bridge struct {
	log ports.Logger
}

// NewBridge returns a new Bridge.
func NewBridge(log ports.Logger) *Bridge {
	return &Bridge{log: log}
}

// OnStart does nothing; spans are reported once they end.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name and duration, as a warning when the span recorded an error.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.log == nil || !s.SpanContext().IsValid() {
		return
	}

	elapsed := s.EndTime().Sub(s.StartTime()).Round(time.Microsecond)
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "failed"
		}
		b.log.Warn(fmt.Sprintf("trace: %s failed after %s: %s", s.Name(), elapsed, desc))
		return
	}
	b.log.Info(fmt.Sprintf("trace: %s took %s", s.Name(), elapsed))
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

// Setup registers a global tracer provider that sends spans to the given processors.
// The caller shuts the provider down when done.
func Setup(processors ...sdktrace.SpanProcessor) *sdktrace.TracerProvider {
	opts := make([]sdktrace.TracerProviderOption, 0, len(processors))
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp
}
