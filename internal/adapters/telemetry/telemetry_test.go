package telemetry_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/accord/internal/adapters/telemetry"
	"go.trai.ch/accord/internal/core/ports"
	"go.trai.ch/accord/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestOTelTracer_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := telemetry.Setup(recorder)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tracer := telemetry.NewOTelTracer("accord-test")
	ctx, root := tracer.Start(t.Context(), "resolve", ports.WithAttribute("accord.requirements", 4))
	tracer.EmitPlan(ctx, [][]string{{"a", "b"}, {"c"}})

	_, child := tracer.Start(ctx, "resolve a")
	child.SetAttribute("accord.component.status", "Completed")
	child.SetAttribute("accord.ratio", 0.5)
	child.SetAttribute("accord.done", true)
	child.SetAttribute("accord.names", []string{"a", "b"})
	child.SetAttribute("accord.other", struct{ N int }{N: 7})
	_, err := child.Write([]byte("hello"))
	require.NoError(t, err)
	child.RecordError(errors.New("boom"))
	child.End()
	root.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	c := spans[0]
	assert.Equal(t, "resolve a", c.Name())
	assert.Equal(t, codes.Error, c.Status().Code)
	assert.Equal(t, "boom", c.Status().Description)
	a := attrs(c)
	assert.Equal(t, "Completed", a["accord.component.status"].AsString())
	assert.InDelta(t, 0.5, a["accord.ratio"].AsFloat64(), 1e-9)
	assert.True(t, a["accord.done"].AsBool())
	assert.Equal(t, []string{"a", "b"}, a["accord.names"].AsStringSlice())
	assert.Equal(t, "{7}", a["accord.other"].AsString())

	r := spans[1]
	assert.Equal(t, "resolve", r.Name())
	assert.Equal(t, int64(4), attrs(r)["accord.requirements"].AsInt64())
	require.Len(t, r.Events(), 1)
	assert.Equal(t, "plan_emitted", r.Events()[0].Name)
	assert.Equal(t, c.Parent().SpanID(), r.SpanContext().SpanID())
}

func TestOTelTracer_EmitPlanWithoutSpan(t *testing.T) {
	tracer := telemetry.NewOTelTracer("accord-test")
	assert.NotPanics(t, func() {
		tracer.EmitPlan(context.Background(), [][]string{{"a"}})
	})
}

func TestBridge_ReportsFinishedSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	var infos, warns []string
	log.EXPECT().Info(gomock.Any()).Do(func(msg string) { infos = append(infos, msg) })
	log.EXPECT().Warn(gomock.Any()).Do(func(msg string) { warns = append(warns, msg) })

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(log)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := tp.Tracer("test")

	_, ok := tracer.Start(t.Context(), "lock apply")
	ok.End()

	_, bad := tracer.Start(t.Context(), "resolve")
	bad.SetStatus(codes.Error, "invalid config")
	bad.End()

	require.Len(t, infos, 1)
	assert.True(t, strings.HasPrefix(infos[0], "trace: lock apply took "), infos[0])
	require.Len(t, warns, 1)
	assert.True(t, strings.HasPrefix(warns[0], "trace: resolve failed after "), warns[0])
	assert.True(t, strings.HasSuffix(warns[0], ": invalid config"), warns[0])
}

func TestBridge_NilLogger(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(nil)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	assert.NotPanics(t, func() {
		_, span := tp.Tracer("test").Start(t.Context(), "noop")
		span.End()
	})
}
