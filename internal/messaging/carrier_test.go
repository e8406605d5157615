package messaging

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestMessageCarrierRoundTrip(t *testing.T) {
	msg := &kafka.Message{}
	carrier := newMessageCarrier(msg)

	carrier.Set("traceparent", "00-0123456789abcdef0123456789abcdef-0123456789abcdef-01")
	carrier.Set("traceparent", "00-ffffffffffffffffffffffffffffffff-ffffffffffffffff-01")
	carrier.Set("baggage", "tenant=lvlup")

	if len(msg.Headers) != 2 {
		t.Fatalf("expected Set to replace existing headers, got %d headers", len(msg.Headers))
	}
	if got := carrier.Get("traceparent"); got != "00-ffffffffffffffffffffffffffffffff-ffffffffffffffff-01" {
		t.Errorf("unexpected traceparent: %s", got)
	}
	if got := carrier.Get("missing"); got != "" {
		t.Errorf("expected empty value for missing key, got %q", got)
	}
	if keys := carrier.Keys(); len(keys) != 2 {
		t.Errorf("expected 2 keys, got %v", keys)
	}
}

func TestMessageCarrierPropagation(t *testing.T) {
	propagator := propagation.TraceContext{}

	traceID, _ := trace.TraceIDFromHex("0123456789abcdef0123456789abcdef")
	spanID, _ := trace.SpanIDFromHex("0123456789abcdef")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	msg := &kafka.Message{}
	propagator.Inject(ctx, newMessageCarrier(msg))

	extracted := propagator.Extract(context.Background(), newMessageCarrier(msg))
	got := trace.SpanContextFromContext(extracted)
	if got.TraceID() != traceID {
		t.Errorf("expected trace id %s to survive the round trip, got %s", traceID, got.TraceID())
	}
	if !got.IsRemote() {
		t.Error("expected extracted span context to be remote")
	}
}
