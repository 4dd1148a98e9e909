package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestAuthEvents_KeyedByUserWithTraceHeaders(t *testing.T) {
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.TraceContext{})

	w := &fakeWriter{}
	events := NewAuthEventsKafka(newProducer(w, "vidtube.auth.events"))

	payload := []byte(`{"type":"session.started"}`)
	require.NoError(t, events.PublishAuthEvent(context.Background(), "user-1", payload))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("user-1"), w.msgs[0].Key)
	assert.Equal(t, payload, w.msgs[0].Value)
	assert.NotEmpty(t, headerValue(w.msgs[0].Headers, "traceparent"))
}

func TestProducer_WriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := newProducer(&fakeWriter{err: boom}, "t")
	assert.ErrorIs(t, p.Publish(context.Background(), []byte("k"), []byte("v")), boom)
}

func TestEnsureTopic_NoBrokers(t *testing.T) {
	assert.ErrorIs(t, EnsureTopic(context.Background(), nil, TopicSpec{Name: "t"}, nil), ErrNoBrokers)
}
