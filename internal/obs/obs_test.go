package obs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithTrace(t *testing.T) {
	assert.NotNil(t, WithTrace(context.Background(), nil))

	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	WithTrace(context.Background(), log).Info("no span")

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	WithTrace(ctx, log).Info("with span")
	span.End()

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.NotContains(t, entries[0].ContextMap(), "trace_id")
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[1].ContextMap()["trace_id"])
}

func TestObserveAuth(t *testing.T) {
	before := testutil.ToFloat64(authOps.WithLabelValues("login", "error"))
	ObserveAuth("login", errors.New("nope"))
	assert.Equal(t, before+1, testutil.ToFloat64(authOps.WithLabelValues("login", "error")))
}

func TestRegisterOps_Health(t *testing.T) {
	healthy := true
	mux := OpsMux(func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("db down")
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	healthy = false
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHTTPMetrics_LabelsByPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := HTTPMetrics(mux)

	before := testutil.CollectAndCount(httpDuration)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/42", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/43", nil))
	assert.Equal(t, before+1, testutil.CollectAndCount(httpDuration))
}
