package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_operations_total",
		Help: "Session operations by outcome.",
	}, []string{"op", "result"})
	refreshReuse = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_refresh_reuse_total",
		Help: "Refresh tokens presented after they were rotated or cleared.",
	})
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
)

// ObserveAuth counts one session operation. result is "ok" when err is nil.
func ObserveAuth(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	authOps.WithLabelValues(op, result).Inc()
}

func ObserveRefreshReuse() { refreshReuse.Inc() }

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMetrics records latency per route pattern. Unmatched requests share
// one label so path scans cannot blow up cardinality.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(r.Method, route, strconv.Itoa(rec.code)).
			Observe(time.Since(start).Seconds())
	})
}
