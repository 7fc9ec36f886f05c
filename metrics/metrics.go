/*
Package metrics exposes Prometheus metrics for the ledger and its HTTP API.

METRICS:
  eggs_ledger_operations_total{operation,result}  every ledger call
  eggs_ledger_eggs_recorded_total                  eggs in committed entries
  eggs_http_request_duration_seconds{method,route,status}

RESULT LABEL:
  ok           operation succeeded
  client_error rejected input or state (4xx class)
  error        storage or unexpected failure

Metrics register on the default registry at init, so /metrics is served
with promhttp.Handler().
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/warp/egg-ledger/ledger"
)

// LedgerOperations counts ledger calls by outcome.
var LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "eggs",
	Subsystem: "ledger",
	Name:      "operations_total",
	Help:      "Ledger operations by name and result.",
}, []string{"operation", "result"})

// EggsRecorded counts eggs across committed daily entries. Undo does not
// decrement it.
var EggsRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "eggs",
	Subsystem: "ledger",
	Name:      "eggs_recorded_total",
	Help:      "Eggs recorded in committed daily entries.",
})

// HTTPDuration tracks request latency by route pattern.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "eggs",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request duration by method, route and status.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// Collector feeds ledger outcomes into the package metrics.
type Collector struct{}

var _ ledger.Observer = Collector{}

func (Collector) Operation(name string, err error) {
	LedgerOperations.WithLabelValues(name, Result(err)).Inc()
}

func (Collector) EggsRecorded(eggs int64) {
	EggsRecorded.Add(float64(eggs))
}

// Result classifies err for the result label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case ledger.IsClientError(err):
		return "client_error"
	default:
		return "error"
	}
}

// Middleware records request duration. The route label is the chi pattern,
// so path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
