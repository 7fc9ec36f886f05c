package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/warp/egg-ledger/ledger"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "client_error", Result(&ledger.PersonNotFoundError{ID: 1}))
	assert.Equal(t, "client_error", Result(ledger.ErrNoEntryToUndo))
	assert.Equal(t, "error", Result(errors.New("disk on fire")))
}

func TestCollector_CountsOperations(t *testing.T) {
	c := Collector{}
	before := testutil.ToFloat64(LedgerOperations.WithLabelValues("test_op", "client_error"))

	c.Operation("test_op", ledger.ErrEmptyName)
	c.Operation("test_op", ledger.ErrEmptyName)

	after := testutil.ToFloat64(LedgerOperations.WithLabelValues("test_op", "client_error"))
	assert.Equal(t, before+2, after)

	eggsBefore := testutil.ToFloat64(EggsRecorded)
	c.EggsRecorded(12)
	assert.Equal(t, eggsBefore+12, testutil.ToFloat64(EggsRecorded))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/people/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/people/42", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	n := testutil.CollectAndCount(HTTPDuration, "eggs_http_request_duration_seconds")
	assert.GreaterOrEqual(t, n, 1)
}
