package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalPath(t *testing.T) {
	tests := map[string]string{
		"":                                 "/",
		"/":                                "/",
		"/api/items":                       "/api/items",
		"/api/items/H66AAA00001":           "/api/items/:id",
		"/api/items/H66AAA00001/change-id": "/api/items/:id/change-id",
		"/api/settings/next-id":            "/api/settings/next-id",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalPath(in), "path %q", in)
	}
}

func TestInstrumentHandlerCountsRequests(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/items/:id", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items/X1", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/items/:id", "418"))

	assert.Equal(t, before+1, after)
}

func TestRecordTransactionOutcome(t *testing.T) {
	ok := testutil.ToFloat64(transactions.WithLabelValues("check_in", "ok"))
	failed := testutil.ToFloat64(transactions.WithLabelValues("check_in", "error"))

	RecordTransaction("check_in", nil)
	RecordTransaction("check_in", errors.New("boom"))

	assert.Equal(t, ok+1, testutil.ToFloat64(transactions.WithLabelValues("check_in", "ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(transactions.WithLabelValues("check_in", "error")))
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordAllocation("auto")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "paintstock_inventory_id_allocations_total"))
}
