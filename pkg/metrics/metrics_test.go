package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/farmlink/pkg/metrics"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(m.Middleware())
	r.Get("/product/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/product/"+id, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "/product/{id}", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestInFlight))
}

func TestIndependentRegistries(t *testing.T) {
	a, b := metrics.New(), metrics.New()
	a.OrdersPlaced.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.OrdersPlaced))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.OrdersPlaced))
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	m := metrics.New()
	m.ProductsCreated.Inc()
	m.RecordQueueJob("mail", "success", time.Now())
	m.ObserveDBQuery("select", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "farmlink_products_created_total 1"))
	assert.Contains(t, body, `farmlink_queue_jobs_processed_total{job_type="mail",status="success"} 1`)
	assert.Contains(t, body, "farmlink_db_query_duration_seconds")
}
