package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegistryExposesCollectors(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Handler.RequestCount.WithLabelValues("GET", "/ads/{ad_id}", "success").Inc()
	reg.Service.MethodCount.WithLabelValues("GetAdByID", "success").Inc()
	reg.Repository.QueryCount.WithLabelValues("GetAdByID", "success").Inc()

	rec := httptest.NewRecorder()
	reg.Handler.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{
		"handler_requests_total",
		"service_methods_total",
		"repository_queries_total",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestNewRegistryIsIsolated(t *testing.T) {
	t.Parallel()

	// Two registries in one process must not collide.
	_ = NewRegistry()
	_ = NewRegistry()
}
