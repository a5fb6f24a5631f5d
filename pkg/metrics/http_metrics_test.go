package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsRequests(t *testing.T) {
	m := NewHTTPMetrics("metrics-test")
	// A second collector must not panic on registration.
	NewHTTPMetrics("metrics-test")

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/conflict", func(c echo.Context) error { return c.NoContent(http.StatusConflict) })

	for _, path := range []string{"/ok", "/ok", "/conflict"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(RequestCounter.WithLabelValues("metrics-test", "GET", "/ok", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(StatusCodeCategoryCounter.WithLabelValues("metrics-test", "4xx", "GET", "/conflict")))
}

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", statusCategory(201))
	assert.Equal(t, "4xx", statusCategory(409))
	assert.Equal(t, "5xx", statusCategory(500))
	assert.Equal(t, "", statusCategory(302))
}

func TestGetPrometheusHandler(t *testing.T) {
	NewHTTPMetrics("metrics-test")
	rec := httptest.NewRecorder()
	GetPrometheusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
