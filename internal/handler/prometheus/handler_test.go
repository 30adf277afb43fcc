package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestHandler_RecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(prometheus.NewRegistry(), "devlink_notifier")

	r := gin.New()
	r.Use(h.Middleware())
	r.GET("/metrics", h.Handler())
	r.GET("/jobs/:name", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/jobs/x", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `devlink_notifier_http_requests_total{method="GET",path="/jobs/:name",status="404"} 1`)
	assert.Contains(t, w.Body.String(), `devlink_notifier_http_errors_total{method="GET",path="/jobs/:name",status="404"} 1`)
	assert.Contains(t, w.Body.String(), "devlink_notifier_http_requests_in_flight 1")
}
