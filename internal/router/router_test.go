package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/devlink-notifier/internal/handler/health"
	jobshandler "github.com/jwalitptl/devlink-notifier/internal/handler/jobs"
	"github.com/jwalitptl/devlink-notifier/internal/handler/prometheus"
	"github.com/jwalitptl/devlink-notifier/internal/middleware"
	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/pkg/auth"
)

type stubRunner struct{}

func (stubRunner) Names() []string { return []string{"weekly-digest"} }

func (stubRunner) Run(_ context.Context, name string) (*model.JobResult, error) {
	return &model.JobResult{Job: name, Success: true}, nil
}

func newTestRouter(t *testing.T) (*Router, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewSchedulerTokens("router-test-secret-123", "devlink-cron")
	token, err := tokens.Issue("cron", time.Minute)
	require.NoError(t, err)

	r := NewRouter(
		middleware.NewAuthMiddleware(tokens),
		health.NewHandler(map[string]health.Check{
			"database": func(context.Context) error { return nil },
		}),
		prometheus.New(prom.NewRegistry(), "devlink_notifier"),
		RouterConfig{RateLimit: 100, RateBurst: 100},
		jobshandler.NewHandler(stubRunner{}),
	)
	return r, token
}

func TestRouter(t *testing.T) {
	r, token := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"health is public", http.MethodGet, "/api/v1/health/ready", "", http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", "", http.StatusOK},
		{"jobs require auth", http.MethodGet, "/api/v1/jobs", "", http.StatusUnauthorized},
		{"jobs with token", http.MethodGet, "/api/v1/jobs", token, http.StatusOK},
		{"run with token", http.MethodPost, "/api/v1/jobs/weekly-digest/run", token, http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/nope", token, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.Engine().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
		})
	}
}
