package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/devlink-notifier/pkg/auth"
)

const testSecret = "0123456789abcdef0123"

func newAuthEngine(tokens *auth.SchedulerTokens) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/protected", NewAuthMiddleware(tokens).Authenticate(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextSchedulerSubject))
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewSchedulerTokens(testSecret, "devlink-cron")
	valid, err := tokens.Issue("vercel-cron", time.Minute)
	require.NoError(t, err)

	foreign, err := auth.NewSchedulerTokens("another-secret-entirely", "devlink-cron").Issue("x", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, "vercel-cron"},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, "vercel-cron"},
		{"missing header", "", http.StatusUnauthorized, `"unauthorized"`},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, `"unauthorized"`},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized, `"unauthorized"`},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, `"unauthorized"`},
	}

	r := newAuthEngine(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
		})
	}
}
