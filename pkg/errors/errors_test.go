package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_StatusCode(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantText   string
	}{
		{"not found", NotFound("job", cause), http.StatusNotFound, "job not found: cause"},
		{"bad request", BadRequest("bad metric", nil), http.StatusBadRequest, "bad metric"},
		{"unauthorized", Unauthorized(cause), http.StatusUnauthorized, "unauthorized: cause"},
		{"conflict", Conflict("job already running", nil), http.StatusConflict, "job already running"},
		{"internal", Internal(cause), http.StatusInternalServerError, "internal server error: cause"},
		{"config is not an http error", Config(cause), http.StatusInternalServerError, "invalid configuration: cause"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode())
			assert.Equal(t, tt.wantText, tt.err.Error())
		})
	}
}

func TestHasCode(t *testing.T) {
	cause := errors.New("no rows")
	wrapped := fmt.Errorf("load user: %w", NotFound("user", cause))

	assert.True(t, HasCode(wrapped, ErrNotFound))
	assert.False(t, HasCode(wrapped, ErrConflict))
	assert.False(t, HasCode(cause, ErrNotFound))
	assert.ErrorIs(t, wrapped, cause)
}
