package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/devlink-notifier/pkg/auth"
	apperrors "github.com/jwalitptl/devlink-notifier/pkg/errors"
	"github.com/jwalitptl/devlink-notifier/pkg/httputil"
)

const ContextSchedulerSubject = "scheduler_subject"

type AuthMiddleware struct {
	tokens *auth.SchedulerTokens
}

func NewAuthMiddleware(tokens *auth.SchedulerTokens) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the scheduler bearer token and stores its subject in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("missing authorization header")))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("invalid authorization format")))
			return
		}

		claims, err := m.tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			httputil.RespondWithError(c, apperrors.Unauthorized(err))
			return
		}

		c.Set(ContextSchedulerSubject, claims.Subject)
		c.Next()
	}
}
