package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/devlink-notifier/pkg/httputil"
)

// Recovery turns a handler panic into a 500 envelope. A panic after the
// response started is only logged.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("route", c.FullPath()).
				Str("method", c.Request.Method).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			httputil.AbortInternal(c)
		}()
		c.Next()
	}
}
