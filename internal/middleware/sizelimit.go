package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/devlink-notifier/pkg/httputil"
)

// DefaultMaxBodySize covers every trigger payload with room to spare.
const DefaultMaxBodySize int64 = 64 << 10

// SizeLimit rejects declared bodies over maxBytes and caps streamed ones.
func SizeLimit(maxBytes int64) gin.HandlerFunc {
	message := fmt.Sprintf("body size exceeds %d bytes", maxBytes)
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			httputil.Abort(c, http.StatusRequestEntityTooLarge, message)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
