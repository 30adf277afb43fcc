package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/devlink-notifier/pkg/httputil"
)

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
}

// RateLimiter is a single token bucket shared by every caller of the
// trigger endpoints. There is one scheduler, so no per-client buckets.
type RateLimiter struct {
	limiter    *rate.Limiter
	retryAfter string
}

// NewRateLimiter treats a non-positive rate as unlimited.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = rate.Inf
	}
	rl := &RateLimiter{limiter: rate.NewLimiter(config.Rate, config.Burst)}
	if config.Rate != rate.Inf {
		rl.retryAfter = strconv.Itoa(int(math.Ceil(1 / float64(config.Rate))))
	}
	return rl
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limiter.Allow() {
			c.Next()
			return
		}
		if rl.retryAfter != "" {
			c.Header("Retry-After", rl.retryAfter)
		}
		httputil.Abort(c, http.StatusTooManyRequests, "rate limit exceeded")
	}
}
