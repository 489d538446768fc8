// Package ratelimit gates credential endpoints per client IP using a Redis
// fixed-window counter, so limits hold across API replicas.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"bizdash/pkg/logger"
	"bizdash/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Policy names a limited surface and its budget.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// PerClientIP blocks the request with 429 once the client IP has used its
// budget for the current window. Redis failures let the request through.
func PerClientIP(rdb redis.Scripter, p Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || p.Limit <= 0 || p.Window <= 0 {
			c.Next()
			return
		}

		key := "bizdash:rl:" + p.Name + ":" + c.ClientIP()
		ok, err := utils.AllowFixedWindow(c.Request.Context(), rdb, key, p.Limit, p.Window)
		if err != nil {
			logger.FromGin(c).Warn("rate limit check failed", "policy", p.Name, "err", err)
			c.Next()
			return
		}
		if !ok {
			c.Header("Retry-After", formatSeconds(p.Window))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func formatSeconds(d time.Duration) string {
	s := int(d.Round(time.Second) / time.Second)
	if s < 1 {
		s = 1
	}
	return strconv.Itoa(s)
}
