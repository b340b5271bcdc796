package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/pkg/redis"
)

// Throttle scopes
const (
	ScopeAnon = "anon"
	ScopeUser = "user"
)

// Counter increments a key, setting its TTL on first use
type Counter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Throttle is a fixed-window rate limiter. A nil counter disables it.
type Throttle struct {
	counter Counter
	window  time.Duration
	now     func() time.Time
}

func NewThrottle(counter Counter, window time.Duration) *Throttle {
	if window <= 0 {
		window = time.Minute
	}
	return &Throttle{counter: counter, window: window, now: time.Now}
}

// Anon limits anonymous callers per client IP. Authenticated callers pass.
func (t *Throttle) Anon(limit int) gin.HandlerFunc {
	return t.limit(ScopeAnon, limit, func(c *gin.Context) (string, bool) {
		if GetPrincipal(c) != nil {
			return "", false
		}
		return c.ClientIP(), true
	})
}

// User limits authenticated callers per user id and everyone else per IP
func (t *Throttle) User(limit int) gin.HandlerFunc {
	return t.limit(ScopeUser, limit, func(c *gin.Context) (string, bool) {
		if id, ok := GetUserID(c); ok {
			return strconv.FormatUint(uint64(id), 10), true
		}
		return "ip:" + c.ClientIP(), true
	})
}

func (t *Throttle) limit(scope string, limit int, subject func(*gin.Context) (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if t == nil || t.counter == nil || limit <= 0 {
			c.Next()
			return
		}
		who, ok := subject(c)
		if !ok {
			c.Next()
			return
		}

		now := t.now()
		key := redis.ThrottleKey(scope, who, t.window, now)
		count, err := t.counter.IncrWithTTL(c.Request.Context(), key, t.window)
		if err != nil {
			// fail open
			GetLoggerFromContext(c).Warn("Throttle counter unavailable", map[string]interface{}{
				"scope": scope,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		if count > int64(limit) {
			retry := t.window - time.Duration(now.UnixNano()%int64(t.window))
			wait := int(math.Ceil(retry.Seconds()))
			c.Header("Retry-After", strconv.Itoa(wait))
			GetLoggerFromContext(c).Warn("Request throttled", map[string]interface{}{
				"scope":   scope,
				"subject": who,
				"count":   count,
			})
			apperrors.TooManyRequests(c, fmt.Sprintf("Request was throttled. Expected available in %d seconds.", wait))
			return
		}
		c.Next()
	}
}
