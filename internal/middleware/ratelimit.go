package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-wallet/pkg/tokenpkg"
	"github.com/go-petr/pet-wallet/pkg/web"
)

// KindRateLimited marks requests rejected by the rate limiter.
const KindRateLimited = "rate_limited"

// ErrTooManyRequests is returned once the caller exceeds the per minute budget.
var ErrTooManyRequests = errors.New("too many requests, try again later")

// RateLimit limits the requests per minute of every authenticated account,
// falling back to the client ip. Without Redis, or on Redis errors, requests
// pass through.
func RateLimit(cache *redis.Client, maxPerMin int) gin.HandlerFunc {
	if maxPerMin <= 0 {
		maxPerMin = 30
	}

	return func(c *gin.Context) {
		if cache == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		l := zerolog.Ctx(ctx)

		subject := c.ClientIP()
		if payload, ok := c.Get(AuthPayloadKey); ok {
			if p, ok := payload.(*tokenpkg.Payload); ok {
				subject = p.AccountID
			}
		}

		window := time.Now().UTC().Format("200601021504")
		key := "rl:wallet:" + subject + ":" + window

		cnt, err := cache.Incr(ctx, key).Result()
		if err != nil {
			l.Warn().Err(err).Msg("rate limiter unavailable")
			c.Next()

			return
		}

		if cnt == 1 {
			cache.Expire(ctx, key, time.Minute)
		}

		if cnt > int64(maxPerMin) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, web.Response{
				Error: &web.JSONError{Kind: KindRateLimited, Message: ErrTooManyRequests.Error()},
			})

			return
		}

		c.Next()
	}
}
