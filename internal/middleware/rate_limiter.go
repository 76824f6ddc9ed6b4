package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/SeakMengs/AutoSign/internal/util"
	"github.com/gin-gonic/gin"
)

func (m Middleware) RateLimiterMiddleware(ctx *gin.Context) {
	if !m.app.Config.RateLimiter.Enabled || m.rateLimiter == nil {
		ctx.Next()
		return
	}

	if allow, retryAfter := m.rateLimiter.Allow(ctx.ClientIP()); !allow {
		seconds := int(math.Ceil(retryAfter.Seconds()))
		ctx.Header("Retry-After", strconv.Itoa(seconds))
		util.ResponseFailed(ctx, http.StatusTooManyRequests, "Too many requests", util.GenerateErrorMessages(fmt.Errorf("rate limit exceeded, retry after %ds", seconds), "rateLimit"), nil)
		return
	}

	ctx.Next()
}
