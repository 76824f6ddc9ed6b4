package middleware

import (
	appcontext "github.com/SeakMengs/AutoSign/internal/app_context"
	ratelimiter "github.com/SeakMengs/AutoSign/internal/rate_limiter"
)

type Middleware struct {
	rateLimiter ratelimiter.Limiter
	app         *appcontext.Application
}

func NewMiddleware(app *appcontext.Application,
	rateLimiter ratelimiter.Limiter,
) *Middleware {
	return &Middleware{app: app, rateLimiter: rateLimiter}
}
