package ratelimiter

import (
	"time"

	"github.com/SeakMengs/AutoSign/internal/config"
	"github.com/SeakMengs/AutoSign/internal/util"
	"go.uber.org/zap"
)

type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

func NewRateLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	// For unit test
	if logger == nil {
		logger = util.NewLogger("test")
	}

	return NewFixedWindowLimiter(cfg, logger)
}
