package ratelimiter

import (
	"sync"
	"time"

	"github.com/SeakMengs/AutoSign/internal/config"
	"go.uber.org/zap"
)

type window struct {
	start time.Time
	count int
}

// FixedWindowRateLimiter counts requests per key in windows of cfg.TimeFrame.
type FixedWindowRateLimiter struct {
	sync.Mutex
	windows   map[string]*window
	limit     int
	frame     time.Duration
	lastSweep time.Time
	now       func() time.Time
	logger    *zap.SugaredLogger
}

func NewFixedWindowLimiter(cfg config.RateLimiterConfig, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		windows: make(map[string]*window),
		limit:   cfg.RequestsPerTimeFrame,
		frame:   cfg.TimeFrame,
		now:     time.Now,
		logger:  logger,
	}
}

// Allow reports whether the key may make another request. When it may not,
// the duration is how long until its window resets.
func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.frame {
		if now.Sub(rl.lastSweep) >= rl.frame {
			rl.sweep(now)
		}
		rl.windows[key] = &window{start: now, count: 1}
		return true, 0
	}

	if w.count >= rl.limit {
		retry := w.start.Add(rl.frame).Sub(now)
		rl.logger.Debugf("Rate limit exceeded for %s, retry after %s", key, retry)
		return false, retry
	}

	w.count++
	return true, 0
}

// sweep drops expired windows so idle clients do not pile up. It runs at
// most once per frame.
func (rl *FixedWindowRateLimiter) sweep(now time.Time) {
	rl.lastSweep = now
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.frame {
			delete(rl.windows, key)
		}
	}
}
