package search

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter applies global, per-domain and per-user limits to page fetches.
type rateLimiter struct {
	global  *rate.Limiter
	domains sync.Map // map[string]*rate.Limiter
	users   sync.Map // map[string]*rate.Limiter
}

func newRateLimiter(globalRate float64) *rateLimiter {
	return &rateLimiter{
		global: rate.NewLimiter(rate.Limit(globalRate), int(globalRate*2)),
	}
}

func (rl *rateLimiter) wait(ctx context.Context, userID, domain string, delay time.Duration) error {
	if err := rl.global.Wait(ctx); err != nil {
		return err
	}
	if err := rl.domainLimiter(domain, delay).Wait(ctx); err != nil {
		return err
	}
	return rl.userLimiter(userID).Wait(ctx)
}

func (rl *rateLimiter) domainLimiter(domain string, delay time.Duration) *rate.Limiter {
	if l, ok := rl.domains.Load(domain); ok {
		return l.(*rate.Limiter)
	}
	perSecond := 1.0 / delay.Seconds()
	perSecond = max(0.2, min(perSecond, 5.0))
	actual, _ := rl.domains.LoadOrStore(domain, rate.NewLimiter(rate.Limit(perSecond), 1))
	return actual.(*rate.Limiter)
}

func (rl *rateLimiter) userLimiter(userID string) *rate.Limiter {
	if l, ok := rl.users.Load(userID); ok {
		return l.(*rate.Limiter)
	}
	actual, _ := rl.users.LoadOrStore(userID, rate.NewLimiter(rate.Limit(5), 10))
	return actual.(*rate.Limiter)
}
