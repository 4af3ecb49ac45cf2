package auth

import (
	"context"
	"time"

	apperrors "github.com/logicalerror-in/elice-dev/internal/errors"
	"github.com/logicalerror-in/elice-dev/internal/logger"
)

const loginKeyPrefix = "login:"

// counterKV is the increment-with-expiry primitive the limiter rides on.
type counterKV interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// LoginLimiter throttles login attempts per (email, client IP) over a fixed
// window. The gate runs before any credential work, so locked-out attempts
// cost no hashing and leak no timing signal.
type LoginLimiter struct {
	kv       counterKV
	limit    int64
	window   time.Duration
	failOpen bool
	log      *logger.Logger
}

func NewLoginLimiter(kv counterKV, limit int, window time.Duration, failOpen bool) *LoginLimiter {
	return &LoginLimiter{
		kv:       kv,
		limit:    int64(limit),
		window:   window,
		failOpen: failOpen,
		log:      logger.Default().WithComponent("ratelimit"),
	}
}

// Allow counts the attempt and returns a RateLimited error once the window
// budget is spent. A store outage fails closed unless failOpen is set; the
// policy is explicit either way.
func (l *LoginLimiter) Allow(ctx context.Context, email, ip string) error {
	key := loginKeyPrefix + email + ":" + ip

	count, err := l.kv.IncrWithTTL(ctx, key, l.window)
	if err != nil {
		if l.failOpen {
			l.log.Warn(ctx, "rate limit store unavailable, allowing login", map[string]interface{}{
				"error": err.Error(),
			})
			return nil
		}
		return apperrors.DatabaseError("rate limit check failed").WithCause(err)
	}

	if count > l.limit {
		return apperrors.RateLimited()
	}
	return nil
}
