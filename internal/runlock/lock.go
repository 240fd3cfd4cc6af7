// Package runlock provides a Redis-backed advisory lock so two overlapping
// reminder runs cannot interleave the purge-then-rebuild sequence.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/brightcare/clinic-platform/pkg/logging"
)

// ErrHeld is returned when another run currently holds the lock.
var ErrHeld = errors.New("runlock: run already in progress")

const defaultTTL = 10 * time.Minute

// Guarded delete so a crashed holder's expired lock is never released by a
// later holder's deferred release.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Lock is a named advisory lock with a stale-lock TTL. If the holding
// process dies, the key expires and the next scheduled run proceeds.
type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *logging.Logger
}

// New creates a lock on the given key.
func New(client *redis.Client, key string, ttl time.Duration, logger *logging.Logger) *Lock {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Lock{client: client, key: key, ttl: ttl, logger: logger}
}

// Acquire takes the lock, returning a release func. ErrHeld means another
// holder is active. Release errors are logged, not returned; the TTL is the
// backstop.
func (l *Lock) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("runlock: acquire: %w", err)
	}
	if !ok {
		return nil, ErrHeld
	}

	release := func() {
		// Release must not inherit a cancelled request context.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Result(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("runlock: release failed, lock will expire by TTL",
				"key", l.key, "error", err)
		}
	}
	return release, nil
}
