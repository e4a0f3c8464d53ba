package spoiler

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// limiterCapacity bounds the number of live (message, actor) buckets.
const limiterCapacity = 1024

// revealLimiter rate-limits reaction-triggered reveals per (message, actor).
//
// Buckets are token buckets with burst one, lazily created on first use and
// aged out by an expirable LRU so the pair map cannot grow without bound.
type revealLimiter struct {
	mu       sync.Mutex
	buckets  *expirable.LRU[string, *rate.Limiter]
	interval time.Duration
	now      func() time.Time
}

func newRevealLimiter(interval time.Duration, now func() time.Time) *revealLimiter {
	if now == nil {
		now = time.Now
	}
	// Expiry stays well past the refill interval so a live bucket is never
	// dropped between a denial and its refill.
	ttl := 6 * interval
	if ttl < time.Minute {
		ttl = time.Minute
	}

	return &revealLimiter{
		buckets:  expirable.NewLRU[string, *rate.Limiter](limiterCapacity, nil, ttl),
		interval: interval,
		now:      now,
	}
}

// allow atomically consumes one token for the (message, actor) pair, creating
// the bucket on first sight. Message ids are only unique per conversation, so
// the bucket key carries the conversation scope like the lookup cache does.
func (l *revealLimiter) allow(conversationID, messageID, actorID string) bool {
	key := cacheKey(conversationID, messageID) + "/" + actorID

	l.mu.Lock()
	bucket, ok := l.buckets.Get(key)
	if !ok {
		bucket = rate.NewLimiter(rate.Every(l.interval), 1)
		l.buckets.Add(key, bucket)
	}
	l.mu.Unlock()

	return bucket.AllowN(l.now(), 1)
}
