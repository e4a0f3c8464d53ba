package spoiler

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRevealLimiterCooldown(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := newRevealLimiter(10*time.Second, clock.Now)

	if !limiter.allow("100200", "9100", "42") {
		t.Fatal("first reveal must be allowed")
	}
	if limiter.allow("100200", "9100", "42") {
		t.Fatal("immediate repeat must be denied")
	}

	clock.Advance(9 * time.Second)
	if limiter.allow("100200", "9100", "42") {
		t.Fatal("reveal inside cooldown must be denied")
	}

	clock.Advance(time.Second)
	if !limiter.allow("100200", "9100", "42") {
		t.Fatal("reveal after cooldown must be allowed")
	}
}

func TestRevealLimiterScopesPerPair(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := newRevealLimiter(10*time.Second, clock.Now)

	if !limiter.allow("100200", "9100", "42") {
		t.Fatal("first pair must be allowed")
	}
	if !limiter.allow("100200", "9100", "43") {
		t.Fatal("other actor on same message must have its own bucket")
	}
	if !limiter.allow("100200", "9200", "42") {
		t.Fatal("same actor on other message must have its own bucket")
	}
	if limiter.allow("100200", "9100", "42") {
		t.Fatal("original pair must stay denied")
	}
}

func TestRevealLimiterScopesPerConversation(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	limiter := newRevealLimiter(10*time.Second, clock.Now)

	if !limiter.allow("100200", "9100", "42") {
		t.Fatal("first conversation must be allowed")
	}
	// Telegram message ids repeat across chats; a matching id in another
	// conversation is a different post with its own bucket.
	if !limiter.allow("300400", "9100", "42") {
		t.Fatal("same message id in another conversation must have its own bucket")
	}
	if limiter.allow("100200", "9100", "42") {
		t.Fatal("first conversation pair must stay denied")
	}
}
