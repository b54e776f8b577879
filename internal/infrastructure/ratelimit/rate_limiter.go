package ratelimit

import (
	"sync"
	"time"
)

// Actions with their own budgets. Anything else gets the default bucket.
const (
	ActionSendMessage    = "send_message"
	ActionCreateTicket   = "create_ticket"
	ActionActivateScreen = "activate_screen"
	ActionHTTPRequest    = "http_request"
	ActionAddContact     = "add_contact"
)

// TokenBucket refills refillRate tokens every refillTime up to maxTokens.
type TokenBucket struct {
	tokens     int
	maxTokens  int
	refillRate int
	refillTime time.Duration
	lastRefill time.Time
	lastUsed   time.Time
	now        func() time.Time
	mutex      sync.Mutex
}

func NewTokenBucket(maxTokens, refillRate int, refillTime time.Duration) *TokenBucket {
	return newTokenBucket(maxTokens, refillRate, refillTime, time.Now)
}

func newTokenBucket(maxTokens, refillRate int, refillTime time.Duration, now func() time.Time) *TokenBucket {
	t := now()
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		refillTime: refillTime,
		lastRefill: t,
		lastUsed:   t,
		now:        now,
	}
}

// Allow consumes a token if one is available. When none is, it returns how
// long until the next refill.
func (tb *TokenBucket) Allow() (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := tb.now()
	tb.lastUsed = now

	intervals := int(now.Sub(tb.lastRefill) / tb.refillTime)
	if intervals > 0 {
		tb.tokens += intervals * tb.refillRate
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = tb.lastRefill.Add(time.Duration(intervals) * tb.refillTime)
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}
	return false, tb.lastRefill.Add(tb.refillTime).Sub(now)
}

func (tb *TokenBucket) Tokens() int {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return tb.tokens
}

// RateLimiter keeps one bucket per user and action.
type RateLimiter struct {
	buckets map[string]*TokenBucket
	mutex   sync.RWMutex
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		now:     time.Now,
	}
}

func (rl *RateLimiter) newBucket(action string) *TokenBucket {
	switch action {
	case ActionSendMessage:
		// 10 per minute
		return newTokenBucket(10, 1, 6*time.Second, rl.now)
	case ActionCreateTicket:
		// 5 per 10 minutes
		return newTokenBucket(5, 1, 2*time.Minute, rl.now)
	case ActionActivateScreen:
		return newTokenBucket(30, 1, 2*time.Second, rl.now)
	case ActionHTTPRequest:
		return newTokenBucket(100, 10, time.Second, rl.now)
	case ActionAddContact:
		// 10 per 5 minutes
		return newTokenBucket(10, 1, 30*time.Second, rl.now)
	}
	return newTokenBucket(20, 1, 3*time.Second, rl.now)
}

func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	key := userID + ":" + action

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()

	if !exists {
		rl.mutex.Lock()
		if bucket, exists = rl.buckets[key]; !exists {
			bucket = rl.newBucket(action)
			rl.buckets[key] = bucket
		}
		rl.mutex.Unlock()
	}

	return bucket.Allow()
}

// Status returns the remaining and maximum tokens, zero for unknown keys.
func (rl *RateLimiter) Status(userID, action string) (tokens int, maxTokens int) {
	rl.mutex.RLock()
	bucket, exists := rl.buckets[userID+":"+action]
	rl.mutex.RUnlock()

	if !exists {
		return 0, 0
	}
	return bucket.Tokens(), bucket.maxTokens
}

// Cleanup drops buckets idle for longer than an hour.
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, bucket := range rl.buckets {
		bucket.mutex.Lock()
		idle := now.Sub(bucket.lastUsed)
		bucket.mutex.Unlock()
		if idle > time.Hour {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine runs Cleanup every 30 minutes until stop is closed.
func (rl *RateLimiter) StartCleanupRoutine(stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}
