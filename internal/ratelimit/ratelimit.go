// Package ratelimit implements the cache-backed fixed-window limiter with
// a block-list (component E), replacing the in-process token-bucket
// limiter the teacher used for a single-process deployment.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/genes8/docuguard/internal/cache"
)

// Profile describes one action's limiting parameters.
type Profile struct {
	MaxRequests int
	Window      time.Duration
	BlockFor    time.Duration
}

// Preconfigured profiles per spec §4.E.
var (
	ProfileLogin = Profile{MaxRequests: 5, Window: 60 * time.Second, BlockFor: 300 * time.Second}
	ProfileRegister = Profile{MaxRequests: 3, Window: 60 * time.Second, BlockFor: 600 * time.Second}
	ProfilePasswordReset = Profile{MaxRequests: 3, Window: 60 * time.Second, BlockFor: 600 * time.Second}
)

// Limiter checks and records request counts against a profile.
type Limiter struct {
	cache *cache.Client
}

// New wires a limiter against the shared cache client.
func New(c *cache.Client) *Limiter {
	return &Limiter{cache: c}
}

func rateKey(action, identifier string) string {
	return "rate_limit:" + action + ":" + identifier
}

func blockKey(action, identifier string) string {
	return "rate_limit_block:" + action + ":" + identifier
}

// Result reports the outcome of a rate limit check.
type Result struct {
	Allowed        bool
	Remaining      int
	RetryAfterSecs int
}

// Check evaluates identifier against action's profile. On every call it
// either allows and increments the window counter, or blocks and returns
// the remaining block duration.
func (l *Limiter) Check(ctx context.Context, action, identifier string, p Profile) Result {
	bk := blockKey(action, identifier)
	if ttl := l.cache.TTL(ctx, bk); ttl > 0 {
		return Result{Allowed: false, RetryAfterSecs: int(ttl.Seconds())}
	}

	rk := rateKey(action, identifier)
	raw, ok := l.cache.Get(ctx, rk)
	if !ok {
		l.cache.Set(ctx, rk, "1", p.Window)
		return Result{Allowed: true, Remaining: p.MaxRequests - 1}
	}

	count := parseCount(raw)
	if count >= p.MaxRequests {
		l.cache.Set(ctx, bk, "1", p.BlockFor)
		l.cache.Delete(ctx, rk)
		return Result{Allowed: false, RetryAfterSecs: int(p.BlockFor.Seconds())}
	}

	l.cache.Increment(ctx, rk, 1)
	return Result{Allowed: true, Remaining: p.MaxRequests - count - 1}
}

// Reset clears both the counter and any block for identifier/action, used
// after a successful login to forgive prior failed attempts.
func (l *Limiter) Reset(ctx context.Context, action, identifier string) {
	l.cache.Delete(ctx, rateKey(action, identifier))
	l.cache.Delete(ctx, blockKey(action, identifier))
}

func parseCount(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
