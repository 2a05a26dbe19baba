package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// idle buckets are dropped after this long
const bucketTTL = 10 * time.Minute

// bucket is a token bucket for one caller. Tokens are fractional so a
// refill rate below one per second still works.
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// FixLimiter throttles fix applications per caller (token + client IP).
type FixLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	capacity  float64
	perSecond float64
	lastSweep time.Time
	now       func() time.Time
}

func NewFixLimiter(capacity, refillRate int) *FixLimiter {
	if capacity <= 0 {
		capacity = 1
	}
	return &FixLimiter{
		buckets:   make(map[string]*bucket),
		capacity:  float64(capacity),
		perSecond: float64(refillRate),
		now:       time.Now,
	}
}

// Allow takes one token for key. When the bucket is empty it returns the
// time until the next token is available.
func (l *FixLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, lastSeen: now}
		l.buckets[key] = b
	}
	if l.perSecond > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+now.Sub(b.lastSeen).Seconds()*l.perSecond)
	}
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if l.perSecond <= 0 {
		return false, bucketTTL
	}
	wait := time.Duration((1 - b.tokens) / l.perSecond * float64(time.Second))
	return false, wait
}

// sweep drops idle buckets, at most once per TTL. Caller holds mu.
func (l *FixLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < bucketTTL {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > bucketTTL {
			delete(l.buckets, key)
		}
	}
}

// RateLimitMiddleware limits requests per caller.
// capacity: burst size, refillRate: tokens added per second
func RateLimitMiddleware(capacity, refillRate int) func(http.Handler) http.Handler {
	limiter := NewFixLimiter(capacity, refillRate)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := callerKey(TokenFromContext(r.Context())) + ":" + clientIP(r.RemoteAddr)

			ok, wait := limiter.Allow(key)
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// callerKey never keeps the raw token in memory maps
func callerKey(token string) string {
	if token == "" {
		return "anon"
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
