package rest

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// RateLimitConfig bounds how often one user may run a search.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate.
	RequestsPerSecond float64

	// BurstSize is the number of searches allowed back to back.
	BurstSize int
}

// DefaultSearchRateLimit allows a burst of five searches, then one per second.
var DefaultSearchRateLimit = RateLimitConfig{RequestsPerSecond: 1, BurstSize: 5}

// maxTrackedUsers bounds the number of per-user limiters kept in memory.
const maxTrackedUsers = 4096

// userLimiter hands out one token bucket per user. Least recently seen
// users are evicted, which resets their bucket.
type userLimiter struct {
	mu       sync.Mutex
	cfg      RateLimitConfig
	limiters *lru.Cache[string, *rate.Limiter]
}

func newUserLimiter(cfg RateLimitConfig) *userLimiter {
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	limiters, _ := lru.New[string, *rate.Limiter](maxTrackedUsers)
	return &userLimiter{cfg: cfg, limiters: limiters}
}

// reserve takes a token for user. It returns zero when the request may
// proceed, or how long the caller should wait before retrying.
func (u *userLimiter) reserve(user string) time.Duration {
	u.mu.Lock()
	limiter, ok := u.limiters.Get(user)
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(u.cfg.RequestsPerSecond), u.cfg.BurstSize)
		u.limiters.Add(user, limiter)
	}
	u.mu.Unlock()

	r := limiter.Reserve()
	if !r.OK() {
		return time.Second
	}
	delay := r.Delay()
	if delay > 0 {
		r.Cancel()
	}
	return delay
}

// rateLimit rejects requests beyond the caller's budget with 429.
// It must run after requireUser.
func rateLimit(limiter *userLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wait := limiter.reserve(userFrom(r.Context())); wait > 0 {
				seconds := int(math.Ceil(wait.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				writeError(w, http.StatusTooManyRequests, "search rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
