package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleBucketTTL is how long a client's limiter survives without traffic.
const idleBucketTTL = 10 * time.Minute

// RateLimiter applies a per-client-IP token bucket to the public lookup routes.
type RateLimiter struct {
	clients sync.Map // map[string]*client
	stop    chan struct{}
	once    sync.Once
}

type client struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

// NewRateLimiter starts a limiter whose idle buckets are swept every
// cleanupInterval. Call Stop on shutdown.
func NewRateLimiter(cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{stop: make(chan struct{})}
	go rl.cleanup(cleanupInterval)
	return rl
}

// Stop terminates the background sweep. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Limit allows maxPerMinute requests per client with a burst of the same
// size. maxPerMinute <= 0 disables limiting.
func (rl *RateLimiter) Limit(maxPerMinute int) Middleware {
	if maxPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	every := rate.Limit(float64(maxPerMinute) / 60.0)
	retryAfter := strconv.Itoa(int(math.Ceil(60.0 / float64(maxPerMinute))))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(clientIP(r), every, maxPerMinute) {
				w.Header().Set("Retry-After", retryAfter)
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(key string, every rate.Limit, burst int) bool {
	val, _ := rl.clients.LoadOrStore(key, &client{limiter: rate.NewLimiter(every, burst)})
	c := val.(*client)

	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()

	return c.limiter.Allow()
}

func (rl *RateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.clients.Range(func(key, value any) bool {
				c := value.(*client)
				c.mu.Lock()
				idle := now.Sub(c.lastSeen)
				c.mu.Unlock()
				if idle > idleBucketTTL {
					rl.clients.Delete(key)
				}
				return true
			})
		}
	}
}

// clientIP strips the port from RemoteAddr so that one client's
// connections share a bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
