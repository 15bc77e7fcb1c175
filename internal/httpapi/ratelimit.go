package httpapi

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// idleAfter is how long a client bucket may sit unused before it is dropped.
const idleAfter = 10 * time.Minute

type RateLimitConfig struct {
	IPPerMinute int
	IPBurst     int
	// Prefixes are the limited path prefixes. Empty means "/api/".
	Prefixes []string
}

type RateLimiter struct {
	clients  *clientBuckets
	prefixes []string
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	prefixes := cfg.Prefixes
	if len(prefixes) == 0 {
		prefixes = []string{"/api/"}
	}
	return &RateLimiter{
		clients:  newClientBuckets(cfg.IPPerMinute, cfg.IPBurst),
		prefixes: prefixes,
	}
}

// Middleware limits API calls per client IP. Pages and the realtime stream
// pass through.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limited(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientIP(r)
		if ip == "" {
			next.ServeHTTP(w, r)
			return
		}
		if wait, ok := l.clients.take(ip); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeError(w, requestIDFrom(r), http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) limited(path string) bool {
	for _, prefix := range l.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// clientBuckets is a token bucket per client key refilled continuously at
// perSecond up to capacity.
type clientBuckets struct {
	mu        sync.Mutex
	perSecond float64
	capacity  float64
	buckets   map[string]*tokens
	lastSweep time.Time
	now       func() time.Time
}

type tokens struct {
	left float64
	seen time.Time
}

func newClientBuckets(perMinute, burst int) *clientBuckets {
	if perMinute <= 0 {
		perMinute = 120
	}
	if burst <= 0 {
		burst = 30
	}
	return &clientBuckets{
		perSecond: float64(perMinute) / 60,
		capacity:  float64(burst),
		buckets:   make(map[string]*tokens),
		now:       time.Now,
	}
}

// take spends one token for key. When none is left it reports how long
// until the next token arrives.
func (c *clientBuckets) take(key string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweep(now)

	b, ok := c.buckets[key]
	if !ok {
		c.buckets[key] = &tokens{left: c.capacity - 1, seen: now}
		return 0, true
	}
	b.left = min(c.capacity, b.left+now.Sub(b.seen).Seconds()*c.perSecond)
	b.seen = now
	if b.left < 1 {
		missing := (1 - b.left) / c.perSecond
		return time.Duration(missing * float64(time.Second)), false
	}
	b.left--
	return 0, true
}

func (c *clientBuckets) sweep(now time.Time) {
	if now.Sub(c.lastSweep) < idleAfter {
		return
	}
	c.lastSweep = now
	for key, b := range c.buckets {
		if now.Sub(b.seen) >= idleAfter {
			delete(c.buckets, key)
		}
	}
}

func (c *clientBuckets) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
