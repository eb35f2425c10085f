package httpx

import (
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/geoadmin/pkg/slogx"
	"golang.org/x/time/rate"
)

// MessageTooManyRequests is the body of a per-route 429.
const MessageTooManyRequests = "Too many requests. Please try again later."

// RateLimitConfig is a token bucket: RequestsPerWindow tokens refill evenly
// across Window and at most Burst can be spent at once.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

func (c RateLimitConfig) limit() rate.Limit {
	if c.RequestsPerWindow <= 0 || c.Window <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

func (c RateLimitConfig) burst() int {
	if c.Burst > 0 {
		return c.Burst
	}
	return max(c.RequestsPerWindow, 1)
}

// Shared per-route profiles, all per minute. ProfileFromEnv applies
// overrides.
var (
	StrictLimit   = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}       // register, refresh
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}     // admin
	LenientLimit  = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}   // profile, health
	PublicLimit   = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000} // docs
)

// ProfileFromEnv returns def with RATELIMIT_<name>_REQUESTS,
// RATELIMIT_<name>_WINDOW_SEC and RATELIMIT_<name>_BURST applied. Values
// that are not positive integers are ignored.
func ProfileFromEnv(name string, def RateLimitConfig) RateLimitConfig {
	cfg := def
	override := func(field string, apply func(n int)) {
		v, ok := os.LookupEnv("RATELIMIT_" + name + "_" + field)
		if !ok {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return
		}
		apply(n)
	}

	override("REQUESTS", func(n int) { cfg.RequestsPerWindow = n })
	override("WINDOW_SEC", func(n int) { cfg.Window = time.Duration(n) * time.Second })
	override("BURST", func(n int) { cfg.Burst = n })
	return cfg
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// buckets holds one limiter per key. Keys idle for a whole window have
// refilled completely and are dropped on the next sweep.
type buckets struct {
	cfg RateLimitConfig

	mu        sync.Mutex
	m         map[string]*bucket
	nextSweep time.Time
}

func newBuckets(cfg RateLimitConfig) *buckets {
	return &buckets{cfg: cfg, m: make(map[string]*bucket)}
}

func (b *buckets) idleAfter() time.Duration {
	if b.cfg.Window > 0 {
		return b.cfg.Window
	}
	return time.Minute
}

// take spends one token for key at now. When none is left it reports how
// long until one is.
func (b *buckets) take(key string, now time.Time) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.After(b.nextSweep) {
		b.sweep(now)
	}

	e, ok := b.m[key]
	if !ok {
		e = &bucket{lim: rate.NewLimiter(b.cfg.limit(), b.cfg.burst())}
		b.m[key] = e
	}
	e.lastSeen = now

	if e.lim.AllowN(now, 1) {
		return true, 0
	}

	r := e.lim.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

func (b *buckets) sweep(now time.Time) {
	idle := b.idleAfter()
	for key, e := range b.m {
		if now.Sub(e.lastSeen) >= idle {
			delete(b.m, key)
		}
	}
	b.nextSweep = now.Add(idle)
}

func (b *buckets) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.m)
}

// RateLimit throttles requests per key with a token bucket and answers 429
// with Retry-After once a key runs dry. Requests without a key pass.
func RateLimit(cfg RateLimitConfig, key KeyFunc) Middleware {
	b := newBuckets(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			k := key(r)
			if k == "" {
				log.Warn("rate limit: no key for request, allowing")
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := b.take(k, time.Now())
			if !ok {
				retryAfter := max(int(math.Ceil(wait.Seconds())), 1)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
				w.Header().Set("X-RateLimit-Window", cfg.Window.String())

				log.Warn("route rate limit exceeded",
					"key", k,
					"path", r.URL.Path,
					"retry_after", retryAfter,
				)
				WriteError(w, http.StatusTooManyRequests, MessageTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits by client address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, ByIP)
}

// RateLimitByUser limits by authenticated user and address together, so one
// account shared across hosts gets a bucket per host.
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, JoinKeys(":", ByUser, ByIP))
}
