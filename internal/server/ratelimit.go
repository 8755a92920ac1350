package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"resumescore/internal/errors"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// LimiterManager manages a collection of rate limiters for different keys (IPs, API keys).
type LimiterManager struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	rate     rate.Limit
	burst    int
	done     chan struct{}
	once     sync.Once
	logger   *errors.Logger
}

type RateLimiter = LimiterManager

// NewRateLimiter creates a new manager. requestsPerMin is converted to a
// per-second refill rate; burstCapacity is the token bucket size.
func NewRateLimiter(requestsPerMin int, burstCapacity int, logger *errors.Logger) *LimiterManager {
	m := &LimiterManager{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		rate:     perMinute(requestsPerMin),
		burst:    burstCapacity,
		done:     make(chan struct{}),
		logger:   logger,
	}

	go m.cleanupRoutine(limiterIdleTTL)
	return m
}

func perMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60.0)
}

// GetLimiter retrieves or creates a limiter for a given key.
func (m *LimiterManager) GetLimiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(m.rate, m.burst)
		m.limiters[key] = limiter
	}
	m.lastSeen[key] = time.Now()

	return limiter
}

func (m *LimiterManager) Allow(key string) bool {
	return m.GetLimiter(key).Allow()
}

// SetRate changes the rate for new and existing limiters.
func (m *LimiterManager) SetRate(requestsPerMin, burstCapacity int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rate = perMinute(requestsPerMin)
	m.burst = burstCapacity
	for _, l := range m.limiters {
		l.SetLimit(m.rate)
		l.SetBurst(m.burst)
	}
}

// GetStats returns current rate limiter statistics
func (m *LimiterManager) GetStats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"active_limiters": len(m.limiters),
		"rate_per_second": float64(m.rate),
		"rate_per_minute": float64(m.rate) * 60.0,
		"burst_capacity":  m.burst,
	}
}

func (m *LimiterManager) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup(interval)
		case <-m.done:
			return
		}
	}
}

// cleanup removes limiters that haven't been used for the specified duration
func (m *LimiterManager) cleanup(evictionAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, lastSeen := range m.lastSeen {
		if now.Sub(lastSeen) > evictionAge {
			delete(m.limiters, key)
			delete(m.lastSeen, key)
		}
	}

	if m.logger != nil {
		m.logger.Debug("Rate limiter cleanup completed",
			"remaining_limiters", len(m.limiters))
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (m *LimiterManager) Close() {
	m.once.Do(func() { close(m.done) })
}

// rateLimitMiddleware rejects requests over the per-key budget with 429.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" {
				next(w, r)
				return
			}

			if !s.RateLimiter.Allow(key) {
				limiter, _, _ := strings.Cut(key, ":")
				s.metrics.RecordRateLimitHit(r.Context(), limiter)
				s.Logger.Info("Rate limit exceeded",
					"limiter", limiter,
					"endpoint", r.URL.Path,
					"client_ip", getClientIP(r))
				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		if apiKey := requestAPIKey(r); apiKey != "" {
			return "api:" + apiKey
		}
	}

	if byIP {
		return "ip:" + getClientIP(r)
	}

	return ""
}

// requestAPIKey reads X-API-Key, falling back to an Authorization bearer token.
func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP parses the first valid IP from a comma-separated list
func parseFirstIP(ips string) string {
	for ip := range strings.SplitSeq(ips, ",") {
		ip = strings.TrimSpace(ip)
		if parsed := net.ParseIP(ip); parsed != nil {
			return ip
		}
	}
	return ""
}
