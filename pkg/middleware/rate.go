// Package middleware holds the console's HTTP middleware.
package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/stockdesk/pkg/logger"
	"github.com/shashiranjanraj/stockdesk/pkg/response"
)

// window counts one client's requests in the current fixed window.
type window struct {
	count   int
	resetAt time.Time
}

// Limiter allows max requests per client and window. Expired windows are
// dropped lazily on the next request that finds the map over sweepAt.
type Limiter struct {
	max     int
	period  time.Duration
	now     func() time.Time
	sweepAt int
	proxies []netip.Prefix

	mu      sync.Mutex
	windows map[string]*window
}

func NewLimiter(max int, period time.Duration) *Limiter {
	return &Limiter{max: max, period: period, now: time.Now, sweepAt: 1024, windows: map[string]*window{}}
}

// TrustProxies lists the addresses or CIDR ranges allowed to report the
// client address in X-Forwarded-For. Requests from any other peer are keyed
// by their own address. Unparsable entries are logged and skipped.
func (l *Limiter) TrustProxies(proxies ...string) *Limiter {
	for _, p := range proxies {
		prefix, err := parseProxy(p)
		if err != nil {
			logger.Warn("rate limit: ignoring trusted proxy", "proxy", p, "error", err)
			continue
		}
		l.proxies = append(l.proxies, prefix)
	}
	return l
}

func parseProxy(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		return p.Masked(), err
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func (l *Limiter) trusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range l.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Allow counts one request from client and reports whether it is within the
// limit.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.windows) >= l.sweepAt {
		for k, w := range l.windows {
			if now.After(w.resetAt) {
				delete(l.windows, k)
			}
		}
	}

	w, ok := l.windows[client]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(l.period)}
		l.windows[client] = w
	}
	w.count++
	return w.count <= l.max
}

// Middleware rejects clients over the limit with a 429. A limiter with
// max <= 0 lets everything through.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	if l.max <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(l.clientIP(r)) {
			response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the peer address, unless the peer is a trusted proxy. Then
// X-Forwarded-For is walked from the right and the first hop that is not a
// trusted proxy is the client.
func (l *Limiter) clientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !l.trusted(peer) {
		return peer
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !l.trusted(hop) {
			return hop
		}
		peer = hop
	}
	return peer
}
