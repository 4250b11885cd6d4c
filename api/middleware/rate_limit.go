package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/weglobalmusic/wgme-backend/api/responses"
	pkgerrors "github.com/weglobalmusic/wgme-backend/pkg/errors"
	"github.com/weglobalmusic/wgme-backend/pkg/logger"
	"github.com/weglobalmusic/wgme-backend/pkg/redis"
)

// RateLimitPolicy throttles one traffic surface per client IP.
type RateLimitPolicy struct {
	name      string
	window    time.Duration
	ipLimit   int
	proxyHops int
}

func NewRateLimitPolicy(name string, window time.Duration, ipLimit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:    strings.ToLower(strings.TrimSpace(name)),
		window:  window,
		ipLimit: ipLimit,
	}
}

// TrustProxyHops returns a copy of p that reads the client address from
// X-Forwarded-For, counting hops proxies from the right. Zero ignores the header.
func (p RateLimitPolicy) TrustProxyHops(hops int) RateLimitPolicy {
	if hops < 0 {
		hops = 0
	}
	p.proxyHops = hops
	return p
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.ipLimit > 0
}

func (p RateLimitPolicy) scope(ip string) string {
	name := p.name
	if name == "" {
		name = "default"
	}
	return name + ":ip:" + ip
}

// RateLimit enforces a fixed-window per-IP limit. Counter failures are
// surfaced as DEPENDENCY_ERROR rather than silently allowing traffic.
func RateLimit(policy RateLimitPolicy, limiter redis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r, policy.proxyHops)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := limiter.FixedWindowAllow(ctx, policy.scope(ip), int64(policy.ipLimit), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":         policy.name,
						"ip":             ip,
						"attempts":       count,
						"limit":          policy.ipLimit,
						"window_seconds": int(policy.window.Seconds()),
					}), "rate_limit.blocked")
				}
				w.Header().Set("Retry-After", retryAfter(policy.window))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(window time.Duration) string {
	secs := int(window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP returns the peer address, or with trusted proxies in front the
// X-Forwarded-For entry appended by the outermost one. Entries left of it are
// client-controlled.
func clientIP(r *http.Request, proxyHops int) string {
	if proxyHops > 0 {
		var hops []string
		for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				hops = append(hops, ip)
			}
		}
		if n := len(hops); n > 0 {
			if n < proxyHops {
				return hops[0]
			}
			return hops[n-proxyHops]
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
