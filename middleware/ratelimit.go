package middleware

import (
	"net"
	"net/http"

	"github.com/ZubbsZubbs/LAUTECH-sub002/services/ratelimit"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"go.uber.org/zap"
)

// RateLimiter checks a client against a named bucket
type RateLimiter interface {
	CheckLimit(scope, key string) ratelimit.Result
}

// RateLimit limits requests per client IP within scope and answers 429 with
// Retry-After when the bucket is empty. Mount after chi's RealIP.
func RateLimit(limiter RateLimiter, scope string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			res := limiter.CheckLimit(scope, ip)
			if !res.Allowed {
				logger.Warn("rate limit exceeded",
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.String("scope", scope),
					zap.String("client_ip", ip))
				_ = utils.WriteTooManyRequests(w, "Too many requests. Please try again later.", res.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
