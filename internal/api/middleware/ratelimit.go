package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ndewijer/portfolio-engine/internal/api/response"
)

// RateLimit returns a middleware that rejects requests beyond the shared token
// bucket with 429 Too Many Requests. rps is the sustained rate and burst the
// number of requests allowed at once.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				sanitize := strings.NewReplacer("\n", "", "\r", "").Replace
				zerolog.Ctx(r.Context()).Warn().
					Str("method", sanitize(r.Method)).
					Str("path", sanitize(r.URL.Path)).
					Str("remote_addr", r.RemoteAddr).
					Msg("rate limit exceeded")
				response.RespondError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
