package httpadapter

import (
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

// rateLimitMiddleware sheds load once the shared token bucket is drained.
// Rejected requests carry a Retry-After hint.
func rateLimitMiddleware(next http.Handler, rps, burst int) http.Handler {
	if rps <= 0 {
		return next
	}
	if burst < rps {
		burst = rps
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(1))
			writeJSON(w, http.StatusTooManyRequests, errorPayload{
				Error: "rate limit exceeded",
				Code:  "rate_limited",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
