package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ulule/limiter/v3"

	"tracker/internal/log"
)

// rateLimited applies l per client IP. A failing limiter store lets the
// request through.
func (s *Server) rateLimited(l *limiter.Limiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := extractClientIP(r)
		logger := log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit)
		lctx, err := l.Get(r.Context(), ip)
		if err != nil {
			logger.ErrorContext(r.Context(), "Failed to get rate limit context",
				log.FieldClientIP, ip,
				log.FieldError, err.Error())
			next(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))

		if lctx.Reached {
			retry := lctx.Reset - time.Now().Unix()
			if retry < 1 {
				retry = 1
			}
			logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, ip,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"limit", lctx.Limit)
			TooManyRequestsError(retry).Write(w)
			return
		}

		next(w, r)
	}
}
