package middleware

import (
	"math/rand"
	"net/http"

	"github.com/latticemt/cubedecoder/pkg/tracing"
)

// Tracing starts a root span per request, sampled at sampleRate (0 disables
// tracing entirely), rooted at the request ID set by RequestID so a trace
// can be correlated back to the request-id log field. The span tree is
// logged once the handler returns.
func Tracing(sampleRate float64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if sampleRate <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rand.Float64() > sampleRate {
				next.ServeHTTP(w, r)
				return
			}

			traceID := GetRequestID(r.Context())
			ctx, span := tracing.StartSpan(r.Context(), r.Method+" "+r.URL.Path, traceID)
			span.SetAttr("method", r.Method)
			span.SetAttr("path", r.URL.Path)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(ctx))

			span.SetAttr("status", sw.status)
			span.End()
			span.Log()
		})
	}
}
