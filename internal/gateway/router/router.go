// Package router wires up all API gateway routes and applies the middleware
// chain (RequestID → Tracing → CORS → Auth → RateLimit).
package router

import (
	"net/http"

	"github.com/latticemt/cubedecoder/internal/auth/apikey"
	"github.com/latticemt/cubedecoder/internal/auth/ratelimit"
	gwhandler "github.com/latticemt/cubedecoder/internal/gateway/handler"
	gwmw "github.com/latticemt/cubedecoder/internal/gateway/middleware"
	pkgmw "github.com/latticemt/cubedecoder/pkg/middleware"
)

// New builds the full gateway HTTP handler with all routes and middleware.
//
// Route table:
//
//	POST   /api/v1/sentences           → ingestion service (proxy)
//	GET    /api/v1/sentences           → list decode requests (direct DB)
//	GET    /api/v1/sentences/{id}      → get decode request    (direct DB)
//	POST   /api/v1/decode              → decoder service   (proxy)
//	GET    /api/v1/analytics           → decoder service   (proxy)
//	GET    /api/v1/cache/stats         → decoder service   (proxy)
//	POST   /api/v1/cache/invalidate    → decoder service   (proxy)
//	POST   /api/v1/admin/keys          → create API key   (direct DB)
//	GET    /api/v1/admin/keys          → list API keys    (direct DB)
//	GET    /health                     → gateway health
//
// Middleware chain (outermost first):
//
//	RequestID → Tracing → CORS → Auth → RateLimit → handler
//
// tracingSampleRate is the fraction of requests to trace (0 disables tracing).
func New(h *gwhandler.Handler, validator *apikey.Validator, limiter *ratelimit.Limiter, tracingSampleRate float64) http.Handler {
	mux := http.NewServeMux()

	// Health (unauthenticated)
	mux.HandleFunc("GET /health", h.Health)

	// Sentence ingestion API
	mux.HandleFunc("POST /api/v1/sentences", h.ProxyIngest)
	mux.HandleFunc("GET /api/v1/sentences", h.ListDecodeRequests)
	mux.HandleFunc("GET /api/v1/sentences/{id}", h.GetDecodeRequest)

	// Decode API
	mux.HandleFunc("POST /api/v1/decode", h.ProxyDecode)

	// Analytics API
	mux.HandleFunc("GET /api/v1/analytics", h.ProxyAnalytics)

	// Cache API
	mux.HandleFunc("GET /api/v1/cache/stats", h.ProxyCacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.ProxyCacheInvalidate)

	// Admin API
	mux.HandleFunc("POST /api/v1/admin/keys", h.CreateAPIKey)
	mux.HandleFunc("GET /api/v1/admin/keys", h.ListAPIKeys)

	// Middleware chain — applied inside-out:
	// request → RequestID → Tracing → CORS → Auth → RateLimit → mux
	var chain http.Handler = mux
	chain = gwmw.RateLimit(limiter)(chain)
	chain = gwmw.Auth(validator)(chain)
	chain = gwmw.CORS(gwmw.DefaultCORSConfig())(chain)
	chain = pkgmw.Tracing(tracingSampleRate)(chain)
	chain = pkgmw.RequestID(chain)

	return chain
}
