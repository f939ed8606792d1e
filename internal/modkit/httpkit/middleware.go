package httpkit

import (
	"compress/flate"
	"net/http"

	"slotwatch/internal/modkit/scope"
	pnet "slotwatch/internal/platform/net"
	phttp "slotwatch/internal/platform/net/http"
	"slotwatch/internal/platform/net/middleware"
)

// CommonStack returns a baseline per module middleware slice
// compose with your auth middleware per route group as needed
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.Logger(),

		// cross-origin (tweak config in main if needed)
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.RedirectSlashes(),
		middleware.StripSlashes(),
		middleware.Timeout(30 * 1e9), // 30s
	}
}

// Auth wires the auth middleware to the platform JSON writer and copies
// the authenticated operator into the request scope so handlers can audit
// rule edits without reaching into the transport layer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	// middleware expects write func(w http.ResponseWriter, status int, body any)
	// use phttp.JSON which matches that signature
	base := middleware.Auth(p, phttp.JSON)
	return func(next http.Handler) http.Handler {
		return base(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if oid := pnet.OperatorID(r.Context()); oid != "" {
				ctx := scope.With(r.Context(), map[string]string{"operator": oid})
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		}))
	}
}
