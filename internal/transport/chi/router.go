package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kailas-cloud/lexrag/internal/metrics"
)

// RouterOptions configures the cross-cutting middleware stack.
type RouterOptions struct {
	AllowOrigins   []string
	RateLimitRPS   float64 // 0 = disabled
	RateLimitBurst int
}

// unlimitedPaths are probes and scrapes that bypass rate limiting.
var unlimitedPaths = []string{"/health", "/ready", "/metrics"}

// NewRouter wires the middleware stack and mounts the server's routes.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(s.logger))
	r.Use(JSONRecoverer(s.logger))
	r.Use(metrics.Middleware("/metrics"))
	if len(opts.AllowOrigins) > 0 {
		r.Use(CORS(opts.AllowOrigins))
	}
	if opts.RateLimitRPS > 0 {
		r.Use(NewIPRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, unlimitedPaths...).Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method Not Allowed")
	})

	s.Register(r)
	return r
}
