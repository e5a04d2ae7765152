// Package server exposes the auth pipeline over HTTP with a chi router.
package server

import (
	"log/slog"
	"net/http"

	schoolAuth "github.com/MrEthical07/schoolAuth"
	"github.com/MrEthical07/schoolAuth/middleware"
	"github.com/MrEthical07/schoolAuth/role"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// Options configures a Server. Engine is required.
type Options struct {
	Engine *schoolAuth.Engine
	Logger *slog.Logger
	// Metrics is mounted at MetricsPath when non-nil.
	Metrics     http.Handler
	MetricsPath string
	TrustProxy  bool
}

type Server struct {
	engine      *schoolAuth.Engine
	logger      *slog.Logger
	metrics     http.Handler
	metricsPath string
	trustProxy  bool
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	path := opts.MetricsPath
	if path == "" {
		path = "/metrics"
	}
	return &Server{
		engine:      opts.Engine,
		logger:      logger,
		metrics:     opts.Metrics,
		metricsPath: path,
		trustProxy:  opts.TrustProxy,
	}
}

// Router builds the route table. Every route gets a request id, the client
// address, access logging and panic recovery.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(),
		middleware.ClientIP(s.trustProxy),
		middleware.Logging(s.logger),
		middleware.Recover(s.logger),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Handle(s.metricsPath, s.metrics)
	}

	authn := middleware.Authenticate(s.engine)

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.LoginThrottle(s.engine)).Post("/login", s.handleLogin)
		r.With(authn).Get("/me", s.handleMe)
		r.With(authn).Post("/change-password", s.handleChangePassword)
	})

	r.Route("/school", func(r chi.Router) {
		r.Use(authn)
		r.With(
			middleware.RequireRole(s.engine, role.All()...),
			middleware.ResolveTenant(s.engine),
		).Get("/context", s.handleSchoolContext)
		r.With(
			middleware.RequireRole(s.engine, role.SchoolAdmin, role.Teacher),
			middleware.ResolveTenant(s.engine),
		).Get("/staff-area", s.handleStaffArea)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusNotFound, middleware.ErrorBody{Error: "not_found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusMethodNotAllowed, middleware.ErrorBody{Error: "method_not_allowed"})
	})

	return r
}
