// Package api serves the daemon's HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/partsd/internal/apps"
	"git.home.luguber.info/inful/partsd/internal/forcestop"
	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/freeze"
	"git.home.luguber.info/inful/partsd/internal/rotate"
	"git.home.luguber.info/inful/partsd/internal/thermal"
	"git.home.luguber.info/inful/partsd/internal/touch"
)

// Deps are the services behind the routes. Thermal and Touch may be nil when
// the device lacks the corresponding node.
type Deps struct {
	Profiles *thermal.Store
	Thermal  *thermal.Service
	Registry *forcestop.Registry
	Sweeper  *forcestop.Sweeper
	Apps     *apps.Lister
	Freeze   *freeze.Service
	Rotate   *rotate.Service
	Touch    *touch.Device
	Status   func() any
	Metrics  http.Handler
}

// Server represents the API server.
type Server struct {
	Addr   string
	deps   Deps
	router *chi.Mux
	server *http.Server
	errs   *errors.HTTPErrorAdapter
}

// NewServer creates a new API server.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		Addr:   addr,
		deps:   deps,
		router: chi.NewRouter(),
		errs:   errors.NewHTTPErrorAdapter(nil),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/status", s.handleStatus)
	s.router.Get("/apps", s.handleApps)

	s.router.Get("/profiles", s.handleListProfiles)
	s.router.Get("/profiles/{package}", s.handleGetProfile)
	s.router.Put("/profiles/{package}", s.handleSetProfile)

	s.router.Get("/forcestop", s.handleListForceStop)
	s.router.Get("/forcestop/{package}", s.handleGetForceStop)
	s.router.Put("/forcestop/{package}", s.handleSetForceStop)
	s.router.Get("/sweeps", s.handleSweeps)

	s.router.Get("/components", s.handleListComponents)
	s.router.Put("/components/{component}", s.handleSetComponent)

	s.router.Get("/rotate", s.handleGetRotate)
	s.router.Put("/rotate", s.handleSetRotate)
	s.router.Put("/touch/doubletap", s.handleDoubleTap)

	if s.deps.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}
}

// Start serves until Shutdown.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Response represents a standard API response.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// Success writes a success response.
func (s *Server) Success(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

// Error writes a classified error response.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	s.errs.WriteErrorResponse(w, r, err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid request body").UserAction().Build()
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var status any
	if s.deps.Status != nil {
		status = s.deps.Status()
	}
	s.Success(w, http.StatusOK, status)
}

func (s *Server) handleApps(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Apps.UserApps(r.Context())
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, list)
}
