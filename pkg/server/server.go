package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/fincore-authz/pkg/attempts"
	"github.com/doodlesbykumbi/fincore-authz/pkg/audit"
	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
	"github.com/doodlesbykumbi/fincore-authz/pkg/config"
	"github.com/doodlesbykumbi/fincore-authz/pkg/metrics"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/middleware"
	"github.com/doodlesbykumbi/fincore-authz/pkg/server/store"
)

type Server struct {
	Config        *config.Config
	Engine        *authz.Engine
	Store         store.Store
	Ledger        *audit.Ledger
	Metrics       *metrics.Metrics
	Attempts      *attempts.Tracker
	JWTMiddleware *middleware.JWTAuthenticator
	Router        *mux.Router
	Log           logrus.FieldLogger
	srv           *http.Server
}

type Option func(*Server)

// WithMetrics shares a metrics set that the engine and ledger also report to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.Metrics = m }
}

// WithAttempts enables per-actor throttling of authorization requests.
func WithAttempts(t *attempts.Tracker) Option {
	return func(s *Server) { s.Attempts = t }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) { s.Log = log }
}

// WithAccessLog redirects the combined access log, os.Stdout by default.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) { s.srv.Handler = handlers.LoggingHandler(w, s.Router) }
}

func NewServer(
	cfg *config.Config,
	engine *authz.Engine,
	st store.Store,
	ledger *audit.Ledger,
	host string,
	port string,
	opts ...Option,
) *Server {

	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler:      handlers.LoggingHandler(os.Stdout, router),
		Addr:         host + ":" + port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	s := &Server{
		Config:        cfg,
		Engine:        engine,
		Store:         st,
		Ledger:        ledger,
		JWTMiddleware: middleware.NewJWTAuthenticator([]byte(cfg.IdentityJWTSecret), cfg.IsTrustedProxy),
		Router:        router,
		Log:           logrus.StandardLogger(),
		srv:           srv,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Metrics == nil {
		s.Metrics = metrics.New(prometheus.NewRegistry())
	}
	router.Use(s.Metrics.Instrument)
	return s
}

// Protected returns a subrouter whose routes require a session token and,
// when attempt tracking is on, are throttled per actor.
func (s *Server) Protected(prefix string) *mux.Router {
	sub := s.Router.PathPrefix(prefix).Subrouter()
	sub.Use(s.JWTMiddleware.Middleware)
	if s.Attempts != nil {
		sub.Use(middleware.Throttle(s.Attempts))
	}
	return sub
}

// Handler is the full handler chain, access logging included.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Addr() string {
	return s.srv.Addr
}

func (s *Server) Start() error {
	s.Log.WithField("addr", s.srv.Addr).Info("authorization server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
