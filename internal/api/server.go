package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/better-wallet/linewallet/internal/logger"
	"github.com/better-wallet/linewallet/internal/middleware"
)

// Custody is the wallet custody surface served over HTTP
type Custody interface {
	GetWallet(ctx context.Context, externalUserID string) (string, bool, error)
	CreateWallet(ctx context.Context, externalUserID, passcode string) (string, error)
	VerifyPasscode(ctx context.Context, externalUserID, passcode string) (bool, error)
}

// Pinger checks backend reachability for the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	port       int
	version    string
	custody    Custody
	store      Pinger
	callerAuth *middleware.CallerAuth
	gatherer   prometheus.Gatherer
	httpServer *http.Server
}

// NewServer creates a new API server
func NewServer(
	port int,
	version string,
	custody Custody,
	store Pinger,
	callerAuth *middleware.CallerAuth,
	gatherer prometheus.Gatherer,
) *Server {
	return &Server{
		port:       port,
		version:    version,
		custody:    custody,
		store:      store,
		callerAuth: callerAuth,
		gatherer:   gatherer,
	}
}

// Handler builds the routed handler with its middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health and metrics (no auth required)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/{$}", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// User routes, reachable only by the authenticated caller
	mux.Handle("/user/get-wallet",
		s.callerAuth.Authenticate(http.HandlerFunc(s.handleGetWallet)))
	mux.Handle("/user/create-wallet",
		s.callerAuth.Authenticate(http.HandlerFunc(s.handleCreateWallet)))
	mux.Handle("/user/verify-passcode",
		s.callerAuth.Authenticate(http.HandlerFunc(s.handleVerifyPasscode)))

	// Chain: RequestID -> Logging -> LimitBody -> Routes
	return middleware.RequestID(middleware.Logging(middleware.LimitBody(mux)))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info(context.Background(), "starting server", "port", s.port, "version", s.version)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
