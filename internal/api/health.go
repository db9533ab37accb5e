package api

import (
	"context"
	"net/http"
	"time"

	"github.com/better-wallet/linewallet/internal/logger"
)

const healthPingTimeout = 2 * time.Second

// HealthResponse reports the service version, store reachability and the
// client as seen by the server
type HealthResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version"`
	Store   string       `json:"store"`
	Client  HealthClient `json:"client"`
}

type HealthClient struct {
	UserAgent string `json:"user-agent,omitempty"`
	Origin    string `json:"origin,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost && r.Method != http.MethodHead {
		s.writeError(w, errMethodNotAllowed)
		return
	}

	resp := HealthResponse{
		Status:  "ok",
		Version: s.version,
		Store:   "ok",
		Client: HealthClient{
			UserAgent: r.Header.Get("User-Agent"),
			Origin:    r.Header.Get("Origin"),
		},
	}
	status := http.StatusOK

	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := s.store.Ping(ctx); err != nil {
			logger.Warn(r.Context(), "store ping failed", "error", err)
			resp.Status = "degraded"
			resp.Store = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	s.writeJSON(w, status, resp)
}
