package server

import (
	"context"
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store"`
}

// handleHealth reports liveness. An unreachable store answers 503 with
// status "degraded".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	resp := healthResponse{
		Status:    "healthy",
		Version:   Version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Store:     "ok",
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if s.store == nil {
		resp.Store = "not_configured"
	} else if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("store ping failed", "error", err)
		resp.Status = "degraded"
		resp.Store = "unavailable"
		respondJSON(w, http.StatusServiceUnavailable, reqID, "", resp, nil, nil)
		return
	}
	respondOK(w, reqID, resp)
}
