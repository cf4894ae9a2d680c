package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes builds the HTTP mux with the full middleware chain applied.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/threads/{id}/messages", s.handleMessage)
	mux.HandleFunc("POST /v1/threads/{id}/approval", s.handleApproval)
	mux.HandleFunc("GET /v1/threads/{id}", s.handleThreadStatus)
	mux.HandleFunc("GET /v1/threads/{id}/events", s.handleEvents)

	var h http.Handler = mux
	h = authMiddleware(h, s.cfg.Auth.Mode, s.cfg.Auth.Token)
	return withMiddleware(h, s.log)
}
