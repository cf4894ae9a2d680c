// Package gateway exposes the orchestrator over HTTP and WebSocket: user
// messages in, assistant replies or approval requests out.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/soyeahso/tripdesk/internal/config"
	"github.com/soyeahso/tripdesk/internal/logging"
	"github.com/soyeahso/tripdesk/internal/orchestrator"
)

// Server is the tripdesk gateway HTTP + WebSocket server.
type Server struct {
	cfg        config.GatewayConfig
	log        *logging.Logger
	orch       *orchestrator.Orchestrator
	hub        *Hub
	httpServer *http.Server
	startedAt  time.Time
}

// New creates a gateway server around an orchestrator. Wire the returned
// server's Hub into the orchestrator with orchestrator.WithEvents.
func New(cfg config.GatewayConfig, orch *orchestrator.Orchestrator, hub *Hub, log *logging.Logger) *Server {
	return &Server{
		cfg:  cfg,
		log:  log.Sub("gateway"),
		orch: orch,
		hub:  hub,
	}
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	host, err := s.bindHost()
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", s.cfg.Port))

	s.startedAt = time.Now()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("gateway listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.hub.Close()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) bindHost() (string, error) {
	switch s.cfg.Bind {
	case "", "loopback":
		return "127.0.0.1", nil
	case "lan":
		return "0.0.0.0", nil
	case "custom":
		if s.cfg.Host == "" {
			return "", errors.New("gateway: bind mode custom requires a host")
		}
		return s.cfg.Host, nil
	default:
		return "", fmt.Errorf("gateway: unknown bind mode %q", s.cfg.Bind)
	}
}
