package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/huangfengdan/hwlight-ha-component/internal/device"
	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/config"
	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/logging"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by every infrastructure client reported on
// /api/v1/health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Registry *device.Registry

	// HealthChecks are reported by name on /api/v1/health. Nil entries are skipped.
	HealthChecks map[string]HealthChecker

	Version string
}

// Server is the HTTP API server for registered lights.
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	secCfg   config.SecurityConfig
	logger   *logging.Logger
	registry *device.Registry
	checks   map[string]HealthChecker
	version  string

	hub    *Hub
	server *http.Server
	addr   net.Addr
	cancel context.CancelFunc
}

// New creates a server. The WebSocket hub exists from this point on so it
// can be handed to the registry before Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("light registry is required")
	}

	wsCfg := deps.WS
	if wsCfg.Path == "" {
		wsCfg.Path = "/ws"
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    wsCfg,
		secCfg:   deps.Security,
		logger:   deps.Logger,
		registry: deps.Registry,
		checks:   deps.HealthChecks,
		version:  deps.Version,
		hub:      NewHub(wsCfg, deps.Logger),
	}, nil
}

// Hub returns the WebSocket hub. It satisfies device.Broadcaster.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the fully wired router without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listener and serves in the background. Bind errors such
// as a port already in use are returned directly.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port)),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	s.addr = ln.Addr()

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.addr.String(), "cert", s.cfg.TLS.CertFile)
			err = s.server.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.addr.String())
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Close stops the hub and shuts the listener down, waiting up to ten
// seconds for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
