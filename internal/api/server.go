package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-codec/internal/auth"
	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
	"github.com/nerrad567/gray-logic-codec/internal/datapoint"
	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-codec/internal/pipeline"
	"github.com/nerrad567/gray-logic-codec/internal/plc"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is a component reported by GET /health, e.g. the MQTT or
// InfluxDB client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Registry *datapoint.Registry
	Decoder  *plc.Decoder

	// ByteOrder is the default for Modbus multi-register values when a
	// request does not name one.
	ByteOrder bitbuf.ByteOrder

	// Pipeline is optional; its counters are reported by /health.
	Pipeline *pipeline.Pipeline

	// Checks are optional named components for /health. Entries must be
	// non-nil.
	Checks map[string]HealthChecker

	// Hub, if set, is used instead of creating one, so the pipeline can
	// broadcast to it before the server starts.
	Hub *Hub

	Version string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	registry  *datapoint.Registry
	decoder   *plc.Decoder
	order     bitbuf.ByteOrder
	pipeline  *pipeline.Pipeline
	checks    map[string]HealthChecker
	clients   *auth.Authenticator
	version   string
	server    *http.Server
	hub       *Hub
	hubShared bool               // true if hub was injected
	cancel    context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, registry, decoder)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing or the client list is invalid
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("datapoint registry is required")
	}
	if deps.Decoder == nil {
		return nil, fmt.Errorf("decoder is required")
	}

	clients, err := auth.NewAuthenticator(deps.Security.Clients)
	if err != nil {
		return nil, fmt.Errorf("loading API clients: %w", err)
	}

	s := &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		secCfg:   deps.Security,
		logger:   deps.Logger,
		registry: deps.Registry,
		decoder:  deps.Decoder,
		order:    deps.ByteOrder,
		pipeline: deps.Pipeline,
		checks:   deps.Checks,
		clients:  clients,
		version:  deps.Version,
	}
	if deps.Hub != nil {
		s.hub = deps.Hub
		s.hubShared = true
	}
	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub (unless one was injected), builds the router
// and launches the HTTP listener in a background goroutine. The server can
// be stopped with Close().
//
// Parameters:
//   - ctx: Context for the hub's lifetime (not the listener's)
//
// Returns:
//   - error: Currently always nil; listener errors are logged
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	if !s.hubShared {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
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

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// Hub returns the server's WebSocket hub, nil before Start unless one was
// injected.
func (s *Server) Hub() *Hub { return s.hub }
