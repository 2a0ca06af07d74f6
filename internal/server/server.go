// Package server exposes the grammar checker over gRPC, HTTP and WebSocket.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/msto63/chomsky/internal/checker"
	"github.com/msto63/chomsky/internal/source"
	"github.com/msto63/chomsky/internal/store"
	"github.com/msto63/chomsky/pkg/core/cache"
	"github.com/msto63/chomsky/pkg/core/config"
	coregrpc "github.com/msto63/chomsky/pkg/core/grpc"
	"github.com/msto63/chomsky/pkg/core/health"
	"github.com/msto63/chomsky/pkg/core/logging"
	"github.com/msto63/chomsky/pkg/core/version"
)

// Server runs the gRPC service and the HTTP gateway side by side
type Server struct {
	grpc         *coregrpc.Server
	httpServer   *http.Server
	httpListener net.Listener
	health       *health.Registry
	verdicts     *cachedChecker
	logger       *logging.Logger
	config       Config
}

// Config holds server configuration
type Config struct {
	Host             string
	GRPCPort         int
	HTTPPort         int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	EnableReflection bool
	Version          string
	CommentPrefix    string

	// Verdict cache; CacheSize <= 0 disables it
	CacheSize int
	CacheTTL  time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:          "0.0.0.0",
		GRPCPort:      9455,
		HTTPPort:      8455,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  30 * time.Second,
		Version:       version.Service,
		CommentPrefix: source.DefaultCommentPrefix,
		CacheSize:     1024,
		CacheTTL:      10 * time.Minute,
	}
}

// ConfigFrom maps the [server] section of the application config
func ConfigFrom(c *config.Config) Config {
	return Config{
		Host:             c.Server.Host,
		GRPCPort:         c.Server.GRPCPort,
		HTTPPort:         c.Server.HTTPPort,
		ReadTimeout:      c.Server.ReadTimeout.Duration,
		WriteTimeout:     c.Server.WriteTimeout.Duration,
		EnableReflection: c.Server.EnableReflection,
		Version:          version.Service,
		CommentPrefix:    c.Check.CommentPrefix,
		CacheSize:        c.Server.CacheSize,
		CacheTTL:         c.Server.CacheTTL.Duration,
	}
}

// New creates a server. The store may be nil, which disables the run endpoints.
func New(cfg Config, c *checker.Checker, st store.Store) *Server {
	logger := logging.New("server")

	var sc SentenceChecker = c
	var verdicts *cachedChecker
	if cfg.CacheSize > 0 {
		verdicts = newCachedChecker(c, cache.Config{MaxItems: cfg.CacheSize, TTL: cfg.CacheTTL})
		sc = verdicts
	}

	grpcCfg := coregrpc.DefaultServerConfig()
	grpcCfg.Host = cfg.Host
	grpcCfg.Port = cfg.GRPCPort
	grpcCfg.EnableReflection = cfg.EnableReflection
	grpcCfg.Logger = logging.New("grpc")
	grpcServer := coregrpc.NewServer(grpcCfg)
	RegisterGrammarServer(grpcServer.GRPCServer(), NewGrammarService(sc, cfg.CommentPrefix))

	registry := health.NewRegistry("chomsky", cfg.Version)
	registry.RegisterFunc("lexicon", func(ctx context.Context) health.CheckResult {
		size := sc.Parser().Lexicon().Size()
		if size == 0 {
			return health.CheckResult{Name: "lexicon", Status: health.StatusUnhealthy, Message: "lexicon is empty"}
		}
		return health.CheckResult{Name: "lexicon", Status: health.StatusHealthy, Message: fmt.Sprintf("%d words", size)}
	})
	if st != nil {
		registry.Register(health.PingCheck("store", st.Ping))
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", NewWebSocketHandler(sc, cfg.CommentPrefix))
	mux.Handle("/", NewHandler(sc, st, registry, cfg.CommentPrefix))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.HTTPPort),
		Handler:      loggingMiddleware(logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		grpc:       grpcServer,
		httpServer: httpServer,
		health:     registry,
		verdicts:   verdicts,
		logger:     logger,
		config:     cfg,
	}
}

// Handler returns the HTTP handler including middleware
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Health returns the health registry
func (s *Server) Health() *health.Registry {
	return s.health
}

// GRPC returns the underlying gRPC server
func (s *Server) GRPC() *coregrpc.Server {
	return s.grpc
}

// Start serves both protocols until ctx is cancelled or one of them fails
func (s *Server) Start(ctx context.Context) error {
	if err := s.listen(); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		if err := s.grpc.Serve(nil); err != nil {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()
	go func() {
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()
	s.grpc.SetServingStatus(ServiceName, true)

	s.logger.Info("Server started",
		"grpc", s.grpc.Address(),
		"http", s.httpListener.Addr().String(),
	)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		s.logger.Error("Server failed", "error", serveErr)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

// StartAsync binds both listeners and serves in the background
func (s *Server) StartAsync() error {
	if err := s.listen(); err != nil {
		return err
	}

	go func() {
		if err := s.grpc.Serve(nil); err != nil {
			s.logger.Error("gRPC server error", "error", err)
		}
	}()
	go func() {
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()
	s.grpc.SetServingStatus(ServiceName, true)
	return nil
}

// Stop gracefully stops both servers
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server")
	s.grpc.SetServingStatus(ServiceName, false)
	s.grpc.StopWithTimeout(ctx)
	err := s.httpServer.Shutdown(ctx)
	if s.verdicts != nil {
		s.verdicts.verdicts.Close()
	}
	return err
}

// GRPCAddress returns the bound gRPC address
func (s *Server) GRPCAddress() string {
	return s.grpc.Address()
}

// HTTPAddress returns the bound HTTP address
func (s *Server) HTTPAddress() string {
	if s.httpListener != nil {
		return s.httpListener.Addr().String()
	}
	return s.httpServer.Addr
}

func (s *Server) listen() error {
	if err := s.grpc.Listen(); err != nil {
		return err
	}
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.grpc.Stop()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.httpListener = listener
	return nil
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
		)
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}
