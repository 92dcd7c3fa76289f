// Package server is the HTTP transport of storybridge. It mounts the
// preview routes under the configured prefix when gating allows it, applies
// CORS and request ids, and pushes live reload notifications to connected
// preview tools when templates change.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/conneroisu/storybridge/internal/config"
	"github.com/conneroisu/storybridge/internal/engine"
	"github.com/conneroisu/storybridge/internal/inspector"
	"github.com/conneroisu/storybridge/internal/lister"
	"github.com/conneroisu/storybridge/internal/logging"
	"github.com/conneroisu/storybridge/internal/metrics"
	"github.com/conneroisu/storybridge/internal/renderer"
	"github.com/conneroisu/storybridge/internal/resolver"
	"github.com/conneroisu/storybridge/internal/watcher"
)

const (
	// ServiceName is reported by the health endpoint.
	ServiceName = "Storybridge"

	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	watchDebounce     = 300 * time.Millisecond
)

// Server serves component previews with optional live reload.
type Server struct {
	config     *config.Config
	logger     logging.Logger
	metrics    *metrics.Metrics
	engine     engine.Chain
	extra      []engine.Engine
	dispatcher *renderer.Dispatcher
	inspector  *inspector.Inspector
	lister     *lister.Lister
	hub        *Hub
	watcher    *watcher.FileWatcher
	now        func() time.Time

	httpServer   *http.Server
	addr         net.Addr
	serverMutex  sync.RWMutex
	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics uses m instead of creating collectors from the config.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithEngines adds engines consulted after the template files, for example
// a ComponentEngine holding templ components of the host application.
func WithEngines(engines ...engine.Engine) Option {
	return func(s *Server) {
		s.extra = append(s.extra, engines...)
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New wires the resolver, engines, dispatcher, inspector and lister
// from cfg.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		config: cfg,
		logger: logging.NewNopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil && cfg.Metrics.Enabled {
		s.metrics = metrics.New()
	}

	files, err := engine.NewFileEngine(cfg.Components.Roots,
		engine.WithSuffix(cfg.Components.Suffix),
		engine.WithMissingKey(cfg.Components.MissingKey),
		engine.WithLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create template engine: %w", err)
	}

	s.engine = engine.NewChain(append([]engine.Engine{files}, s.extra...)...)

	res := resolver.New(cfg.Components.AllowedPrefixes,
		resolver.WithDefaultPrefix(cfg.Components.DefaultPrefix))

	dispatchOpts := []renderer.Option{renderer.WithLogger(s.logger)}
	if s.metrics != nil {
		dispatchOpts = append(dispatchOpts, renderer.WithObserver(s.metrics))
	}

	s.dispatcher = renderer.New(res, s.engine, dispatchOpts...)
	s.inspector = inspector.New(res, s.engine, inspector.WithLogger(s.logger))
	s.lister = lister.New(cfg.Components.Roots, cfg.Components.AllowedPrefixes,
		lister.WithSuffix(cfg.Components.Suffix),
		lister.WithSources(s.engine),
		lister.WithLogger(s.logger),
	)

	if cfg.Development.HotReload {
		s.hub = NewHub(s.logger, s.metrics)
	}

	s.logger = s.logger.WithComponent("server")

	return s, nil
}

// Dispatcher returns the render dispatcher.
func (s *Server) Dispatcher() *renderer.Dispatcher { return s.dispatcher }

// Inspector returns the metadata inspector.
func (s *Server) Inspector() *inspector.Inspector { return s.inspector }

// Lister returns the component lister.
func (s *Server) Lister() *lister.Lister { return s.lister }

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done or Shutdown is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if reason := s.config.GateReason(); reason != "" {
		s.logger.Warn(ctx, nil, "Preview routes are disabled; every route responds 404", "reason", reason)
	}

	if s.hub != nil && s.config.RoutesEnabled() {
		if err := s.startWatcher(ctx); err != nil {
			s.logger.Warn(ctx, err, "Live reload disabled")
		}
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.serverMutex.Lock()
	s.httpServer = srv
	s.addr = ln.Addr()
	s.serverMutex.Unlock()

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := s.Shutdown(shutdownCtx); err != nil {
				s.logger.Warn(shutdownCtx, err, "Graceful shutdown failed")
			}
		case <-stopped:
		}
	}()

	s.logger.Info(ctx, "Serving component previews",
		"addr", ln.Addr().String(),
		"prefix", "/"+s.config.RoutePrefix,
		"hot_reload", s.hub != nil,
		"metrics", s.metrics != nil)

	if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Addr returns the listening address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.serverMutex.RLock()
	defer s.serverMutex.RUnlock()
	return s.addr
}

// Shutdown stops the watcher, disconnects live reload clients and shuts
// the HTTP server down gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		s.serverMutex.RLock()
		fw := s.watcher
		srv := s.httpServer
		s.serverMutex.RUnlock()

		if fw != nil {
			if err := fw.Stop(); err != nil {
				s.logger.Warn(ctx, err, "Failed to stop file watcher")
			}
		}

		s.hub.Close()

		if srv != nil {
			shutdownErr = srv.Shutdown(ctx)
		}
	})

	return shutdownErr
}

func (s *Server) startWatcher(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(watchDebounce, s.logger)
	if err != nil {
		return err
	}

	fw.AddFilter(watcher.SuffixFilter(s.lister.Suffix()))
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.NoVendorFilter)
	fw.AddHandler(s.handleFileChange)

	for _, root := range s.lister.Roots() {
		if err := fw.AddRecursive(root); err != nil {
			s.logger.Warn(ctx, err, "Failed to watch template root", "root", root)
		}
	}

	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return err
	}

	s.serverMutex.Lock()
	s.watcher = fw
	s.serverMutex.Unlock()

	return nil
}

// handleFileChange drops cached templates and tells preview tools which
// components changed.
func (s *Server) handleFileChange(ctx context.Context, events []watcher.ChangeEvent) error {
	s.engine.Invalidate()

	for _, event := range events {
		s.metrics.IncReloads()

		id, ok := s.lister.IdentifierForPath(event.Path)
		if !ok {
			s.logger.Debug(ctx, "Changed file is not a component", "path", event.Path)
			continue
		}

		s.logger.Info(ctx, "Component changed", "component", id, "event", event.Type.String())
		s.hub.Broadcast(UpdateMessage{
			Type:      MessageComponentUpdate,
			Target:    id,
			Timestamp: s.now().UTC(),
		})
	}

	return nil
}
