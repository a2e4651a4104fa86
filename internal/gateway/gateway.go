// ABOUTME: Gateway orchestrator that wires the store, tool packs, and MCP transports
// ABOUTME: Manages the HTTP server, health endpoints, and the stdio session lifecycle

package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/2389/cms-mcp/internal/auth"
	"github.com/2389/cms-mcp/internal/cms"
	"github.com/2389/cms-mcp/internal/config"
	"github.com/2389/cms-mcp/internal/mcp"
	"github.com/2389/cms-mcp/internal/packs"
	"github.com/2389/cms-mcp/internal/store"
)

// Version is reported to MCP clients in serverInfo. cmd/cms-mcp sets it from
// the build version.
var Version = "dev"

// Gateway orchestrates the cms-mcp server components.
type Gateway struct {
	config     *config.Config
	store      store.Store
	registry   *packs.Registry
	executor   *packs.Executor
	mcpServer  *mcp.Server
	httpServer *http.Server
	logger     *slog.Logger
}

// initStore opens the SQLite store. CMS_MCP_DB_PATH overrides database.path.
func initStore(cfg *config.Config) (*store.SQLiteStore, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("CMS_MCP_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// New creates a Gateway from cfg. The store is opened, configured content
// types and taxonomies are registered, and the tool packs are loaded.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := applyContentModel(ctx, st, cfg); err != nil {
		_ = st.Close()
		return nil, err
	}

	site := cms.Site{
		Name:       cfg.Site.Name,
		URL:        cfg.Site.URL,
		AdminEmail: cfg.Site.AdminEmail,
	}

	registry := packs.NewRegistry(logger.With("component", "pack-registry"))
	if err := cms.Register(registry, st, site); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("registering tool packs: %w", err)
	}

	executor, err := packs.NewExecutor(packs.ExecutorConfig{
		SafeMode:  cfg.SafeMode,
		Lifecycle: packs.NewSlogLifecycle(logger.With("component", "executor")),
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("creating executor: %w", err)
	}

	gate := auth.NewGate(cfg.Auth.BearerToken)
	mcpServer, err := mcp.NewServer(mcp.Config{
		Registry:    registry,
		Executor:    executor,
		Gate:        gate,
		Resources:   []mcp.Resource{mcp.SiteInfoResource(site, st)},
		Logger:      logger.With("component", "mcp"),
		Version:     Version,
		SessionTTL:  cfg.Server.SessionTimeout,
		MaxSessions: cfg.Server.MaxSessions,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	gw := &Gateway{
		config:    cfg,
		store:     st,
		registry:  registry,
		executor:  executor,
		mcpServer: mcpServer,
		logger:    logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("/health", gw.handleHealth)
	mux.HandleFunc("/health/ready", gw.handleReady)

	mcpServer.RegisterRoutes(mux, cfg.Server.Path)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if !gate.IsEnabled() {
		gw.logger.Warn("auth disabled - no bearer_token configured")
	}
	if cfg.SafeMode {
		gw.logger.Info("safe mode enabled - destructive tools are blocked")
	}

	return gw, nil
}

// Handler returns the HTTP handler serving health and MCP routes.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Registry returns the tool registry.
func (g *Gateway) Registry() *packs.Registry {
	return g.registry
}

// Run serves HTTP until ctx is cancelled or the server fails, then shuts
// down gracefully.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", g.config.Server.HTTPAddr, err)
	}
	return g.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening",
			"addr", ln.Addr().String(),
			"mcp_path", g.config.Server.Path,
		)
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the caller's context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), g.config.Server.ShutdownTimeout)
	defer cancel()
	return g.Shutdown(ctx)
}

// ServeStdio runs the MCP stdio transport until in is exhausted or ctx is
// cancelled, then closes the store.
func (g *Gateway) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	serveErr := g.mcpServer.ServeStdio(ctx, in, out)
	g.mcpServer.Close()
	closeErr := g.store.Close()
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}
	if closeErr != nil {
		return fmt.Errorf("store close: %w", closeErr)
	}
	return nil
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and closes the store.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))
	g.mcpServer.Close()
	errs = appendCloseError(errs, "store close", g.store.Close())

	return errors.Join(errs...)
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the store answers queries.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	version, err := g.store.Version(r.Context())
	if err != nil {
		g.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%s, %d tools)", version, len(g.registry.ListTools()))
}
