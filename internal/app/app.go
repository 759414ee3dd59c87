// Package app provides the application lifecycle for the typecast service.
package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"google.golang.org/grpc"

	grpcapi "github.com/arkilian/typecast/internal/api/grpc"
	httpapi "github.com/arkilian/typecast/internal/api/http"
	"github.com/arkilian/typecast/internal/cache"
	"github.com/arkilian/typecast/internal/casts"
	"github.com/arkilian/typecast/internal/catalog"
	"github.com/arkilian/typecast/internal/config"
	"github.com/arkilian/typecast/internal/observability"
	"github.com/arkilian/typecast/internal/server"
	"github.com/arkilian/typecast/internal/storage"
)

// App manages the typecast service lifecycle.
type App struct {
	cfg *config.Config

	// Shared resources
	storage  storage.ObjectStorage
	catalog  *catalog.SQLiteCatalog
	verdicts *cache.VerdictCache
	stats    *observability.CastStats
	resolve  casts.ResolveFunc
	mode     catalog.EvolutionMode
	shutdown *server.ShutdownManager

	// Listeners
	httpServer   *http.Server
	httpListener net.Listener
	grpcServer   *grpc.Server
	grpcListener net.Listener

	// Lifecycle
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return &App{
		cfg: cfg,
	}, nil
}

// Start initializes shared resources and starts the configured listeners.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.initSharedResources(ctx); err != nil {
		a.cleanup()
		return fmt.Errorf("failed to initialize shared resources: %w", err)
	}

	if a.cfg.ShouldRunHTTP() {
		if err := a.startHTTP(); err != nil {
			a.cleanup()
			return fmt.Errorf("failed to start HTTP API: %w", err)
		}
	}

	if a.cfg.ShouldRunGRPC() {
		if err := a.startGRPC(); err != nil {
			a.cleanup()
			return fmt.Errorf("failed to start gRPC API: %w", err)
		}
	}

	a.startStatsPruner(ctx)

	log.Printf("typecast started in %s mode", a.cfg.Mode)
	return nil
}

// initSharedResources opens storage and the catalog and builds the resolver
// chain: statistics, then the verdict cache, then the cast engine.
func (a *App) initSharedResources(ctx context.Context) error {
	var err error

	a.storage, err = storage.New(ctx, a.cfg.Storage.Type, a.cfg.Storage.Path, a.cfg.Storage.S3.Bucket, storage.S3Config{
		Region:       a.cfg.Storage.S3.Region,
		Endpoint:     a.cfg.Storage.S3.Endpoint,
		UsePathStyle: a.cfg.Storage.S3.Endpoint != "",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Printf("Storage initialized: type=%s", a.cfg.Storage.Type)
	if a.cfg.Storage.Type == "s3" {
		log.Printf("S3 Config: Bucket=%s, Region=%s, Endpoint=%s",
			a.cfg.Storage.S3.Bucket, a.cfg.Storage.S3.Region, a.cfg.Storage.S3.Endpoint)
	}

	a.mode, err = catalog.ParseEvolutionMode(string(a.cfg.Catalog.EvolutionMode))
	if err != nil {
		return err
	}

	a.catalog, err = catalog.NewCatalog(a.cfg.Catalog.Path, a.cfg.Catalog.ReadPoolSize)
	if err != nil {
		return fmt.Errorf("failed to initialize type catalog: %w", err)
	}
	log.Printf("Type catalog initialized: %s", a.cfg.Catalog.Path)

	a.resolve = casts.Resolve
	if a.cfg.Cache.Enabled {
		a.verdicts, err = cache.NewVerdictCache(a.cfg.Cache.Capacity, casts.Resolve)
		if err != nil {
			return fmt.Errorf("failed to initialize verdict cache: %w", err)
		}
		a.resolve = a.verdicts.Resolve
		log.Printf("Verdict cache initialized: capacity=%d", a.cfg.Cache.Capacity)
	}

	a.stats = observability.NewCastStats(a.cfg.Stats.Window)
	a.resolve = a.stats.Observe(a.resolve)
	a.catalog.SetResolveFunc(a.resolve)

	a.shutdown = server.NewShutdownManager(server.DefaultShutdownConfig())
	return nil
}

// Handler returns the HTTP API handler. It is only valid after Start.
func (a *App) Handler() http.Handler {
	middleware := httpapi.ChainMiddleware(
		server.ShutdownMiddleware(a.shutdown),
		httpapi.RecoveryMiddleware,
		httpapi.RequestIDMiddleware,
		httpapi.CorrelationIDMiddleware,
		httpapi.ContentTypeMiddleware,
	)

	return httpapi.NewMux(httpapi.Handlers{
		Casts:     httpapi.NewCastHandler(a.catalog, a.resolve, a.cfg.HTTP.MaxBatchPairs),
		Tables:    httpapi.NewTableHandler(a.catalog, a.mode),
		Types:     httpapi.NewTypeHandler(a.catalog),
		Stats:     httpapi.NewStatsHandler(a.stats, a.verdicts),
		Snapshots: httpapi.NewSnapshotHandler(a.catalog, a.storage, a.cfg.Storage.SnapshotKey),
		Health:    httpapi.HealthHandler("typecast", string(a.cfg.Mode)),
	}, middleware)
}

// startHTTP starts the HTTP API server.
func (a *App) startHTTP() error {
	var err error
	a.httpListener, err = net.Listen("tcp", a.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on HTTP address: %w", err)
	}

	a.httpServer = &http.Server{
		Handler:      a.Handler(),
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}
	a.shutdown.RegisterCloser("http", server.HTTPCloser(a.httpServer, 10*time.Second))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		log.Printf("HTTP API listening on %s", a.httpListener.Addr())
		if err := a.httpServer.Serve(a.httpListener); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	return nil
}

// startGRPC starts the gRPC cast service.
func (a *App) startGRPC() error {
	var err error
	a.grpcListener, err = net.Listen("tcp", a.cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC address: %w", err)
	}

	a.grpcServer = grpc.NewServer()
	grpcapi.RegisterCastServiceServer(a.grpcServer,
		grpcapi.NewCastServer(a.catalog, a.resolve, a.cfg.HTTP.MaxBatchPairs))
	a.shutdown.RegisterCloser("grpc", server.GRPCCloser(a.grpcServer, 10*time.Second))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		log.Printf("gRPC server listening on %s", a.grpcListener.Addr())
		if err := a.grpcServer.Serve(a.grpcListener); err != nil {
			log.Printf("gRPC server error: %v", err)
		}
	}()

	return nil
}

// startStatsPruner drops expired uncovered pairs every PruneInterval.
func (a *App) startStatsPruner(ctx context.Context) {
	interval := a.cfg.Stats.PruneInterval
	if interval <= 0 {
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := a.stats.Prune(); n > 0 {
					log.Printf("Pruned %d expired uncovered cast pairs", n)
				}
			}
		}
	}()
}

// HTTPAddr returns the bound HTTP address, or "" if HTTP is not running.
func (a *App) HTTPAddr() string {
	if a.httpListener == nil {
		return ""
	}
	return a.httpListener.Addr().String()
}

// GRPCAddr returns the bound gRPC address, or "" if gRPC is not running.
func (a *App) GRPCAddr() string {
	if a.grpcListener == nil {
		return ""
	}
	return a.grpcListener.Addr().String()
}

// Stop gracefully stops all listeners and releases resources.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	log.Printf("Initiating graceful shutdown...")

	if a.cancel != nil {
		a.cancel()
	}

	var stopErr error
	if a.shutdown != nil {
		stopErr = a.shutdown.Shutdown(ctx, "stop requested")
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Printf("Shutdown timeout, some goroutines may not have finished")
	}

	a.cleanup()

	log.Printf("typecast stopped")
	return stopErr
}

// cleanup releases all shared resources.
func (a *App) cleanup() {
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			log.Printf("[WARN] closing catalog: %v", err)
		}
		a.catalog = nil
	}
}

// WaitForShutdown blocks until a shutdown signal is received.
func (a *App) WaitForShutdown(ctx context.Context) error {
	return a.shutdown.ListenForSignals(ctx)
}
