// Package main implements the typecast server binary.
// It serves the cast-compatibility HTTP and gRPC APIs over a shared type
// catalog, or only one of them based on the --mode flag.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/arkilian/typecast/internal/app"
	"github.com/arkilian/typecast/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

// flags holds the command line overrides; empty values keep the config.
type flags struct {
	configFile    string
	dataDir       string
	mode          string
	httpAddr      string
	grpcAddr      string
	evolutionMode string
	storageType   string
}

func main() {
	var (
		f           flags
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&f.configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&f.dataDir, "data-dir", "", "Base directory for the catalog and local snapshots")
	flag.StringVar(&f.mode, "mode", "", "Service mode: all, http, grpc")
	flag.StringVar(&f.httpAddr, "http-addr", "", "HTTP API address")
	flag.StringVar(&f.grpcAddr, "grpc-addr", "", "gRPC server address")
	flag.StringVar(&f.evolutionMode, "evolution-mode", "", "Default schema evolution check: none, implicit, explicit")
	flag.StringVar(&f.storageType, "storage", "", "Snapshot storage type: local, s3")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "typecast - logical type cast-compatibility service\n\n")
		fmt.Fprintf(os.Stderr, "Usage: typecast [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  typecast --data-dir /data/typecast\n")
		fmt.Fprintf(os.Stderr, "  typecast --mode http --http-addr :8081\n")
		fmt.Fprintf(os.Stderr, "  typecast --config /etc/typecast/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  TYPECAST_MODE                    Service mode (all, http, grpc)\n")
		fmt.Fprintf(os.Stderr, "  TYPECAST_DATA_DIR                Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  TYPECAST_HTTP_ADDR               HTTP API address\n")
		fmt.Fprintf(os.Stderr, "  TYPECAST_GRPC_ADDR               gRPC server address\n")
		fmt.Fprintf(os.Stderr, "  TYPECAST_CATALOG_EVOLUTION_MODE  Default schema evolution check\n")
		fmt.Fprintf(os.Stderr, "  TYPECAST_CACHE_CAPACITY          Verdict cache size\n")
		fmt.Fprintf(os.Stderr, "  TYPECAST_STORAGE_TYPE            Snapshot storage type (local, s3)\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("typecast version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadConfig(f)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	printBanner(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	if err := application.WaitForShutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	if err := application.Stop(context.Background()); err != nil {
		log.Printf("Shutdown error: %v", err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file, environment variables and
// command line flags, in increasing priority.
func loadConfig(f flags) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if f.configFile != "" {
		cfg, err = config.LoadFromFile(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	if f.mode != "" {
		cfg.Mode = config.Mode(f.mode)
	}
	if f.httpAddr != "" {
		cfg.HTTP.Addr = f.httpAddr
	}
	if f.grpcAddr != "" {
		cfg.GRPC.Addr = f.grpcAddr
	}
	if f.evolutionMode != "" {
		cfg.Catalog.EvolutionMode = config.EvolutionMode(f.evolutionMode)
	}
	if f.storageType != "" {
		cfg.Storage.Type = f.storageType
	}

	return cfg, nil
}

// printBanner prints the startup banner with configuration summary.
func printBanner(cfg *config.Config) {
	log.Printf("╔═══════════════════════════════════════════════════════════╗")
	log.Printf("║                       TYPECAST                            ║")
	log.Printf("║        Logical type cast-compatibility service            ║")
	log.Printf("╚═══════════════════════════════════════════════════════════╝")
	log.Printf("")
	log.Printf("Configuration:")
	log.Printf("  Mode:      %s", cfg.Mode)
	log.Printf("  Data Dir:  %s", cfg.DataDir)
	log.Printf("  Catalog:   %s (evolution: %s)", cfg.Catalog.Path, cfg.Catalog.EvolutionMode)
	log.Printf("  Storage:   %s", cfg.Storage.Type)
	if cfg.Cache.Enabled {
		log.Printf("  Cache:     %d verdicts", cfg.Cache.Capacity)
	} else {
		log.Printf("  Cache:     disabled")
	}
	log.Printf("")

	if cfg.ShouldRunHTTP() {
		log.Printf("HTTP API:")
		log.Printf("  Addr:      %s", cfg.HTTP.Addr)
		log.Printf("  Max Batch: %d pairs", cfg.HTTP.MaxBatchPairs)
	}
	if cfg.ShouldRunGRPC() {
		log.Printf("gRPC API:")
		log.Printf("  Addr:      %s", cfg.GRPC.Addr)
	}

	log.Printf("")
}
