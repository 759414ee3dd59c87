// Package config provides unified configuration for the typecast service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode represents which API surfaces to run.
type Mode string

const (
	ModeAll  Mode = "all"
	ModeHTTP Mode = "http"
	ModeGRPC Mode = "grpc"
)

// EvolutionMode is the cast kind a table schema change must satisfy.
type EvolutionMode string

const (
	EvolutionNone     EvolutionMode = "none"
	EvolutionImplicit EvolutionMode = "implicit"
	EvolutionExplicit EvolutionMode = "explicit"
)

// Config holds the unified configuration for the typecast service.
type Config struct {
	// Mode specifies which APIs to serve: all, http, grpc
	Mode Mode `json:"mode" yaml:"mode"`

	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	HTTP    HTTPConfig    `json:"http" yaml:"http"`
	GRPC    GRPCConfig    `json:"grpc" yaml:"grpc"`
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
	Cache   CacheConfig   `json:"cache" yaml:"cache"`
	Stats   StatsConfig   `json:"stats" yaml:"stats"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the HTTP listen address
	Addr string `json:"addr" yaml:"addr"`

	// MaxBatchPairs caps the number of pairs in one batch request
	MaxBatchPairs int `json:"max_batch_pairs" yaml:"max_batch_pairs"`

	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

// GRPCConfig holds gRPC server configuration.
type GRPCConfig struct {
	// Addr is the gRPC server address
	Addr string `json:"addr" yaml:"addr"`

	// Enabled controls whether gRPC is enabled
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// CatalogConfig holds the SQLite type catalog configuration.
type CatalogConfig struct {
	// Path is the catalog database file; defaults to <data_dir>/catalog.db
	Path string `json:"path" yaml:"path"`

	// EvolutionMode is the default check for schema changes
	EvolutionMode EvolutionMode `json:"evolution_mode" yaml:"evolution_mode"`

	// ReadPoolSize is the maximum number of read connections
	ReadPoolSize int `json:"read_pool_size" yaml:"read_pool_size"`
}

// CacheConfig holds verdict cache configuration.
type CacheConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Capacity is the maximum number of cached decisions
	Capacity int `json:"capacity" yaml:"capacity"`
}

// StatsConfig holds cast statistics configuration.
type StatsConfig struct {
	// Window is how long uncovered pairs are remembered
	Window time.Duration `json:"window" yaml:"window"`

	// PruneInterval is how often expired entries are dropped
	PruneInterval time.Duration `json:"prune_interval" yaml:"prune_interval"`
}

// StorageConfig holds snapshot storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// SnapshotKey is the default object key for catalog snapshots
	SnapshotKey string `json:"snapshot_key" yaml:"snapshot_key"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		Mode:    ModeAll,
		DataDir: "./data/typecast",
		HTTP: HTTPConfig{
			Addr:          ":8080",
			MaxBatchPairs: 1000,
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  60 * time.Second,
			IdleTimeout:   120 * time.Second,
		},
		GRPC: GRPCConfig{
			Addr:    ":9090",
			Enabled: true,
		},
		Catalog: CatalogConfig{
			EvolutionMode: EvolutionImplicit,
			ReadPoolSize:  10,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 10000,
		},
		Stats: StatsConfig{
			Window:        24 * time.Hour,
			PruneInterval: 10 * time.Minute,
		},
		Storage: StorageConfig{
			Type:        "local",
			SnapshotKey: "snapshots/catalog.json.snappy",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/typecast"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = filepath.Join(c.DataDir, "catalog.db")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeAll, ModeHTTP, ModeGRPC:
	default:
		return fmt.Errorf("invalid mode: %s (must be all, http, or grpc)", c.Mode)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	switch c.Catalog.EvolutionMode {
	case EvolutionNone, EvolutionImplicit, EvolutionExplicit:
	default:
		return fmt.Errorf("invalid catalog.evolution_mode: %s (must be none, implicit, or explicit)", c.Catalog.EvolutionMode)
	}

	if c.Catalog.ReadPoolSize < 1 {
		return fmt.Errorf("catalog.read_pool_size must be positive, got %d", c.Catalog.ReadPoolSize)
	}

	if c.Cache.Enabled && c.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be positive when the cache is enabled, got %d", c.Cache.Capacity)
	}

	if c.HTTP.MaxBatchPairs < 1 {
		return fmt.Errorf("http.max_batch_pairs must be positive, got %d", c.HTTP.MaxBatchPairs)
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	return nil
}

// ShouldRunHTTP returns true if the HTTP API should run.
func (c *Config) ShouldRunHTTP() bool {
	return c.Mode == ModeAll || c.Mode == ModeHTTP
}

// ShouldRunGRPC returns true if the gRPC API should run.
func (c *Config) ShouldRunGRPC() bool {
	return c.GRPC.Enabled && (c.Mode == ModeAll || c.Mode == ModeGRPC)
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the TYPECAST_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("TYPECAST_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("TYPECAST_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// HTTP configuration
	if v := os.Getenv("TYPECAST_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("TYPECAST_HTTP_MAX_BATCH_PAIRS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.HTTP.MaxBatchPairs)
	}

	// gRPC configuration
	if v := os.Getenv("TYPECAST_GRPC_ADDR"); v != "" {
		cfg.GRPC.Addr = v
	}
	if v := os.Getenv("TYPECAST_GRPC_ENABLED"); v != "" {
		cfg.GRPC.Enabled = v == "true" || v == "1"
	}

	// Catalog configuration
	if v := os.Getenv("TYPECAST_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("TYPECAST_CATALOG_EVOLUTION_MODE"); v != "" {
		cfg.Catalog.EvolutionMode = EvolutionMode(v)
	}
	if v := os.Getenv("TYPECAST_CATALOG_READ_POOL_SIZE"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Catalog.ReadPoolSize)
	}

	// Cache configuration
	if v := os.Getenv("TYPECAST_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("TYPECAST_CACHE_CAPACITY"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Cache.Capacity)
	}

	// Stats configuration
	if v := os.Getenv("TYPECAST_STATS_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Stats.Window = d
		}
	}

	// Storage configuration
	if v := os.Getenv("TYPECAST_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("TYPECAST_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("TYPECAST_SNAPSHOT_KEY"); v != "" {
		cfg.Storage.SnapshotKey = v
	}
	if v := os.Getenv("TYPECAST_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("TYPECAST_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("TYPECAST_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		filepath.Dir(c.Catalog.Path),
	}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
