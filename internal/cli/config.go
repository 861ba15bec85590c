package cli

import (
	"context"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/loomproc/loom/pkg/cache"
	"github.com/loomproc/loom/pkg/report"
)

// Cache backend names accepted in the [cache] section.
const (
	cacheBackendFile   = "file"
	cacheBackendMemory = "memory"
	cacheBackendRedis  = "redis"
	cacheBackendNone   = "none"
)

// Report store backend names accepted in the [reports] section.
const (
	reportBackendFile  = "file"
	reportBackendMongo = "mongo"
)

// Config is the loom.toml configuration file.
//
// All fields are optional; DefaultConfig supplies working values for a
// local, network-free setup (file cache, file report store).
type Config struct {
	Cache   CacheConfig   `toml:"cache"`
	Reports ReportsConfig `toml:"reports"`
	Serve   ServeConfig   `toml:"serve"`
}

// CacheConfig selects and configures the result cache backend.
type CacheConfig struct {
	// Backend is one of "file", "memory", "redis", or "none".
	Backend string `toml:"backend"`

	Redis RedisConfig `toml:"redis"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ReportsConfig selects and configures the report store backend.
type ReportsConfig struct {
	// Backend is one of "file" or "mongo".
	Backend string `toml:"backend"`

	// Dir overrides the file store directory (default ~/.config/loom/reports).
	Dir string `toml:"dir"`

	Mongo MongoConfig `toml:"mongo"`
}

// MongoConfig configures the mongo report store backend.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServeConfig configures the HTTP API server.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns a config that works without any external services.
func DefaultConfig() *Config {
	return &Config{
		Cache:   CacheConfig{Backend: cacheBackendFile},
		Reports: ReportsConfig{Backend: reportBackendFile},
		Serve:   ServeConfig{Addr: ":8484"},
	}
}

// DefaultConfigPath returns the default config file location
// (~/.config/loom/loom.toml). An empty string means no config dir is
// available and defaults should be used.
func DefaultConfigPath() string {
	dir, err := configDir()
	if err != nil {
		return ""
	}
	return dir + string(os.PathSeparator) + "loom.toml"
}

// LoadConfig reads a TOML config file and fills unset fields with defaults.
// A missing file is not an error; the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = cacheBackendFile
	}
	if cfg.Reports.Backend == "" {
		cfg.Reports.Backend = reportBackendFile
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = ":8484"
	}
	return cfg, nil
}

// OpenCache constructs the configured cache backend. Unknown backends fall
// back to the null cache so a typo in the config disables caching instead
// of breaking every command.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case cacheBackendMemory:
		return cache.NewMemoryCache(), nil
	case cacheBackendRedis:
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return cache.NewRedisCache(dialCtx, cache.RedisConfig{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
		})
	case cacheBackendFile, "":
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	default:
		return cache.NewNullCache(), nil
	}
}

// OpenReportStore constructs the configured report store backend.
func (c *Config) OpenReportStore(ctx context.Context) (report.Store, error) {
	if c.Reports.Backend == reportBackendMongo {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return report.NewMongoStore(dialCtx, report.MongoConfig{
			URI:        c.Reports.Mongo.URI,
			Database:   c.Reports.Mongo.Database,
			Collection: c.Reports.Mongo.Collection,
		})
	}
	return report.NewFileStore(c.Reports.Dir)
}
