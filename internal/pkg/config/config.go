package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Backend   BackendConfig
	Session   SessionConfig
	Catalog   CatalogConfig
	Directory DirectoryConfig
	Events    EventsConfig

	Mongo MongoConfig
	Redis RedisConfig
}

// BackendConfig points at the remote marketplace API. An empty URL or
// Disabled=true runs the service offline against local data only.
type BackendConfig struct {
	URL      string        `env:"BACKEND_URL"`
	Disabled bool          `env:"BACKEND_DISABLED, default=false"`
	Timeout  time.Duration `env:"BACKEND_TIMEOUT,  default=10s"`
}

func (b BackendConfig) Enabled() bool {
	return b.URL != "" && !b.Disabled
}

type SessionConfig struct {
	Store  string `env:"SESSION_STORE,  default=sqlite"`
	DSN    string `env:"SESSION_DSN,    default=file:marketplace.db"`
	Secret string `env:"SESSION_SECRET, default=change-me"`
}

type CatalogConfig struct {
	Store        string  `env:"CATALOG_STORE,         default=memory"`
	Seed         bool    `env:"CATALOG_SEED,          default=true"`
	PriceCeiling float64 `env:"CATALOG_PRICE_CEILING, default=2000"`
}

type DirectoryConfig struct {
	Store string `env:"DIRECTORY_STORE, default=memory"`
}

type EventsConfig struct {
	NATSURL   string        `env:"NATS_URL"`
	Workers   int           `env:"EVENT_WORKERS, default=4"`
	NotifyTTL time.Duration `env:"NOTIFY_TTL,    default=30s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=marketplace"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// Load reads an optional .env file, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Store {
	case StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("config: SESSION_STORE must be %q or %q, got %q", StoreSQLite, StoreRedis, c.Session.Store)
	}
	for key, v := range map[string]string{"CATALOG_STORE": c.Catalog.Store, "DIRECTORY_STORE": c.Directory.Store} {
		if v != StoreMemory && v != StoreMongo {
			return fmt.Errorf("config: %s must be %q or %q, got %q", key, StoreMemory, StoreMongo, v)
		}
	}
	if c.Catalog.PriceCeiling <= 0 {
		return fmt.Errorf("config: CATALOG_PRICE_CEILING must be positive")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("config: SESSION_SECRET must not be empty")
	}
	return nil
}

// NeedsMongo reports whether any store is backed by MongoDB.
func (c *Config) NeedsMongo() bool {
	return c.Catalog.Store == StoreMongo || c.Directory.Store == StoreMongo
}
