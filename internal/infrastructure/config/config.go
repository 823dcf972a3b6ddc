package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth    AuthConfig
	Session SessionConfig
	Storage StorageConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type AuthConfig struct {
	JWTSecret     string `env:"JWT_SECRET, required"`
	TokenMinutes  int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES, default=10080"`
	TokenAudience string `env:"TOKEN_AUDIENCE, default=grademind:auth"`
	BcryptCost    int    `env:"BCRYPT_COST, default=10"`
}

type SessionConfig struct {
	Enforce         bool   `env:"SESSION_ENFORCE, default=true"`
	SweepSchedule   string `env:"SESSION_SWEEP_SCHEDULE, default=@every 1h"`
	ActivityWorkers int    `env:"ACTIVITY_WORKERS, default=4"`
}

type StorageConfig struct {
	Driver      string `env:"STORAGE_DRIVER, default=mongo"`
	PostgresDSN string `env:"POSTGRES_DSN"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=grademind"`
}

// RedisConfig is optional; an empty Addr turns the logout denylist off and
// revocation falls back to the session ledger.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// TokenLifetime is the access token lifetime.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenMinutes) * time.Minute
}

// IsDevelopment reports whether pretty console logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.TokenMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", c.Auth.TokenMinutes)
	}
	switch c.Storage.Driver {
	case StorageMongo:
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORAGE_DRIVER=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	return nil
}
