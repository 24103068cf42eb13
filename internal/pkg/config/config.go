package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	// StorageDriver selects the persistence backend: "mongo" (with Redis for
	// token revocation) or "sqlite" for a single embedded file.
	StorageDriver   string        `env:"STORAGE_DRIVER,   default=sqlite"`
	AuditWorkers    int           `env:"AUDIT_WORKERS,    default=4"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	Mongo     MongoConfig
	Redis     RedisConfig
	SQLite    SQLiteConfig
	Bootstrap BootstrapConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DB,  default=user_management"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type SQLiteConfig struct {
	Path     string `env:"SQLITE_PATH,      default=users.db"`
	LogLevel string `env:"SQLITE_LOG_LEVEL, default=warn"`
}

// BootstrapConfig describes the administrator created on first start. Leave
// the email empty to skip it.
type BootstrapConfig struct {
	AdminName     string `env:"BOOTSTRAP_ADMIN_NAME, default=Administrator"`
	AdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
// A .env file in the working directory, when present, is loaded first;
// variables already set in the environment win.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper(), ".env")
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom is Load with an explicit lookuper and optional dotenv files.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper, dotenv ...string) (*Config, error) {
	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverMongo, DriverSQLite:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverMongo, DriverSQLite, c.StorageDriver)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.Bootstrap.AdminEmail != "" && c.Bootstrap.AdminPassword == "" {
		return errors.New("BOOTSTRAP_ADMIN_PASSWORD is required when BOOTSTRAP_ADMIN_EMAIL is set")
	}
	return nil
}
