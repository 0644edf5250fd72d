package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Port      string  `env:"PORT,      default=8080"`
	Env       string  `env:"ENV,       default=development"`
	JWTSecret string  `env:"JWT_SECRET"`
	LogLevel  string  `env:"LOG_LEVEL, default=info"`
	AdminIDs  []int64 `env:"ADMIN_IDS"`

	Store  StoreConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Media  MediaConfig
	Notify NotifyConfig
}

type StoreConfig struct {
	// Driver is sqlite, postgres or mongo. When empty it is inferred from
	// DATABASE_URL.
	Driver      string        `env:"STORE_DRIVER"`
	DatabaseURL string        `env:"DATABASE_URL, default=requests.db"`
	BusyTimeout time.Duration `env:"SQLITE_BUSY_TIMEOUT, default=5s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=service_requests"`
}

type RedisConfig struct {
	// Addr is empty by default: idempotency keys and pub/sub notifications
	// are then disabled.
	Addr           string        `env:"REDIS_ADDR"`
	Password       string        `env:"REDIS_PASSWORD"`
	DB             int           `env:"REDIS_DB,        default=0"`
	Channel        string        `env:"REDIS_CHANNEL,   default=requests.events"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

type MediaConfig struct {
	Dir      string `env:"MEDIA_DIR,       default=./media"`
	MaxBytes int64  `env:"MEDIA_MAX_BYTES, default=10485760"`
}

type NotifyConfig struct {
	Workers int `env:"NOTIFY_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.resolveDriver(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) resolveDriver() error {
	pg := isPostgresURL(c.Store.DatabaseURL)
	switch strings.ToLower(c.Store.Driver) {
	case "":
		if pg {
			c.Store.Driver = DriverPostgres
		} else {
			c.Store.Driver = DriverSQLite
		}
	case DriverPostgres:
		if !pg {
			return fmt.Errorf("config: STORE_DRIVER=postgres needs a postgres:// DATABASE_URL")
		}
		c.Store.Driver = DriverPostgres
	case DriverSQLite:
		if pg {
			return fmt.Errorf("config: STORE_DRIVER=sqlite with a postgres DATABASE_URL")
		}
		c.Store.Driver = DriverSQLite
	case DriverMongo:
		c.Store.Driver = DriverMongo
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver)
	}
	return nil
}

func isPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}
