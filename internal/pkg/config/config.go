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
	DriverMongo    = "mongo"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS,     default=http://localhost:3000,http://localhost:5173"`
	StoreDriver     string        `env:"STORE_DRIVER,     default=mongo"`

	Token    TokenConfig
	Password PasswordConfig
	Login    LoginConfig

	Mongo    MongoConfig
	MySQL    MySQLConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

// TokenConfig has no default secret on purpose: a deployment must supply one.
type TokenConfig struct {
	Secret string        `env:"JWT_SECRET, required"`
	TTL    time.Duration `env:"TOKEN_TTL,    default=24h"`
	Issuer string        `env:"TOKEN_ISSUER, default=chapterzero-bookstore"`
}

type PasswordConfig struct {
	Algorithm  string `env:"PASSWORD_HASHER, default=bcrypt"`
	BcryptCost int    `env:"BCRYPT_COST,     default=12"`
}

type LoginConfig struct {
	MaxAttempts        int           `env:"LOGIN_MAX_ATTEMPTS,         default=5"`
	LockoutWindow      time.Duration `env:"LOGIN_LOCKOUT_WINDOW,       default=15m"`
	RateLimitPerMinute int           `env:"AUTH_RATE_LIMIT_PER_MINUTE, default=30"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=chapterzero"`
}

type MySQLConfig struct {
	DSN string `env:"MYSQL_DSN"`
}

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED,  default=true"`
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Validate checks cross-field rules envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Token.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo driver"))
		}
	case DriverMySQL:
		if c.MySQL.DSN == "" {
			errs = append(errs, errors.New("MYSQL_DSN is required for the mysql driver"))
		}
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.Login.MaxAttempts < 0 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must not be negative"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
// In development a local .env file is loaded first when present.
func Load(ctx context.Context) (*Config, error) {
	if os.Getenv("ENV") == "" || os.Getenv("ENV") == "development" {
		_ = godotenv.Load()
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
