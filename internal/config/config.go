package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"allowance-app-go/pkg/logger"
	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	HTTPPort           string        `toml:"http_port" env:"HTTP_PORT"`
	Env                string        `toml:"env" env:"ENV"`
	CORSAllowedOrigins []string      `toml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	Store              StoreConfig   `toml:"store"`
	DB                 DBConfig      `toml:"db"`
	Auth               AuthConfig    `toml:"auth"`
	Metrics            MetricsConfig `toml:"metrics"`
	Tracing            TracingConfig `toml:"tracing"`
}

type StoreConfig struct {
	Driver     string `toml:"driver" env:"STORE_DRIVER"`
	SQLitePath string `toml:"sqlite_path" env:"SQLITE_PATH"`
}

type DBConfig struct {
	DSN             string        `toml:"dsn" env:"DB_DSN"`
	Host            string        `toml:"host" env:"DB_HOST"`
	Port            string        `toml:"port" env:"DB_PORT"`
	User            string        `toml:"user" env:"DB_USER"`
	Password        string        `toml:"password" env:"DB_PASSWORD"`
	Name            string        `toml:"name" env:"DB_NAME"`
	SSLMode         string        `toml:"sslmode" env:"DB_SSLMODE"`
	TimeZone        string        `toml:"timezone" env:"DB_TIMEZONE"`
	MaxOpenConns    int           `toml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `toml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
}

type AuthConfig struct {
	TokenSecret  string        `toml:"token_secret" env:"AUTH_TOKEN_SECRET"`
	TokenTTL     time.Duration `toml:"token_ttl" env:"AUTH_TOKEN_TTL"`
	PasswordCost int           `toml:"password_cost" env:"AUTH_PASSWORD_COST"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled" env:"METRICS_ENABLED"`
}

type TracingConfig struct {
	Endpoint    string `toml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `toml:"service_name" env:"OTEL_SERVICE_NAME"`
}

func Default() Config {
	return Config{
		HTTPPort: "8080",
		Env:      "development",
		Store: StoreConfig{
			Driver:     StoreSQLite,
			SQLitePath: "allowance.db",
		},
		DB: DBConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			Name:            "allowance_app",
			SSLMode:         "disable",
			TimeZone:        "UTC",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL:     12 * time.Hour,
			PasswordCost: 10,
		},
		Metrics: MetricsConfig{Enabled: true},
		Tracing: TracingConfig{ServiceName: "allowance-app"},
	}
}

// Load layers configuration: defaults, then the TOML file named by path (or
// CONFIG_FILE), then the environment including a discovered .env file.
func Load(log logger.Logger, path string) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		log.Info("config: loaded file", "path", path)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.normalize(log); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize(log logger.Logger) error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))

	switch c.Store.Driver {
	case StoreMemory, StorePostgres:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("config: sqlite store requires SQLITE_PATH")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}

	if c.Auth.TokenSecret == "" {
		if c.Env != "development" {
			return errors.New("config: AUTH_TOKEN_SECRET is required outside development")
		}
		c.Auth.TokenSecret = uuid.NewString()
		log.Warn("config: AUTH_TOKEN_SECRET not set, using an ephemeral development secret")
	}
	return nil
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
