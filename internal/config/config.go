package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Gateway    GatewayConfig
	Storage    StorageConfig
	Session    SessionConfig
	Permission PermissionConfig
	Persist    PersistConfig
	Log        LogConfig
	Locale     LocaleConfig
	Export     ExportConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host          string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port          int    `env:"SERVER_PORT" envDefault:"8080"`
	SecureCookies bool   `env:"SERVER_SECURE_COOKIES" envDefault:"false"`
	CORSOrigins   string `env:"CORS_ALLOWED_ORIGINS"`
}

// GatewayConfig holds remote data gateway configuration.
type GatewayConfig struct {
	BaseURL    string        `env:"GATEWAY_BASE_URL" envDefault:"https://www.my-info.co.kr/e4ssc-web/jsp/"`
	Timeout    time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`
	LoginTable string        `env:"GATEWAY_LOGIN_TABLE" envDefault:"ssc_00_demo.dbo"`
	FileShim   string        `env:"GATEWAY_FILE_SHIM"` // Path to a JSON fixture (disables the remote gateway)
}

// StorageConfig holds durable client-state storage configuration.
type StorageConfig struct {
	Driver        string `env:"STORAGE_DRIVER" envDefault:"sqlite3"`
	DSN           string `env:"STORAGE_DSN" envDefault:"data/console.db"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// SessionConfig holds session cookie configuration.
type SessionConfig struct {
	Secret   string        `env:"SESSION_SECRET"`
	Duration time.Duration `env:"SESSION_DURATION" envDefault:"12h"`
}

// PermissionConfig selects and configures the permission resolver.
type PermissionConfig struct {
	Backend    string        `env:"PERMISSION_BACKEND" envDefault:"static"`
	Delay      time.Duration `env:"PERMISSION_DELAY" envDefault:"1s"`
	PolicyPath string        `env:"PERMISSION_POLICY"`
}

// PersistConfig holds debounce settings for client-state writes.
type PersistConfig struct {
	Debounce time.Duration `env:"PERSIST_DEBOUNCE" envDefault:"500ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// LocaleConfig holds the default UI locale.
type LocaleConfig struct {
	Default string `env:"DEFAULT_LOCALE" envDefault:"ko"`
}

// ExportConfig holds export settings.
type ExportConfig struct {
	PDFFontPath string `env:"PDF_FONT_PATH"`
}

var (
	validStorageDrivers = map[string]bool{"memory": true, "sqlite3": true, "postgres": true, "redis": true}
	validBackends       = map[string]bool{"static": true, "casbin": true}
	validLogFormats     = map[string]bool{"text": true, "json": true}
)

// Load loads configuration from environment variables. When envFile is
// non-empty it is read first; variables already set in the environment win.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, errors.Wrapf(err, "loading %s", envFile)
		}
	}

	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, errors.Wrap(err, "parsing server config")
	}
	if err := env.Parse(&cfg.Gateway); err != nil {
		return nil, errors.Wrap(err, "parsing gateway config")
	}
	if err := env.Parse(&cfg.Storage); err != nil {
		return nil, errors.Wrap(err, "parsing storage config")
	}
	if err := env.Parse(&cfg.Session); err != nil {
		return nil, errors.Wrap(err, "parsing session config")
	}
	if err := env.Parse(&cfg.Permission); err != nil {
		return nil, errors.Wrap(err, "parsing permission config")
	}
	if err := env.Parse(&cfg.Persist); err != nil {
		return nil, errors.Wrap(err, "parsing persist config")
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, errors.Wrap(err, "parsing log config")
	}
	if err := env.Parse(&cfg.Locale); err != nil {
		return nil, errors.Wrap(err, "parsing locale config")
	}
	if err := env.Parse(&cfg.Export); err != nil {
		return nil, errors.Wrap(err, "parsing export config")
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AllowedOrigins returns the CORS origins as a slice.
func (c *ServerConfig) AllowedOrigins() []string {
	if c.CORSOrigins == "" {
		return nil
	}
	origins := strings.Split(c.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// SecretBytes returns the session secret as bytes.
func (c *SessionConfig) SecretBytes() ([]byte, error) {
	if c.Secret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}
	// Try to decode as hex first (64 hex chars = 32 bytes)
	if len(c.Secret) == 64 {
		decoded, err := hex.DecodeString(c.Secret)
		if err == nil {
			return decoded, nil
		}
	}
	if len(c.Secret) != 32 {
		return nil, errors.New("SESSION_SECRET must be 32 bytes (or 64 hex characters)")
	}
	return []byte(c.Secret), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !validStorageDrivers[c.Storage.Driver] {
		return errors.Errorf("STORAGE_DRIVER %q is not one of memory, sqlite3, postgres, redis", c.Storage.Driver)
	}
	if (c.Storage.Driver == "sqlite3" || c.Storage.Driver == "postgres") && c.Storage.DSN == "" {
		return errors.New("STORAGE_DSN is required for SQL storage")
	}
	if !validBackends[c.Permission.Backend] {
		return errors.Errorf("PERMISSION_BACKEND %q is not one of static, casbin", c.Permission.Backend)
	}
	if !validLogFormats[c.Log.Format] {
		return errors.Errorf("LOG_FORMAT %q is not one of text, json", c.Log.Format)
	}
	if c.Gateway.FileShim == "" && c.Gateway.BaseURL == "" {
		return errors.New("GATEWAY_BASE_URL is required (or set GATEWAY_FILE_SHIM for testing)")
	}
	if c.Gateway.Timeout <= 0 {
		return errors.New("GATEWAY_TIMEOUT must be positive")
	}
	if _, err := c.Session.SecretBytes(); err != nil {
		return err
	}
	return nil
}

// UseFileShim returns true if the file shim should be used instead of the real gateway.
func (c *Config) UseFileShim() bool {
	return c.Gateway.FileShim != ""
}
