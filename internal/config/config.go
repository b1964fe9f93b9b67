// Package config loads showrunner server configuration from defaults, an
// optional .env file, SHOWRUNNER_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Session store backends.
const (
	SessionStoreSQLite = "sqlite"
	SessionStoreRedis  = "redis"
)

// ServerConfig holds configuration for the showrunner server.
type ServerConfig struct {
	Addr      string `mapstructure:"SHOWRUNNER_ADDR"`       // Listen address (default ":8080")
	LogLevel  string `mapstructure:"SHOWRUNNER_LOG_LEVEL"`  // debug, info, warn, error
	LogFormat string `mapstructure:"SHOWRUNNER_LOG_FORMAT"` // text, json
	DBPath    string `mapstructure:"SHOWRUNNER_DB_PATH"`    // SQLite path, ":memory:" for testing

	// BaseURL is the public origin used in reset links. Empty means derive from the request.
	BaseURL string `mapstructure:"SHOWRUNNER_BASE_URL"`

	SessionSecret  string `mapstructure:"SHOWRUNNER_SESSION_SECRET"`
	TokenSecret    string `mapstructure:"SHOWRUNNER_TOKEN_SECRET"`
	SessionStore   string `mapstructure:"SHOWRUNNER_SESSION_STORE"`
	SessionCleanup string `mapstructure:"SHOWRUNNER_SESSION_CLEANUP"`
	RedisAddr      string `mapstructure:"SHOWRUNNER_REDIS_ADDR"`
	RedisPassword  string `mapstructure:"SHOWRUNNER_REDIS_PASSWORD"`
	SecureCookies  bool   `mapstructure:"SHOWRUNNER_SECURE_COOKIES"`
	BcryptCost     int    `mapstructure:"SHOWRUNNER_BCRYPT_COST"`
	MetricsEnabled bool   `mapstructure:"SHOWRUNNER_METRICS"`

	// SMTP delivery for reset links. With SMTPHost empty, links are logged instead.
	SMTPHost     string `mapstructure:"SHOWRUNNER_SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SHOWRUNNER_SMTP_PORT"`
	SMTPUsername string `mapstructure:"SHOWRUNNER_SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SHOWRUNNER_SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SHOWRUNNER_SMTP_FROM"`

	// Admins is a comma-separated list of usernames granted the admin role.
	Admins string `mapstructure:"SHOWRUNNER_ADMINS"`
	// AdminsFile is a YAML file with an "admins" list.
	AdminsFile string `mapstructure:"SHOWRUNNER_ADMINS_FILE"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           ":8080",
		LogLevel:       "info",
		LogFormat:      "text",
		DBPath:         "showrunner.db",
		SessionStore:   SessionStoreSQLite,
		SessionCleanup: "15m",
		RedisAddr:      "localhost:6379",
		BcryptCost:     12,
		MetricsEnabled: true,
		SMTPPort:       587,
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"addr":       "SHOWRUNNER_ADDR",
	"db":         "SHOWRUNNER_DB_PATH",
	"log-level":  "SHOWRUNNER_LOG_LEVEL",
	"log-format": "SHOWRUNNER_LOG_FORMAT",
	"base-url":   "SHOWRUNNER_BASE_URL",
}

// Load reads envFile (if present), then builds Config from the environment via
// Viper. Flags that were set on the command line override both. A missing
// envFile is ignored. Load does not validate; call Validate before serving.
func Load(envFile string, flags *pflag.FlagSet) (*ServerConfig, error) {
	v := viper.New()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		_ = v.ReadInConfig()
	}

	v.AutomaticEnv()

	d := DefaultServerConfig()
	v.SetDefault("SHOWRUNNER_ADDR", d.Addr)
	v.SetDefault("SHOWRUNNER_LOG_LEVEL", d.LogLevel)
	v.SetDefault("SHOWRUNNER_LOG_FORMAT", d.LogFormat)
	v.SetDefault("SHOWRUNNER_DB_PATH", d.DBPath)
	v.SetDefault("SHOWRUNNER_BASE_URL", "")
	v.SetDefault("SHOWRUNNER_SESSION_SECRET", "")
	v.SetDefault("SHOWRUNNER_TOKEN_SECRET", "")
	v.SetDefault("SHOWRUNNER_SESSION_STORE", d.SessionStore)
	v.SetDefault("SHOWRUNNER_SESSION_CLEANUP", d.SessionCleanup)
	v.SetDefault("SHOWRUNNER_REDIS_ADDR", d.RedisAddr)
	v.SetDefault("SHOWRUNNER_REDIS_PASSWORD", "")
	v.SetDefault("SHOWRUNNER_SECURE_COOKIES", false)
	v.SetDefault("SHOWRUNNER_BCRYPT_COST", d.BcryptCost)
	v.SetDefault("SHOWRUNNER_METRICS", d.MetricsEnabled)
	v.SetDefault("SHOWRUNNER_SMTP_HOST", "")
	v.SetDefault("SHOWRUNNER_SMTP_PORT", d.SMTPPort)
	v.SetDefault("SHOWRUNNER_SMTP_USERNAME", "")
	v.SetDefault("SHOWRUNNER_SMTP_PASSWORD", "")
	v.SetDefault("SHOWRUNNER_SMTP_FROM", "")
	v.SetDefault("SHOWRUNNER_ADMINS", "")
	v.SetDefault("SHOWRUNNER_ADMINS_FILE", "")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = d.BcryptCost
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &cfg, nil
}

// Validate reports configuration that would prevent the server from running safely.
func (c *ServerConfig) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("config: SHOWRUNNER_ADDR must be set"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("config: SHOWRUNNER_SESSION_SECRET must be set"))
	}
	if c.TokenSecret == "" {
		errs = append(errs, errors.New("config: SHOWRUNNER_TOKEN_SECRET must be set"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, errors.New("config: SHOWRUNNER_BCRYPT_COST must be between 4 and 31"))
	}
	switch c.SessionStore {
	case SessionStoreSQLite:
	case SessionStoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("config: SHOWRUNNER_REDIS_ADDR must be set for the redis session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown SHOWRUNNER_SESSION_STORE %q", c.SessionStore))
	}
	if _, err := time.ParseDuration(c.SessionCleanup); err != nil {
		errs = append(errs, fmt.Errorf("config: SHOWRUNNER_SESSION_CLEANUP: %w", err))
	}
	return errors.Join(errs...)
}

// CleanupInterval parses SessionCleanup. Returns 15m if unset or invalid.
func (c *ServerConfig) CleanupInterval() time.Duration {
	d, err := time.ParseDuration(c.SessionCleanup)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// SMTPEnabled reports whether reset links are delivered by mail.
func (c *ServerConfig) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// adminsFile is the YAML layout of AdminsFile.
type adminsFile struct {
	Admins []string `yaml:"admins"`
}

// AdminUsernames merges SHOWRUNNER_ADMINS with the admins listed in AdminsFile.
// A missing file is not an error; a malformed one is.
func (c *ServerConfig) AdminUsernames() ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, name := range strings.Split(c.Admins, ",") {
		add(name)
	}

	if c.AdminsFile != "" {
		data, err := os.ReadFile(c.AdminsFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: read admins file: %w", err)
		}
		if err == nil {
			var f adminsFile
			if err := yaml.Unmarshal(data, &f); err != nil {
				return nil, fmt.Errorf("config: parse admins file %s: %w", c.AdminsFile, err)
			}
			for _, name := range f.Admins {
				add(name)
			}
		}
	}
	return out, nil
}
