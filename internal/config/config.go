// Package config loads the server configuration from defaults, an optional
// config file, a .env file, the environment and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/erazemk/carehub/internal/auth"
	"github.com/erazemk/carehub/internal/imaging"
	"github.com/erazemk/carehub/internal/logging"
	"github.com/erazemk/carehub/internal/model"
)

// EnvPrefix prefixes every environment variable, e.g. CAREHUB_ADDR or
// CAREHUB_LOG_LEVEL.
const EnvPrefix = "CAREHUB"

type Config struct {
	DB          string        `mapstructure:"db"`
	Addr        string        `mapstructure:"addr"`
	JWTSecret   string        `mapstructure:"jwt_secret"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
	AdminUser   string        `mapstructure:"admin_user"`

	Log struct {
		File   string `mapstructure:"file"`
		Format string `mapstructure:"format"`
		Level  string `mapstructure:"level"`
	} `mapstructure:"log"`

	Equipment struct {
		AllocationPolicy  model.AllocationPolicy `mapstructure:"allocation_policy"`
		PhotoMaxDimension int                    `mapstructure:"photo_max_dimension"`
		PhotoMaxBytes     int64                  `mapstructure:"photo_max_bytes"`
	} `mapstructure:"equipment"`
}

// New returns a viper instance with defaults and environment binding set
// up. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("db", "carehub.sqlite3")
	v.SetDefault("addr", ":8080")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_expiry", auth.DefaultTokenExpiry)
	v.SetDefault("admin_user", "admin")
	v.SetDefault("log.file", "")
	v.SetDefault("log.format", logging.FormatJSON)
	v.SetDefault("log.level", "info")
	v.SetDefault("equipment.allocation_policy", string(model.AllocationReassign))
	v.SetDefault("equipment.photo_max_dimension", imaging.DefaultMaxDimension)
	v.SetDefault("equipment.photo_max_bytes", imaging.DefaultMaxBytes)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads configFile (if set) into v and returns the validated config.
// A .env file in the working directory is loaded into the environment
// first; variables that are already set win.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	_ = godotenv.Load()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.TokenExpiry <= 0 {
		return fmt.Errorf("token_expiry must be positive, got %s", c.TokenExpiry)
	}
	if strings.TrimSpace(c.AdminUser) == "" {
		return fmt.Errorf("admin_user is required")
	}
	if !c.Equipment.AllocationPolicy.Valid() {
		return fmt.Errorf("equipment.allocation_policy must be %q or %q, got %q",
			model.AllocationReassign, model.AllocationExclusive, c.Equipment.AllocationPolicy)
	}
	if c.Equipment.PhotoMaxDimension <= 0 || c.Equipment.PhotoMaxBytes <= 0 {
		return fmt.Errorf("equipment photo limits must be positive")
	}
	if c.Log.Format != logging.FormatJSON && c.Log.Format != logging.FormatConsole {
		return fmt.Errorf("log.format must be %q or %q, got %q", logging.FormatJSON, logging.FormatConsole, c.Log.Format)
	}
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of trace, debug, info, warn, error; got %q", c.Log.Level)
	}
	return nil
}

// PhotoOptions returns the equipment photo limits.
func (c *Config) PhotoOptions() imaging.Options {
	return imaging.Options{MaxDimension: c.Equipment.PhotoMaxDimension, MaxBytes: c.Equipment.PhotoMaxBytes}
}

// LogOptions returns the logging settings.
func (c *Config) LogOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, Format: c.Log.Format, File: c.Log.File}
}
