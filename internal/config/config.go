// Package config loads the server configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
	Replay   ReplayConfig   `mapstructure:"replay"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig covers the HTTP/WebSocket listener and operator access.
type ServerConfig struct {
	Address string `mapstructure:"address"`
	// OperatorPasswordHash is a bcrypt hash; empty disables kick/abandon.
	OperatorPasswordHash string `mapstructure:"operator_password_hash"`
}

// GameConfig carries the room defaults.
type GameConfig struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	DefaultPlayers int           `mapstructure:"default_players"`
	Packages       []string      `mapstructure:"packages"`
}

// DatabaseConfig points at postgres. An empty URL disables persistence.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// ReplayConfig controls transcript recording.
type ReplayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration file; a missing file yields the defaults.
// Environment variables prefixed SGS_ override file values
// (SGS_SERVER_ADDRESS, SGS_DATABASE_URL, ...).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":9527")
	v.SetDefault("server.operator_password_hash", "")
	v.SetDefault("game.default_timeout", "15s")
	v.SetDefault("game.default_players", 5)
	v.SetDefault("game.packages", []string{"standard", "maneuvering"})
	v.SetDefault("database.url", "")
	v.SetDefault("replay.enabled", true)
	v.SetDefault("replay.dir", "replays")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetEnvPrefix("SGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, missing := err.(viper.ConfigFileNotFoundError); !missing && !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
