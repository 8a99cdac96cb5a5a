// Package config loads git-notes settings from a YAML file and GIT_NOTES_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GIT_NOTES_GITHUB_TOKEN.
const EnvPrefix = "GIT_NOTES"

// Config is the complete runtime configuration.
type Config struct {
	GitHub GitHubConfig `mapstructure:"github"`
	Log    LogConfig    `mapstructure:"log"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Server ServerConfig `mapstructure:"server"`
}

// GitHubConfig configures the REST client and login.
type GitHubConfig struct {
	Token         string        `mapstructure:"token"`
	BaseURL       string        `mapstructure:"base_url"`
	UserAgent     string        `mapstructure:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout"`
	OAuthClientID string        `mapstructure:"oauth_client_id"`
	PerPage       int           `mapstructure:"per_page"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// CacheConfig selects the cache store. An empty RedisAddr keeps the cache
// in memory.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Retention     time.Duration `mapstructure:"retention"`
}

// ServerConfig configures the HTTP facade.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SetDefaults registers every key with its default. Keys must be known to
// viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("github.token", "")
	v.SetDefault("github.base_url", "https://api.github.com/")
	v.SetDefault("github.user_agent", "git-notes/1.0")
	v.SetDefault("github.timeout", 30*time.Second)
	v.SetDefault("github.oauth_client_id", "")
	v.SetDefault("github.per_page", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.retention", time.Hour)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

// Load reads configuration into v. When configFile is empty, git-notes.yaml
// is looked up in the working directory and $HOME/.config/git-notes and may
// be absent; an explicit configFile must exist.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("git-notes")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/git-notes")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at first use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GitHub.UserAgent) == "" {
		return errors.New("github.user_agent is required")
	}

	u, err := url.Parse(c.GitHub.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("github.base_url must be an absolute http(s) url (got %q)", c.GitHub.BaseURL)
	}

	if c.GitHub.PerPage < 1 || c.GitHub.PerPage > 100 {
		return fmt.Errorf("github.per_page must be between 1 and 100 (got %d)", c.GitHub.PerPage)
	}
	if c.GitHub.Timeout <= 0 {
		return fmt.Errorf("github.timeout must be positive (got %s)", c.GitHub.Timeout)
	}
	return nil
}
