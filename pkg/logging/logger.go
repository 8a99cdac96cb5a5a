// Package logging configures zerolog for the git-notes binaries and hands out
// component loggers.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"

	// LevelDisabled turns logging off.
	LevelDisabled LogLevel = "disabled"
)

// Component names used across the module.
const (
	ComponentCache   = "cache"
	ComponentClient  = "github-client"
	ComponentQueries = "queries"
	ComponentSession = "session"
	ComponentServer  = "server"
	ComponentCLI     = "cli"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Service is attached to every event when set.
	Service string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:   LevelInfo,
		Pretty:  false,
		Output:  os.Stderr,
		Service: "git-notes",
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger
	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: request and cache flow
//   - Cache hit/miss, key, entry state transitions
//   - GitHub request method and path
//   - Rate limit updates while healthy
//
// Info: lifecycle events
//   - Session start/end
//   - Server startup/shutdown
//   - Fetch succeeded after retry
//
// Warn: degraded but operating
//   - Rate limit low, circuit breaker state changes
//   - Failed fetches (the previous value is still served)
//   - Cache store errors, rejected state transitions
//
// Error: needs attention
//   - Rate limit exhausted (requests blocked)
//   - Server failures, configuration errors
//
// Context Fields:
//   - component: emitting package (cache, github-client, queries, ...)
//   - key / family / prefix: cache key, resource family, invalidation prefix
//   - path / method / status / error_class: GitHub request outcome
//   - remaining / reset_at: rate limit budget
//   - login: GitHub user of the session
