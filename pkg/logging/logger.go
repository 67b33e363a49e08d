// Package logging builds the structured slog logger shared by sensorctl
// commands and the Sensormine client.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// EnvFormat selects the handler (json or text).
	EnvFormat = "LOG_FORMAT"
	// EnvLevel sets the minimum severity.
	EnvLevel = "LOG_LEVEL"

	appName       = "sensormine-dashboard"
	defaultFormat = "json"
	defaultLevel  = "info"
)

// Config is the validated logging configuration.
type Config struct {
	Format string
	Level  slog.Level
}

// BootstrapOptions controls logger initialization.
type BootstrapOptions struct {
	Command string
	Writer  io.Writer
	// Format and Level override the environment when set, typically from the
	// config file.
	Format string
	Level  string
}

// DefaultConfig returns json at info level.
func DefaultConfig() Config {
	return Config{Format: defaultFormat, Level: slog.LevelInfo}
}

// ParseConfig validates raw format and level strings. Empty values fall back
// to the defaults.
func ParseConfig(format, level string) (Config, error) {
	f, err := parseFormat(format)
	if err != nil {
		return Config{}, err
	}
	l, err := parseLevel(level)
	if err != nil {
		return Config{}, err
	}
	return Config{Format: f, Level: l}, nil
}

// LoadConfigFromEnv parses LOG_FORMAT and LOG_LEVEL.
func LoadConfigFromEnv() (Config, error) {
	return ParseConfig(os.Getenv(EnvFormat), os.Getenv(EnvLevel))
}

// NewLogger creates a logger tagged with the app and command names.
func NewLogger(cfg Config, writer io.Writer, command string) *slog.Logger {
	if writer == nil {
		writer = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}
	command = strings.TrimSpace(command)
	if command == "" {
		command = "sensorctl"
	}
	return slog.New(handler).With("app", appName, "command", command)
}

// Bootstrap resolves the config (env first, then explicit overrides),
// installs the logger as the slog default and returns it.
func Bootstrap(opts BootstrapOptions) (*slog.Logger, error) {
	format := os.Getenv(EnvFormat)
	if format == "" {
		format = opts.Format
	}
	level := os.Getenv(EnvLevel)
	if level == "" {
		level = opts.Level
	}
	cfg, err := ParseConfig(format, level)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg, opts.Writer, opts.Command)
	slog.SetDefault(logger)
	return logger, nil
}

func parseFormat(raw string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		return defaultFormat, nil
	}
	switch format {
	case "json", "text":
		return format, nil
	default:
		return "", fmt.Errorf("logging: %s must be one of: json, text", EnvFormat)
	}
}

func parseLevel(raw string) (slog.Level, error) {
	level := strings.ToLower(strings.TrimSpace(raw))
	if level == "" {
		level = defaultLevel
	}
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging: %s must be one of: debug, info, warn, error", EnvLevel)
	}
}
