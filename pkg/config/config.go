// Package config loads sensorctl settings from .env, an optional YAML file
// and SENSORMINE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/goliatone/go-sensormine/pkg/sensormine"
)

// EnvPrefix namespaces every environment override, e.g.
// SENSORMINE_SERVICES_QUERY or SENSORMINE_RETRY_ATTEMPTS.
const EnvPrefix = "SENSORMINE"

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Config is the full sensorctl configuration.
type Config struct {
	Environment string               `mapstructure:"environment" yaml:"environment"`
	TenantID    string               `mapstructure:"tenant_id" yaml:"tenant_id"`
	Demo        bool                 `mapstructure:"demo" yaml:"demo"`
	Services    sensormine.Endpoints `mapstructure:"services" yaml:"services"`
	Timeout     time.Duration        `mapstructure:"timeout" yaml:"timeout"`
	Retry       RetryConfig          `mapstructure:"retry" yaml:"retry"`
	HTTP        HTTPConfig           `mapstructure:"http" yaml:"http"`
	Cache       CacheConfig          `mapstructure:"cache" yaml:"cache"`
	Log         LogConfig            `mapstructure:"log" yaml:"log"`
	Manifests   []string             `mapstructure:"manifests" yaml:"manifests,omitempty"`
}

// RetryConfig is the shared request retry policy.
type RetryConfig struct {
	// Attempts counts the first try, so 3 means two retries.
	Attempts int           `mapstructure:"attempts" yaml:"attempts"`
	Delay    time.Duration `mapstructure:"delay" yaml:"delay"`
}

// HTTPConfig controls the serve command listeners.
type HTTPConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	// Transport is fiber (go-router) or mux (net/http + gorilla/mux).
	Transport string `mapstructure:"transport" yaml:"transport"`
	BasePath  string `mapstructure:"base_path" yaml:"base_path"`
}

// CacheConfig sizes the in-process caches.
type CacheConfig struct {
	Models      int           `mapstructure:"models" yaml:"models"`
	SelectorTTL time.Duration `mapstructure:"selector_ttl" yaml:"selector_ttl"`
	ChartTTL    time.Duration `mapstructure:"chart_ttl" yaml:"chart_ttl"`
}

// LogConfig mirrors LOG_FORMAT and LOG_LEVEL for file based setups.
type LogConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Level  string `mapstructure:"level" yaml:"level"`
}

// LoadOptions controls Load.
type LoadOptions struct {
	// File is an optional YAML config path. A missing file is an error only
	// when set explicitly.
	File string
	// DotEnv lists .env files to read. Defaults to ".env"; missing files are
	// ignored.
	DotEnv []string
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Environment: EnvironmentDevelopment,
		TenantID:    sensormine.PlaceholderTenantID,
		Services: sensormine.Endpoints{
			Dashboard:   "http://localhost:5297",
			Device:      "http://localhost:5293",
			DigitalTwin: "http://localhost:5295",
			Query:       "http://localhost:5079",
			Alerts:      "http://localhost:5185",
			Preferences: "http://localhost:5297",
		},
		Timeout: sensormine.DefaultTimeout,
		Retry: RetryConfig{
			Attempts: sensormine.DefaultRetryMax + 1,
			Delay:    sensormine.DefaultRetryDelay,
		},
		HTTP: HTTPConfig{
			Addr:        ":8080",
			MetricsAddr: ":9090",
			Transport:   "fiber",
			BasePath:    "/sensormine",
		},
		Cache: CacheConfig{
			Models:      16,
			SelectorTTL: 5 * time.Minute,
			ChartTTL:    30 * time.Second,
		},
		Log: LogConfig{Format: "json", Level: "info"},
	}
}

// Load reads .env files, then the YAML file, then SENSORMINE_* variables.
func Load(opts LoadOptions) (Config, error) {
	dotenv := opts.DotEnv
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, file := range dotenv {
		if err := godotenv.Load(file); err != nil {
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) {
				return Config{}, fmt.Errorf("config: load %s: %w", file, err)
			}
		}
	}

	v := viper.New()
	setDefaults(v, Defaults())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", opts.File, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("environment", d.Environment)
	v.SetDefault("tenant_id", d.TenantID)
	v.SetDefault("demo", d.Demo)
	v.SetDefault("services.dashboard", d.Services.Dashboard)
	v.SetDefault("services.device", d.Services.Device)
	v.SetDefault("services.digitaltwin", d.Services.DigitalTwin)
	v.SetDefault("services.query", d.Services.Query)
	v.SetDefault("services.alerts", d.Services.Alerts)
	v.SetDefault("services.preferences", d.Services.Preferences)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("retry.attempts", d.Retry.Attempts)
	v.SetDefault("retry.delay", d.Retry.Delay)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.metrics_addr", d.HTTP.MetricsAddr)
	v.SetDefault("http.transport", d.HTTP.Transport)
	v.SetDefault("http.base_path", d.HTTP.BasePath)
	v.SetDefault("cache.models", d.Cache.Models)
	v.SetDefault("cache.selector_ttl", d.Cache.SelectorTTL)
	v.SetDefault("cache.chart_ttl", d.Cache.ChartTTL)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.level", d.Log.Level)
}

// Validate rejects settings the runtime cannot honor.
func (c Config) Validate() error {
	var errs []error
	if c.Retry.Attempts < 1 {
		errs = append(errs, errors.New("config: retry.attempts must be at least 1"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("config: timeout must be positive"))
	}
	switch c.HTTP.Transport {
	case "fiber", "mux":
	default:
		errs = append(errs, fmt.Errorf("config: http.transport must be fiber or mux, got %q", c.HTTP.Transport))
	}
	if c.Production() && c.Demo {
		errs = append(errs, errors.New("config: demo mode must not be enabled in production"))
	}
	if !c.Demo && c.Services.Dashboard == "" {
		errs = append(errs, errors.New("config: services.dashboard must be set"))
	}
	return errors.Join(errs...)
}

// Production reports whether the environment is production.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, EnvironmentProduction)
}

// ClientOptions maps the config onto the Sensormine client options.
func (c Config) ClientOptions(logger *slog.Logger, metrics *sensormine.Metrics) sensormine.Options {
	opts := sensormine.Options{
		Endpoints:       c.Services,
		Timeout:         c.Timeout,
		RetryMax:        c.Retry.Attempts - 1,
		RetryDelay:      c.Retry.Delay,
		Production:      c.Production(),
		DefaultTenantID: c.TenantID,
		Logger:          logger,
		Metrics:         metrics,
	}
	// Options treats zero as "use the default", negative as "never retry".
	if opts.RetryMax == 0 {
		opts.RetryMax = -1
	}
	return opts
}
