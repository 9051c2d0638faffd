package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/i474232898/weather-monitor/internal/weather"
)

const (
	// EnvPrefix prefixes every environment override, e.g. WEATHER_POLL_INTERVAL.
	EnvPrefix = "WEATHER_"
	// FileEnv names the variable holding an optional YAML config path.
	FileEnv = "WEATHER_CONFIG"
)

// DefaultLocations are the cities monitored when none are configured.
var DefaultLocations = []string{"Delhi", "Mumbai", "Chennai", "Bangalore", "Kolkata", "Hyderabad"}

type AppConfig struct {
	AppEnv   string `koanf:"app_env"`
	LogLevel string `koanf:"log_level"`
	Port     string `koanf:"port"`

	// StaticDir is served at / when set (browser dashboard).
	StaticDir string `koanf:"static_dir"`

	OpenWeatherAPIKey  string `koanf:"openweather_api_key"`
	OpenWeatherBaseURL string `koanf:"openweather_base_url"`

	// PollInterval controls how often every location is polled.
	PollInterval time.Duration `koanf:"poll_interval"`
	// FetchTimeout bounds one location pipeline.
	FetchTimeout    time.Duration `koanf:"fetch_timeout"`
	HTTPTimeout     time.Duration `koanf:"http_timeout"`
	FetchMaxRetries int           `koanf:"fetch_max_retries"`

	// Locations to track; read once at startup.
	Locations []string `koanf:"locations"`

	TempThreshold    float64 `koanf:"temp_threshold"`
	AlertConsecutive int     `koanf:"alert_consecutive"`
	AlertHistory     int     `koanf:"alert_history"`

	AggregateWindow string `koanf:"aggregate_window"`

	StoreDriver     string `koanf:"store_driver"`
	SQLitePath      string `koanf:"sqlite_path"`
	DatabaseURL     string `koanf:"database_url"`
	StoreMaxHistory int    `koanf:"store_max_history"` // memory store only, 0 = unlimited

	MQTTBroker   string `koanf:"mqtt_broker"` // empty disables MQTT alerts
	MQTTPort     int    `koanf:"mqtt_port"`
	MQTTClientID string `koanf:"mqtt_client_id"`
	MQTTTopic    string `koanf:"mqtt_topic"`
}

// Defaults returns the configuration used when nothing overrides it.
// Locations is left empty and filled after loading so overrides replace it instead of merging.
func Defaults() AppConfig {
	return AppConfig{
		AppEnv:             "dev",
		LogLevel:           "info",
		Port:               "8080",
		OpenWeatherBaseURL: "https://api.openweathermap.org/data/2.5/weather",
		PollInterval:       5 * time.Minute,
		FetchTimeout:       30 * time.Second,
		HTTPTimeout:        10 * time.Second,
		FetchMaxRetries:    0,
		TempThreshold:      weather.DefaultTempThreshold,
		AlertConsecutive:   weather.DefaultAlertConsecutive,
		AlertHistory:       50,
		AggregateWindow:    string(weather.WindowAll),
		StoreDriver:        "sqlite",
		SQLitePath:         "weather.db",
		MQTTPort:           1883,
		MQTTClientID:       "weather-monitor",
		MQTTTopic:          "weather/alerts",
	}
}

// Load builds the configuration by layering (low -> high precedence):
//  1. Defaults()
//  2. YAML file named by WEATHER_CONFIG, if set
//  3. environment variables prefixed WEATHER_ (a .env file is loaded into the environment first)
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("config: failed to load .env file", "error", err)
	}

	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// WEATHER_POLL_INTERVAL -> poll_interval
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Locations = normalizeLocations(cfg.Locations)
	if len(cfg.Locations) == 0 {
		cfg.Locations = append([]string(nil), DefaultLocations...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the process cannot start without.
func (c *AppConfig) Validate() error {
	if len(c.Locations) == 0 {
		return errors.New("at least one location must be configured")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid poll_interval %s: must be positive", c.PollInterval)
	}
	if c.FetchMaxRetries < 0 {
		return fmt.Errorf("invalid fetch_max_retries %d", c.FetchMaxRetries)
	}
	if _, err := weather.ParseWindow(c.AggregateWindow); err != nil {
		return err
	}
	switch c.StoreDriver {
	case "memory", "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url is required for the postgres store")
		}
	default:
		return fmt.Errorf("invalid store_driver %q (allowed: memory, sqlite, postgres)", c.StoreDriver)
	}
	return nil
}

// Thresholds returns the configured startup thresholds.
func (c *AppConfig) Thresholds() weather.Thresholds {
	return weather.Thresholds{
		TempThreshold:    c.TempThreshold,
		AlertConsecutive: c.AlertConsecutive,
	}
}

func normalizeLocations(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, entry := range in {
		// Env values arrive as one comma separated string.
		for _, l := range strings.Split(entry, ",") {
			l = strings.TrimSpace(l)
			if l == "" || seen[l] {
				continue
			}
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
