package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Gray Logic Panel.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Hub     HubConfig     `yaml:"hub"`
	Storage StorageConfig `yaml:"storage"`
	Diag    DiagConfig    `yaml:"diag"`
	Mirror  MirrorConfig  `yaml:"mirror"`
	Logging LoggingConfig `yaml:"logging"`
}

// HubConfig contains the hub connection settings.
type HubConfig struct {
	// URL is the base URL of the Gray Logic hub (e.g., "https://hub.local:8080").
	// May be left empty and supplied later via Session.SetHost.
	URL string `yaml:"url"`

	// DebounceMS is the entity update coalescing window in milliseconds.
	DebounceMS int `yaml:"debounce_ms"`

	// Auth contains the panel credentials used when no stored token exists.
	Auth HubAuthConfig `yaml:"auth"`
}

// HubAuthConfig contains panel credentials for the hub's login endpoint.
type HubAuthConfig struct {
	PanelID string `yaml:"panel_id"`
	Secret  string `yaml:"secret"`
}

// StorageConfig contains SQLite database settings for the local token store.
type StorageConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// DiagConfig contains the local diagnostics HTTP server settings.
type DiagConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// MirrorConfig contains the optional snapshot mirror settings.
type MirrorConfig struct {
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
}

// InfluxDBConfig contains InfluxDB connection settings for the state-history sink.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MQTTConfig contains MQTT broker settings for the republish sink.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	TLS         bool   `yaml:"tls"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	QoS         int    `yaml:"qos"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYPANEL_SECTION_KEY
// For example: GRAYPANEL_HUB_URL, GRAYPANEL_STORAGE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Hub: HubConfig{
			DebounceMS: 150,
		},
		Storage: StorageConfig{
			Path:        "./data/graypanel.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Diag: DiagConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8099,
		},
		Mirror: MirrorConfig{
			MQTT: MQTTConfig{
				Port:        1883,
				ClientID:    "graypanel",
				QoS:         1,
				TopicPrefix: "graypanel/state",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYPANEL_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Hub
	if v := os.Getenv("GRAYPANEL_HUB_URL"); v != "" {
		cfg.Hub.URL = v
	}
	if v := os.Getenv("GRAYPANEL_HUB_PANEL_ID"); v != "" {
		cfg.Hub.Auth.PanelID = v
	}
	if v := os.Getenv("GRAYPANEL_HUB_SECRET"); v != "" {
		cfg.Hub.Auth.Secret = v
	}

	// Storage
	if v := os.Getenv("GRAYPANEL_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}

	// Diag
	if v := os.Getenv("GRAYPANEL_DIAG_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Diag.Port = port
		}
	}

	// Mirror - InfluxDB token (secrets belong in the environment)
	if v := os.Getenv("GRAYPANEL_INFLUXDB_TOKEN"); v != "" {
		cfg.Mirror.InfluxDB.Token = v
	}

	// Mirror - MQTT credentials
	if v := os.Getenv("GRAYPANEL_MQTT_USERNAME"); v != "" {
		cfg.Mirror.MQTT.Username = v
	}
	if v := os.Getenv("GRAYPANEL_MQTT_PASSWORD"); v != "" {
		cfg.Mirror.MQTT.Password = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Hub validation: URL is optional (can arrive via SetHost) but must parse if set
	if c.Hub.URL != "" {
		u, err := url.Parse(c.Hub.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, "hub.url must be an absolute URL (e.g., https://hub.local:8080)")
		}
	}
	if c.Hub.DebounceMS < 0 {
		errs = append(errs, "hub.debounce_ms must not be negative")
	}

	// Storage validation
	if c.Storage.Path == "" {
		errs = append(errs, "storage.path is required")
	}

	// Diag validation
	if c.Diag.Enabled && (c.Diag.Port < 1 || c.Diag.Port > 65535) {
		errs = append(errs, "diag.port must be between 1 and 65535")
	}

	// Mirror validation
	if c.Mirror.InfluxDB.Enabled {
		if c.Mirror.InfluxDB.URL == "" {
			errs = append(errs, "mirror.influxdb.url is required when the InfluxDB sink is enabled")
		}
		if c.Mirror.InfluxDB.Bucket == "" {
			errs = append(errs, "mirror.influxdb.bucket is required when the InfluxDB sink is enabled")
		}
	}
	if c.Mirror.MQTT.Enabled {
		if c.Mirror.MQTT.Host == "" {
			errs = append(errs, "mirror.mqtt.host is required when the MQTT sink is enabled")
		}
		if c.Mirror.MQTT.QoS < 0 || c.Mirror.MQTT.QoS > 2 {
			errs = append(errs, "mirror.mqtt.qos must be 0, 1, or 2")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DebounceWindow returns the entity update coalescing window as a Duration.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.Hub.DebounceMS) * time.Millisecond
}
