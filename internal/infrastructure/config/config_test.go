package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
hub:
  url: "https://hub.local:8080"
  debounce_ms: 200
  auth:
    panel_id: "panel-01"
    secret: "s3cret"
storage:
  path: "/tmp/graypanel.db"
  wal_mode: true
  busy_timeout: 5
diag:
  enabled: true
  host: "127.0.0.1"
  port: 8099
logging:
  level: "debug"
  format: "text"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Hub.URL != "https://hub.local:8080" {
		t.Errorf("Hub.URL = %q, want %q", cfg.Hub.URL, "https://hub.local:8080")
	}
	if cfg.Hub.Auth.PanelID != "panel-01" {
		t.Errorf("Hub.Auth.PanelID = %q, want panel-01", cfg.Hub.Auth.PanelID)
	}
	if cfg.Storage.Path != "/tmp/graypanel.db" {
		t.Errorf("Storage.Path = %q, want /tmp/graypanel.db", cfg.Storage.Path)
	}
	if got := cfg.DebounceWindow(); got != 200*time.Millisecond {
		t.Errorf("DebounceWindow() = %v, want 200ms", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// A minimal file leaves the defaults in place.
	cfg, err := Load(writeConfig(t, "hub:\n  url: \"https://hub.local\"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.DebounceWindow(); got != 150*time.Millisecond {
		t.Errorf("default DebounceWindow() = %v, want 150ms", got)
	}
	if !cfg.Diag.Enabled || cfg.Diag.Port != 8099 {
		t.Errorf("default Diag = %+v, want enabled on 8099", cfg.Diag)
	}
	if cfg.Mirror.MQTT.TopicPrefix != "graypanel/state" {
		t.Errorf("default Mirror.MQTT.TopicPrefix = %q", cfg.Mirror.MQTT.TopicPrefix)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GRAYPANEL_HUB_URL", "https://override.local")
	t.Setenv("GRAYPANEL_HUB_SECRET", "env-secret")
	t.Setenv("GRAYPANEL_STORAGE_PATH", "/tmp/override.db")

	cfg, err := Load(writeConfig(t, "hub:\n  url: \"https://hub.local\"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Hub.URL != "https://override.local" {
		t.Errorf("Hub.URL = %q, want env override", cfg.Hub.URL)
	}
	if cfg.Hub.Auth.Secret != "env-secret" {
		t.Errorf("Hub.Auth.Secret = %q, want env override", cfg.Hub.Auth.Secret)
	}
	if cfg.Storage.Path != "/tmp/override.db" {
		t.Errorf("Storage.Path = %q, want env override", cfg.Storage.Path)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Hub.URL = "https://hub.local"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid",
			mutate: func(_ *Config) {},
		},
		{
			name:   "empty hub url is allowed",
			mutate: func(c *Config) { c.Hub.URL = "" },
		},
		{
			name:    "relative hub url",
			mutate:  func(c *Config) { c.Hub.URL = "hub.local" },
			wantErr: true,
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.Hub.DebounceMS = -1 },
			wantErr: true,
		},
		{
			name:    "missing storage path",
			mutate:  func(c *Config) { c.Storage.Path = "" },
			wantErr: true,
		},
		{
			name:    "diag port out of range",
			mutate:  func(c *Config) { c.Diag.Port = 70000 },
			wantErr: true,
		},
		{
			name: "influx sink enabled without url",
			mutate: func(c *Config) {
				c.Mirror.InfluxDB.Enabled = true
				c.Mirror.InfluxDB.Bucket = "states"
			},
			wantErr: true,
		},
		{
			name: "mqtt sink enabled without host",
			mutate: func(c *Config) {
				c.Mirror.MQTT.Enabled = true
				c.Mirror.MQTT.Host = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
