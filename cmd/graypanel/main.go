// Gray Logic Panel - wall panel session daemon
//
// This is the main entry point for the Gray Logic Panel application.
// The panel daemon maintains a live session to a Gray Logic hub:
//   - Token persistence and authentication against the hub
//   - A debounced entity snapshot stream with readiness tracking
//   - Service call dispatch
//   - Optional state mirroring to InfluxDB and MQTT
//   - A local diagnostics HTTP endpoint
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-panel/internal/api"
	"github.com/nerrad567/gray-logic-panel/internal/auth"
	"github.com/nerrad567/gray-logic-panel/internal/hub"
	"github.com/nerrad567/gray-logic-panel/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-panel/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-panel/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-panel/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-panel/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-panel/internal/mirror"
	"github.com/nerrad567/gray-logic-panel/internal/panel"
	"github.com/nerrad567/gray-logic-panel/internal/token"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Panel",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open token database
	db, err := database.Open(database.Config{
		Path:        cfg.Storage.Path,
		WALMode:     cfg.Storage.WALMode,
		BusyTimeout: cfg.Storage.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Storage.Path)

	if bootErr := db.Bootstrap(ctx); bootErr != nil {
		return fmt.Errorf("bootstrapping database schema: %w", bootErr)
	}

	// Token store over the kv_store table
	tokenStore := token.NewStore(token.NewSQLiteKV(db.DB))
	tokenStore.SetLogger(log)

	// Auth flow against the hub's HTTP endpoints
	authFlow := hub.NewAuthFlow(hub.Credentials{
		PanelID: cfg.Hub.Auth.PanelID,
		Secret:  cfg.Hub.Auth.Secret,
	})
	authFlow.SetLogger(log)

	authManager := auth.NewManager(authFlow, tokenStore)
	authManager.SetLogger(log)

	// Hub WebSocket client
	hubClient := hub.NewClient()
	hubClient.SetLogger(log)

	// Panel session: the consumer surface of the daemon
	session, err := panel.New(panel.Options{
		Auth: authManager,
		Dial: func(ctx context.Context, sess *auth.Session) (panel.Conn, error) {
			return hubClient.Dial(ctx, sess)
		},
		Debounce: cfg.DebounceWindow(),
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("creating panel session: %w", err)
	}
	defer func() {
		log.Info("disposing panel session")
		session.Dispose()
	}()

	// Snapshot mirror (optional sinks)
	if m, mirrorErr := startMirror(cfg, log); mirrorErr != nil {
		return mirrorErr
	} else if m != nil {
		defer func() {
			log.Info("closing snapshot mirror")
			m.Close()
		}()
		session.OnSnapshot(m.Apply)
	}

	// Diagnostics HTTP server (optional)
	if cfg.Diag.Enabled {
		diag, diagErr := api.New(api.Deps{
			Config:  cfg.Diag,
			Logger:  log,
			Session: session,
			Version: version,
		})
		if diagErr != nil {
			return fmt.Errorf("creating diagnostics server: %w", diagErr)
		}
		if startErr := diag.Start(ctx); startErr != nil {
			return fmt.Errorf("starting diagnostics server: %w", startErr)
		}
		defer func() {
			if closeErr := diag.Close(); closeErr != nil {
				log.Error("error closing diagnostics server", "error", closeErr)
			}
		}()
	} else {
		log.Info("diagnostics server disabled")
	}

	// Connect to the configured hub. A failure here is not fatal: the
	// session holds the error state and a later SetHost (e.g. from a
	// UI integration) can retry.
	if cfg.Hub.URL != "" {
		if hostErr := session.SetHost(ctx, cfg.Hub.URL); hostErr != nil {
			log.Warn("initial hub connection failed", "host", cfg.Hub.URL, "error", hostErr)
		}
	} else {
		log.Info("no hub URL configured, waiting for SetHost")
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. Diagnostics server
	// 2. Snapshot mirror (and its sinks)
	// 3. Panel session
	// 4. Database

	log.Info("Gray Logic Panel stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYPANEL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYPANEL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// startMirror connects whichever mirror sinks are enabled in config.
//
// Returns:
//   - *mirror.Mirror: Running mirror, or nil when no sink is enabled
//   - error: If an enabled sink fails to connect
func startMirror(cfg *config.Config, log *logging.Logger) (*mirror.Mirror, error) {
	var sinks []mirror.Sink

	if cfg.Mirror.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.Mirror.InfluxDB)
		if err != nil {
			return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB sink connected",
			"url", cfg.Mirror.InfluxDB.URL,
			"org", cfg.Mirror.InfluxDB.Org,
			"bucket", cfg.Mirror.InfluxDB.Bucket,
		)
		sinks = append(sinks, mirror.NewInfluxSink(influxClient))
	}

	if cfg.Mirror.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.Mirror.MQTT)
		if err != nil {
			return nil, fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log)
		log.Info("MQTT sink connected",
			"broker", fmt.Sprintf("%s:%d", cfg.Mirror.MQTT.Host, cfg.Mirror.MQTT.Port),
			"client_id", cfg.Mirror.MQTT.ClientID,
		)
		sinks = append(sinks, mirror.NewMQTTSink(mqttClient, cfg.Mirror.MQTT.TopicPrefix))
	}

	if len(sinks) == 0 {
		log.Info("snapshot mirror disabled")
		return nil, nil
	}

	return mirror.New(log, sinks...), nil
}
