// plccodec decodes raw PLC register and KNX telegram payloads into typed
// values.
//
// It serves the codec over an HTTP API, keeps a catalog of named datapoints
// in SQLite, and optionally decodes frames arriving on MQTT or a knxd
// group socket, publishing results to MQTT, InfluxDB and websocket
// subscribers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-codec/internal/api"
	"github.com/nerrad567/gray-logic-codec/internal/bridges/knx"
	"github.com/nerrad567/gray-logic-codec/internal/datapoint"
	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-codec/internal/pipeline"
	"github.com/nerrad567/gray-logic-codec/internal/plc"
	"github.com/nerrad567/gray-logic-codec/migrations"
)

// Version information, set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configEnvVar      = "PLCCODEC_CONFIG"

	healthCheckTimeout = 5 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled. Components
// are closed in reverse order by deferred calls.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting plccodec", "version", version, "commit", commit, "build_date", date)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	defer log.Close() //nolint:errcheck // nothing left to log to
	log.Info("configuration loaded", "path", configPath, "byte_order", cfg.Codec.ByteOrder)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
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
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	registry, err := openCatalog(ctx, cfg, db, log)
	if err != nil {
		return err
	}

	decoder, err := plc.NewDecoder(plc.Options{
		Workers:   cfg.Codec.Workers,
		MaxBatch:  cfg.Codec.MaxBatch,
		ByteOrder: cfg.ByteOrder(),
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	defer decoder.Close()

	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	checks := map[string]api.HealthChecker{"database": db}

	influxClient, err := connectInfluxDB(cfg, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			stats := influxClient.Stats()
			log.Info("closing InfluxDB connection", "points", stats.Points, "failed_writes", stats.FailedWrites)
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		checks["influxdb"] = influxClient
	}

	var pipe *pipeline.Pipeline
	if cfg.MQTT.Enabled {
		mqttClient, err := connectMQTT(cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		checks["mqtt"] = mqttClient

		opts := pipeline.Options{
			Topics:      mqttClient.Topics(),
			QoS:         mqttClient.QoS(),
			ByteOrder:   cfg.ByteOrder(),
			KNXD:        cfg.Pipeline.KNXD,
			CBOR:        cfg.Pipeline.CBOR,
			Broadcaster: hub,
			Logger:      log,
		}
		if influxClient != nil {
			opts.Writer = influxClient
		}
		pipe = pipeline.New(mqttClient, registry, decoder.Codec(), opts)
		if err := pipe.Start(); err != nil {
			return fmt.Errorf("starting pipeline: %w", err)
		}
		defer func() {
			if stopErr := pipe.Stop(); stopErr != nil {
				log.Error("error stopping pipeline", "error", stopErr)
			}
		}()

		if cfg.Pipeline.KNXDURL != "" {
			monitor, err := knx.Connect(ctx, knx.MonitorConfig{URL: cfg.Pipeline.KNXDURL}, log)
			if err != nil {
				return fmt.Errorf("connecting to knxd: %w", err)
			}
			defer func() {
				stats := monitor.Stats()
				log.Info("closing knxd monitor", "received", stats.Received, "dropped", stats.Dropped, "reconnects", stats.Reconnects)
				monitor.Close() //nolint:errcheck // always nil
			}()
			monitor.SetHandler(func(tg knx.Telegram) {
				if handleErr := pipe.HandleTelegram(tg); handleErr != nil {
					log.Debug("telegram not decoded", "error", handleErr)
				}
			})
			checks["knxd"] = monitor
			log.Info("knxd monitor connected", "url", cfg.Pipeline.KNXDURL)
		}
	} else {
		log.Info("MQTT disabled, pipeline not started")
	}

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	server, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Security:  cfg.Security,
		Logger:    log,
		Registry:  registry,
		Decoder:   decoder,
		ByteOrder: cfg.ByteOrder(),
		Pipeline:  pipe,
		Checks:    checks,
		Hub:       hub,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	log.Info("plccodec started", "datapoints", registry.Count(), "security", cfg.Security.Enabled)

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// getConfigPath returns PLCCODEC_CONFIG or the default path.
func getConfigPath() string {
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}

// openCatalog loads the datapoint registry and applies the seed file.
func openCatalog(ctx context.Context, cfg *config.Config, db *database.DB, log *logging.Logger) (*datapoint.Registry, error) {
	registry := datapoint.NewRegistry(datapoint.NewSQLiteRepository(db.DB))
	registry.SetLogger(log)
	if err := registry.RefreshCache(ctx); err != nil {
		return nil, fmt.Errorf("loading datapoint catalog: %w", err)
	}

	if cfg.Catalog.Path != "" {
		res, err := registry.Seed(ctx, cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("seeding datapoint catalog: %w", err)
		}
		log.Info("catalog seeded",
			"path", cfg.Catalog.Path,
			"created", res.Created,
			"updated", res.Updated,
			"skipped", len(res.Skipped),
		)
	}
	log.Info("datapoint catalog loaded", "datapoints", registry.Count())
	return registry, nil
}

// connectInfluxDB returns nil when InfluxDB is disabled.
func connectInfluxDB(cfg *config.Config, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.InfluxDB.Enabled {
		log.Info("InfluxDB disabled")
		return nil, nil //nolint:nilnil // disabled is not an error
	}
	client, err := influxdb.Connect(cfg.InfluxDB)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	return client, nil
}

func connectMQTT(cfg *config.Config, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg.MQTT, mqtt.NewTopics(cfg.Pipeline.TopicPrefix))
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log)
	client.SetOnConnect(func() {
		log.Info("MQTT connected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	return client, nil
}

// healthCheck verifies every component once at startup.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	for name, c := range checks {
		if err := c.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
