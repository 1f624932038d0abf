// Command mqttlight bridges one MQTT-controlled light into a local entity
// registry with state history, telemetry and an HTTP/WebSocket API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/huangfengdan/hwlight-ha-component/migrations"

	"github.com/huangfengdan/hwlight-ha-component/internal/api"
	"github.com/huangfengdan/hwlight-ha-component/internal/device"
	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/config"
	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/database"
	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/influxdb"
	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/logging"
	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/mqtt"
	"github.com/huangfengdan/hwlight-ha-component/internal/light"
)

// Set at build time via -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configEnvVar      = "MQTTLIGHT_CONFIG"

	// historyPruneInterval is how often rows past the retention window are deleted.
	historyPruneInterval = time.Hour
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run starts every component and blocks until ctx is cancelled.
// Components are closed in reverse start order.
func run(ctx context.Context, configPath string) error {
	log := logging.Default()
	log.Info("starting mqttlight", "version", version, "commit", commit, "build_date", date)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

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
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", db.Path())

	var telemetry device.TelemetryWriter
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Warn("InfluxDB write error", "error", err)
		})
		telemetry = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttLog := log.Component("mqtt")
	mqttClient.SetLogger(mqttLog)
	mqttClient.SetOnConnect(func() { mqttLog.Info("MQTT reconnected") })
	mqttClient.SetOnDisconnect(func(err error) { mqttLog.Warn("MQTT disconnected", "error", err) })
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	registry := device.NewRegistry(device.RegistryOptions{
		Transport: mqttClient,
		History:   device.NewSQLiteStateHistoryRepository(db.DB),
		Telemetry: telemetry,
		Logger:    log.Component("registry"),
	})

	bridge, err := light.NewBridge(light.BridgeOptions{
		Config: lightConfig(cfg.Light),
		Host:   registry,
		Logger: log.Component("light"),
	})
	if err != nil {
		return fmt.Errorf("creating light: %w", err)
	}
	if err := registry.Register(bridge); err != nil {
		// Commands keep working with partial subscriptions.
		log.Warn("light registered with errors", "entity", bridge.UniqueID(), "error", err)
	}

	if cfg.API.Enabled {
		checks := map[string]api.HealthChecker{
			"database": db,
			"mqtt":     mqttClient,
		}
		if influxClient != nil {
			checks["influxdb"] = influxClient
		}

		server, err := api.New(api.Deps{
			Config:       cfg.API,
			WS:           cfg.WebSocket,
			Security:     cfg.Security,
			Logger:       log.Component("api"),
			Registry:     registry,
			HealthChecks: checks,
			Version:      version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		registry.SetBroadcaster(server.Hub())

		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	go registry.RunHistoryPruner(ctx, cfg.GetHistoryRetention(), historyPruneInterval)

	log.Info("mqttlight running", "light", bridge.Name(), "entity", bridge.UniqueID())
	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// lightConfig maps the YAML light section onto the bridge configuration.
func lightConfig(c config.LightConfig) light.Config {
	return light.Config{
		Name:                   c.Name,
		CommandTopic:           c.CommandTopic,
		StateTopic:             c.StateTopic,
		BrightnessCommandTopic: c.BrightnessCommandTopic,
		BrightnessStateTopic:   c.BrightnessStateTopic,
		RGBCommandTopic:        c.RGBCommandTopic,
		RGBStateTopic:          c.RGBStateTopic,
	}
}

// resolveConfigPath prefers the --config flag, then MQTTLIGHT_CONFIG, then
// the default location.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}
