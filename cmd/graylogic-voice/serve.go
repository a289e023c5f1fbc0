package main

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-voice/internal/api"
	"github.com/nerrad567/gray-logic-voice/internal/audit"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-voice/internal/item"
	"github.com/nerrad567/gray-logic-voice/internal/schedule"
	"github.com/nerrad567/gray-logic-voice/internal/voice"
	"github.com/nerrad567/gray-logic-voice/migrations"
)

// run is the serve logic, separated from the command for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: YAML configuration file
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Voice",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path, "migrations_applied", applied)

	// Command outcomes go to the command log and, when enabled, InfluxDB.
	auditRepo := audit.NewSQLiteRepository(db.DB)
	auditRecorder := audit.NewRecorder(auditRepo)
	auditRecorder.SetLogger(log.Component("audit"))
	recorders := []item.Recorder{auditRecorder}

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
			log.Error("InfluxDB write error", "error", err)
		})
		recorders = append(recorders, audit.TelemetryRecorder{Writer: influxClient})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	g, err := newGraph(cfg.OpenHAB, recorders, log)
	if err != nil {
		return err
	}
	if err := g.Reload(ctx); err != nil {
		return fmt.Errorf("loading item graph: %w", err)
	}
	log.Info("item graph loaded",
		"url", cfg.OpenHAB.URL,
		"items", g.Store().Len(),
		"containment", cfg.OpenHAB.Containment,
		"language", cfg.OpenHAB.Language,
	)

	scheduler := schedule.New(
		schedule.NewSQLiteRepository(db.DB),
		schedule.StoreDispatcher{Store: g.Store},
		log.Component("schedule"),
	)
	defer scheduler.Stop()
	if _, err := scheduler.Restore(ctx); err != nil {
		return err
	}

	health := map[string]api.HealthChecker{
		"database": db,
		"openhab":  g.client,
	}
	if influxClient != nil {
		health["influxdb"] = influxClient
	}

	var assistant *voice.Assistant
	if cfg.Voice.Enabled {
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
		mqttClient.SetLogger(log.Component("mqtt"))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		health["mqtt"] = mqttClient

		assistant = newAssistant(cfg, mqttClient, g, scheduler, influxClient, log)
		if err := assistant.Start(); err != nil {
			return fmt.Errorf("starting voice assistant: %w", err)
		}

		// The recogniser forgets injected words when the platform restarts.
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
			if err := assistant.InjectVocabulary(); err != nil {
				log.Warn("vocabulary injection failed", "error", err)
			}
		})
		go assistant.Run(ctx)
		log.Info("voice assistant started", "intents", len(assistant.IntentNames()))
	} else {
		log.Info("voice assistant disabled")
	}

	if cfg.API.Enabled {
		server, err := api.New(api.Deps{
			Config: cfg.API,
			Logger: log.Component("api"),
			Store:  g.Store,
			Reload: func(ctx context.Context) error {
				if err := g.Reload(ctx); err != nil {
					return err
				}
				if assistant != nil {
					return assistant.InjectVocabulary()
				}
				return nil
			},
			Scheduler: scheduler,
			Audit:     auditRepo,
			Health:    health,
			Version:   version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse: API, MQTT, scheduler, InfluxDB, database.
	return nil
}

// newAssistant wires the voice assistant to MQTT, the item graph, the
// scheduler and, when enabled, InfluxDB.
func newAssistant(cfg *config.Config, pub voice.Publisher, g *graph, scheduler *schedule.Scheduler, influxClient *influxdb.Client, log *logging.Logger) *voice.Assistant {
	opts := voice.Options{
		Prefix:        cfg.Voice.IntentPrefix,
		DefaultRoom:   cfg.OpenHAB.DefaultRoom,
		SiteRooms:     cfg.Voice.SiteRooms,
		SoundFeedback: cfg.Voice.SoundFeedback,
		SuccessSound:  cfg.Voice.SuccessSound,
		QoS:           byte(cfg.MQTT.QoS), //nolint:gosec // validated to 0..2
		Scheduler:     scheduler,
		Logger:        log.Component("voice"),
	}
	if influxClient != nil {
		opts.Metrics = influxClient
	}
	return voice.New(pub, g.Store, opts)
}
