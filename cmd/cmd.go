package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jackc/pgx/v5"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/cellbench/internal/pkg/config"
	"github.com/anicoll/cellbench/internal/pkg/database"
	"github.com/anicoll/cellbench/internal/pkg/database/migration"
	"github.com/anicoll/cellbench/internal/pkg/model"
	"github.com/anicoll/cellbench/internal/pkg/mqtt"
	"github.com/anicoll/cellbench/internal/pkg/publisher"
	"github.com/anicoll/cellbench/internal/pkg/server"
	"github.com/anicoll/cellbench/internal/pkg/session"
	"github.com/anicoll/cellbench/internal/pkg/simulator"
	"github.com/anicoll/cellbench/internal/pkg/synth"
	"github.com/anicoll/cellbench/pkg/stream"
)

// CellbenchCommand is the entry point for the cellbench CLI command. It
// validates configuration, wires the publishers and starts all services.
func CellbenchCommand(ctx *cli.Context) error {
	cfg := &config.Config{
		ListenAddr:       ctx.String("listen-addr"),
		DatabaseURL:      ctx.String("database-url"),
		MigrationsFolder: ctx.String("migrations-folder"),
		TickInterval:     ctx.Duration("tick-interval"),
		Retention:        ctx.Duration("retention"),
		LogLevel:         ctx.String("log-level"),
	}
	if host := ctx.String("mqtt-host"); host != "" {
		cfg.MqttCfg = &config.MqttConfig{
			Host:     host,
			Username: ctx.String("mqtt-user"),
			Password: ctx.String("mqtt-pass"),
		}
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	cfg.HTTPCfg, err = config.HTTPFromEnv()
	if err != nil {
		return err
	}

	errorChan := make(chan error, 1000)
	sess := session.New()
	registry := publisher.NewRegistry()

	hub := stream.NewHub(stream.OnError(func(err error) {
		logger.Warn("websocket stream error", zap.Error(err))
	}))
	defer func() {
		_ = hub.Close()
	}()
	if err := registry.Register("stream", publisher.Func(func(_ context.Context, report model.TickReport) error {
		return hub.Broadcast(report)
	})); err != nil {
		return err
	}

	var db *database.Database
	if cfg.DatabaseURL != "" {
		if cfg.MigrationsFolder != "" {
			if err := migration.Migrate(cfg.DatabaseURL, cfg.MigrationsFolder); err != nil {
				return err
			}
		}
		conn, err := pgx.Connect(ctx.Context, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		db = database.NewDatabase(conn)
		defer func() {
			_ = db.Close()
		}()
		if err := registry.Register("postgres", db); err != nil {
			return err
		}
	}

	if cfg.MqttCfg != nil {
		opts := paho_mqtt.NewClientOptions().
			AddBroker(cfg.MqttCfg.Host).
			SetUsername(cfg.MqttCfg.Username).
			SetPassword(cfg.MqttCfg.Password).
			SetClientID("cellbench")
		mq := mqtt.New(paho_mqtt.NewClient(opts))
		if err := mq.Connect(); err != nil {
			return err
		}
		if err := registry.Register("mqtt", mq); err != nil {
			return err
		}
	}

	var store server.Store
	var cleaner storeCleaner
	if db != nil {
		store = db
		cleaner = db
	}

	sim := simulator.New(sess, synth.New(), registry, cfg.TickInterval, errorChan)
	handler := server.New(sess, store, hub).Router()

	return run(ctx.Context, cfg, sim, handler, cleaner, errorChan)
}

func run(ctx context.Context, cfg *config.Config, sim tickService, handler http.Handler, db storeCleaner, errorChan chan error) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return sim.Run(ctx)
	})

	if db != nil && cfg.Retention > 0 {
		eg.Go(func() error {
			return cronDbCleanup(ctx, db, cfg.Retention, errorChan)
		})
	}

	srv := &http.Server{
		Handler:      handler,
		Addr:         cfg.ListenAddr,
		WriteTimeout: cfg.HTTPCfg.WriteTimeout,
		ReadTimeout:  cfg.HTTPCfg.ReadTimeout,
	}
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		// handle any async errors from services
		for {
			select {
			case err := <-errorChan:
				if errors.Is(err, errCron) {
					zap.L().Error("cron error", zap.Error(err))
					return err
				}
				zap.L().Error("async service error", zap.Error(err))
			case <-ctx.Done():
				zap.L().Info("context done")
				return ctx.Err()
			}
		}
	})

	return eg.Wait()
}

func newLogger(level string) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.Level = lvl
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

var errCron = errors.New("cron error")

// cronDbCleanup prunes stored telemetry once at startup and then nightly.
func cronDbCleanup(ctx context.Context, db storeCleaner, retention time.Duration, errChan chan error) error {
	if err := db.Cleanup(ctx, retention); err != nil {
		return err
	}

	c := cron.New()
	if _, err := c.AddFunc("0 3 * * *", func() {
		if err := db.Cleanup(context.Background(), retention); err != nil {
			zap.L().Error("error cleaning up database", zap.Error(err))
			errChan <- errCron
			return
		}
		zap.L().Info("pruned stored telemetry", zap.Duration("retention", retention))
	}); err != nil {
		return err
	}

	c.Start()
	defer c.Stop()
	<-ctx.Done()
	return ctx.Err()
}
