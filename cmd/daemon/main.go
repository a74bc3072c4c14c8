package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/genricoloni/presence/internal/config"
	"github.com/genricoloni/presence/internal/domain"
	"github.com/genricoloni/presence/internal/engine"
	"github.com/genricoloni/presence/internal/executor"
	"github.com/genricoloni/presence/internal/focus"
	"github.com/genricoloni/presence/internal/media"
	"github.com/genricoloni/presence/internal/reporter"
	"github.com/genricoloni/presence/internal/status"
	"github.com/genricoloni/presence/internal/watcher"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// configPath is the configuration file the watcher is started with
type configPath string

const configEnv = "PRESENCE_CONFIG"

// AppOptions is the complete dependency graph of the daemon
var AppOptions = fx.Options(
	fx.Provide(
		newLogger,
		newConfigPath,
		fx.Annotate(executor.NewCommandRunner, fx.As(new(executor.Runner))),
		fx.Annotate(focus.NewResolver, fx.As(new(domain.FocusResolver))),
		fx.Annotate(media.NewMprisProbe, fx.As(new(domain.MediaProbe))),
		fx.Annotate(reporter.NewHTTPReporter, fx.As(new(domain.Reporter))),
		fx.Annotate(status.NewStore, fx.As(fx.Self()), fx.As(new(engine.SnapshotWriter))),
		fx.Annotate(engine.NewEngine, fx.As(new(watcher.Poller))),
		watcher.NewService,
	),

	// Lifecycle hooks
	fx.Invoke(registerHooks),
)

func main() {
	path := flag.String("config", "", "path to the key=value configuration file")
	flag.Parse()

	var (
		svc    *watcher.Service
		logger *zap.Logger
		cfg    configPath
	)

	opts := []fx.Option{
		AppOptions,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Populate(&svc, &logger, &cfg),
	}
	if *path != "" {
		opts = append(opts, fx.Replace(configPath(*path)))
	}

	app := fx.New(opts...)

	// Subscribe before starting so no signal is lost
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, notifySignals...)
	defer signal.Stop(sigs)

	if err := app.Start(context.Background()); err != nil {
		os.Exit(1)
	}

	handleSignals(sigs, svc, cfg, logger)

	// Stop the application gracefully
	if err := app.Stop(context.Background()); err != nil {
		panic(err)
	}
}

// newLogger creates a new zap logger instance
func newLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// newConfigPath picks the configuration file from the environment,
// falling back to the default path in the working directory.
func newConfigPath() configPath {
	if p := os.Getenv(configEnv); p != "" {
		return configPath(p)
	}
	return configPath(config.DefaultPath)
}

// registerHooks sets up application lifecycle hooks
func registerHooks(lc fx.Lifecycle, logger *zap.Logger, svc *watcher.Service, path configPath) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			snap, err := svc.Start(string(path))
			if err != nil {
				logger.Error("Failed to start watcher", zap.Error(err))
				return err
			}
			logger.Info("Presence Daemon Started",
				zap.String("config", snap.ConfigPath),
				zap.Stringer("session", snap.Session))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			return svc.Stop()
		},
	})
}

// handleSignals blocks until a shutdown signal arrives or sigs is closed.
// The reload signal restarts the watcher with a freshly loaded config; the
// status signal logs the current Snapshot.
func handleSignals(sigs <-chan os.Signal, svc *watcher.Service, path configPath, logger *zap.Logger) {
	for sig := range sigs {
		switch sig {
		case reloadSignal:
			if _, err := svc.Start(string(path)); err != nil {
				logger.Warn("Reload failed, keeping previous loop", zap.Error(err))
				continue
			}
			logger.Info("Watcher reloaded")
		case statusSignal:
			logger.Info("Watcher status", zap.Any("snapshot", svc.Status()))
		default:
			logger.Info("Received signal", zap.Stringer("signal", sig))
			return
		}
	}
}
