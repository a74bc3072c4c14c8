package watcher

import (
	"context"
	"fmt"

	"github.com/genricoloni/presence/internal/config"
	"github.com/genricoloni/presence/internal/domain"
	"github.com/genricoloni/presence/internal/engine"
	"github.com/genricoloni/presence/internal/focus"
	"github.com/genricoloni/presence/internal/status"
	"go.uber.org/zap"
)

// Poller runs one polling loop until its context is cancelled
type Poller interface {
	Run(ctx context.Context, gen uint64, s engine.Settings)
}

// Service is the caller-facing surface: start, stop and query the watcher,
// and read or write its configuration file.
type Service struct {
	logger *zap.Logger
	store  *status.Store
	poller Poller
	detect func() domain.SessionKind
}

// NewService creates a watcher service. Session detection reads the
// process environment on every Start.
func NewService(logger *zap.Logger, store *status.Store, poller Poller) *Service {
	return &Service{
		logger: logger,
		store:  store,
		poller: poller,
		detect: focus.DetectSession,
	}
}

// Start loads the configuration at configPath (or the default path when
// empty), detects the session and (re)starts the polling loop.
// A configuration error leaves any running loop untouched.
func (s *Service) Start(configPath string) (domain.Snapshot, error) {
	path := resolvePath(configPath)

	cfg, err := config.Load(path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	session := s.detect()
	settings := engine.Settings{
		Endpoint:     domain.Endpoint{URL: cfg.APIURL, Key: cfg.APIKey},
		Session:      session,
		Interval:     cfg.WatchInterval(),
		MediaEnabled: cfg.MediaEnable,
		LogEnabled:   cfg.LogEnable,
	}

	gen := s.store.Start(
		func(snap *domain.Snapshot) {
			snap.Session = session
			snap.ConfigPath = path
		},
		func(ctx context.Context, gen uint64) {
			s.poller.Run(ctx, gen, settings)
		},
	)

	s.logger.Info("Watcher started",
		zap.String("config", path),
		zap.Stringer("session", session),
		zap.Uint64("generation", gen))

	if done := s.store.Done(gen); done != nil {
		go func() {
			<-done
			s.logger.Info("Polling loop exited", zap.Uint64("generation", gen))
		}()
	}

	return s.store.Snapshot(), nil
}

// Stop cancels the polling loop. Stopping an idle watcher is not an error.
func (s *Service) Stop() error {
	if s.store.Stop() {
		s.logger.Info("Watcher stopped")
	}
	return nil
}

// Status returns the current Snapshot
func (s *Service) Status() domain.Snapshot {
	return s.store.Snapshot()
}

// ReadConfig loads the configuration without touching the loop
func (s *Service) ReadConfig(configPath string) (*config.Config, error) {
	return config.Load(resolvePath(configPath))
}

// WriteConfig persists cfg. A running loop keeps its old settings until
// the next Start.
func (s *Service) WriteConfig(configPath string, cfg config.Config) error {
	path := resolvePath(configPath)
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	s.logger.Info("Configuration saved", zap.String("config", path))
	return nil
}

func resolvePath(p string) string {
	if p == "" {
		return config.DefaultPath
	}
	return p
}
