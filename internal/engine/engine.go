package engine

import (
	"context"
	"errors"
	"time"

	"github.com/genricoloni/presence/internal/domain"
	"go.uber.org/zap"
)

const (
	// NoProcess is reported when the focused window cannot be determined
	NoProcess = "None"

	// DefaultMinInterval floors the configured watch interval
	DefaultMinInterval = 3 * time.Second
	// DefaultHeartbeat forces a report after this long without one
	DefaultHeartbeat = 20 * time.Second

	reportTimeLayout = "2006-01-02 15:04:05"
)

// SnapshotWriter receives the state of each report.
// Writes for a generation that is no longer current are dropped.
type SnapshotWriter interface {
	Update(gen uint64, fn func(*domain.Snapshot)) bool
}

// Settings holds everything a single loop run needs from its caller
type Settings struct {
	Endpoint     domain.Endpoint
	Session      domain.SessionKind
	Interval     time.Duration
	MediaEnabled bool
	LogEnabled   bool
}

// Engine samples focus and media on an interval and reports when the
// observed state changes or the heartbeat elapses.
type Engine struct {
	logger   *zap.Logger
	resolver domain.FocusResolver
	probe    domain.MediaProbe
	reporter domain.Reporter
	store    SnapshotWriter

	now         func() time.Time
	minInterval time.Duration
	heartbeat   time.Duration
}

// NewEngine creates a new polling engine
func NewEngine(
	logger *zap.Logger,
	resolver domain.FocusResolver,
	probe domain.MediaProbe,
	reporter domain.Reporter,
	store SnapshotWriter,
) *Engine {
	return &Engine{
		logger:      logger,
		resolver:    resolver,
		probe:       probe,
		reporter:    reporter,
		store:       store,
		now:         time.Now,
		minInterval: DefaultMinInterval,
		heartbeat:   DefaultHeartbeat,
	}
}

// observation is the last reported state
type observation struct {
	process string
	media   domain.MediaMetadata
	at      time.Time
}

// changed reports whether a sample differs from the last report or the
// heartbeat has elapsed since it.
func changed(last observation, process string, media domain.MediaMetadata, now time.Time, heartbeat time.Duration) bool {
	return process != last.process ||
		media != last.media ||
		now.Sub(last.at) > heartbeat
}

// interval returns the sleep between ticks, never below the minimum
func (e *Engine) interval(s Settings) time.Duration {
	return max(s.Interval, e.minInterval)
}

// Run polls until ctx is cancelled. The first tick happens immediately.
// No error ends the loop; only cancellation does.
func (e *Engine) Run(ctx context.Context, gen uint64, s Settings) {
	logger := e.logger
	if !s.LogEnabled {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.Uint64("generation", gen))

	interval := e.interval(s)
	logger.Info("Poller started",
		zap.Stringer("session", s.Session),
		zap.Duration("interval", interval),
		zap.Bool("media", s.MediaEnabled))

	last := observation{at: e.now()}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Poller stopped")
			return
		case <-timer.C:
		}

		last = e.tick(ctx, logger, gen, s, last)
		timer.Reset(interval)
	}
}

// tick performs one sample and, if needed, one report
func (e *Engine) tick(ctx context.Context, logger *zap.Logger, gen uint64, s Settings, last observation) observation {
	process, err := e.resolver.ActiveWindowProcess(ctx, s.Session)
	if err != nil {
		if !errors.Is(err, domain.ErrNoActiveWindow) {
			logger.Debug("Focus detection failed", zap.Error(err))
		}
		process = NoProcess
	}

	var media domain.MediaMetadata
	if s.MediaEnabled {
		if media, err = e.probe.Probe(ctx); err != nil {
			logger.Debug("Media probe failed", zap.Error(err))
			media = domain.MediaMetadata{}
		}
	}

	if !changed(last, process, media, e.now(), e.heartbeat) {
		return last
	}

	report := domain.Report{Process: process, Media: media}
	if err := e.reporter.Send(ctx, s.Endpoint, report); err != nil {
		logger.Debug("Report not delivered", zap.Error(err))
	} else {
		logger.Debug("Report sent",
			zap.String("process", process),
			zap.String("title", media.Title),
			zap.String("artist", media.Artist))
	}

	next := observation{process: process, media: media, at: e.now()}
	e.store.Update(gen, func(snap *domain.Snapshot) {
		snap.LastProcess = next.process
		snap.LastMediaTitle = next.media.Title
		snap.LastMediaArtist = next.media.Artist
		snap.LastReportAt = next.at.UTC().Format(reportTimeLayout)
	})

	return next
}
