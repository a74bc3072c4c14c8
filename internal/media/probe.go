package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/genricoloni/presence/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	playerPrefix    = "org.mpris.MediaPlayer2."
	playerPath      = "/org/mpris/MediaPlayer2"
	playerInterface = "org.mpris.MediaPlayer2.Player"

	defaultCallTimeout = 1500 * time.Millisecond
)

// MprisProbe reads now-playing metadata from MPRIS players on the session bus.
// Each Probe call opens and closes its own connection, so the probe holds no
// state between ticks.
type MprisProbe struct {
	logger      *zap.Logger
	dial        func() (DBusClient, error)
	callTimeout time.Duration
}

// NewMprisProbe creates a probe connected to the real session bus
func NewMprisProbe(logger *zap.Logger) *MprisProbe {
	return &MprisProbe{
		logger: logger,
		dial: func() (DBusClient, error) {
			return NewStdDBusClient()
		},
		callTimeout: defaultCallTimeout,
	}
}

// Probe returns the metadata of the first player reporting a title or an
// artist. No player, or no player with metadata, yields empty metadata.
func (p *MprisProbe) Probe(ctx context.Context) (domain.MediaMetadata, error) {
	conn, err := p.dial()
	if err != nil {
		return domain.MediaMetadata{}, fmt.Errorf("session bus connection failed: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			p.logger.Debug("Failed to close D-Bus connection", zap.Error(err))
		}
	}()

	listCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	names, err := conn.ListNames(listCtx)
	cancel()
	if err != nil {
		return domain.MediaMetadata{}, fmt.Errorf("failed to list bus names: %w", err)
	}

	for _, name := range names {
		if !strings.HasPrefix(name, playerPrefix) {
			continue
		}

		meta, err := p.playerMetadata(ctx, conn, name)
		if err != nil {
			p.logger.Debug("Skipping player", zap.String("player", name), zap.Error(err))
			continue
		}
		if !meta.IsEmpty() {
			return meta, nil
		}
	}

	return domain.MediaMetadata{}, nil
}

// playerMetadata fetches the Metadata property of a single player
func (p *MprisProbe) playerMetadata(ctx context.Context, conn DBusClient, player string) (domain.MediaMetadata, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	variant, err := conn.GetProperty(callCtx, player, playerPath, playerInterface, "Metadata")
	if err != nil {
		return domain.MediaMetadata{}, fmt.Errorf("failed to get metadata: %w", err)
	}

	// Some players return nil or unexpected types when idle
	metadata, ok := variant.Value().(map[string]dbus.Variant)
	if !ok {
		return domain.MediaMetadata{}, nil
	}

	return parseMetadata(metadata), nil
}

// parseMetadata converts MPRIS metadata to the domain model
func parseMetadata(metadata map[string]dbus.Variant) domain.MediaMetadata {
	var meta domain.MediaMetadata

	if titleVar, ok := metadata["xesam:title"]; ok {
		if title, ok := titleVar.Value().(string); ok {
			meta.Title = title
		}
	}

	// xesam:artist should be a list, but some players send a plain string
	if artistVar, ok := metadata["xesam:artist"]; ok {
		switch artists := artistVar.Value().(type) {
		case []string:
			meta.Artist = strings.Join(artists, ", ")
		case string:
			meta.Artist = artists
		}
	}

	return meta
}
