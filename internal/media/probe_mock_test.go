package media

import (
	"context"
	"errors"
	"testing"

	"github.com/genricoloni/presence/internal/domain"
	"github.com/genricoloni/presence/internal/media/mocks"
	"github.com/godbus/dbus/v5"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// TestProbe covers player selection over a mocked session bus:
// 1. First player with metadata wins
// 2. Failing or idle players are skipped
// 3. Bus errors surface to the caller
func TestProbe(t *testing.T) {
	spotify := "org.mpris.MediaPlayer2.spotify"
	vlc := "org.mpris.MediaPlayer2.vlc"
	objPath := "/org/mpris/MediaPlayer2"
	iface := "org.mpris.MediaPlayer2.Player"

	metadata := func(title string, artists ...string) dbus.Variant {
		return dbus.MakeVariant(map[string]dbus.Variant{
			"xesam:title":  dbus.MakeVariant(title),
			"xesam:artist": dbus.MakeVariant(artists),
		})
	}

	tests := []struct {
		name        string
		setupMock   func(*mocks.MockDBusClient)
		expectError bool
		expected    domain.MediaMetadata
	}{
		{
			name: "Success - Single Player",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().ListNames(gomock.Any()).Return([]string{"org.freedesktop.DBus", spotify}, nil)
				m.EXPECT().GetProperty(gomock.Any(), spotify, objPath, iface, "Metadata").
					Return(metadata("Stairway to Heaven", "Led Zeppelin"), nil)
			},
			expected: domain.MediaMetadata{Title: "Stairway to Heaven", Artist: "Led Zeppelin"},
		},
		{
			name: "First Player With Metadata Wins",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().ListNames(gomock.Any()).Return([]string{spotify, vlc}, nil)
				m.EXPECT().GetProperty(gomock.Any(), spotify, objPath, iface, "Metadata").
					Return(metadata("Song A", "Artist A"), nil)
			},
			expected: domain.MediaMetadata{Title: "Song A", Artist: "Artist A"},
		},
		{
			name: "Failing Player Is Skipped",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().ListNames(gomock.Any()).Return([]string{spotify, vlc}, nil)
				m.EXPECT().GetProperty(gomock.Any(), spotify, objPath, iface, "Metadata").
					Return(dbus.Variant{}, errors.New("no reply"))
				m.EXPECT().GetProperty(gomock.Any(), vlc, objPath, iface, "Metadata").
					Return(metadata("Song B", "Artist B", "Artist C"), nil)
			},
			expected: domain.MediaMetadata{Title: "Song B", Artist: "Artist B, Artist C"},
		},
		{
			name: "Idle Player Is Skipped",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().ListNames(gomock.Any()).Return([]string{spotify, vlc}, nil)
				m.EXPECT().GetProperty(gomock.Any(), spotify, objPath, iface, "Metadata").
					Return(dbus.MakeVariant(map[string]dbus.Variant{}), nil)
				m.EXPECT().GetProperty(gomock.Any(), vlc, objPath, iface, "Metadata").
					Return(metadata("Song B"), nil)
			},
			expected: domain.MediaMetadata{Title: "Song B"},
		},
		{
			name: "Metadata Is Not A Map",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().ListNames(gomock.Any()).Return([]string{spotify}, nil)
				m.EXPECT().GetProperty(gomock.Any(), spotify, objPath, iface, "Metadata").
					Return(dbus.MakeVariant(int32(12345)), nil)
			},
			expected: domain.MediaMetadata{},
		},
		{
			name: "No Players",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().ListNames(gomock.Any()).Return([]string{"org.freedesktop.DBus", ":1.42"}, nil)
			},
			expected: domain.MediaMetadata{},
		},
		{
			name: "ListNames Failure",
			setupMock: func(m *mocks.MockDBusClient) {
				m.EXPECT().ListNames(gomock.Any()).Return(nil, errors.New("bus disconnected"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			client := mocks.NewMockDBusClient(ctrl)
			tt.setupMock(client)
			client.EXPECT().Close().Return(nil)

			probe := &MprisProbe{
				logger:      zap.NewNop(),
				dial:        func() (DBusClient, error) { return client, nil },
				callTimeout: defaultCallTimeout,
			}

			got, err := probe.Probe(context.Background())

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Probe() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestProbe_CallsCarryDeadline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockDBusClient(ctrl)
	client.EXPECT().ListNames(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]string, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("ListNames called without a deadline")
		}
		return []string{"org.mpris.MediaPlayer2.mpv"}, nil
	})
	client.EXPECT().GetProperty(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _, _, _ string) (dbus.Variant, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("GetProperty called without a deadline")
			}
			return dbus.MakeVariant(map[string]dbus.Variant{"xesam:title": dbus.MakeVariant("clip.mkv")}), nil
		})
	client.EXPECT().Close().Return(nil)

	probe := &MprisProbe{
		logger:      zap.NewNop(),
		dial:        func() (DBusClient, error) { return client, nil },
		callTimeout: defaultCallTimeout,
	}

	got, err := probe.Probe(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "clip.mkv" || got.Artist != "" {
		t.Errorf("unexpected metadata %+v", got)
	}
}
