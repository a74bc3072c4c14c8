package domain

import (
	"errors"
	"fmt"
)

// SessionKind classifies the desktop session the process runs in.
// It is determined once per loop start and never changes for that loop.
type SessionKind int

const (
	// SessionUnknown covers every session no focus strategy exists for
	SessionUnknown SessionKind = iota
	// SessionX11 is a plain X11 (Xorg) session
	SessionX11
	// SessionWaylandKDE is a Wayland session running KDE Plasma (KWin)
	SessionWaylandKDE
)

// String returns the name used in logs and in the serialized Snapshot
func (k SessionKind) String() string {
	switch k {
	case SessionX11:
		return "X11"
	case SessionWaylandKDE:
		return "WaylandKde"
	default:
		return "Unknown"
	}
}

// MarshalText lets SessionKind serialize as its name
func (k SessionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// MediaMetadata contains information about the currently playing media.
// An empty field means the player did not provide it.
// The struct is comparable: two values are equal only if both fields match.
type MediaMetadata struct {
	// Title of the currently playing track
	Title string
	// Artist name, multiple artists are joined with ", "
	Artist string
}

// IsEmpty reports whether neither title nor artist is set
func (m MediaMetadata) IsEmpty() bool {
	return m.Title == "" && m.Artist == ""
}

// Snapshot is the externally visible status of the presence watcher.
// Fields are overwritten in place, no history is kept.
type Snapshot struct {
	Running         bool        `json:"running"`
	Session         SessionKind `json:"session"`
	LastProcess     string      `json:"last_process,omitempty"`
	LastMediaTitle  string      `json:"last_media_title,omitempty"`
	LastMediaArtist string      `json:"last_media_artist,omitempty"`
	LastReportAt    string      `json:"last_report_at,omitempty"`
	ConfigPath      string      `json:"config_path,omitempty"`
}

// Endpoint is where reports are delivered and the key embedded in them
type Endpoint struct {
	URL string
	Key string
}

// Report is a single presence update
type Report struct {
	Process string
	Media   MediaMetadata
}

// ErrNoActiveWindow means no window currently has focus, or the session
// has no way of telling which one does.
var ErrNoActiveWindow = errors.New("no active window detected")

// QueryError wraps a failure of the platform mechanism used to find the
// focused window (X server connection, property read, compositor utility).
type QueryError struct {
	Backend string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query failed: %v", e.Backend, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
