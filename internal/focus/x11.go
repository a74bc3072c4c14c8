package focus

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/genricoloni/presence/internal/domain"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

const (
	backendX11 = "X11"

	// maxPropertyLength is the GetProperty length in 32-bit units
	maxPropertyLength = 1024
)

// windowProperties is the subset of the X protocol the focus query needs
type windowProperties interface {
	// ActiveWindow returns the root window's _NET_ACTIVE_WINDOW, 0 if unset
	ActiveWindow() (uint32, error)
	// WMClass returns the raw WM_CLASS property of a window
	WMClass(window uint32) ([]byte, error)
	Close()
}

// X11Source reads the focused window's class hint from the X server.
// A new display connection is opened for every query.
type X11Source struct {
	dial func() (windowProperties, error)
}

// NewX11Source creates a source using $DISPLAY
func NewX11Source() *X11Source {
	return &X11Source{dial: dialX11}
}

// ActiveWindowClass returns the class of the focused window
func (s *X11Source) ActiveWindowClass(_ context.Context) (string, error) {
	props, err := s.dial()
	if err != nil {
		return "", &domain.QueryError{Backend: backendX11, Err: err}
	}
	defer props.Close()

	window, err := props.ActiveWindow()
	if err != nil {
		return "", &domain.QueryError{Backend: backendX11, Err: err}
	}
	if window == 0 {
		return "", domain.ErrNoActiveWindow
	}

	raw, err := props.WMClass(window)
	if err != nil {
		return "", &domain.QueryError{Backend: backendX11, Err: err}
	}

	class, ok := parseWMClass(raw)
	if !ok {
		return "", domain.ErrNoActiveWindow
	}
	return class, nil
}

// parseWMClass returns the last non-empty NUL-separated segment.
// WM_CLASS holds instance then class, and the class is the stable part.
func parseWMClass(raw []byte) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var last string
	for _, segment := range strings.Split(strings.ToValidUTF8(string(raw), "\uFFFD"), "\x00") {
		if segment != "" {
			last = segment
		}
	}
	return last, last != ""
}

// xgbProperties implements windowProperties over a live X connection
type xgbProperties struct {
	conn         *xgb.Conn
	root         xproto.Window
	activeWindow xproto.Atom
	wmClass      xproto.Atom
}

func dialX11() (windowProperties, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	if conn.DefaultScreen < 0 || conn.DefaultScreen >= len(setup.Roots) {
		conn.Close()
		return nil, errors.New("missing root window")
	}
	root := setup.DefaultScreen(conn).Root

	activeWindow, err := internAtom(conn, "_NET_ACTIVE_WINDOW")
	if err != nil {
		conn.Close()
		return nil, err
	}
	wmClass, err := internAtom(conn, "WM_CLASS")
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &xgbProperties{
		conn:         conn,
		root:         root,
		activeWindow: activeWindow,
		wmClass:      wmClass,
	}, nil
}

func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	return reply.Atom, nil
}

func (p *xgbProperties) ActiveWindow() (uint32, error) {
	reply, err := xproto.GetProperty(p.conn, false, p.root, p.activeWindow,
		xproto.AtomWindow, 0, maxPropertyLength).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to read _NET_ACTIVE_WINDOW: %w", err)
	}
	if reply.Format != 32 || len(reply.Value) < 4 {
		return 0, nil
	}
	return xgb.Get32(reply.Value), nil
}

func (p *xgbProperties) WMClass(window uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(p.conn, false, xproto.Window(window), p.wmClass,
		xproto.AtomString, 0, maxPropertyLength).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to read WM_CLASS: %w", err)
	}
	return reply.Value, nil
}

func (p *xgbProperties) Close() {
	p.conn.Close()
}
