package media

import (
	"context"

	"github.com/godbus/dbus/v5"
)

// DBusClient defines the D-Bus operations the probe needs.
// This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/presence/internal/media DBusClient
type DBusClient interface {
	// Close closes the D-Bus connection
	Close() error

	// ListNames returns all names on the bus
	ListNames(ctx context.Context) ([]string, error)

	// GetProperty retrieves a property from a D-Bus object
	// dest: The bus name (e.g., "org.mpris.MediaPlayer2.spotify")
	// path: The object path (e.g., "/org/mpris/MediaPlayer2")
	// iface: The interface owning the property (e.g., "org.mpris.MediaPlayer2.Player")
	// prop: The property name (e.g., "Metadata")
	GetProperty(ctx context.Context, dest, path, iface, prop string) (dbus.Variant, error)
}

// StdDBusClient is the real implementation using godbus
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient opens a private connection to the session bus.
// The caller owns the connection and must Close it.
func NewStdDBusClient() (*StdDBusClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &StdDBusClient{conn: conn}, nil
}

// Close closes the D-Bus connection
func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}

// ListNames returns all names on the bus
func (c *StdDBusClient) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.ListNames", 0).Store(&names)
	return names, err
}

// GetProperty retrieves a property through org.freedesktop.DBus.Properties
func (c *StdDBusClient) GetProperty(ctx context.Context, dest, path, iface, prop string) (dbus.Variant, error) {
	var value dbus.Variant
	obj := c.conn.Object(dest, dbus.ObjectPath(path))
	err := obj.CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, iface, prop).Store(&value)
	return value, err
}
