package domain

import "context"

// FocusResolver finds the identity of the application owning the focused window
type FocusResolver interface {
	// ActiveWindowProcess returns the application name of the focused window
	// using the strategy for the given session.
	// Returns ErrNoActiveWindow when nothing is focused or the session is
	// unsupported, and a *QueryError when the platform query itself fails.
	ActiveWindowProcess(ctx context.Context, session SessionKind) (string, error)
}

// MediaProbe reads what is currently playing
type MediaProbe interface {
	// Probe returns the now-playing metadata.
	// Empty metadata with a nil error means nothing is playing.
	Probe(ctx context.Context) (MediaMetadata, error)
}

// Reporter delivers presence reports to a remote endpoint
type Reporter interface {
	// Send performs a single delivery attempt.
	// Any transport failure or non-success status is returned as an error.
	Send(ctx context.Context, target Endpoint, report Report) error
}
