package focus

import (
	"context"

	"github.com/genricoloni/presence/internal/domain"
	"github.com/genricoloni/presence/internal/executor"
	"go.uber.org/zap"
)

// classSource is one platform strategy for finding the focused window
type classSource interface {
	ActiveWindowClass(ctx context.Context) (string, error)
}

// Resolver picks the focus strategy matching a session
type Resolver struct {
	x11  classSource
	kwin classSource
}

// NewResolver creates a resolver with the X11 and KWin strategies.
// The logger is only used to report a missing KWin utility up front;
// query failures are returned to the caller, which decides how to log them.
func NewResolver(logger *zap.Logger, runner executor.Runner) *Resolver {
	if !executor.CommandExists(kwinQuery[0]) {
		logger.Debug("KWin query utility not in PATH, Wayland KDE sessions will report no window",
			zap.String("binary", kwinQuery[0]))
	}

	return &Resolver{
		x11:  NewX11Source(),
		kwin: NewKWinSource(runner),
	}
}

// ActiveWindowProcess returns the application name of the focused window
func (r *Resolver) ActiveWindowProcess(ctx context.Context, session domain.SessionKind) (string, error) {
	switch session {
	case domain.SessionX11:
		return r.x11.ActiveWindowClass(ctx)
	case domain.SessionWaylandKDE:
		return r.kwin.ActiveWindowClass(ctx)
	default:
		return "", domain.ErrNoActiveWindow
	}
}
