package focus

import (
	"os"
	"strings"

	"github.com/genricoloni/presence/internal/domain"
)

// Environment variables consulted by session detection
const (
	envSessionType    = "XDG_SESSION_TYPE"
	envKDEFullSession = "KDE_FULL_SESSION"
	envDesktopSession = "DESKTOP_SESSION"
)

// kdeDesktopMarkers are DESKTOP_SESSION substrings identifying a KWin session.
// "plasma" covers sessions named plasma or plasmawayland, which do not contain "kde".
var kdeDesktopMarkers = []string{"kde", "plasma"}

// LookupFunc has the signature of os.LookupEnv
type LookupFunc func(key string) (string, bool)

// DetectSession classifies the current process environment
func DetectSession() domain.SessionKind {
	return Detect(os.LookupEnv)
}

// Detect classifies a desktop session from environment lookups alone.
// It never fails: anything unrecognized is SessionUnknown.
func Detect(lookup LookupFunc) domain.SessionKind {
	sessionType, _ := lookup(envSessionType)

	switch {
	case strings.EqualFold(sessionType, "x11"), strings.EqualFold(sessionType, "xorg"):
		return domain.SessionX11
	case strings.EqualFold(sessionType, "wayland") && isKDE(lookup):
		return domain.SessionWaylandKDE
	default:
		return domain.SessionUnknown
	}
}

func isKDE(lookup LookupFunc) bool {
	if _, ok := lookup(envKDEFullSession); ok {
		return true
	}

	desktop, _ := lookup(envDesktopSession)
	desktop = strings.ToLower(desktop)
	for _, marker := range kdeDesktopMarkers {
		if strings.Contains(desktop, marker) {
			return true
		}
	}
	return false
}
