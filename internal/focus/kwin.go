package focus

import (
	"context"
	"strings"

	"github.com/genricoloni/presence/internal/domain"
	"github.com/genricoloni/presence/internal/executor"
)

const backendKWin = "KWin"

// kwinQuery asks KWin for its diagnostic dump, which includes the active window
var kwinQuery = []string{"qdbus", "org.kde.KWin", "/KWin", "supportInformation"}

// activeWindowPrefixes are the labels KWin prints before the active window identity.
// The match is on the exact English text of the dump.
var activeWindowPrefixes = []string{
	"Active window class:",
	"Active window resource class:",
	"Active window resource name:",
}

// KWinSource reads the focused window from KWin's support information
type KWinSource struct {
	runner executor.Runner
}

// NewKWinSource creates a source that shells out through runner
func NewKWinSource(runner executor.Runner) *KWinSource {
	return &KWinSource{runner: runner}
}

// ActiveWindowClass returns the value after the first recognized label
func (s *KWinSource) ActiveWindowClass(ctx context.Context) (string, error) {
	out, err := s.runner.Output(ctx, kwinQuery[0], kwinQuery[1:]...)
	if err != nil {
		return "", &domain.QueryError{Backend: backendKWin, Err: err}
	}

	if name, ok := parseSupportInformation(string(out)); ok {
		return name, nil
	}
	return "", domain.ErrNoActiveWindow
}

func parseSupportInformation(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, prefix := range activeWindowPrefixes {
			if rest, ok := strings.CutPrefix(trimmed, prefix); ok {
				return strings.TrimSpace(rest), true
			}
		}
	}
	return "", false
}
