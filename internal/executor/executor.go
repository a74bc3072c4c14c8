package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Runner executes external status utilities and returns their stdout.
//
//go:generate mockgen -destination=mocks/runner_mock.go -package=mocks github.com/genricoloni/presence/internal/executor Runner
type Runner interface {
	// Output runs name with args and waits for it to exit.
	// A spawn failure or a non-zero exit status is returned as an error.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandRunner runs commands through os/exec
type CommandRunner struct {
	logger *zap.Logger
}

// NewCommandRunner creates a runner backed by the host PATH
func NewCommandRunner(logger *zap.Logger) *CommandRunner {
	return &CommandRunner{logger: logger}
}

// Output runs the command synchronously and returns its stdout
func (r *CommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w (stderr: %s)",
			name, err, strings.TrimSpace(stderr.String()))
	}

	r.logger.Debug("Command finished",
		zap.String("command", name),
		zap.Strings("args", args),
		zap.Int("bytes", len(out)))

	return out, nil
}

// CommandExists checks if a binary exists in PATH
func CommandExists(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}
