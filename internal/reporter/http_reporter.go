package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/genricoloni/presence/internal/domain"
	"go.uber.org/zap"
)

const userAgent = "presenceDaemon/1.0"

// StatusError is returned when the endpoint answers with a non-2xx status
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

type mediaPayload struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

type reportPayload struct {
	Key       string        `json:"key"`
	Process   string        `json:"process"`
	Timestamp int64         `json:"timestamp"`
	Media     *mediaPayload `json:"media,omitempty"`
}

// HTTPReporter delivers reports as a single JSON POST per call
type HTTPReporter struct {
	logger *zap.Logger
	client *http.Client
	now    func() time.Time
}

// NewHTTPReporter creates a new HTTP-based reporter instance.
// The client has no overall timeout; a request lives as long as its context.
func NewHTTPReporter(logger *zap.Logger) *HTTPReporter {
	return &HTTPReporter{
		logger: logger,
		client: &http.Client{},
		now:    time.Now,
	}
}

// Send posts the report to target.URL. It makes exactly one attempt.
func (r *HTTPReporter) Send(ctx context.Context, target domain.Endpoint, report domain.Report) error {
	body, err := json.Marshal(r.payload(target.Key, report))
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	r.logger.Debug("Report delivered",
		zap.String("process", report.Process),
		zap.Int("status", resp.StatusCode))
	return nil
}

// payload builds the wire form; media is dropped only when both fields are empty
func (r *HTTPReporter) payload(key string, report domain.Report) reportPayload {
	p := reportPayload{
		Key:       key,
		Process:   report.Process,
		Timestamp: r.now().Unix(),
	}
	if !report.Media.IsEmpty() {
		p.Media = &mediaPayload{
			Title:  report.Media.Title,
			Artist: report.Media.Artist,
		}
	}
	return p
}
