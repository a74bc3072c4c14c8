package reporter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/genricoloni/presence/internal/domain"
	"go.uber.org/zap"
)

func TestHTTPReporter_Send(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		responseBody  string
		ctxFunc       func() (context.Context, context.CancelFunc)
		expectedError string
		expectStatus  int
	}{
		{
			name:         "Success - 200 OK",
			statusCode:   http.StatusOK,
			responseBody: `{"ok":true}`,
		},
		{
			name:       "Success - 204 No Content",
			statusCode: http.StatusNoContent,
		},
		{
			name:          "Error - 500 Internal Server Error",
			statusCode:    http.StatusInternalServerError,
			responseBody:  "boom",
			expectedError: "unexpected status code: 500",
			expectStatus:  http.StatusInternalServerError,
		},
		{
			name:          "Error - 401 Unauthorized",
			statusCode:    http.StatusUnauthorized,
			expectedError: "unexpected status code: 401",
			expectStatus:  http.StatusUnauthorized,
		},
		{
			name: "Error - Context Cancelled",
			ctxFunc: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx, cancel
			},
			statusCode:    http.StatusOK,
			expectedError: "network error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("expected application/json, got %q", ct)
				}
				if ua := r.Header.Get("User-Agent"); ua != userAgent {
					t.Errorf("expected user agent %q, got %q", userAgent, ua)
				}
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			ctx := context.Background()
			if tt.ctxFunc != nil {
				var cancel context.CancelFunc
				ctx, cancel = tt.ctxFunc()
				defer cancel()
			}

			r := NewHTTPReporter(zap.NewNop())
			err := r.Send(ctx, domain.Endpoint{URL: server.URL, Key: "secret"}, domain.Report{Process: "firefox"})

			if tt.expectedError == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if err == nil || !strings.Contains(err.Error(), tt.expectedError) {
				t.Fatalf("expected error containing %q, got %v", tt.expectedError, err)
			}

			if tt.expectStatus != 0 {
				var se *StatusError
				if !errors.As(err, &se) {
					t.Fatalf("expected StatusError, got %T", err)
				}
				if se.StatusCode != tt.expectStatus {
					t.Errorf("expected status %d, got %d", tt.expectStatus, se.StatusCode)
				}
			}
		})
	}
}

func TestHTTPReporter_Payload(t *testing.T) {
	fixed := time.Unix(1700000000, 0)

	tests := []struct {
		name      string
		report    domain.Report
		wantMedia map[string]any
	}{
		{
			name:   "Media omitted when empty",
			report: domain.Report{Process: "code"},
		},
		{
			name:      "Media with both fields",
			report:    domain.Report{Process: "spotify", Media: domain.MediaMetadata{Title: "Song", Artist: "A, B"}},
			wantMedia: map[string]any{"title": "Song", "artist": "A, B"},
		},
		{
			name:      "Empty artist is kept",
			report:    domain.Report{Process: "mpv", Media: domain.MediaMetadata{Title: "clip.mkv"}},
			wantMedia: map[string]any{"title": "clip.mkv", "artist": ""},
		},
		{
			name:      "Empty title is kept",
			report:    domain.Report{Process: "None", Media: domain.MediaMetadata{Artist: "Queen"}},
			wantMedia: map[string]any{"title": "", "artist": "Queen"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ = io.ReadAll(r.Body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			r := NewHTTPReporter(zap.NewNop())
			r.now = func() time.Time { return fixed }

			if err := r.Send(context.Background(), domain.Endpoint{URL: server.URL, Key: "k"}, tt.report); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var got map[string]any
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("invalid JSON body %q: %v", body, err)
			}

			if got["key"] != "k" {
				t.Errorf("key: expected %q, got %v", "k", got["key"])
			}
			if got["process"] != tt.report.Process {
				t.Errorf("process: expected %q, got %v", tt.report.Process, got["process"])
			}
			if got["timestamp"] != float64(fixed.Unix()) {
				t.Errorf("timestamp: expected %d, got %v", fixed.Unix(), got["timestamp"])
			}

			media, present := got["media"]
			if tt.wantMedia == nil {
				if present {
					t.Errorf("media should be omitted, got %v", media)
				}
				return
			}

			m, ok := media.(map[string]any)
			if !ok {
				t.Fatalf("media: expected object, got %v", media)
			}
			for k, v := range tt.wantMedia {
				if m[k] != v {
					t.Errorf("media.%s: expected %q, got %v", k, v, m[k])
				}
			}
			if len(m) != len(tt.wantMedia) {
				t.Errorf("media: unexpected fields %v", m)
			}
		})
	}
}

func TestHTTPReporter_InvalidURL(t *testing.T) {
	r := NewHTTPReporter(zap.NewNop())
	err := r.Send(context.Background(), domain.Endpoint{URL: "://bad"}, domain.Report{Process: "x"})
	if err == nil || !strings.Contains(err.Error(), "failed to create request") {
		t.Fatalf("expected request creation error, got %v", err)
	}
}
