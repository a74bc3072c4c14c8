package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPath is used when the caller does not name a config file
const DefaultPath = ".env.process"

const (
	keyAPIURL      = "API_URL"
	keyAPIKey      = "API_KEY"
	keyWatchTime   = "WATCH_TIME"
	keyMediaEnable = "MEDIA_ENABLE"
	keyLogEnable   = "LOG_ENABLE"

	defaultWatchTime = 5
)

// ErrNotFound is returned (wrapped with the path) when the config file does not exist
var ErrNotFound = errors.New("config file not found")

// MissingFieldError reports a required key that is absent or empty
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing required field: " + e.Field
}

// ParseError reports a file that exists but cannot be read
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Config holds the presence watcher configuration
type Config struct {
	APIURL      string `json:"api_url"`
	APIKey      string `json:"api_key"`
	WatchTime   uint64 `json:"watch_time"` // seconds between samples
	MediaEnable bool   `json:"media_enable"`
	LogEnable   bool   `json:"log_enable"`
}

// Default returns a Config with every optional field at its default
func Default() Config {
	return Config{
		WatchTime:   defaultWatchTime,
		MediaEnable: true,
		LogEnable:   true,
	}
}

// WatchInterval returns WATCH_TIME as a duration
func (c Config) WatchInterval() time.Duration {
	return time.Duration(c.WatchTime) * time.Second
}

// Load reads the key=value file at path.
// Lines without '=' and unknown keys are ignored, and unparsable values
// keep their defaults. API_URL and API_KEY are required.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to access config: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	cfg := Default()
	for _, e := range parse(string(data)) {
		cfg.apply(e.key, e.value)
	}

	if cfg.APIURL == "" {
		return nil, &MissingFieldError{Field: keyAPIURL}
	}
	if cfg.APIKey == "" {
		return nil, &MissingFieldError{Field: keyAPIKey}
	}

	return &cfg, nil
}

type entry struct {
	key   string
	value string
}

// parse splits text into key=value entries in file order.
// Blank lines, '#' comments and lines without '=' are skipped. Keys are
// matched as written; values are trimmed and otherwise kept verbatim,
// including any '#'.
func parse(text string) []entry {
	var entries []entry
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		key, value, ok := strings.Cut(trimmed, "=")
		if !ok {
			continue
		}
		entries = append(entries, entry{key: key, value: unquote(key, strings.TrimSpace(value))})
	}
	return entries
}

// unquote decodes a double-quoted value in the form godotenv.Write produces.
// Anything else, or a quoted value godotenv rejects, is returned unchanged.
func unquote(key, value string) string {
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return value
	}

	decoded, err := godotenv.Unmarshal(key + "=" + value)
	if err != nil {
		return value
	}
	if v, ok := decoded[key]; ok {
		return v
	}
	return value
}

func (c *Config) apply(key, value string) {
	switch key {
	case keyAPIURL:
		c.APIURL = value
	case keyAPIKey:
		c.APIKey = value
	case keyWatchTime:
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			c.WatchTime = n
		}
	case keyMediaEnable:
		if b, err := strconv.ParseBool(value); err == nil {
			c.MediaEnable = b
		}
	case keyLogEnable:
		if b, err := strconv.ParseBool(value); err == nil {
			c.LogEnable = b
		}
	}
}

// Save writes all five keys to path, creating parent directories as needed
func Save(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	values := map[string]string{
		keyAPIURL:      strings.TrimSpace(cfg.APIURL),
		keyAPIKey:      strings.TrimSpace(cfg.APIKey),
		keyWatchTime:   strconv.FormatUint(cfg.WatchTime, 10),
		keyMediaEnable: strconv.FormatBool(cfg.MediaEnable),
		keyLogEnable:   strconv.FormatBool(cfg.LogEnable),
	}

	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
