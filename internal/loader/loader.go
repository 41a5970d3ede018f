// Package loader fetches vendor apidoc scripts from local files or
// HTTP endpoints and extracts the endpoint schema assignment they
// carry. Local loads are cached by modification time so repeated runs
// over an unchanged file skip the read.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/proxdocs/apidoc2openapi/internal/version"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError   ErrorCode = "InputError"
	NetworkError ErrorCode = "NetworkError"
	ExtractError ErrorCode = "ExtractError"
)

// LoadError is a structured loader error with the offending location.
type LoadError struct {
	Code     ErrorCode
	Message  string
	Location string // file path or URL
	Cause    error
}

func (e *LoadError) Error() string { return e.Message }
func (e *LoadError) Unwrap() error { return e.Cause }

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }

// Script is one loaded apidoc source.
type Script struct {
	// Location is the resolved file path or URL.
	Location string
	// Source is the full script text.
	Source []byte
	// ModTime is the file modification time; zero for URLs.
	ModTime time.Time
}

// Load reads an apidoc script. input may be a filesystem path or an
// http/https URL.
func Load(ctx context.Context, input string, opts ...Option) (*Script, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &LoadError{Code: InputError, Message: "loader: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	u, uerr := url.Parse(input)
	isURL := uerr == nil && u.Scheme != "" && u.Host != ""

	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			return nil, &LoadError{Code: InputError, Message: fmt.Sprintf("loader: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		raw, err := fetchWithRetry(ctx, input, settings)
		if err != nil {
			return nil, &LoadError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		return &Script{Location: input, Source: raw}, nil
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, &LoadError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, &LoadError{Code: InputError, Message: fmt.Sprintf("stat %s: %v", abs, err), Location: abs, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &LoadError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return &Script{Location: abs, Source: raw, ModTime: fi.ModTime()}, nil
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", version.UserAgent())
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode < 300 {
			defer resp.Body.Close()
			return io.ReadAll(resp.Body)
		}
		if err != nil {
			lastErr = err
		} else {
			defer resp.Body.Close()
			if resp.StatusCode >= 500 || resp.StatusCode == 429 {
				lastErr = fmt.Errorf("transient http error %d", resp.StatusCode)
			} else {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

var schemaAssignRe = regexp.MustCompile(`(?m)^\s*(?:var|const|let)\s+(?:apiSchema|pveapi|apidata)\s*=\s*`)

// Extract locates the endpoint schema assignment inside a script and
// returns the literal source starting at its value, plus the byte
// offset of that value within the script. Trailing statements after
// the literal are the literal parser's problem, not ours.
func Extract(s *Script) ([]byte, int, error) {
	loc := schemaAssignRe.FindIndex(s.Source)
	if loc == nil {
		return nil, 0, &LoadError{
			Code:     ExtractError,
			Message:  "loader: no apiSchema assignment found in script",
			Location: s.Location,
		}
	}
	return s.Source[loc[1]:], loc[1], nil
}

// Cache memoizes extracted literals for local files keyed by path and
// modification time. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	modTime time.Time
	literal []byte
	base    int
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// ExtractCached behaves like Extract but serves unchanged files from
// the cache. Scripts without a modification time (URLs) bypass it.
func (c *Cache) ExtractCached(s *Script) ([]byte, int, error) {
	if s.ModTime.IsZero() {
		return Extract(s)
	}

	c.mu.Lock()
	entry, ok := c.entries[s.Location]
	c.mu.Unlock()
	if ok && entry.modTime.Equal(s.ModTime) {
		return entry.literal, entry.base, nil
	}

	literal, base, err := Extract(s)
	if err != nil {
		return nil, 0, err
	}
	c.mu.Lock()
	c.entries[s.Location] = cacheEntry{modTime: s.ModTime, literal: literal, base: base}
	c.mu.Unlock()
	return literal, base, nil
}
