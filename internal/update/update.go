// Package update checks GitHub for a newer apiform release.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// CheckInterval is the minimum time between release lookups.
	CheckInterval = 24 * time.Hour
	// Repo is the GitHub repository that publishes releases.
	Repo = "salmonumbrella/apiform"
	// EnvDisable turns the check off when set to any value.
	EnvDisable = "APIFORM_NO_UPDATE_CHECK"

	cacheFile      = "update-check.json"
	defaultAPIBase = "https://api.github.com"
	lookupTimeout  = 3 * time.Second
)

// Release is the newest published version.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url,omitempty"`
}

type cache struct {
	CheckedAt time.Time `json:"checked_at"`
	Latest    Release   `json:"latest"`
}

// HTTPDoer abstracts an HTTP client for testability.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Checker looks up the latest release, caching the answer on disk.
type Checker struct {
	httpClient HTTPDoer
	apiBase    string
	repo       string
	cachePath  string
	interval   time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// NewChecker creates a Checker with defaults and applies options.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		httpClient: http.DefaultClient,
		apiBase:    defaultAPIBase,
		repo:       Repo,
		interval:   CheckInterval,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Checker) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAPIBase points the checker at another GitHub API host.
func WithAPIBase(base string) Option {
	return func(c *Checker) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			c.apiBase = base
		}
	}
}

// WithCachePath overrides the cache file location.
func WithCachePath(path string) Option {
	return func(c *Checker) {
		c.cachePath = path
	}
}

// WithNow overrides the clock.
func WithNow(fn func() time.Time) Option {
	return func(c *Checker) {
		if fn != nil {
			c.now = fn
		}
	}
}

// WithCheckInterval overrides how long a cached answer is trusted.
func WithCheckInterval(interval time.Duration) Option {
	return func(c *Checker) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// UpdateError wraps update-check failures with context.
type UpdateError struct {
	Op  string
	Err error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update check %s: %v", e.Op, e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// Disabled reports whether the environment turns the check off.
func Disabled() bool {
	return strings.TrimSpace(os.Getenv(EnvDisable)) != ""
}

// Latest returns the newest release, from cache when it is fresh enough.
func (c *Checker) Latest(ctx context.Context) (Release, error) {
	path, err := c.resolveCachePath()
	if err != nil {
		return Release{}, &UpdateError{Op: "cache path", Err: err}
	}

	cached, err := loadCache(path)
	if err != nil {
		c.logger.Debug("ignoring unreadable update cache", "path", path, "error", err)
		cached = cache{}
	}
	if cached.Latest.Version != "" && c.now().Sub(cached.CheckedAt) <= c.interval {
		return cached.Latest, nil
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	latest, err := c.fetchLatest(ctx)
	if err != nil {
		return Release{}, &UpdateError{Op: "fetch latest release", Err: err}
	}
	if err := saveCache(path, cache{CheckedAt: c.now(), Latest: latest}); err != nil {
		return latest, &UpdateError{Op: "save cache", Err: err}
	}
	return latest, nil
}

// Check returns a notice when a release newer than current exists.
// A cache write failure still returns the notice alongside the error.
func (c *Checker) Check(ctx context.Context, current string) (string, error) {
	latest, err := c.Latest(ctx)
	if latest.Version == "" {
		return "", err
	}
	if !IsNewer(current, latest.Version) {
		return "", err
	}
	return Notice(current, latest), err
}

// Check runs a default check and logs failures at debug level.
func Check(ctx context.Context, current string) string {
	checker := NewChecker()
	msg, err := checker.Check(ctx, current)
	if err != nil {
		checker.logger.Debug("update check failed", "error", err)
	}
	return msg
}

// Notice formats the message printed after a command.
func Notice(current string, latest Release) string {
	msg := fmt.Sprintf("A new version of apiform is available: %s (current: %s)\nRun: go install github.com/%s/cmd/apiform@latest", latest.Version, current, Repo)
	if latest.URL != "" {
		msg += "\nRelease notes: " + latest.URL
	}
	return msg
}

func (c *Checker) resolveCachePath() (string, error) {
	if strings.TrimSpace(c.cachePath) != "" {
		return c.cachePath, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "apiform", cacheFile), nil
}

func loadCache(path string) (cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache{}, nil
		}
		return cache{}, err
	}
	var parsed cache
	if err := json.Unmarshal(data, &parsed); err != nil {
		return cache{}, err
	}
	return parsed, nil
}

func saveCache(path string, value cache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Checker) fetchLatest(ctx context.Context) (Release, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiBase, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Release{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Release{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Release{}, err
	}
	if body.TagName == "" {
		return Release{}, fmt.Errorf("release has no tag")
	}
	return Release{Version: strings.TrimPrefix(body.TagName, "v"), URL: body.HTMLURL}, nil
}

// IsNewer compares dotted numeric versions. Dev builds never see updates.
func IsNewer(current, latest string) bool {
	current = strings.TrimPrefix(current, "v")
	if current == "dev" || current == "unknown" || current == "" {
		return false
	}

	currentParts := strings.Split(stripPrerelease(current), ".")
	latestParts := strings.Split(stripPrerelease(latest), ".")

	for i := 0; i < len(currentParts) && i < len(latestParts); i++ {
		c, _ := strconv.Atoi(currentParts[i])
		l, _ := strconv.Atoi(latestParts[i])
		if l > c {
			return true
		}
		if l < c {
			return false
		}
	}
	return len(latestParts) > len(currentParts)
}

func stripPrerelease(v string) string {
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		return v[:i]
	}
	return v
}
