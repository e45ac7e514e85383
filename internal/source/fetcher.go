package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ppiankov/painscope/internal/cache"
	"github.com/ppiankov/painscope/internal/util"
	"github.com/ppiankov/painscope/internal/worker"
	"go.uber.org/zap"
)

// ErrDisallowed is returned when robots.txt forbids a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError reports a non-2xx HTTP response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// fetchSleepFunc is replaced in tests
var fetchSleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	Timeout           time.Duration
	UserAgent         string
	MaxBytes          int64
	MaxAttempts       int
	RequestsPerSecond float64
	Burst             int
	RespectRobots     bool
	HTTPProxy         string
	HTTPSProxy        string

	// Cache stores successful response bodies; nil disables caching
	Cache    cache.Cache
	CacheTTL time.Duration
}

// Fetcher performs polite GET requests: cached, rate limited per host,
// optionally robots.txt-checked, and retried on transient failures
type Fetcher struct {
	httpClient  *http.Client
	userAgent   string
	maxBytes    int64
	maxAttempts int
	limiter     *worker.Limiter
	robots      *util.RobotsChecker
	cache       cache.Cache
	cacheTTL    time.Duration
	logger      *zap.Logger

	mu      sync.Mutex
	delayed map[string]bool // hosts whose rate follows Crawl-delay
}

// NewFetcher creates a Fetcher
func NewFetcher(opts FetcherOptions, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 << 20
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}

	client := &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, ""),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	f := &Fetcher{
		httpClient:  client,
		userAgent:   opts.UserAgent,
		maxBytes:    opts.MaxBytes,
		maxAttempts: opts.MaxAttempts,
		limiter:     worker.NewLimiter(opts.RequestsPerSecond, opts.Burst),
		cache:       opts.Cache,
		cacheTTL:    opts.CacheTTL,
		logger:      logger,
		delayed:     make(map[string]bool),
	}
	if opts.RespectRobots {
		f.robots = util.NewRobotsChecker(client, opts.UserAgent)
	}
	return f
}

// Get returns the body of rawURL
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	key := cache.Key("http", rawURL)
	if body, ok := f.cache.Get(key); ok {
		f.logger.Debug("cache hit", zap.String("url", rawURL))
		return body, nil
	}

	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
		}
		f.applyCrawlDelay(rawURL, delay)
	}

	body, err := f.getWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(key, body, f.cacheTTL); err != nil {
		f.logger.Warn("cache write failed", zap.String("url", rawURL), zap.Error(err))
	}
	return body, nil
}

func (f *Fetcher) getWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(500*(1<<(attempt-1))) * time.Millisecond
			f.logger.Debug("retrying fetch",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			if err := fetchSleepFunc(ctx, backoff); err != nil {
				return nil, err
			}
		}

		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}

		body, err := f.fetch(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// isRetryableFetchError reports whether err is transient: 429, 5xx or a
// transport failure. Context cancellation is final.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	// Transport failures surface as *url.Error with the method as Op;
	// malformed URLs carry Op "parse"
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Op != "parse"
}

// applyCrawlDelay slows a host's limiter to its robots.txt Crawl-delay
func (f *Fetcher) applyCrawlDelay(rawURL string, delay time.Duration) {
	if delay <= 0 {
		return
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delayed[parsed.Host] {
		return
	}
	f.delayed[parsed.Host] = true
	f.limiter.SetHostRate(parsed.Host, 1/delay.Seconds(), 1)
	f.logger.Info("honouring crawl delay", zap.String("host", parsed.Host), zap.Duration("delay", delay))
}
