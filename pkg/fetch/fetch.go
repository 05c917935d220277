// Package fetch downloads a single web page.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/japaniel/lector/pkg/apperr"
	"github.com/japaniel/lector/pkg/logger"
)

const (
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBodyBytes caps HTML read from untrusted URLs.
	DefaultMaxBodyBytes = 10 * 1024 * 1024
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type Options struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

type Fetcher struct {
	client *http.Client
	opts   Options
	log    *logger.Logger
}

// New fills zero options with defaults.
func New(opts Options, log *logger.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Fetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		log:    log,
	}
}

// Fetch GETs url once. Network errors, timeouts, non-2xx statuses and
// oversize bodies fail with FetchFailed.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", apperr.Newf(apperr.FetchFailed, "build request: %w", err)
	}
	// Mimic a real browser; some sites block obvious bots.
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ja;q=0.8,zh-CN;q=0.7")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", apperr.Newf(apperr.FetchFailed, "get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperr.Newf(apperr.FetchFailed, "get %s: status %d", url, resp.StatusCode)
	}
	if resp.ContentLength > f.opts.MaxBodyBytes {
		return "", apperr.Newf(apperr.FetchFailed, "content-length %d exceeds limit of %d bytes", resp.ContentLength, f.opts.MaxBodyBytes)
	}

	// Read one byte past the limit to tell "exactly at the limit" from "truncated".
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes+1))
	if err != nil {
		return "", apperr.Newf(apperr.FetchFailed, "read body: %w", err)
	}
	if int64(len(body)) > f.opts.MaxBodyBytes {
		return "", apperr.New(apperr.FetchFailed, fmt.Errorf("response body exceeded maximum size limit of %d bytes", f.opts.MaxBodyBytes))
	}

	f.log.Debug("fetched page", "url", url, "bytes", len(body), "elapsed", time.Since(start))
	return string(body), nil
}
