package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"
)

const (

	// Default bound on a whole download, connection to last byte.
	DefaultTimeout = 5 * time.Minute

	// Default cap on archive size (2 GiB).
	DefaultMaxBytes int64 = 2 << 30
)

// Downloads source archives.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	maxBytes  int64
	userAgent string
}

// Configures a [Fetcher] during construction.
type Option func(*Fetcher)

// Sets the HTTP client, useful for tests or proxy configuration.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// Sets the download timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// Sets the maximum archive size in bytes. Non-positive values keep the
// default.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// Sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// Creates a [Fetcher] with the given options applied over the defaults.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   http.DefaultClient,
		timeout:  DefaultTimeout,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Downloads rawURL into a new temporary file in dir and returns its path.
//
// Only http and https URLs are accepted; other schemes fail with
// [ErrUnsupportedScheme] before any network I/O. Non-2xx responses yield a
// [*StatusError]. A transfer that outlives the configured timeout fails with
// [ErrTimeout]. Every error wraps [ErrFetch] and no file is left behind.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	slog.Debug("fetching source", "url", u.Redacted(), "timeout", f.timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", f.classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: u.Redacted(), Status: resp.StatusCode}
	}

	if resp.ContentLength > f.maxBytes {
		return "", fmt.Errorf("%w: %w: %d bytes", ErrFetch, ErrTooLarge, resp.ContentLength)
	}

	p, n, err := f.writeTemp(ctx, resp.Body, dir, archiveName(u))
	if err != nil {
		return "", err
	}

	slog.Info("fetched source", "url", u.Redacted(), "bytes", n)
	return p, nil
}

// Parses rawURL and checks its scheme.
func parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %w: %q", ErrFetch, ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrFetch, rawURL)
	}
	return u, nil
}

// Copies body into a temporary file in dir, enforcing the size cap.
//
// The partially written file is removed on any error.
func (f *Fetcher) writeTemp(ctx context.Context, body io.Reader, dir, name string) (_ string, _ int64, err error) {
	tmp, err := os.CreateTemp(dir, "download-*-"+name)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrFetch, closeErr)
		}
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(body, f.maxBytes+1))
	if err != nil {
		return "", 0, f.classify(ctx, err)
	}
	if n > f.maxBytes {
		return "", 0, fmt.Errorf("%w: %w: more than %d bytes", ErrFetch, ErrTooLarge, f.maxBytes)
	}

	return tmp.Name(), n, nil
}

// Wraps a transport error, distinguishing timeouts.
func (f *Fetcher) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w after %s", ErrFetch, ErrTimeout, f.timeout)
	}
	return fmt.Errorf("%w: %w", ErrFetch, err)
}

// Returns a filesystem-safe name for the downloaded file, taken from the last
// URL path segment.
func archiveName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "source"
	}
	return name
}
