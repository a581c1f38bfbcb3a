// Package fetch downloads remote spreadsheets with retries on transient
// failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultRequestTimeout = 60 * time.Second
	defaultMaxAttempts    = 3
	defaultBaseBackoff    = 500 * time.Millisecond
	defaultMaxBackoff     = 8 * time.Second
)

// StatusError is returned when the server answers with a non-200 status
// after all retries.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("downloading %s: HTTP %d", e.URL, e.StatusCode)
}

// Fetcher downloads spreadsheets over HTTP, retrying transient failures.
type Fetcher struct {
	HTTPClient *http.Client
	UserAgent  string

	requestTimeout time.Duration
	maxAttempts    int
	baseBackoff    time.Duration
	maxBackoff     time.Duration
	sleep          func(time.Duration)
	randInt63n     func(int64) int64
	now            func() time.Time
}

// New returns a Fetcher with default timeouts and retry policy.
func New(userAgent string) *Fetcher {
	return &Fetcher{
		HTTPClient:     &http.Client{},
		UserAgent:      userAgent,
		requestTimeout: defaultRequestTimeout,
		maxAttempts:    defaultMaxAttempts,
		baseBackoff:    defaultBaseBackoff,
		maxBackoff:     defaultMaxBackoff,
		sleep:          time.Sleep,
		randInt63n:     rand.Int63n,
		now:            time.Now,
	}
}

type response struct {
	ContentType string
	Body        []byte
}

// Download fetches rawURL into a temp file whose extension follows the
// Content-Type header, then the URL path. The caller must run cleanup.
func (f *Fetcher) Download(ctx context.Context, rawURL string) (string, func(), error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return "", nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := f.get(ctx, rawURL)
	if err != nil {
		return "", nil, err
	}

	ext := ExtFromContentType(resp.ContentType)
	if ext == "" {
		ext = filepath.Ext(URLPath(rawURL))
	}
	if ext == "" {
		ext = ".xlsx"
	}

	tmpFile, err := os.CreateTemp("", "marksheet-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmpFile.Write(resp.Body); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", nil, fmt.Errorf("writing %s: %w", tmpFile.Name(), err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpFile.Name())
		return "", nil, err
	}

	cleanup := func() {
		os.Remove(tmpFile.Name())
	}
	return tmpFile.Name(), cleanup, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*response, error) {
	maxAttempts := f.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequest("GET", rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		if f.UserAgent != "" {
			req.Header.Set("User-Agent", f.UserAgent)
		}

		timeout := f.requestTimeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		req = req.WithContext(reqCtx)

		resp, err := f.HTTPClient.Do(req)
		if err != nil {
			cancel()
			if attempt < maxAttempts && isRetryableTransportError(err) {
				f.sleepWithBackoff(attempt, "")
				continue
			}
			return nil, fmt.Errorf("downloading URL after %d attempt(s): %w", attempt, err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		if readErr != nil {
			if attempt < maxAttempts && isRetryableTransportError(readErr) {
				f.sleepWithBackoff(attempt, "")
				continue
			}
			return nil, fmt.Errorf("reading download after %d attempt(s): %w", attempt, readErr)
		}

		if attempt < maxAttempts && shouldRetryStatus(resp.StatusCode) {
			f.sleepWithBackoff(attempt, resp.Header.Get("Retry-After"))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
		}

		return &response{
			ContentType: resp.Header.Get("Content-Type"),
			Body:        body,
		}, nil
	}

	return nil, fmt.Errorf("downloading URL failed after %d attempt(s)", maxAttempts)
}

func isRetryableTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func shouldRetryStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func (f *Fetcher) sleepWithBackoff(attempt int, retryAfterHeader string) {
	if d, ok := f.parseRetryAfter(retryAfterHeader); ok {
		f.sleep(d)
		return
	}

	base := f.baseBackoff
	if base <= 0 {
		base = defaultBaseBackoff
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay <= 0 {
			delay = defaultMaxBackoff
			break
		}
	}

	maxBackoff := f.maxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	if delay > maxBackoff {
		delay = maxBackoff
	}
	if delay <= 0 {
		return
	}

	// Full jitter in [0, delay).
	if f.randInt63n != nil {
		delay = time.Duration(f.randInt63n(int64(delay)))
	}
	f.sleep(delay)
}

func (f *Fetcher) parseRetryAfter(headerValue string) (time.Duration, bool) {
	v := strings.TrimSpace(headerValue)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		now := time.Now
		if f.now != nil {
			now = f.now
		}
		if d := t.Sub(now()); d > 0 {
			return d, true
		}
	}
	return 0, false
}

// ExtFromContentType maps spreadsheet MIME types to a file extension.
func ExtFromContentType(ct string) string {
	ct = strings.SplitN(ct, ";", 2)[0]
	ct = strings.TrimSpace(strings.ToLower(ct))
	switch ct {
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return ".xlsx"
	case "application/vnd.ms-excel.sheet.macroenabled.12":
		return ".xlsm"
	case "application/vnd.ms-excel":
		return ".xls"
	case "text/csv", "text/plain":
		return ".csv"
	default:
		return ""
	}
}

// URLPath returns the path component of rawURL, or "" if it does not parse.
func URLPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}
