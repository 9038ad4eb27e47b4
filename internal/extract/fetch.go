package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "scry-summarizer/1.0"

// FetchResult holds a downloaded document body.
type FetchResult struct {
	Body        []byte
	ContentType string

	// Truncated is true when the body was cut at the download cap.
	Truncated bool
}

// Fetcher downloads documents with a pooled HTTP client.
type Fetcher struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewFetcher creates a Fetcher. An empty userAgent selects DefaultUserAgent.
func NewFetcher(userAgent string, logger *slog.Logger) *Fetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:    cleanhttp.DefaultPooledClient(),
		userAgent: userAgent,
		logger:    logger.With("component", "fetcher"),
	}
}

// Fetch downloads at most maxBytes of url within timeout. Any transport
// error, timeout or non-2xx status is reported as ErrFetchFailed.
func (f *Fetcher) Fetch(ctx context.Context, url string, maxBytes int64, timeout time.Duration) (*FetchResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid request: %w", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Debug("failed to close response body", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: download timed out after %s", ErrFetchFailed, timeout)
		}
		return nil, fmt.Errorf("%w: reading body: %w", ErrFetchFailed, err)
	}

	result := &FetchResult{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		result.Body = body[:maxBytes]
		result.Truncated = true
	}

	f.logger.DebugContext(ctx, "document fetched",
		"bytes", len(result.Body),
		"truncated", result.Truncated,
		"content_type", result.ContentType,
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
