package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxCatalogBytes caps how much of a catalog document is read.
const maxCatalogBytes = 1 << 20

// ErrCatalogTooLarge is returned for documents over maxCatalogBytes.
var ErrCatalogTooLarge = fmt.Errorf("catalog exceeds %d bytes", maxCatalogBytes)

// readCatalog reads r in full, failing once more than maxCatalogBytes
// arrive rather than returning a truncated document.
func readCatalog(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxCatalogBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxCatalogBytes {
		return nil, ErrCatalogTooLarge
	}
	return data, nil
}

// CatalogFetcher retrieves a raw size catalog document.
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context, location string) ([]byte, error)
}

// HTTPCatalogFetcher fetches catalog documents over HTTP(S)
type HTTPCatalogFetcher struct {
	client  *http.Client
	backoff time.Duration
}

// NewHTTPCatalogFetcher creates an HTTP catalog fetcher
func NewHTTPCatalogFetcher(timeout time.Duration) *HTTPCatalogFetcher {
	transport := &http.Transport{
		// Catalogs are small and fetched rarely
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 1,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPCatalogFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		backoff: time.Second,
	}
}

func (h *HTTPCatalogFetcher) FetchCatalog(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req.Header.Set("Accept", "application/yaml, text/yaml, text/plain, */*")
	req.Header.Set("User-Agent", "Image-Srcset/1.0")

	// Retry logic (3 attempts) - only retry on transient errors
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		body, retryable, err := h.try(req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !retryable || attempt == 2 {
			break
		}

		// Linear backoff, abandoned if the caller gives up
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("catalog fetch cancelled: %w", ctx.Err())
		case <-time.After(time.Duration(attempt+1) * h.backoff):
		}
	}

	return nil, fmt.Errorf("failed to fetch catalog after 3 attempts: %w", lastErr)
}

// try performs one request. retryable reports whether a failure is worth
// another attempt: network errors and 5xx are, 4xx are not.
func (h *HTTPCatalogFetcher) try(req *http.Request) (body []byte, retryable bool, err error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err = readCatalog(resp.Body)
		if err != nil {
			return nil, !errors.Is(err, ErrCatalogTooLarge), fmt.Errorf("failed to read catalog: %w", err)
		}
		return body, false, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
}
