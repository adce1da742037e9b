package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrUnexpectedStatus is returned for non-2xx catalog responses.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// HTTP downloads the catalog with a GET request.
type HTTP struct {
	url      string
	name     string
	client   *http.Client
	maxBytes int64
}

// NewHTTP returns a Source that GETs rawURL on every fetch. The deadline comes
// from the fetch context.
func NewHTTP(rawURL string, maxBytes int64) *HTTP {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		name = u.Redacted()
	}
	return &HTTP{
		url:      rawURL,
		name:     "http:" + name,
		client:   &http.Client{},
		maxBytes: maxBytes,
	}
}

func (h *HTTP) Name() string { return h.name }

func (h *HTTP) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return "", fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download catalog: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	if h.maxBytes > 0 && resp.ContentLength > h.maxBytes {
		return "", fmt.Errorf("%w: Content-Length %d, limit %d", ErrTooLarge, resp.ContentLength, h.maxBytes)
	}

	return ReadText(resp.Body, h.maxBytes)
}

func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
