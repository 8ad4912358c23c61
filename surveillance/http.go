package surveillance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/giygas/antibiotic-advisor/interfaces"
	"github.com/giygas/antibiotic-advisor/logging"
	"github.com/giygas/antibiotic-advisor/resistance"
)

const maxFeedSize = 16 * 1024 * 1024

// HTTPSource downloads a snapshot feed.
type HTTPSource struct {
	url    string
	host   string
	format Format
	client *http.Client
}

var _ interfaces.SurveillanceSource = (*HTTPSource)(nil)

// NewHTTPSource infers the format from the URL path; a nil client gets a 2 minute timeout.
func NewHTTPSource(location string, client *http.Client) (*HTTPSource, error) {
	u, err := url.Parse(location)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, location)
	}
	format, err := FormatOf(u.Path)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &HTTPSource{url: location, host: u.Host, format: format, client: client}, nil
}

func (h *HTTPSource) Name() string { return h.url }

// Load fetches and decodes the feed. Snapshots without a date take the
// Last-Modified header, or the download time.
func (h *HTTPSource) Load(ctx context.Context) (resistance.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return resistance.Snapshot{}, fmt.Errorf("failed to build request for %s: %w", h.url, err)
	}
	req.Header.Set("Accept", "application/yaml, application/json, text/tab-separated-values, text/plain")

	response, err := h.client.Do(req)
	if err != nil {
		return resistance.Snapshot{}, fmt.Errorf("failed to download %s: %w", h.url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return resistance.Snapshot{}, fmt.Errorf("failed to download %s: status %d", h.url, response.StatusCode)
	}

	s, err := Decode(io.LimitReader(response.Body, maxFeedSize), h.format)
	if err != nil {
		return resistance.Snapshot{}, fmt.Errorf("%s: %w", h.url, err)
	}

	fetched := time.Now()
	if lm, err := http.ParseTime(response.Header.Get("Last-Modified")); err == nil {
		fetched = lm
	}
	return finalize(s, h.host, fetched)
}
