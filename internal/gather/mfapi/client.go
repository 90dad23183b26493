package mfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"saarthi/internal/domain"
)

// SeriesFetcher returns a fund's NAV history, most recent point first.
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, schemeCode string) ([]domain.NAVPoint, error)
}

// Client fetches NAV histories from the time-series API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for baseURL, e.g. "https://api.mfapi.in/mf".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// seriesResponse is the body of GET /mf/{code}. The meta and status members
// are not used.
type seriesResponse struct {
	Data []domain.NAVPoint `json:"data"`
}

// FetchSeries returns the NAV history for a scheme code. A missing or empty
// data field yields an empty series and no error.
func (c *Client) FetchSeries(ctx context.Context, schemeCode string) ([]domain.NAVPoint, error) {
	u := c.baseURL + "/" + url.PathEscape(schemeCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var body seriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding series: %w", err)
	}
	return body.Data, nil
}
