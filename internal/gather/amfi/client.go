package amfi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrFeedUnavailable reports that the feed could not be downloaded at all.
var ErrFeedUnavailable = errors.New("amfi: feed unavailable")

// FeedFetcher downloads the raw NAV feed.
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Client downloads the NAV feed over HTTP.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a Client for the feed at url. timeout bounds the whole
// request including the body read.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the feed body. Transport errors and non-200 responses wrap
// ErrFeedUnavailable.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating feed request %q: %w", c.url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: %s", ErrFeedUnavailable, c.url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrFeedUnavailable, err)
	}
	return body, nil
}
