// Package saarthi is a small client for the published fund data files.
package saarthi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"saarthi/internal/store"
)

// Client reads the JSON files written by amfi-fetch and mfapi-enrich from
// wherever they are served, e.g. a static site or a public bucket.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for files under baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Index lists every fund key in sorted order.
type Index struct {
	Version    string   `json:"version"`
	TotalFunds int      `json:"total_funds"`
	Funds      []string `json:"funds"`
}

// Has reports whether name is a key of the catalog.
func (idx *Index) Has(name string) bool {
	i := sort.SearchStrings(idx.Funds, name)
	return i < len(idx.Funds) && idx.Funds[i] == name
}

// Fund is one published catalog entry.
type Fund struct {
	Name       string                         `json:"name"`
	AMC        string                         `json:"amc"`
	SchemeCode string                         `json:"scheme_code"`
	ISIN       string                         `json:"isin"`
	NAV        decimal.NullDecimal            `json:"nav"`
	NAVDate    string                         `json:"nav_date"`
	Category   string                         `json:"category"`
	AUM        string                         `json:"aum"`
	Returns    map[string]decimal.NullDecimal `json:"returns"`
}

// Catalog is a published catalog file.
type Catalog struct {
	Version     string          `json:"version"`
	LastUpdated string          `json:"last_updated"`
	TotalFunds  int             `json:"total_funds"`
	Complete    bool            `json:"enrichment_complete"`
	Funds       map[string]Fund `json:"funds"`
}

// Index fetches the fund index.
func (c *Client) Index(ctx context.Context) (*Index, error) {
	var idx Index
	if err := c.get(ctx, store.IndexFile, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

// Funds fetches the catalog without returns.
func (c *Client) Funds(ctx context.Context) (*Catalog, error) {
	return c.catalog(ctx, store.CatalogFile)
}

// EnrichedFunds fetches the catalog with returns.
func (c *Client) EnrichedFunds(ctx context.Context) (*Catalog, error) {
	return c.catalog(ctx, store.EnrichedFile)
}

func (c *Client) catalog(ctx context.Context, name string) (*Catalog, error) {
	var cat Catalog
	if err := c.get(ctx, name, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Client) get(ctx context.Context, name string, v any) error {
	url := c.baseURL + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}
