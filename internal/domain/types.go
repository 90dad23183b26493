// Package domain defines the fund catalog types shared by the feed parser,
// the return enricher, and the stores.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

func init() {
	// NAVs and returns are published as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// ---------------------------------------------------------------------------
// Category
// ---------------------------------------------------------------------------

// Category is the closed set of labels a fund can be classified into.
type Category string

const (
	CategoryELSS        Category = "Equity-ELSS"
	CategoryFlexiCap    Category = "Equity-FlexiCap"
	CategoryLargeCap    Category = "Equity-LargeCap"
	CategoryMidCap      Category = "Equity-MidCap"
	CategorySmallCap    Category = "Equity-SmallCap"
	CategoryIndex       Category = "Equity-Index"
	CategoryFundOfFunds Category = "FundOfFunds"
	CategoryLiquid      Category = "Debt-Liquid"
	CategoryHybrid      Category = "Hybrid"
	CategoryDebt        Category = "Debt"
	CategoryMoneyMarket Category = "Debt-MoneyMarket"
	CategorySectoral    Category = "Equity-Sectoral"
	CategoryOther       Category = "Other"
)

// ---------------------------------------------------------------------------
// Returns
// ---------------------------------------------------------------------------

// Horizon is a trailing window over which a percentage return is computed.
type Horizon struct {
	Label string
	Days  int
}

// Horizons lists the windows the enricher computes, shortest first.
var Horizons = []Horizon{
	{Label: "1year", Days: 365},
	{Label: "3year", Days: 1095},
	{Label: "5year", Days: 1825},
}

// Returns holds trailing percentage returns keyed by horizon. A horizon
// without enough history is null.
type Returns struct {
	OneYear   decimal.NullDecimal `json:"1year"`
	ThreeYear decimal.NullDecimal `json:"3year"`
	FiveYear  decimal.NullDecimal `json:"5year"`
}

// Get returns the value stored for a horizon label.
func (r Returns) Get(label string) decimal.NullDecimal {
	switch label {
	case "1year":
		return r.OneYear
	case "3year":
		return r.ThreeYear
	case "5year":
		return r.FiveYear
	}
	return decimal.NullDecimal{}
}

// Set stores v under a horizon label. Unknown labels are ignored.
func (r *Returns) Set(label string, v decimal.NullDecimal) {
	switch label {
	case "1year":
		r.OneYear = v
	case "3year":
		r.ThreeYear = v
	case "5year":
		r.FiveYear = v
	}
}

// Empty reports whether no horizon has a value.
func (r Returns) Empty() bool {
	return !r.OneYear.Valid && !r.ThreeYear.Valid && !r.FiveYear.Valid
}

// Benchmark is a placeholder; no benchmark source is integrated.
type Benchmark struct {
	Name    string `json:"name"`
	Returns struct {
		OneYear decimal.NullDecimal `json:"1year"`
	} `json:"returns"`
}

// DefaultBenchmark returns the "N/A" benchmark attached to every record.
func DefaultBenchmark() Benchmark {
	return Benchmark{Name: "N/A"}
}

// ---------------------------------------------------------------------------
// FundRecord
// ---------------------------------------------------------------------------

// FundRecord is one fund in the published catalog.
type FundRecord struct {
	Key         string              `json:"-"`
	Name        string              `json:"name"`
	AMC         string              `json:"amc,omitempty"`
	SchemeCode  string              `json:"scheme_code,omitempty"`
	ISIN        string              `json:"isin,omitempty"`
	NAV         decimal.NullDecimal `json:"nav"`
	NAVDate     string              `json:"nav_date"`
	Category    Category            `json:"category"`
	AUM         string              `json:"aum"`
	Returns     Returns             `json:"returns"`
	Benchmark   Benchmark           `json:"benchmark"`
	Source      string              `json:"source,omitempty"`
	LastUpdated string              `json:"last_updated,omitempty"`
}

// NAVPoint is one entry of a fund's NAV history as served by the
// time-series API. Both fields are kept verbatim and parsed on use.
type NAVPoint struct {
	Date string `json:"date"`
	NAV  string `json:"nav"`
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// Catalog maps normalized fund names to records and remembers the order in
// which keys were first added. The order survives a JSON round trip.
type Catalog struct {
	keys  []string
	funds map[string]*FundRecord
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{funds: make(map[string]*FundRecord)}
}

// Add inserts rec under rec.Key. It returns false and leaves the catalog
// unchanged when the key is already present: the first record wins.
func (c *Catalog) Add(rec *FundRecord) bool {
	if c.funds == nil {
		c.funds = make(map[string]*FundRecord)
	}
	if _, ok := c.funds[rec.Key]; ok {
		return false
	}
	c.funds[rec.Key] = rec
	c.keys = append(c.keys, rec.Key)
	return true
}

// Get returns the record stored under key.
func (c *Catalog) Get(key string) (*FundRecord, bool) {
	rec, ok := c.funds[key]
	return rec, ok
}

// Len returns the number of records.
func (c *Catalog) Len() int { return len(c.keys) }

// At returns the i-th record in insertion order.
func (c *Catalog) At(i int) *FundRecord { return c.funds[c.keys[i]] }

// Keys returns the keys in insertion order.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// SortedKeys returns the keys in lexical order.
func (c *Catalog) SortedKeys() []string {
	out := c.Keys()
	sort.Strings(out)
	return out
}

// MarshalJSON writes the catalog as a JSON object whose members appear in
// insertion order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := encodeJSON(key)
		if err != nil {
			return nil, err
		}
		v, err := encodeJSON(c.funds[key])
		if err != nil {
			return nil, fmt.Errorf("encoding fund %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of records, keeping member order. A
// repeated member keeps its first value.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	c.keys = nil
	c.funds = make(map[string]*FundRecord)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("catalog: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("catalog: expected string key, got %v", tok)
		}
		rec := &FundRecord{}
		if err := dec.Decode(rec); err != nil {
			return fmt.Errorf("decoding fund %q: %w", key, err)
		}
		rec.Key = key
		c.Add(rec)
	}
	_, err = dec.Token()
	return err
}

// encodeJSON marshals v without HTML escaping; fund names routinely
// contain '&'.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

// Provenance describes who produced a snapshot and from where.
type Provenance struct {
	UpdateMethod string `json:"update_method,omitempty"`
	Organization string `json:"organization,omitempty"`
	Product      string `json:"product,omitempty"`
	Source       string `json:"source,omitempty"`
}

// Checkpoint is the resumable state of an enrichment batch. LastIndex is
// the catalog position of the next record to process.
type Checkpoint struct {
	LastIndex  int    `json:"last_index"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Timestamp  string `json:"timestamp"`
}

// EnrichmentStats replaces the checkpoint once a batch has covered the
// whole catalog.
type EnrichmentStats struct {
	TotalFunds     int    `json:"total_funds"`
	Enriched       int    `json:"enriched"`
	Failed         int    `json:"failed"`
	CompletionDate string `json:"completion_date"`
}

// EnrichmentError is one entry of the enrichment error list.
type EnrichmentError struct {
	Fund       string `json:"fund"`
	SchemeCode string `json:"scheme_code"`
	Error      string `json:"error"`
}

// Snapshot is a catalog together with its file-level metadata.
type Snapshot struct {
	Version     string `json:"version"`
	LastUpdated string `json:"last_updated"`
	TotalFunds  int    `json:"total_funds"`
	Provenance
	RunID string `json:"run_id,omitempty"`

	Progress *Checkpoint      `json:"enrichment_progress,omitempty"`
	Complete bool             `json:"enrichment_complete,omitempty"`
	Stats    *EnrichmentStats `json:"enrichment_stats,omitempty"`

	Funds *Catalog `json:"funds"`
}

// RunMetadata carries parse statistics written next to a fresh snapshot.
type RunMetadata struct {
	Lines      int
	Skipped    int
	Duplicates int
	Errors     []string
}
