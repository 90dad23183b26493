package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"saarthi/internal/domain"
)

// Compile-time interface check.
var _ SnapshotWriter = (*ParquetExporter)(nil)

// ParquetExporter writes a flat columnar copy of a catalog for analytics
// tools. It is an export only; nothing reads it back into the pipeline.
type ParquetExporter struct {
	DataDir string
}

// NewParquetExporter creates a ParquetExporter rooted at dataDir.
func NewParquetExporter(dataDir string) *ParquetExporter {
	return &ParquetExporter{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record type (on-disk schema)
// ---------------------------------------------------------------------------

// FundRow is the Parquet schema for one catalog entry. Absent NAVs and
// returns are stored as nulls.
type FundRow struct {
	Key         string   `parquet:"key"`
	Name        string   `parquet:"name"`
	AMC         string   `parquet:"amc"`
	SchemeCode  string   `parquet:"scheme_code"`
	ISIN        string   `parquet:"isin"`
	NAV         *float64 `parquet:"nav"`
	NAVDate     string   `parquet:"nav_date"`
	Category    string   `parquet:"category"`
	AUM         string   `parquet:"aum"`
	Return1Y    *float64 `parquet:"return_1y"`
	Return3Y    *float64 `parquet:"return_3y"`
	Return5Y    *float64 `parquet:"return_5y"`
	Source      string   `parquet:"source"`
	LastUpdated string   `parquet:"last_updated"`
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

// WriteSnapshot exports the snapshot's catalog to ParquetFile.
func (e *ParquetExporter) WriteSnapshot(ctx context.Context, snap *domain.Snapshot, _ domain.RunMetadata) error {
	return e.Export(ctx, ParquetFile, snap.Funds)
}

// Export writes the catalog, in insertion order, to <DataDir>/<name>.
func (e *ParquetExporter) Export(_ context.Context, name string, cat *domain.Catalog) error {
	rows := make([]FundRow, 0, cat.Len())
	for i := 0; i < cat.Len(); i++ {
		rows = append(rows, toFundRow(cat.At(i)))
	}
	if err := writeParquetFile(e.Path(name), rows); err != nil {
		return fmt.Errorf("exporting %s: %w", name, err)
	}
	return nil
}

// Path returns the location of a named export under DataDir.
func (e *ParquetExporter) Path(name string) string {
	return filepath.Join(e.DataDir, name)
}

// ReadRows reads back an export written by Export.
func (e *ParquetExporter) ReadRows(name string) ([]FundRow, error) {
	return readParquetFile[FundRow](e.Path(name))
}

func toFundRow(rec *domain.FundRecord) FundRow {
	return FundRow{
		Key:         rec.Key,
		Name:        rec.Name,
		AMC:         rec.AMC,
		SchemeCode:  rec.SchemeCode,
		ISIN:        rec.ISIN,
		NAV:         floatOrNil(rec.NAV),
		NAVDate:     rec.NAVDate,
		Category:    string(rec.Category),
		AUM:         rec.AUM,
		Return1Y:    floatOrNil(rec.Returns.OneYear),
		Return3Y:    floatOrNil(rec.Returns.ThreeYear),
		Return5Y:    floatOrNil(rec.Returns.FiveYear),
		Source:      rec.Source,
		LastUpdated: rec.LastUpdated,
	}
}

func floatOrNil(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
