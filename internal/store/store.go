// Package store persists fund catalogs, their index and run metadata, and the
// in-progress and final state of an enrichment batch.
package store

import (
	"context"
	"errors"

	"saarthi/internal/domain"
)

// File names written under the data directory.
const (
	CatalogFile         = "funds-data.json"
	IndexFile           = "funds-index.json"
	MetadataFile        = "metadata.json"
	EnrichedFile        = "funds-data-enriched.json"
	ErrorsFile          = "enrichment-errors.json"
	ParquetFile         = "funds.parquet"
	EnrichedParquetFile = "funds-enriched.parquet"
)

// ErrNoCheckpoint is returned by LoadProgress when there is no interrupted
// enrichment batch to resume.
var ErrNoCheckpoint = errors.New("store: no checkpoint")

// SnapshotWriter persists a freshly parsed snapshot.
type SnapshotWriter interface {
	// WriteSnapshot writes the snapshot together with its parse statistics.
	WriteSnapshot(ctx context.Context, snap *domain.Snapshot, meta domain.RunMetadata) error
}

// ProgressStore holds the input and output of an enrichment batch.
type ProgressStore interface {
	// LoadInput returns the catalog produced by the feed parser.
	LoadInput(ctx context.Context) (*domain.Snapshot, error)

	// LoadProgress returns the enriched snapshot of an interrupted batch, or
	// ErrNoCheckpoint.
	LoadProgress(ctx context.Context) (*domain.Snapshot, error)

	// SaveProgress durably replaces the enriched snapshot.
	SaveProgress(ctx context.Context, snap *domain.Snapshot) error

	// SaveFinal writes the completed snapshot and the error list.
	SaveFinal(ctx context.Context, snap *domain.Snapshot, errs []domain.EnrichmentError) error
}
