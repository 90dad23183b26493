package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"saarthi/internal/domain"
)

// Compile-time interface checks.
var _ SnapshotWriter = (*JSONStore)(nil)
var _ ProgressStore = (*JSONStore)(nil)

// JSONStore keeps every artifact as a JSON file directly under DataDir. All
// writes go to a temporary file that is renamed into place, so a reader never
// sees a partially written file.
type JSONStore struct {
	DataDir string
}

// NewJSONStore creates a JSONStore rooted at dataDir.
func NewJSONStore(dataDir string) *JSONStore {
	return &JSONStore{DataDir: dataDir}
}

// Index is the on-disk shape of IndexFile.
type Index struct {
	Version    string   `json:"version"`
	TotalFunds int      `json:"total_funds"`
	Funds      []string `json:"funds"`
}

// Metadata is the on-disk shape of MetadataFile.
type Metadata struct {
	Version      string   `json:"version"`
	LastUpdated  string   `json:"last_updated"`
	TotalFunds   int      `json:"total_funds"`
	Lines        int      `json:"lines"`
	Skipped      int      `json:"skipped"`
	Duplicates   int      `json:"duplicates"`
	Errors       []string `json:"errors"`
	Source       string   `json:"source"`
	Organization string   `json:"organization"`
	Product      string   `json:"product"`
	RunID        string   `json:"run_id,omitempty"`
}

// Path returns the location of a named file under DataDir.
func (s *JSONStore) Path(name string) string {
	return filepath.Join(s.DataDir, name)
}

// SnapshotFiles lists the files WriteSnapshot produces.
func (s *JSONStore) SnapshotFiles() []string {
	return []string{s.Path(CatalogFile), s.Path(IndexFile), s.Path(MetadataFile)}
}

// EnrichmentFiles lists the files SaveFinal produces.
func (s *JSONStore) EnrichmentFiles() []string {
	return []string{s.Path(EnrichedFile), s.Path(ErrorsFile)}
}

// ---------------------------------------------------------------------------
// SnapshotWriter implementation
// ---------------------------------------------------------------------------

// WriteSnapshot writes the catalog, the sorted key index and the run
// metadata.
func (s *JSONStore) WriteSnapshot(_ context.Context, snap *domain.Snapshot, meta domain.RunMetadata) error {
	idx := Index{
		Version:    snap.Version,
		TotalFunds: snap.TotalFunds,
		Funds:      snap.Funds.SortedKeys(),
	}
	if err := writeJSONFile(s.Path(IndexFile), idx); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}

	errs := meta.Errors
	if errs == nil {
		errs = []string{}
	}
	md := Metadata{
		Version:      snap.Version,
		LastUpdated:  snap.LastUpdated,
		TotalFunds:   snap.TotalFunds,
		Lines:        meta.Lines,
		Skipped:      meta.Skipped,
		Duplicates:   meta.Duplicates,
		Errors:       errs,
		Source:       snap.Source,
		Organization: snap.Organization,
		Product:      snap.Product,
		RunID:        snap.RunID,
	}
	if err := writeJSONFile(s.Path(MetadataFile), md); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	// The catalog goes last: a failed run never leaves a new catalog next to
	// a stale index.
	if err := writeJSONFile(s.Path(CatalogFile), snap); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// ProgressStore implementation
// ---------------------------------------------------------------------------

// LoadInput reads CatalogFile.
func (s *JSONStore) LoadInput(_ context.Context) (*domain.Snapshot, error) {
	return readSnapshot(s.Path(CatalogFile))
}

// LoadProgress reads EnrichedFile and returns it only when it still carries
// a checkpoint.
func (s *JSONStore) LoadProgress(_ context.Context) (*domain.Snapshot, error) {
	snap, err := readSnapshot(s.Path(EnrichedFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, err
	}
	if snap.Progress == nil {
		return nil, ErrNoCheckpoint
	}
	return snap, nil
}

// SaveProgress replaces EnrichedFile.
func (s *JSONStore) SaveProgress(_ context.Context, snap *domain.Snapshot) error {
	if err := writeJSONFile(s.Path(EnrichedFile), snap); err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}

// SaveFinal replaces EnrichedFile and ErrorsFile.
func (s *JSONStore) SaveFinal(_ context.Context, snap *domain.Snapshot, errs []domain.EnrichmentError) error {
	if err := writeJSONFile(s.Path(EnrichedFile), snap); err != nil {
		return fmt.Errorf("saving enriched catalog: %w", err)
	}
	if errs == nil {
		errs = []domain.EnrichmentError{}
	}
	if err := writeJSONFile(s.Path(ErrorsFile), errs); err != nil {
		return fmt.Errorf("saving error list: %w", err)
	}
	return nil
}

// LoadErrors reads ErrorsFile.
func (s *JSONStore) LoadErrors() ([]domain.EnrichmentError, error) {
	data, err := os.ReadFile(s.Path(ErrorsFile))
	if err != nil {
		return nil, err
	}
	var errs []domain.EnrichmentError
	if err := json.Unmarshal(data, &errs); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ErrorsFile, err)
	}
	return errs, nil
}

// ---------------------------------------------------------------------------
// File helpers
// ---------------------------------------------------------------------------

func readSnapshot(path string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if snap.Funds == nil {
		snap.Funds = domain.NewCatalog()
	}
	return &snap, nil
}

// writeJSONFile writes v as indented JSON without HTML escaping, atomically.
func writeJSONFile(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	return os.Chmod(path, 0o644)
}
