package amfi

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"saarthi/internal/domain"
	"saarthi/internal/gather"
	"saarthi/internal/store"
)

var _ gather.Gatherer = (*FeedGatherer)(nil)

// FeedGatherer downloads the NAV feed, parses it and hands the resulting
// snapshot to every configured writer. Nothing is written when the download
// fails.
type FeedGatherer struct {
	fetcher FeedFetcher
	writers []store.SnapshotWriter
	prov    domain.Provenance
	now     func() time.Time
	log     *slog.Logger

	last *ParseResult
}

// NewFeedGatherer creates a FeedGatherer.
func NewFeedGatherer(fetcher FeedFetcher, prov domain.Provenance, writers ...store.SnapshotWriter) *FeedGatherer {
	return &FeedGatherer{
		fetcher: fetcher,
		writers: writers,
		prov:    prov,
		now:     time.Now,
		log:     slog.Default().With("gatherer", "amfi-feed"),
	}
}

// Name returns the gatherer identifier.
func (g *FeedGatherer) Name() string { return "amfi-feed" }

// Run fetches, parses and writes one snapshot.
func (g *FeedGatherer) Run(ctx context.Context) error {
	start := time.Now()
	now := g.now()

	g.log.Info("fetching feed")
	body, err := g.fetcher.Fetch(ctx)
	if err != nil {
		return err
	}
	g.log.Info("feed downloaded", "bytes", len(body))

	res, err := NewParser(now, g.log).Parse(bytes.NewReader(body))
	if err != nil {
		return err
	}
	g.log.Info("feed parsed",
		"funds", res.Catalog.Len(),
		"lines", res.Lines,
		"headers", res.Headers,
		"skipped", res.Skipped,
		"duplicates", res.Duplicates,
	)

	snap := &domain.Snapshot{
		Version:     now.Format("2006.01"),
		LastUpdated: now.Format(time.RFC3339),
		TotalFunds:  res.Catalog.Len(),
		Provenance:  g.prov,
		RunID:       uuid.NewString(),
		Funds:       res.Catalog,
	}
	meta := domain.RunMetadata{
		Lines:      res.Lines,
		Skipped:    res.Skipped,
		Duplicates: res.Duplicates,
		Errors:     res.Rejects,
	}
	for _, w := range g.writers {
		if err := w.WriteSnapshot(ctx, snap, meta); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}

	g.last = res
	g.log.Info("complete",
		"runID", snap.RunID,
		"funds", snap.TotalFunds,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// Result returns the parse result of the last successful Run, or nil.
func (g *FeedGatherer) Result() *ParseResult { return g.last }
