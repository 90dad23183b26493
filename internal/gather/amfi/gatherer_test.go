package amfi

import (
	"context"
	"errors"
	"testing"
	"time"

	"saarthi/internal/domain"
)

type stubFetcher struct {
	body []byte
	err  error
}

func (f stubFetcher) Fetch(context.Context) ([]byte, error) { return f.body, f.err }

type recordingWriter struct {
	snaps []*domain.Snapshot
	metas []domain.RunMetadata
}

func (w *recordingWriter) WriteSnapshot(_ context.Context, snap *domain.Snapshot, meta domain.RunMetadata) error {
	w.snaps = append(w.snaps, snap)
	w.metas = append(w.metas, meta)
	return nil
}

func TestFeedGathererName(t *testing.T) {
	g := NewFeedGatherer(stubFetcher{}, domain.Provenance{})
	if g.Name() != "amfi-feed" {
		t.Errorf("Name() = %q, want %q", g.Name(), "amfi-feed")
	}
}

func TestFeedGathererWritesSnapshot(t *testing.T) {
	feed := "Example AMC\n" +
		"100001;-;-;Example Flexi Cap Fund - Direct Plan - Growth;45.67;17-Oct-2026\n" +
		"100002;-;-;Example Flexi Cap Fund - Regular Plan - Growth;44.10;17-Oct-2026\n" +
		"bad;line\n" +
		"100003;-;-\n"
	w1, w2 := &recordingWriter{}, &recordingWriter{}
	prov := domain.Provenance{Organization: "Example Org", Product: "Example", UpdateMethod: "automated_script", Source: "AMFI India"}

	g := NewFeedGatherer(stubFetcher{body: []byte(feed)}, prov, w1, w2)
	g.now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }

	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(w1.snaps) != 1 || len(w2.snaps) != 1 {
		t.Fatalf("writers called %d and %d times, want 1 each", len(w1.snaps), len(w2.snaps))
	}

	snap := w1.snaps[0]
	if snap.Version != "2026.10" || snap.LastUpdated != "2026-10-19T08:00:00Z" {
		t.Errorf("Version/LastUpdated = %q/%q", snap.Version, snap.LastUpdated)
	}
	if snap.TotalFunds != 1 || snap.Funds.Len() != 1 {
		t.Errorf("TotalFunds = %d, Len = %d, want 1", snap.TotalFunds, snap.Funds.Len())
	}
	if snap.Organization != "Example Org" || snap.RunID == "" {
		t.Errorf("provenance/run id not set: %+v", snap)
	}
	if snap.Progress != nil || snap.Complete {
		t.Error("fresh snapshot should carry no enrichment state")
	}

	meta := w1.metas[0]
	if meta.Skipped != 1 || meta.Duplicates != 1 || len(meta.Errors) != 1 {
		t.Errorf("meta = %+v, want 1 skipped, 1 duplicate, 1 error", meta)
	}
	if g.Result() == nil || g.Result().Headers != 2 {
		t.Errorf("Result() = %+v", g.Result())
	}
}

func TestFeedGathererWritesNothingOnFetchFailure(t *testing.T) {
	w := &recordingWriter{}
	g := NewFeedGatherer(stubFetcher{err: ErrFeedUnavailable}, domain.Provenance{}, w)

	err := g.Run(context.Background())
	if !errors.Is(err, ErrFeedUnavailable) {
		t.Fatalf("err = %v, want ErrFeedUnavailable", err)
	}
	if len(w.snaps) != 0 {
		t.Errorf("writer called %d times, want 0", len(w.snaps))
	}
	if g.Result() != nil {
		t.Error("Result() should be nil after a failed run")
	}
}
