package mfapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"saarthi/internal/domain"
	"saarthi/internal/gather"
	"saarthi/internal/store"
	"saarthi/internal/util"
)

var _ gather.Gatherer = (*Enricher)(nil)

// ErrInterrupted is returned when the context is cancelled mid-batch. A
// checkpoint has been saved by the time it is returned.
var ErrInterrupted = errors.New("mfapi: enrichment interrupted")

// Result accumulates the outcome of a batch. Successful and Failed include
// the counters carried over from a checkpoint; Errors covers this
// invocation only.
type Result struct {
	Successful int
	Failed     int
	Errors     []domain.EnrichmentError
	Processed  int // records handled by this invocation
	NextIndex  int // catalog position of the next unprocessed record
}

// Enricher attaches trailing returns to every record of a catalog, one
// series fetch per record, checkpointing as it goes.
type Enricher struct {
	fetcher         SeriesFetcher
	store           store.ProgressStore
	limiter         *util.RateLimiter
	checkpointEvery int
	now             func() time.Time
	log             *slog.Logger

	last Result
}

// NewEnricher creates an Enricher. A nil limiter disables spacing and a
// checkpointEvery below 1 is treated as 1.
func NewEnricher(fetcher SeriesFetcher, ps store.ProgressStore, limiter *util.RateLimiter, checkpointEvery int) *Enricher {
	if limiter == nil {
		limiter = util.NewRateLimiter(0)
	}
	if checkpointEvery < 1 {
		checkpointEvery = 1
	}
	return &Enricher{
		fetcher:         fetcher,
		store:           ps,
		limiter:         limiter,
		checkpointEvery: checkpointEvery,
		now:             time.Now,
		log:             slog.Default().With("gatherer", "mfapi-enrich"),
	}
}

// Name returns the gatherer identifier.
func (e *Enricher) Name() string { return "mfapi-enrich" }

// Run loads the parser's catalog and enriches it from the first record.
func (e *Enricher) Run(ctx context.Context) error {
	snap, err := e.store.LoadInput(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	res, err := e.Start(ctx, snap)
	e.last = res
	return err
}

// Result returns the outcome of the last Run.
func (e *Enricher) Result() Result { return e.last }

// Start enriches snap from the first record, discarding any checkpoint or
// completion state it carries.
func (e *Enricher) Start(ctx context.Context, snap *domain.Snapshot) (Result, error) {
	snap.Progress = nil
	snap.Complete = false
	snap.Stats = nil
	return e.ResumeFrom(ctx, snap, 0, Result{})
}

// Continue resumes an interrupted batch from its checkpoint. snap is the
// snapshot returned by the store's LoadProgress, so returns computed before
// the interruption are kept.
func (e *Enricher) Continue(ctx context.Context, snap *domain.Snapshot) (Result, error) {
	if snap.Progress == nil {
		return Result{}, store.ErrNoCheckpoint
	}
	cp := *snap.Progress
	return e.ResumeFrom(ctx, snap, cp.LastIndex, Result{Successful: cp.Successful, Failed: cp.Failed})
}

// ResumeFrom processes snap.Funds in insertion order from index start,
// adding outcomes to res. No single record's failure stops the batch. On
// completion the final snapshot and error list are saved; on cancellation a
// checkpoint at the first unprocessed record is saved and ErrInterrupted is
// returned.
func (e *Enricher) ResumeFrom(ctx context.Context, snap *domain.Snapshot, start int, res Result) (Result, error) {
	cat := snap.Funds
	total := cat.Len()
	if start < 0 || start > total {
		return res, fmt.Errorf("resume index %d out of range [0, %d]", start, total)
	}
	snap.TotalFunds = total
	res.NextIndex = start

	e.log.Info("starting enrichment",
		"total", total,
		"start", start,
		"successful", res.Successful,
		"failed", res.Failed,
		"estimate", e.estimate(total-start),
	)

	for i := start; i < total; i++ {
		if ctx.Err() != nil {
			return res, e.interrupt(ctx, snap, res)
		}
		if err := e.enrichOne(ctx, i, total, cat.At(i), &res); err != nil {
			return res, e.interrupt(ctx, snap, res)
		}
		res.Processed++
		res.NextIndex = i + 1

		if res.NextIndex%e.checkpointEvery == 0 && res.NextIndex < total {
			if err := e.checkpoint(ctx, snap, res); err != nil {
				return res, err
			}
			e.log.Info("progress saved",
				"index", res.NextIndex,
				"successful", res.Successful,
				"failed", res.Failed,
				"remaining", e.estimate(total-res.NextIndex),
			)
		}
	}

	now := e.now()
	snap.LastUpdated = now.Format(time.RFC3339)
	snap.Progress = nil
	snap.Complete = true
	snap.Stats = &domain.EnrichmentStats{
		TotalFunds:     total,
		Enriched:       res.Successful,
		Failed:         res.Failed,
		CompletionDate: now.Format(time.RFC3339),
	}
	if err := e.store.SaveFinal(ctx, snap, res.Errors); err != nil {
		return res, fmt.Errorf("saving final catalog: %w", err)
	}
	e.log.Info("complete",
		"total", total,
		"successful", res.Successful,
		"failed", res.Failed,
		"errors", len(res.Errors),
	)
	return res, nil
}

// enrichOne handles a single record. It returns an error only when the
// context was cancelled before the record could be processed.
func (e *Enricher) enrichOne(ctx context.Context, i, total int, rec *domain.FundRecord, res *Result) error {
	log := e.log.With(
		"fund", rec.Name,
		"n", fmt.Sprintf("%d/%d", i+1, total),
		"pct", fmt.Sprintf("%.1f", float64(i+1)/float64(total)*100),
	)

	if rec.SchemeCode == "" {
		res.Failed++
		log.Warn("no scheme code, skipping")
		return nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}
	series, err := e.fetcher.FetchSeries(ctx, rec.SchemeCode)
	e.limiter.Done()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res.Failed++
		res.Errors = append(res.Errors, domain.EnrichmentError{
			Fund:       rec.Name,
			SchemeCode: rec.SchemeCode,
			Error:      err.Error(),
		})
		log.Warn("fetch failed", "schemeCode", rec.SchemeCode, "error", err)
		return nil
	}

	returns, ok := CalculateReturns(series, e.now())
	if !ok {
		res.Failed++
		log.Warn("insufficient history", "points", len(series))
		return nil
	}
	rec.Returns = returns
	res.Successful++
	log.Info("enriched", "returns", formatReturns(returns))
	return nil
}

// checkpoint durably records res.NextIndex and the counters.
func (e *Enricher) checkpoint(ctx context.Context, snap *domain.Snapshot, res Result) error {
	now := e.now().Format(time.RFC3339)
	snap.LastUpdated = now
	snap.Complete = false
	snap.Stats = nil
	snap.Progress = &domain.Checkpoint{
		LastIndex:  res.NextIndex,
		Successful: res.Successful,
		Failed:     res.Failed,
		Timestamp:  now,
	}
	if err := e.store.SaveProgress(ctx, snap); err != nil {
		return fmt.Errorf("saving checkpoint at %d: %w", res.NextIndex, err)
	}
	return nil
}

// interrupt saves a checkpoint after cancellation and reports ErrInterrupted.
func (e *Enricher) interrupt(ctx context.Context, snap *domain.Snapshot, res Result) error {
	if err := e.checkpoint(context.WithoutCancel(ctx), snap, res); err != nil {
		return err
	}
	e.log.Warn("interrupted, checkpoint saved",
		"index", res.NextIndex,
		"successful", res.Successful,
		"failed", res.Failed,
	)
	return fmt.Errorf("%w at record %d of %d", ErrInterrupted, res.NextIndex, snap.Funds.Len())
}

// estimate is the minimum time the rate limit imposes on n more fetches.
func (e *Enricher) estimate(n int) time.Duration {
	return time.Duration(n) * e.limiter.Interval()
}

func formatReturns(r domain.Returns) string {
	var parts []string
	for _, h := range domain.Horizons {
		v := r.Get(h.Label)
		if !v.Valid {
			continue
		}
		sign := ""
		if v.Decimal.IsPositive() {
			sign = "+"
		}
		parts = append(parts, h.Label+":"+sign+v.Decimal.StringFixed(2)+"%")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
