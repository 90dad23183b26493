// Enriches the generated fund catalog with 1, 3 and 5 year trailing
// returns computed from the mfapi.in NAV history of each fund. The batch
// is slow by design (one request per fund, spaced by
// enrich.request_interval) and can be stopped with Ctrl+C and resumed
// later from its last checkpoint.
//
// Exit codes: 0 done, 1 failure, 2 declined at the prompt, 130 interrupted.
//
// Usage:
//
//	go run ./cmd/mfapi-enrich [-config config/saarthi.yaml] [-yes] [-resume ask|yes|no]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"saarthi/internal/config"
	"saarthi/internal/domain"
	"saarthi/internal/gather/mfapi"
	"saarthi/internal/publish"
	"saarthi/internal/store"
	"saarthi/internal/util"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitDeclined    = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := flag.String("config", config.PathFromEnv(), "path to the YAML config file")
	assumeYes := flag.Bool("yes", false, "start without asking for confirmation")
	resumeMode := flag.String("resume", "ask", "resume an interrupted batch: ask, yes or no (ask means yes with -yes)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return exitFailure
	}

	out, closeLog := util.LogOutput(cfg.Logging.File)
	defer closeLog()
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, out)
	util.SetDefault(logger)

	js := store.NewJSONStore(cfg.Storage.DataDir)
	input, err := js.LoadInput(context.Background())
	if err != nil {
		slog.Error("loading catalog, run amfi-fetch first", "file", js.Path(store.CatalogFile), "error", err)
		return exitFailure
	}

	stdin := bufio.NewReader(os.Stdin)
	total := input.Funds.Len()
	fmt.Printf("Funds to enrich: %d\n", total)
	fmt.Printf("Estimated time: ~%s (%s between requests)\n",
		(time.Duration(total) * cfg.Enrich.RequestInterval).Round(time.Minute), cfg.Enrich.RequestInterval)
	fmt.Printf("Progress is saved every %d funds; stop with Ctrl+C and run again to resume.\n", cfg.Enrich.CheckpointEvery)

	if !*assumeYes && !confirm(stdin, os.Stdout, "Ready to start? (yes/no): ") {
		fmt.Println("Exiting. Run again when ready.")
		return exitDeclined
	}

	snap, resume := input, false
	saved, err := js.LoadProgress(context.Background())
	switch {
	case err == nil:
		cp := saved.Progress
		fmt.Printf("Found previous progress at index %d (successful %d, failed %d)\n", cp.LastIndex, cp.Successful, cp.Failed)
		if shouldResume(*resumeMode, *assumeYes, stdin) {
			snap, resume = saved, true
		}
	case errors.Is(err, store.ErrNoCheckpoint):
	default:
		slog.Warn("ignoring unreadable progress file", "file", js.Path(store.EnrichedFile), "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := mfapi.NewClient(cfg.Enrich.BaseURL, cfg.Enrich.Timeout)
	limiter := util.NewRateLimiter(cfg.Enrich.RequestInterval)
	enricher := mfapi.NewEnricher(client, js, limiter, cfg.Enrich.CheckpointEvery)

	began := time.Now()
	var res mfapi.Result
	if resume {
		res, err = enricher.Continue(ctx, snap)
	} else {
		res, err = enricher.Start(ctx, snap)
	}
	if errors.Is(err, mfapi.ErrInterrupted) {
		slog.Warn("interrupted, progress saved; run again to resume",
			"nextIndex", res.NextIndex, "successful", res.Successful, "failed", res.Failed)
		return exitInterrupted
	}
	if err != nil {
		slog.Error("enrichment failed, progress kept up to the last checkpoint", "error", err)
		return exitFailure
	}

	printSummary(os.Stdout, snap, res, time.Since(began))

	files := js.EnrichmentFiles()
	if cfg.Storage.ParquetExport {
		pq := store.NewParquetExporter(cfg.Storage.DataDir)
		if err := pq.Export(ctx, store.EnrichedParquetFile, snap.Funds); err != nil {
			slog.Error("parquet export", "error", err)
			return exitFailure
		}
		files = append(files, pq.Path(store.EnrichedParquetFile))
	}
	reportFiles(files)

	if cfg.Publish.Enabled() {
		pub, err := publish.NewS3Publisher(ctx, cfg.Publish)
		if err != nil {
			slog.Error("configuring s3 publisher", "error", err)
			return exitFailure
		}
		if err := pub.Publish(ctx, files...); err != nil {
			slog.Error("publishing", "error", err)
			return exitFailure
		}
	}
	return exitOK
}

// confirm prints prompt and reports whether the answer is "yes". End of
// input counts as no.
func confirm(in *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes")
}

func shouldResume(mode string, assumeYes bool, in *bufio.Reader) bool {
	switch strings.ToLower(mode) {
	case "yes":
		return true
	case "no":
		return false
	}
	if assumeYes {
		return true
	}
	return confirm(in, os.Stdout, "Resume from this point? (yes/no): ")
}

func printSummary(w io.Writer, snap *domain.Snapshot, res mfapi.Result, elapsed time.Duration) {
	total := snap.Funds.Len()
	rate := 0.0
	if total > 0 {
		rate = float64(res.Successful) / float64(total) * 100
	}
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "Enrichment complete")
	fmt.Fprintf(w, "Total funds:        %s\n", humanize.Comma(int64(total)))
	fmt.Fprintf(w, "Enriched:           %s\n", humanize.Comma(int64(res.Successful)))
	fmt.Fprintf(w, "Failed:             %s\n", humanize.Comma(int64(res.Failed)))
	fmt.Fprintf(w, "Success rate:       %.1f%%\n", rate)
	fmt.Fprintf(w, "Fetch errors:       %d\n", len(res.Errors))
	fmt.Fprintf(w, "Elapsed:            %s\n", elapsed.Round(time.Second))
	fmt.Fprintln(w, strings.Repeat("=", 60))
}

func reportFiles(files []string) {
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			slog.Warn("output file missing", "file", f, "error", err)
			continue
		}
		slog.Info("wrote", "file", f, "size", humanize.Bytes(uint64(info.Size())))
	}
}
