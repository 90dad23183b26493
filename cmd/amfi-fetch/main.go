// Fetches the AMFI NAV feed, parses it into the fund catalog and writes
// funds-data.json, funds-index.json and metadata.json under the data
// directory, plus funds.parquet when storage.parquet_export is set. When
// publish.s3_bucket is set the files are uploaded afterwards.
//
// Usage:
//
//	go run ./cmd/amfi-fetch [-config config/saarthi.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"saarthi/internal/config"
	"saarthi/internal/domain"
	"saarthi/internal/gather/amfi"
	"saarthi/internal/publish"
	"saarthi/internal/store"
	"saarthi/internal/util"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := flag.String("config", config.PathFromEnv(), "path to the YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}

	out, closeLog := util.LogOutput(cfg.Logging.File)
	defer closeLog()
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, out)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	js := store.NewJSONStore(cfg.Storage.DataDir)
	writers := []store.SnapshotWriter{js}
	files := js.SnapshotFiles()
	if cfg.Storage.ParquetExport {
		pq := store.NewParquetExporter(cfg.Storage.DataDir)
		writers = append(writers, pq)
		files = append(files, pq.Path(store.ParquetFile))
	}

	prov := domain.Provenance{
		UpdateMethod: cfg.Provenance.UpdateMethod,
		Organization: cfg.Provenance.Organization,
		Product:      cfg.Provenance.Product,
		Source:       cfg.Provenance.Source,
	}
	client := amfi.NewClient(cfg.Feed.URL, cfg.Feed.Timeout)
	gatherer := amfi.NewFeedGatherer(client, prov, writers...)

	start := time.Now()
	slog.Info("starting amfi-fetch", "feed", cfg.Feed.URL, "dataDir", cfg.Storage.DataDir)
	if err := gatherer.Run(ctx); err != nil {
		if errors.Is(err, amfi.ErrFeedUnavailable) {
			slog.Error("feed download failed, nothing written", "error", err)
		} else {
			slog.Error("generation failed", "error", err)
		}
		return 1
	}

	res := gatherer.Result()
	slog.Info("catalog generated",
		"funds", res.Catalog.Len(),
		"skipped", res.Skipped,
		"duplicates", res.Duplicates,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	reportFiles(files)

	if cfg.Publish.Enabled() {
		pub, err := publish.NewS3Publisher(ctx, cfg.Publish)
		if err != nil {
			slog.Error("configuring s3 publisher", "error", err)
			return 1
		}
		if err := pub.Publish(ctx, files...); err != nil {
			slog.Error("publishing", "error", err)
			return 1
		}
	}
	return 0
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
