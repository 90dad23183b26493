package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv removes every override Load looks at for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DATA_DIR", "AMFI_FEED_URL", "MFAPI_BASE_URL", "LOG_LEVEL", "LOG_FILE", "S3_BUCKET", "S3_PREFIX", "AWS_REGION"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "saarthi.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/saarthi/data"
  parquet_export: true
feed:
  url: "http://feed.test/NAVAll.txt"
  timeout: 45s
enrich:
  base_url: "http://series.test/mf"
  timeout: 5s
  request_interval: 500ms
  checkpoint_every: 25
logging:
  level: "debug"
  format: "json"
  file: "/tmp/saarthi/enrich.log"
provenance:
  organization: "Example Org"
  product: "Example"
publish:
  s3_bucket: "funds-bucket"
  s3_prefix: "data"
  region: "ap-south-1"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Storage --
	if cfg.Storage.DataDir != "/tmp/saarthi/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/saarthi/data")
	}
	if !cfg.Storage.ParquetExport {
		t.Error("Storage.ParquetExport = false, want true")
	}

	// -- Feed --
	if cfg.Feed.URL != "http://feed.test/NAVAll.txt" {
		t.Errorf("Feed.URL = %q", cfg.Feed.URL)
	}
	if cfg.Feed.Timeout != 45*time.Second {
		t.Errorf("Feed.Timeout = %v, want 45s", cfg.Feed.Timeout)
	}

	// -- Enrich --
	if cfg.Enrich.RequestInterval != 500*time.Millisecond {
		t.Errorf("Enrich.RequestInterval = %v, want 500ms", cfg.Enrich.RequestInterval)
	}
	if cfg.Enrich.CheckpointEvery != 25 {
		t.Errorf("Enrich.CheckpointEvery = %d, want 25", cfg.Enrich.CheckpointEvery)
	}

	// -- Logging --
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}

	// -- Provenance: partially set, rest from defaults --
	if cfg.Provenance.Organization != "Example Org" {
		t.Errorf("Provenance.Organization = %q", cfg.Provenance.Organization)
	}
	if cfg.Provenance.Source != "AMFI India" {
		t.Errorf("Provenance.Source = %q, want default %q", cfg.Provenance.Source, "AMFI India")
	}

	// -- Publish --
	if !cfg.Publish.Enabled() || cfg.Publish.Region != "ap-south-1" {
		t.Errorf("Publish = %+v", cfg.Publish)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Enrich.RequestInterval != 2*time.Second {
		t.Errorf("Enrich.RequestInterval = %v, want 2s", cfg.Enrich.RequestInterval)
	}
	if cfg.Enrich.CheckpointEvery != 50 {
		t.Errorf("Enrich.CheckpointEvery = %d, want 50", cfg.Enrich.CheckpointEvery)
	}
	if cfg.Feed.Timeout != 30*time.Second || cfg.Enrich.Timeout != 15*time.Second {
		t.Errorf("timeouts = %v/%v, want 30s/15s", cfg.Feed.Timeout, cfg.Enrich.Timeout)
	}
	if cfg.Publish.Enabled() {
		t.Error("publishing should be disabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  data_dir: "/original/data"
logging:
  level: "info"
`)

	t.Setenv("DATA_DIR", "/env/data")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("S3_BUCKET", "env-bucket")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q (env override)", cfg.Logging.Level, "warn")
	}
	if cfg.Publish.S3Bucket != "env-bucket" {
		t.Errorf("Publish.S3Bucket = %q, want %q (env override)", cfg.Publish.S3Bucket, "env-bucket")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		yaml string
	}{
		{name: "zero checkpoint cadence", yaml: "enrich:\n  checkpoint_every: 0\n"},
		{name: "negative interval", yaml: "enrich:\n  request_interval: -1s\n"},
		{name: "empty feed url", yaml: "feed:\n  url: \"\"\n"},
		{name: "malformed yaml", yaml: "feed: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.yaml)); err == nil {
				t.Error("Load() should have failed")
			}
		})
	}
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv("SAARTHI_CONFIG", "")
	if got := PathFromEnv(); got != DefaultPath {
		t.Errorf("PathFromEnv() = %q, want %q", got, DefaultPath)
	}
	t.Setenv("SAARTHI_CONFIG", "/etc/saarthi.yaml")
	if got := PathFromEnv(); got != "/etc/saarthi.yaml" {
		t.Errorf("PathFromEnv() = %q, want /etc/saarthi.yaml", got)
	}
}
