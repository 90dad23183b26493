package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the fund-data pipeline.
type Config struct {
	Storage    Storage    `yaml:"storage"`
	Feed       Feed       `yaml:"feed"`
	Enrich     Enrich     `yaml:"enrich"`
	Logging    Logging    `yaml:"logging"`
	Provenance Provenance `yaml:"provenance"`
	Publish    Publish    `yaml:"publish"`
}

// Storage holds paths for the generated files.
type Storage struct {
	DataDir       string `yaml:"data_dir"`
	ParquetExport bool   `yaml:"parquet_export"`
}

// Feed configures the NAV text feed download.
type Feed struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Enrich configures the historical NAV API and the enrichment batch.
type Enrich struct {
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	RequestInterval time.Duration `yaml:"request_interval"`
	CheckpointEvery int           `yaml:"checkpoint_every"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Provenance is copied into every generated catalog.
type Provenance struct {
	Organization string `yaml:"organization"`
	Product      string `yaml:"product"`
	UpdateMethod string `yaml:"update_method"`
	Source       string `yaml:"source"`
}

// Publish configures the optional upload of generated files to S3.
type Publish struct {
	S3Bucket  string `yaml:"s3_bucket"`
	S3Prefix  string `yaml:"s3_prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`

	// Static credentials. When empty the AWS default chain is used.
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Enabled reports whether an upload target is configured.
func (p Publish) Enabled() bool { return p.S3Bucket != "" }

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Storage: Storage{
			DataDir: "saarthi/data",
		},
		Feed: Feed{
			URL:     "https://portal.amfiindia.com/spages/NAVAll.txt",
			Timeout: 30 * time.Second,
		},
		Enrich: Enrich{
			BaseURL:         "https://api.mfapi.in/mf",
			Timeout:         15 * time.Second,
			RequestInterval: 2 * time.Second,
			CheckpointEvery: 50,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Provenance: Provenance{
			Organization: "BluSummit Ventures",
			Product:      "Saarthi",
			UpdateMethod: "automated_script",
			Source:       "AMFI India",
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// DefaultPath is the config file used when neither a flag nor
// SAARTHI_CONFIG names one.
const DefaultPath = "config/saarthi.yaml"

// PathFromEnv returns $SAARTHI_CONFIG, or DefaultPath when it is unset.
func PathFromEnv() string {
	if p := os.Getenv("SAARTHI_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the YAML configuration file at the given path on top of the
// defaults, and then applies environment variable overrides. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir must be set")
	}
	if c.Feed.URL == "" {
		return errors.New("feed.url must be set")
	}
	if c.Enrich.BaseURL == "" {
		return errors.New("enrich.base_url must be set")
	}
	if c.Feed.Timeout <= 0 || c.Enrich.Timeout <= 0 {
		return errors.New("request timeouts must be positive")
	}
	if c.Enrich.RequestInterval < 0 {
		return fmt.Errorf("enrich.request_interval must not be negative, got %v", c.Enrich.RequestInterval)
	}
	if c.Enrich.CheckpointEvery <= 0 {
		return fmt.Errorf("enrich.checkpoint_every must be positive, got %d", c.Enrich.CheckpointEvery)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("AMFI_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}

	if v := os.Getenv("MFAPI_BASE_URL"); v != "" {
		cfg.Enrich.BaseURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}

	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Publish.S3Bucket = v
	}
	if v := os.Getenv("S3_PREFIX"); v != "" {
		cfg.Publish.S3Prefix = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Publish.Region = v
	}
}
