package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Render.Backend != "native" {
		t.Errorf("Render.Backend = %q, want native", cfg.Render.Backend)
	}
	if cfg.Document.CardsPerPage != 6 {
		t.Errorf("Document.CardsPerPage = %d, want 6", cfg.Document.CardsPerPage)
	}
	if cfg.Storage.Records.Driver != "memory" || cfg.Storage.Blobs.Driver != "memory" {
		t.Errorf("Storage = %+v, want memory drivers", cfg.Storage)
	}
	if cfg.Storage.Lock.Driver != "local" {
		t.Errorf("Storage.Lock.Driver = %q, want local", cfg.Storage.Lock.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     string
		maxLength int
		wantErr   bool
	}{
		{"empty value is valid", "", 10, false},
		{"value at limit is valid", "1234567890", 10, false},
		{"value over limit returns error", "12345678901", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateFieldLength("test.field", tt.value, tt.maxLength)
			if tt.wantErr {
				if !errors.Is(err, ErrFieldTooLong) {
					t.Errorf("error = %v, want ErrFieldTooLong", err)
				}
				if err != nil && !strings.Contains(err.Error(), "test.field") {
					t.Errorf("error %q does not name the field", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"empty config", func(c *Config) { *c = Config{} }, nil},
		{"chrome backend", func(c *Config) { c.Render.Backend = "Chrome" }, nil},
		{"unknown backend", func(c *Config) { c.Render.Backend = "laser" }, ErrInvalidValue},
		{"negative timeout", func(c *Config) { c.Render.Timeout = -time.Second }, ErrInvalidValue},
		{"too many workers", func(c *Config) { c.Render.Workers = MaxWorkers + 1 }, ErrInvalidValue},
		{"preset name too long", func(c *Config) { c.Render.StylePreset = strings.Repeat("a", MaxNameLength+1) }, ErrFieldTooLong},
		{"cards per page 9", func(c *Config) { c.Document.CardsPerPage = 9 }, nil},
		{"cards per page 5", func(c *Config) { c.Document.CardsPerPage = 5 }, ErrInvalidValue},
		{"bad orientation", func(c *Config) { c.Document.Orientation = "sideways" }, ErrInvalidValue},
		{"sqlite records", func(c *Config) { c.Storage.Records = RecordStoreConfig{Driver: "sqlite", DSN: "assets.db"} }, nil},
		{"postgres without dsn", func(c *Config) { c.Storage.Records.Driver = "postgres" }, ErrInvalidValue},
		{"unknown record driver", func(c *Config) { c.Storage.Records.Driver = "mongo" }, ErrInvalidValue},
		{"filesystem without path", func(c *Config) { c.Storage.Blobs.Driver = "filesystem" }, ErrInvalidValue},
		{"filesystem with path", func(c *Config) { c.Storage.Blobs = BlobStoreConfig{Driver: "filesystem", Path: "/tmp/blobs"} }, nil},
		{"minio without bucket", func(c *Config) { c.Storage.Blobs = BlobStoreConfig{Driver: "minio", Endpoint: "localhost:9000"} }, ErrInvalidValue},
		{"minio complete", func(c *Config) {
			c.Storage.Blobs = BlobStoreConfig{Driver: "minio", Endpoint: "localhost:9000", Bucket: "assets"}
		}, nil},
		{"gcs without bucket", func(c *Config) { c.Storage.Blobs.Driver = "gcs" }, ErrInvalidValue},
		{"bucket too long", func(c *Config) {
			c.Storage.Blobs = BlobStoreConfig{Driver: "gcs", Bucket: strings.Repeat("b", MaxBucketLength+1)}
		}, ErrFieldTooLong},
		{"redis lock without addr", func(c *Config) { c.Storage.Lock.Driver = "redis" }, ErrInvalidValue},
		{"redis lock", func(c *Config) {
			c.Storage.Lock = LockConfig{Driver: "redis", Addr: "localhost:6379", TTL: 10 * time.Second}
		}, nil},
		{"negative lock ttl", func(c *Config) { c.Storage.Lock.TTL = -1 }, ErrInvalidValue},
		{"generator endpoint too long", func(c *Config) { c.Generator.Endpoint = strings.Repeat("u", MaxURLLength+1) }, ErrFieldTooLong},
		{"negative generator timeout", func(c *Config) { c.Generator.Timeout = -time.Second }, ErrInvalidValue},
		{"unknown log mode", func(c *Config) { c.Log.Mode = "verbose" }, ErrInvalidValue},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("valid file path loads config over defaults", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		configPath := filepath.Join(dir, "test.yaml")
		content := `render:
  backend: chrome
  timeout: 90s
  stylePreset: pastel
document:
  cardsPerPage: 9
  showLabels: false
  watermark: true
storage:
  records:
    driver: sqlite
    dsn: assets.db
  lock:
    driver: redis
    addr: localhost:6379
    ttl: 15s
`
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		cfg, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error: %v", err)
		}
		if cfg.Render.Backend != "chrome" || cfg.Render.Timeout != 90*time.Second || cfg.Render.StylePreset != "pastel" {
			t.Errorf("Render = %+v", cfg.Render)
		}
		if cfg.Document.CardsPerPage != 9 || !cfg.Document.Watermark {
			t.Errorf("Document = %+v", cfg.Document)
		}
		if cfg.Document.ShowLabels == nil || *cfg.Document.ShowLabels {
			t.Error("Document.ShowLabels should be explicitly false")
		}
		if cfg.Document.ShowDescriptions != nil {
			t.Error("Document.ShowDescriptions should stay unset")
		}
		if cfg.Storage.Records.Driver != "sqlite" || cfg.Storage.Lock.TTL != 15*time.Second {
			t.Errorf("Storage = %+v", cfg.Storage)
		}
		// Untouched sections keep defaults.
		if cfg.Storage.Blobs.Driver != "memory" || cfg.Log.Mode != "development" {
			t.Errorf("defaults lost: blobs=%q log=%q", cfg.Storage.Blobs.Driver, cfg.Log.Mode)
		}
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(configPath, []byte("render:\n  colour: red\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(configPath); !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(configPath, []byte("document:\n  cardsPerPage: 8\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("missing file path returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("unknown name lists tried paths", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig("printables-config-that-does-not-exist")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "printables-config-that-does-not-exist.yaml") {
			t.Errorf("error %q does not list tried paths", err)
		}
	})
}

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"work", false},
		{"./work.yaml", true},
		{"configs/work.yaml", true},
		{`C:\configs\work.yaml`, true},
	}
	for _, tt := range tests {
		if got := isFilePath(tt.in); got != tt.want {
			t.Errorf("isFilePath(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
