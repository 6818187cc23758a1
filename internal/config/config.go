package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-printables/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxNameLength   = 100
	MaxPathLength   = 4096
	MaxURLLength    = 2048
	MaxDSNLength    = 1024
	MaxBucketLength = 222 // S3 and GCS upper bound
	MaxWorkers      = 64
)

// Driver names accepted in the storage section.
var (
	RecordDrivers = []string{"memory", "sqlite", "postgres"}
	BlobDrivers   = []string{"memory", "filesystem", "minio", "gcs"}
	LockDrivers   = []string{"local", "redis"}
	LogModes      = []string{"development", "production", "silent"}
	Backends      = []string{"native", "chrome"}
	Orientations  = []string{"portrait", "landscape"}
)

// Config holds all configuration for rendering and asset storage.
type Config struct {
	Render    RenderConfig    `yaml:"render"`
	Document  DocumentConfig  `yaml:"document"`
	Storage   StorageConfig   `yaml:"storage"`
	Generator GeneratorConfig `yaml:"generator"`
	Log       LogConfig       `yaml:"log"`
}

// RenderConfig selects the backend and its resources.
type RenderConfig struct {
	Backend     string        `yaml:"backend"`     // "native" (default) or "chrome"
	Timeout     time.Duration `yaml:"timeout"`     // Per document; 0 = library default
	Workers     int           `yaml:"workers"`     // Batch parallelism; 0 = auto
	StylePreset string        `yaml:"stylePreset"` // Built-in or custom preset name
	PresetPath  string        `yaml:"presetPath"`  // Directory overriding built-in presets
	OutputDir   string        `yaml:"outputDir"`   // Empty = current directory
}

// DocumentConfig mirrors the document options exposed to users.
type DocumentConfig struct {
	CardsPerPage     int    `yaml:"cardsPerPage"`
	ShowLabels       *bool  `yaml:"showLabels"`       // nil = true
	ShowDescriptions *bool  `yaml:"showDescriptions"` // nil = true
	ShowCutLines     bool   `yaml:"showCutLines"`
	IncludeCardBacks bool   `yaml:"includeCardBacks"`
	Booklet          bool   `yaml:"booklet"`
	Orientation      string `yaml:"orientation"`
	Watermark        bool   `yaml:"watermark"`
}

// StorageConfig configures the asset repository backends.
type StorageConfig struct {
	Records RecordStoreConfig `yaml:"records"`
	Blobs   BlobStoreConfig   `yaml:"blobs"`
	Lock    LockConfig        `yaml:"lock"`
}

// RecordStoreConfig selects where asset and version records live.
type RecordStoreConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite, postgres
	DSN    string `yaml:"dsn"`    // File path for sqlite, URL for postgres
}

// BlobStoreConfig selects where image bytes live.
type BlobStoreConfig struct {
	Driver          string `yaml:"driver"` // memory, filesystem, minio, gcs
	Path            string `yaml:"path"`   // filesystem root
	Endpoint        string `yaml:"endpoint"`
	Bucket          string `yaml:"bucket"`
	AccessKey       string `yaml:"accessKey"`
	SecretKey       string `yaml:"secretKey"`
	UseSSL          bool   `yaml:"useSSL"`
	Region          string `yaml:"region"`
	CredentialsFile string `yaml:"credentialsFile"` // gcs service account JSON
	PublicBaseURL   string `yaml:"publicBaseURL"`   // Empty = signed/presigned URLs
}

// LockConfig selects how per-asset writes are serialized.
type LockConfig struct {
	Driver   string        `yaml:"driver"` // local, redis
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// GeneratorConfig points at an HTTP image generation endpoint. The
// endpoint receives {"prompt", "params"} as JSON and answers with image
// bytes.
type GeneratorConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"` // 0 = 2m
}

// LogConfig selects the logger preset.
type LogConfig struct {
	Mode  string `yaml:"mode"`  // development, production, silent
	Level string `yaml:"level"` // debug, info, warn, error
}

// Validate checks enumerations, ranges, and field lengths.
// Called automatically by LoadConfig, but available for callers
// that construct Config manually.
func (c *Config) Validate() error {
	if err := validateOneOf("render.backend", c.Render.Backend, Backends); err != nil {
		return err
	}
	if c.Render.Timeout < 0 {
		return fmt.Errorf("%w: render.timeout: must be positive, got %s", ErrInvalidValue, c.Render.Timeout)
	}
	if c.Render.Workers < 0 || c.Render.Workers > MaxWorkers {
		return fmt.Errorf("%w: render.workers: must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Render.Workers)
	}
	if err := validateFieldLength("render.stylePreset", c.Render.StylePreset, MaxNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("render.presetPath", c.Render.PresetPath, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("render.outputDir", c.Render.OutputDir, MaxPathLength); err != nil {
		return err
	}

	switch c.Document.CardsPerPage {
	case 0, 4, 6, 9:
	default:
		return fmt.Errorf("%w: document.cardsPerPage: must be 4, 6, or 9, got %d", ErrInvalidValue, c.Document.CardsPerPage)
	}
	if err := validateOneOf("document.orientation", c.Document.Orientation, Orientations); err != nil {
		return err
	}

	if err := validateOneOf("storage.records.driver", c.Storage.Records.Driver, RecordDrivers); err != nil {
		return err
	}
	if err := validateFieldLength("storage.records.dsn", c.Storage.Records.DSN, MaxDSNLength); err != nil {
		return err
	}
	if c.Storage.Records.Driver == "postgres" && c.Storage.Records.DSN == "" {
		return fmt.Errorf("%w: storage.records.dsn: required for postgres", ErrInvalidValue)
	}

	b := c.Storage.Blobs
	if err := validateOneOf("storage.blobs.driver", b.Driver, BlobDrivers); err != nil {
		return err
	}
	if err := validateFieldLength("storage.blobs.path", b.Path, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("storage.blobs.endpoint", b.Endpoint, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("storage.blobs.bucket", b.Bucket, MaxBucketLength); err != nil {
		return err
	}
	if err := validateFieldLength("storage.blobs.publicBaseURL", b.PublicBaseURL, MaxURLLength); err != nil {
		return err
	}
	switch b.Driver {
	case "filesystem":
		if b.Path == "" {
			return fmt.Errorf("%w: storage.blobs.path: required for filesystem", ErrInvalidValue)
		}
	case "minio":
		if b.Endpoint == "" || b.Bucket == "" {
			return fmt.Errorf("%w: storage.blobs: endpoint and bucket required for minio", ErrInvalidValue)
		}
	case "gcs":
		if b.Bucket == "" {
			return fmt.Errorf("%w: storage.blobs.bucket: required for gcs", ErrInvalidValue)
		}
	}

	if err := validateOneOf("storage.lock.driver", c.Storage.Lock.Driver, LockDrivers); err != nil {
		return err
	}
	if c.Storage.Lock.Driver == "redis" && c.Storage.Lock.Addr == "" {
		return fmt.Errorf("%w: storage.lock.addr: required for redis", ErrInvalidValue)
	}
	if c.Storage.Lock.TTL < 0 {
		return fmt.Errorf("%w: storage.lock.ttl: must be positive, got %s", ErrInvalidValue, c.Storage.Lock.TTL)
	}

	if err := validateFieldLength("generator.endpoint", c.Generator.Endpoint, MaxURLLength); err != nil {
		return err
	}
	if c.Generator.Timeout < 0 {
		return fmt.Errorf("%w: generator.timeout: must be positive, got %s", ErrInvalidValue, c.Generator.Timeout)
	}

	if err := validateOneOf("log.mode", c.Log.Mode, LogModes); err != nil {
		return err
	}
	return validateOneOf("log.level", c.Log.Level, []string{"debug", "info", "warn", "error"})
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateOneOf accepts empty (meaning default) or one of allowed.
func validateOneOf(fieldName, value string, allowed []string) error {
	if value == "" || slices.Contains(allowed, strings.ToLower(value)) {
		return nil
	}
	return fmt.Errorf("%w: %s: %q (must be one of %s)", ErrInvalidValue, fieldName, value, strings.Join(allowed, ", "))
}

// DefaultConfig returns a configuration that needs no external services:
// native backend, in-memory storage, local locks.
func DefaultConfig() *Config {
	return &Config{
		Render:   RenderConfig{Backend: "native"},
		Document: DocumentConfig{CardsPerPage: 6, Orientation: ""},
		Storage: StorageConfig{
			Records: RecordStoreConfig{Driver: "memory"},
			Blobs:   BlobStoreConfig{Driver: "memory"},
			Lock:    LockConfig{Driver: "local"},
		},
		Log: LogConfig{Mode: "development", Level: "info"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-printables/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-printables", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
