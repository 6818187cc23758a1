package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-printables/internal/config"
)

const envPrefix = "PRINTABLES_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // PRINTABLES_CONFIG: config file path
	Style      string        // PRINTABLES_STYLE: style preset name
	Backend    string        // PRINTABLES_BACKEND: native or chrome
	Timeout    time.Duration // PRINTABLES_TIMEOUT: per-document timeout

	// Tier 2 - I/O
	OutputDir  string // PRINTABLES_OUTPUT_DIR: default output directory
	PresetPath string // PRINTABLES_PRESET_PATH: custom preset directory
	Workers    int    // PRINTABLES_WORKERS: parallel workers

	// Tier 3 - Storage
	RecordsDriver string // PRINTABLES_RECORDS_DRIVER: memory, sqlite, postgres
	RecordsDSN    string // PRINTABLES_RECORDS_DSN: sqlite path or postgres URL
	BlobsDriver   string // PRINTABLES_BLOBS_DRIVER: memory, filesystem, minio, gcs
	BlobsPath     string // PRINTABLES_BLOBS_PATH: filesystem root
	BlobsEndpoint string // PRINTABLES_BLOBS_ENDPOINT: minio endpoint
	BlobsBucket   string // PRINTABLES_BLOBS_BUCKET: minio or gcs bucket
	BlobsAccess   string // PRINTABLES_BLOBS_ACCESS_KEY
	BlobsSecret   string // PRINTABLES_BLOBS_SECRET_KEY
	GCSCreds      string // PRINTABLES_GCS_CREDENTIALS: file path or JSON
	RedisAddr     string // PRINTABLES_REDIS_ADDR: enables the redis locker
	RedisPassword string // PRINTABLES_REDIS_PASSWORD

	// Tier 4 - Generation and logging
	GeneratorURL string // PRINTABLES_GENERATOR_URL
	GeneratorKey string // PRINTABLES_GENERATOR_KEY
	LogMode      string // PRINTABLES_LOG_MODE
	LogLevel     string // PRINTABLES_LOG_LEVEL
}

// knownEnvVars lists valid PRINTABLES_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"PRINTABLES_CONFIG":  true,
	"PRINTABLES_STYLE":   true,
	"PRINTABLES_BACKEND": true,
	"PRINTABLES_TIMEOUT": true,
	// Tier 2 - I/O
	"PRINTABLES_OUTPUT_DIR":  true,
	"PRINTABLES_PRESET_PATH": true,
	"PRINTABLES_WORKERS":     true,
	// Tier 3 - Storage
	"PRINTABLES_RECORDS_DRIVER":   true,
	"PRINTABLES_RECORDS_DSN":      true,
	"PRINTABLES_BLOBS_DRIVER":     true,
	"PRINTABLES_BLOBS_PATH":       true,
	"PRINTABLES_BLOBS_ENDPOINT":   true,
	"PRINTABLES_BLOBS_BUCKET":     true,
	"PRINTABLES_BLOBS_ACCESS_KEY": true,
	"PRINTABLES_BLOBS_SECRET_KEY": true,
	"PRINTABLES_GCS_CREDENTIALS":  true,
	"PRINTABLES_REDIS_ADDR":       true,
	"PRINTABLES_REDIS_PASSWORD":   true,
	// Tier 4 - Generation and logging
	"PRINTABLES_GENERATOR_URL": true,
	"PRINTABLES_GENERATOR_KEY": true,
	"PRINTABLES_LOG_MODE":      true,
	"PRINTABLES_LOG_LEVEL":     true,
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized PRINTABLES_* values.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:    getenv("PRINTABLES_CONFIG"),
		Style:         getenv("PRINTABLES_STYLE"),
		Backend:       getenv("PRINTABLES_BACKEND"),
		OutputDir:     getenv("PRINTABLES_OUTPUT_DIR"),
		PresetPath:    getenv("PRINTABLES_PRESET_PATH"),
		RecordsDriver: getenv("PRINTABLES_RECORDS_DRIVER"),
		RecordsDSN:    getenv("PRINTABLES_RECORDS_DSN"),
		BlobsDriver:   getenv("PRINTABLES_BLOBS_DRIVER"),
		BlobsPath:     getenv("PRINTABLES_BLOBS_PATH"),
		BlobsEndpoint: getenv("PRINTABLES_BLOBS_ENDPOINT"),
		BlobsBucket:   getenv("PRINTABLES_BLOBS_BUCKET"),
		BlobsAccess:   getenv("PRINTABLES_BLOBS_ACCESS_KEY"),
		BlobsSecret:   getenv("PRINTABLES_BLOBS_SECRET_KEY"),
		GCSCreds:      getenv("PRINTABLES_GCS_CREDENTIALS"),
		RedisAddr:     getenv("PRINTABLES_REDIS_ADDR"),
		RedisPassword: getenv("PRINTABLES_REDIS_PASSWORD"),
		GeneratorURL:  getenv("PRINTABLES_GENERATOR_URL"),
		GeneratorKey:  getenv("PRINTABLES_GENERATOR_KEY"),
		LogMode:       getenv("PRINTABLES_LOG_MODE"),
		LogLevel:      getenv("PRINTABLES_LOG_LEVEL"),
	}

	// Parse duration for timeout
	if timeout := getenv("PRINTABLES_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	// Parse int for workers
	if workers := getenv("PRINTABLES_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized PRINTABLES_* variables.
// Helps catch typos like PRINTABLES_BACKEDN.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty,
// zero, or the built-in default. This ensures:
// CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	def := config.DefaultConfig()

	// Tier 1 - Rendering
	if env.Style != "" && cfg.Render.StylePreset == "" {
		cfg.Render.StylePreset = env.Style
	}
	if env.Backend != "" && cfg.Render.Backend == def.Render.Backend {
		cfg.Render.Backend = env.Backend
	}
	if env.Timeout > 0 && cfg.Render.Timeout == 0 {
		cfg.Render.Timeout = env.Timeout
	}

	// Tier 2 - I/O
	if env.OutputDir != "" && cfg.Render.OutputDir == "" {
		cfg.Render.OutputDir = env.OutputDir
	}
	if env.PresetPath != "" && cfg.Render.PresetPath == "" {
		cfg.Render.PresetPath = env.PresetPath
	}
	if env.Workers > 0 && cfg.Render.Workers == 0 {
		cfg.Render.Workers = env.Workers
	}

	// Tier 3 - Records
	if env.RecordsDriver != "" && cfg.Storage.Records.Driver == def.Storage.Records.Driver {
		cfg.Storage.Records.Driver = env.RecordsDriver
	}
	if env.RecordsDSN != "" && cfg.Storage.Records.DSN == "" {
		cfg.Storage.Records.DSN = env.RecordsDSN
	}

	// Tier 3 - Blobs
	b := &cfg.Storage.Blobs
	if env.BlobsDriver != "" && b.Driver == def.Storage.Blobs.Driver {
		b.Driver = env.BlobsDriver
	}
	if env.BlobsPath != "" && b.Path == "" {
		b.Path = env.BlobsPath
	}
	if env.BlobsEndpoint != "" && b.Endpoint == "" {
		b.Endpoint = env.BlobsEndpoint
	}
	if env.BlobsBucket != "" && b.Bucket == "" {
		b.Bucket = env.BlobsBucket
	}
	if env.BlobsAccess != "" && b.AccessKey == "" {
		b.AccessKey = env.BlobsAccess
	}
	if env.BlobsSecret != "" && b.SecretKey == "" {
		b.SecretKey = env.BlobsSecret
	}
	if env.GCSCreds != "" && b.CredentialsFile == "" {
		b.CredentialsFile = env.GCSCreds
	}

	// Tier 3 - Lock (auto-enable redis)
	if env.RedisAddr != "" && cfg.Storage.Lock.Addr == "" {
		cfg.Storage.Lock.Addr = env.RedisAddr
		if cfg.Storage.Lock.Driver == def.Storage.Lock.Driver {
			cfg.Storage.Lock.Driver = "redis"
		}
	}
	if env.RedisPassword != "" && cfg.Storage.Lock.Password == "" {
		cfg.Storage.Lock.Password = env.RedisPassword
	}

	// Tier 4 - Generator and logging
	if env.GeneratorURL != "" && cfg.Generator.Endpoint == "" {
		cfg.Generator.Endpoint = env.GeneratorURL
	}
	if env.GeneratorKey != "" && cfg.Generator.APIKey == "" {
		cfg.Generator.APIKey = env.GeneratorKey
	}
	if env.LogMode != "" && cfg.Log.Mode == def.Log.Mode {
		cfg.Log.Mode = env.LogMode
	}
	if env.LogLevel != "" && cfg.Log.Level == def.Log.Level {
		cfg.Log.Level = env.LogLevel
	}
}
