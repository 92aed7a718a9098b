package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Cache       CacheConfig     `toml:"cache"`
	Dispatch    DispatchConfig  `toml:"dispatch"`
	Edgar       EdgarConfig     `toml:"edgar"`
	Profile     ProfileConfig   `toml:"profile"`
	Relations   RelationsConfig `toml:"relations"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// CacheConfig controls the disk-backed filing cache.
type CacheConfig struct {
	Dir           string `toml:"dir"`            // Cache directory path
	CapacityBytes int64  `toml:"capacity_bytes"` // Total byte budget; LRU eviction past this
}

// DispatchConfig controls the shared extraction worker pool.
type DispatchConfig struct {
	Workers             int           `toml:"workers"`              // Pool size shared by all companies
	QueueSize           int           `toml:"queue_size"`           // Submit blocks when the queue is full
	DefaultTimeout      time.Duration `toml:"default_timeout"`      // Per-task timeout unless overridden
	MetadataTimeout     time.Duration `toml:"metadata_timeout"`     // Filing-activity task timeout
	FinancialsTimeout   time.Duration `toml:"financials_timeout"`   // Financial time-series task timeout
	RelationshipTimeout time.Duration `toml:"relationship_timeout"` // Relationship extraction task timeout
}

// EdgarConfig controls the SEC EDGAR client.
type EdgarConfig struct {
	BaseURL        string        `toml:"base_url"`        // Submissions API base URL
	ArchivesURL    string        `toml:"archives_url"`    // Filing archives base URL
	UserAgent      string        `toml:"user_agent"`      // Required by SEC fair access policy
	RateLimit      int           `toml:"rate_limit"`      // Requests per second ceiling
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
}

// ProfileConfig controls profile generation defaults.
type ProfileConfig struct {
	LookbackYears        int  `toml:"lookback_years"`        // Filing window for generation
	ExtractRelationships bool `toml:"extract_relationships"` // Include the relationship task by default
}

// RelationsConfig bounds the fuzzy relationship matching phase.
type RelationsConfig struct {
	MaxFuzzyPhrases int           `toml:"max_fuzzy_phrases"` // Top-K candidate phrases by frequency
	MinNameLength   int           `toml:"min_name_length"`   // Skip index names shorter than this
	FuzzyThreshold  float64       `toml:"fuzzy_threshold"`   // Minimum token-set similarity
	Budget          time.Duration `toml:"budget"`            // Wall-clock budget for the fuzzy phase
}

// SchedulerConfig controls periodic batch profile refresh.
type SchedulerConfig struct {
	Enabled  bool     `toml:"enabled"`
	Schedule string   `toml:"schedule"` // Cron schedule format
	Tickers  []string `toml:"tickers"`  // Watchlist refreshed on the schedule
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in colligo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Cache: CacheConfig{
			Dir:           "./data/cache",
			CapacityBytes: 512 * 1024 * 1024, // 512MB of filing lists and documents
		},
		Dispatch: DispatchConfig{
			Workers:             8,
			QueueSize:           256,
			DefaultTimeout:      30 * time.Second,
			MetadataTimeout:     10 * time.Second,
			FinancialsTimeout:   60 * time.Second,
			RelationshipTimeout: 120 * time.Second,
		},
		Edgar: EdgarConfig{
			BaseURL:        "https://data.sec.gov",
			ArchivesURL:    "https://www.sec.gov/Archives",
			UserAgent:      "colligo/1.0 (research; admin@ternarybob.com)",
			RateLimit:      8, // SEC fair access allows 10 req/s; stay under
			RequestTimeout: 30 * time.Second,
		},
		Profile: ProfileConfig{
			LookbackYears:        5,
			ExtractRelationships: true,
		},
		Relations: RelationsConfig{
			MaxFuzzyPhrases: 30,
			MinNameLength:   6,
			FuzzyThreshold:  0.62,
			Budget:          10 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,           // Disabled by default - user must explicitly opt-in
			Schedule: "0 0 */12 * * *", // Every 12 hours (cron format)
			Tickers:  []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: COLLIGO_ENV, fallback: GO_ENV)
	if env := os.Getenv("COLLIGO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("COLLIGO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("COLLIGO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("COLLIGO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Cache configuration
	if cacheDir := os.Getenv("COLLIGO_CACHE_DIR"); cacheDir != "" {
		config.Cache.Dir = cacheDir
	}
	if capacity := os.Getenv("COLLIGO_CACHE_CAPACITY_BYTES"); capacity != "" {
		if c, err := strconv.ParseInt(capacity, 10, 64); err == nil {
			config.Cache.CapacityBytes = c
		}
	}

	// Dispatch configuration
	if workers := os.Getenv("COLLIGO_DISPATCH_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Dispatch.Workers = w
		}
	}
	if timeout := os.Getenv("COLLIGO_DISPATCH_DEFAULT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Dispatch.DefaultTimeout = d
		}
	}
	if timeout := os.Getenv("COLLIGO_DISPATCH_RELATIONSHIP_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Dispatch.RelationshipTimeout = d
		}
	}

	// EDGAR configuration
	if baseURL := os.Getenv("COLLIGO_EDGAR_BASE_URL"); baseURL != "" {
		config.Edgar.BaseURL = baseURL
	}
	if archivesURL := os.Getenv("COLLIGO_EDGAR_ARCHIVES_URL"); archivesURL != "" {
		config.Edgar.ArchivesURL = archivesURL
	}
	if userAgent := os.Getenv("COLLIGO_EDGAR_USER_AGENT"); userAgent != "" {
		config.Edgar.UserAgent = userAgent
	}
	if rateLimit := os.Getenv("COLLIGO_EDGAR_RATE_LIMIT"); rateLimit != "" {
		if r, err := strconv.Atoi(rateLimit); err == nil {
			config.Edgar.RateLimit = r
		}
	}

	// Profile configuration
	if years := os.Getenv("COLLIGO_PROFILE_LOOKBACK_YEARS"); years != "" {
		if y, err := strconv.Atoi(years); err == nil {
			config.Profile.LookbackYears = y
		}
	}
	if extract := os.Getenv("COLLIGO_PROFILE_EXTRACT_RELATIONSHIPS"); extract != "" {
		if e, err := strconv.ParseBool(extract); err == nil {
			config.Profile.ExtractRelationships = e
		}
	}

	// Logging configuration
	if level := os.Getenv("COLLIGO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("COLLIGO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("COLLIGO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
