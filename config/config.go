package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/schemaflow/errors"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Version  string         `json:"version,omitempty" yaml:"version,omitempty"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	NATS     NATSConfig     `json:"nats,omitempty" yaml:"nats,omitempty"`
	Metrics  MetricsConfig  `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Logging  LoggingConfig  `json:"logging,omitempty" yaml:"logging,omitempty"`
	Ingest   IngestConfig   `json:"ingest,omitempty" yaml:"ingest,omitempty"`
	Semantic SemanticConfig `json:"semantic,omitempty" yaml:"semantic,omitempty"`
}

// StorageConfig defines the document store connection.
type StorageConfig struct {
	URI       string        `json:"uri" yaml:"uri"`
	OpTimeout time.Duration `json:"op_timeout,omitempty" yaml:"op_timeout,omitempty"`
}

// NATSConfig defines the optional change-event publisher connection.
type NATSConfig struct {
	Enabled       bool          `json:"enabled" yaml:"enabled"`
	URLs          []string      `json:"urls,omitempty" yaml:"urls,omitempty"`
	SubjectPrefix string        `json:"subject_prefix,omitempty" yaml:"subject_prefix,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty" yaml:"reconnect_wait,omitempty"`
	Username      string        `json:"username,omitempty" yaml:"username,omitempty"`
	Password      string        `json:"password,omitempty" yaml:"password,omitempty"`
	Token         string        `json:"token,omitempty" yaml:"token,omitempty"`
}

// MetricsConfig defines the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port,omitempty" yaml:"port,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig defines structured logging behavior.
type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// IngestConfig defines pipeline step toggles.
type IngestConfig struct {
	Deduplicate   bool `json:"deduplicate" yaml:"deduplicate"`
	DetectChanges bool `json:"detect_changes" yaml:"detect_changes"`
	BatchSize     int  `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
}

// SemanticConfig defines the optional embedding enrichment. An empty
// endpoint with embedding enabled selects the built-in BM25 lexical
// embedder; an endpoint selects an OpenAI-compatible HTTP service.
type SemanticConfig struct {
	EmbeddingEnabled  bool   `json:"embedding_enabled" yaml:"embedding_enabled"`
	EmbeddingEndpoint string `json:"embedding_endpoint,omitempty" yaml:"embedding_endpoint,omitempty"`
	EmbeddingModel    string `json:"embedding_model,omitempty" yaml:"embedding_model,omitempty"`
	EmbeddingAPIKey   string `json:"embedding_api_key,omitempty" yaml:"embedding_api_key,omitempty"`
	CacheSize         int    `json:"cache_size,omitempty" yaml:"cache_size,omitempty"`
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SafeConfig{config: cfg}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Update", "nil config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}
	return &clone
}

var logLevels = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if c.Storage.URI == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "config", "Validate", "storage.uri is required")
	}
	if !strings.HasPrefix(c.Storage.URI, "mongodb://") && !strings.HasPrefix(c.Storage.URI, "mongodb+srv://") {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			fmt.Sprintf("storage.uri %q is not a mongodb connection string", c.Storage.URI))
	}
	if c.Storage.OpTimeout < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate", "storage.op_timeout cannot be negative")
	}

	if c.NATS.Enabled && len(c.NATS.URLs) == 0 {
		return errors.WrapInvalid(errors.ErrMissingConfig, "config", "Validate", "nats.urls is required when nats is enabled")
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			fmt.Sprintf("metrics.port %d is out of range", c.Metrics.Port))
	}

	if c.Logging.Level != "" {
		if _, ok := logLevels[strings.ToLower(c.Logging.Level)]; !ok {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
				fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
		}
	}

	if c.Ingest.BatchSize < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate", "ingest.batch_size cannot be negative")
	}
	if c.Semantic.CacheSize < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate", "semantic.cache_size cannot be negative")
	}
	return nil
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:    []string{},
		envPrefix: "SCHEMAFLOW",
	}
}

// AddLayer adds a configuration file layer
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load loads and merges all configuration layers, applies environment
// overrides, then validates when enabled.
func (l *Loader) Load() (*Config, error) {
	cfg := Defaults()

	for _, path := range l.layers {
		raw, err := l.loadRaw(path)
		if err != nil {
			return nil, errors.Wrap(err, "config", "Load", fmt.Sprintf("load layer %s", path))
		}
		cfg = l.mergeFromMap(cfg, raw)
	}

	l.applyEnvOverrides(cfg)

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: "1.0.0",
		Storage: StorageConfig{
			URI:       "mongodb://localhost:27017",
			OpTimeout: 10 * time.Second,
		},
		NATS: NATSConfig{
			URLs:          []string{"nats://localhost:4222"},
			SubjectPrefix: "schemaflow.changes",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Port: 9090,
			Path: "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Ingest: IngestConfig{
			Deduplicate:   true,
			DetectChanges: true,
			BatchSize:     500,
		},
		Semantic: SemanticConfig{
			EmbeddingModel: "all-MiniLM-L6-v2",
			CacheSize:      4096,
		},
	}
}

// loadRaw loads one configuration file into a map. JSON and YAML layers are
// both accepted, selected by extension.
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := validateJSONDepth(data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}

	parseDurations(raw)
	return raw, nil
}

// mergeFromMap merges configuration from a raw map, only overriding fields
// present in the map.
func (l *Loader) mergeFromMap(base *Config, override map[string]any) *Config {
	if override == nil {
		return base
	}

	baseJSON, err := json.Marshal(base)
	if err != nil {
		return base
	}
	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return base
	}

	merged := deepMergeMaps(baseMap, override)

	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return base
	}
	var out Config
	if err := json.Unmarshal(mergedJSON, &out); err != nil {
		return base
	}
	return &out
}

// deepMergeMaps merges override into base recursively. Scalar and list
// values in override replace base values wholesale.
func deepMergeMaps(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if ov, ok := v.(map[string]any); ok {
			if bv, ok := out[k].(map[string]any); ok {
				out[k] = deepMergeMaps(bv, ov)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// durationKeys are config fields that accept human-readable durations like
// "10s" or "2m" in files but unmarshal as nanosecond integers.
var durationKeys = map[string]struct{}{
	"op_timeout":     {},
	"reconnect_wait": {},
}

func parseDurations(raw map[string]any) {
	for k, v := range raw {
		if nested, ok := v.(map[string]any); ok {
			parseDurations(nested)
			continue
		}
		if _, isDuration := durationKeys[k]; !isDuration {
			continue
		}
		if s, ok := v.(string); ok {
			if d, err := time.ParseDuration(s); err == nil {
				raw[k] = int64(d)
			}
		}
	}
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) {
	if val := l.env("STORAGE_URI"); val != "" {
		cfg.Storage.URI = val
	}
	if val := l.env("NATS_URLS"); val != "" {
		cfg.NATS.URLs = strings.Split(val, ",")
	}
	if val := l.env("NATS_USERNAME"); val != "" {
		cfg.NATS.Username = val
	}
	if val := l.env("NATS_PASSWORD"); val != "" {
		cfg.NATS.Password = val
	}
	if val := l.env("NATS_TOKEN"); val != "" {
		cfg.NATS.Token = val
	}
	if val := l.env("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := l.env("METRICS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Metrics.Port = port
		}
	}
}

func (l *Loader) env(suffix string) string {
	key := l.envPrefix + "_" + suffix
	val := os.Getenv(key)
	if err := validateEnvVar(key, val); err != nil {
		return ""
	}
	return val
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return safeWriteFile(path, data)
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
