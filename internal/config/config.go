// Package config provides configuration loading for the ingestion, analysis, and query services.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingRequired is returned when a setting needed at startup is absent.
var ErrMissingRequired = errors.New("missing required configuration")

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	NLP        NLPConfig        `yaml:"nlp"`
	Storage    StorageConfig    `yaml:"storage"`
	Objects    ObjectsConfig    `yaml:"objects"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Heuristics HeuristicsConfig `yaml:"heuristics"`
	Query      QueryConfig      `yaml:"query"`
	Queue      QueueConfig      `yaml:"queue"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig holds the document API listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// NLPConfig holds the analysis service listener and the client settings used to reach it.
type NLPConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	URL               string `yaml:"url"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	MaxTextChars      int    `yaml:"max_text_chars"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	// Recognizer selects the entity recognizer: "gazetteer" (offline) or "gemini".
	Recognizer  string `yaml:"recognizer"`
	GeminiModel string `yaml:"gemini_model"`
	// GeminiAPIKey is only read from the environment.
	GeminiAPIKey string `yaml:"-"`
}

// StorageConfig selects the metadata store and full-text index.
type StorageConfig struct {
	Driver         string `yaml:"driver"`
	DatabasePath   string `yaml:"database_path"`
	DatabaseURL    string `yaml:"database_url"`
	DocumentsTable string `yaml:"documents_table"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// ObjectsConfig selects where uploaded documents and extracted text live.
// Endpoint overrides the S3 endpoint, e.g. for MinIO.
type ObjectsConfig struct {
	Type       string `yaml:"type"`
	Root       string `yaml:"root"`
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	TextPrefix string `yaml:"text_prefix"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"-"`
	SecretKey  string `yaml:"-"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	ModelName   string `yaml:"model_name"`
	ModelPath   string `yaml:"model_path"`
	Dimensions  int    `yaml:"dimensions"`
	MaxTokens   int    `yaml:"max_tokens"`
	CacheSize   int    `yaml:"cache_size"`
	GeminiModel string `yaml:"gemini_model"`
}

// HeuristicsConfig keeps the two title length bounds used by ingestion and analysis.
type HeuristicsConfig struct {
	TitleMaxIngest  int `yaml:"title_max_ingest"`
	TitleMaxAnalyze int `yaml:"title_max_analyze"`
}

// QueryConfig holds query path settings.
type QueryConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
	ListLimit     int     `yaml:"list_limit"`
}

// QueueConfig holds the async ingestion queue settings. Empty RedisAddr disables the queue.
type QueueConfig struct {
	RedisAddr   string `yaml:"redis_addr"`
	Concurrency int    `yaml:"concurrency"`
}

// WatchConfig holds inbox directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, applies defaults, and
// then applies environment overrides. An empty path yields defaults plus environment.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	ApplyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)

	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Objects.Root = expandPath(cfg.Objects.Root, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process environment.
// Missing files are ignored; variables already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ValidateIngestion fails when the settings the ingestion path cannot run without are unset.
func (c *Config) ValidateIngestion() error {
	var missing []string
	if c.Storage.DocumentsTable == "" {
		missing = append(missing, "DOCUMENTS_TABLE")
	}
	if c.Objects.Bucket == "" {
		missing = append(missing, "DOCS_BUCKET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
