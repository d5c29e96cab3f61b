// Package config provides configuration loading and structs for the ingestd server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Extract   ExtractConfig   `yaml:"extract"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// FetchConfig holds settings for downloading source documents.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxBytes  int64         `yaml:"max_bytes"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second; 0 disables limiting
	UserAgent string        `yaml:"user_agent"`
}

// ExtractConfig holds text extraction settings.
type ExtractConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	// TempDir is where downloaded payloads are staged. Empty means the OS temp dir.
	TempDir string `yaml:"temp_dir"`
}

// ChunkingConfig holds text splitting settings. Sizes are in characters.
type ChunkingConfig struct {
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	Separators   []string `yaml:"separators"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	// Provider is one of "onnx", "ollama" or "mock".
	Provider  string `yaml:"provider"`
	ModelPath string `yaml:"model_path"`
	// TokenizerPath is the model's Hugging Face tokenizer.json. Defaults to
	// tokenizer.json next to ModelPath.
	TokenizerPath string        `yaml:"tokenizer_path"`
	ModelName     string        `yaml:"model_name"`
	OllamaURL     string        `yaml:"ollama_url"`
	Dimensions    int           `yaml:"dimensions"`
	MaxTokens     int           `yaml:"max_tokens"`
	CacheSize     int           `yaml:"cache_size"`
	Timeout       time.Duration `yaml:"timeout"`
}

// IndexConfig holds settings for the persisted similarity index.
type IndexConfig struct {
	Path    string        `yaml:"path"`
	Type    string        `yaml:"type"`
	Timeout time.Duration `yaml:"timeout"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := newConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Index.Path = expandPath(cfg.Index.Path, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	if cfg.Embedding.TokenizerPath != "" {
		cfg.Embedding.TokenizerPath = expandPath(cfg.Embedding.TokenizerPath, configDir)
	}
	if cfg.Extract.TempDir != "" {
		cfg.Extract.TempDir = expandPath(cfg.Extract.TempDir, configDir)
	}

	return &cfg, cfg.Validate()
}

// LoadOrDefault behaves like Load but returns the defaults when path does not exist.
// Relative paths in the defaults stay relative to the working directory.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	return Load(path)
}

// Default returns a config with every field set to its default value.
func Default() *Config {
	cfg := newConfig()
	ApplyDefaults(&cfg)
	return &cfg
}

// Validate reports settings that would make the pipeline misbehave.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.chunk_overlap must be in [0, %d), got %d", c.Chunking.ChunkSize, c.Chunking.ChunkOverlap)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Index.Path == "" {
		return errors.New("index.path must be set")
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
