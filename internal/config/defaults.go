package config

import "time"

// Default values for the ingestion pipeline.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
	DefaultDimensions   = 384
	DefaultIndexPath    = "./faiss_index"
)

// DefaultSeparators returns the chunk boundaries tried in order: paragraph,
// line, word, then single characters.
func DefaultSeparators() []string {
	return []string{"\n\n", "\n", " ", ""}
}

// unsetOverlap marks chunk_overlap as absent from the config file, since zero
// is a valid overlap.
const unsetOverlap = -1

// newConfig returns an empty config whose chunk overlap is marked unset.
func newConfig() Config {
	return Config{Chunking: ChunkingConfig{ChunkOverlap: unsetOverlap}}
}

// ApplyDefaults sets default values for any zero values in cfg. Chunk overlap
// is only defaulted when it holds the unset marker from newConfig.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 5 * time.Minute
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 60 * time.Second
	}
	if cfg.Fetch.MaxBytes == 0 {
		cfg.Fetch.MaxBytes = 100 << 20
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "ingestd/1.0"
	}
	if cfg.Extract.Timeout == 0 {
		cfg.Extract.Timeout = 2 * time.Minute
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = DefaultChunkSize
	}
	if cfg.Chunking.ChunkOverlap == unsetOverlap {
		cfg.Chunking.ChunkOverlap = DefaultChunkOverlap
	}
	if len(cfg.Chunking.Separators) == 0 {
		cfg.Chunking.Separators = DefaultSeparators()
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/ingestd/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.ModelName == "" {
		cfg.Embedding.ModelName = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if cfg.Embedding.OllamaURL == "" {
		cfg.Embedding.OllamaURL = "http://localhost:11434"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = DefaultDimensions
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 5 * time.Minute
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = DefaultIndexPath
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "memory"
	}
	if cfg.Index.Timeout == 0 {
		cfg.Index.Timeout = 2 * time.Minute
	}
}
