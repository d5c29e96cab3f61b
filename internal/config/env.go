package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INGESTD_"

// LoadDotEnv loads variables from the given .env files (".env" when none are given).
// Missing files are ignored; variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with INGESTD_* environment variables.
// Returns an error naming the first variable that cannot be parsed.
func ApplyEnv(cfg *Config) error {
	strs := map[string]*string{
		"HOST":                 &cfg.Server.Host,
		"FETCH_USER_AGENT":     &cfg.Fetch.UserAgent,
		"EXTRACT_TEMP_DIR":     &cfg.Extract.TempDir,
		"EMBEDDING_PROVIDER":   &cfg.Embedding.Provider,
		"EMBEDDING_MODEL_PATH": &cfg.Embedding.ModelPath,
		"EMBEDDING_TOKENIZER":  &cfg.Embedding.TokenizerPath,
		"EMBEDDING_MODEL":      &cfg.Embedding.ModelName,
		"OLLAMA_URL":           &cfg.Embedding.OllamaURL,
		"INDEX_PATH":           &cfg.Index.Path,
		"INDEX_TYPE":           &cfg.Index.Type,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":                 &cfg.Server.Port,
		"CHUNK_SIZE":           &cfg.Chunking.ChunkSize,
		"CHUNK_OVERLAP":        &cfg.Chunking.ChunkOverlap,
		"EMBEDDING_DIMENSIONS": &cfg.Embedding.Dimensions,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"FETCH_TIMEOUT":     &cfg.Fetch.Timeout,
		"EXTRACT_TIMEOUT":   &cfg.Extract.Timeout,
		"EMBEDDING_TIMEOUT": &cfg.Embedding.Timeout,
		"INDEX_TIMEOUT":     &cfg.Index.Timeout,
	}
	for key, dst := range durations {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
	}

	if v, ok := os.LookupEnv(EnvPrefix + "DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDEBUG: %w", EnvPrefix, err)
		}
		cfg.Debug = b
	}
	return cfg.Validate()
}
