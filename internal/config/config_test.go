package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("Retrieval.TopK = %d, want 3", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.SimilarityThreshold != 0.5 {
		t.Errorf("Retrieval.SimilarityThreshold = %v, want 0.5", cfg.Retrieval.SimilarityThreshold)
	}
	if cfg.Confidence.MethodWeights.LLMAssisted != 0.60 {
		t.Errorf("MethodWeights.LLMAssisted = %v, want 0.60", cfg.Confidence.MethodWeights.LLMAssisted)
	}
	if len(cfg.Confidence.SimilarityBoosts) != 4 {
		t.Errorf("SimilarityBoosts len = %d, want 4", len(cfg.Confidence.SimilarityBoosts))
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("cache:\n  dir: /tmp/parse-cache\nretrieval:\n  top_k: 5\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DOCINTEL_RETRIEVAL_SIMILARITY_THRESHOLD", "0.6")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.Dir != "/tmp/parse-cache" {
		t.Errorf("Cache.Dir = %q, want /tmp/parse-cache", cfg.Cache.Dir)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("Retrieval.TopK = %d, want 5 (from file)", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.SimilarityThreshold != 0.6 {
		t.Errorf("Retrieval.SimilarityThreshold = %v, want 0.6 (from env)", cfg.Retrieval.SimilarityThreshold)
	}
	// Untouched values keep defaults.
	if cfg.Embedding.Model != "mxbai-embed-large" {
		t.Errorf("Embedding.Model = %q, want default", cfg.Embedding.Model)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.Dir != Default().Cache.Dir {
		t.Errorf("Cache.Dir = %q, want default", cfg.Cache.Dir)
	}
}

func TestValidateBoostOrdering(t *testing.T) {
	cfg := Default()
	cfg.Confidence.SimilarityBoosts = []BoostBand{
		{MinSimilarity: 0.5, Boost: 0.7},
		{MinSimilarity: 0.85, Boost: 1.0},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unsorted boost bands should fail validation")
	}
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("api-key-value")
	if s.String() != "[REDACTED]" {
		t.Errorf("String() = %q, want [REDACTED]", s.String())
	}
	if s.Value() != "api-key-value" {
		t.Errorf("Value() = %q, want raw value", s.Value())
	}
	if !s.IsSet() {
		t.Error("IsSet() = false, want true")
	}
}
