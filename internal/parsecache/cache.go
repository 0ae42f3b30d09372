// Package parsecache provides a content-addressed disk cache for document
// conversion results. Conversion (OCR plus table structure recognition) is
// expensive; byte-identical uploads must replay instantly regardless of
// filename or upload path, so cache keys derive strictly from content.
package parsecache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docintel/internal/document"
)

// Metadata describes a cache entry.
type Metadata struct {
	SourceFile    string `json:"source_file"`
	CachedAt      string `json:"cached_at"`
	FileHash      string `json:"file_hash"`
	FileSizeBytes int    `json:"file_size_bytes"`
}

// Entry is the on-disk shape of one cached conversion result.
type Entry struct {
	Metadata Metadata                `json:"metadata"`
	Data     document.ParsedDocument `json:"data"`
}

// Stats summarizes cache contents.
type Stats struct {
	Dir            string `json:"cache_dir"`
	TotalFiles     int    `json:"total_files"`
	TotalSizeBytes int64  `json:"total_size_bytes"`
}

// Cache is a content-addressed disk store. Reads are safe to run
// concurrently; writes use atomic replace so readers never observe a
// partial entry.
type Cache struct {
	dir    string
	logger *zap.Logger
}

// New creates a cache rooted at dir, creating it if needed.
func New(dir string, logger *zap.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{dir: dir, logger: logger}, nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (c *Cache) entryPath(hash string) string {
	return filepath.Join(c.dir, hash+".json")
}

// Get returns the cached conversion result for the given bytes, or nil on a
// miss. Corrupt or hash-mismatched entries are deleted and reported as a
// miss; cache trouble never aborts extraction.
func (c *Cache) Get(data []byte, sourceName string) *document.ParsedDocument {
	hash := hashBytes(data)
	path := c.entryPath(hash)

	raw, err := os.ReadFile(path)
	if err != nil {
		c.logger.Debug("cache miss",
			zap.String("source", sourceName),
			zap.String("hash", hash[:8]))
		return nil
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("corrupt cache entry, invalidating",
			zap.String("path", path),
			zap.Error(err))
		_ = os.Remove(path)
		return nil
	}

	if entry.Metadata.FileHash != hash {
		c.logger.Warn("cache hash mismatch, invalidating",
			zap.String("source", sourceName),
			zap.String("stored", entry.Metadata.FileHash),
			zap.String("computed", hash[:8]))
		_ = os.Remove(path)
		return nil
	}

	c.logger.Info("cache hit",
		zap.String("source", sourceName),
		zap.String("hash", hash[:8]))
	return &entry.Data
}

// Set stores a conversion result keyed by the content hash of data. The
// entry is written to a temp file and atomically renamed into place; on
// failure any prior entry is left untouched.
func (c *Cache) Set(data []byte, doc *document.ParsedDocument, sourceName string) error {
	hash := hashBytes(data)
	path := c.entryPath(hash)

	entry := Entry{
		Metadata: Metadata{
			SourceFile:    sourceName,
			CachedAt:      time.Now().UTC().Format(time.RFC3339),
			FileHash:      hash,
			FileSizeBytes: len(data),
		},
		Data: *doc,
	}

	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, hash+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp cache file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming cache entry: %w", err)
	}

	c.logger.Info("cached conversion result",
		zap.String("source", sourceName),
		zap.String("hash", hash[:8]),
		zap.Int("size_bytes", len(data)))
	return nil
}

// Clear deletes cache entries, returning the number removed. Temp files
// left over from interrupted writes are swept as well.
func (c *Cache) Clear() (int, error) {
	entries, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("listing cache entries: %w", err)
	}

	deleted := 0
	for _, path := range entries {
		if err := os.Remove(path); err == nil {
			deleted++
		}
	}

	tmps, _ := filepath.Glob(filepath.Join(c.dir, "*.tmp"))
	for _, path := range tmps {
		_ = os.Remove(path)
	}

	c.logger.Info("cleared cache entries", zap.Int("deleted", deleted))
	return deleted, nil
}

// GetStats returns cache statistics.
func (c *Cache) GetStats() (Stats, error) {
	entries, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return Stats{}, fmt.Errorf("listing cache entries: %w", err)
	}

	var total int64
	for _, path := range entries {
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
	}

	abs, err := filepath.Abs(c.dir)
	if err != nil {
		abs = c.dir
	}
	return Stats{Dir: abs, TotalFiles: len(entries), TotalSizeBytes: total}, nil
}
