package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/cache"
	"github.com/cleberrangel/schedule-progress-api/internal/extraction"
	"github.com/cleberrangel/schedule-progress-api/internal/logger"
	"github.com/cleberrangel/schedule-progress-api/internal/metrics"
	"github.com/cleberrangel/schedule-progress-api/internal/middleware"
	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/cleberrangel/schedule-progress-api/internal/source"
	"golang.org/x/crypto/blake2b"
)

// File upload errors
var (
	ErrFileTooLarge = errors.New("arquivo excede o limite de upload")
)

const (
	// DefaultMaxFileSize is used when no limit is configured (10MB)
	DefaultMaxFileSize = 10 * 1024 * 1024
	// TempFileExpiry is how long temp files are kept before cleanup
	TempFileExpiry = 1 * time.Hour
	// cleanupInterval is how often leftover temp files are swept
	cleanupInterval = 10 * time.Minute
)

// ExtractionResult is the outcome of running the pipeline on one file
type ExtractionResult struct {
	FileName    string            `json:"file_name"`
	FileType    string            `json:"file_type"`
	Kind        source.Kind       `json:"kind"`
	Size        int64             `json:"size"`
	ContentHash string            `json:"content_hash"`
	Entries     []model.TaskEntry `json:"entries"`
	Stats       extraction.Stats  `json:"stats"`
	Cached      bool              `json:"cached"`
}

// UploadService decodes uploaded files and extracts task entries
type UploadService struct {
	tempDir  string
	maxBytes int64
	registry *source.Registry
	pipeline *extraction.Pipeline
	results  *cache.Cache[*ExtractionResult]

	tempFiles   map[string]time.Time
	tempFilesMu sync.RWMutex
}

// UploadConfig configures the upload service
type UploadConfig struct {
	TempDir   string
	MaxBytes  int64
	CacheSize int
	CacheTTL  time.Duration
}

// NewUploadService creates a new upload service
func NewUploadService(cfg UploadConfig, registry *source.Registry, pipeline *extraction.Pipeline) *UploadService {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxFileSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	if pipeline == nil {
		pipeline = extraction.Default()
	}

	return &UploadService{
		tempDir:   cfg.TempDir,
		maxBytes:  cfg.MaxBytes,
		registry:  registry,
		pipeline:  pipeline,
		results:   cache.New[*ExtractionResult](cfg.CacheSize, cfg.CacheTTL),
		tempFiles: make(map[string]time.Time),
	}
}

// NewPipeline builds the extraction pipeline with extra noise patterns from configuration
func NewPipeline(extraPatterns []string) (*extraction.Pipeline, error) {
	extra := make([]extraction.Rule, 0, len(extraPatterns))
	for i, pattern := range extraPatterns {
		rule, err := extraction.RegexRule(fmt.Sprintf("custom_%d", i+1), pattern)
		if err != nil {
			return nil, fmt.Errorf("padrão de ruído inválido %q: %w", pattern, err)
		}
		extra = append(extra, rule)
	}
	return extraction.New(extraction.DefaultPolicy().With(extra...)), nil
}

// Supported reports whether the file name has a decodable extension
func (s *UploadService) Supported(filename string) bool {
	return s.registry.Supported(filename)
}

// Pipeline returns the pipeline used for extraction
func (s *UploadService) Pipeline() *extraction.Pipeline {
	return s.pipeline
}

// ProcessFile saves, hashes, decodes and extracts an uploaded file.
// Identical content uploaded again is served from the cache.
func (s *UploadService) ProcessFile(ctx context.Context, filename string, reader io.Reader, size int64) (*ExtractionResult, error) {
	log := logger.Get(ctx)
	start := time.Now()

	if size > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	if size == 0 {
		return nil, source.ErrEmptyFile
	}
	if !s.registry.Supported(filename) {
		return nil, fmt.Errorf("%s: %w", filename, source.ErrUnsupportedType)
	}

	tempPath, hash, written, err := s.saveTempFile(filename, reader)
	if err != nil {
		return nil, err
	}
	defer s.RemoveTempFile(tempPath)

	if written == 0 {
		return nil, source.ErrEmptyFile
	}

	ext := source.Ext(filename)
	key := hash + ext
	if cached, ok := s.results.Get(key); ok {
		result := *cached
		result.FileName = filename
		result.Cached = true

		metrics.Get().IncrementFileUpload(written, true)
		log.Info().
			Str("file_name", filename).
			Str("content_hash", hash).
			Int("task_count", len(result.Entries)).
			Msg("Extração servida do cache")
		return &result, nil
	}

	metrics.Get().IncrementFileUpload(written, false)

	doc, err := s.registry.Decode(ctx, tempPath)
	if err != nil {
		metrics.Get().IncrementExtraction(false, 0, 0, time.Since(start).Milliseconds())
		return nil, err
	}

	var entries []model.TaskEntry
	var stats extraction.Stats
	if doc.IsTabular() {
		entries, stats = s.pipeline.ExtractRowsWithStats(sanitizeRows(doc.Rows))
	} else {
		entries, stats = s.pipeline.ExtractWithStats(middleware.SanitizeLines(doc.Lines))
	}

	result := &ExtractionResult{
		FileName:    filename,
		FileType:    ext,
		Kind:        doc.Kind,
		Size:        written,
		ContentHash: hash,
		Entries:     entries,
		Stats:       stats,
	}
	s.results.Set(key, result)

	elapsed := time.Since(start)
	metrics.Get().IncrementExtraction(true, len(entries), stats.Discarded(), elapsed.Milliseconds())

	log.Info().
		Str("file_name", filename).
		Str("kind", string(doc.Kind)).
		Int("lines", stats.Lines).
		Int("noise", stats.Noise).
		Int("unmatched", stats.Unmatched).
		Int("duplicates", stats.Duplicates).
		Int("task_count", len(entries)).
		Dur("duration", elapsed).
		Msg("Extração concluída")

	copied := *result
	return &copied, nil
}

// ExtractLines runs the pipeline over raw lines without touching storage.
// Lines are sanitized the same way as decoded files.
func (s *UploadService) ExtractLines(ctx context.Context, lines []string) ([]model.TaskEntry, extraction.Stats) {
	start := time.Now()
	entries, stats := s.pipeline.ExtractWithStats(middleware.SanitizeLines(lines))
	metrics.Get().IncrementExtraction(true, len(entries), stats.Discarded(), time.Since(start).Milliseconds())

	logger.Get(ctx).Debug().
		Int("lines", stats.Lines).
		Int("task_count", len(entries)).
		Msg("Extração de linhas concluída")
	return entries, stats
}

func sanitizeRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = middleware.SanitizeLines(row)
	}
	return out
}

// CacheStats returns hit/miss counters of the result cache
func (s *UploadService) CacheStats() cache.Stats {
	return s.results.Stats()
}

// saveTempFile copies reader to a temp file while hashing it with BLAKE2b-256
func (s *UploadService) saveTempFile(filename string, reader io.Reader) (string, string, int64, error) {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		return "", "", 0, err
	}

	tempFile, err := os.CreateTemp(s.tempDir, "upload_*"+source.Ext(filename))
	if err != nil {
		return "", "", 0, fmt.Errorf("erro ao salvar arquivo temporário: %w", err)
	}
	defer tempFile.Close()

	// Copy content with size limit
	limited := io.LimitReader(reader, s.maxBytes+1)
	written, err := io.Copy(io.MultiWriter(tempFile, hasher), limited)
	if err != nil {
		os.Remove(tempFile.Name())
		return "", "", 0, fmt.Errorf("erro ao salvar arquivo temporário: %w", err)
	}

	if written > s.maxBytes {
		os.Remove(tempFile.Name())
		return "", "", 0, ErrFileTooLarge
	}

	s.trackTempFile(tempFile.Name())
	return tempFile.Name(), hex.EncodeToString(hasher.Sum(nil)), written, nil
}

// trackTempFile adds a temp file to the tracking map
func (s *UploadService) trackTempFile(path string) {
	s.tempFilesMu.Lock()
	defer s.tempFilesMu.Unlock()
	s.tempFiles[path] = time.Now()
}

// RemoveTempFile removes a temp file from tracking and deletes it
func (s *UploadService) RemoveTempFile(path string) error {
	s.tempFilesMu.Lock()
	delete(s.tempFiles, path)
	s.tempFilesMu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// TrackedTempFiles returns how many temp files are pending removal
func (s *UploadService) TrackedTempFiles() int {
	s.tempFilesMu.RLock()
	defer s.tempFilesMu.RUnlock()
	return len(s.tempFiles)
}

// RunCleanup periodically removes temp files left behind, until ctx is done
func (s *UploadService) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpiredFiles(time.Now())
		}
	}
}

// cleanupExpiredFiles removes temp files older than TempFileExpiry
func (s *UploadService) cleanupExpiredFiles(now time.Time) int {
	s.tempFilesMu.Lock()
	defer s.tempFilesMu.Unlock()

	removed := 0
	for path, created := range s.tempFiles {
		if now.Sub(created) > TempFileExpiry {
			os.Remove(path)
			delete(s.tempFiles, path)
			removed++
		}
	}
	return removed
}
