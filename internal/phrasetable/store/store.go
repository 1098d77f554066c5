// Package store assembles a mutable in-memory phrase table with immutable
// on-disk segments into one read path, grounded on internal/indexer.Engine's
// memIndex+readers merge in Search.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/latticemt/cubedecoder/internal/phrasetable"
	"github.com/latticemt/cubedecoder/internal/phrasetable/segment"
	"github.com/latticemt/cubedecoder/pkg/config"
	"github.com/latticemt/cubedecoder/pkg/resilience"
)

// Store looks up phrases across an in-memory table and every on-disk
// segment loaded from cfg.DataDir, in the order segments were written.
type Store struct {
	mem      *phrasetable.MemoryTable
	readerMu sync.RWMutex
	readers  []*segment.Reader
	cfg      config.PhraseTableConfig
	logger   *slog.Logger
	breaker  *resilience.CircuitBreaker
}

// Open loads every .ptx segment under cfg.DataDir and returns a Store ready
// for lookups. mem is an optional in-memory overlay consulted first; pass a
// fresh phrasetable.NewMemoryTable() if none is needed yet.
//
// Segment directory scans go through a circuit breaker with exponential
// backoff retry, since cfg.DataDir is frequently a mounted network volume
// shared with cmd/phraseloader and transient stat/read errors are expected.
func Open(cfg config.PhraseTableConfig, mem *phrasetable.MemoryTable) (*Store, error) {
	s := &Store{
		mem:     mem,
		cfg:     cfg,
		logger:  slog.Default().With("component", "phrasetable-store"),
		breaker: resilience.NewCircuitBreaker("phrasetable-segment-load", resilience.CircuitBreakerConfig{}),
	}
	if err := s.loadExistingSegmentsResilient(); err != nil {
		return nil, fmt.Errorf("loading existing phrase table segments: %w", err)
	}
	return s, nil
}

// LookupPhrase implements phrasetable.Lookuper by merging the in-memory
// overlay with every loaded on-disk segment.
func (s *Store) LookupPhrase(sourcePhrase string) []phrasetable.Entry {
	var entries []phrasetable.Entry
	if s.mem != nil {
		entries = append(entries, s.mem.LookupPhrase(sourcePhrase)...)
	}
	s.readerMu.RLock()
	readers := make([]*segment.Reader, len(s.readers))
	copy(readers, s.readers)
	s.readerMu.RUnlock()

	for _, reader := range readers {
		entries = append(entries, reader.LookupPhrase(sourcePhrase)...)
	}
	return entries
}

// EntryCount returns the total number of scored entries across the
// in-memory overlay and every loaded segment.
func (s *Store) EntryCount() int64 {
	var total int64
	if s.mem != nil {
		total += s.mem.EntryCount()
	}
	s.readerMu.RLock()
	defer s.readerMu.RUnlock()
	for _, reader := range s.readers {
		total += int64(reader.EntryCount())
	}
	return total
}

// SegmentCount returns the number of loaded on-disk segments.
func (s *Store) SegmentCount() int {
	s.readerMu.RLock()
	defer s.readerMu.RUnlock()
	return len(s.readers)
}

// Reload re-scans cfg.DataDir and opens any segment not already loaded.
// Returns the number of newly loaded segments.
func (s *Store) Reload() (int, error) {
	before := s.SegmentCount()
	if err := s.loadExistingSegmentsResilient(); err != nil {
		return 0, err
	}
	return s.SegmentCount() - before, nil
}

// loadExistingSegmentsResilient wraps loadExistingSegments with a bounded
// retry (exponential backoff) inside the store's circuit breaker, so a
// flaky mount doesn't fail Open or Reload on the first transient error but
// also can't be hammered indefinitely once it trips.
func (s *Store) loadExistingSegmentsResilient() error {
	return resilience.Retry(context.Background(), "phrasetable-segment-load", resilience.RetryConfig{}, func() error {
		return s.breaker.Execute(s.loadExistingSegments)
	})
}

// Close closes every open segment file.
func (s *Store) Close() error {
	s.readerMu.Lock()
	defer s.readerMu.Unlock()
	var firstErr error
	for _, reader := range s.readers {
		if err := reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Store) loadExistingSegments() error {
	entries, err := os.ReadDir(s.cfg.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading phrase table data directory: %w", err)
	}

	s.readerMu.RLock()
	loaded := make(map[string]bool, len(s.readers))
	for _, r := range s.readers {
		loaded[r.Path()] = true
	}
	s.readerMu.RUnlock()

	segFiles := make([]string, 0)
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".ptx") {
			segFiles = append(segFiles, entry.Name())
		}
	}
	sort.Strings(segFiles)

	var newReaders []*segment.Reader
	for _, name := range segFiles {
		path := filepath.Join(s.cfg.DataDir, name)
		if loaded[path] {
			continue
		}
		reader, err := segment.OpenReader(path)
		if err != nil {
			s.logger.Error("failed to open phrase table segment, skipping",
				"segment", name,
				"error", err,
			)
			continue
		}
		newReaders = append(newReaders, reader)
		s.logger.Info("phrase table segment loaded",
			"segment", name,
			"phrases", reader.PhraseCount(),
			"entries", reader.EntryCount(),
		)
	}

	if len(newReaders) > 0 {
		s.readerMu.Lock()
		s.readers = append(s.readers, newReaders...)
		s.readerMu.Unlock()
	}
	return nil
}
