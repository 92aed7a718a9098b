// Package cache provides the disk-backed filing cache. Filing lists and
// filing content live as files under one directory; an in-memory index
// tracks sizes and access order and evicts least-recently-accessed
// entries when the byte capacity is exceeded.
package cache

import (
	"container/list"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// entry is one cached file tracked by the index.
type entry struct {
	key     string
	path    string
	size    int64
	element *list.Element
}

// Service implements the FilingCache interface over a cache directory.
// One mutex guards the index and all file operations; generation
// workloads are dominated by network time, not cache contention.
type Service struct {
	mu       sync.Mutex
	dir      string
	capacity int64
	size     int64
	entries  map[string]*entry
	lru      *list.List // front = most recently accessed
	logger   arbor.ILogger

	hits      int64
	misses    int64
	evictions int64
}

// NewService creates the cache, restoring the index from files already
// on disk. Restored entries are ordered by file modification time.
func NewService(config *common.CacheConfig, logger arbor.ILogger) (*Service, error) {
	if logger == nil {
		logger = common.GetLogger()
	}
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &Service{
		dir:      config.Dir,
		capacity: config.CapacityBytes,
		entries:  make(map[string]*entry),
		lru:      list.New(),
		logger:   logger,
	}

	if err := s.restore(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("dir", config.Dir).
		Int64("capacity_bytes", config.CapacityBytes).
		Int("entries", len(s.entries)).
		Msg("Filing cache initialized")

	return s, nil
}

// restore rebuilds the index from the cache directory.
func (s *Service) restore() error {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	type candidate struct {
		name  string
		size  int64
		mtime int64
	}
	var candidates []candidate
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		if !strings.HasPrefix(name, "filings_") && !strings.HasPrefix(name, "content_") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: name, size: info.Size(), mtime: info.ModTime().UnixNano()})
	}

	// Oldest first so the most recently written files end up at the
	// front of the LRU list.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].mtime < candidates[j].mtime })

	for _, c := range candidates {
		key := strings.TrimSuffix(c.name, filepath.Ext(c.name))
		e := &entry{
			key:  key,
			path: filepath.Join(s.dir, c.name),
			size: c.size,
		}
		e.element = s.lru.PushFront(e)
		s.entries[key] = e
		s.size += c.size
	}

	// Respect capacity if the restored set grew past it.
	s.evictFor(0, "")
	return nil
}

// filingsKey identifies one (CIK, lookback window) filing list.
func filingsKey(cik string, lookbackYears int) string {
	return fmt.Sprintf("filings_%s_%d", cik, lookbackYears)
}

// contentKey identifies one filing document, accession dash-stripped.
func contentKey(cik, accessionNumber string) string {
	return fmt.Sprintf("content_%s_%s", cik, strings.ReplaceAll(accessionNumber, "-", ""))
}

// GetFilings returns the cached filing list for a CIK and lookback window.
func (s *Service) GetFilings(cik string, lookbackYears int) ([]models.Filing, bool) {
	data, ok := s.get(filingsKey(cik, lookbackYears))
	if !ok {
		return nil, false
	}

	var filings []models.Filing
	if err := json.Unmarshal(data, &filings); err != nil {
		// Corrupted entry behaves as a miss and is dropped.
		s.drop(filingsKey(cik, lookbackYears))
		return nil, false
	}
	return filings, true
}

// PutFilings stores a filing list.
func (s *Service) PutFilings(cik string, lookbackYears int, filings []models.Filing) error {
	data, err := json.Marshal(filings)
	if err != nil {
		return fmt.Errorf("failed to encode filing list: %w", err)
	}
	return s.put(filingsKey(cik, lookbackYears), ".json", data)
}

// GetContent returns cached filing content.
func (s *Service) GetContent(cik, accessionNumber string) (string, bool) {
	data, ok := s.get(contentKey(cik, accessionNumber))
	if !ok {
		return "", false
	}
	return string(data), true
}

// PutContent stores filing content.
func (s *Service) PutContent(cik, accessionNumber, content string) error {
	return s.put(contentKey(cik, accessionNumber), ".txt", []byte(content))
}

// get reads an entry and marks it most recently accessed.
func (s *Service) get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.misses++
		return nil, false
	}

	data, err := os.ReadFile(e.path)
	if err != nil {
		// Unreadable entry behaves as a miss and is dropped.
		s.removeLocked(e)
		s.misses++
		s.logger.Warn().Str("key", key).Err(err).Msg("Dropping unreadable cache entry")
		return nil, false
	}

	s.lru.MoveToFront(e.element)
	s.hits++
	return data, true
}

// put writes an entry, evicting older entries to stay under capacity.
// The entry being inserted is never an eviction candidate.
func (s *Service) put(key, ext string, data []byte) error {
	size := int64(len(data))

	s.mu.Lock()
	defer s.mu.Unlock()

	if size > s.capacity {
		s.logger.Warn().
			Str("key", key).
			Int64("size", size).
			Int64("capacity", s.capacity).
			Msg("Entry larger than cache capacity, not cached")
		return nil
	}

	// Replace an existing entry in place.
	if e, ok := s.entries[key]; ok {
		s.removeLocked(e)
	}

	s.evictFor(size, key)

	path := filepath.Join(s.dir, key+ext)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize cache entry: %w", err)
	}

	e := &entry{key: key, path: path, size: size}
	e.element = s.lru.PushFront(e)
	s.entries[key] = e
	s.size += size
	return nil
}

// evictFor removes least-recently-accessed entries until incoming bytes
// fit under capacity. Callers hold the lock. keep is never evicted.
func (s *Service) evictFor(incoming int64, keep string) {
	for s.size+incoming > s.capacity {
		back := s.lru.Back()
		if back == nil {
			return
		}
		victim := back.Value.(*entry)
		if victim.key == keep {
			return
		}
		s.removeLocked(victim)
		s.evictions++
		s.logger.Debug().
			Str("key", victim.key).
			Int64("size", victim.size).
			Msg("Evicted cache entry")
	}
}

// removeLocked deletes an entry and its file. Callers hold the lock.
func (s *Service) removeLocked(e *entry) {
	s.lru.Remove(e.element)
	delete(s.entries, e.key)
	s.size -= e.size
	if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Str("key", e.key).Err(err).Msg("Failed to remove cache file")
	}
}

// drop removes an entry by key.
func (s *Service) drop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		s.removeLocked(e)
	}
}

// Stats returns cache counters.
func (s *Service) Stats() interfaces.CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return interfaces.CacheStats{
		Entries:       len(s.entries),
		SizeBytes:     s.size,
		CapacityBytes: s.capacity,
		Hits:          s.hits,
		Misses:        s.misses,
		Evictions:     s.evictions,
	}
}

// ClearCompany removes every filing list and content entry for a CIK.
func (s *Service) ClearCompany(cik string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filingsPrefix := fmt.Sprintf("filings_%s_", cik)
	contentPrefix := fmt.Sprintf("content_%s_", cik)

	removed := 0
	for key, e := range s.entries {
		if !strings.HasPrefix(key, filingsPrefix) && !strings.HasPrefix(key, contentPrefix) {
			continue
		}
		s.removeLocked(e)
		removed++
	}

	s.logger.Info().
		Str("cik", cik).
		Int("removed", removed).
		Msg("Filing cache cleared for company")
	return nil
}

// Clear removes all entries.
func (s *Service) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Str("key", e.key).Err(err).Msg("Failed to remove cache file")
		}
	}
	s.entries = make(map[string]*entry)
	s.lru.Init()
	s.size = 0

	s.logger.Info().Msg("Filing cache cleared")
	return nil
}

var _ interfaces.FilingCache = (*Service)(nil)
