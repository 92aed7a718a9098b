package interfaces

import "github.com/ternarybob/colligo/internal/models"

// CacheStats is a point-in-time snapshot of the filing cache.
type CacheStats struct {
	Entries       int   `json:"entries"`
	SizeBytes     int64 `json:"size_bytes"`
	CapacityBytes int64 `json:"capacity_bytes"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Evictions     int64 `json:"evictions"`
}

// FilingCache stores filing lists and filing content on disk with a
// byte-capacity bound and least-recently-accessed eviction. A corrupted
// or unreadable entry behaves as a miss.
type FilingCache interface {
	// GetFilings returns the cached filing list for a CIK and lookback
	// window, or ok=false on a miss.
	GetFilings(cik string, lookbackYears int) ([]models.Filing, bool)

	// PutFilings stores a filing list, evicting older entries as needed.
	PutFilings(cik string, lookbackYears int, filings []models.Filing) error

	// GetContent returns cached filing content, or ok=false on a miss.
	GetContent(cik, accessionNumber string) (string, bool)

	// PutContent stores filing content, evicting older entries as needed.
	PutContent(cik, accessionNumber, content string) error

	// Stats returns cache counters.
	Stats() CacheStats

	// ClearCompany removes every entry for one CIK.
	ClearCompany(cik string) error

	// Clear removes all entries.
	Clear() error
}
