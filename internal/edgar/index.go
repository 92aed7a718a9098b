package edgar

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// CompanyIndex is an in-memory directory of EDGAR registrants built from
// company_tickers.json. Lookups are read-heavy; the index is immutable
// after Load aside from full refreshes.
type CompanyIndex struct {
	mu        sync.RWMutex
	byCIK     map[string]models.CompanyInfo
	byTicker  map[string]models.CompanyInfo
	companies []models.CompanyInfo
	logger    arbor.ILogger
}

// NewCompanyIndex creates an empty company index.
func NewCompanyIndex(logger arbor.ILogger) *CompanyIndex {
	return &CompanyIndex{
		byCIK:    make(map[string]models.CompanyInfo),
		byTicker: make(map[string]models.CompanyInfo),
		logger:   logger,
	}
}

// Load populates the index from the EDGAR ticker file.
func (x *CompanyIndex) Load(ctx context.Context, client *Client) error {
	companies, err := client.FetchCompanyIndex(ctx)
	if err != nil {
		return err
	}
	x.Replace(companies)
	return nil
}

// Replace swaps the full contents of the index.
func (x *CompanyIndex) Replace(companies []models.CompanyInfo) {
	byCIK := make(map[string]models.CompanyInfo, len(companies))
	byTicker := make(map[string]models.CompanyInfo, len(companies))
	for _, c := range companies {
		byCIK[c.CIK] = c
		if c.Ticker != "" {
			byTicker[strings.ToUpper(c.Ticker)] = c
		}
	}

	sorted := make([]models.CompanyInfo, len(companies))
	copy(sorted, companies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	x.mu.Lock()
	x.byCIK = byCIK
	x.byTicker = byTicker
	x.companies = sorted
	x.mu.Unlock()

	if x.logger != nil {
		x.logger.Debug().Int("companies", len(companies)).Msg("Company index replaced")
	}
}

// Lookup returns the company for a CIK.
func (x *CompanyIndex) Lookup(cik string) (models.CompanyInfo, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	c, ok := x.byCIK[cik]
	return c, ok
}

// LookupTicker returns the company for an exchange ticker.
func (x *CompanyIndex) LookupTicker(ticker string) (models.CompanyInfo, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	c, ok := x.byTicker[strings.ToUpper(ticker)]
	return c, ok
}

// Search returns companies whose name or ticker contains the query,
// case-insensitive, ticker matches first.
func (x *CompanyIndex) Search(query string, limit int) []models.CompanyInfo {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = 20
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	var matches []models.CompanyInfo
	if c, ok := x.byTicker[strings.ToUpper(query)]; ok {
		matches = append(matches, c)
	}
	for _, c := range x.companies {
		if len(matches) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(c.Name), query) && !strings.EqualFold(c.Ticker, query) {
			matches = append(matches, c)
		}
	}
	return matches
}

// All returns every indexed company, sorted by name.
func (x *CompanyIndex) All() []models.CompanyInfo {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]models.CompanyInfo, len(x.companies))
	copy(out, x.companies)
	return out
}

// Size returns the number of indexed companies.
func (x *CompanyIndex) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.companies)
}

var _ interfaces.CompanyDirectory = (*CompanyIndex)(nil)
