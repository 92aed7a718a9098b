package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// FilingSource fetches filing metadata and content from EDGAR.
type FilingSource interface {
	// FetchFilings returns filings for a CIK within the lookback window,
	// newest first.
	FetchFilings(ctx context.Context, cik string, lookbackYears int) ([]models.Filing, error)

	// FetchContent downloads the primary document of a filing.
	FetchContent(ctx context.Context, filing *models.Filing) (string, error)
}

// CompanyDirectory resolves companies in the EDGAR ticker index.
type CompanyDirectory interface {
	// Lookup returns the company for a CIK.
	Lookup(cik string) (models.CompanyInfo, bool)

	// LookupTicker returns the company for an exchange ticker.
	LookupTicker(ticker string) (models.CompanyInfo, bool)

	// Search returns companies whose name or ticker matches the query.
	Search(query string, limit int) []models.CompanyInfo

	// All returns every indexed company.
	All() []models.CompanyInfo
}
