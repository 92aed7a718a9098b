// Package analysis derives analytics from an extracted financial history.
// Every function is pure; the aggregator runs them sequentially after the
// extraction fragments merge.
package analysis

import "github.com/ternarybob/colligo/internal/models"

// Ratios computes financial ratios from the most recent annual period.
// Returns nil when no usable period exists.
func Ratios(history *models.FinancialHistory) *models.FinancialRatios {
	latest := latestAnnual(history)
	if latest == nil {
		return nil
	}

	r := &models.FinancialRatios{}
	if latest.CurrentLiabilities != 0 {
		r.CurrentRatio = latest.CurrentAssets / latest.CurrentLiabilities
		r.CashRatio = latest.Cash / latest.CurrentLiabilities
	}
	if latest.StockholdersEquity != 0 {
		r.DebtToEquity = latest.TotalLiabilities / latest.StockholdersEquity
		r.ROE = latest.NetIncome / latest.StockholdersEquity
	}
	if latest.Revenue != 0 {
		r.NetMargin = latest.NetIncome / latest.Revenue
	}
	if latest.TotalAssets != 0 {
		r.ROA = latest.NetIncome / latest.TotalAssets
		r.AssetTurnover = latest.Revenue / latest.TotalAssets
	}
	return r
}

// latestAnnual returns the newest fiscal-year period, or nil.
func latestAnnual(history *models.FinancialHistory) *models.FinancialPeriod {
	if history == nil {
		return nil
	}
	annual := history.Annual()
	if len(annual) == 0 {
		return nil
	}
	return &annual[len(annual)-1]
}
