package extract

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/colligo/internal/edgar"
	"github.com/ternarybob/colligo/internal/models"
)

// factField identifies which FinancialPeriod field a concept feeds and
// whether the value is a duration (flow) or an instant (stock).
type factField struct {
	unit     string
	flow     bool
	concepts []string
	assign   func(*models.FinancialPeriod, float64)
}

// factFields lists the us-gaap concepts consumed, with fallbacks ordered
// by preference. Taxonomy tags vary by filer vintage.
var factFields = []factField{
	{
		unit: "USD", flow: true,
		concepts: []string{"Revenues", "RevenueFromContractWithCustomerExcludingAssessedTax", "SalesRevenueNet"},
		assign:   func(p *models.FinancialPeriod, v float64) { p.Revenue = v },
	},
	{
		unit: "USD", flow: true,
		concepts: []string{"NetIncomeLoss"},
		assign:   func(p *models.FinancialPeriod, v float64) { p.NetIncome = v },
	},
	{
		unit: "USD", flow: true,
		concepts: []string{"NetCashProvidedByUsedInOperatingActivities"},
		assign:   func(p *models.FinancialPeriod, v float64) { p.OperatingCashFlow = v },
	},
	{
		unit:     "USD",
		concepts: []string{"Assets"},
		assign:   func(p *models.FinancialPeriod, v float64) { p.TotalAssets = v },
	},
	{
		unit:     "USD",
		concepts: []string{"Liabilities"},
		assign:   func(p *models.FinancialPeriod, v float64) { p.TotalLiabilities = v },
	},
	{
		unit:     "USD",
		concepts: []string{"StockholdersEquity", "StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest"},
		assign:   func(p *models.FinancialPeriod, v float64) { p.StockholdersEquity = v },
	},
	{
		unit:     "USD",
		concepts: []string{"AssetsCurrent"},
		assign:   func(p *models.FinancialPeriod, v float64) { p.CurrentAssets = v },
	},
	{
		unit:     "USD",
		concepts: []string{"LiabilitiesCurrent"},
		assign:   func(p *models.FinancialPeriod, v float64) { p.CurrentLiabilities = v },
	},
	{
		unit:     "USD",
		concepts: []string{"CashAndCashEquivalentsAtCarryingValue"},
		assign:   func(p *models.FinancialPeriod, v float64) { p.Cash = v },
	},
	{
		unit:     "USD",
		concepts: []string{"LongTermDebtNoncurrent", "LongTermDebt"},
		assign:   func(p *models.FinancialPeriod, v float64) { p.LongTermDebt = v },
	},
	{
		unit:     "shares",
		concepts: []string{"CommonStockSharesOutstanding"},
		assign:   func(p *models.FinancialPeriod, v float64) { p.SharesOutstanding = v },
	},
	{
		unit: "USD/shares", flow: true,
		concepts: []string{"EarningsPerShareBasic"},
		assign:   func(p *models.FinancialPeriod, v float64) { p.EPS = v },
	},
}

// Financials builds the reporting-period time series from the XBRL
// company facts API rather than scraping filing HTML. Periods outside
// the lookback window are dropped; output is oldest first.
func Financials(ctx context.Context, in *Input) (*models.Fragment, error) {
	if in.Facts == nil {
		return &models.Fragment{Kind: models.TaskFinancials}, nil
	}

	facts, err := in.Facts(ctx)
	if err != nil {
		return nil, fmt.Errorf("company facts fetch failed: %w", err)
	}

	gaap := facts.Facts["us-gaap"]
	if len(gaap) == 0 {
		return &models.Fragment{Kind: models.TaskFinancials}, nil
	}

	minYear := 0
	if in.LookbackYears > 0 {
		minYear = time.Now().Year() - in.LookbackYears
	}

	type periodKey struct {
		fy int
		fp string
	}
	periods := make(map[periodKey]*models.FinancialPeriod)
	filed := make(map[string]string) // assignment recency per key+concept

	for _, field := range factFields {
		concept := pickConcept(gaap, field.concepts)
		if concept == "" {
			continue
		}
		for _, row := range gaap[concept].Units[field.unit] {
			if row.FY < minYear || row.FP == "" {
				continue
			}
			if row.Form != "10-K" && row.Form != "10-Q" {
				continue
			}
			// Annual flow rows must span the fiscal year, not one quarter.
			if field.flow && row.FP == "FY" && !fullYearSpan(row) {
				continue
			}

			key := periodKey{fy: row.FY, fp: row.FP}
			recencyKey := fmt.Sprintf("%d/%s/%s", row.FY, row.FP, concept)
			if prev, ok := filed[recencyKey]; ok && prev >= row.Filed {
				continue
			}
			filed[recencyKey] = row.Filed

			p := periods[key]
			if p == nil {
				p = &models.FinancialPeriod{FiscalYear: row.FY, Period: row.FP}
				periods[key] = p
			}
			field.assign(p, row.Value)
			if end, err := time.Parse("2006-01-02", row.End); err == nil && end.After(p.PeriodEnd) {
				p.PeriodEnd = end
			}
		}
	}

	if len(periods) == 0 {
		return &models.Fragment{Kind: models.TaskFinancials}, nil
	}

	history := &models.FinancialHistory{Currency: "USD"}
	for _, p := range periods {
		history.Periods = append(history.Periods, *p)
	}
	sort.Slice(history.Periods, func(i, j int) bool {
		a, b := history.Periods[i], history.Periods[j]
		if a.FiscalYear != b.FiscalYear {
			return a.FiscalYear < b.FiscalYear
		}
		return a.Period < b.Period
	})

	return &models.Fragment{
		Kind:       models.TaskFinancials,
		Financials: history,
	}, nil
}

// pickConcept returns the first concept present in the fact set.
func pickConcept(gaap map[string]edgar.FactGroup, concepts []string) string {
	for _, c := range concepts {
		if group, ok := gaap[c]; ok && len(group.Units) > 0 {
			return c
		}
	}
	return ""
}

// fullYearSpan reports whether a duration row covers a full fiscal year.
func fullYearSpan(row edgar.FactUnit) bool {
	if row.Start == "" {
		return true
	}
	start, err1 := time.Parse("2006-01-02", row.Start)
	end, err2 := time.Parse("2006-01-02", row.End)
	if err1 != nil || err2 != nil {
		return true
	}
	return end.Sub(start) > 300*24*time.Hour
}
