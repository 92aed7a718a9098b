package analysis

import (
	"math"

	"github.com/ternarybob/colligo/internal/models"
)

// Growth computes year-over-year and compound growth rates over the
// annual series. Returns nil with fewer than two annual periods.
func Growth(history *models.FinancialHistory) *models.GrowthMetrics {
	if history == nil {
		return nil
	}
	annual := history.Annual()
	if len(annual) < 2 {
		return nil
	}

	first, last := annual[0], annual[len(annual)-1]
	prev := annual[len(annual)-2]
	years := last.FiscalYear - first.FiscalYear

	g := &models.GrowthMetrics{CAGRYears: years}
	if prev.Revenue != 0 {
		g.RevenueYoY = (last.Revenue - prev.Revenue) / math.Abs(prev.Revenue)
	}
	if prev.NetIncome != 0 {
		g.NetIncomeYoY = (last.NetIncome - prev.NetIncome) / math.Abs(prev.NetIncome)
	}
	if years > 0 {
		g.RevenueCAGR = cagr(first.Revenue, last.Revenue, years)
		g.NetIncomeCAGR = cagr(first.NetIncome, last.NetIncome, years)
	}
	return g
}

// cagr is the compound annual growth rate between two positive values.
// Zero when the endpoints do not support a meaningful rate.
func cagr(start, end float64, years int) float64 {
	if start <= 0 || end <= 0 || years <= 0 {
		return 0
	}
	return math.Pow(end/start, 1/float64(years)) - 1
}
