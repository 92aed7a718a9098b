package analysis

import "github.com/ternarybob/colligo/internal/models"

// Health scores overall financial health in [0,100] from liquidity,
// leverage, and profitability subscores. Ratios must be computed first.
func Health(ratios *models.FinancialRatios, growth *models.GrowthMetrics) *models.HealthAssessment {
	if ratios == nil {
		return nil
	}

	h := &models.HealthAssessment{}

	// Liquidity: current ratio of 2 or better is full marks.
	h.Liquidity = clamp(ratios.CurrentRatio/2*100, 0, 100)
	if ratios.CurrentRatio > 0 && ratios.CurrentRatio < 1 {
		h.Flags = append(h.Flags, "current_ratio_below_one")
	}

	// Leverage: debt-to-equity of 0 is full marks, 3+ is zero.
	switch {
	case ratios.DebtToEquity < 0:
		// Negative equity.
		h.Leverage = 0
		h.Flags = append(h.Flags, "negative_equity")
	default:
		h.Leverage = clamp((3-ratios.DebtToEquity)/3*100, 0, 100)
		if ratios.DebtToEquity > 2 {
			h.Flags = append(h.Flags, "high_leverage")
		}
	}

	// Profitability: 20% net margin is full marks.
	h.Profitability = clamp(ratios.NetMargin/0.20*100, 0, 100)
	if ratios.NetMargin < 0 {
		h.Flags = append(h.Flags, "unprofitable")
	}

	h.Score = 0.35*h.Liquidity + 0.30*h.Leverage + 0.35*h.Profitability

	if growth != nil && growth.RevenueYoY < -0.10 {
		h.Flags = append(h.Flags, "revenue_contraction")
	}
	return h
}

// Lifecycle classifies the company's stage from growth and trend
// features. Unknown when the series is too short to say.
func Lifecycle(growth *models.GrowthMetrics, trend *models.TrendFeatures, ratios *models.FinancialRatios) models.LifecycleStage {
	if growth == nil || trend == nil {
		return models.LifecycleUnknown
	}

	switch {
	case growth.RevenueCAGR > 0.15:
		return models.LifecycleGrowth
	case trend.Direction == models.TrendDown && growth.RevenueYoY > 0.05:
		// Declining multi-year trend but a recovering latest year.
		return models.LifecycleTurnaround
	case trend.Direction == models.TrendDown || growth.RevenueCAGR < -0.05:
		return models.LifecycleDecline
	default:
		return models.LifecycleMature
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
