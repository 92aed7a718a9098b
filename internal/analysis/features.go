package analysis

import "github.com/ternarybob/colligo/internal/models"

// Features flattens the computed analytics into a named feature vector
// suitable for downstream models. Missing sections contribute nothing.
func Features(a *models.Analytics, profile *models.CompanyProfile) map[string]float64 {
	features := make(map[string]float64)

	if a.Ratios != nil {
		features["current_ratio"] = a.Ratios.CurrentRatio
		features["debt_to_equity"] = a.Ratios.DebtToEquity
		features["net_margin"] = a.Ratios.NetMargin
		features["roa"] = a.Ratios.ROA
		features["roe"] = a.Ratios.ROE
		features["asset_turnover"] = a.Ratios.AssetTurnover
	}
	if a.Growth != nil {
		features["revenue_yoy"] = a.Growth.RevenueYoY
		features["net_income_yoy"] = a.Growth.NetIncomeYoY
		features["revenue_cagr"] = a.Growth.RevenueCAGR
	}
	if a.Trend != nil {
		features["revenue_slope"] = a.Trend.Slope
		features["trend_r_squared"] = a.Trend.RSquared
		features["consecutive_up"] = float64(a.Trend.ConsecutiveUp)
		features["consecutive_down"] = float64(a.Trend.ConsecutiveDown)
	}
	if a.Volatility != nil {
		features["revenue_volatility"] = a.Volatility.RevenueVolatility
		features["revenue_cv"] = a.Volatility.RevenueCV
	}
	if a.Health != nil {
		features["health_score"] = a.Health.Score
	}
	features["anomaly_count"] = float64(len(a.Anomalies))

	if profile != nil {
		if profile.FilingActivity != nil {
			features["total_filings"] = float64(profile.FilingActivity.TotalFilings)
		}
		features["event_count"] = float64(len(profile.Events))
		features["people_count"] = float64(len(profile.People))
		features["relationship_count"] = float64(len(profile.Relationships))
		if profile.Insider != nil && profile.Insider.TotalTransactions > 0 {
			features["insider_buy_ratio"] = float64(profile.Insider.Acquisitions) / float64(profile.Insider.TotalTransactions)
		}
		if profile.Ownership != nil {
			features["activist_stakes"] = float64(profile.Ownership.ActivistStakes)
		}
	}

	return features
}

// Run executes the full sequential post-processing chain over a merged
// profile and attaches the result.
func Run(profile *models.CompanyProfile) {
	a := &models.Analytics{}
	a.Ratios = Ratios(profile.Financials)
	a.Growth = Growth(profile.Financials)
	a.Stats = Stats(profile.Financials)
	a.Trend = Trend(profile.Financials)
	a.Health = Health(a.Ratios, a.Growth)
	a.Volatility = Volatility(profile.Financials)
	a.Lifecycle = Lifecycle(a.Growth, a.Trend, a.Ratios)
	a.Anomalies = Anomalies(profile.Financials)
	a.Features = Features(a, profile)
	profile.Analytics = a
}
