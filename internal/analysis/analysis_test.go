package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/models"
)

func annualHistory(revenues ...float64) *models.FinancialHistory {
	h := &models.FinancialHistory{}
	for i, rev := range revenues {
		year := 2019 + i
		h.Periods = append(h.Periods, models.FinancialPeriod{
			PeriodEnd:          time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
			FiscalYear:         year,
			Period:             "FY",
			Revenue:            rev,
			NetIncome:          rev * 0.1,
			TotalAssets:        rev * 2,
			TotalLiabilities:   rev,
			StockholdersEquity: rev,
			CurrentAssets:      rev * 0.8,
			CurrentLiabilities: rev * 0.4,
			Cash:               rev * 0.2,
		})
	}
	return h
}

func TestRatios(t *testing.T) {
	r := Ratios(annualHistory(100, 110, 120))
	require.NotNil(t, r)

	assert.InDelta(t, 2.0, r.CurrentRatio, 1e-9)
	assert.InDelta(t, 1.0, r.DebtToEquity, 1e-9)
	assert.InDelta(t, 0.1, r.NetMargin, 1e-9)
	assert.InDelta(t, 0.05, r.ROA, 1e-9)
	assert.InDelta(t, 0.1, r.ROE, 1e-9)
	assert.InDelta(t, 0.5, r.AssetTurnover, 1e-9)
}

func TestRatiosNoData(t *testing.T) {
	assert.Nil(t, Ratios(nil))
	assert.Nil(t, Ratios(&models.FinancialHistory{}))

	// Quarterly-only history has no annual period to use.
	h := &models.FinancialHistory{Periods: []models.FinancialPeriod{{Period: "Q1", Revenue: 10}}}
	assert.Nil(t, Ratios(h))
}

func TestGrowth(t *testing.T) {
	g := Growth(annualHistory(100, 110, 121))
	require.NotNil(t, g)

	assert.InDelta(t, 0.10, g.RevenueYoY, 1e-9)
	assert.InDelta(t, 0.10, g.RevenueCAGR, 1e-9)
	assert.Equal(t, 2, g.CAGRYears)
}

func TestGrowthInsufficientPeriods(t *testing.T) {
	assert.Nil(t, Growth(annualHistory(100)))
}

func TestStats(t *testing.T) {
	s := Stats(annualHistory(100, 200, 300))
	require.NotNil(t, s)

	assert.InDelta(t, 200, s.RevenueMean, 1e-9)
	assert.InDelta(t, 100, s.RevenueMin, 1e-9)
	assert.InDelta(t, 300, s.RevenueMax, 1e-9)
	assert.InDelta(t, math.Sqrt(20000.0/3), s.RevenueStdDev, 1e-6)
	assert.Equal(t, 3, s.Periods)
}

func TestTrendDirections(t *testing.T) {
	tests := []struct {
		name     string
		revenues []float64
		want     models.TrendDirection
	}{
		{"rising", []float64{100, 120, 140, 160}, models.TrendUp},
		{"falling", []float64{160, 140, 120, 100}, models.TrendDown},
		{"flat", []float64{100, 100, 100, 100}, models.TrendFlat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trend := Trend(annualHistory(tt.revenues...))
			require.NotNil(t, trend)
			assert.Equal(t, tt.want, trend.Direction)
		})
	}
}

func TestTrendStreaks(t *testing.T) {
	trend := Trend(annualHistory(100, 90, 95, 105, 120))
	require.NotNil(t, trend)
	assert.Equal(t, 3, trend.ConsecutiveUp)
	assert.Equal(t, 0, trend.ConsecutiveDown)
}

func TestVolatility(t *testing.T) {
	v := Volatility(annualHistory(100, 150, 75, 160))
	require.NotNil(t, v)
	assert.Greater(t, v.RevenueVolatility, 0.0)
	assert.Greater(t, v.RevenueCV, 0.0)

	steady := Volatility(annualHistory(100, 100, 100))
	require.NotNil(t, steady)
	assert.InDelta(t, 0, steady.RevenueVolatility, 1e-9)
}

func TestAnomalies(t *testing.T) {
	// A single collapse year inside an otherwise steady series.
	h := annualHistory(100, 102, 104, 106, 30, 108, 110, 112, 114)
	anomalies := Anomalies(h)
	require.NotEmpty(t, anomalies)

	found := false
	for _, a := range anomalies {
		if a.Metric == "revenue" && a.FiscalYear == 2023 {
			found = true
			assert.Greater(t, math.Abs(a.ZScore), 2.0)
		}
	}
	assert.True(t, found, "collapse year must be flagged")

	assert.Empty(t, Anomalies(annualHistory(100, 110, 120)), "short series is never flagged")
	assert.Empty(t, Anomalies(annualHistory(100, 102, 104, 106, 108)), "steady series is never flagged")
}

func TestHealthScoreBounds(t *testing.T) {
	h := Health(&models.FinancialRatios{
		CurrentRatio: 2.5,
		DebtToEquity: 0.5,
		NetMargin:    0.25,
	}, nil)
	require.NotNil(t, h)
	assert.GreaterOrEqual(t, h.Score, 0.0)
	assert.LessOrEqual(t, h.Score, 100.0)
	assert.Empty(t, h.Flags)

	weak := Health(&models.FinancialRatios{
		CurrentRatio: 0.5,
		DebtToEquity: 4,
		NetMargin:    -0.2,
	}, &models.GrowthMetrics{RevenueYoY: -0.3})
	require.NotNil(t, weak)
	assert.Less(t, weak.Score, h.Score)
	assert.Contains(t, weak.Flags, "current_ratio_below_one")
	assert.Contains(t, weak.Flags, "high_leverage")
	assert.Contains(t, weak.Flags, "unprofitable")
	assert.Contains(t, weak.Flags, "revenue_contraction")
}

func TestLifecycle(t *testing.T) {
	up := &models.TrendFeatures{Direction: models.TrendUp}
	down := &models.TrendFeatures{Direction: models.TrendDown}

	assert.Equal(t, models.LifecycleGrowth, Lifecycle(&models.GrowthMetrics{RevenueCAGR: 0.30}, up, nil))
	assert.Equal(t, models.LifecycleMature, Lifecycle(&models.GrowthMetrics{RevenueCAGR: 0.03}, up, nil))
	assert.Equal(t, models.LifecycleDecline, Lifecycle(&models.GrowthMetrics{RevenueCAGR: -0.10, RevenueYoY: -0.05}, down, nil))
	assert.Equal(t, models.LifecycleTurnaround, Lifecycle(&models.GrowthMetrics{RevenueCAGR: -0.02, RevenueYoY: 0.10}, down, nil))
	assert.Equal(t, models.LifecycleUnknown, Lifecycle(nil, nil, nil))
}

func TestRunAttachesAnalytics(t *testing.T) {
	profile := &models.CompanyProfile{
		CIK:        "0000320193",
		Financials: annualHistory(100, 110, 121),
		FilingActivity: &models.FilingActivity{
			TotalFilings: 42,
		},
	}
	Run(profile)

	require.NotNil(t, profile.Analytics)
	assert.NotNil(t, profile.Analytics.Ratios)
	assert.NotNil(t, profile.Analytics.Growth)
	assert.NotNil(t, profile.Analytics.Health)
	assert.Equal(t, 42.0, profile.Analytics.Features["total_filings"])
	assert.Equal(t, models.LifecycleMature, profile.Analytics.Lifecycle)
}
