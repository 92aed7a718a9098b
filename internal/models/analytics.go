package models

// FinancialRatios holds ratio values computed from the latest period.
type FinancialRatios struct {
	CurrentRatio  float64 `json:"current_ratio,omitempty"`
	DebtToEquity  float64 `json:"debt_to_equity,omitempty"`
	NetMargin     float64 `json:"net_margin,omitempty"`
	ROA           float64 `json:"roa,omitempty"`
	ROE           float64 `json:"roe,omitempty"`
	AssetTurnover float64 `json:"asset_turnover,omitempty"`
	CashRatio     float64 `json:"cash_ratio,omitempty"`
}

// GrowthMetrics holds period-over-period growth rates.
type GrowthMetrics struct {
	RevenueYoY    float64 `json:"revenue_yoy,omitempty"`
	NetIncomeYoY  float64 `json:"net_income_yoy,omitempty"`
	RevenueCAGR   float64 `json:"revenue_cagr,omitempty"`
	NetIncomeCAGR float64 `json:"net_income_cagr,omitempty"`
	CAGRYears     int     `json:"cagr_years,omitempty"`
}

// StatisticalSummary describes the distribution of a metric series.
type StatisticalSummary struct {
	RevenueMean   float64 `json:"revenue_mean,omitempty"`
	RevenueStdDev float64 `json:"revenue_stddev,omitempty"`
	RevenueMin    float64 `json:"revenue_min,omitempty"`
	RevenueMax    float64 `json:"revenue_max,omitempty"`
	MarginMean    float64 `json:"margin_mean,omitempty"`
	MarginStdDev  float64 `json:"margin_stddev,omitempty"`
	Periods       int     `json:"periods"`
}

// TrendDirection is the sign of the fitted revenue trend.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendFlat TrendDirection = "flat"
	TrendDown TrendDirection = "down"
)

// TrendFeatures holds least-squares trend features over annual revenue.
type TrendFeatures struct {
	Direction       TrendDirection `json:"direction"`
	Slope           float64        `json:"slope,omitempty"`
	RSquared        float64        `json:"r_squared,omitempty"`
	ConsecutiveUp   int            `json:"consecutive_up,omitempty"`
	ConsecutiveDown int            `json:"consecutive_down,omitempty"`
}

// HealthAssessment is a composite financial health score in [0,100]
// with its component subscores.
type HealthAssessment struct {
	Score         float64  `json:"score"`
	Liquidity     float64  `json:"liquidity"`
	Leverage      float64  `json:"leverage"`
	Profitability float64  `json:"profitability"`
	Flags         []string `json:"flags,omitempty"`
}

// VolatilityMetrics quantifies variability of the financial series.
type VolatilityMetrics struct {
	RevenueVolatility float64 `json:"revenue_volatility,omitempty"`
	MarginVolatility  float64 `json:"margin_volatility,omitempty"`
	// CoefficientOfVariation of annual revenue.
	RevenueCV float64 `json:"revenue_cv,omitempty"`
}

// LifecycleStage classifies where the company sits in its life cycle.
type LifecycleStage string

const (
	LifecycleGrowth     LifecycleStage = "growth"
	LifecycleMature     LifecycleStage = "mature"
	LifecycleDecline    LifecycleStage = "decline"
	LifecycleTurnaround LifecycleStage = "turnaround"
	LifecycleUnknown    LifecycleStage = "unknown"
)

// Anomaly flags one statistically unusual observation in the series.
type Anomaly struct {
	Metric     string  `json:"metric"`
	FiscalYear int     `json:"fiscal_year"`
	Value      float64 `json:"value"`
	ZScore     float64 `json:"z_score"`
}

// Analytics bundles every derived metric attached to a profile. Fields
// are computed sequentially after the extraction fragments merge.
type Analytics struct {
	Ratios     *FinancialRatios    `json:"ratios,omitempty"`
	Growth     *GrowthMetrics      `json:"growth,omitempty"`
	Stats      *StatisticalSummary `json:"stats,omitempty"`
	Trend      *TrendFeatures      `json:"trend,omitempty"`
	Health     *HealthAssessment   `json:"health,omitempty"`
	Volatility *VolatilityMetrics  `json:"volatility,omitempty"`
	Lifecycle  LifecycleStage      `json:"lifecycle,omitempty"`
	Anomalies  []Anomaly           `json:"anomalies,omitempty"`
	Features   map[string]float64  `json:"features,omitempty"`
}
