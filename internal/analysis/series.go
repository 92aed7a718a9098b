package analysis

import (
	"math"

	"github.com/ternarybob/colligo/internal/models"
)

// Stats summarizes the distribution of annual revenue and net margin.
func Stats(history *models.FinancialHistory) *models.StatisticalSummary {
	if history == nil {
		return nil
	}
	annual := history.Annual()
	if len(annual) == 0 {
		return nil
	}

	var revenues, margins []float64
	for _, p := range annual {
		revenues = append(revenues, p.Revenue)
		if p.Revenue != 0 {
			margins = append(margins, p.NetIncome/p.Revenue)
		}
	}

	s := &models.StatisticalSummary{Periods: len(annual)}
	s.RevenueMean, s.RevenueStdDev = meanStdDev(revenues)
	s.RevenueMin, s.RevenueMax = minMax(revenues)
	s.MarginMean, s.MarginStdDev = meanStdDev(margins)
	return s
}

// Trend fits a least-squares line through annual revenue and classifies
// its direction. Slope is normalized by mean revenue so the threshold
// holds across company sizes.
func Trend(history *models.FinancialHistory) *models.TrendFeatures {
	if history == nil {
		return nil
	}
	annual := history.Annual()
	if len(annual) < 2 {
		return nil
	}

	var ys []float64
	for _, p := range annual {
		ys = append(ys, p.Revenue)
	}

	slope, r2 := leastSquares(ys)
	mean, _ := meanStdDev(ys)

	t := &models.TrendFeatures{Slope: slope, RSquared: r2}
	normalized := 0.0
	if mean != 0 {
		normalized = slope / math.Abs(mean)
	}
	switch {
	case normalized > 0.02:
		t.Direction = models.TrendUp
	case normalized < -0.02:
		t.Direction = models.TrendDown
	default:
		t.Direction = models.TrendFlat
	}

	// Streaks from the most recent period backwards.
	for i := len(ys) - 1; i > 0; i-- {
		if ys[i] > ys[i-1] {
			t.ConsecutiveUp++
		} else {
			break
		}
	}
	for i := len(ys) - 1; i > 0; i-- {
		if ys[i] < ys[i-1] {
			t.ConsecutiveDown++
		} else {
			break
		}
	}
	return t
}

// Volatility quantifies variability of the annual series.
func Volatility(history *models.FinancialHistory) *models.VolatilityMetrics {
	if history == nil {
		return nil
	}
	annual := history.Annual()
	if len(annual) < 2 {
		return nil
	}

	var yoy, margins, revenues []float64
	for i, p := range annual {
		revenues = append(revenues, p.Revenue)
		if p.Revenue != 0 {
			margins = append(margins, p.NetIncome/p.Revenue)
		}
		if i > 0 && annual[i-1].Revenue != 0 {
			yoy = append(yoy, (p.Revenue-annual[i-1].Revenue)/math.Abs(annual[i-1].Revenue))
		}
	}

	v := &models.VolatilityMetrics{}
	_, v.RevenueVolatility = meanStdDev(yoy)
	_, v.MarginVolatility = meanStdDev(margins)
	if mean, sd := meanStdDev(revenues); mean != 0 {
		v.RevenueCV = sd / math.Abs(mean)
	}
	return v
}

// anomalyZThreshold flags observations beyond this many standard
// deviations from the series mean.
const anomalyZThreshold = 2.0

// Anomalies flags annual observations that sit far outside the series
// distribution. Series shorter than four periods are never flagged.
func Anomalies(history *models.FinancialHistory) []models.Anomaly {
	if history == nil {
		return nil
	}
	annual := history.Annual()
	if len(annual) < 4 {
		return nil
	}

	detect := func(metric string, values []float64, years []int) []models.Anomaly {
		mean, sd := meanStdDev(values)
		if sd == 0 {
			return nil
		}
		var out []models.Anomaly
		for i, v := range values {
			z := (v - mean) / sd
			if math.Abs(z) > anomalyZThreshold {
				out = append(out, models.Anomaly{
					Metric:     metric,
					FiscalYear: years[i],
					Value:      v,
					ZScore:     z,
				})
			}
		}
		return out
	}

	var revenues, incomes []float64
	var years []int
	for _, p := range annual {
		revenues = append(revenues, p.Revenue)
		incomes = append(incomes, p.NetIncome)
		years = append(years, p.FiscalYear)
	}

	var anomalies []models.Anomaly
	anomalies = append(anomalies, detect("revenue", revenues, years)...)
	anomalies = append(anomalies, detect("net_income", incomes, years)...)
	return anomalies
}

// meanStdDev returns the mean and population standard deviation.
func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// leastSquares fits y = a + b*x over x = 0..n-1 and returns (b, r^2).
func leastSquares(ys []float64) (float64, float64) {
	n := float64(len(ys))
	if n < 2 {
		return 0, 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0
	}
	b := (n*sumXY - sumX*sumY) / denom
	a := (sumY - b*sumX) / n

	// r^2 against the fitted line.
	meanY := sumY / n
	var ssRes, ssTot float64
	for i, y := range ys {
		fit := a + b*float64(i)
		ssRes += (y - fit) * (y - fit)
		ssTot += (y - meanY) * (y - meanY)
	}
	if ssTot == 0 {
		return b, 0
	}
	return b, 1 - ssRes/ssTot
}
