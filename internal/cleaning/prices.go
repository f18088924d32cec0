package cleaning

import (
	"math"
	"sort"
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/stats"
)

const (
	maShortWindow    = 7
	maLongWindow     = 30
	volatilityWindow = 30
)

// CleanPrices turns a raw daily price export into a validated series:
// sorted by date, deduplicated, gaps forward-filled (then zero-filled),
// with return, moving-average, volatility and cumulative-return columns
// populated.
func CleanPrices(raw []domain.PricePoint, eco domain.Ecosystem) (*domain.PriceSeries, error) {
	points := make([]domain.PricePoint, len(raw))
	copy(points, raw)

	// Stable so the first-seen row wins when dates collide.
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	points = dedupeByDate(points)
	fillGaps(points)

	computeChanges(points)
	computeMovingAverages(points)
	computeVolatility(points)
	computeCumulativeReturn(points)

	for i := range points {
		points[i].Ecosystem = eco
	}
	return domain.NewPriceSeries(eco, points)
}

// dedupeByDate keeps the first occurrence of each date. Input must be
// sorted.
func dedupeByDate(points []domain.PricePoint) []domain.PricePoint {
	out := points[:0]
	var prev time.Time
	for i, p := range points {
		if i > 0 && p.Date.Equal(prev) {
			continue
		}
		out = append(out, p)
		prev = p.Date
	}
	return out
}

// fillGaps forward-fills missing price, market cap and volume values,
// then zero-fills anything still missing at the head of the series.
// NaN and, for price, non-positive values count as missing.
func fillGaps(points []domain.PricePoint) {
	var lastPrice, lastMcap, lastVolume float64
	for i := range points {
		if math.IsNaN(points[i].Price) || points[i].Price <= 0 {
			points[i].Price = lastPrice
		}
		if math.IsNaN(points[i].MarketCap) {
			points[i].MarketCap = lastMcap
		}
		if math.IsNaN(points[i].Volume24h) {
			points[i].Volume24h = lastVolume
		}
		lastPrice = points[i].Price
		lastMcap = points[i].MarketCap
		lastVolume = points[i].Volume24h
	}
}

// computeChanges fills the 1/7/30-day return fractions. A window is 0
// until enough history exists or the base price is 0.
func computeChanges(points []domain.PricePoint) {
	change := func(i, lag int) float64 {
		if i < lag {
			return 0
		}
		base := points[i-lag].Price
		if base == 0 {
			return 0
		}
		return (points[i].Price - base) / base
	}
	for i := range points {
		points[i].Change1d = change(i, 1)
		points[i].Change7d = change(i, 7)
		points[i].Change30d = change(i, 30)
	}
}

// computeMovingAverages fills MA7 and MA30 from a close-price series.
// Values stay 0 until the window is full.
func computeMovingAverages(points []domain.PricePoint) {
	series := techan.NewTimeSeries()
	for _, p := range points {
		candle := techan.NewCandle(techan.NewTimePeriod(p.Date, 24*time.Hour))
		candle.ClosePrice = big.NewDecimal(p.Price)
		candle.OpenPrice = big.NewDecimal(p.Price)
		candle.MaxPrice = big.NewDecimal(p.Price)
		candle.MinPrice = big.NewDecimal(p.Price)
		candle.Volume = big.NewDecimal(p.Volume24h)
		series.AddCandle(candle)
	}

	closePrices := techan.NewClosePriceIndicator(series)
	maShort := techan.NewSimpleMovingAverage(closePrices, maShortWindow)
	maLong := techan.NewSimpleMovingAverage(closePrices, maLongWindow)

	for i := range points {
		if i >= maShortWindow-1 {
			points[i].MA7 = maShort.Calculate(i).Float()
		}
		if i >= maLongWindow-1 {
			points[i].MA30 = maLong.Calculate(i).Float()
		}
	}
}

// computeVolatility fills the 30-day rolling sample stddev of daily
// returns. Stays 0 until the window is full.
func computeVolatility(points []domain.PricePoint) {
	for i := range points {
		if i < volatilityWindow {
			continue
		}
		window := make([]float64, 0, volatilityWindow)
		for j := i - volatilityWindow + 1; j <= i; j++ {
			window = append(window, points[j].Change1d)
		}
		points[i].Volatility30 = stats.SampleStddev(window)
	}
}

// computeCumulativeReturn fills the percent return since series start.
func computeCumulativeReturn(points []domain.PricePoint) {
	if len(points) == 0 || points[0].Price == 0 {
		return
	}
	first := points[0].Price
	for i := range points {
		points[i].CumulativeReturn = (points[i].Price/first - 1) * 100
	}
}

// AnnualizedVolatility scales the sample stddev of the trailing n daily
// returns to a yearly horizon (sqrt-of-time, 365 days).
func AnnualizedVolatility(series *domain.PriceSeries, n int) float64 {
	returns := series.DailyReturns()
	if len(returns) == 0 {
		return 0
	}
	if n > 0 && len(returns) > n {
		returns = returns[len(returns)-n:]
	}
	return stats.SampleStddev(returns) * math.Sqrt(365)
}

// SharpeRatio is the simplified risk-adjusted return used by the
// comparator: period return (percent) over annualized volatility
// (percent), no risk-free rate.
func SharpeRatio(series *domain.PriceSeries, n int) float64 {
	ret, ok := series.ReturnOverDays(n)
	if !ok {
		return 0
	}
	vol := AnnualizedVolatility(series, n)
	if vol <= 0 {
		return 0
	}
	return ret / (vol * 100)
}

// MaxDrawdown returns the worst peak-to-trough decline of the series,
// as a percentage of the running peak.
func MaxDrawdown(series *domain.PriceSeries) float64 {
	prices := make([]float64, series.Len())
	for i, p := range series.Points {
		prices[i] = p.Price
	}
	return stats.MaxDrawdownPct(prices)
}

// CorrelationStrength labels the absolute daily-return correlation.
func CorrelationStrength(r float64) string {
	switch abs := math.Abs(r); {
	case abs > 0.7:
		return "High"
	case abs > 0.4:
		return "Medium"
	default:
		return "Low"
	}
}

// DailyReturnCorrelation computes the Pearson correlation of the two
// series' daily returns over their common date range.
func DailyReturnCorrelation(a, b *domain.PriceSeries) float64 {
	returnsByDate := func(s *domain.PriceSeries) map[string]float64 {
		m := make(map[string]float64, s.Len())
		for i := 1; i < s.Len(); i++ {
			m[s.Points[i].Date.Format(domain.PriceDateLayout)] = s.Points[i].Change1d
		}
		return m
	}

	ma := returnsByDate(a)
	mb := returnsByDate(b)

	dates := make([]string, 0, len(ma))
	for d := range ma {
		if _, ok := mb[d]; ok {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)

	va := make([]float64, len(dates))
	vb := make([]float64, len(dates))
	for i, d := range dates {
		va[i] = ma[d]
		vb[i] = mb[d]
	}
	return stats.Correlation(va, vb)
}
