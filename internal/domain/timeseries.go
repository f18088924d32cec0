package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnorderedSeries is returned when price points are not strictly
// increasing by date.
var ErrUnorderedSeries = errors.New("price series dates must be strictly increasing")

// PriceDateLayout is the wire format of price point dates.
const PriceDateLayout = "2006-01-02"

// PricePoint is one day of token price data for an ecosystem.
// Corresponds to price_points table in ClickHouse.
type PricePoint struct {
	Ecosystem Ecosystem
	Date      time.Time // UTC midnight
	Price     float64   // USD
	MarketCap float64   // USD, 0 when unavailable
	Volume24h float64   // USD, 0 when unavailable

	// Derived by the cleaning stage.
	Change1d         float64 // daily return, fraction
	Change7d         float64 // 7-day return, fraction
	Change30d        float64 // 30-day return, fraction
	MA7              float64 // 7-day simple moving average of price
	MA30             float64 // 30-day simple moving average of price
	Volatility30     float64 // 30-day rolling stddev of daily returns
	CumulativeReturn float64 // percent since series start
}

// PriceSeries is a chronologically ordered sequence of price points
// for one ecosystem. Insertion order equals chronological order.
type PriceSeries struct {
	Ecosystem Ecosystem
	Points    []PricePoint
}

// NewPriceSeries validates the strictly-increasing-dates invariant and
// returns the series. Points must already be sorted by the caller.
func NewPriceSeries(eco Ecosystem, points []PricePoint) (*PriceSeries, error) {
	for i := 1; i < len(points); i++ {
		if !points[i].Date.After(points[i-1].Date) {
			return nil, fmt.Errorf("%w: point %d (%s) not after point %d (%s)",
				ErrUnorderedSeries,
				i, points[i].Date.Format(PriceDateLayout),
				i-1, points[i-1].Date.Format(PriceDateLayout))
		}
	}
	return &PriceSeries{Ecosystem: eco, Points: points}, nil
}

// Len returns the number of points in the series.
func (s *PriceSeries) Len() int {
	return len(s.Points)
}

// Last returns the most recent point. Callers must check Len first.
func (s *PriceSeries) Last() PricePoint {
	return s.Points[len(s.Points)-1]
}

// ReturnOverDays computes the percent return over the trailing n days,
// matching the collection stage's convention of comparing the latest
// close against the close n points back. ok is false when the series
// is too short.
func (s *PriceSeries) ReturnOverDays(n int) (ret float64, ok bool) {
	if len(s.Points) <= n {
		return 0, false
	}
	start := s.Points[len(s.Points)-1-n].Price
	end := s.Points[len(s.Points)-1].Price
	if start == 0 {
		return 0, false
	}
	return (end - start) / start * 100, true
}

// DailyReturns returns the per-day return fractions in chronological order.
func (s *PriceSeries) DailyReturns() []float64 {
	if len(s.Points) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(s.Points)-1)
	for i := 1; i < len(s.Points); i++ {
		prev := s.Points[i-1].Price
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (s.Points[i].Price-prev)/prev)
	}
	return returns
}
