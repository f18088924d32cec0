package cleaning

import (
	"math"
	"testing"
	"time"

	"sui-aptos-lab/internal/domain"
)

func pricePoint(d time.Time, price float64) domain.PricePoint {
	return domain.PricePoint{Date: d, Price: price}
}

func dayN(n int) time.Time {
	return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestCleanPrices_SortsAndDedupes(t *testing.T) {
	raw := []domain.PricePoint{
		pricePoint(dayN(2), 3.0),
		pricePoint(dayN(0), 1.0),
		pricePoint(dayN(1), 2.0),
		pricePoint(dayN(1), 99.0), // duplicate date, dropped
	}

	series, err := CleanPrices(raw, domain.EcosystemSui)
	if err != nil {
		t.Fatalf("CleanPrices error: %v", err)
	}
	if series.Len() != 3 {
		t.Fatalf("got %d points, want 3", series.Len())
	}
	for i, want := range []float64{1.0, 2.0, 3.0} {
		if series.Points[i].Price != want {
			t.Errorf("point %d price = %v, want %v", i, series.Points[i].Price, want)
		}
	}
	if series.Points[0].Ecosystem != domain.EcosystemSui {
		t.Errorf("ecosystem not stamped on points")
	}
}

func TestCleanPrices_ForwardFill(t *testing.T) {
	raw := []domain.PricePoint{
		pricePoint(dayN(0), 2.0),
		pricePoint(dayN(1), 0), // missing, filled from day 0
		pricePoint(dayN(2), math.NaN()),
		pricePoint(dayN(3), 4.0),
	}

	series, err := CleanPrices(raw, domain.EcosystemSui)
	if err != nil {
		t.Fatalf("CleanPrices error: %v", err)
	}
	if series.Points[1].Price != 2.0 {
		t.Errorf("day 1 price = %v, want forward-filled 2.0", series.Points[1].Price)
	}
	if series.Points[2].Price != 2.0 {
		t.Errorf("day 2 price = %v, want forward-filled 2.0", series.Points[2].Price)
	}
}

func TestCleanPrices_Changes(t *testing.T) {
	raw := []domain.PricePoint{
		pricePoint(dayN(0), 100),
		pricePoint(dayN(1), 110),
		pricePoint(dayN(2), 99),
	}

	series, err := CleanPrices(raw, domain.EcosystemSui)
	if err != nil {
		t.Fatalf("CleanPrices error: %v", err)
	}

	if series.Points[0].Change1d != 0 {
		t.Errorf("first point change = %v, want 0", series.Points[0].Change1d)
	}
	if got := series.Points[1].Change1d; math.Abs(got-0.10) > 1e-12 {
		t.Errorf("day 1 change = %v, want 0.10", got)
	}
	if got := series.Points[2].Change1d; math.Abs(got-(-0.10)) > 1e-12 {
		t.Errorf("day 2 change = %v, want -0.10", got)
	}
}

func TestCleanPrices_MovingAverages(t *testing.T) {
	raw := make([]domain.PricePoint, 0, 10)
	for i := 0; i < 10; i++ {
		raw = append(raw, pricePoint(dayN(i), float64(i+1)))
	}

	series, err := CleanPrices(raw, domain.EcosystemSui)
	if err != nil {
		t.Fatalf("CleanPrices error: %v", err)
	}

	// Before the window fills, MA7 stays 0.
	if series.Points[5].MA7 != 0 {
		t.Errorf("point 5 MA7 = %v, want 0", series.Points[5].MA7)
	}
	// At index 6: mean of 1..7 = 4.
	if got := series.Points[6].MA7; math.Abs(got-4.0) > 1e-9 {
		t.Errorf("point 6 MA7 = %v, want 4", got)
	}
	// At index 9: mean of 4..10 = 7.
	if got := series.Points[9].MA7; math.Abs(got-7.0) > 1e-9 {
		t.Errorf("point 9 MA7 = %v, want 7", got)
	}
	// 30-day window never fills on 10 points.
	if series.Points[9].MA30 != 0 {
		t.Errorf("point 9 MA30 = %v, want 0", series.Points[9].MA30)
	}
}

func TestCleanPrices_CumulativeReturn(t *testing.T) {
	raw := []domain.PricePoint{
		pricePoint(dayN(0), 2.0),
		pricePoint(dayN(1), 3.0),
		pricePoint(dayN(2), 1.0),
	}

	series, err := CleanPrices(raw, domain.EcosystemSui)
	if err != nil {
		t.Fatalf("CleanPrices error: %v", err)
	}

	want := []float64{0, 50, -50}
	for i, w := range want {
		if got := series.Points[i].CumulativeReturn; math.Abs(got-w) > 1e-9 {
			t.Errorf("point %d cumulative return = %v, want %v", i, got, w)
		}
	}
}

func TestMaxDrawdown(t *testing.T) {
	raw := []domain.PricePoint{
		pricePoint(dayN(0), 100),
		pricePoint(dayN(1), 120),
		pricePoint(dayN(2), 60), // 50% below the 120 peak
		pricePoint(dayN(3), 90),
	}

	series, err := CleanPrices(raw, domain.EcosystemSui)
	if err != nil {
		t.Fatalf("CleanPrices error: %v", err)
	}

	if got := MaxDrawdown(series); math.Abs(got-50.0) > 1e-9 {
		t.Errorf("MaxDrawdown = %v, want 50", got)
	}
}

func TestSharpeRatio_ZeroVolatility(t *testing.T) {
	raw := []domain.PricePoint{
		pricePoint(dayN(0), 1.0),
		pricePoint(dayN(1), 1.0),
		pricePoint(dayN(2), 1.0),
	}

	series, err := CleanPrices(raw, domain.EcosystemSui)
	if err != nil {
		t.Fatalf("CleanPrices error: %v", err)
	}

	if got := SharpeRatio(series, 2); got != 0 {
		t.Errorf("SharpeRatio = %v, want 0 for flat series", got)
	}
}

func TestDailyReturnCorrelation_PerfectlyCorrelated(t *testing.T) {
	var rawA, rawB []domain.PricePoint
	prices := []float64{100, 110, 99, 120, 115}
	for i, p := range prices {
		rawA = append(rawA, pricePoint(dayN(i), p))
		rawB = append(rawB, pricePoint(dayN(i), p*2))
	}

	a, err := CleanPrices(rawA, domain.EcosystemSui)
	if err != nil {
		t.Fatal(err)
	}
	b, err := CleanPrices(rawB, domain.EcosystemAptos)
	if err != nil {
		t.Fatal(err)
	}

	r := DailyReturnCorrelation(a, b)
	if math.Abs(r-1.0) > 1e-9 {
		t.Errorf("correlation = %v, want 1.0", r)
	}
	if CorrelationStrength(r) != "High" {
		t.Errorf("strength = %q, want High", CorrelationStrength(r))
	}
}

func TestCorrelationStrength(t *testing.T) {
	cases := []struct {
		r    float64
		want string
	}{
		{0.9, "High"},
		{-0.8, "High"},
		{0.5, "Medium"},
		{0.2, "Low"},
		{0, "Low"},
	}
	for _, tt := range cases {
		if got := CorrelationStrength(tt.r); got != tt.want {
			t.Errorf("CorrelationStrength(%v) = %q, want %q", tt.r, got, tt.want)
		}
	}
}
