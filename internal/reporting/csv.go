package reporting

import (
	"fmt"
	"strings"

	"sui-aptos-lab/internal/domain"
)

// RenderProtocolCSV renders cleaned protocol records as a CSV string.
func RenderProtocolCSV(records []*domain.ProtocolRecord) string {
	var sb strings.Builder

	// Header
	sb.WriteString("slug,name,ecosystem,category,tvl_usd,change_1d,change_7d,change_30d,growth_score,tvl_rank,growth_rank,outlier,run_date\n")

	// Rows
	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%.2f,%.6f,%.6f,%.6f,%.6f,%d,%d,%t,%s\n",
			r.Slug,
			csvEscape(r.Name),
			r.Ecosystem,
			r.Category,
			r.TVL,
			r.Change1d,
			r.Change7d,
			r.Change30,
			r.GrowthScore,
			r.TVLRank,
			r.GrowthRank,
			r.Outlier,
			r.RunDate,
		))
	}

	return sb.String()
}

// RenderCategoryCSV renders category summaries as a CSV string.
func RenderCategoryCSV(summaries []*domain.CategorySummary) string {
	var sb strings.Builder

	sb.WriteString("run_date,ecosystem,category,protocol_count,total_tvl,mean_tvl,mean_growth_score\n")

	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%.2f,%.2f,%.6f\n",
			s.RunDate,
			s.Ecosystem,
			s.Category,
			s.ProtocolCount,
			s.TotalTVL,
			s.MeanTVL,
			s.MeanGrowthScore,
		))
	}

	return sb.String()
}

// RenderPriceCSV renders a cleaned price series as a CSV string.
func RenderPriceCSV(series *domain.PriceSeries) string {
	var sb strings.Builder

	sb.WriteString("ecosystem,date,price,market_cap,volume_24h,change_1d,change_7d,change_30d,ma_7,ma_30,volatility_30,cumulative_return\n")

	for _, p := range series.Points {
		sb.WriteString(fmt.Sprintf("%s,%s,%.8f,%.2f,%.2f,%.6f,%.6f,%.6f,%.8f,%.8f,%.8f,%.4f\n",
			series.Ecosystem,
			p.Date.Format(domain.PriceDateLayout),
			p.Price,
			p.MarketCap,
			p.Volume24h,
			p.Change1d,
			p.Change7d,
			p.Change30d,
			p.MA7,
			p.MA30,
			p.Volatility30,
			p.CumulativeReturn,
		))
	}

	return sb.String()
}

// csvEscape quotes fields containing commas or quotes.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
