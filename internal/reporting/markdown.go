package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"sui-aptos-lab/internal/domain"
)

// RenderMarkdown renders the investment summary as Markdown.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Sui vs Aptos Investment Summary\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run date: %s\n\n", r.RunDate))

	// Core finding
	sb.WriteString("## Core Finding\n\n")
	sb.WriteString(fmt.Sprintf("%s\n\n", r.CoreFinding))
	sb.WriteString(fmt.Sprintf("Confidence: %s\n\n", r.Confidence))

	// Scores
	sb.WriteString("## Investment Scores\n\n")
	sb.WriteString(fmt.Sprintf("- SUI: %.1f/10\n", r.Scores[domain.EcosystemSui]))
	sb.WriteString(fmt.Sprintf("- APT: %.1f/10\n\n", r.Scores[domain.EcosystemAptos]))

	// Logic
	sb.WriteString("## Investment Logic\n\n")
	sb.WriteString(r.InvestmentLogic)
	sb.WriteString("\n\n")

	// Key metrics
	if len(r.KeyMetrics) > 0 {
		sb.WriteString("## Key Metrics\n\n")
		sb.WriteString("| Metric | Sui | Aptos |\n")
		sb.WriteString("|--------|-----|-------|\n")

		names := make([]string, 0, len(r.KeyMetrics))
		for name := range r.KeyMetrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			values := r.KeyMetrics[name]
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f |\n",
				name, values[domain.EcosystemSui], values[domain.EcosystemAptos]))
		}
		sb.WriteString("\n")
	}

	// Category summaries
	if len(r.CategorySummaries) > 0 {
		sb.WriteString("## Category Breakdown\n\n")
		sb.WriteString("| Ecosystem | Category | Protocols | Total TVL | Mean Growth |\n")
		sb.WriteString("|-----------|----------|-----------|-----------|-------------|\n")
		for _, s := range r.CategorySummaries {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | $%.1fM | %.2f |\n",
				s.Ecosystem, s.Category, s.ProtocolCount, s.TotalTVL/1e6, s.MeanGrowthScore))
		}
		sb.WriteString("\n")
	}

	// Size distribution
	if len(r.SizeDistribution) > 0 {
		sb.WriteString("## Protocol Size Distribution\n\n")
		sb.WriteString("| TVL Bracket | Sui | Aptos |\n")
		sb.WriteString("|-------------|-----|-------|\n")
		sui := r.SizeDistribution[domain.EcosystemSui]
		aptos := r.SizeDistribution[domain.EcosystemAptos]
		for i, b := range sui {
			aptosCount := 0
			if i < len(aptos) {
				aptosCount = aptos[i].Count
			}
			sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n", b.Label, b.Count, aptosCount))
		}
		sb.WriteString("\n")
	}

	// Concentration
	if len(r.Concentration) > 0 {
		sb.WriteString("## TVL Concentration\n\n")
		sb.WriteString("| Ecosystem | Top 1 | Top 5 | Top 10 | Herfindahl |\n")
		sb.WriteString("|-----------|-------|-------|--------|------------|\n")
		for _, eco := range domain.Ecosystems() {
			c, ok := r.Concentration[eco]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("| %s | %.1f%% | %.1f%% | %.1f%% | %.4f |\n",
				eco, c.Top1Share, c.Top5Share, c.Top10Share, c.Herfindahl))
		}
		sb.WriteString("\n")
	}

	// Correlation
	if r.Correlation.Strength != "" {
		sb.WriteString("## Price Correlation\n\n")
		sb.WriteString(fmt.Sprintf("Daily return correlation: %.3f (%s)\n\n",
			r.Correlation.DailyCorrelation, r.Correlation.Strength))
	}

	// Risks
	sb.WriteString("## Key Risks\n\n")
	for _, risk := range r.Risks {
		sb.WriteString(fmt.Sprintf("- %s\n", risk))
	}
	sb.WriteString("\n")

	// Partial data
	if len(r.PartialMetrics) > 0 {
		sb.WriteString("## Data Gaps\n\n")
		sb.WriteString("Dimensions excluded from the score for missing data:\n\n")
		for _, name := range r.PartialMetrics {
			sb.WriteString(fmt.Sprintf("- %s\n", name))
		}
		sb.WriteString("\n")
	}

	// Holding period
	sb.WriteString("## Suggested Holding Period\n\n")
	sb.WriteString(r.HoldingPeriodSuggestion)
	sb.WriteString("\n")

	return sb.String()
}
