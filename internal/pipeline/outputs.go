package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/reporting"
)

// analysisDocument is the comparative analysis JSON written alongside
// the cleaned CSVs, one per run date.
type analysisDocument struct {
	RunDate     string    `json:"run_date"`
	GeneratedAt time.Time `json:"generated_at"`

	Metrics []analysisMetric `json:"metrics"`

	Scores         map[domain.Ecosystem]float64 `json:"scores"`
	Recommendation string                       `json:"recommendation"`
	Confidence     domain.Confidence            `json:"confidence"`
	CoreFinding    string                       `json:"core_finding"`

	UsedDimensions []string `json:"used_dimensions"`
	PartialMetrics []string `json:"partial_metrics,omitempty"`

	Correlation      reporting.CorrelationSection                   `json:"correlation"`
	Concentration    map[domain.Ecosystem]domain.ConcentrationStats `json:"concentration"`
	SizeDistribution map[domain.Ecosystem][]domain.SizeBucket       `json:"size_distribution"`
}

type analysisMetric struct {
	Name         string                       `json:"name"`
	Values       map[domain.Ecosystem]float64 `json:"values"`
	RelativeDiff float64                      `json:"relative_diff"`
	Partial      bool                         `json:"partial,omitempty"`
}

// writeOutputs renders every dated output file into memory first, then
// stages them as temp files and renames into place, so a failed run
// never leaves partial outputs behind.
func (r *Runner) writeOutputs(
	runDate string,
	records map[domain.Ecosystem][]*domain.ProtocolRecord,
	series map[domain.Ecosystem]*domain.PriceSeries,
	summaries []*domain.CategorySummary,
	metrics []domain.ComparisonMetric,
	score *domain.CompositeScore,
	report *reporting.Report,
) ([]string, error) {
	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	files := make(map[string][]byte)

	for _, eco := range domain.Ecosystems() {
		prefix := strings.ToLower(string(eco))
		files[fmt.Sprintf("%s_protocols_clean_%s.csv", prefix, runDate)] = []byte(reporting.RenderProtocolCSV(records[eco]))
		files[fmt.Sprintf("%s_price_clean_%s.csv", prefix, runDate)] = []byte(reporting.RenderPriceCSV(series[eco]))
	}

	files[fmt.Sprintf("category_summary_%s.csv", runDate)] = []byte(reporting.RenderCategoryCSV(summaries))

	analysis, err := r.renderAnalysis(runDate, metrics, score, report)
	if err != nil {
		return nil, err
	}
	files[fmt.Sprintf("comparative_analysis_%s.json", runDate)] = analysis

	files[fmt.Sprintf("investment_summary_%s.md", runDate)] = []byte(reporting.RenderMarkdown(report))

	return r.commit(files)
}

func (r *Runner) renderAnalysis(
	runDate string,
	metrics []domain.ComparisonMetric,
	score *domain.CompositeScore,
	report *reporting.Report,
) ([]byte, error) {
	doc := analysisDocument{
		RunDate:          runDate,
		GeneratedAt:      report.GeneratedAt,
		Scores:           score.Scores,
		Recommendation:   score.Recommendation.String(),
		Confidence:       score.Confidence,
		CoreFinding:      report.CoreFinding,
		UsedDimensions:   score.UsedDimensions,
		PartialMetrics:   score.PartialMetrics,
		Correlation:      report.Correlation,
		Concentration:    report.Concentration,
		SizeDistribution: report.SizeDistribution,
	}
	for _, m := range metrics {
		doc.Metrics = append(doc.Metrics, analysisMetric{
			Name:         m.Name,
			Values:       m.Values,
			RelativeDiff: m.RelativeDiff,
			Partial:      m.Partial,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}
	return data, nil
}

// commit stages all files as temp siblings, then renames each into
// place. Staging failures remove every temp file already written.
func (r *Runner) commit(files map[string][]byte) ([]string, error) {
	staged := make(map[string]string, len(files)) // final path -> temp path

	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	for name, data := range files {
		tmp, err := os.CreateTemp(r.outDir, name+".tmp")
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("stage %s: %w", name, err)
		}
		staged[filepath.Join(r.outDir, name)] = tmp.Name()

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			cleanup()
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return nil, fmt.Errorf("close %s: %w", name, err)
		}
	}

	written := make([]string, 0, len(staged))
	for final, tmp := range staged {
		if err := os.Rename(tmp, final); err != nil {
			cleanup()
			return nil, fmt.Errorf("commit %s: %w", final, err)
		}
		written = append(written, final)
	}
	sort.Strings(written)
	return written, nil
}
