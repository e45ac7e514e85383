package pipeline

import (
	"time"

	"github.com/ppiankov/painscope/internal/analyze"
	"github.com/ppiankov/painscope/internal/model"
)

// ReportOptions shapes the report built from a run
type ReportOptions struct {
	TopN           int
	TopKeywords    int
	Examples       int
	IncludeRecords bool
	Weights        model.Weights
}

// DefaultReportOptions returns the report defaults
func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		TopN:        20,
		TopKeywords: 5,
		Examples:    1,
		Weights:     model.DefaultWeights(),
	}
}

// ReportOptionsFromConfig reads the output section
func ReportOptionsFromConfig(cfg *model.Config) ReportOptions {
	opts := DefaultReportOptions()
	if cfg.Output.TopN > 0 {
		opts.TopN = cfg.Output.TopN
	}
	if cfg.Output.TopKeywords > 0 {
		opts.TopKeywords = cfg.Output.TopKeywords
	}
	opts.Weights = cfg.Scoring.Weights
	return opts
}

// Report is the rendered result of one run
type Report struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Source      string                    `json:"source"`
	Items       int                       `json:"items"`
	Weights     model.Weights             `json:"weights"`
	Summary     *analyze.Summary          `json:"summary,omitempty"` // nil when nothing was found
	Categories  []analyze.CategoryInsight `json:"categories"`
	Top         []model.PainRecord        `json:"top"`
	Records     []model.PainRecord        `json:"records,omitempty"`
}

// BuildReport aggregates records into a report. An empty record set yields
// a report with no summary rather than an error.
func BuildReport(sourceName string, items int, records []model.PainRecord, opts ReportOptions) *Report {
	report := &Report{
		GeneratedAt: time.Now().UTC(),
		Source:      sourceName,
		Items:       items,
		Weights:     opts.Weights,
		Categories:  analyze.CategoryInsights(records, opts.TopKeywords, opts.Examples),
		Top:         []model.PainRecord{},
	}

	if summary, err := analyze.Summarize(records); err == nil {
		report.Summary = &summary
	}

	if top, err := analyze.TopN(records, opts.TopN); err == nil {
		report.Top = top
	}

	if opts.IncludeRecords {
		report.Records = records
	}
	return report
}
