package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ppiankov/painscope/internal/model"
	"github.com/ppiankov/painscope/internal/score"
)

// consoleTop is how many records the console summary lists
const consoleTop = 5

// Renderer writes reports as JSON, Markdown and a console summary
type Renderer struct {
	out    io.Writer // Console summary
	status io.Writer // Progress lines
}

// NewRenderer creates a renderer printing the console summary to out
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out, status: os.Stderr}
}

// RenderAll writes the JSON and Markdown files that have a path, then prints
// the console summary
func (r *Renderer) RenderAll(report *Report, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := r.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(r.status, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := r.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(r.status, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	r.RenderSummary(report)
	return nil
}

// RenderJSON writes the report to path; "-" writes to the console writer
func (r *Renderer) RenderJSON(report *Report, path string) error {
	if path == "-" {
		return WriteJSON(r.out, report)
	}
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, report) })
}

// RenderMarkdown writes the Markdown report to path; "-" writes to the
// console writer
func (r *Renderer) RenderMarkdown(report *Report, path string) error {
	if path == "-" {
		return WriteMarkdown(r.out, report)
	}
	return writeFile(path, func(w io.Writer) error { return WriteMarkdown(w, report) })
}

// WriteJSON encodes the report as indented JSON
func WriteJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteMarkdown renders the summary, the category breakdown and the top
// pain points table
func WriteMarkdown(w io.Writer, report *Report) error {
	var b strings.Builder

	b.WriteString("# Pain Points Report\n\n")
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- Source: %s\n", report.Source)
	fmt.Fprintf(&b, "- Items analyzed: %d\n\n", report.Items)

	if report.Summary == nil {
		b.WriteString("No pain points found.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	s := report.Summary
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Pain points | %d |\n", s.Count)
	fmt.Fprintf(&b, "| Average total score | %.3f |\n", s.AvgTotal)
	fmt.Fprintf(&b, "| Average sentiment | %.3f |\n", s.AvgSentiment)
	fmt.Fprintf(&b, "| Average urgency | %.3f |\n", s.AvgUrgency)
	fmt.Fprintf(&b, "| Average frequency | %.3f |\n", s.AvgFrequency)
	fmt.Fprintf(&b, "| Average engagement | %.3f |\n", s.AvgEngagement)
	fmt.Fprintf(&b, "| Budget mentions | %d (%.0f%%) |\n\n", s.BudgetMentions, s.BudgetRate*100)

	wt := report.Weights
	fmt.Fprintf(&b, "Total score = frequency×%.2f + sentiment×%.2f + urgency×%.2f + budget×%.2f (engagement weight %.2f is reported, not applied).\n\n",
		wt.Frequency, wt.Sentiment, wt.Urgency, wt.BudgetMention, wt.Engagement)

	b.WriteString("## Categories\n\n")
	for _, c := range report.Categories {
		fmt.Fprintf(&b, "### %s\n\n", c.Category)
		fmt.Fprintf(&b, "- Records: %d (%.0f%%)\n", c.Count, float64(c.Count)/float64(s.Count)*100)
		fmt.Fprintf(&b, "- Average score: %.3f\n", c.AvgScore)
		if len(c.TopKeywords) > 0 {
			kws := make([]string, len(c.TopKeywords))
			for i, kw := range c.TopKeywords {
				kws[i] = fmt.Sprintf("%s (%d)", kw.Keyword, kw.Count)
			}
			fmt.Fprintf(&b, "- Top keywords: %s\n", strings.Join(kws, ", "))
		}
		for _, ex := range c.Examples {
			fmt.Fprintf(&b, "\n> %s\n>\n> score %.3f, %s `%s`\n", ex.Text, ex.TotalScore, ex.SourceType, ex.SourceID)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Top %d Pain Points\n\n", len(report.Top))
	b.WriteString("| # | Score | Category | Source | Budget | Text |\n|---|---|---|---|---|---|\n")
	for i, rec := range report.Top {
		budget := ""
		if rec.BudgetMention {
			budget = "yes"
		}
		fmt.Fprintf(&b, "| %d | %.3f | %s | %s | %s | %s |\n",
			i+1, rec.TotalScore, rec.Category, rec.SourceID, budget, escapeCell(rec.Text))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSummary prints a short console view of the report
func (r *Renderer) RenderSummary(report *Report) {
	fmt.Fprintln(r.out)
	if report.Summary == nil {
		fmt.Fprintf(r.out, "No pain points found in %d items (%s)\n", report.Items, report.Source)
		return
	}

	s := report.Summary
	fmt.Fprintf(r.out, "Found %d pain points in %d items (%s)\n", s.Count, report.Items, report.Source)
	fmt.Fprintf(r.out, "Average score: %.3f   Budget mentions: %d (%.0f%%)\n\n", s.AvgTotal, s.BudgetMentions, s.BudgetRate*100)

	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCOUNT\tAVG SCORE")
	for _, c := range report.Categories {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\n", c.Category, c.Count, c.AvgScore)
	}
	_ = tw.Flush()

	n := min(consoleTop, len(report.Top))
	if n == 0 {
		return
	}
	fmt.Fprintf(r.out, "\nTop %d:\n", n)
	for i, rec := range report.Top[:n] {
		fmt.Fprintf(r.out, "  %d. [%.3f] %-12s %s\n", i+1, rec.TotalScore, rec.Category, truncate(rec.Text, 90))
	}
}

// WriteExplain prints each record's score contributions, the transparent
// view behind TotalScore
func WriteExplain(w io.Writer, records []model.PainRecord, scorer *score.Scorer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, rec := range records {
		fmt.Fprintf(tw, "[%d] %s (%s %s)\n", i+1, rec.Text, rec.SourceType, rec.SourceID)
		fmt.Fprintf(tw, "    category: %s (%.3f)  keywords: %s\n", rec.Category, rec.Confidence(), strings.Join(rec.Keywords, ", "))
		fmt.Fprintln(tw, "    COMPONENT\tVALUE\tWEIGHT\tPOINTS\tFORMULA")
		for _, c := range scorer.Contributions(breakdownOf(rec)) {
			fmt.Fprintf(tw, "    %s\t%.3f\t%.2f\t%.3f\t%s\n", c.Component, c.Value, c.Weight, c.Points, c.Formula)
		}
		fmt.Fprintf(tw, "    total\t\t\t%.3f\t\n", rec.TotalScore)
		fmt.Fprintf(tw, "    engagement score (stored)\t%.3f\t\t\t\n\n", rec.EngagementScore)
	}
	return tw.Flush()
}

func breakdownOf(rec model.PainRecord) score.Breakdown {
	return score.Breakdown{
		Sentiment:     rec.SentimentScore,
		Urgency:       rec.UrgencyScore,
		Frequency:     rec.FrequencyScore,
		BudgetMention: rec.BudgetMention,
		Total:         rec.TotalScore,
	}
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return write(f)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
