package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ppiankov/painscope/internal/pipeline"
	"github.com/ppiankov/painscope/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report pain points stored by earlier crawls",
	Long: `Report reads the SQLite store and renders the stored pain points:
the top N by total score, optionally limited to one category, or the
store statistics with --stats.

Example:
  painscope report --top 10
  painscope report --category operational --md operational.md
  painscope report --stats`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	f := reportCmd.Flags()
	f.String("db", "", "SQLite database path")
	f.String("category", "", "only records whose best category is this")
	f.Bool("stats", false, "print store statistics")
	f.String("json", "", "output JSON path (- for stdout)")
	f.String("md", "", "output Markdown path (- for stdout)")
	f.Int("top", 0, "number of top pain points to report")
}

var reportFlagKeys = map[string]string{
	"db":   "store.path",
	"json": "output.json_path",
	"md":   "output.markdown_path",
	"top":  "output.top_n",
}

func runReport(cmd *cobra.Command, args []string) error {
	bindFlags(cmd, reportFlagKeys)
	if !cmd.Flags().Changed("json") {
		viper.Set("output.json_path", "")
	}
	if !cmd.Flags().Changed("md") {
		viper.Set("output.markdown_path", "")
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if _, err := os.Stat(e.cfg.Store.Path); err != nil {
		return fmt.Errorf("store not found: %s (run 'painscope crawl' first)", e.cfg.Store.Path)
	}

	db, err := store.Open(e.cfg.Store.Path, e.logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		s, err := db.Statistics(ctx)
		if err != nil {
			return fmt.Errorf("statistics: %w", err)
		}
		return writeStats(cmd, s)
	}

	opts := pipeline.ReportOptionsFromConfig(e.cfg)

	// An empty category loads every record; insights need all of them,
	// not only the top N
	category, _ := cmd.Flags().GetString("category")
	records, err := db.PainPointsByCategory(ctx, category)
	if err != nil {
		return fmt.Errorf("load pain points: %w", err)
	}
	e.logger.Debug("records loaded", zap.Int("count", len(records)), zap.String("category", category))

	report := pipeline.BuildReport("store:"+e.cfg.Store.Path, 0, records, opts)
	return pipeline.NewRenderer(cmd.OutOrStdout()).RenderAll(report, e.cfg.Output.JSONPath, e.cfg.Output.MarkdownPath, e.cfg.Output.Verbose)
}

func writeStats(cmd *cobra.Command, s *store.Stats) error {
	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Posts\t%d\n", s.Posts)
	fmt.Fprintf(tw, "Comments\t%d\n", s.Comments)
	fmt.Fprintf(tw, "Pain points\t%d\n", s.PainPoints)
	fmt.Fprintf(tw, "Average total score\t%.3f\n", s.AvgTotal)
	fmt.Fprintf(tw, "Average sentiment\t%.3f\n", s.AvgSentiment)
	fmt.Fprintf(tw, "Average urgency\t%.3f\n", s.AvgUrgency)
	fmt.Fprintf(tw, "Budget mentions\t%d\n", s.BudgetMentions)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(s.Categories)
}
