package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/ppiankov/painscope/internal/pipeline"
	"github.com/ppiankov/painscope/internal/source"
	"github.com/ppiankov/painscope/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <items.json|->",
	Short: "Analyze a JSON file of items (or plain text) for pain points",
	Long: `Analyze reads items from a JSON file, either an array of items or an
object with an "items" array, and reports the pain points found. Use "-"
to read from stdin. With --text the input is treated as one free-form
text instead of JSON.

Each item has an id, a title, an optional body, an optional engagement
metric and optional replies with their own engagement.

Example:
  painscope analyze posts.json --md report.md
  echo "Shipping is slow and so expensive." | painscope analyze - --text --explain`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	f := analyzeCmd.Flags()
	f.Bool("text", false, "treat input as plain text")
	f.Bool("explain", false, "print every record's score breakdown")
	f.Bool("records", false, "include all records in the JSON report")
	f.Bool("save", false, "persist items and records to the store")
	f.String("db", "", "SQLite database path")
	f.String("json", "", "output JSON path (- for stdout)")
	f.String("md", "", "output Markdown path (- for stdout)")
	f.Int("top", 0, "number of top pain points to report")
	f.Int("workers", 0, "parallel item analyses")
}

var analyzeFlagKeys = map[string]string{
	"db":      "store.path",
	"json":    "output.json_path",
	"md":      "output.markdown_path",
	"top":     "output.top_n",
	"workers": "concurrency.workers",
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	bindFlags(cmd, analyzeFlagKeys)
	// Offline analysis writes files only when asked to
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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var src source.Source
	if asText, _ := cmd.Flags().GetBool("text"); asText {
		in, err := openInput(args[0])
		if err != nil {
			return err
		}
		defer in.Close()
		src = &source.Text{ID: textID(args[0]), Reader: in}
	} else {
		src = source.NewFile(args[0])
	}

	analyzer, err := e.newAnalyzer(ctx)
	if err != nil {
		return err
	}

	var st pipeline.Store
	if save, _ := cmd.Flags().GetBool("save"); save {
		db, err := store.Open(e.cfg.Store.Path, e.logger)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()
		st = db
	}

	opts := pipeline.ReportOptionsFromConfig(e.cfg)
	opts.IncludeRecords, _ = cmd.Flags().GetBool("records")

	p := pipeline.New(src, analyzer, st, opts, e.logger)
	result, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if explain, _ := cmd.Flags().GetBool("explain"); explain {
		if err := pipeline.WriteExplain(cmd.OutOrStdout(), result.Records, analyzer.Scorer()); err != nil {
			return err
		}
	}

	return p.RenderReport(result.Report, e.cfg.Output.JSONPath, e.cfg.Output.MarkdownPath, e.cfg.Output.Verbose)
}

// openInput returns a reader over path, or stdin for "-"
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func textID(path string) string {
	if path == "-" {
		return "stdin"
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
