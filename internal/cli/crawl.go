package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ppiankov/painscope/internal/pipeline"
	"github.com/ppiankov/painscope/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var crawlTimeout time.Duration

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl subreddits, extract pain points, store and report them",
	Long: `Crawl reads posts and top comments from the configured subreddits,
extracts and scores pain statements, saves everything to the SQLite store
and writes JSON and Markdown reports.

Example:
  painscope crawl
  painscope crawl --subreddit shopify --subreddit ecommerce --limit 50
  painscope crawl --listing top --time month --json out.json --md out.md`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	f := crawlCmd.Flags()
	f.StringSlice("subreddit", nil, "subreddit to crawl (repeatable)")
	f.Int("limit", 0, "max posts per subreddit")
	f.Int("comments", 0, "max top-level comments per post")
	f.String("listing", "", "listing: hot, top, new, rising")
	f.String("time", "", "time filter for top listings and search")
	f.String("search", "", "extra search query per subreddit")
	f.Int("prefilter", 0, "min crawler keyword hits per thread (0 disables)")
	f.String("db", "", "SQLite database path")
	f.Bool("no-store", false, "do not persist results")
	f.Bool("no-cache", false, "disable the response cache")
	f.String("json", "", "output JSON path")
	f.String("md", "", "output Markdown path")
	f.Int("workers", 0, "parallel item analyses")
	f.DurationVar(&crawlTimeout, "timeout", 30*time.Minute, "overall crawl timeout")
}

var crawlFlagKeys = map[string]string{
	"subreddit": "reddit.subreddits",
	"limit":     "reddit.max_posts_per_subreddit",
	"comments":  "reddit.max_comments_per_post",
	"listing":   "reddit.listing",
	"time":      "reddit.time_filter",
	"search":    "reddit.search",
	"prefilter": "reddit.prefilter_min_hits",
	"db":        "store.path",
	"json":      "output.json_path",
	"md":        "output.markdown_path",
	"workers":   "concurrency.workers",
}

func runCrawl(cmd *cobra.Command, args []string) error {
	bindFlags(cmd, crawlFlagKeys)
	if noStore, _ := cmd.Flags().GetBool("no-store"); noStore {
		viper.Set("store.enabled", false)
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		viper.Set("cache.enabled", false)
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, crawlTimeout)
	defer cancelTimeout()

	analyzer, err := e.newAnalyzer(ctx)
	if err != nil {
		return err
	}

	var st pipeline.Store
	if e.cfg.Store.Enabled {
		db, err := store.Open(e.cfg.Store.Path, e.logger)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()
		st = db
	}

	if e.cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Crawling %d subreddits (%s, %d posts each)\n",
			len(e.cfg.Reddit.Subreddits), e.cfg.Reddit.Listing, e.cfg.Reddit.MaxPostsPerSubreddit)
		fmt.Fprintf(os.Stderr, "Store: %v  Cache: %v\n\n", e.cfg.Store.Enabled, e.cfg.Cache.Enabled)
	}

	p := pipeline.New(e.newRedditSource(), analyzer, st, pipeline.ReportOptionsFromConfig(e.cfg), e.logger)
	result, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}
	if result.FetchErr != nil {
		e.logger.Warn("some subreddits failed", zap.Error(result.FetchErr))
	}

	if err := p.RenderReport(result.Report, e.cfg.Output.JSONPath, e.cfg.Output.MarkdownPath, e.cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

// bindFlags maps the running command's flags onto config keys so they
// override the file and environment. Binding happens at run time because
// several commands share keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
}
