package model

import (
	"fmt"
	"time"
)

// Config is the complete painscope configuration
type Config struct {
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Detection   DetectionConfig   `yaml:"detection" mapstructure:"detection"`
	Engagement  EngagementConfig  `yaml:"engagement" mapstructure:"engagement"`
	Lexicon     LexiconConfig     `yaml:"lexicon" mapstructure:"lexicon"`
	Sentiment   SentimentConfig   `yaml:"sentiment" mapstructure:"sentiment"`
	Reddit      RedditConfig      `yaml:"reddit" mapstructure:"reddit"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// ScoringConfig holds the total-score weight vector
type ScoringConfig struct {
	Weights Weights `yaml:"weights" mapstructure:"weights"`
}

// Weights are the linear coefficients of the total score.
//
// Engagement is reserved: it is configurable and reported, but the
// per-sentence total never applies it. Engagement is only known after the
// caller supplies an external metric, and it is stored on the record
// separately instead of being folded into TotalScore.
type Weights struct {
	Frequency     float64 `yaml:"frequency" mapstructure:"frequency"`
	Sentiment     float64 `yaml:"sentiment" mapstructure:"sentiment"`
	Engagement    float64 `yaml:"engagement" mapstructure:"engagement"`
	Urgency       float64 `yaml:"urgency" mapstructure:"urgency"`
	BudgetMention float64 `yaml:"budget_mention" mapstructure:"budget_mention"`
}

// DefaultWeights returns the stock weight vector
func DefaultWeights() Weights {
	return Weights{
		Frequency:     0.3,
		Sentiment:     0.2,
		Engagement:    0.2,
		Urgency:       0.15,
		BudgetMention: 0.15,
	}
}

// DetectionConfig controls pain-sentence detection
type DetectionConfig struct {
	// NegativeThreshold: polarity strictly below this marks a sentence as pain
	NegativeThreshold float64 `yaml:"negative_threshold" mapstructure:"negative_threshold"`
}

// EngagementConfig controls engagement normalization
type EngagementConfig struct {
	Saturation float64 `yaml:"saturation" mapstructure:"saturation"` // Metric value that maps to 1.0
}

// LexiconConfig points at an optional lexicon override file
type LexiconConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Empty = built-in lexicon
}

// SentimentConfig selects the sentiment backend
type SentimentConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"` // vader, openai, anthropic, ollama, none
	Model             string        `yaml:"model,omitempty" mapstructure:"model"`
	APIKey            string        `yaml:"-" mapstructure:"api_key"`
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // Remote backends only
	CacheTTL          time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// RedditConfig configures the Reddit content source
type RedditConfig struct {
	BaseURL              string        `yaml:"base_url" mapstructure:"base_url"`
	Subreddits           []string      `yaml:"subreddits" mapstructure:"subreddits"`
	Listing              string        `yaml:"listing" mapstructure:"listing"`         // hot, top, new, rising
	TimeFilter           string        `yaml:"time_filter" mapstructure:"time_filter"` // hour, day, week, month, year, all
	Search               string        `yaml:"search,omitempty" mapstructure:"search"` // Extra per-subreddit search query
	MinBodyLength        int           `yaml:"min_body_length" mapstructure:"min_body_length"`
	MaxPostsPerSubreddit int           `yaml:"max_posts_per_subreddit" mapstructure:"max_posts_per_subreddit"`
	MaxCommentsPerPost   int           `yaml:"max_comments_per_post" mapstructure:"max_comments_per_post"`
	MinCommentScore      int           `yaml:"min_comment_score" mapstructure:"min_comment_score"`
	PrefilterMinHits     int           `yaml:"prefilter_min_hits" mapstructure:"prefilter_min_hits"` // 0 disables
	PostEngagement       bool          `yaml:"post_engagement" mapstructure:"post_engagement"`       // Attach post score as engagement
	UserAgent            string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout              time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond    float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize            int           `yaml:"burst_size" mapstructure:"burst_size"`
	RespectRobots        bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy            string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy           string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig configures response caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// StoreConfig configures persistence
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// ConcurrencyConfig configures parallel item analysis
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig configures report rendering
type OutputConfig struct {
	JSONPath     string `yaml:"json_path" mapstructure:"json_path"`
	MarkdownPath string `yaml:"markdown_path" mapstructure:"markdown_path"`
	TopN         int    `yaml:"top_n" mapstructure:"top_n"`
	TopKeywords  int    `yaml:"top_keywords" mapstructure:"top_keywords"`
	Verbose      bool   `yaml:"verbose" mapstructure:"verbose"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{Weights: DefaultWeights()},
		Detection: DetectionConfig{
			NegativeThreshold: -0.1,
		},
		Engagement: EngagementConfig{
			Saturation: 10,
		},
		Sentiment: SentimentConfig{
			Provider:          "vader",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 2,
			CacheTTL:          time.Hour,
		},
		Reddit: RedditConfig{
			BaseURL: "https://www.reddit.com",
			Subreddits: []string{
				"ecommerce", "shopify", "woocommerce", "AmazonSeller",
				"FulfillmentByAmazon", "dropship", "entrepreneur", "smallbusiness",
			},
			Listing:              "hot",
			TimeFilter:           "month",
			MaxPostsPerSubreddit: 25,
			MaxCommentsPerPost:   5,
			MinCommentScore:      0,
			PrefilterMinHits:     2,
			UserAgent:            "painscope/0.1 (+https://github.com/ppiankov/painscope)",
			Timeout:              10 * time.Second,
			RequestsPerSecond:    1.4,
			BurstSize:            1,
			RespectRobots:        false, // JSON API endpoints; opt in for strict crawling
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".painscope-cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   6 * time.Hour,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    "pain_points.db",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			JSONPath:     "pain_points.json",
			MarkdownPath: "pain_points_report.md",
			TopN:         20,
			TopKeywords:  5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for values the engine cannot use
func (c *Config) Validate() error {
	w := c.Scoring.Weights
	for name, v := range map[string]float64{
		"frequency":      w.Frequency,
		"sentiment":      w.Sentiment,
		"engagement":     w.Engagement,
		"urgency":        w.Urgency,
		"budget_mention": w.BudgetMention,
	} {
		if v < 0 {
			return fmt.Errorf("scoring.weights.%s must be >= 0, got %v", name, v)
		}
	}

	if t := c.Detection.NegativeThreshold; t < -1 || t > 1 {
		return fmt.Errorf("detection.negative_threshold must be in [-1, 1], got %v", t)
	}

	if c.Engagement.Saturation <= 0 {
		return fmt.Errorf("engagement.saturation must be > 0, got %v", c.Engagement.Saturation)
	}

	switch c.Sentiment.Provider {
	case "vader", "openai", "anthropic", "claude", "ollama", "none", "":
	default:
		return fmt.Errorf("unknown sentiment provider: %s (supported: vader, openai, anthropic, ollama, none)", c.Sentiment.Provider)
	}

	switch c.Reddit.Listing {
	case "hot", "top", "new", "rising", "":
	default:
		return fmt.Errorf("reddit.listing must be hot, top, new or rising, got %q", c.Reddit.Listing)
	}

	if c.Concurrency.Workers < 0 {
		return fmt.Errorf("concurrency.workers must be >= 0, got %d", c.Concurrency.Workers)
	}

	return nil
}
