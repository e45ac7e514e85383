package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/painscope/internal/extract"
	"github.com/ppiankov/painscope/internal/lexicon"
	"github.com/ppiankov/painscope/internal/model"
	"go.uber.org/zap"
)

// DefaultPrefilterTerms are the crawler-side keywords a post thread must hit
// before it is kept. They are broader than the analysis lexicon.
var DefaultPrefilterTerms = lexicon.Terms{
	"problem", "issue", "struggle", "difficult", "challenge",
	"frustrated", "stuck", "help", "advice", "trouble",
	"error", "bug", "broken", "not working", "failed",
	"expensive", "cost", "budget", "money", "price",
	"time", "slow", "manual", "tedious", "repetitive",
	"confused", "overwhelmed", "lost", "don't know",
}

// RedditOptions configures the Reddit source
type RedditOptions struct {
	BaseURL          string
	Subreddits       []string
	Listing          string // hot, top, new, rising
	TimeFilter       string // used by top listings and search
	Search           string // optional extra query per subreddit
	MaxPosts         int
	MaxComments      int
	MinCommentScore  int
	MinBodyLength    int // skip posts with shorter bodies; 0 keeps all
	PrefilterMinHits int // 0 disables the prefilter
	PrefilterTerms   lexicon.Terms
	PostEngagement   bool
}

// RedditOptionsFromConfig converts the reddit config section
func RedditOptionsFromConfig(cfg model.RedditConfig) RedditOptions {
	return RedditOptions{
		BaseURL:          cfg.BaseURL,
		Subreddits:       cfg.Subreddits,
		Listing:          cfg.Listing,
		TimeFilter:       cfg.TimeFilter,
		Search:           cfg.Search,
		MaxPosts:         cfg.MaxPostsPerSubreddit,
		MaxComments:      cfg.MaxCommentsPerPost,
		MinCommentScore:  cfg.MinCommentScore,
		MinBodyLength:    cfg.MinBodyLength,
		PrefilterMinHits: cfg.PrefilterMinHits,
		PostEngagement:   cfg.PostEngagement,
	}
}

// Reddit reads posts and top-level comments from Reddit's public JSON API
type Reddit struct {
	fetcher *Fetcher
	opts    RedditOptions
	logger  *zap.Logger
}

// NewReddit creates a Reddit source
func NewReddit(fetcher *Fetcher, opts RedditOptions, logger *zap.Logger) *Reddit {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.reddit.com"
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	if opts.Listing == "" {
		opts.Listing = "hot"
	}
	if opts.MaxPosts <= 0 {
		opts.MaxPosts = 25
	}
	if opts.PrefilterTerms == nil {
		opts.PrefilterTerms = DefaultPrefilterTerms
	}
	return &Reddit{fetcher: fetcher, opts: opts, logger: logger}
}

// Name returns "reddit"
func (r *Reddit) Name() string {
	return "reddit"
}

// Fetch crawls every configured subreddit. A failing subreddit is logged and
// skipped; the joined errors are returned with whatever was collected.
func (r *Reddit) Fetch(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	var errs []error
	seen := make(map[string]bool)

	for _, sub := range r.opts.Subreddits {
		urls := []string{r.listingURL(sub)}
		if r.opts.Search != "" {
			urls = append(urls, r.searchURL(sub))
		}

		for _, u := range urls {
			got, err := r.crawl(ctx, sub, u)
			if err != nil {
				r.logger.Error("subreddit crawl failed", zap.String("subreddit", sub), zap.Error(err))
				errs = append(errs, fmt.Errorf("r/%s: %w", sub, err))
			}
			for _, item := range got {
				if seen[item.ID] {
					continue
				}
				seen[item.ID] = true
				items = append(items, item)
			}
			if ctx.Err() != nil {
				return items, errors.Join(append(errs, ctx.Err())...)
			}
		}
	}

	r.logger.Info("reddit crawl complete",
		zap.Int("subreddits", len(r.opts.Subreddits)),
		zap.Int("items", len(items)))

	return items, errors.Join(errs...)
}

func (r *Reddit) crawl(ctx context.Context, sub, listingURL string) ([]model.Item, error) {
	r.logger.Info("crawling subreddit", zap.String("subreddit", sub), zap.String("url", listingURL))

	body, err := r.fetcher.Get(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	var items []model.Item
	for _, child := range l.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var post postData
		if err := json.Unmarshal(child.Data, &post); err != nil {
			r.logger.Warn("skipping malformed post", zap.String("subreddit", sub), zap.Error(err))
			continue
		}

		item := r.toItem(post)
		if r.opts.MinBodyLength > 0 && len(item.Body) < r.opts.MinBodyLength {
			continue
		}

		if r.opts.MaxComments > 0 {
			replies, err := r.fetchComments(ctx, post.ID)
			if err != nil {
				if ctx.Err() != nil {
					return items, ctx.Err()
				}
				r.logger.Warn("comments unavailable", zap.String("post_id", post.ID), zap.Error(err))
			}
			item.Replies = replies
		}

		if !r.passesPrefilter(item) {
			r.logger.Debug("post filtered out", zap.String("post_id", post.ID))
			continue
		}
		items = append(items, item)
	}

	r.logger.Info("subreddit crawled", zap.String("subreddit", sub), zap.Int("kept", len(items)))
	return items, nil
}

func (r *Reddit) fetchComments(ctx context.Context, postID string) ([]model.Reply, error) {
	body, err := r.fetcher.Get(ctx, r.commentsURL(postID))
	if err != nil {
		return nil, err
	}

	// The response is [post listing, comment listing]
	var listings []listing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var replies []model.Reply
	for _, child := range listings[1].Data.Children {
		if len(replies) >= r.opts.MaxComments {
			break
		}
		if child.Kind != "t1" {
			continue
		}
		var c commentData
		if err := json.Unmarshal(child.Data, &c); err != nil {
			continue
		}

		text := bodyText(c.Body, c.BodyHTML)
		if isRemoved(c.Body) || len(text) <= extract.MinSentenceLength || c.Score < float64(r.opts.MinCommentScore) {
			continue
		}

		replies = append(replies, model.Reply{
			ID:         "reddit_" + c.ID,
			Body:       text,
			Engagement: c.Score,
			Author:     authorName(c.Author),
			Created:    unixTime(c.CreatedUTC),
		})
	}
	return replies, nil
}

func (r *Reddit) toItem(p postData) model.Item {
	item := model.Item{
		ID:        "reddit_" + p.ID,
		Title:     p.Title,
		Body:      bodyText(p.Selftext, p.SelftextHTML),
		Subreddit: p.Subreddit,
		URL:       r.opts.BaseURL + p.Permalink,
		Author:    authorName(p.Author),
		Created:   unixTime(p.CreatedUTC),
	}
	if r.opts.PostEngagement {
		score := p.Score
		item.Engagement = &score
	}
	return item
}

// passesPrefilter counts crawler keyword hits over the post and its
// comments; each term counts once per text
func (r *Reddit) passesPrefilter(item model.Item) bool {
	if r.opts.PrefilterMinHits <= 0 {
		return true
	}
	hits := r.opts.PrefilterTerms.Count(strings.ToLower(item.Text()))
	for _, reply := range item.Replies {
		hits += r.opts.PrefilterTerms.Count(strings.ToLower(reply.Body))
	}
	return hits >= r.opts.PrefilterMinHits
}

func (r *Reddit) listingURL(sub string) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(r.opts.MaxPosts))
	if r.opts.Listing == "top" && r.opts.TimeFilter != "" {
		q.Set("t", r.opts.TimeFilter)
	}
	return fmt.Sprintf("%s/r/%s/%s.json?%s", r.opts.BaseURL, url.PathEscape(sub), r.opts.Listing, q.Encode())
}

func (r *Reddit) searchURL(sub string) string {
	q := url.Values{}
	q.Set("q", r.opts.Search)
	q.Set("restrict_sr", "1")
	q.Set("limit", strconv.Itoa(r.opts.MaxPosts))
	if r.opts.TimeFilter != "" {
		q.Set("t", r.opts.TimeFilter)
	}
	return fmt.Sprintf("%s/r/%s/search.json?%s", r.opts.BaseURL, url.PathEscape(sub), q.Encode())
}

func (r *Reddit) commentsURL(postID string) string {
	q := url.Values{}
	// Over-fetch: removed and short comments are dropped client-side
	q.Set("limit", strconv.Itoa(r.opts.MaxComments*2))
	q.Set("depth", "1")
	q.Set("sort", "top")
	return fmt.Sprintf("%s/comments/%s.json?%s", r.opts.BaseURL, url.PathEscape(postID), q.Encode())
}

// bodyText prefers the rendered HTML, flattened, over the markdown source
func bodyText(plain, htmlFragment string) string {
	if htmlFragment != "" {
		if text, err := extract.VisibleText(htmlFragment); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}
	return strings.TrimSpace(plain)
}

func isRemoved(body string) bool {
	return body == "[deleted]" || body == "[removed]"
}

func authorName(author string) string {
	if author == "" {
		return "deleted"
	}
	return author
}

func unixTime(sec float64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Selftext     string  `json:"selftext"`
	SelftextHTML string  `json:"selftext_html"`
	Subreddit    string  `json:"subreddit"`
	Permalink    string  `json:"permalink"`
	Author       string  `json:"author"`
	Score        float64 `json:"score"`
	NumComments  int     `json:"num_comments"`
	CreatedUTC   float64 `json:"created_utc"`
}

type commentData struct {
	ID         string  `json:"id"`
	Body       string  `json:"body"`
	BodyHTML   string  `json:"body_html"`
	Author     string  `json:"author"`
	Score      float64 `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
}
