// Package analyze runs pain extraction over texts and content items and
// aggregates the resulting records.
package analyze

import (
	"context"
	"math"
	"strings"

	"github.com/ppiankov/painscope/internal/extract"
	"github.com/ppiankov/painscope/internal/lexicon"
	"github.com/ppiankov/painscope/internal/model"
	"github.com/ppiankov/painscope/internal/score"
	"github.com/ppiankov/painscope/internal/sentiment"
	"github.com/ppiankov/painscope/internal/worker"
	"go.uber.org/zap"
)

// Options tunes the analyzer
type Options struct {
	Weights    model.Weights
	Threshold  float64 // Polarity below this flags a sentence as pain
	Saturation float64 // Engagement metric that normalizes to 1.0
	Workers    int     // Parallel item analyses; 0 or 1 runs serially
}

// DefaultOptions returns the documented engine defaults
func DefaultOptions() Options {
	return Options{
		Weights:    model.DefaultWeights(),
		Threshold:  -0.1,
		Saturation: 10,
		Workers:    1,
	}
}

// OptionsFromConfig extracts analyzer options from cfg
func OptionsFromConfig(cfg *model.Config) Options {
	return Options{
		Weights:    cfg.Scoring.Weights,
		Threshold:  cfg.Detection.NegativeThreshold,
		Saturation: cfg.Engagement.Saturation,
		Workers:    cfg.Concurrency.Workers,
	}
}

// Analyzer turns text into scored, categorized pain records
type Analyzer struct {
	detector    *extract.Detector
	scorer      *score.Scorer
	categorizer *score.Categorizer
	saturation  float64
	workers     int
	logger      *zap.Logger
}

// New creates an analyzer. The lexicon and sentiment scorer are shared
// read-only by every analysis. A panic inside the sentiment scorer affects
// only the sentence being scored, never the rest of its item.
func New(lex *lexicon.Lexicon, scorer sentiment.Scorer, opts Options, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	scorer = sentiment.Safe(scorer)
	if opts.Saturation <= 0 {
		opts.Saturation = DefaultOptions().Saturation
	}

	return &Analyzer{
		detector:    extract.NewDetector(lex, scorer, opts.Threshold, logger),
		scorer:      score.NewScorer(lex, scorer, opts.Weights, logger),
		categorizer: score.NewCategorizer(lex),
		saturation:  opts.Saturation,
		workers:     opts.Workers,
		logger:      logger,
	}
}

// Scorer exposes the sentence scorer, e.g. to explain a breakdown
func (a *Analyzer) Scorer() *score.Scorer {
	return a.scorer
}

// AnalyzeText extracts pain records from one text. Records are returned in
// sentence order; empty text yields an empty slice.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string, sourceType model.SourceType, sourceID string) []model.PainRecord {
	records := []model.PainRecord{}
	if strings.TrimSpace(text) == "" {
		a.logger.Debug("skipping empty text",
			zap.String("source_type", string(sourceType)),
			zap.String("source_id", sourceID))
		return records
	}

	for _, sentence := range extract.Segment(text) {
		det := a.detector.Detect(ctx, sentence)
		if !det.Pain {
			continue
		}
		records = append(records, a.record(ctx, sentence, det, sourceType, sourceID))
	}

	return records
}

func (a *Analyzer) record(ctx context.Context, sentence string, det extract.Detection, sourceType model.SourceType, sourceID string) model.PainRecord {
	keywords := det.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	b := a.scorer.Score(ctx, sentence, keywords)
	category, confidences := a.categorizer.Categorize(sentence)

	return model.PainRecord{
		SourceType:     sourceType,
		SourceID:       sourceID,
		Text:           sentence,
		Keywords:       keywords,
		Category:       category,
		Categories:     confidences,
		SentimentScore: b.Sentiment,
		UrgencyScore:   b.Urgency,
		FrequencyScore: b.Frequency,
		BudgetMention:  b.BudgetMention,
		TotalScore:     b.Total,
	}
}

// AnalyzeItems analyzes posts and their replies. Items are analyzed in
// parallel when workers > 1 and the output preserves input order: each
// post's records followed by its replies' records. An item whose analysis
// panics is logged and contributes nothing.
func (a *Analyzer) AnalyzeItems(ctx context.Context, items []model.Item) []model.PainRecord {
	records := []model.PainRecord{}
	if len(items) == 0 {
		return records
	}

	outcomes := worker.Map(ctx, a.workers, items, func(ctx context.Context, _ int, item model.Item) ([]model.PainRecord, error) {
		return a.analyzeItem(ctx, item), nil
	})

	for i, o := range outcomes {
		switch {
		case !o.Done:
			a.logger.Warn("item not analyzed", zap.String("item_id", items[i].ID), zap.Error(ctx.Err()))
		case o.Err != nil:
			a.logger.Error("item analysis failed", zap.String("item_id", items[i].ID), zap.Error(o.Err))
		default:
			records = append(records, o.Value...)
		}
	}

	a.logger.Debug("items analyzed",
		zap.Int("items", len(items)),
		zap.Int("records", len(records)))

	return records
}

func (a *Analyzer) analyzeItem(ctx context.Context, item model.Item) []model.PainRecord {
	records := a.AnalyzeText(ctx, item.Text(), model.SourcePost, item.ID)
	if item.Engagement != nil {
		engagement := a.EngagementScore(*item.Engagement)
		for i := range records {
			records[i].EngagementScore = engagement
		}
	}

	for _, reply := range item.Replies {
		replyRecords := a.AnalyzeText(ctx, reply.Body, model.SourceComment, reply.ID)
		engagement := a.EngagementScore(reply.Engagement)
		for i := range replyRecords {
			replyRecords[i].EngagementScore = engagement
		}
		records = append(records, replyRecords...)
	}

	return records
}

// EngagementScore normalizes a raw engagement metric to [0,1]. Negative
// metrics (downvoted content) map to 0.
func (a *Analyzer) EngagementScore(metric float64) float64 {
	if math.IsNaN(metric) {
		return 0
	}
	return math.Max(0, math.Min(1.0, metric/a.saturation))
}
