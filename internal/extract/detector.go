package extract

import (
	"context"
	"strings"

	"github.com/ppiankov/painscope/internal/lexicon"
	"github.com/ppiankov/painscope/internal/sentiment"
	"go.uber.org/zap"
)

// Trigger records why a sentence was classified as pain
type Trigger string

const (
	TriggerNone      Trigger = ""
	TriggerKeyword   Trigger = "keyword"
	TriggerSentiment Trigger = "sentiment"
)

// Detection is the outcome of checking one sentence
type Detection struct {
	Pain     bool
	Trigger  Trigger
	Keywords []string // Matched pain terms, lexicon order
}

// Detector decides whether a sentence is a pain statement: any pain keyword
// hit, or a polarity strictly below the negative threshold
type Detector struct {
	keywords  lexicon.Terms
	sentiment sentiment.Scorer
	threshold float64
	logger    *zap.Logger
}

// NewDetector creates a detector. A nil scorer disables the sentiment
// trigger; a nil logger discards logs.
func NewDetector(lex *lexicon.Lexicon, scorer sentiment.Scorer, threshold float64, logger *zap.Logger) *Detector {
	if scorer == nil {
		scorer = sentiment.Neutral{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		keywords:  lex.Pain(),
		sentiment: scorer,
		threshold: threshold,
		logger:    logger,
	}
}

// Keywords returns the pain terms contained in sentence
func (d *Detector) Keywords(sentence string) []string {
	return d.keywords.Matches(strings.ToLower(sentence))
}

// IsPain reports whether sentence qualifies as a pain statement
func (d *Detector) IsPain(ctx context.Context, sentence string) bool {
	return d.Detect(ctx, sentence).Pain
}

// Detect classifies sentence. Keywords are checked first; the sentiment
// backend is only consulted when no keyword hits. A sentiment failure counts
// as "no sentiment signal".
func (d *Detector) Detect(ctx context.Context, sentence string) Detection {
	found := d.Keywords(sentence)
	if len(found) > 0 {
		return Detection{Pain: true, Trigger: TriggerKeyword, Keywords: found}
	}

	polarity, err := d.sentiment.Polarity(ctx, sentence)
	if err != nil {
		d.logger.Warn("sentiment unavailable, using keywords only",
			zap.String("stage", "detect"),
			zap.Error(err))
		return Detection{}
	}

	if polarity < d.threshold {
		return Detection{Pain: true, Trigger: TriggerSentiment}
	}
	return Detection{}
}
