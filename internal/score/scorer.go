package score

import (
	"context"
	"math"
	"strings"

	"github.com/ppiankov/painscope/internal/extract"
	"github.com/ppiankov/painscope/internal/lexicon"
	"github.com/ppiankov/painscope/internal/model"
	"github.com/ppiankov/painscope/internal/sentiment"
	"go.uber.org/zap"
)

const (
	// urgencyStep is the urgency added per urgency term; 4 terms saturate
	urgencyStep = 0.3
	// densityScale maps keyword density to [0,1]; 1 hit per 10 words saturates
	densityScale = 10
)

// Breakdown is the full scoring result for one sentence
type Breakdown struct {
	Sentiment     float64
	Urgency       float64
	Frequency     float64
	BudgetMention bool
	Total         float64

	// SentimentAvailable is false when the sentiment backend failed and the
	// sentiment sub-score defaulted to 0
	SentimentAvailable bool
}

// Contribution explains one term of the total score
type Contribution struct {
	Component string  `json:"component"`
	Value     float64 `json:"value"`
	Weight    float64 `json:"weight"`
	Points    float64 `json:"points"`
	Formula   string  `json:"formula"`
}

// Scorer computes the four sub-scores of a pain sentence and their weighted total
type Scorer struct {
	urgency   lexicon.Terms
	budget    lexicon.Terms
	sentiment sentiment.Scorer
	weights   model.Weights
	logger    *zap.Logger
}

// NewScorer creates a scorer. A nil sentiment scorer yields a 0 sentiment
// sub-score; a nil logger discards logs.
func NewScorer(lex *lexicon.Lexicon, scorer sentiment.Scorer, weights model.Weights, logger *zap.Logger) *Scorer {
	if scorer == nil {
		scorer = sentiment.Neutral{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		urgency:   lex.Urgency(),
		budget:    lex.Budget(),
		sentiment: scorer,
		weights:   weights,
		logger:    logger,
	}
}

// Weights returns the weight vector in use
func (s *Scorer) Weights() model.Weights {
	return s.weights
}

// Score computes the breakdown for sentence given its matched pain keywords
func (s *Scorer) Score(ctx context.Context, sentence string, keywords []string) Breakdown {
	lower := strings.ToLower(sentence)

	sent, ok := s.calculateSentiment(ctx, sentence)
	b := Breakdown{
		Sentiment:          sent,
		Urgency:            s.calculateUrgency(lower),
		Frequency:          calculateFrequency(sentence, keywords),
		BudgetMention:      s.budget.Any(lower),
		SentimentAvailable: ok,
	}
	b.Total = s.total(b)
	return b
}

// calculateSentiment maps polarity to pain: only negativity counts
func (s *Scorer) calculateSentiment(ctx context.Context, sentence string) (float64, bool) {
	polarity, err := s.sentiment.Polarity(ctx, sentence)
	if err != nil {
		s.logger.Warn("sentiment unavailable, sub-score set to 0",
			zap.String("stage", "score"),
			zap.Error(err))
		return 0, false
	}
	return math.Max(0, -sentiment.Clamp(polarity)), true
}

func (s *Scorer) calculateUrgency(lower string) float64 {
	return math.Min(1.0, float64(s.urgency.Count(lower))*urgencyStep)
}

func calculateFrequency(sentence string, keywords []string) float64 {
	words := extract.WordCount(sentence)
	if words < 1 {
		words = 1
	}
	return math.Min(1.0, float64(len(keywords))/float64(words)*densityScale)
}

// total applies the weight vector. Engagement is not applied: it is
// unknown when a single sentence is scored.
func (s *Scorer) total(b Breakdown) float64 {
	w := s.weights
	return b.Frequency*w.Frequency +
		b.Sentiment*w.Sentiment +
		b.Urgency*w.Urgency +
		boolToFloat(b.BudgetMention)*w.BudgetMention
}

// Contributions explains how b's total was assembled
func (s *Scorer) Contributions(b Breakdown) []Contribution {
	w := s.weights
	budget := boolToFloat(b.BudgetMention)
	return []Contribution{
		{Component: "frequency", Value: b.Frequency, Weight: w.Frequency, Points: b.Frequency * w.Frequency,
			Formula: "min(keyword_count / max(1, word_count) * 10, 1)"},
		{Component: "sentiment", Value: b.Sentiment, Weight: w.Sentiment, Points: b.Sentiment * w.Sentiment,
			Formula: "max(0, -polarity)"},
		{Component: "urgency", Value: b.Urgency, Weight: w.Urgency, Points: b.Urgency * w.Urgency,
			Formula: "min(urgency_count * 0.3, 1)"},
		{Component: "budget_mention", Value: budget, Weight: w.BudgetMention, Points: budget * w.BudgetMention,
			Formula: "1 if any budget term else 0"},
		{Component: "engagement", Value: 0, Weight: w.Engagement, Points: 0,
			Formula: "reserved: stored on the record, not added to total"},
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
