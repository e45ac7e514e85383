package score

import (
	"math"
	"strings"

	"github.com/ppiankov/painscope/internal/lexicon"
	"github.com/ppiankov/painscope/internal/model"
)

const (
	// confidenceScale doubles the match ratio so half the keywords saturate
	confidenceScale = 2
	// minConfidence is the exclusive floor for a category to be reported
	minConfidence = 0.1
	// fallbackConfidence is assigned to general when nothing else qualifies
	fallbackConfidence = 0.1
)

// Categorizer assigns sentences to business categories
type Categorizer struct {
	categories []lexicon.Category
}

// NewCategorizer creates a categorizer over the lexicon's category list
func NewCategorizer(lex *lexicon.Lexicon) *Categorizer {
	return &Categorizer{categories: lex.Categories()}
}

// Categorize returns the best category and all qualifying confidences.
// Categories are scanned in canonical order and only a strictly greater
// confidence replaces the current best, so ties go to the earlier category.
func (c *Categorizer) Categorize(sentence string) (string, map[string]float64) {
	lower := strings.ToLower(sentence)

	confidences := make(map[string]float64)
	best := ""
	bestConf := 0.0
	for _, cat := range c.categories {
		conf := confidence(cat.Keywords.Count(lower), len(cat.Keywords))
		if conf <= minConfidence {
			continue
		}
		confidences[cat.Name] = conf
		if conf > bestConf {
			best = cat.Name
			bestConf = conf
		}
	}

	if best == "" {
		return model.CategoryGeneral, map[string]float64{model.CategoryGeneral: fallbackConfidence}
	}
	return best, confidences
}

func confidence(matches, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Min(1.0, float64(matches)/float64(total)*confidenceScale)
}
