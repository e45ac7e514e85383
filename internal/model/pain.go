package model

// SourceType identifies what kind of content a pain record came from
type SourceType string

const (
	SourcePost    SourceType = "post"
	SourceComment SourceType = "comment"
)

// CategoryGeneral is assigned when no category clears the confidence floor
const CategoryGeneral = "general"

// PainRecord is a single scored and categorized pain statement
type PainRecord struct {
	SourceType SourceType `json:"source_type"`
	SourceID   string     `json:"source_id"`
	Text       string     `json:"text"`
	Keywords   []string   `json:"keywords"` // Matched pain terms, lexicon order

	Category   string             `json:"category"`   // Best-fit category, never empty
	Categories map[string]float64 `json:"categories"` // Category -> confidence in [0,1]

	SentimentScore  float64 `json:"sentiment_score"`  // 0 = neutral/positive, 1 = maximally negative
	UrgencyScore    float64 `json:"urgency_score"`    // [0,1]
	FrequencyScore  float64 `json:"frequency_score"`  // Keyword density [0,1]
	EngagementScore float64 `json:"engagement_score"` // Set by the analyzer from external metrics
	BudgetMention   bool    `json:"budget_mention"`
	TotalScore      float64 `json:"total_score"`
}

// Confidence returns the confidence of the chosen category
func (r PainRecord) Confidence() float64 {
	return r.Categories[r.Category]
}
