package analyze

import (
	"errors"
	"sort"

	"github.com/ppiankov/painscope/internal/model"
)

// ErrNoData is returned by aggregations over an empty record set
var ErrNoData = errors.New("no pain records")

// Summary describes the distribution of a record set
type Summary struct {
	Count          int            `json:"count"`
	CategoryCounts map[string]int `json:"category_counts"`
	AvgSentiment   float64        `json:"avg_sentiment"`
	AvgUrgency     float64        `json:"avg_urgency"`
	AvgFrequency   float64        `json:"avg_frequency"`
	AvgEngagement  float64        `json:"avg_engagement"`
	AvgTotal       float64        `json:"avg_total"`
	BudgetMentions int            `json:"budget_mentions"`
	BudgetRate     float64        `json:"budget_rate"`
}

// KeywordCount is a keyword with its number of occurrences
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// CategoryInsight summarizes one category of a record set
type CategoryInsight struct {
	Category    string             `json:"category"`
	Count       int                `json:"count"`
	AvgScore    float64            `json:"avg_score"`
	TopKeywords []KeywordCount     `json:"top_keywords"`
	Examples    []model.PainRecord `json:"examples"`
}

// TopN returns the n highest-scoring records. Equal scores keep their input
// order. The input slice is not modified.
func TopN(records []model.PainRecord, n int) ([]model.PainRecord, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}
	if n <= 0 {
		return []model.PainRecord{}, nil
	}

	sorted := make([]model.PainRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalScore > sorted[j].TotalScore
	})

	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted, nil
}

// GroupByCategory buckets records by category, preserving relative order
func GroupByCategory(records []model.PainRecord) map[string][]model.PainRecord {
	groups := make(map[string][]model.PainRecord)
	for _, r := range records {
		groups[r.Category] = append(groups[r.Category], r)
	}
	return groups
}

// FilterByCategory returns the records of one category in input order
func FilterByCategory(records []model.PainRecord, category string) []model.PainRecord {
	out := []model.PainRecord{}
	for _, r := range records {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// Summarize computes counts and sub-score means
func Summarize(records []model.PainRecord) (Summary, error) {
	if len(records) == 0 {
		return Summary{}, ErrNoData
	}

	s := Summary{
		Count:          len(records),
		CategoryCounts: make(map[string]int),
	}
	for _, r := range records {
		s.CategoryCounts[r.Category]++
		s.AvgSentiment += r.SentimentScore
		s.AvgUrgency += r.UrgencyScore
		s.AvgFrequency += r.FrequencyScore
		s.AvgEngagement += r.EngagementScore
		s.AvgTotal += r.TotalScore
		if r.BudgetMention {
			s.BudgetMentions++
		}
	}

	n := float64(len(records))
	s.AvgSentiment /= n
	s.AvgUrgency /= n
	s.AvgFrequency /= n
	s.AvgEngagement /= n
	s.AvgTotal /= n
	s.BudgetRate = float64(s.BudgetMentions) / n

	return s, nil
}

// CategoryInsights reports, per category, the most frequent keywords and the
// highest-scoring examples. Categories are ordered by record count, then
// name. Keyword ties keep first-appearance order.
func CategoryInsights(records []model.PainRecord, topKeywords, examples int) []CategoryInsight {
	groups := GroupByCategory(records)

	insights := make([]CategoryInsight, 0, len(groups))
	for category, group := range groups {
		insight := CategoryInsight{
			Category:    category,
			Count:       len(group),
			TopKeywords: keywordFrequencies(group, topKeywords),
		}

		total := 0.0
		for _, r := range group {
			total += r.TotalScore
		}
		insight.AvgScore = total / float64(len(group))

		// group is non-empty so TopN cannot fail
		insight.Examples, _ = TopN(group, examples)

		insights = append(insights, insight)
	}

	sort.Slice(insights, func(i, j int) bool {
		if insights[i].Count != insights[j].Count {
			return insights[i].Count > insights[j].Count
		}
		return insights[i].Category < insights[j].Category
	})

	return insights
}

func keywordFrequencies(records []model.PainRecord, limit int) []KeywordCount {
	counts := make(map[string]int)
	var order []string
	for _, r := range records {
		for _, kw := range r.Keywords {
			if counts[kw] == 0 {
				order = append(order, kw)
			}
			counts[kw]++
		}
	}

	out := make([]KeywordCount, len(order))
	for i, kw := range order {
		out[i] = KeywordCount{Keyword: kw, Count: counts[kw]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})

	if limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}
