package store

import (
	"context"
	"testing"
	"time"

	"github.com/ppiankov/painscope/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(id, text, category string, total float64) model.PainRecord {
	return model.PainRecord{
		SourceType:     model.SourcePost,
		SourceID:       id,
		Text:           text,
		Keywords:       []string{"manual", "expensive"},
		Category:       category,
		Categories:     map[string]float64{category: 0.5},
		SentimentScore: 0.4,
		UrgencyScore:   0.3,
		FrequencyScore: 1,
		BudgetMention:  true,
		TotalScore:     total,
	}
}

func TestSaveItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	score := 42.0
	items := []model.Item{{
		ID:         "reddit_p1",
		Title:      "Inventory sync keeps failing",
		Body:       "I update stock by hand",
		Engagement: &score,
		Subreddit:  "shopify",
		Created:    time.Unix(1700000000, 0),
		Replies: []model.Reply{
			{ID: "reddit_c1", Body: "Same problem here", Engagement: 12},
			{ID: "reddit_c2", Body: "We also struggle", Engagement: 3},
		},
	}, {
		ID:    "reddit_p2",
		Title: "No engagement recorded",
	}}

	require.NoError(t, s.SaveItems(ctx, items))
	// Saving again updates in place
	require.NoError(t, s.SaveItems(ctx, items))

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Posts)
	assert.Equal(t, 2, stats.Comments)
	assert.Equal(t, 0, stats.PainPoints)
}

func TestSavePainPoints_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := record("p1", "Manual uploads are so expensive", "operational", 0.5)
	first.Categories = map[string]float64{"operational": 0.6, "financial": 0.2}
	require.NoError(t, s.SavePainPoints(ctx, []model.PainRecord{first}))

	// Same natural key, new scores and categories
	second := first
	second.TotalScore = 0.7
	second.Category = "financial"
	second.Categories = map[string]float64{"financial": 0.4}
	require.NoError(t, s.SavePainPoints(ctx, []model.PainRecord{second}))

	all, err := s.PainPointsByCategory(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, 0.7, got.TotalScore)
	assert.Equal(t, "financial", got.Category)
	assert.Equal(t, map[string]float64{"financial": 0.4}, got.Categories)
	assert.Equal(t, []string{"manual", "expensive"}, got.Keywords)
	assert.Equal(t, model.SourcePost, got.SourceType)
	assert.True(t, got.BudgetMention)
}

func TestSavePainPoints_DistinctKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	post := record("p1", "Shipping is slow and costly", "logistics", 0.4)
	comment := post
	comment.SourceType = model.SourceComment

	require.NoError(t, s.SavePainPoints(ctx, []model.PainRecord{post, comment}))

	all, err := s.PainPointsByCategory(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2, "source type is part of the natural key")
}

func TestTopPainPoints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePainPoints(ctx, []model.PainRecord{
		record("a", "Our checkout keeps failing", "technical", 0.3),
		record("b", "Manual product uploads take hours", "operational", 0.9),
		record("c", "Ads cost more than they return", "marketing", 0.6),
	}))

	top, err := s.TopPainPoints(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].SourceID)
	assert.Equal(t, "c", top[1].SourceID)

	none, err := s.TopPainPoints(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPainPointsByCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePainPoints(ctx, []model.PainRecord{
		record("a", "Inventory counts drift daily", "operational", 0.3),
		record("b", "Manual product uploads take hours", "operational", 0.9),
		record("c", "Ads cost more than they return", "marketing", 0.6),
	}))

	ops, err := s.PainPointsByCategory(ctx, "operational")
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "b", ops[0].SourceID)
	assert.Equal(t, 0.5, ops[0].Categories["operational"])

	missing, err := s.PainPointsByCategory(ctx, "legal")
	require.NoError(t, err)
	assert.NotNil(t, missing)
	assert.Empty(t, missing)
}

func TestStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.PainPoints)
	assert.Equal(t, 0.0, empty.AvgTotal)

	a := record("a", "Inventory counts drift daily", "operational", 0.2)
	a.BudgetMention = false
	require.NoError(t, s.SavePainPoints(ctx, []model.PainRecord{
		a,
		record("b", "Manual product uploads take hours", "operational", 0.6),
	}))

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PainPoints)
	assert.InDelta(t, 0.4, stats.AvgTotal, 1e-9)
	assert.InDelta(t, 0.4, stats.AvgSentiment, 1e-9)
	assert.Equal(t, 1, stats.BudgetMentions)
	assert.Equal(t, map[string]int{"operational": 2}, stats.Categories)
}
