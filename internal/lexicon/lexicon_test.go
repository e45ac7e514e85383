package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_CanonicalCategoryOrder(t *testing.T) {
	l := Default()

	assert.Equal(t, []string{
		"operational", "analytical", "communication",
		"technical", "marketing", "financial",
	}, l.CategoryNames())
}

func TestTerms_SubstringSemantics(t *testing.T) {
	terms := Terms{"manual", "manually", "issue", "ads"}

	// Matches inside larger words are intentional
	assert.Equal(t, []string{"manual", "manually"}, terms.Matches("done manually"))
	assert.Equal(t, []string{"issue"}, terms.Matches("no issues at all"))
	assert.Equal(t, []string{"ads"}, terms.Matches("it loads slowly"))
	assert.Empty(t, terms.Matches("everything is fine"))

	assert.Equal(t, 2, terms.Count("done manually"))
	assert.True(t, terms.Any("issues"))
	assert.False(t, terms.Any(""))
}

func TestNew_NormalizesTerms(t *testing.T) {
	l, err := New(
		[]string{"Manual", "manual", "  Slow ", ""},
		nil,
		[]string{"$"},
		[]Category{{Name: "ops", Keywords: Terms{"Stock"}}},
	)
	require.NoError(t, err)

	assert.Equal(t, Terms{"manual", "slow"}, l.Pain())
	assert.Equal(t, Terms{"$"}, l.Budget())
	assert.Empty(t, l.Urgency())
	assert.Equal(t, Terms{"stock"}, l.Categories()[0].Keywords)
}

func TestNew_CategoryKeywordsKeepRepeats(t *testing.T) {
	l, err := New(nil, nil, nil, []Category{
		{Name: "ops", Keywords: Terms{"AA", "aa", " bb ", "", "cc", "dd", "ee"}},
	})
	require.NoError(t, err)

	assert.Equal(t, Terms{"aa", "aa", "bb", "cc", "dd", "ee"}, l.Categories()[0].Keywords)
}

func TestNew_RejectsBadCategories(t *testing.T) {
	tests := []struct {
		name string
		cats []Category
	}{
		{"none", nil},
		{"empty name", []Category{{Name: " ", Keywords: Terms{"a"}}}},
		{"duplicate", []Category{{Name: "a", Keywords: Terms{"x"}}, {Name: "a", Keywords: Terms{"y"}}}},
		{"no keywords", []Category{{Name: "a", Keywords: Terms{"", " "}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, nil, nil, tt.cats)
			assert.Error(t, err)
		})
	}
}

func TestLexicon_AccessorsReturnCopies(t *testing.T) {
	l := Default()

	pain := l.Pain()
	pain[0] = "mutated"
	cats := l.Categories()
	cats[0].Keywords[0] = "mutated"

	assert.Equal(t, "manual", l.Pain()[0])
	assert.Equal(t, "inventory", l.Categories()[0].Keywords[0])
}

func TestLoad_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `
pain_keywords:
  - broken
categories:
  - name: billing
    keywords: [invoice, refund]
  - name: delivery
    keywords: [courier]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Terms{"broken"}, l.Pain())
	assert.Equal(t, []string{"billing", "delivery"}, l.CategoryNames())
	// Missing lists fall back to defaults
	assert.Equal(t, Default().Urgency(), l.Urgency())
	assert.Equal(t, Default().Budget(), l.Budget())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("pain_keywords: [unterminated"))
	assert.Error(t, err)
}
