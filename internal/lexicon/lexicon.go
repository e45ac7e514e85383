// Package lexicon holds the immutable word lists that drive pain detection,
// scoring and categorization.
//
// All matching is case-insensitive substring matching: a term hits when it
// occurs anywhere in the lowercased sentence, including inside a larger word
// ("issue" hits "issues", "ads" hits "loads").
package lexicon

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Terms is an ordered list of lowercase match terms
type Terms []string

// Matches returns every term contained in lower, in list order
func (t Terms) Matches(lower string) []string {
	var found []string
	for _, term := range t {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

// Count returns how many terms are contained in lower
func (t Terms) Count(lower string) int {
	n := 0
	for _, term := range t {
		if strings.Contains(lower, term) {
			n++
		}
	}
	return n
}

// Any reports whether at least one term is contained in lower
func (t Terms) Any(lower string) bool {
	for _, term := range t {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Category is a named topical keyword set
type Category struct {
	Name     string `yaml:"name"`
	Keywords Terms  `yaml:"keywords"`
}

// Lexicon bundles every word list used by the engine.
// A Lexicon is never mutated after construction; accessors return copies.
type Lexicon struct {
	pain       Terms
	urgency    Terms
	budget     Terms
	categories []Category
}

// New builds a lexicon, lowercasing and de-duplicating indicator terms while
// keeping their first-seen order. Category keyword lists keep every entry,
// repeats included, so their length stays the confidence denominator.
// Category order is the canonical tie-break order.
func New(pain, urgency, budget []string, categories []Category) (*Lexicon, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("lexicon needs at least one category")
	}

	seen := make(map[string]bool, len(categories))
	cats := make([]Category, 0, len(categories))
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("category with empty name")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate category: %s", name)
		}
		seen[name] = true

		kw := lower(c.Keywords)
		if len(kw) == 0 {
			return nil, fmt.Errorf("category %s has no keywords", name)
		}
		cats = append(cats, Category{Name: name, Keywords: kw})
	}

	return &Lexicon{
		pain:       normalize(pain),
		urgency:    normalize(urgency),
		budget:     normalize(budget),
		categories: cats,
	}, nil
}

// Pain returns the general pain-indicator terms
func (l *Lexicon) Pain() Terms { return clone(l.pain) }

// Urgency returns the urgency terms
func (l *Lexicon) Urgency() Terms { return clone(l.urgency) }

// Budget returns the budget/money terms
func (l *Lexicon) Budget() Terms { return clone(l.budget) }

// Categories returns the categories in canonical order
func (l *Lexicon) Categories() []Category {
	out := make([]Category, len(l.categories))
	for i, c := range l.categories {
		out[i] = Category{Name: c.Name, Keywords: clone(c.Keywords)}
	}
	return out
}

// CategoryNames returns category names in canonical order
func (l *Lexicon) CategoryNames() []string {
	names := make([]string, len(l.categories))
	for i, c := range l.categories {
		names[i] = c.Name
	}
	return names
}

// fileFormat is the on-disk YAML layout of a lexicon override
type fileFormat struct {
	PainKeywords    []string   `yaml:"pain_keywords"`
	UrgencyKeywords []string   `yaml:"urgency_keywords"`
	BudgetKeywords  []string   `yaml:"budget_keywords"`
	Categories      []Category `yaml:"categories"`
}

// Load reads a lexicon from a YAML file. Lists missing from the file fall
// back to the built-in defaults.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return Parse(data)
}

// Parse builds a lexicon from YAML bytes (see Load)
func Parse(data []byte) (*Lexicon, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	if f.PainKeywords == nil {
		f.PainKeywords = defaultPain
	}
	if f.UrgencyKeywords == nil {
		f.UrgencyKeywords = defaultUrgency
	}
	if f.BudgetKeywords == nil {
		f.BudgetKeywords = defaultBudget
	}
	if f.Categories == nil {
		f.Categories = defaultCategories
	}

	return New(f.PainKeywords, f.UrgencyKeywords, f.BudgetKeywords, f.Categories)
}

// MarshalYAML renders the lexicon in the Load file format
func (l *Lexicon) MarshalYAML() (interface{}, error) {
	return fileFormat{
		PainKeywords:    l.pain,
		UrgencyKeywords: l.urgency,
		BudgetKeywords:  l.budget,
		Categories:      l.categories,
	}, nil
}

func normalize(terms []string) Terms {
	seen := make(map[string]bool, len(terms))
	out := make(Terms, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func lower(terms []string) Terms {
	out := make(Terms, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func clone(t Terms) Terms {
	out := make(Terms, len(t))
	copy(out, t)
	return out
}
