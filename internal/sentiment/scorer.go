// Package sentiment provides the polarity capability used by pain detection
// and scoring. The engine depends only on the contract: a polarity in
// [-1, 1] where negative values mean negative sentiment.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jonreiter/govader"
)

// ErrNotLocal is returned by New for providers that need a remote backend
var ErrNotLocal = errors.New("sentiment provider is not local")

// Scorer maps a sentence to a polarity in [-1, 1]
type Scorer interface {
	Polarity(ctx context.Context, text string) (float64, error)
}

// Func adapts a plain function to Scorer
type Func func(ctx context.Context, text string) (float64, error)

// Polarity calls f
func (f Func) Polarity(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}

// Neutral always reports 0, leaving detection to keywords alone
type Neutral struct{}

// Polarity returns 0
func (Neutral) Polarity(context.Context, string) (float64, error) {
	return 0, nil
}

// Static reports the same polarity for every text
type Static float64

// Polarity returns s, clamped
func (s Static) Polarity(context.Context, string) (float64, error) {
	return Clamp(float64(s)), nil
}

// Vader scores text with the VADER lexicon and rule set
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVader creates a VADER-backed scorer
func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Polarity returns the VADER compound score
func (v *Vader) Polarity(_ context.Context, text string) (float64, error) {
	return Clamp(v.analyzer.PolarityScores(text).Compound), nil
}

// New returns the local scorer for a provider name. Remote providers live in
// the llm package and are wired by the caller.
func New(provider string) (Scorer, error) {
	switch provider {
	case "vader", "":
		return NewVader(), nil
	case "none":
		return Neutral{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotLocal, provider)
	}
}

// Clamp bounds a polarity to [-1, 1]; NaN maps to 0
func Clamp(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	if p < -1 {
		return -1
	}
	if p > 1 {
		return 1
	}
	return p
}
