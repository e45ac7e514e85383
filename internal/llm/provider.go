// Package llm implements remote sentiment backends: chat models asked to
// rate a sentence's polarity on [-1, 1].
package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/ppiankov/painscope/internal/model"
	"github.com/ppiankov/painscope/internal/sentiment"
)

var (
	// ErrProviderUnknown is returned by NewProvider for unsupported names
	ErrProviderUnknown = errors.New("unknown LLM provider")
	// ErrUnparseable is returned when a model reply carries no number
	ErrUnparseable = errors.New("no polarity in model reply")
)

// Provider defines the interface for LLM sentiment providers. Every
// provider is a sentiment.Scorer.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Polarity rates text from -1 (very negative) to 1 (very positive)
	Polarity(ctx context.Context, text string) (float64, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

var _ sentiment.Scorer = Provider(nil)

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for the reply; a polarity needs very few
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		MaxTokens: 16,
	}
}

// ConfigFromModel converts the sentiment section of the application config.
// Proxy settings are shared with the content source.
func ConfigFromModel(cfg *model.Config) Config {
	c := DefaultConfig()
	c.Provider = cfg.Sentiment.Provider
	c.Model = cfg.Sentiment.Model
	c.APIKey = cfg.Sentiment.APIKey
	c.BaseURL = cfg.Sentiment.BaseURL
	if cfg.Sentiment.Timeout > 0 {
		c.Timeout = cfg.Sentiment.Timeout
	}
	c.HTTPProxy = cfg.Reddit.HTTPProxy
	c.HTTPSProxy = cfg.Reddit.HTTPSProxy
	return c
}

const systemPrompt = "You rate the sentiment of single sentences written by e-commerce business owners. " +
	"Reply with one number between -1 and 1 and nothing else. " +
	"-1 is very negative (frustration, pain, complaint), 0 is neutral, 1 is very positive."

// BuildPrompt constructs the user message for one sentence
func BuildPrompt(text string) string {
	return fmt.Sprintf("Sentence: %q\nPolarity:", text)
}

var numberPattern = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)`)

// ParsePolarity extracts the first number from a model reply and clamps it
// to [-1, 1]
func ParsePolarity(reply string) (float64, error) {
	match := numberPattern.FindString(reply)
	if match == "" {
		return 0, fmt.Errorf("%w: %q", ErrUnparseable, truncate(reply, 80))
	}

	p, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparseable, match)
	}
	return sentiment.Clamp(p), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func timeoutOrDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
