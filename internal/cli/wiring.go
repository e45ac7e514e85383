package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/painscope/internal/analyze"
	"github.com/ppiankov/painscope/internal/cache"
	"github.com/ppiankov/painscope/internal/lexicon"
	"github.com/ppiankov/painscope/internal/llm"
	"github.com/ppiankov/painscope/internal/model"
	"github.com/ppiankov/painscope/internal/sentiment"
	"github.com/ppiankov/painscope/internal/source"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the process logger. Logs go to stderr so reports written
// to stdout stay clean.
func newLogger(cfg model.LoggingConfig, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case "console", "":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q (supported: console, json)", cfg.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core), nil
}

// env bundles what every command needs
type env struct {
	cfg    *model.Config
	logger *zap.Logger
	cache  cache.Cache
}

func newEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Logging, cfg.Output.Verbose)
	if err != nil {
		return nil, err
	}

	var c cache.Cache = cache.Nop{}
	if cfg.Cache.Enabled {
		c = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}
	return &env{cfg: cfg, logger: logger, cache: c}, nil
}

func (e *env) close() {
	_ = e.logger.Sync()
}

// newAnalyzer loads the lexicon and sentiment backend and builds the analyzer
func (e *env) newAnalyzer(ctx context.Context) (*analyze.Analyzer, error) {
	lex := lexicon.Default()
	if e.cfg.Lexicon.Path != "" {
		loaded, err := lexicon.Load(e.cfg.Lexicon.Path)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		lex = loaded
		e.logger.Info("lexicon loaded", zap.String("path", e.cfg.Lexicon.Path))
	}

	scorer, err := e.newSentiment(ctx)
	if err != nil {
		return nil, err
	}
	return analyze.New(lex, scorer, analyze.OptionsFromConfig(e.cfg), e.logger), nil
}

// newSentiment resolves the configured provider. Local scorers are used as
// is; remote ones are paced and memoized per text.
func (e *env) newSentiment(ctx context.Context) (sentiment.Scorer, error) {
	sc := e.cfg.Sentiment

	local, err := sentiment.New(sc.Provider)
	if err == nil {
		e.logger.Debug("sentiment backend", zap.String("provider", providerName(sc.Provider)))
		return local, nil
	}
	if !errors.Is(err, sentiment.ErrNotLocal) {
		return nil, err
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(e.cfg))
	if err != nil {
		return nil, fmt.Errorf("sentiment provider: %w", err)
	}
	if !provider.IsAvailable(ctx) {
		e.logger.Warn("sentiment provider not reachable, calls may fail",
			zap.String("provider", provider.Name()))
	}

	throttled := sentiment.NewThrottled(provider, sc.RequestsPerSecond, sc.Timeout)

	store := e.cache
	if _, nop := store.(cache.Nop); nop {
		// Memoize within the run even when the response cache is off
		store = cache.NewMemoryCache(sc.CacheTTL, 10*time.Minute)
	}
	e.logger.Info("sentiment backend", zap.String("provider", provider.Name()),
		zap.Float64("requests_per_second", sc.RequestsPerSecond))
	return sentiment.NewCached(throttled, store, provider.Name()+":"+sc.Model, sc.CacheTTL), nil
}

// newRedditSource builds the Reddit crawler from the reddit section
func (e *env) newRedditSource() *source.Reddit {
	rc := e.cfg.Reddit
	fetcher := source.NewFetcher(source.FetcherOptions{
		Timeout:           rc.Timeout,
		UserAgent:         rc.UserAgent,
		RequestsPerSecond: rc.RequestsPerSecond,
		Burst:             rc.BurstSize,
		RespectRobots:     rc.RespectRobots,
		HTTPProxy:         rc.HTTPProxy,
		HTTPSProxy:        rc.HTTPSProxy,
		Cache:             e.cache,
		CacheTTL:          e.cfg.Cache.DiskTTL,
	}, e.logger)
	return source.NewReddit(fetcher, source.RedditOptionsFromConfig(rc), e.logger)
}

func providerName(p string) string {
	if p == "" {
		return "vader"
	}
	return p
}
