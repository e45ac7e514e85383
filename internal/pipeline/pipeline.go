// Package pipeline wires a content source, the analyzer and an optional
// store into one run and renders the resulting report.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/painscope/internal/analyze"
	"github.com/ppiankov/painscope/internal/model"
	"github.com/ppiankov/painscope/internal/source"
	"go.uber.org/zap"
)

// Store is the persistence a run writes to
type Store interface {
	SaveItems(ctx context.Context, items []model.Item) error
	SavePainPoints(ctx context.Context, records []model.PainRecord) error
}

// Pipeline orchestrates fetch, analysis, persistence and reporting
type Pipeline struct {
	source   source.Source
	analyzer *analyze.Analyzer
	store    Store // Optional, nil skips persistence
	renderer *Renderer
	report   ReportOptions
	logger   *zap.Logger
}

// New creates a pipeline. store may be nil.
func New(src source.Source, analyzer *analyze.Analyzer, store Store, opts ReportOptions, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Weights = analyzer.Scorer().Weights()
	return &Pipeline{
		source:   src,
		analyzer: analyzer,
		store:    store,
		renderer: NewRenderer(os.Stdout),
		report:   opts,
		logger:   logger,
	}
}

// RunResult contains the outcome of a run
type RunResult struct {
	Items   []model.Item
	Records []model.PainRecord
	Report  *Report

	// FetchErr is set when the source failed partially; the run continued
	// with the items it did return
	FetchErr error
}

// Run fetches items, analyzes them, persists both and builds the report.
// A source error with no items aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()

	// 1. Fetch
	items, fetchErr := p.source.Fetch(ctx)
	if fetchErr != nil {
		if len(items) == 0 {
			return nil, fmt.Errorf("fetch %s: %w", p.source.Name(), fetchErr)
		}
		p.logger.Warn("source returned partial results",
			zap.String("source", p.source.Name()),
			zap.Int("items", len(items)),
			zap.Error(fetchErr))
	}
	p.logger.Info("items fetched", zap.String("source", p.source.Name()), zap.Int("items", len(items)))

	// 2. Persist raw content
	if p.store != nil {
		if err := p.store.SaveItems(ctx, items); err != nil {
			return nil, fmt.Errorf("save items: %w", err)
		}
	}

	// 3. Analyze
	records := p.analyzer.AnalyzeItems(ctx, items)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	// 4. Persist records
	if p.store != nil {
		if err := p.store.SavePainPoints(ctx, records); err != nil {
			return nil, fmt.Errorf("save pain points: %w", err)
		}
	}

	report := BuildReport(p.source.Name(), len(items), records, p.report)

	p.logger.Info("run complete",
		zap.Int("items", len(items)),
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)))

	return &RunResult{
		Items:    items,
		Records:  records,
		Report:   report,
		FetchErr: fetchErr,
	}, nil
}

// RenderReport renders the report to the specified outputs and prints the
// console summary
func (p *Pipeline) RenderReport(report *Report, jsonPath, mdPath string, verbose bool) error {
	return p.renderer.RenderAll(report, jsonPath, mdPath, verbose)
}
