// Package source fetches content items for analysis.
package source

import (
	"context"

	"github.com/ppiankov/painscope/internal/model"
)

// Source produces content items
type Source interface {
	// Name identifies the source in logs and reports
	Name() string

	// Fetch returns the items to analyze. A partial result may accompany
	// a non-nil error.
	Fetch(ctx context.Context) ([]model.Item, error)
}
