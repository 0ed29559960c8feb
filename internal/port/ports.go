// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from chart rendering, speech-to-text and export implementations.
package port

import (
	"context"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
)

// ChartRenderer draws the three analysis charts as PNG images.
type ChartRenderer interface {
	// RenderDailyBars draws vertical bars, one per day, in slice order.
	RenderDailyBars(series []domain.DatedAmount) ([]byte, error)
	// RenderCategoryPie draws a pie with percentage labels. Empty input
	// renders a blank canvas.
	RenderCategoryPie(values []domain.NamedAmount) ([]byte, error)
	// RenderCategoryBars draws bars in slice order.
	RenderCategoryBars(values []domain.NamedAmount) ([]byte, error)
}

// Transcriber turns a recorded audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// TranscriberLoader hands out the process-wide speech model, loading it on
// first use.
type TranscriberLoader interface {
	Get(ctx context.Context) (Transcriber, error)
	State() string
}

// WorkbookExporter serializes an analysed table into a spreadsheet file.
type WorkbookExporter interface {
	Export(rows []domain.NormalizedRecord, agg *domain.Aggregates) ([]byte, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
