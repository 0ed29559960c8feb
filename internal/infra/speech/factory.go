package speech

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/spend-analysis-go/internal/config"
	"github.com/boddenberg/spend-analysis-go/internal/infra/resilience"
	"github.com/boddenberg/spend-analysis-go/internal/port"
)

// NewLoader picks the Loader for the configured backend.
func NewLoader(cfg *config.Config, httpClient *http.Client) (Loader, error) {
	rcfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}

	switch cfg.TranscriberBackend {
	case config.BackendWhisper:
		client := NewWhisperClient(httpClient, cfg.WhisperURL, cfg.WhisperModel,
			resilience.NewCircuitBreaker("whisper"), rcfg)
		return NewWhisperLoader(client), nil

	case config.BackendGemini:
		return NewGeminiLoader(cfg.GeminiModel, resilience.NewCircuitBreaker("gemini"), rcfg), nil

	case config.BackendNone:
		text := cfg.TranscriberFallbackText
		return func(context.Context) (port.Transcriber, error) {
			if text == "" {
				return nil, ErrNoBackend
			}
			return StaticTranscriber{Text: text}, nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown transcriber backend %q", cfg.TranscriberBackend)
	}
}
