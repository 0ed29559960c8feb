package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
	"github.com/boddenberg/spend-analysis-go/internal/infra/observability"
	"github.com/boddenberg/spend-analysis-go/internal/infra/resilience"
	"github.com/boddenberg/spend-analysis-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

const defaultAudioExt = ".wav"

// VoiceService turns spoken expense descriptions into ExtractedExpense values.
type VoiceService struct {
	models   port.TranscriberLoader
	cache    port.Cache[string]
	bulkhead *resilience.Bulkhead
	tempDir  string
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewVoiceService creates the voice service with all dependencies injected.
// An empty tempDir uses the OS default.
func NewVoiceService(
	models port.TranscriberLoader,
	cache port.Cache[string],
	bulkhead *resilience.Bulkhead,
	tempDir string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *VoiceService {
	return &VoiceService{
		models:   models,
		cache:    cache,
		bulkhead: bulkhead,
		tempDir:  tempDir,
		metrics:  metrics,
		logger:   logger,
	}
}

// ModelState reports the speech model lifecycle state.
func (s *VoiceService) ModelState() string {
	return s.models.State()
}

// ExtractFromAudio transcribes an uploaded recording and extracts the expense.
// filename is only used for its extension.
func (s *VoiceService) ExtractFromAudio(ctx context.Context, filename string, audio []byte) (expenses []domain.ExtractedExpense, err error) {
	ctx, span := tracer.Start(ctx, "VoiceService.ExtractFromAudio")
	defer span.End()
	span.SetAttributes(attribute.Int("audio.bytes", len(audio)))

	start := time.Now()
	defer func() {
		s.metrics.ObserveRequest(observability.OpVoice, start, err)
	}()

	if len(audio) == 0 {
		return nil, &domain.ErrValidation{Field: "file", Message: "Empty file"}
	}

	text, err := s.transcript(ctx, filename, audio)
	if err != nil {
		return nil, err
	}

	expenses = ExtractExpenses(text)
	s.logger.Info("voice expense extracted",
		zap.Int("audio_bytes", len(audio)),
		zap.Int("transcript_chars", len(text)),
		zap.String("category", expenses[0].Category),
		zap.Duration("elapsed", time.Since(start)),
	)
	return expenses, nil
}

// ExtractFromText runs the extractor on a transcript directly.
func (s *VoiceService) ExtractFromText(ctx context.Context, text string) []domain.ExtractedExpense {
	_, span := tracer.Start(ctx, "VoiceService.ExtractFromText")
	defer span.End()

	start := time.Now()
	expenses := ExtractExpenses(text)
	s.metrics.ObserveRequest(observability.OpVoice, start, nil)
	return expenses
}

// transcript returns the cached transcript for this audio or produces one.
func (s *VoiceService) transcript(ctx context.Context, filename string, audio []byte) (string, error) {
	sum := blake2b.Sum256(audio)
	key := hex.EncodeToString(sum[:])

	if text, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit("transcript")
		return text, nil
	}
	s.metrics.IncrCacheMiss("transcript")

	text, err := s.transcribe(ctx, filename, audio)
	if err != nil {
		return "", err
	}

	s.cache.Set(key, text)
	return text, nil
}

func (s *VoiceService) transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	path, err := s.writeTemp(filename, audio)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove temp audio", zap.String("path", path), zap.Error(err))
		}
	}()

	model, err := s.models.Get(ctx)
	if err != nil {
		return "", err
	}

	if err := s.bulkhead.Acquire(ctx); err != nil {
		return "", err
	}
	defer s.bulkhead.Release()

	text, err := model.Transcribe(ctx, path)
	if err != nil {
		var circuitOpen *domain.ErrCircuitOpen
		if errors.As(err, &circuitOpen) {
			return "", err
		}
		s.metrics.IncrTranscriptionFailure("error")
		s.metrics.IncrExternalError("transcriber")
		s.logger.Error("transcription failed", zap.Error(err))
		return "", &domain.ErrTranscription{Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.metrics.IncrTranscriptionFailure("empty")
		return "", &domain.ErrTranscription{}
	}
	return text, nil
}

// writeTemp stores the upload under a unique name keeping its extension.
func (s *VoiceService) writeTemp(filename string, audio []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = defaultAudioExt
	}

	dir := s.tempDir
	if dir == "" {
		dir = os.TempDir()
	}

	path := filepath.Join(dir, "voice-"+uuid.NewString()+ext)
	if err := os.WriteFile(path, audio, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
