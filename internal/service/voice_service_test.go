package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
	"github.com/boddenberg/spend-analysis-go/internal/infra/cache"
	"github.com/boddenberg/spend-analysis-go/internal/infra/observability"
	"github.com/boddenberg/spend-analysis-go/internal/infra/resilience"
	"github.com/boddenberg/spend-analysis-go/internal/port"
	"github.com/boddenberg/spend-analysis-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockTranscriber struct {
	text  string
	err   error
	calls int
	paths []string
}

func (m *mockTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	m.calls++
	m.paths = append(m.paths, path)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return m.text, m.err
}

type mockLoader struct {
	model port.Transcriber
	err   error
}

func (m *mockLoader) Get(context.Context) (port.Transcriber, error) {
	if m.err != nil {
		return nil, &domain.ErrModelUnavailable{Backend: "mock", Err: m.err}
	}
	return m.model, nil
}

func (m *mockLoader) State() string { return "ready" }

func newVoiceService(t *testing.T, loader port.TranscriberLoader, metrics *observability.Metrics) (*service.VoiceService, string) {
	t.Helper()
	dir := t.TempDir()
	transcripts := cache.New[string](time.Minute)
	t.Cleanup(transcripts.Close)
	return service.NewVoiceService(loader, transcripts, resilience.NewBulkhead(1), dir, metrics, zap.NewNop()), dir
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected temp files to be removed, found %d", len(entries))
	}
}

// --- Tests ---

func TestExtractFromAudio_Success(t *testing.T) {
	tr := &mockTranscriber{text: "  Took a taxi for 25 in Berlin  "}
	svc, dir := newVoiceService(t, &mockLoader{model: tr}, observability.NewMetrics())

	out, err := svc.ExtractFromAudio(context.Background(), "memo", []byte("audio"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if out[0].Category != domain.ExpenseTransport || *out[0].Amount != 25 || *out[0].Place != "Berlin" {
		t.Errorf("unexpected expense %+v", out[0])
	}
	if filepath.Ext(tr.paths[0]) != ".wav" {
		t.Errorf("expected .wav default extension, got %q", tr.paths[0])
	}
	if filepath.Dir(tr.paths[0]) != dir {
		t.Errorf("expected temp file under %q, got %q", dir, tr.paths[0])
	}
	assertDirEmpty(t, dir)
}

func TestExtractFromAudio_CachesTranscript(t *testing.T) {
	tr := &mockTranscriber{text: "coffee 3"}
	metrics := observability.NewMetrics()
	svc, _ := newVoiceService(t, &mockLoader{model: tr}, metrics)

	for i := 0; i < 3; i++ {
		if _, err := svc.ExtractFromAudio(context.Background(), "a.ogg", []byte("same audio")); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if _, err := svc.ExtractFromAudio(context.Background(), "a.ogg", []byte("other audio")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if tr.calls != 2 {
		t.Errorf("expected 2 transcriptions, got %d", tr.calls)
	}
	snap := metrics.Snapshot("ready")
	if snap.TranscriptCacheHit != 0.5 {
		t.Errorf("expected hit rate 0.5, got %v", snap.TranscriptCacheHit)
	}
	if snap.VoiceRequests != 4 {
		t.Errorf("expected 4 voice requests, got %d", snap.VoiceRequests)
	}
}

func TestExtractFromAudio_EmptyAudio(t *testing.T) {
	svc, _ := newVoiceService(t, &mockLoader{}, observability.NewMetrics())

	_, err := svc.ExtractFromAudio(context.Background(), "a.wav", nil)

	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestExtractFromAudio_ModelUnavailable(t *testing.T) {
	svc, dir := newVoiceService(t, &mockLoader{err: errors.New("no weights")}, observability.NewMetrics())

	_, err := svc.ExtractFromAudio(context.Background(), "a.wav", []byte("audio"))

	var unavailable *domain.ErrModelUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	assertDirEmpty(t, dir)
}

func TestExtractFromAudio_TranscriptionFailure(t *testing.T) {
	tr := &mockTranscriber{err: errors.New("bad codec")}
	metrics := observability.NewMetrics()
	svc, dir := newVoiceService(t, &mockLoader{model: tr}, metrics)

	_, err := svc.ExtractFromAudio(context.Background(), "a.mp3", []byte("audio"))

	var transcription *domain.ErrTranscription
	if !errors.As(err, &transcription) {
		t.Fatalf("expected ErrTranscription, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad codec") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	assertDirEmpty(t, dir)

	if metrics.Snapshot("").TranscriptionFailures != 1 {
		t.Error("expected one transcription failure to be counted")
	}
}

func TestExtractFromAudio_EmptyTranscriptNotCached(t *testing.T) {
	tr := &mockTranscriber{text: ""}
	svc, _ := newVoiceService(t, &mockLoader{model: tr}, observability.NewMetrics())

	for i := 0; i < 2; i++ {
		_, err := svc.ExtractFromAudio(context.Background(), "a.wav", []byte("silence"))
		var transcription *domain.ErrTranscription
		if !errors.As(err, &transcription) || transcription.Err != nil {
			t.Fatalf("expected empty-text ErrTranscription, got %v", err)
		}
	}
	if tr.calls != 2 {
		t.Errorf("expected failures not to be cached, got %d calls", tr.calls)
	}
}

func TestExtractFromText(t *testing.T) {
	svc, _ := newVoiceService(t, &mockLoader{}, observability.NewMetrics())

	out := svc.ExtractFromText(context.Background(), "Paid the electricity bill, 60")

	if out[0].Category != domain.ExpenseBills || *out[0].Amount != 60 {
		t.Errorf("unexpected expense %+v", out[0])
	}
}
