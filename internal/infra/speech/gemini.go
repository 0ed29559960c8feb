package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/boddenberg/spend-analysis-go/internal/infra/resilience"
	"github.com/boddenberg/spend-analysis-go/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

const transcribePrompt = "Transcribe this audio recording verbatim. " +
	"Return only the spoken words as plain text, with no commentary, labels or formatting."

// audioMIMETypes maps upload extensions to the MIME types Gemini accepts.
var audioMIMETypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mp3",
	".aiff": "audio/aiff",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/ogg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".webm": "audio/webm",
}

// AudioMIMEType returns the MIME type for an audio file name, defaulting to WAV.
func AudioMIMEType(name string) string {
	if t, ok := audioMIMETypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return "audio/wav"
}

// GeminiTranscriber transcribes audio with a Gemini model via genai.
type GeminiTranscriber struct {
	client *genai.Client
	model  string
	cb     *gobreaker.CircuitBreaker
	cfg    resilience.Config
}

// Transcribe sends the audio inline with a transcription prompt.
func (g *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	ctx, span := tracer.Start(ctx, "GeminiTranscriber.Transcribe")
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", g.model))

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: transcribePrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: AudioMIMEType(audioPath),
						Data:     audio,
					},
				},
			},
		},
	}

	return resilience.Call(ctx, g.cb, g.cfg, "gemini", func() (string, error) {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		return strings.TrimSpace(resp.Text()), nil
	})
}

// NewGeminiLoader returns a Loader that creates the genai client on first
// use. Credentials come from the GEMINI_API_KEY / GOOGLE_API_KEY environment.
func NewGeminiLoader(model string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) Loader {
	return func(ctx context.Context) (port.Transcriber, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
		})
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		return &GeminiTranscriber{client: client, model: model, cb: cb, cfg: cfg}, nil
	}
}
