package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/boddenberg/spend-analysis-go/internal/infra/resilience"
	"github.com/boddenberg/spend-analysis-go/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// WhisperClient calls a whisper inference server over HTTP. The server
// receives the audio as the multipart field "file" and answers {"text": ...}.
type WhisperClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewWhisperClient creates a new WhisperClient.
func NewWhisperClient(httpClient *http.Client, baseURL, model string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *WhisperClient {
	return &WhisperClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		cb:         cb,
		cfg:        cfg,
	}
}

type whisperResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio file and returns the trimmed transcript.
func (c *WhisperClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	ctx, span := tracer.Start(ctx, "WhisperClient.Transcribe")
	defer span.End()
	span.SetAttributes(attribute.String("whisper.model", c.model))

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	return resilience.Call(ctx, c.cb, c.cfg, "whisper", func() (string, error) {
		body, contentType, err := c.multipartBody(filepath.Base(audioPath), audio)
		if err != nil {
			return "", fmt.Errorf("build request body: %v: %w", err, resilience.ErrPermanent)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inference", body)
		if err != nil {
			return "", err
		}
		httpReq.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return "", fmt.Errorf("whisper returned status %d: %s: %w",
				resp.StatusCode, strings.TrimSpace(string(msg)), resilience.ErrPermanent)
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("whisper returned status %d", resp.StatusCode)
		}

		var out whisperResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decode whisper response: %w", err)
		}
		return strings.TrimSpace(out.Text), nil
	})
}

func (c *WhisperClient) multipartBody(filename string, audio []byte) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("response_format", "json"); err != nil {
		return nil, "", err
	}
	if c.model != "" {
		if err := w.WriteField("model", c.model); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// Ping checks that the inference server answers at all.
func (c *WhisperClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whisper server unreachable at %s: %w", c.baseURL, err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("whisper server at %s returned status %d", c.baseURL, resp.StatusCode)
	}
	return nil
}

// NewWhisperLoader returns a Loader that hands out client once the server
// answers a ping.
func NewWhisperLoader(client *WhisperClient) Loader {
	return func(ctx context.Context) (port.Transcriber, error) {
		if err := client.Ping(ctx); err != nil {
			return nil, err
		}
		return client, nil
	}
}
