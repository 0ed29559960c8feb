package speech

import (
	"context"
	"errors"
)

// ErrNoBackend is returned by the loader when no transcription backend is
// configured and no fallback transcript is set.
var ErrNoBackend = errors.New("no transcription backend configured")

// StaticTranscriber returns the same transcript for every recording.
// Useful for local development without a speech model.
type StaticTranscriber struct {
	Text string
}

// Transcribe ignores the audio and returns the fixed text.
func (s StaticTranscriber) Transcribe(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Text, nil
}
