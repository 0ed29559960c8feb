package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Transcriber backends accepted by TRANSCRIBER_BACKEND.
const (
	BackendNone    = "none"
	BackendWhisper = "whisper"
	BackendGemini  = "gemini"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port         int
	LogLevel     string
	MaxBodyBytes int64

	// Analysis
	ChartsEnabled bool
	ChartTailDays int

	// Voice / transcription
	TranscriberBackend      string
	TranscriberFallbackText string
	WhisperURL              string
	WhisperModel            string
	GeminiModel             string
	MaxUploadBytes          int64
	AudioTempDir            string
	TranscriptCacheTTL      time.Duration

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries            int
	InitialBackoff        time.Duration
	TranscribeConcurrency int

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:         getEnvInt("PORT", 8080),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 10<<20)),

		ChartsEnabled: getEnvBool("CHARTS_ENABLED", true),
		ChartTailDays: getEnvInt("CHART_TAIL_DAYS", 30),

		TranscriberBackend:      strings.ToLower(getEnv("TRANSCRIBER_BACKEND", BackendNone)),
		TranscriberFallbackText: getEnv("TRANSCRIBER_FALLBACK_TEXT", ""),
		WhisperURL:              getEnv("WHISPER_URL", "http://localhost:9000"),
		WhisperModel:            getEnv("WHISPER_MODEL", "small"),
		GeminiModel:             getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		MaxUploadBytes:          int64(getEnvInt("MAX_UPLOAD_BYTES", 25<<20)),
		AudioTempDir:            getEnv("AUDIO_TEMP_DIR", os.TempDir()),
		TranscriptCacheTTL:      getEnvDuration("TRANSCRIPT_CACHE_TTL", 10*time.Minute),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 60*time.Second),

		MaxRetries:            getEnvInt("MAX_RETRIES", 2),
		InitialBackoff:        getEnvDuration("INITIAL_BACKOFF", 200*time.Millisecond),
		TranscribeConcurrency: getEnvInt("TRANSCRIBE_CONCURRENCY", 4),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// Validate returns an error describing every invalid setting.
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}

	switch c.TranscriberBackend {
	case BackendNone, BackendWhisper, BackendGemini:
	default:
		problems = append(problems, fmt.Sprintf("invalid transcriber backend %q: must be one of none, whisper, gemini", c.TranscriberBackend))
	}

	if c.TranscriberBackend == BackendWhisper && c.WhisperURL == "" {
		problems = append(problems, "WHISPER_URL is required when TRANSCRIBER_BACKEND=whisper")
	}
	if c.ChartTailDays <= 0 {
		problems = append(problems, "CHART_TAIL_DAYS must be positive")
	}
	if c.TranscribeConcurrency <= 0 {
		problems = append(problems, "TRANSCRIBE_CONCURRENCY must be positive")
	}
	if c.MaxUploadBytes <= 0 || c.MaxBodyBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES and MAX_BODY_BYTES must be positive")
	}
	if c.TranscriptCacheTTL <= 0 {
		problems = append(problems, "TRANSCRIPT_CACHE_TTL must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
