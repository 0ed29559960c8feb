package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/boddenberg/spend-analysis-go/internal/domain"
	"github.com/boddenberg/spend-analysis-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const multipartMemory = 8 << 20

// ============================================================
// Voice expenses
// ============================================================

// voiceHandler handles POST /v1/voice with a multipart "file" field.
func voiceHandler(svc *service.VoiceService, maxUpload int64, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/voice")
		defer span.End()

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "uploaded file too large")
				return
			}
			writeError(w, http.StatusBadRequest, "No file uploaded")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "No file uploaded")
			return
		}
		defer file.Close()

		reader := io.Reader(file)
		if maxUpload > 0 {
			reader = io.LimitReader(file, maxUpload+1)
		}
		audio, err := io.ReadAll(reader)
		if err != nil {
			logger.Warn("failed to read upload", zap.Error(err))
			writeError(w, http.StatusBadRequest, "could not read uploaded file")
			return
		}
		if maxUpload > 0 && int64(len(audio)) > maxUpload {
			writeError(w, http.StatusRequestEntityTooLarge, "uploaded file too large")
			return
		}
		if len(audio) == 0 {
			writeError(w, http.StatusBadRequest, "Empty file")
			return
		}
		span.SetAttributes(
			attribute.String("upload.filename", header.Filename),
			attribute.Int("upload.bytes", len(audio)),
		)

		expenses, err := svc.ExtractFromAudio(ctx, header.Filename, audio)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, expenses)
	}
}

// voiceTextHandler handles POST /v1/voice/text with {"text": "..."}.
func voiceTextHandler(svc *service.VoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/voice/text")
		defer span.End()

		var req domain.TranscriptRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		writeJSON(w, http.StatusOK, svc.ExtractFromText(ctx, req.Text))
	}
}
