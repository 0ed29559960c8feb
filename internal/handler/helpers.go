package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/boddenberg/spend-analysis-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeJSON encodes data before touching the response, so an unencodable
// value becomes a 500 rather than a truncated body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		json.NewEncoder(&buf).Encode(errorResponse{Error: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// decodeJSON reads the request body into v. An oversized body is reported
// as 413, anything else unreadable as 400. It returns false once a response
// has been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *domain.ErrValidation
	var noData *domain.ErrNoData
	var modelUnavailable *domain.ErrModelUnavailable
	var transcription *domain.ErrTranscription
	var circuitOpen *domain.ErrCircuitOpen

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &noData):
		logger.Debug("no data", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, noData.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, circuitOpen.Error())
	case errors.As(err, &modelUnavailable):
		logger.Error("speech model unavailable",
			zap.String("backend", modelUnavailable.Backend),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, modelUnavailable.Error())
	case errors.As(err, &transcription):
		logger.Warn("transcription failed", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, transcription.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
