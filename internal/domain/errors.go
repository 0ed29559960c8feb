package domain

import "fmt"

// Error types for consistent error handling across the service.

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrNoData indicates an operation that needs at least one transaction got none.
type ErrNoData struct {
	Message string
}

func (e *ErrNoData) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "no data"
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrModelUnavailable indicates the speech-to-text model could not be loaded.
type ErrModelUnavailable struct {
	Backend string
	Err     error
}

func (e *ErrModelUnavailable) Error() string {
	return fmt.Sprintf("Failed to load transcription model: %v", e.Err)
}

func (e *ErrModelUnavailable) Unwrap() error {
	return e.Err
}

// ErrTranscription indicates the transcription call failed or produced nothing.
type ErrTranscription struct {
	Err error
}

func (e *ErrTranscription) Error() string {
	if e.Err == nil {
		return "Transcription returned empty text"
	}
	return fmt.Sprintf("Transcription failed: %v", e.Err)
}

func (e *ErrTranscription) Unwrap() error {
	return e.Err
}
