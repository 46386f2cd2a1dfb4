package errors

import "net/http"

// ErrorCode is the machine-readable part of an AppError.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"

	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"

	// ErrCodeAlreadyInProgress rejects a run while another one is active.
	ErrCodeAlreadyInProgress ErrorCode = "ALREADY_IN_PROGRESS"
	// ErrCodeAlreadyTranscribed is informational: the document exists and no
	// work was done.
	ErrCodeAlreadyTranscribed ErrorCode = "ALREADY_TRANSCRIBED"
	// ErrCodeConfiguration means a backend prerequisite is missing and no
	// fallback applies.
	ErrCodeConfiguration       ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeChunkFailed         ErrorCode = "CHUNK_TRANSCRIPTION_FAILED"
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	ErrCodeModelLoadFailed     ErrorCode = "MODEL_LOAD_FAILED"

	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError   ErrorCode = "DATABASE_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

type codeInfo struct {
	status    int
	retryable bool
}

var codes = map[ErrorCode]codeInfo{
	ErrCodeInvalidInput:        {http.StatusBadRequest, false},
	ErrCodeNotFound:            {http.StatusNotFound, false},
	ErrCodeUnauthorized:        {http.StatusUnauthorized, false},
	ErrCodeTokenExpired:        {http.StatusUnauthorized, false},
	ErrCodeInvalidToken:        {http.StatusUnauthorized, false},
	ErrCodeForbidden:           {http.StatusForbidden, false},
	ErrCodeAlreadyInProgress:   {http.StatusConflict, false},
	ErrCodeAlreadyTranscribed:  {http.StatusConflict, false},
	ErrCodeConfiguration:       {http.StatusPreconditionFailed, false},
	ErrCodeChunkFailed:         {http.StatusBadGateway, true},
	ErrCodeTranscriptionFailed: {http.StatusBadGateway, false},
	ErrCodeModelLoadFailed:     {http.StatusServiceUnavailable, false},
	ErrCodeInternal:            {http.StatusInternalServerError, false},
	ErrCodeDatabaseError:       {http.StatusInternalServerError, true},
	ErrCodeExternalService:     {http.StatusBadGateway, true},
}

// IsRetryableCode reports whether errors with code are worth retrying.
func IsRetryableCode(code ErrorCode) bool {
	return codes[code].retryable
}

// StatusOf returns the HTTP status for code, 500 for unknown codes.
func StatusOf(code ErrorCode) int {
	if info, ok := codes[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
