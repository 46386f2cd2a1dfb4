package errors

import "fmt"

// AppError is the error type shared by the pipeline, the HTTP API and the
// CLI. Message is safe to show to users; Cause is not.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

// New builds an AppError whose status and retryability come from code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: StatusOf(code),
		Retryable:  IsRetryableCode(code),
	}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause attaches the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail records one key in Details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// WithStatus overrides the HTTP status derived from the code.
func (e *AppError) WithStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

func NotFound(resource, id string) *AppError {
	err := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource)).
		WithDetail("resource", resource)
	if id != "" {
		err.WithDetail("id", id)
	}
	return err
}

// InvalidInput rejects a single field.
func InvalidInput(field, reason string) *AppError {
	err := New(ErrCodeInvalidInput, "Invalid input: "+reason)
	if field != "" {
		err.WithDetail("field", field)
	}
	return err
}

// Validation rejects a request as a whole.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return New(ErrCodeUnauthorized, reason)
}

func TokenExpired() *AppError {
	return New(ErrCodeTokenExpired, "The access token has expired.")
}

func InvalidToken() *AppError {
	return New(ErrCodeInvalidToken, "The access token is invalid.")
}

func Forbidden(reason string) *AppError {
	return New(ErrCodeForbidden, reason)
}

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred.").WithCause(cause)
}

func DatabaseError(cause error) *AppError {
	return New(ErrCodeDatabaseError, "A database error occurred. Please try again.").WithCause(cause)
}

// ExternalServiceError wraps a failure of a transcription backend or tool.
func ExternalServiceError(service string, cause error) *AppError {
	return New(ErrCodeExternalService, fmt.Sprintf("The %s service encountered an error.", service)).
		WithDetail("service", service).
		WithCause(cause)
}

func AlreadyInProgress() *AppError {
	return New(ErrCodeAlreadyInProgress, "A transcription is already in progress.")
}

// AlreadyTranscribed reports the existing document at path.
func AlreadyTranscribed(path string) *AppError {
	return New(ErrCodeAlreadyTranscribed, fmt.Sprintf("You've already transcribed this episode - found %s.", path)).
		WithDetail("path", path)
}

// Configuration reports a missing backend prerequisite.
func Configuration(reason string) *AppError {
	return New(ErrCodeConfiguration, reason)
}

// ChunkFailed reports that chunk index exhausted its attempts.
func ChunkFailed(index, attempts int, cause error) *AppError {
	return New(ErrCodeChunkFailed, fmt.Sprintf("Chunk %d failed after %d attempts.", index, attempts)).
		WithDetail("chunk", index).
		WithDetail("attempts", attempts).
		WithCause(cause)
}

// TranscriptionFailed ends a run.
func TranscriptionFailed(message string, cause error) *AppError {
	return New(ErrCodeTranscriptionFailed, message).WithCause(cause)
}

func ModelLoadFailed(model string, cause error) *AppError {
	return New(ErrCodeModelLoadFailed, fmt.Sprintf("Failed to load local model %s.", model)).
		WithDetail("model", model).
		WithCause(cause)
}
