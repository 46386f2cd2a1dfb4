package errors

import stderrors "errors"

// ErrorResponse is the JSON body of every failed API call:
//
//	{"error": {"code": "ALREADY_TRANSCRIBED", "message": "...", "retryable": false}}
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Retryable,
		Details:   e.Details,
	}}
}

// AsAppError finds the outermost AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// HasCode reports whether err, or any AppError it was built from, carries
// code. A transcription failure caused by a model load failure has both.
func HasCode(err error, code ErrorCode) bool {
	for appErr, ok := AsAppError(err); ok; appErr, ok = AsAppError(appErr.Cause) {
		if appErr.Code == code {
			return true
		}
	}
	return false
}
