package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew_DerivesFromCode(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		status    int
		retryable bool
	}{
		{ErrCodeNotFound, http.StatusNotFound, false},
		{ErrCodeChunkFailed, http.StatusBadGateway, true},
		{ErrCodeDatabaseError, http.StatusInternalServerError, true},
		{ErrorCode("SOMETHING_NEW"), http.StatusInternalServerError, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			err := New(tc.code, "msg")
			if err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, err.HTTPStatus)
			}
			if err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, err.Retryable)
			}
		})
	}
}

func TestAppError_Builders(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := New(ErrCodeInvalidInput, "duplicate").
		WithStatus(http.StatusConflict).
		WithDetail("field", "title").
		WithCause(cause)

	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("expected 409, got %d", err.HTTPStatus)
	}
	if err.Details["field"] != "title" {
		t.Errorf("expected field detail, got %v", err.Details)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause in the chain")
	}
	if !strings.Contains(err.Error(), "root cause") || !strings.HasPrefix(err.Error(), "INVALID_INPUT: duplicate") {
		t.Errorf("unexpected Error() %q", err.Error())
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"NotFound", NotFound("run", "1"), ErrCodeNotFound, http.StatusNotFound, false},
		{"InvalidInput", InvalidInput("date", "bad"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"InvalidToken", InvalidToken(), ErrCodeInvalidToken, http.StatusUnauthorized, false},
		{"TokenExpired", TokenExpired(), ErrCodeTokenExpired, http.StatusUnauthorized, false},
		{"Forbidden", Forbidden("write scope required"), ErrCodeForbidden, http.StatusForbidden, false},
		{"DatabaseError", DatabaseError(nil), ErrCodeDatabaseError, http.StatusInternalServerError, true},
		{"ExternalServiceError", ExternalServiceError("whisper", nil), ErrCodeExternalService, http.StatusBadGateway, true},
		{"AlreadyInProgress", AlreadyInProgress(), ErrCodeAlreadyInProgress, http.StatusConflict, false},
		{"AlreadyTranscribed", AlreadyTranscribed("a.md"), ErrCodeAlreadyTranscribed, http.StatusConflict, false},
		{"Configuration", Configuration("missing key"), ErrCodeConfiguration, http.StatusPreconditionFailed, false},
		{"ChunkFailed", ChunkFailed(2, 3, nil), ErrCodeChunkFailed, http.StatusBadGateway, true},
		{"TranscriptionFailed", TranscriptionFailed("boom", nil), ErrCodeTranscriptionFailed, http.StatusBadGateway, false},
		{"ModelLoadFailed", ModelLoadFailed("tiny", nil), ErrCodeModelLoadFailed, http.StatusServiceUnavailable, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestConstructorDetails(t *testing.T) {
	if d := NotFound("run", "").Details; d["resource"] != "run" || d["id"] != nil {
		t.Errorf("expected resource only, got %v", d)
	}
	if d := ChunkFailed(4, 3, nil).Details; d["chunk"] != 4 || d["attempts"] != 3 {
		t.Errorf("expected chunk and attempts, got %v", d)
	}
	if d := InvalidInput("", "bad").Details; d != nil {
		t.Errorf("expected no details without a field, got %v", d)
	}
}

func TestAlreadyTranscribed_Message(t *testing.T) {
	err := AlreadyTranscribed("transcripts/Show/Ep.md")
	want := "You've already transcribed this episode - found transcripts/Show/Ep.md."
	if err.Message != want {
		t.Errorf("expected %q, got %q", want, err.Message)
	}
	if err.Details["path"] != "transcripts/Show/Ep.md" {
		t.Errorf("expected path detail, got %v", err.Details["path"])
	}
}

func TestAppError_ToResponse(t *testing.T) {
	resp := AlreadyInProgress().ToResponse()
	if resp.Error.Code != ErrCodeAlreadyInProgress {
		t.Errorf("expected ALREADY_IN_PROGRESS, got %s", resp.Error.Code)
	}
	if resp.Error.Message == "" {
		t.Error("expected a message")
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", Configuration("no backend"))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to find the AppError")
	}
	if appErr.Code != ErrCodeConfiguration {
		t.Errorf("expected CONFIGURATION_ERROR, got %s", appErr.Code)
	}
	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("plain error should not be an AppError")
	}
}

func TestHasCode(t *testing.T) {
	inner := ModelLoadFailed("tiny", stderrors.New("missing file"))
	outer := TranscriptionFailed("local transcription failed", inner)

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"outer code", outer, ErrCodeTranscriptionFailed, true},
		{"inner code via cause", outer, ErrCodeModelLoadFailed, true},
		{"wrapped with fmt", fmt.Errorf("x: %w", outer), ErrCodeModelLoadFailed, true},
		{"absent code", outer, ErrCodeAlreadyInProgress, false},
		{"plain error", stderrors.New("nope"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasCode(tc.err, tc.code); got != tc.want {
				t.Errorf("HasCode(%v, %s) = %v, want %v", tc.err, tc.code, got, tc.want)
			}
		})
	}
}
