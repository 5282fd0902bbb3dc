package contextutils

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without details",
			err:      &AppError{Code: ErrorCodeTicketNotFound, Message: "Ticket not found"},
			expected: "TICKET_NOT_FOUND: Ticket not found",
		},
		{
			name:     "with details",
			err:      &AppError{Code: ErrorCodeStorageRead, Message: "Failed to read ticket storage", Details: "permission denied"},
			expected: "STORAGE_READ_ERROR: Failed to read ticket storage - permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Is(t *testing.T) {
	err := WrapError(ErrTicketNotFound, "resolving ticket")
	assert.True(t, errors.Is(err, ErrTicketNotFound))
	assert.False(t, errors.Is(err, ErrStorageWrite))
}

func TestWrapError_PreservesCode(t *testing.T) {
	wrapped := WrapError(ErrGeocoderTimeout, "reverse lookup")
	appErr, ok := wrapped.(*AppError)
	require.True(t, ok)
	assert.Equal(t, ErrorCodeGeocoderTimeout, appErr.Code)
	assert.Equal(t, SeverityWarn, appErr.Severity)
	assert.Equal(t, "reverse lookup", appErr.Message)
}

func TestWrapError_PlainError(t *testing.T) {
	wrapped := WrapError(fmt.Errorf("disk full"), "append ticket")
	appErr, ok := wrapped.(*AppError)
	require.True(t, ok)
	assert.Equal(t, ErrorCodeInternalError, appErr.Code)
	assert.Equal(t, "append ticket", appErr.Message)
	assert.Equal(t, "disk full", appErr.Details)
}

func TestWrapError_Nil(t *testing.T) {
	assert.NoError(t, WrapError(nil, "anything"))
	assert.NoError(t, WrapErrorf(nil, "anything %d", 1))
}

func TestWrapErrorf_WithWrapVerb(t *testing.T) {
	base := fmt.Errorf("socket closed")
	wrapped := WrapErrorf(base, "classifier call: %w", base)
	appErr, ok := wrapped.(*AppError)
	require.True(t, ok)
	assert.Contains(t, appErr.Message, "socket closed")
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrorCodeTicketNotOpen, GetErrorCode(ErrTicketNotOpen))
	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(fmt.Errorf("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(ErrGeocoderTimeout))
	assert.False(t, IsRetryable(ErrTicketNotFound))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
}

func TestToJSON(t *testing.T) {
	payload := ErrTicketNotFound.ToJSON()
	assert.Equal(t, "TICKET_NOT_FOUND", payload["code"])
	assert.Equal(t, "Ticket not found", payload["message"])
	assert.Equal(t, false, payload["retryable"])
}

func TestParseISO8601(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "canonical", value: "2024-06-01T12:30:00"},
		{name: "fractional seconds", value: "2024-06-01T12:30:00.123456"},
		{name: "rfc3339", value: "2024-06-01T12:30:00Z"},
		{name: "date only", value: "2024-06-01", wantErr: true},
		{name: "garbage", value: "not-a-date", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseISO8601(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseISO8601_LocalWallClock(t *testing.T) {
	// Zone-less timestamps are written as local wall time and must parse back
	// to the same instant, not shift by the host's UTC offset
	restore := time.Local
	time.Local = time.FixedZone("UTC-8", -8*60*60)
	t.Cleanup(func() { time.Local = restore })

	want := time.Date(2024, 6, 1, 12, 30, 0, 0, time.Local)
	got, err := ParseISO8601(want.Format(ISO8601Layout))
	require.NoError(t, err)
	assert.True(t, got.Equal(want), "got %v, want %v", got, want)

	// Explicitly zoned values keep their own offset
	zoned, err := ParseISO8601("2024-06-01T12:30:00Z")
	require.NoError(t, err)
	assert.True(t, zoned.Equal(time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)))
}

func TestIsValidCoordinate(t *testing.T) {
	assert.True(t, IsValidCoordinate(12.9716, 77.5946))
	assert.True(t, IsValidCoordinate(-90, 180))
	assert.False(t, IsValidCoordinate(91, 0))
	assert.False(t, IsValidCoordinate(0, -181))
}

func TestIsValidName(t *testing.T) {
	assert.True(t, IsValidName("Asha"))
	assert.False(t, IsValidName(""))
	assert.False(t, IsValidName("   "))
}
