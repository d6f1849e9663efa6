package leankit

import (
	"errors"
	"testing"
)

func TestTransportError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *TransportError
		expected string
	}{
		{
			name: "network failure",
			err: &TransportError{
				Method: "POST",
				URL:    "https://canonical.leankitkanban.com/Kanban/Api/v1/card/search",
				Err:    errors.New("connection refused"),
			},
			expected: "leankit transport error: POST https://canonical.leankitkanban.com/Kanban/Api/v1/card/search: connection refused",
		},
		{
			name: "http status",
			err: &TransportError{
				Method:     "GET",
				URL:        "http://localhost/v1/board",
				StatusCode: 500,
				Status:     "Internal Server Error",
			},
			expected: "leankit transport error: GET http://localhost/v1/board: status 500 Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.err.Error(); result != tt.expected {
				t.Errorf("Error() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	wrappedErr := errors.New("wrapped error")
	err := &TransportError{Method: "GET", URL: "http://localhost", Err: wrappedErr}

	if !errors.Is(err, wrappedErr) {
		t.Error("errors.Is should work with wrapped error")
	}

	statusErr := &TransportError{Method: "GET", URL: "http://localhost", StatusCode: 404}
	if statusErr.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", statusErr.Unwrap())
	}
}

func TestApplicationError_Error(t *testing.T) {
	err := &ApplicationError{Code: UnauthorizedAccess, Text: "Unauthorized access"}

	expected := "leankit error 1000 (UnauthorizedAccess): Unauthorized access"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}
