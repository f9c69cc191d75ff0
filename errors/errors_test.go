package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeForbidden, "no", http.StatusForbidden)
	if err.Code != ErrCodeForbidden {
		t.Errorf("expected code %s, got %s", ErrCodeForbidden, err.Code)
	}
	if err.HTTPStatus != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("FORBIDDEN should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_TokenRejectionsAre401(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"malformed", MalformedToken("bad"), ErrCodeMalformedToken},
		{"signature", InvalidSignature(), ErrCodeInvalidSignature},
		{"expired", TokenExpired(), ErrCodeTokenExpired},
		{"unauthorized", Unauthorized(""), ErrCodeUnauthorized},
		{"unauthenticated", Unauthenticated(), ErrCodeUnauthenticated},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", tc.err.HTTPStatus)
			}
		})
	}
}

func TestAppError_Internal_HidesCause(t *testing.T) {
	cause := fmt.Errorf("user store offline")
	err := Internal(cause)
	if err.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", err.HTTPStatus)
	}
	if err.Unwrap() != cause {
		t.Error("expected cause to be set")
	}
	body, _ := json.Marshal(err.ToResponse())
	if strings.Contains(string(body), "offline") {
		t.Errorf("response leaked cause: %s", body)
	}
}

func TestAppError_Unauthorized_DefaultMessage(t *testing.T) {
	if got := Unauthorized("").Message; got != "Authentication required." {
		t.Errorf("expected default message, got %q", got)
	}
	if got := Unauthorized("bad credentials").Message; got != "bad credentials" {
		t.Errorf("expected custom message, got %q", got)
	}
}

func TestAppError_MethodNotAllowed(t *testing.T) {
	err := MethodNotAllowed("/auth-token", http.MethodPost)
	if err.HTTPStatus != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", err.HTTPStatus)
	}
	if !strings.Contains(err.Message, "POST") {
		t.Errorf("expected message to name POST, got %q", err.Message)
	}
}

func TestAppError_RateLimited(t *testing.T) {
	err := RateLimited()
	if err.HTTPStatus != http.StatusTooManyRequests || !err.Retryable {
		t.Errorf("expected retryable 429, got %d retryable=%v", err.HTTPStatus, err.Retryable)
	}
}

func TestAppError_Config_Formats(t *testing.T) {
	err := Config("expires: %q is not a duration", "soon")
	if err.Code != ErrCodeConfig {
		t.Errorf("expected CONFIG_ERROR, got %s", err.Code)
	}
	if !strings.Contains(err.Error(), `"soon"`) {
		t.Errorf("expected formatted message, got %q", err.Error())
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestHasCode_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("mint: %w", Hash("unsupported algorithm", nil))
	if !HasCode(wrapped, ErrCodeHash) {
		t.Error("expected HasCode to see through wrapping")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeHash) {
		t.Error("plain errors carry no code")
	}
}

func TestToResponse_Shape(t *testing.T) {
	resp := Forbidden("").WithDetail("required", []string{"admin"}).ToResponse()
	if resp.Error.Code != ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN, got %s", resp.Error.Code)
	}
	if resp.Error.Details["required"] == nil {
		t.Error("expected details to be carried")
	}
}
