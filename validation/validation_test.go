package validation

import (
	"errors"
	"strings"
	"testing"

	apperrors "github.com/kbukum/authtoken/errors"
)

type nested struct {
	Iterations int `mapstructure:"iterations" validate:"gte=1"`
}

type sample struct {
	Route    string `mapstructure:"auth_route" validate:"required"`
	SameSite string `mapstructure:"same_site" validate:"omitempty,oneof=lax strict none"`
	Name     string `validate:"omitempty,excludesall=:"`
	Hash     nested `mapstructure:"auth_token_hash"`
}

func TestValidate_Valid(t *testing.T) {
	s := sample{Route: "auth-token", SameSite: "lax", Hash: nested{Iterations: 1}}
	if err := Validate(s); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_ReportsConfigKeys(t *testing.T) {
	s := sample{SameSite: "loose", Name: "a:b"}
	err := Validate(s)
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != apperrors.ErrCodeInvalidInput {
		t.Errorf("code = %s", appErr.Code)
	}
	for _, want := range []string{
		"auth_route: is required",
		"same_site: must be one of: lax strict none",
		"name: must not contain any of: :",
		"auth_token_hash.iterations: must be >= 1",
	} {
		if !strings.Contains(appErr.Message, want) {
			t.Errorf("message %q missing %q", appErr.Message, want)
		}
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 4 {
		t.Errorf("expected 4 field errors, got %v", appErr.Details["fields"])
	}
}

func TestValidator_Chain(t *testing.T) {
	v := New().
		Required("username", "alice").
		ExcludesAny("username", "alice", ":").
		MaxLength("username", "alice", 10)
	if v.HasErrors() {
		t.Fatalf("expected no errors, got %v", v.Errors())
	}

	v = New().
		Required("username", "   ").
		ExcludesAny("username", "a:b", ":").
		OneOf("mode", "sideways", []string{"both", "cookie", "body"}).
		Custom(false, "window", "must not exceed lifetime")
	if len(v.Errors()) != 4 {
		t.Fatalf("expected 4 errors, got %v", v.Errors())
	}
	appErr := v.Validate()
	if appErr == nil || appErr.HTTPStatus != 400 {
		t.Fatalf("expected 400 AppError, got %v", appErr)
	}
}

func TestValidator_OneOf_EmptyIsSkipped(t *testing.T) {
	if New().OneOf("mode", "", []string{"a"}).HasErrors() {
		t.Error("empty value should be skipped")
	}
}

func TestValidator_Merge(t *testing.T) {
	v := New()
	v.Merge("x", nil)
	if v.HasErrors() {
		t.Fatal("nil error must not add an entry")
	}

	v.Merge("root", Validate(sample{Hash: nested{Iterations: 1}}))
	if len(v.Errors()) != 1 || v.Errors()[0].Field != "auth_route" {
		t.Fatalf("expected merged auth_route error, got %v", v.Errors())
	}

	v.Merge("expires", errors.New("bad duration"))
	last := v.Errors()[len(v.Errors())-1]
	if last.Field != "expires" || last.Message != "bad duration" {
		t.Errorf("unexpected entry %+v", last)
	}
}

func TestRequired(t *testing.T) {
	if err := Required("name", "x"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Required("name", ""); err == nil {
		t.Error("expected error")
	}
}
