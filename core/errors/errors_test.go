package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with field",
			err:      &ValidationError{Field: "size", Message: "file exceeds limit"},
			wantMsg:  "validation failed for size: file exceeds limit",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without field",
			err:      &ValidationError{Message: "empty upload"},
			wantMsg:  "validation failed: empty upload",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("read error")
		err := &ValidationError{Field: "mime", Message: "sniff failed", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		err      *FormatError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "json",
			err:      &FormatError{Format: "selection.json", Message: "unexpected end of input"},
			wantMsg:  "failed to parse selection.json: unexpected end of input",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "xml",
			err:      &FormatError{Format: "XML", Message: "unclosed tag"},
			wantMsg:  "failed to parse XML: unclosed tag",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestSecurityError(t *testing.T) {
	err := NewSecurity("doctype", "DOCTYPE declarations are not allowed")
	want := "security check doctype rejected input: DOCTYPE declarations are not allowed"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrSecurity) {
		t.Error("SecurityError should unwrap to ErrSecurity")
	}

	bare := &SecurityError{Message: "rejected"}
	if got := bare.Error(); got != "security check rejected input: rejected" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSanitizationError(t *testing.T) {
	err := NewSanitization("serialize", "empty output tree")
	want := "sanitization failed at serialize: empty output tree"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInternal) {
		t.Error("SanitizationError should unwrap to ErrInternal")
	}
}

func TestIOError(t *testing.T) {
	underlying := fmt.Errorf("permission denied")
	err := NewIO("write", "/var/db/icons.db", underlying)
	want := "failed to write /var/db/icons.db: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	base := errors.New("base")
	wrapped := Wrap(base, "context")
	if wrapped.Error() != "context: base" {
		t.Errorf("Wrap() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should match base")
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	base := errors.New("base")
	wrapped := Wrapf(base, "icon %q", "home")
	if wrapped.Error() != `icon "home": base` {
		t.Errorf("Wrapf() = %q", wrapped.Error())
	}
}

func TestIsAs(t *testing.T) {
	err := NewFormat("JSON", "bad token")
	if !Is(err, ErrInvalidInput) {
		t.Error("Is should report ErrInvalidInput")
	}

	var fe *FormatError
	if !As(err, &fe) {
		t.Error("As should extract *FormatError")
	}
	if fe.Format != "JSON" {
		t.Errorf("Format = %q, want JSON", fe.Format)
	}
}
