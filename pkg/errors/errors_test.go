package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorText(t *testing.T) {
	if got, want := New(ErrCodeInvalidSlots, "slot %q has no area", "lead").Error(),
		`INVALID_SLOTS: slot "lead" has no area`; got != want {
		t.Errorf("New().Error() = %q, want %q", got, want)
	}

	cause := errors.New("connection refused")
	err := Wrap(ErrCodeStore, cause, "save report %s", "run-7")
	if got, want := err.Error(), "STORE_FAILED: save report run-7: connection refused"; got != want {
		t.Errorf("Wrap().Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) || errors.Unwrap(err) != cause {
		t.Error("wrapped cause is not reachable through the chain")
	}
}

func TestClassify(t *testing.T) {
	slots := New(ErrCodeInvalidSlots, "duplicate slot %q", "side")
	stored := Wrap(ErrCodeStore, slots, "save report")
	annotated := fmt.Errorf("page 2: %w", slots)

	tests := []struct {
		name    string
		err     error
		code    Code
		message string
		status  int
	}{
		{"coded", slots, ErrCodeInvalidSlots, `duplicate slot "side"`, http.StatusBadRequest},
		{"outer code wins", stored, ErrCodeStore, "save report", http.StatusInternalServerError},
		{"behind fmt wrap", annotated, ErrCodeInvalidSlots, `duplicate slot "side"`, http.StatusBadRequest},
		{"page key", New(ErrCodePageNotFound, "no page 12"), ErrCodePageNotFound, "no page 12", http.StatusNotFound},
		{"unsupported", New(ErrCodeUnsupported, "notes.docx"), ErrCodeUnsupported, "notes.docx", http.StatusNotImplemented},
		{"incomplete", New(ErrCodeIncomplete, "1 note missing"), ErrCodeIncomplete, "1 note missing", http.StatusInternalServerError},
		{"plain", errors.New("disk full"), "", "disk full", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(err, %q) = false", tt.code)
			}
			if got := UserMessage(tt.err); got != tt.message {
				t.Errorf("UserMessage = %q, want %q", got, tt.message)
			}
			if got := HTTPStatus(tt.err); got != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.status)
			}
		})
	}

	if Is(stored, ErrCodeInvalidSlots) {
		t.Error("Is matched an inner code")
	}
	if Is(nil, "") {
		t.Error("Is(nil) = true")
	}
}

func TestCodeInvalid(t *testing.T) {
	for _, c := range []Code{ErrCodeInvalidInput, ErrCodeInvalidConfig, ErrCodeInvalidNotes, ErrCodeInvalidStrategy, ErrCodeInvalidPath} {
		if !c.Invalid() {
			t.Errorf("%s.Invalid() = false", c)
		}
	}
	for _, c := range []Code{ErrCodeFileNotFound, ErrCodeHost, ErrCodeRender, ErrCodeIncomplete} {
		if c.Invalid() {
			t.Errorf("%s.Invalid() = true", c)
		}
	}
}
