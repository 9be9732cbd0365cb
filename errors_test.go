package cubby

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"not found", fmt.Errorf("stat %q: %w", "k", ErrNotFound), KindNotFound},
		{"conflict", ErrConflict, KindConflict},
		{"permission", ErrPermission, KindPermission},
		{"not configured", ErrNotConfigured, KindPermission},
		{"transient", fmt.Errorf("%w: slow down", ErrTransient), KindTransient},
		{"invalid key", ErrInvalidKey, KindInvalid},
		{"invalid name", ErrInvalidName, KindInvalid},
		{"unsupported method", ErrUnsupportedMethod, KindInvalid},
		{"other", errors.New("boom"), KindUnknown},
		{"duplicate", &DuplicateError{Source: "a", Destination: "b", Err: ErrNotFound}, KindDuplicate},
		{"wrapped duplicate", fmt.Errorf("rename: %w", &DuplicateError{Err: ErrTransient}), KindDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindUnknown:    "unknown",
		KindNotFound:   "not_found",
		KindDuplicate:  "duplicate_object",
		KindConflict:   "conflict",
		KindPermission: "permission",
		KindTransient:  "transient",
		KindInvalid:    "invalid",
		Kind(99):       "unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestDuplicateError(t *testing.T) {
	cause := errors.New("delete refused")
	err := &DuplicateError{Source: "a.txt", Destination: "b.txt", Err: cause}

	if !errors.Is(err, ErrDuplicateObject) {
		t.Error("expected ErrDuplicateObject in chain")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	msg := err.Error()
	for _, part := range []string{"a.txt", "b.txt", "delete refused"} {
		if !strings.Contains(msg, part) {
			t.Errorf("message %q missing %q", msg, part)
		}
	}
}
