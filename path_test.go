package cubby

import (
	"errors"
	"testing"
)

func TestFolderPrefix(t *testing.T) {
	if FolderPrefix("") != "" {
		t.Error("root prefix must be empty")
	}
	if got := FolderPrefix("a/b"); got != "a/b/" {
		t.Errorf("got %q", got)
	}
	if got := MarkerKey("a/b"); got != "a/b/" {
		t.Errorf("got %q", got)
	}
}

func TestKeyHelpers(t *testing.T) {
	tests := []struct {
		key, base, parent string
	}{
		{"a.txt", "a.txt", ""},
		{"docs/a.txt", "a.txt", "docs"},
		{"docs/2024/a.txt", "a.txt", "docs/2024"},
		{"docs/", "docs", ""},
	}
	for _, tt := range tests {
		if got := Base(tt.key); got != tt.base {
			t.Errorf("Base(%q) = %q, want %q", tt.key, got, tt.base)
		}
		if got := Parent(tt.key); got != tt.parent {
			t.Errorf("Parent(%q) = %q, want %q", tt.key, got, tt.parent)
		}
	}

	if got := JoinKey("", "a.txt"); got != "a.txt" {
		t.Errorf("JoinKey root = %q", got)
	}
	if got := JoinKey("docs", "a.txt"); got != "docs/a.txt" {
		t.Errorf("JoinKey = %q", got)
	}
	if got := ReplaceBase("docs/old.txt", "new.txt"); got != "docs/new.txt" {
		t.Errorf("ReplaceBase = %q", got)
	}
	if got := ReplaceBase("old.txt", "new.txt"); got != "new.txt" {
		t.Errorf("ReplaceBase root = %q", got)
	}
}

func TestValidateKey(t *testing.T) {
	valid := []string{"a", "a/b.txt", "folder/", "ünïcode/ファイル.txt", "spaces in name.txt"}
	for _, k := range valid {
		if err := ValidateKey(k); err != nil {
			t.Errorf("ValidateKey(%q): %v", k, err)
		}
	}

	invalid := []string{"", "/a", "a//b", string([]byte{0xff, 0xfe})}
	for _, k := range invalid {
		if err := ValidateKey(k); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ValidateKey(%q): expected ErrInvalidKey, got %v", k, err)
		}
	}

	if err := ValidateFileKey("folder/"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("file key must not end in separator, got %v", err)
	}
	if err := ValidatePath(""); err != nil {
		t.Errorf("root path is valid, got %v", err)
	}
	if err := ValidatePath("a/"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("path must not end in separator, got %v", err)
	}
}

func TestValidateName(t *testing.T) {
	for _, n := range []string{"a.txt", "report 2024.pdf", ".hidden"} {
		if err := ValidateName(n); err != nil {
			t.Errorf("ValidateName(%q): %v", n, err)
		}
	}
	for _, n := range []string{"", ".", "..", "a/b", string([]byte{0xc3})} {
		if err := ValidateName(n); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q): expected ErrInvalidName, got %v", n, err)
		}
	}
}

func TestEscapeKey(t *testing.T) {
	tests := map[string]string{
		"a/b c.txt":  "a/b%20c.txt",
		"plain":      "plain",
		"q?/hash#":   "q%3F/hash%23",
		"percent%20": "percent%2520",
	}
	for in, want := range tests {
		if got := EscapeKey(in); got != want {
			t.Errorf("EscapeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
