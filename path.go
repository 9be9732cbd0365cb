package cubby

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FolderPrefix returns the listing prefix for a folder path.
// The root folder ("") has an empty prefix.
func FolderPrefix(path string) string {
	if path == "" {
		return ""
	}
	return path + Delimiter
}

// MarkerKey returns the key of the zero-byte marker object for path.
func MarkerKey(path string) string {
	return path + Delimiter
}

// JoinKey places name inside folder. An empty folder means the root.
func JoinKey(folder, name string) string {
	if folder == "" {
		return name
	}
	return folder + Delimiter + name
}

// Base returns the last segment of a key or path.
func Base(key string) string {
	key = strings.TrimSuffix(key, Delimiter)
	if i := strings.LastIndex(key, Delimiter); i >= 0 {
		return key[i+1:]
	}
	return key
}

// Parent returns the folder path containing key; "" for the root.
func Parent(key string) string {
	key = strings.TrimSuffix(key, Delimiter)
	if i := strings.LastIndex(key, Delimiter); i >= 0 {
		return key[:i]
	}
	return ""
}

// ReplaceBase swaps the last segment of key for name, keeping the folder.
func ReplaceBase(key, name string) string {
	return JoinKey(Parent(key), name)
}

// ValidateKey checks an object key: non-empty UTF-8, no leading separator,
// and no empty segments.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidKey, key)
	}
	if strings.HasPrefix(key, Delimiter) {
		return fmt.Errorf("%w: %q starts with %q", ErrInvalidKey, key, Delimiter)
	}
	if strings.Contains(key, Delimiter+Delimiter) {
		return fmt.Errorf("%w: %q has an empty segment", ErrInvalidKey, key)
	}
	return nil
}

// ValidateFileKey checks a key that must address a file rather than a
// folder marker.
func ValidateFileKey(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if strings.HasSuffix(key, Delimiter) {
		return fmt.Errorf("%w: %q ends with %q", ErrInvalidKey, key, Delimiter)
	}
	return nil
}

// ValidatePath checks a folder path. The empty path is the root and is
// valid; otherwise the path follows ValidateFileKey rules.
func ValidatePath(path string) error {
	if path == "" {
		return nil
	}
	return ValidateFileKey(path)
}

// ValidateName checks a single path segment.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.Contains(name, Delimiter) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, Delimiter)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidName, name)
	}
	return nil
}
