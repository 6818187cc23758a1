package blobstore

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidKey is returned for empty, absolute, or escaping object keys.
var ErrInvalidKey = errors.New("invalid blob key")

// MaxKeyLength matches the S3 and GCS object name limit.
const MaxKeyLength = 1024

// validateKey accepts slash-separated relative keys that stay inside the
// store's root once cleaned.
func validateKey(key string) error {
	if key == "" || len(key) > MaxKeyLength {
		return fmt.Errorf("%w: length must be 1-%d", ErrInvalidKey, MaxKeyLength)
	}
	if strings.ContainsAny(key, "\\\x00") || strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: %q is not a clean relative path", ErrInvalidKey, key)
	}
	return nil
}
