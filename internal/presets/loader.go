package presets

import (
	"fmt"
	"strings"
)

// DefaultName is the preset used when none is configured.
const DefaultName = "default"

// Loader returns the raw YAML bytes of a named style preset.
type Loader interface {
	// Load returns ErrPresetNotFound if the preset doesn't exist and
	// ErrInvalidName if the name is unsafe.
	Load(name string) ([]byte, error)
}

// ValidateName checks that a preset name is safe for use as a filename.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
