// Package yamlutil isolates the YAML dependency behind size-limited helpers
// used for configuration files, style presets and content documents.
package yamlutil

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

// Unmarshal decodes YAML (or JSON, a YAML subset) into v.
func Unmarshal(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}

// Remarshal re-encodes a generically decoded value (maps, slices, scalars)
// and strictly decodes it into dst. Used for discriminated documents whose
// payload type is only known after reading a tag field.
func Remarshal(src, dst any) error {
	if src == nil {
		return ErrNilData
	}
	data, err := Marshal(src)
	if err != nil {
		return err
	}
	return UnmarshalStrict(data, dst)
}

// Read reads at most MaxInputSize bytes from r and strictly decodes them.
func Read(r io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(r, int64(MaxInputSize)+1))
	if err != nil {
		return fmt.Errorf("yamlutil: reading input: %w", err)
	}
	return UnmarshalStrict(data, v)
}

// ReadFile strictly decodes the YAML file at path.
func ReadFile(path string, v any) error {
	f, err := os.Open(path) // #nosec G304 -- caller-provided path
	if err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	defer f.Close()
	return Read(f, v)
}
