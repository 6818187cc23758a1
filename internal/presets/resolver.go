package presets

import "errors"

// Resolver tries a custom directory first and falls back to the built-in
// presets when the custom directory does not have the requested name.
type Resolver struct {
	custom   Loader // nil when no directory is configured
	embedded Loader
}

// NewResolver creates a Resolver. An empty customBasePath means built-in
// presets only. A non-empty but invalid path is an error.
func NewResolver(customBasePath string) (*Resolver, error) {
	r := &Resolver{embedded: NewEmbeddedLoader()}
	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		r.custom = fsLoader
	}
	return r, nil
}

// Load returns the custom preset if present, else the built-in one.
// Validation and I/O errors from the custom loader do not fall back.
func (r *Resolver) Load(name string) ([]byte, error) {
	if r.custom == nil {
		return r.embedded.Load(name)
	}
	content, err := r.custom.Load(name)
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, ErrPresetNotFound) {
		return nil, err
	}
	return r.embedded.Load(name)
}

// HasCustomLoader reports whether a custom directory is configured.
func (r *Resolver) HasCustomLoader() bool {
	return r.custom != nil
}

var _ Loader = (*Resolver)(nil)
