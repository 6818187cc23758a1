package presets

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed styles/*.yaml
var styles embed.FS

// EmbeddedLoader loads presets compiled into the binary.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// Load reads styles/{name}.yaml from the embedded filesystem.
func (e *EmbeddedLoader) Load(name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	content, err := styles.ReadFile("styles/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return content, nil
}

// Names lists the built-in presets in alphabetical order.
func (e *EmbeddedLoader) Names() []string {
	entries, err := fs.ReadDir(styles, "styles")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

var _ Loader = (*EmbeddedLoader)(nil)
