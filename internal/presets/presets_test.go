package presets

// Notes:
// - Filesystem tests use t.TempDir() so they can run in parallel.
// - Symlink escape is covered only where the OS allows creating symlinks.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestValidateName - Rejects unsafe preset names
// ---------------------------------------------------------------------------

func TestValidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple name", "default", false},
		{"dash and underscore", "my-style_2", false},
		{"empty", "", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"dot", "style.yaml", true},
		{"traversal", "..", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateName(tt.input)
			if tt.wantErr && !errors.Is(err, ErrInvalidName) {
				t.Errorf("ValidateName(%q) error = %v, want ErrInvalidName", tt.input, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateName(%q) unexpected error: %v", tt.input, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestEmbeddedLoader - Built-in presets
// ---------------------------------------------------------------------------

func TestEmbeddedLoader(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	t.Run("default preset exists", func(t *testing.T) {
		t.Parallel()

		content, err := loader.Load(DefaultName)
		if err != nil {
			t.Fatalf("Load(%q) error = %v", DefaultName, err)
		}
		if !strings.Contains(string(content), "palette:") {
			t.Errorf("default preset should declare a palette, got %q", content)
		}
	})

	t.Run("unknown preset", func(t *testing.T) {
		t.Parallel()

		_, err := loader.Load("does-not-exist")
		if !errors.Is(err, ErrPresetNotFound) {
			t.Errorf("Load() error = %v, want ErrPresetNotFound", err)
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		t.Parallel()

		_, err := loader.Load("../default")
		if !errors.Is(err, ErrInvalidName) {
			t.Errorf("Load() error = %v, want ErrInvalidName", err)
		}
	})

	t.Run("names are sorted and include default", func(t *testing.T) {
		t.Parallel()

		names := loader.Names()
		if len(names) == 0 {
			t.Fatal("Names() returned nothing")
		}
		found := false
		for i, n := range names {
			if n == DefaultName {
				found = true
			}
			if i > 0 && names[i-1] > n {
				t.Errorf("Names() not sorted: %v", names)
			}
		}
		if !found {
			t.Errorf("Names() = %v, missing %q", names, DefaultName)
		}
	})
}

// ---------------------------------------------------------------------------
// TestFilesystemLoader - Presets from disk
// ---------------------------------------------------------------------------

func writePreset(t *testing.T, dir, name, content string) {
	t.Helper()
	stylesDir := filepath.Join(dir, "styles")
	if err := os.MkdirAll(stylesDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stylesDir, name+".yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
}

func TestNewFilesystemLoader(t *testing.T) {
	t.Parallel()

	t.Run("valid directory", func(t *testing.T) {
		t.Parallel()

		if _, err := NewFilesystemLoader(t.TempDir()); err != nil {
			t.Fatalf("NewFilesystemLoader() error = %v", err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()

		_, err := NewFilesystemLoader("")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("error = %v, want ErrInvalidBasePath", err)
		}
	})

	t.Run("file instead of directory", func(t *testing.T) {
		t.Parallel()

		file := filepath.Join(t.TempDir(), "file.txt")
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		_, err := NewFilesystemLoader(file)
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("error = %v, want ErrInvalidBasePath", err)
		}
	})
}

func TestFilesystemLoader_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePreset(t, dir, "custom", "name: custom\n")

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}

	t.Run("existing preset", func(t *testing.T) {
		t.Parallel()

		content, err := loader.Load("custom")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if string(content) != "name: custom\n" {
			t.Errorf("Load() = %q", content)
		}
	})

	t.Run("missing preset", func(t *testing.T) {
		t.Parallel()

		_, err := loader.Load("missing")
		if !errors.Is(err, ErrPresetNotFound) {
			t.Errorf("Load() error = %v, want ErrPresetNotFound", err)
		}
	})

	t.Run("symlink escaping base directory", func(t *testing.T) {
		t.Parallel()

		outside := filepath.Join(t.TempDir(), "secret.yaml")
		if err := os.WriteFile(outside, []byte("name: secret\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		linkDir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(linkDir, "styles"), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.Symlink(outside, filepath.Join(linkDir, "styles", "evil.yaml")); err != nil {
			t.Skipf("symlinks not supported: %v", err)
		}

		l, err := NewFilesystemLoader(linkDir)
		if err != nil {
			t.Fatalf("NewFilesystemLoader() error = %v", err)
		}
		_, err = l.Load("evil")
		if !errors.Is(err, ErrPathTraversal) {
			t.Errorf("Load() error = %v, want ErrPathTraversal", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestResolver - Custom first, built-in fallback
// ---------------------------------------------------------------------------

func TestResolver(t *testing.T) {
	t.Parallel()

	t.Run("embedded only", func(t *testing.T) {
		t.Parallel()

		r, err := NewResolver("")
		if err != nil {
			t.Fatalf("NewResolver() error = %v", err)
		}
		if r.HasCustomLoader() {
			t.Error("expected no custom loader")
		}
		if _, err := r.Load(DefaultName); err != nil {
			t.Errorf("Load(default) error = %v", err)
		}
	})

	t.Run("custom overrides built-in", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writePreset(t, dir, DefaultName, "name: overridden\n")

		r, err := NewResolver(dir)
		if err != nil {
			t.Fatalf("NewResolver() error = %v", err)
		}
		content, err := r.Load(DefaultName)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if string(content) != "name: overridden\n" {
			t.Errorf("Load() = %q, want custom content", content)
		}
	})

	t.Run("falls back when custom lacks preset", func(t *testing.T) {
		t.Parallel()

		r, err := NewResolver(t.TempDir())
		if err != nil {
			t.Fatalf("NewResolver() error = %v", err)
		}
		if _, err := r.Load("pastel"); err != nil {
			t.Errorf("Load(pastel) error = %v", err)
		}
	})

	t.Run("validation error does not fall back", func(t *testing.T) {
		t.Parallel()

		r, err := NewResolver(t.TempDir())
		if err != nil {
			t.Fatalf("NewResolver() error = %v", err)
		}
		_, err = r.Load("a/b")
		if !errors.Is(err, ErrInvalidName) {
			t.Errorf("Load() error = %v, want ErrInvalidName", err)
		}
	})

	t.Run("invalid custom path", func(t *testing.T) {
		t.Parallel()

		_, err := NewResolver("/nonexistent/path/abc123xyz")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewResolver() error = %v, want ErrInvalidBasePath", err)
		}
	})
}
