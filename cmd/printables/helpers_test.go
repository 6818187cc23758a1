package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Dependencies, files, images
// ---------------------------------------------------------------------------

func fixedNow() time.Time { return time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC) }

// testDeps returns dependencies reading env from a map and writing to
// buffers. Logging is silenced unless env sets a mode.
func testDeps(env map[string]string) (*Dependencies, *bytes.Buffer, *bytes.Buffer) {
	if env == nil {
		env = map[string]string{}
	}
	if _, ok := env["PRINTABLES_LOG_MODE"]; !ok {
		env["PRINTABLES_LOG_MODE"] = "silent"
	}
	var stdout, stderr bytes.Buffer
	deps := &Dependencies{
		Now:    fixedNow,
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
		Getenv: func(k string) string { return env[k] },
		Environ: func() []string {
			out := make([]string, 0, len(env))
			for k, v := range env {
				out = append(out, k+"="+v)
			}
			slices.Sort(out)
			return out
		},
	}
	return deps, &stdout, &stderr
}

// setupTestDir creates a temp directory with the given file structure.
// Files map paths to content. Returns the temp directory path.
func setupTestDir(t *testing.T, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()

	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	return tempDir
}

// pngBytes encodes a small opaque image.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for x := range 8 {
		for y := range 6 {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: 140, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// writePNG stores pngBytes at dir/name and returns the path.
func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, pngBytes(t), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// persistentEnv points records at sqlite and blobs at the filesystem, both
// under dir.
func persistentEnv(dir string) map[string]string {
	return map[string]string{
		"PRINTABLES_RECORDS_DRIVER": "sqlite",
		"PRINTABLES_RECORDS_DSN":    filepath.Join(dir, "assets.db"),
		"PRINTABLES_BLOBS_DRIVER":   "filesystem",
		"PRINTABLES_BLOBS_PATH":     filepath.Join(dir, "blobs"),
	}
}

const posterYAML = `id: poster-1
name: Calm Corner
kind: poster
content:
  title: Breathe
  assetKey: poster
`

const emotionYAML = `id: %s
name: %s
kind: emotion_cards
content:
  title: Feelings
  cards:
    - emotion: Happy
      assetKey: happy
    - emotion: Sad
      assetKey: sad
`
