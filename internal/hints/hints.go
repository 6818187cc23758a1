// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-printables/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Docker creates /.dockerenv in every container it starts. Tests swap it.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors of the
// chrome backend.
func ForBrowserConnect() string {
	var hints []string

	// CI runners rarely allow the Chrome sandbox
	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	// Only worth suggesting when no binary was pinned
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	// The native backend is always available
	hints = append(hints, "or use --backend native, which needs no browser")

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large batches or slow image hosts, use --timeout flag")
}

// ForConfigNotFound suggests --config and a user config location.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	// Point at the per-user location from the searched list, if any
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-printables") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForPresetNotFound lists the presets that do exist.
func ForPresetNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForMissingAsset names the asset keys that could not be resolved.
func ForMissingAsset(keys []string) string {
	if len(keys) == 0 {
		return format("generate or upload an image with 'printables asset put'")
	}
	return format("no current version for " + strings.Join(keys, ", ") + "; upload one with 'printables asset put'")
}

// format prefixes a hint so it reads as its own indented line under the
// error. Empty hints stay empty.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins several hints into one line.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
