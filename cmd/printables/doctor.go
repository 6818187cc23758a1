package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/alnah/go-printables/internal/config"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// errDoctorFailed is returned when a check reports an error.
var errDoctorFailed = fmt.Errorf("setup is not ready")

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Backend  string      `json:"backend"`
	Chrome   chromeInfo  `json:"chrome"`
	Storage  storageInfo `json:"storage"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// storageInfo describes the configured asset storage.
type storageInfo struct {
	Records   string `json:"records"`
	Blobs     string `json:"blobs"`
	Lock      string `json:"lock"`
	Reachable bool   `json:"reachable"`
	Generator bool   `json:"generator"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	BrowserBin    string `json:"rod_browser_bin,omitempty"`
}

// systemInfo holds system check results.
type systemInfo struct {
	OutputDir      string `json:"output_dir"`
	OutputWritable bool   `json:"output_writable"`
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

// doctorFlagSet registers doctor flags.
func doctorFlagSet(w io.Writer) (*flag.FlagSet, *doctorFlags) {
	fs := newFlagSet(cmdDoctor, w, printDoctorUsage)
	f := &doctorFlags{}
	addCommonFlags(fs, &f.common)
	fs.BoolVar(&f.json, "json", false, "print results as JSON")
	return fs, f
}

// runDoctor checks that the configured setup can render and store assets.
// Chrome is only required when the chrome backend is selected.
func runDoctor(ctx context.Context, args []string, deps *Dependencies) error {
	fs, f := doctorFlagSet(deps.Stderr)
	if err := fs.Parse(args); err != nil {
		return parseError(err)
	}
	cfg, logger, err := setup(&f.common, deps, nil)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	result := &doctorResult{
		Status:  statusReady,
		Backend: strings.ToLower(cfg.Render.Backend),
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			BrowserBin: deps.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkEnvironment(result, deps.Getenv)
	checkStorage(ctx, result, cfg, logger)
	checkOutputDir(result, cfg.Render.OutputDir)

	switch {
	case len(result.Errors) > 0:
		result.Status = statusErrors
	case len(result.Warnings) > 0:
		result.Status = statusWarnings
	}

	if f.json {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(deps.Stdout, result)
	}

	if result.Status == statusErrors {
		return fmt.Errorf("%w: %d problem(s)", errDoctorFailed, len(result.Errors))
	}
	return nil
}

// checkChrome detects Chrome/Chromium installation. A missing browser is
// an error for the chrome backend and a warning otherwise.
func checkChrome(result *doctorResult) {
	report := func(msg string) {
		if result.Backend == "chrome" {
			result.Errors = append(result.Errors, msg)
			return
		}
		result.Warnings = append(result.Warnings, msg+" (only needed for --backend chrome)")
	}

	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			report("Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		report(fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- path comes from launcher or ROD_BROWSER_BIN
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkStorage opens the configured storage once, which pings Redis and
// connects the record and blob stores.
func checkStorage(ctx context.Context, result *doctorResult, cfg *config.Config, logger *zap.Logger) {
	result.Storage = storageInfo{
		Records:   driverName(cfg.Storage.Records.Driver),
		Blobs:     driverName(cfg.Storage.Blobs.Driver),
		Lock:      driverName(cfg.Storage.Lock.Driver),
		Generator: cfg.Generator.Endpoint != "",
	}
	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Storage unavailable: %v", err))
		return
	}
	_ = st.Close()
	result.Storage.Reachable = true
	if !persistentRecords(cfg) {
		result.Warnings = append(result.Warnings,
			"Asset records are in memory; stored images are lost on exit. Set PRINTABLES_RECORDS_DRIVER=sqlite")
	}
}

// checkOutputDir verifies the output directory accepts files.
func checkOutputDir(result *doctorResult, dir string) {
	if dir == "" {
		dir = "."
	}
	result.System.OutputDir = dir
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Output directory not usable: %v", err))
		return
	}
	probe, err := os.CreateTemp(dir, ".printables-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Output directory not writable: %s", dir))
		return
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	result.System.OutputWritable = true
	if abs, err := filepath.Abs(dir); err == nil {
		result.System.OutputDir = abs
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "printables doctor")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Rendering (backend: %s)\n", r.Backend)
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Chrome found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
	} else {
		fmt.Fprintln(w, "  [--] Chrome not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Storage")
	fmt.Fprintf(w, "  Records: %s, blobs: %s, lock: %s\n", r.Storage.Records, r.Storage.Blobs, r.Storage.Lock)
	if r.Storage.Reachable {
		fmt.Fprintln(w, "  [OK] Reachable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Unreachable")
	}
	if r.Storage.Generator {
		fmt.Fprintln(w, "  [OK] Image generator configured")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Output")
	if r.System.OutputWritable {
		fmt.Fprintf(w, "  [OK] %s: writable\n", r.System.OutputDir)
	} else {
		fmt.Fprintf(w, "  [ERROR] %s: not writable\n", r.System.OutputDir)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to render")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: printables doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the browser, storage and output directory for the current config.")
	fmt.Fprintln(w, "Exits 1 when a check fails.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Print results as JSON")
	fmt.Fprintln(w)
	printCommonUsage(w)
}
