package main

// Notes:
// - GenerateCompletion: we test that shell scripts are generated with expected
//   content markers. We do not test that the scripts actually work in the
//   target shell (that would require integration tests with actual shells).
// - getCommands: we test the registry mirrors the real flag sets.
// These are acceptable gaps: we test observable behavior, not runtime shell behavior.

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestGenerateCompletion_SupportedShells
// ---------------------------------------------------------------------------

func TestGenerateCompletion_SupportedShells(t *testing.T) {
	t.Parallel()

	tests := []struct {
		shell        Shell
		wantContains []string
	}{
		{ShellBash, []string{"_printables_completions", "-F _printables_completions printables", "compgen", "render", "--cards-per-page", "native chrome", "@(yaml|yml|json)"}},
		{ShellZsh, []string{"#compdef printables", "_arguments", "_describe", "batch", "--workers", "(4 6 9)"}},
		{ShellFish, []string{"complete -c printables", "__fish_printables_needs_command", "__fish_printables_using_command asset", "-l output", "'portrait landscape'"}},
		{ShellPowerShell, []string{"Register-ArgumentCompleter", "-CommandName printables", "CompletionResult", "'doctor'", "'--json'"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.shell), func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			if err := GenerateCompletion(&buf, tt.shell); err != nil {
				t.Fatalf("GenerateCompletion(%q) error: %v", tt.shell, err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q", want)
				}
			}
		})
	}
}

func TestGenerateCompletion_UnsupportedShell(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := GenerateCompletion(&buf, "tcsh"); !errors.Is(err, ErrUnsupportedShell) {
		t.Errorf("error = %v, want ErrUnsupportedShell", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written for an unsupported shell")
	}

	code, _, _ := run(t, nil, "completion", "tcsh")
	if code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
}

func TestRunCompletion_NoShellPrintsUsage(t *testing.T) {
	t.Parallel()

	code, stdout, _ := run(t, nil, "completion")
	if code != ExitSuccess || !strings.Contains(stdout, "printables completion <shell>") {
		t.Errorf("exit code = %d, stdout = %q", code, stdout)
	}
}

// ---------------------------------------------------------------------------
// TestGetCommands
// ---------------------------------------------------------------------------

func TestGetCommands(t *testing.T) {
	t.Parallel()

	cmds := getCommands()
	byName := map[string]commandDef{}
	for _, c := range cmds {
		byName[c.Name] = c
	}
	for _, name := range []string{cmdRender, cmdPreview, cmdBatch, cmdAsset, cmdDoctor, cmdCompletion, cmdVersion, cmdHelp} {
		if _, ok := byName[name]; !ok {
			t.Errorf("command %q missing from completion registry", name)
		}
	}

	hasFlag := func(c commandDef, long string) *flagDef {
		for i := range c.Flags {
			if c.Flags[i].Long == long {
				return &c.Flags[i]
			}
		}
		return nil
	}

	if f := hasFlag(byName[cmdRender], "backend"); f == nil || f.Type != flagEnum || f.Short != "b" {
		t.Errorf("render --backend = %+v, want enum with -b", f)
	}
	if f := hasFlag(byName[cmdRender], "config"); f == nil || f.Type != flagFile {
		t.Errorf("render --config = %+v, want file", f)
	}
	if f := hasFlag(byName[cmdBatch], "workers"); f == nil || f.Type != flagInt {
		t.Errorf("batch --workers = %+v, want int", f)
	}
	if f := hasFlag(byName[cmdAsset], "prompt"); f == nil {
		t.Error("asset flags should include --prompt from generate and edit")
	}
	if !slices.Equal(byName[cmdAsset].Subcommands, []string{"edit", "generate", "history", "list", "pin", "prune", "put", "restore", "unpin"}) {
		t.Errorf("asset subcommands = %v", byName[cmdAsset].Subcommands)
	}
}
