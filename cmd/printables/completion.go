package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"

	printables "github.com/alnah/go-printables"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = fmt.Errorf("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagInt
	flagEnum // has predefined values
	flagFile // file with glob pattern
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string   // --output
	Short    string   // -o (empty if none)
	Type     flagType // completion type
	Desc     string   // help text
	Values   []string // for enum flags
	FileGlob string   // for file flags
}

// commandDef describes a command for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	Subcommands []string
	Args        []string // fixed argument values (shells for completion)
	TakesFiles  bool     // accepts file arguments
	FilePattern string   // glob for file arguments (e.g., "*.yaml")
}

// completionMeta holds completion-specific metadata for flags.
// Flag names, types, and descriptions come from the FlagSet.
type completionMeta struct {
	Values   []string // enum values
	FileGlob string   // file glob pattern
	IsDir    bool     // directory completion
}

// flagCompletionMeta maps flag names to their completion metadata.
var flagCompletionMeta = map[string]completionMeta{
	// Enum flags
	"backend":        {Values: []string{"native", "chrome"}},
	"orientation":    {Values: []string{"portrait", "landscape"}},
	"cards-per-page": {Values: []string{"4", "6", "9"}},
	"style":          {Values: printables.StylePresetNames()},
	"kind":           {Values: []string{defaultAssetKind}},

	// File flags with glob patterns
	"config": {FileGlob: "*.yaml,*.yml"},

	// Directory flags
	"output":      {IsDir: true},
	"preset-path": {IsDir: true},
}

// resourcePattern matches files render, preview and batch accept.
const resourcePattern = "*.yaml,*.yml,*.json"

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
// Enriches with completion metadata from flagCompletionMeta.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
			fd.Type = flagInt
		default:
			fd.Type = flagString
		}

		if meta, ok := flagCompletionMeta[f.Name]; ok {
			switch {
			case len(meta.Values) > 0:
				fd.Type = flagEnum
				fd.Values = meta.Values
			case meta.FileGlob != "":
				fd.Type = flagFile
				fd.FileGlob = meta.FileGlob
			case meta.IsDir:
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// assetSubcommands returns the asset subcommand names in sorted order.
func assetSubcommands() []string {
	subs := make([]string, 0, len(assetCommands))
	for name := range assetCommands {
		subs = append(subs, name)
	}
	slices.Sort(subs)
	return subs
}

// assetCompletionFlags merges the flags of every asset subcommand.
func assetCompletionFlags() []flagDef {
	var out []flagDef
	seen := map[string]bool{}
	for _, sub := range assetSubcommands() {
		fs, _ := assetFlagSet(sub, io.Discard)
		for _, fd := range extractFlagsFromFlagSet(fs) {
			if !seen[fd.Long] {
				seen[fd.Long] = true
				out = append(out, fd)
			}
		}
	}
	return out
}

// getCommands returns the command registry for completion.
// Flags are extracted from the actual FlagSets.
func getCommands() []commandDef {
	renderFS, _ := renderFlagSet(cmdRender, io.Discard)
	previewFS, _ := renderFlagSet(cmdPreview, io.Discard)
	batchFS, _ := batchFlagSet(io.Discard)
	doctorFS, _ := doctorFlagSet(io.Discard)

	return []commandDef{
		{
			Name:        cmdRender,
			Desc:        "Render a resource file to PDF",
			Flags:       extractFlagsFromFlagSet(renderFS),
			TakesFiles:  true,
			FilePattern: resourcePattern,
		},
		{
			Name:        cmdPreview,
			Desc:        "Render a resource file to an HTML preview",
			Flags:       extractFlagsFromFlagSet(previewFS),
			TakesFiles:  true,
			FilePattern: resourcePattern,
		},
		{
			Name:        cmdBatch,
			Desc:        "Render many resource files into a zip archive",
			Flags:       extractFlagsFromFlagSet(batchFS),
			TakesFiles:  true,
			FilePattern: resourcePattern,
		},
		{
			Name:        cmdAsset,
			Desc:        "Manage stored images and their versions",
			Flags:       assetCompletionFlags(),
			Subcommands: assetSubcommands(),
			TakesFiles:  true,
		},
		{
			Name:  cmdDoctor,
			Desc:  "Check the browser, storage and output setup",
			Flags: extractFlagsFromFlagSet(doctorFS),
		},
		{
			Name: cmdCompletion,
			Desc: "Generate shell completion script",
			Args: []string{string(ShellBash), string(ShellZsh), string(ShellFish), string(ShellPowerShell)},
		},
		{Name: cmdVersion, Desc: "Show version information"},
		{Name: cmdHelp, Desc: "Show help for a command"},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	var b strings.Builder
	switch shell {
	case ShellBash:
		writeBash(&b, getCommands())
	case ShellZsh:
		writeZsh(&b, getCommands())
	case ShellFish:
		writeFish(&b, getCommands())
	case ShellPowerShell:
		writePowerShell(&b, getCommands())
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish, powershell)", ErrUnsupportedShell, shell)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// runCompletion handles the completion command.
func runCompletion(args []string, deps *Dependencies) error {
	if len(args) == 0 {
		printCompletionUsage(deps.Stdout)
		return nil
	}
	if err := GenerateCompletion(deps.Stdout, Shell(args[0])); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: printables completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w, "  powershell  PowerShell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(printables completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (before compinit):")
	fmt.Fprintln(w, "    eval \"$(printables completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    printables completion fish > ~/.config/fish/completions/printables.fish")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  PowerShell:")
	fmt.Fprintln(w, "    # Add to $PROFILE:")
	fmt.Fprintln(w, "    printables completion powershell | Out-String | Invoke-Expression")
}

// ---------------------------------------------------------------------------
// Bash
// ---------------------------------------------------------------------------

func commandNames(cmds []commandDef) []string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

// flagWords lists every spelling of the flags, long first.
func flagWords(flags []flagDef) []string {
	var words []string
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return words
}

// extglob turns "*.yaml,*.yml" into "@(yaml|yml)".
func extglob(glob string) string {
	var exts []string
	for _, g := range strings.Split(glob, ",") {
		exts = append(exts, strings.TrimPrefix(strings.TrimSpace(g), "*."))
	}
	return "@(" + strings.Join(exts, "|") + ")"
}

func writeBash(b *strings.Builder, cmds []commandDef) {
	b.WriteString("# bash completion for printables\n")
	b.WriteString("_printables_completions() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    COMPREPLY=()\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(b, "        COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(commandNames(cmds), " "))
	b.WriteString("        return 0\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"${cmd}\" in\n")
	for _, c := range cmds {
		fmt.Fprintf(b, "        %s)\n", c.Name)
		if len(c.Subcommands) > 0 {
			b.WriteString("            if [[ ${COMP_CWORD} -eq 2 ]]; then\n")
			fmt.Fprintf(b, "                COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(c.Subcommands, " "))
			b.WriteString("                return 0\n")
			b.WriteString("            fi\n")
		}
		if len(c.Args) > 0 {
			fmt.Fprintf(b, "            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(c.Args, " "))
			b.WriteString("            ;;\n")
			continue
		}
		writeBashValueCases(b, c.Flags)
		if len(c.Flags) > 0 {
			b.WriteString("            if [[ ${cur} == -* ]]; then\n")
			fmt.Fprintf(b, "                COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n", strings.Join(flagWords(c.Flags), " "))
			b.WriteString("                return 0\n")
			b.WriteString("            fi\n")
		}
		switch {
		case c.FilePattern != "":
			fmt.Fprintf(b, "            COMPREPLY=( $(compgen -f -X '!*.%s' -- \"${cur}\") $(compgen -d -- \"${cur}\") )\n", extglob(c.FilePattern))
		case c.TakesFiles:
			b.WriteString("            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n")
		}
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n")
	b.WriteString("shopt -s extglob 2>/dev/null\n")
	b.WriteString("complete -o filenames -o bashdefault -F _printables_completions printables\n")
}

// writeBashValueCases completes the value of the flag just typed.
func writeBashValueCases(b *strings.Builder, flags []flagDef) {
	var cases []string
	for _, f := range flags {
		var action string
		switch f.Type {
		case flagEnum:
			action = fmt.Sprintf("COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )", strings.Join(f.Values, " "))
		case flagFile:
			action = fmt.Sprintf("COMPREPLY=( $(compgen -f -X '!*.%s' -- \"${cur}\") )", extglob(f.FileGlob))
		case flagDir:
			action = "COMPREPLY=( $(compgen -d -- \"${cur}\") )"
		default:
			continue
		}
		pattern := "--" + f.Long
		if f.Short != "" {
			pattern += "|-" + f.Short
		}
		cases = append(cases, fmt.Sprintf("                %s) %s; return 0 ;;\n", pattern, action))
	}
	if len(cases) == 0 {
		return
	}
	b.WriteString("            case \"${prev}\" in\n")
	for _, c := range cases {
		b.WriteString(c)
	}
	b.WriteString("            esac\n")
}

// ---------------------------------------------------------------------------
// Zsh
// ---------------------------------------------------------------------------

// zshQuote escapes a description for use inside '...[desc]'.
func zshQuote(s string) string {
	r := strings.NewReplacer(`'`, `'\''`, "[", `\[`, "]", `\]`, ":", `\:`)
	return r.Replace(s)
}

// zshAction returns the _arguments action for a flag value.
func zshAction(f flagDef) string {
	switch f.Type {
	case flagBool:
		return ""
	case flagEnum:
		return ":value:(" + strings.Join(f.Values, " ") + ")"
	case flagFile:
		return ":file:_files -g \"" + extglobZsh(f.FileGlob) + "\""
	case flagDir:
		return ":directory:_files -/"
	}
	return ":value: "
}

// extglobZsh turns "*.yaml,*.yml" into "*.(yaml|yml)".
func extglobZsh(glob string) string {
	return "*." + strings.TrimPrefix(extglob(glob), "@")
}

func writeZsh(b *strings.Builder, cmds []commandDef) {
	b.WriteString("#compdef printables\n\n")
	b.WriteString("_printables() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(b, "        '%s:%s'\n", c.Name, zshQuote(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    local cmd=\"${words[2]}\"\n")
	b.WriteString("    words=(\"${(@)words[2,-1]}\")\n")
	b.WriteString("    (( CURRENT-- ))\n\n")
	b.WriteString("    case \"${cmd}\" in\n")
	for _, c := range cmds {
		fmt.Fprintf(b, "        %s)\n", c.Name)
		if len(c.Subcommands) > 0 {
			b.WriteString("            if (( CURRENT == 2 )); then\n")
			fmt.Fprintf(b, "                _values 'subcommand' %s\n", strings.Join(c.Subcommands, " "))
			b.WriteString("                return\n")
			b.WriteString("            fi\n")
		}
		if len(c.Args) > 0 {
			fmt.Fprintf(b, "            _values 'shell' %s\n", strings.Join(c.Args, " "))
			b.WriteString("            ;;\n")
			continue
		}
		b.WriteString("            _arguments")
		for _, f := range c.Flags {
			desc := zshQuote(f.Desc)
			action := zshAction(f)
			if f.Short != "" {
				fmt.Fprintf(b, " \\\n                '(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, desc, action)
				continue
			}
			fmt.Fprintf(b, " \\\n                '--%s[%s]%s'", f.Long, desc, action)
		}
		switch {
		case c.FilePattern != "":
			fmt.Fprintf(b, " \\\n                '*:file:_files -g \"%s\"'", extglobZsh(c.FilePattern))
		case c.TakesFiles:
			b.WriteString(" \\\n                '*:file:_files'")
		}
		b.WriteString("\n            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _printables printables\n")
}

// ---------------------------------------------------------------------------
// Fish
// ---------------------------------------------------------------------------

// fishQuote escapes a string for fish single quotes.
func fishQuote(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}

func writeFish(b *strings.Builder, cmds []commandDef) {
	b.WriteString("# fish completion for printables\n")
	b.WriteString("function __fish_printables_needs_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\n")
	b.WriteString("end\n\n")
	b.WriteString("function __fish_printables_using_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -gt 1; and test $cmd[2] = $argv[1]\n")
	b.WriteString("end\n\n")
	b.WriteString("complete -c printables -f\n")
	for _, c := range cmds {
		fmt.Fprintf(b, "complete -c printables -n __fish_printables_needs_command -a %s -d %s\n", c.Name, fishQuote(c.Desc))
	}
	for _, c := range cmds {
		cond := fishQuote("__fish_printables_using_command " + c.Name)
		b.WriteString("\n")
		if len(c.Subcommands) > 0 {
			fmt.Fprintf(b, "complete -c printables -n %s -a %s\n", cond, fishQuote(strings.Join(c.Subcommands, " ")))
		}
		if len(c.Args) > 0 {
			fmt.Fprintf(b, "complete -c printables -n %s -a %s\n", cond, fishQuote(strings.Join(c.Args, " ")))
		}
		if c.TakesFiles {
			fmt.Fprintf(b, "complete -c printables -n %s -F\n", cond)
		}
		for _, f := range c.Flags {
			line := fmt.Sprintf("complete -c printables -n %s", cond)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			line += " -l " + f.Long
			switch f.Type {
			case flagEnum:
				line += " -x -a " + fishQuote(strings.Join(f.Values, " "))
			case flagFile:
				line += " -r -F"
			case flagDir:
				line += " -r -a '(__fish_complete_directories)'"
			case flagString, flagInt:
				line += " -r"
			}
			line += " -d " + fishQuote(f.Desc)
			b.WriteString(line + "\n")
		}
	}
}

// ---------------------------------------------------------------------------
// PowerShell
// ---------------------------------------------------------------------------

func psQuote(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }

func psList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = psQuote(s)
	}
	return "@(" + strings.Join(quoted, ", ") + ")"
}

func writePowerShell(b *strings.Builder, cmds []commandDef) {
	b.WriteString("# powershell completion for printables\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName printables -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $commands = [ordered]@{\n")
	for _, c := range cmds {
		words := append(append([]string{}, c.Subcommands...), c.Args...)
		words = append(words, flagWords(c.Flags)...)
		fmt.Fprintf(b, "        %s = %s\n", psQuote(c.Name), psList(words))
	}
	b.WriteString("    }\n\n")
	b.WriteString("    $elements = @($commandAst.CommandElements | ForEach-Object { $_.ToString() })\n")
	b.WriteString("    if ($elements.Count -le 1 -or ($elements.Count -eq 2 -and $wordToComplete -ne '')) {\n")
	b.WriteString("        $commands.Keys | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n")
	b.WriteString("        }\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n\n")
	b.WriteString("    $words = $commands[$elements[1]]\n")
	b.WriteString("    if ($words) {\n")
	b.WriteString("        $words | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)\n")
	b.WriteString("        }\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
}
