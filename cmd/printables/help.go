package main

import (
	"fmt"
	"io"
	"strings"

	printables "github.com/alnah/go-printables"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: printables <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Render a resource file to PDF")
	fmt.Fprintln(w, "  preview    Render a resource file to an HTML preview")
	fmt.Fprintln(w, "  batch      Render many resource files into a zip archive")
	fmt.Fprintln(w, "  asset      Manage stored images and their versions")
	fmt.Fprintln(w, "  doctor     Check the browser, storage and output setup")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'printables help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

func printDocumentUsage(w io.Writer) {
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -b, --backend <name>      native (default) or chrome")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Per-document timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "  -s, --style <name>        Style preset ("+strings.Join(printables.StylePresetNames(), ", ")+")")
	fmt.Fprintln(w, "      --preset-path <dir>   Directory with custom presets (styles/<name>.yaml)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --cards-per-page <n>  Cards per page: 4, 6, or 9 (default 6)")
	fmt.Fprintln(w, "      --no-labels           Hide card labels")
	fmt.Fprintln(w, "      --no-descriptions     Hide card descriptions")
	fmt.Fprintln(w, "      --cut-lines           Draw dashed cut lines between cards")
	fmt.Fprintln(w, "      --card-backs          Add mirrored back sheets for duplex printing")
	fmt.Fprintln(w, "      --booklet             Impose book pages as a folded booklet")
	fmt.Fprintln(w, "      --orientation <o>     portrait or landscape")
	fmt.Fprintln(w, "      --watermark           Overlay a watermark on every page")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Images:")
	fmt.Fprintln(w, "  -a, --asset <key=src>     Image for an asset key (path, URL, or data URI), repeatable")
	fmt.Fprintln(w, "      --style-id <uuid>     Stored style whose images back the resource's")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: printables render <resource.yaml> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render a resource file to PDF. Stored images are looked up when the")
	fmt.Fprintln(w, "resource id is a UUID and records are persistent (sqlite or postgres).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output .pdf file, directory, or - for stdout")
	fmt.Fprintln(w)
	printDocumentUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printPreviewUsage prints usage for the preview command.
func printPreviewUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: printables preview <resource.yaml> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render the HTML preview of a resource. Layout matches the PDF exactly.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output .html file, directory, or - for stdout")
	fmt.Fprintln(w)
	printDocumentUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printBatchUsage prints usage for the batch command.
func printBatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: printables batch <file-or-dir>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render resource files into one zip archive. Directories are scanned for")
	fmt.Fprintln(w, ".yaml, .yml and .json files. Failed resources are reported and skipped;")
	fmt.Fprintln(w, "an interrupted export writes nothing.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output .zip file, directory, or - for stdout")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --only <ids>          Export only these resource ids (comma-separated)")
	fmt.Fprintln(w)
	printDocumentUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printAssetUsage prints usage for the asset command.
func printAssetUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: printables asset <subcommand> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Manage stored images. Each asset keeps its 10 newest unpinned versions.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Subcommands:")
	fmt.Fprintln(w, "  put <file|->              Upload an image as the new current version")
	fmt.Fprintln(w, "  generate                  Generate an image from --prompt")
	fmt.Fprintln(w, "  edit <file|->             Upload an edit of --source")
	fmt.Fprintln(w, "  list                      List an owner's assets")
	fmt.Fprintln(w, "  history                   List an asset's versions, newest first")
	fmt.Fprintln(w, "  pin <version>             Exempt a version from pruning")
	fmt.Fprintln(w, "  unpin <version>           Make a version prunable again")
	fmt.Fprintln(w, "  restore <version>         Make an older version current")
	fmt.Fprintln(w, "  prune <asset>             Delete versions beyond the retention limit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Asset:")
	fmt.Fprintln(w, "      --owner <type:uuid>   resource:<uuid> or style:<uuid>")
	fmt.Fprintln(w, "      --kind <kind>         Asset kind (default image)")
	fmt.Fprintln(w, "      --name <name>         Asset key referenced by content")
	fmt.Fprintln(w, "      --content-type <t>    Image type for put and edit (detected when empty)")
	fmt.Fprintln(w, "  -p, --prompt <text>       Prompt for generate, instruction for edit")
	fmt.Fprintln(w, "      --param <key=value>   Generation parameter, repeatable")
	fmt.Fprintln(w, "      --source <version>    Version an edit derives from")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, deps *Dependencies) {
	if len(args) == 0 {
		printUsage(deps.Stdout)
		return
	}

	switch args[0] {
	case cmdRender:
		printRenderUsage(deps.Stdout)
	case cmdPreview:
		printPreviewUsage(deps.Stdout)
	case cmdBatch:
		printBatchUsage(deps.Stdout)
	case cmdAsset:
		printAssetUsage(deps.Stdout)
	case cmdDoctor:
		printDoctorUsage(deps.Stdout)
	case cmdCompletion:
		printCompletionUsage(deps.Stdout)
	case cmdVersion:
		fmt.Fprintln(deps.Stdout, "Usage: printables version")
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, "Show version information.")
	case cmdHelp:
		fmt.Fprintln(deps.Stdout, "Usage: printables help [command]")
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(deps.Stderr, "Unknown command: %s\n", args[0])
		printUsage(deps.Stderr)
	}
}
