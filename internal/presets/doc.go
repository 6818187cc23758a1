// Package presets provides named style presets for printable documents.
//
// # Loader Architecture
//
//	Loader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in presets compiled into the binary
//	    ├── FilesystemLoader  - presets from a directory on disk
//	    └── Resolver          - directory first, built-in fallback
//
// A preset is a YAML document holding a palette, typography and an optional
// card layout. This package only locates and reads the bytes; decoding into
// a style happens in the caller.
//
// # Directory Structure
//
//	{basePath}/
//	└── styles/
//	    └── {name}.yaml
//
// # Security
//
// Preset names are validated to prevent path traversal.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package presets
