// Package workspace manages artifact staging directories for compiler runs,
// supporting both ephemeral (timestamped) and persistent (fixed-path) modes.
//
// Ephemeral mode creates timestamped directories (e.g., litbuilder-20251214-122336)
// that hold compiler artifacts until they are placed beside their sources,
// cleaning up completely after use.
//
// Persistent mode uses a fixed directory path configured as the compiler's
// artifact directory, kept across runs for compilers that cache there.
package workspace
