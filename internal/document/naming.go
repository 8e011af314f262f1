// Package document locates literate source documents and names their
// compiled outputs.
package document

import (
	"path/filepath"
	"strings"
)

// CompiledSuffix is appended to a source document's base name to form the
// name of its compiled output. The output always lands beside the source.
const CompiledSuffix = ".compiled.md"

// OutputName maps a source file name to its compiled output name: the last
// extension is stripped and CompiledSuffix appended.
//
//	typeclasses.md -> typeclasses.compiled.md
//	README         -> README.compiled.md
//	a.b.c.md       -> a.b.c.compiled.md
//
// Only the last extension is stripped, so the mapping is not idempotent:
// x.compiled.md maps to x.compiled.compiled.md. Dotfiles such as .env carry
// no extension and map to .env.compiled.md.
func OutputName(name string) string {
	base, _ := splitName(name)
	return base + CompiledSuffix
}

// splitName separates a file name into base and extension. Dotfiles such as
// .env carry no extension.
func splitName(name string) (base, ext string) {
	ext = filepath.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

// OutputPath returns the full path of the compiled output for sourcePath,
// in the same directory as the source.
func OutputPath(sourcePath string) string {
	return filepath.Join(filepath.Dir(sourcePath), OutputName(filepath.Base(sourcePath)))
}

// IsCompiledOutput reports whether name looks like a compiled output.
// Discovery uses this to keep outputs from being picked up as sources.
func IsCompiledOutput(name string) bool {
	return strings.HasSuffix(name, CompiledSuffix)
}
