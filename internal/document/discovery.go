package document

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/litbuilder/internal/logfields"
	"git.home.luguber.info/inful/litbuilder/internal/util/sets"
)

// Document represents a discovered literate source document.
type Document struct {
	Path         string // Absolute or config-relative path to the file
	RelativePath string // Path relative to the source directory
	Section      string // Directory within the source tree ("" for root)
	Name         string // File name without extension
	Extension    string // File extension including the dot ("" for none)
}

// OutputPath returns where the compiled output for this document lands.
func (d Document) OutputPath() string {
	return OutputPath(d.Path)
}

// Scanner discovers source documents under a directory tree.
type Scanner struct {
	extensions sets.Set[string]
}

// NewScanner creates a scanner matching the given file extensions
// (lower-cased, including the dot). An empty list matches ".md" only.
func NewScanner(extensions []string) *Scanner {
	match := sets.New[string]()
	for _, ext := range extensions {
		match.Add(strings.ToLower(ext))
	}
	if match.Len() == 0 {
		match.Add(".md")
	}
	return &Scanner{extensions: match}
}

// Matches reports whether a file name is a candidate source document:
// not hidden, not a compiled output, and carrying a matched extension.
func (s *Scanner) Matches(name string) bool {
	name = filepath.Base(name)
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if IsCompiledOutput(name) {
		return false
	}
	return s.extensions.Has(strings.ToLower(filepath.Ext(name)))
}

// Scan walks root and returns all source documents, sorted by relative path.
// Hidden files and directories are skipped, as are compiled outputs from
// earlier runs.
func (s *Scanner) Scan(root string) ([]Document, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("source directory not accessible: %s: %w", root, err)
	}

	var docs []Document
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		name := info.Name()
		if !s.Matches(name) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("invalid relative path for %s: %w", path, err)
		}

		section := filepath.Dir(relPath)
		if section == "." {
			section = ""
		}

		base, docExt := splitName(name)
		doc := Document{
			Path:         path,
			RelativePath: relPath,
			Section:      section,
			Name:         base,
			Extension:    docExt,
		}
		docs = append(docs, doc)

		slog.Debug("Discovered document",
			logfields.File(relPath),
			logfields.Section(section))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].RelativePath < docs[j].RelativePath })
	return docs, nil
}

// Resolve returns the Document for a single source file path, without
// requiring it to live under the configured source directory.
func Resolve(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("source document not found: %s: %w", path, err)
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("source document is a directory: %s", path)
	}

	base, ext := splitName(info.Name())
	return Document{
		Path:         path,
		RelativePath: info.Name(),
		Name:         base,
		Extension:    ext,
	}, nil
}
