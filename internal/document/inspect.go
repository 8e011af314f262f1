package document

import (
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Info summarizes the literate content of a document.
type Info struct {
	Title      string // First level-1 heading, empty when absent
	CodeBlocks int    // Fenced and indented code blocks
}

// InspectFile reads the document at path and summarizes it.
func InspectFile(path string) (Info, error) {
	// #nosec G304 -- path comes from document discovery
	content, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("read document for inspection: %w", err)
	}
	return Inspect(content), nil
}

// Inspect parses markdown content and summarizes it. The compiler treats the
// document as a black box; this is only used for listings and diagnostics.
func Inspect(content []byte) Info {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(content))

	info := Info{}
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.Heading:
			if info.Title == "" && node.Level == 1 {
				info.Title = headingText(node, content)
			}
		case *gmast.FencedCodeBlock:
			info.CodeBlocks++
		case *gmast.CodeBlock:
			info.CodeBlocks++
		}
		return gmast.WalkContinue, nil
	})
	return info
}

func headingText(heading *gmast.Heading, source []byte) string {
	var sb strings.Builder
	for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
	}
	return sb.String()
}

// SectionTitle renders a section directory name for display, turning
// separators into spaces and title-casing the words.
func SectionTitle(section string) string {
	if section == "" {
		return ""
	}
	words := strings.NewReplacer("-", " ", "_", " ", "/", " / ").Replace(section)
	return cases.Title(language.English).String(words)
}
