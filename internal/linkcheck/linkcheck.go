// Package linkcheck verifies that local link targets referenced by a
// compiled output exist on disk. Findings are advisory: a broken link is
// reported as a warning and never fails a run.
package linkcheck

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// Finding describes one broken local link.
type Finding struct {
	Destination string // destination as written in the document
	Target      string // resolved filesystem path that was checked
	Reason      string
}

// CheckFile parses the markdown file at path and reports local link targets
// that do not exist, resolved relative to the file's directory.
func CheckFile(path string) ([]Finding, error) {
	// #nosec G304 -- path is a compiled output the build just placed
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read output for link check: %w", err)
	}
	return Check(content, filepath.Dir(path)), nil
}

// Check reports local link targets in content that do not exist on disk.
// Relative destinations are resolved against baseDir.
func Check(content []byte, baseDir string) []Finding {
	var findings []Finding
	seen := make(map[string]struct{})

	for _, dest := range extractDestinations(content) {
		local, target := resolveLocal(dest, baseDir)
		if !local {
			continue
		}
		if _, dup := seen[dest]; dup {
			continue
		}
		seen[dest] = struct{}{}

		if _, err := os.Stat(target); err != nil {
			findings = append(findings, Finding{
				Destination: dest,
				Target:      target,
				Reason:      "target not found",
			})
		}
	}

	return findings
}

// extractDestinations collects link destinations from the markdown AST and
// from raw HTML embedded in it.
func extractDestinations(content []byte) []string {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(content), parser.WithContext(ctx))

	var dests []string
	var htmlChunks [][]byte

	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			dests = append(dests, string(node.URL(content)))
		case *gmast.Image:
			dests = append(dests, string(node.Destination))
		case *gmast.Link:
			dests = append(dests, string(node.Destination))
		case *gmast.HTMLBlock:
			var buf bytes.Buffer
			for i := range node.Lines().Len() {
				seg := node.Lines().At(i)
				buf.Write(seg.Value(content))
			}
			htmlChunks = append(htmlChunks, buf.Bytes())
		case *gmast.RawHTML:
			var buf bytes.Buffer
			for i := range node.Segments.Len() {
				seg := node.Segments.At(i)
				buf.Write(seg.Value(content))
			}
			htmlChunks = append(htmlChunks, buf.Bytes())
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions live in the parse context, not the AST.
	for _, ref := range ctx.References() {
		dests = append(dests, string(ref.Destination()))
	}

	for _, chunk := range htmlChunks {
		dests = append(dests, extractHTMLDestinations(chunk)...)
	}

	return dests
}

// extractHTMLDestinations pulls href/src values out of an HTML fragment.
func extractHTMLDestinations(fragment []byte) []string {
	doc, err := html.Parse(bytes.NewReader(fragment))
	if err != nil {
		return nil
	}

	var dests []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if href := getAttr(n, "href"); href != "" {
					dests = append(dests, href)
				}
			case "img", "source", "video", "audio":
				if src := getAttr(n, "src"); src != "" {
					dests = append(dests, src)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return dests
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// resolveLocal classifies a destination and resolves it to a filesystem
// path. External URLs, special protocols, and pure fragments are not local.
func resolveLocal(dest, baseDir string) (bool, string) {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return false, ""
	}

	u, err := url.Parse(dest)
	if err != nil {
		// Advisory check: unparseable destinations are skipped, not reported.
		return false, ""
	}
	if u.Scheme != "" || u.Host != "" {
		return false, ""
	}
	if u.Path == "" {
		return false, ""
	}

	path := filepath.FromSlash(u.Path)
	if filepath.IsAbs(path) {
		return true, path
	}
	return true, filepath.Join(baseDir, path)
}
