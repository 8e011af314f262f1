package document

import (
	"path/filepath"
	"testing"
)

func TestOutputName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"markdown source", "typeclasses.md", "typeclasses.compiled.md"},
		{"no extension", "README", "README.compiled.md"},
		{"multiple dots strips last only", "a.b.c.md", "a.b.c.compiled.md"},
		{"not idempotent", "x.compiled.md", "x.compiled.compiled.md"},
		{"dotfile has no extension", ".env", ".env.compiled.md"},
		{"other extension", "notes.markdown", "notes.compiled.md"},
		{"trailing dot", "weird.", "weird.compiled.md"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := OutputName(tc.in); got != tc.want {
				t.Fatalf("OutputName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestOutputPath_KeepsDirectory(t *testing.T) {
	got := OutputPath(filepath.Join("docs", "variance.md"))
	want := filepath.Join("docs", "variance.compiled.md")
	if got != want {
		t.Fatalf("OutputPath = %q, want %q", got, want)
	}
}

func TestIsCompiledOutput(t *testing.T) {
	if !IsCompiledOutput("variance.compiled.md") {
		t.Fatalf("expected variance.compiled.md to be recognized as output")
	}
	if IsCompiledOutput("variance.md") {
		t.Fatalf("variance.md must not be recognized as output")
	}
}
