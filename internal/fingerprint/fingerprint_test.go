package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	content := []byte("# Variance\n\nsome literate content\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Source(path)
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}

	sum := sha256.Sum256(content)
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Fatalf("fingerprint mismatch: got %s, want %s", got, want)
	}
}

func TestSource_MissingFile(t *testing.T) {
	if _, err := Source(filepath.Join(t.TempDir(), "nope.md")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSignatureConsistency(t *testing.T) {
	a, err := New("fp1", "mdweave", []string{"--out", "{artifact_dir}"}, ".md", ".compiled.md")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b, err := New("fp1", "mdweave", []string{"--out", "{artifact_dir}"}, ".md", ".compiled.md")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if a.Hash == "" {
		t.Fatal("Hash should not be empty")
	}
	if a.Hash != b.Hash {
		t.Errorf("identical inputs must produce identical hashes: %s vs %s", a.Hash, b.Hash)
	}
}

func TestSignatureSensitivity(t *testing.T) {
	base, err := New("fp1", "mdweave", []string{"-a", "-b"}, ".md", ".compiled.md")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	changedSource, _ := New("fp2", "mdweave", []string{"-a", "-b"}, ".md", ".compiled.md")
	if changedSource.Hash == base.Hash {
		t.Error("changed source fingerprint must change the hash")
	}

	changedCommand, _ := New("fp1", "pandoc", []string{"-a", "-b"}, ".md", ".compiled.md")
	if changedCommand.Hash == base.Hash {
		t.Error("changed compiler command must change the hash")
	}

	// Argument order is part of the command line.
	reordered, _ := New("fp1", "mdweave", []string{"-b", "-a"}, ".md", ".compiled.md")
	if reordered.Hash == base.Hash {
		t.Error("reordered arguments must change the hash")
	}
}

func TestSignatureDoesNotAliasArgs(t *testing.T) {
	args := []string{"-a"}
	sig, err := New("fp1", "mdweave", args, ".md", ".compiled.md")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	args[0] = "-z"
	if sig.Args[0] != "-a" {
		t.Error("signature must copy the args slice")
	}
}
