// Package fingerprint computes deterministic input signatures for compile
// runs, used to skip recompiling unchanged documents.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Source returns the hex-encoded SHA-256 of the file at path.
func Source(path string) (string, error) {
	// #nosec G304 -- path comes from resolved document discovery
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open source for fingerprinting: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash source content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Signature represents the complete signature of a compile run's inputs.
// Two runs with identical signatures produce identical outputs, so the
// second can be skipped.
type Signature struct {
	Source       string   `json:"source"` // content fingerprint from Source
	Command      string   `json:"command"`
	Args         []string `json:"args,omitempty"`
	ArtifactExt  string   `json:"artifact_ext,omitempty"`
	OutputSuffix string   `json:"output_suffix"`
	Hash         string   `json:"hash"` // computed hash of all above
}

// New builds a complete signature for one compile run. Argument order is
// part of the command line and therefore part of the hash.
func New(sourceFingerprint, command string, args []string, artifactExt, outputSuffix string) (*Signature, error) {
	sig := &Signature{
		Source:       sourceFingerprint,
		Command:      command,
		Args:         append([]string(nil), args...),
		ArtifactExt:  artifactExt,
		OutputSuffix: outputSuffix,
	}

	hash, err := computeSignatureHash(sig)
	if err != nil {
		return nil, fmt.Errorf("failed to compute signature hash: %w", err)
	}
	sig.Hash = hash
	return sig, nil
}

// computeSignatureHash computes the SHA-256 hash of the signature components.
func computeSignatureHash(sig *Signature) (string, error) {
	// Normalized representation for hashing; Hash itself is excluded.
	normalized := struct {
		Source       string   `json:"source"`
		Command      string   `json:"command"`
		Args         []string `json:"args,omitempty"`
		ArtifactExt  string   `json:"artifact_ext,omitempty"`
		OutputSuffix string   `json:"output_suffix"`
	}{
		Source:       sig.Source,
		Command:      sig.Command,
		Args:         sig.Args,
		ArtifactExt:  sig.ArtifactExt,
		OutputSuffix: sig.OutputSuffix,
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("failed to marshal signature: %w", err)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
