package document

import (
	"fmt"
	"io"
	"os"
)

// PlaceArtifact moves the compiler's artifact next to the source document
// under the compiled output name and returns the destination path. An
// existing output at the destination is replaced. The artifact no longer
// exists at its original path after a successful call.
func PlaceArtifact(artifactPath, sourcePath string) (string, error) {
	dest := OutputPath(sourcePath)

	// Remove any previous output first so the rename behaves the same on
	// every platform.
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("remove previous output %s: %w", dest, err)
	}

	if err := os.Rename(artifactPath, dest); err != nil {
		// Rename fails across filesystems; fall back to copy and remove.
		if copyErr := copyFile(artifactPath, dest); copyErr != nil {
			return "", fmt.Errorf("place artifact at %s: %w", dest, err)
		}
		if err := os.Remove(artifactPath); err != nil {
			return "", fmt.Errorf("remove intermediate artifact %s: %w", artifactPath, err)
		}
	}

	return dest, nil
}

func copyFile(src, dst string) error {
	// #nosec G304 -- src/dst come from resolved document and staging paths
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = sourceFile.Close() }()

	// #nosec G304 -- src/dst come from resolved document and staging paths
	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = destFile.Close() }()

	_, err = io.Copy(destFile, sourceFile)
	return err
}
