// Package compiler invokes the external literate-document compiler.
//
// The engine is a black box: litbuilder hands it one source document and an
// artifact directory, and expects exactly one artifact file to appear there.
package compiler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	cerrors "git.home.luguber.info/inful/litbuilder/internal/compiler/errors"
	"git.home.luguber.info/inful/litbuilder/internal/logfields"
)

// Request describes one document compilation.
type Request struct {
	SourcePath  string // path to the literate source document
	Base        string // source file name without extension, used to match the artifact
	ArtifactDir string // directory the engine must write its artifact into
}

// Result reports what the engine produced.
type Result struct {
	ArtifactPath string
	Stdout       string
	Stderr       string
}

// Compiler abstracts the external engine invocation so tests and alternative
// strategies (in-process engines, remote services) can stand in for the real
// binary without changing stage orchestration.
type Compiler interface {
	Compile(ctx context.Context, req Request) (*Result, error)
}

// Func adapts a plain function to the Compiler interface.
type Func func(ctx context.Context, req Request) (*Result, error)

func (f Func) Compile(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

// ExecCompiler invokes the configured compiler binary from PATH.
//
// Occurrences of {source}, {source_dir}, {base} and {artifact_dir} in the
// configured arguments are expanded per run. When no argument references
// {source}, the source path is appended as the final argument. The command
// runs with the artifact directory as its working directory, so engines that
// write to the current directory need no placeholder at all.
type ExecCompiler struct {
	Command     string
	Args        []string
	ArtifactExt string
}

// NewExecCompiler creates an ExecCompiler for the given command line.
func NewExecCompiler(command string, args []string, artifactExt string) *ExecCompiler {
	return &ExecCompiler{
		Command:     command,
		Args:        append([]string(nil), args...),
		ArtifactExt: artifactExt,
	}
}

func (c *ExecCompiler) Compile(ctx context.Context, req Request) (*Result, error) {
	if _, err := exec.LookPath(c.Command); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", cerrors.ErrCompilerNotFound, c.Command, err)
	}

	if stat, err := os.Stat(req.ArtifactDir); err != nil {
		return nil, fmt.Errorf("artifact directory not found: %w", err)
	} else if !stat.IsDir() {
		return nil, fmt.Errorf("artifact directory is not a directory: %s", req.ArtifactDir)
	}

	source, err := filepath.Abs(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}

	args := expandArgs(c.Args, source, req.Base, req.ArtifactDir)

	// #nosec G204 -- command and args come from the validated configuration
	cmd := exec.CommandContext(ctx, c.Command, args...)
	cmd.Dir = req.ArtifactDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking compiler",
		slog.String("command", c.Command),
		slog.Any("args", args),
		logfields.Document(req.SourcePath))

	runErr := cmd.Run()

	// Engine output goes to the log regardless of outcome so failed runs can
	// be diagnosed from the log alone.
	outStr := stdout.String()
	errStr := stderr.String()
	if outStr != "" {
		slog.Debug("compiler stdout", slog.String("output", outStr))
	}
	if errStr != "" {
		slog.Warn("compiler stderr", slog.String("error_output", errStr))
	}

	if runErr != nil {
		output := errStr
		if output == "" {
			output = outStr
		} else if outStr != "" {
			output = outStr + "\n" + errStr
		}
		if output != "" {
			return nil, fmt.Errorf("%w: %w: %s", cerrors.ErrCompileFailed, runErr, strings.TrimSpace(output))
		}
		return nil, fmt.Errorf("%w: %w", cerrors.ErrCompileFailed, runErr)
	}

	artifact, err := c.locateArtifact(req)
	if err != nil {
		return nil, err
	}

	return &Result{
		ArtifactPath: artifact,
		Stdout:       outStr,
		Stderr:       errStr,
	}, nil
}

// expandArgs substitutes run placeholders into the configured arguments.
func expandArgs(args []string, source, base, artifactDir string) []string {
	expanded := make([]string, 0, len(args)+1)
	sourceReferenced := false
	replacer := strings.NewReplacer(
		"{source}", source,
		"{source_dir}", filepath.Dir(source),
		"{base}", base,
		"{artifact_dir}", artifactDir,
	)
	for _, arg := range args {
		if strings.Contains(arg, "{source}") {
			sourceReferenced = true
		}
		expanded = append(expanded, replacer.Replace(arg))
	}
	if !sourceReferenced {
		expanded = append(expanded, source)
	}
	return expanded
}

// locateArtifact finds the file the engine left in the artifact directory.
// A file named after the source wins; otherwise a single regular file is
// accepted, and anything else is an error.
func (c *ExecCompiler) locateArtifact(req Request) (string, error) {
	preferred := filepath.Join(req.ArtifactDir, req.Base+c.ArtifactExt)
	if stat, err := os.Stat(preferred); err == nil && stat.Mode().IsRegular() {
		return preferred, nil
	}

	entries, err := os.ReadDir(req.ArtifactDir)
	if err != nil {
		return "", fmt.Errorf("read artifact directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(req.ArtifactDir, entry.Name()))
		}
	}

	switch len(files) {
	case 0:
		return "", fmt.Errorf("%w: nothing in %s", cerrors.ErrArtifactMissing, req.ArtifactDir)
	case 1:
		return files[0], nil
	default:
		return "", fmt.Errorf("%w: %d files in %s and none named %s",
			cerrors.ErrArtifactAmbiguous, len(files), req.ArtifactDir, req.Base+c.ArtifactExt)
	}
}
