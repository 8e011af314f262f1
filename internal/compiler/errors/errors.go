package errors

// Package errors provides sentinel errors for compiler invocation.
// These enable consistent classification while keeping user-facing
// messages descriptive via wrapping.

import "errors"

var (
	// ErrCompilerNotFound indicates the configured compiler executable was not detected on PATH.
	ErrCompilerNotFound = errors.New("compiler binary not found")
	// ErrCompileFailed indicates the compiler command returned a non-zero exit status.
	ErrCompileFailed = errors.New("compiler execution failed")
	// ErrArtifactMissing indicates the compiler finished without leaving an artifact in the artifact directory.
	ErrArtifactMissing = errors.New("compiler produced no artifact")
	// ErrArtifactAmbiguous indicates the artifact directory holds several candidate files and none matches the source name.
	ErrArtifactAmbiguous = errors.New("compiler produced multiple artifacts")
)
