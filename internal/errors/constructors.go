package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *LitBuilderError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *LitBuilderError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

func SourceNotFound(path string, cause error) *LitBuilderError {
	return Wrap(cause, CategoryValidation, SeverityFatal, "source document not found").
		WithContext("path", path)
}

// Build pipeline errors

func BuildFailed(stage string, cause error) *LitBuilderError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

func CompilerFailed(command string, cause error) *LitBuilderError {
	return Wrap(cause, CategoryCompiler, SeverityFatal, "literate compiler failed").
		WithContext("command", command)
}

func PlacementFailed(destination string, cause error) *LitBuilderError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "artifact placement failed").
		WithContext("destination", destination)
}

func WorkspaceError(operation string, cause error) *LitBuilderError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

func DiscoveryError(cause error) *LitBuilderError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "document discovery failed")
}

// Runtime errors

func WatchFailed(operation string, cause error) *LitBuilderError {
	return Wrap(cause, CategoryWatch, SeverityFatal, "watch mode failed").
		WithContext("operation", operation)
}

// Storage errors

func StorageError(operation string, cause error) *LitBuilderError {
	return Wrap(cause, CategoryStorage, SeverityError, "history store operation failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *LitBuilderError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
