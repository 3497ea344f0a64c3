package errors

// Convenience constructors for common error patterns

// Input and lookup errors

func ValidationError(message string) *ScoutError {
	return New(CategoryValidation, SeverityWarning, message)
}

func ValidationFailed(field, reason string) *ScoutError {
	return New(CategoryValidation, SeverityWarning, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

func NotFound(kind, id string) *ScoutError {
	return New(CategoryNotFound, SeverityWarning, kind+" not found").
		WithContext("id", id)
}

func Conflict(message string) *ScoutError {
	return New(CategoryConflict, SeverityWarning, message)
}

// Configuration errors

func ConfigNotFound(path string) *ScoutError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *ScoutError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

// Access errors

func AuthError(message string) *ScoutError {
	return New(CategoryAuth, SeverityWarning, message)
}

// External system errors

func NetworkError(url string, cause error) *ScoutError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "network request failed").
		WithContext("url", url)
}

func GenerationFailed(operation string, cause error) *ScoutError {
	return Wrap(cause, CategoryGeneration, SeverityError, "generation failed").
		WithContext("operation", operation)
}

// Persistence errors

func StorageError(operation string, cause error) *ScoutError {
	return Wrap(cause, CategoryStorage, SeverityError, "storage operation failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *ScoutError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
