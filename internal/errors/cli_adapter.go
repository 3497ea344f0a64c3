package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for
// the scout CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if se, ok := As(err); ok {
		return a.exitCodeFromScout(se)
	}

	return 1
}

// exitCodeFromScout maps ScoutError categories to exit codes.
func (a *CLIErrorAdapter) exitCodeFromScout(err *ScoutError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryNotFound:
		return 3 // Unknown job or record
	case CategoryConflict:
		return 4 // State conflict
	case CategoryAuth:
		return 5 // Auth error
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryNetwork:
		return 8 // External system error
	case CategoryGeneration:
		return 9 // LLM generation error
	case CategoryStorage, CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if se, ok := As(err); ok {
		return a.formatScout(se)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatScout formats a ScoutError for display.
func (a *CLIErrorAdapter) formatScout(err *ScoutError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryValidation, CategoryNotFound, CategoryConflict, CategoryConfig, CategoryAuth:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged in addition to the
// user-facing message.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if se, ok := As(err); ok {
		return se.Category == CategoryInternal ||
			se.Category == CategoryStorage ||
			se.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if se, ok := As(err); ok {
		level := a.slogLevelFromSeverity(se.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(se.Category)),
		}
		if se.Retryable {
			attrs = append(attrs, slog.Bool("retryable", true))
		}

		a.logger.LogAttrs(nil, level, se.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts ScoutError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
