package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorAdapter handles error presentation and status code determination
// for the API server.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates a new HTTP error adapter with an optional slog
// logger. If logger is nil, the default package logger is used.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse represents the standard JSON error payload.
type HTTPErrorResponse struct {
	Error     string         `json:"error"`
	Category  string         `json:"category,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

// StatusCodeFor determines the HTTP status code for a given error based on
// its category. Unclassified errors map to 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if se, ok := As(err); ok {
		switch se.Category {
		case CategoryValidation:
			return http.StatusUnprocessableEntity
		case CategoryNotFound:
			return http.StatusNotFound
		case CategoryConflict:
			return http.StatusConflict
		case CategoryAuth:
			return http.StatusUnauthorized
		case CategoryNetwork, CategoryGeneration:
			return http.StatusBadGateway
		case CategoryConfig, CategoryStorage, CategoryInternal:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}

	return http.StatusInternalServerError
}

// WriteErrorResponse writes a JSON error response and logs with the level
// matching the error's severity.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	status := a.StatusCodeFor(err)
	payload := a.FormatErrorResponse(err)

	b, jerr := json.Marshal(payload)
	if jerr != nil {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)

	if se, ok := As(err); ok {
		lvl := levelFromSeverity(se.Severity)
		a.logger.Log(r.Context(), lvl, se.Error(), slog.Int("status", status))
		return
	}
	a.logger.Error(err.Error(), slog.Int("status", status))
}

// FormatErrorResponse converts known errors into the canonical error payload.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{}
	}
	if se, ok := As(err); ok {
		resp := HTTPErrorResponse{Error: se.Message, Category: string(se.Category)}
		if len(se.Context) > 0 {
			resp.Details = map[string]any(se.Context)
		}
		if se.Retryable {
			resp.Retryable = true
		}
		return resp
	}
	return HTTPErrorResponse{Error: err.Error()}
}

func levelFromSeverity(s ErrorSeverity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
