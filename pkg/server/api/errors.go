package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	fserrors "github.com/flowsight/flowsight/pkg/errors"
)

// ErrorResponse represents a standard JSON error response.
// Used consistently across all API endpoints for error responses.
//
// Example:
//
//	{
//	  "error": "Unprocessable Entity",
//	  "code": "SCHEMA_ERROR",
//	  "message": "uploaded CSV is missing required columns: dst_port",
//	  "hint": "check the uploaded CSV against the expected column set"
//	}
type ErrorResponse struct {
	Error   string `json:"error"`             // Short error type (e.g., "Not Found", "Internal Server Error")
	Code    string `json:"code,omitempty"`    // Failure classification (SCHEMA_ERROR, NETWORK_ERROR, ...)
	Message string `json:"message,omitempty"` // Detailed error message (optional)
	Hint    string `json:"hint,omitempty"`    // Operator-facing suggestion (optional)
}

// WriteError writes a standard JSON error response to the client.
// The HTTP status and the code field follow the failure classification:
// schema errors are 422, model-service network failures 502, timeouts 504,
// everything else 500.
//
// It also logs the error with structured logging for observability.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := fserrors.HTTPStatus(err)
	code := fserrors.Code(err)

	logEvent := log.Error().
		Str("component", "api").
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("code", code).
		Int("status", statusCode).
		Err(err)

	if code == fserrors.CodeSchema {
		logEvent.Msg("Upload rejected")
	} else {
		logEvent.Msg("Request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    code,
		Message: err.Error(),
		Hint:    fserrors.Hint(err),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode error response")
	}
}

// WriteJSONError writes a custom JSON error response with a specific status code.
// Use this when you need fine-grained control over the error response.
//
// Example:
//
//	WriteJSONError(w, http.StatusBadRequest, "Invalid Input", "file part is required")
func WriteJSONError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   errorType,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode error response")
	}
}

// WriteJSON writes a JSON response to the client.
// Use this for successful API responses.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode JSON response")
	}
}
