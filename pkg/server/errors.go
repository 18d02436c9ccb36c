package server

import (
	"errors"
	"fmt"
)

const (
	errorCodeInvalidPort        = "SERVER_INVALID_PORT"
	errorCodeInvalidUploadLimit = "SERVER_INVALID_UPLOAD_LIMIT"
	errorCodeFeaturesDisabled   = "SERVER_FEATURES_DISABLED"
	errorCodeConfigUnavailable  = "SERVER_CONFIG_UNAVAILABLE"
	errorCodeInvalidConfig      = "SERVER_INVALID_CONFIG"
	errorCodeScorerInitFailed   = "SERVER_SCORER_INIT_FAILED"
	errorCodeAppInitFailed      = "SERVER_INIT_FAILED"
	errorCodeRuntimeFailed      = "SERVER_RUNTIME_FAILED"
)

var (
	// ErrInvalidPort indicates an invalid port flag value.
	ErrInvalidPort = errors.New("invalid port")
	// ErrInvalidUploadLimit indicates a non-positive upload size limit.
	ErrInvalidUploadLimit = errors.New("invalid upload limit")
	// ErrFeaturesDisabled indicates API and stream were both disabled.
	ErrFeaturesDisabled = errors.New("api and stream disabled")
	// ErrConfigUnavailable indicates the CLI context lacked a config manager.
	ErrConfigUnavailable = errors.New("config manager unavailable")
)

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with a server error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// NewInvalidPortError formats an invalid port error with context.
func NewInvalidPortError(port int) error {
	return WithErrorCode(fmt.Errorf("%w: invalid port %d: must be between 1 and 65535", ErrInvalidPort, port), errorCodeInvalidPort)
}

// NewInvalidUploadLimitError formats an invalid upload limit error.
func NewInvalidUploadLimitError(limitMB int) error {
	return WithErrorCode(fmt.Errorf("%w: invalid upload limit %d MB: must be at least 1", ErrInvalidUploadLimit, limitMB), errorCodeInvalidUploadLimit)
}

// NewFeaturesDisabledError reports mutually-disabled API/stream flags.
func NewFeaturesDisabledError() error {
	return WithErrorCode(fmt.Errorf("%w: cannot disable both API and stream: at least one must be enabled", ErrFeaturesDisabled), errorCodeFeaturesDisabled)
}

// WrapInvalidConfig annotates server config validation errors.
func WrapInvalidConfig(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("invalid server configuration: %w", err), errorCodeInvalidConfig)
}

// WrapScorerInit annotates scorer initialization failures.
func WrapScorerInit(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeScorerInitFailed)
}

// WrapAppInit annotates server app creation failures.
func WrapAppInit(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeAppInitFailed)
}

// WrapRuntime annotates server runtime failures.
func WrapRuntime(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeRuntimeFailed)
}

// ErrorCode resolves a server error to its error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrInvalidPort):
		return errorCodeInvalidPort
	case errors.Is(err, ErrInvalidUploadLimit):
		return errorCodeInvalidUploadLimit
	case errors.Is(err, ErrFeaturesDisabled):
		return errorCodeFeaturesDisabled
	case errors.Is(err, ErrConfigUnavailable):
		return errorCodeConfigUnavailable
	default:
		return errorCodeRuntimeFailed
	}
}

// ExitCode maps server errors to CLI exit codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, ErrInvalidPort),
		errors.Is(err, ErrInvalidUploadLimit),
		errors.Is(err, ErrFeaturesDisabled):
		return 2
	case errors.Is(err, ErrConfigUnavailable):
		return 1
	case ErrorCode(err) == errorCodeScorerInitFailed,
		ErrorCode(err) == errorCodeAppInitFailed:
		return 7
	default:
		return 1
	}
}

// HTTPStatus maps server errors to HTTP status codes.
func HTTPStatus(err error) int {
	if err == nil {
		return 200
	}

	switch {
	case errors.Is(err, ErrInvalidPort),
		errors.Is(err, ErrInvalidUploadLimit),
		errors.Is(err, ErrFeaturesDisabled):
		return 400
	case errors.Is(err, ErrConfigUnavailable):
		return 500
	default:
		return 500
	}
}

// Suggestions provides CLI hints for server errors.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeInvalidPort:
		return []string{
			"Use a port between 1 and 65535",
			"Example:                 flowsight server start --port 8080",
		}
	case errorCodeInvalidUploadLimit:
		return []string{
			"Set the upload limit to at least 1 MB",
			"Example:                 flowsight server start --server.max_upload_mb 64",
		}
	case errorCodeFeaturesDisabled:
		return []string{
			"Enable either API or stream flags",
			"Remove one of --no-api / --no-stream",
		}
	case errorCodeConfigUnavailable:
		return []string{
			"Run via the flowsight CLI so the config manager initializes",
			"Avoid calling server start from custom scripts without init",
		}
	case errorCodeInvalidConfig:
		return []string{
			"Check configuration values in config file",
			"Retry with --verbose for detailed validation errors",
		}
	case errorCodeScorerInitFailed:
		return []string{
			"Verify the model service URL (scoring.url)",
			"Fall back to built-in rules: flowsight server start --scoring.mode heuristic",
		}
	case errorCodeAppInitFailed:
		return []string{
			"Retry with verbose logging: flowsight server start --verbose",
			"Review configuration for invalid values",
		}
	case errorCodeRuntimeFailed:
		return []string{
			"Check server logs for runtime errors",
			"Ensure no other process is using the selected port",
		}
	default:
		return nil
	}
}
