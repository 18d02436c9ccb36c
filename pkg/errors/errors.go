// Package errors carries the failure classification shared by the scoring,
// intake and API layers. Every user-facing failure resolves to one of four
// categories so the frontend can phrase it consistently.
package errors

import (
	"context"
	"errors"
	"net/http"
)

const (
	// CodeSchema marks uploads rejected for missing or malformed columns.
	CodeSchema = "SCHEMA_ERROR"
	// CodeNetwork marks failures reaching the model service.
	CodeNetwork = "NETWORK_ERROR"
	// CodeTimeout marks requests that exceeded their deadline.
	CodeTimeout = "TIMEOUT_ERROR"
	// CodeProcessing marks everything else that failed mid-analysis.
	CodeProcessing = "PROCESSING_ERROR"
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

// WithErrorCode annotates err with a classification code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// Code resolves err to its classification, defaulting to CodeProcessing.
func Code(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeProcessing
}

// HTTPStatus maps a classification to the HTTP status it is served with.
func HTTPStatus(err error) int {
	switch Code(err) {
	case "":
		return http.StatusOK
	case CodeSchema:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Hint returns a short operator-facing suggestion for a classification.
func Hint(err error) string {
	switch Code(err) {
	case CodeSchema:
		return "check the uploaded CSV against the expected column set"
	case CodeNetwork:
		return "verify the model service URL and that the service is running"
	case CodeTimeout:
		return "retry with a smaller file or raise the scoring timeout"
	case CodeProcessing:
		return "check server logs for the underlying failure"
	default:
		return ""
	}
}
