package api

import (
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"github.com/flowsight/flowsight/pkg/config"
	"github.com/flowsight/flowsight/pkg/result"
	"github.com/flowsight/flowsight/pkg/scoring"
	"github.com/flowsight/flowsight/pkg/server/metrics"
	"github.com/flowsight/flowsight/pkg/server/stream"
	"github.com/flowsight/flowsight/pkg/analytics/view"
)

// Deps holds dependencies for API handlers.
// This pattern enables dependency injection and easier testing.
type Deps struct {
	// Session tracks the currently displayed result and its filters.
	Session *view.Session

	// Store retains completed results for download and re-query.
	Store *result.Store

	// History is the rolling run log.
	History *result.History

	// Scorer produces predictions for uploaded frames.
	Scorer scoring.Scorer

	// FlowScorer handles interactive single-flow predictions.
	FlowScorer scoring.FlowScorer

	// Validate checks inbound request payloads.
	Validate *validator.Validate

	// Hub pushes prediction events to stream clients. May be nil when the
	// stream is disabled.
	Hub *stream.Hub

	// Metrics is the server's Prometheus instrumentation. May be nil in tests.
	Metrics *metrics.Metrics

	// Dataset bounds CSV intake.
	Dataset config.DatasetConfig

	// MaxUploadBytes caps the upload request body. Zero means no cap.
	MaxUploadBytes int64

	// Config holds API-level settings (handler timeout).
	Config Config

	// Ready flag for readiness check
	Ready *atomic.Bool
}
